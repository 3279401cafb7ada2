package testutil

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/specialistvlad/procgrid/internal/plugin"
	"github.com/specialistvlad/procgrid/internal/process"
	"github.com/specialistvlad/procgrid/internal/registry"
)

// StreamRecorder is a shared, self-contained module for concurrency tests.
// Its "SlowAnalyzer" plugin holds every event for a fixed time and records
// how many events were being analysed at once.
type StreamRecorder struct {
	sleep time.Duration

	active  atomic.Int64
	maxSeen atomic.Int64

	mu     sync.Mutex
	events map[uint64]int
}

// NewStreamRecorder creates a recorder whose analyzer sleeps for sleep.
func NewStreamRecorder(sleep time.Duration) *StreamRecorder {
	return &StreamRecorder{sleep: sleep, events: make(map[uint64]int)}
}

// Register registers the "SlowAnalyzer" plugin.
func (m *StreamRecorder) Register(r *registry.Registry) {
	r.RegisterPlugin("SlowAnalyzer", &plugin.Registered{
		Kind:        process.KindAnalyzer,
		Description: "Test analyzer that records stream concurrency.",
		New: func(plugin.Config) (any, error) {
			return slowAnalyzer{m}, nil
		},
	})
}

// MaxConcurrent returns the highest number of events analysed at once.
func (m *StreamRecorder) MaxConcurrent() int {
	return int(m.maxSeen.Load())
}

// Seen returns how many times each event number was analysed.
func (m *StreamRecorder) Seen() map[uint64]int {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[uint64]int, len(m.events))
	for k, v := range m.events {
		out[k] = v
	}
	return out
}

type slowAnalyzer struct{ m *StreamRecorder }

func (a slowAnalyzer) Analyze(ctx context.Context, ev *plugin.Event) error {
	m := a.m
	n := m.active.Add(1)
	defer m.active.Add(-1)
	for {
		seen := m.maxSeen.Load()
		if n <= seen || m.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	m.mu.Lock()
	m.events[ev.Number]++
	m.mu.Unlock()

	select {
	case <-time.After(m.sleep):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
