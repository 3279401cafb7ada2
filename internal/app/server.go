package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/specialistvlad/procgrid/internal/ctxlog"
	"github.com/specialistvlad/procgrid/internal/dump"
	"github.com/specialistvlad/procgrid/internal/errs"
	"github.com/specialistvlad/procgrid/internal/process"
)

const shutdownTimeout = 5 * time.Second

// inspector serves read-only views of a frozen process.
type inspector struct {
	app  *App
	proc *process.Process
	snap process.Snapshot
}

// Handler returns the inspection routes for a frozen process.
func (a *App) Handler(p *process.Process) http.Handler {
	in := &inspector{app: a, proc: p, snap: p.Snapshot()}

	router := mux.NewRouter()
	router.HandleFunc("/health", in.health).Methods("GET")
	router.HandleFunc("/process", in.process).Methods("GET")
	router.HandleFunc("/schedule", in.schedule).Methods("GET")
	router.HandleFunc("/paths/{label}", in.path).Methods("GET")
	router.HandleFunc("/outputs", in.outputs).Methods("GET")
	return router
}

func (in *inspector) health(w http.ResponseWriter, r *http.Request) {
	in.app.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// process writes the snapshot; ?format= selects yaml, json or hcl.
func (in *inspector) process(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = dump.FormatJSON
	}
	switch format {
	case dump.FormatJSON:
		w.Header().Set("Content-Type", "application/json")
	case dump.FormatYAML:
		w.Header().Set("Content-Type", "application/yaml")
	case dump.FormatHCL:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	default:
		http.Error(w, fmt.Sprintf("unknown format %q", format), http.StatusBadRequest)
		return
	}
	if err := dump.Write(w, in.snap, format); err != nil {
		in.app.logger.Error("Failed to write process.", "error", err)
	}
}

func (in *inspector) schedule(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{
		"entries":    in.snap.Schedule,
		"associated": in.snap.Associated,
	})
}

type pathView struct {
	Label    string   `json:"label"`
	End      bool     `json:"end"`
	Items    []string `json:"items"`
	Expanded []string `json:"expanded"`
}

func (in *inspector) path(w http.ResponseWriter, r *http.Request) {
	label := mux.Vars(r)["label"]
	path, err := in.proc.Path(label)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		return
	}
	expanded, err := in.proc.Expand(label)
	if err != nil {
		status := http.StatusInternalServerError
		if errs.IsNameResolution(err) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	view := pathView{Label: label, End: path.End, Items: []string{}, Expanded: []string{}}
	for _, item := range path.Items {
		view.Items = append(view.Items, item.String())
	}
	for _, item := range expanded {
		view.Expanded = append(view.Expanded, item.String())
	}
	writeJSON(w, http.StatusOK, view)
}

func (in *inspector) outputs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, in.snap.Outputs)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Serve builds the process and serves the inspection routes on the
// configured address until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	p, err := a.Build(ctx)
	if err != nil {
		return err
	}

	ln, err := net.Listen("tcp", a.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.config.ListenAddr, err)
	}
	return a.serve(ctx, ln, p)
}

func (a *App) serve(ctx context.Context, ln net.Listener, p *process.Process) error {
	srv := &http.Server{
		Handler:           a.Handler(p),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Inspection server starting.", "address", ln.Addr().String(), "process", p.Name())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("inspection server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	a.logger.Info("Shutting down inspection server...")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("Inspection server shutdown failed.", "error", err)
		return err
	}
	<-errCh
	a.logger.Debug("Inspection server shut down gracefully.")
	return nil
}
