package app

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/specialistvlad/procgrid/internal/builder"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ProcessPath   string   `validate:"required"` // process hcl files
	FragmentPaths []string // fragment hcl files

	LogFormat string `validate:"oneof=text json"`
	LogLevel  string `validate:"oneof=debug info warn error"`

	// ConditionsDB is an optional SQLite alias catalog consulted before the
	// aliases declared in fragments.
	ConditionsDB string

	Overrides builder.Overrides `validate:"-"`

	// Dry-run settings.
	Events        int64  `validate:"gte=0"`
	Streams       int    `validate:"gte=0"`
	Run           uint32 `validate:"gte=0"`
	EventsPerLumi uint64 `validate:"gte=0"`

	ListenAddr string
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// NewConfig validates cfg and returns a copy with defaults applied.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)

	if err := validate.Struct(cfg); err != nil {
		var msgs []string
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed on '%s'", fe.Field(), fe.Tag()))
			}
			return nil, fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
		}
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
