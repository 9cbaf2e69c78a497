package config

import (
	"fmt"

	"github.com/rs/zerolog"
)

// LoggingConfig defines the global zerolog settings.
type LoggingConfig struct {
	// Level is one of zerolog's named levels: "debug", "info", "warn", "error".
	Level string `json:"level"`
}

// SetDefaults applies sane defaults.
func (c *LoggingConfig) SetDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
}

// Validate checks mandatory fields.
func (c LoggingConfig) Validate() error {
	if _, err := zerolog.ParseLevel(c.Level); err != nil {
		return fmt.Errorf("unknown log level %s", c.Level)
	}
	return nil
}

// Apply sets the global zerolog level.
func (c LoggingConfig) Apply() {
	lvl, err := zerolog.ParseLevel(c.Level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
}
