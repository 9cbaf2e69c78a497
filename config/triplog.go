package config

import (
	"fmt"

	"github.com/matriops/lifeline/core/triplog"
)

// TripLogConfig defines settings for the completed-trip ledger.
type TripLogConfig struct {
	// Backend selects the ledger type: "jsonl" or "memory".
	Backend string `json:"backend"`
	// Path is the file location of the jsonl ledger.
	Path string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *TripLogConfig) SetDefaults() {
	if c.Backend == "" {
		c.Backend = "jsonl"
	}
	if c.Path == "" {
		c.Path = "trips.log"
	}
}

// Validate checks mandatory fields.
func (c TripLogConfig) Validate() error {
	if c.Backend != "jsonl" && c.Backend != "memory" {
		return fmt.Errorf("unknown backend %s", c.Backend)
	}
	if c.Backend == "jsonl" && c.Path == "" {
		return fmt.Errorf("path is required")
	}
	return nil
}

// Open creates the configured trip recorder.
func (c TripLogConfig) Open() (triplog.Recorder, error) {
	switch c.Backend {
	case "memory":
		return triplog.NewMemoryRecorder(), nil
	default:
		return triplog.NewJSONLRecorder(c.Path)
	}
}
