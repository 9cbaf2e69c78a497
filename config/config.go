package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/matriops/lifeline/core/dispatch"
	"github.com/matriops/lifeline/core/metrics"
	"github.com/matriops/lifeline/infra/mqtt"
)

type Config struct {
	Dispatch dispatch.Config `json:"dispatch"`
	MQTT     mqtt.Config     `json:"mqtt"`
	Metrics  metrics.Config  `json:"metrics"`
	Logging  LoggingConfig   `json:"logging"`
	TripLog  TripLogConfig   `json:"trip_log"`
	Fleet    FleetConfig     `json:"fleet"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("LL_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "ll_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Dispatch.SetDefaults()
	cfg.MQTT.SetDefaults()
	cfg.Logging.SetDefaults()
	cfg.TripLog.SetDefaults()
	if err := cfg.Logging.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.TripLog.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Fleet.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
