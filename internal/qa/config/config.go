package config

import (
	"time"

	"b3-stock-qa/internal/knowledge/ingest"
	"b3-stock-qa/pkg/config"
)

// Knowledge holds the knowledge-base build configuration.
type Knowledge struct {
	SchemaPath     string                `mapstructure:"schema_path"`
	AliasMapPath   string                `mapstructure:"alias_map_path"`
	TemplatesDir   string                `mapstructure:"templates_dir"`
	CompanySources []string              `mapstructure:"company_sources"`
	TradingSources []string              `mapstructure:"trading_sources"`
	TradingColumns ingest.TradingColumns `mapstructure:"trading_columns"`
	StrictTickers  bool                  `mapstructure:"strict_tickers"`
}

// RateLimit bounds how often the NLU subprocess may be spawned.
type RateLimit struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// NLU holds the natural-language-understanding subprocess configuration.
type NLU struct {
	Command   string        `mapstructure:"command"`
	Args      []string      `mapstructure:"args"`
	Timeout   time.Duration `mapstructure:"timeout"`
	RateLimit RateLimit     `mapstructure:"rate_limit"`
}

// Config holds the full configuration for the QA service.
type Config struct {
	App       config.App    `mapstructure:"app"`
	Logger    config.Logger `mapstructure:"logger"`
	API       config.API    `mapstructure:"api"`
	Knowledge Knowledge     `mapstructure:"knowledge"`
	NLU       NLU           `mapstructure:"nlu"`
}

// Load loads the QA service configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg); err != nil {
		return nil, err
	}
	if cfg.NLU.Timeout <= 0 {
		cfg.NLU.Timeout = 60 * time.Second
	}
	if cfg.NLU.RateLimit.RPS <= 0 {
		cfg.NLU.RateLimit.RPS = 5
	}
	if cfg.NLU.RateLimit.Burst <= 0 {
		cfg.NLU.RateLimit.Burst = 5
	}
	return &cfg, nil
}
