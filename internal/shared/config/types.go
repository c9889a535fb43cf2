package config

import "time"

// APIConfig locates the ticket REST API.
type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// BoardConfig tunes the board controller.
type BoardConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	Assignees    []string      `mapstructure:"assignees"`
}

type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	OutputPath string `mapstructure:"output_path"`
	Debug      bool   `mapstructure:"debug"`
}
