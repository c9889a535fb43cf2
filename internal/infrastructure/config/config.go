package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	sharedConfig "github.com/orris-inc/kanban/internal/shared/config"
	"github.com/orris-inc/kanban/internal/shared/constants"
)

type Config struct {
	API    sharedConfig.APIConfig    `mapstructure:"api"`
	Board  sharedConfig.BoardConfig  `mapstructure:"board"`
	Logger sharedConfig.LoggerConfig `mapstructure:"logger"`
}

// Load loads configuration from an optional config file and environment
// variables. configFile, when non-empty, replaces the search path.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("$HOME/.kanban")
	}

	// KANBAN_API_BASE_URL overrides api.base_url, and so on
	v.SetEnvPrefix("KANBAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if c.API.Timeout < 0 {
		return fmt.Errorf("api.timeout must not be negative")
	}
	if c.Board.PollInterval <= 0 {
		return fmt.Errorf("board.poll_interval must be positive")
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// API defaults
	v.SetDefault("api.base_url", constants.DefaultBaseURL)
	v.SetDefault("api.timeout", 30*time.Second)
	v.SetDefault("api.user_agent", constants.DefaultUserAgent)

	// Board defaults
	v.SetDefault("board.poll_interval", 5*time.Second)
	v.SetDefault("board.assignees", []string{})

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.output_path", "stderr")
	v.SetDefault("logger.debug", false)
}
