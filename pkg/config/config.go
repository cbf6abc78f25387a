package config

import (
	"fmt"
	"os"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds the server settings. Values come from an optional YAML file
// and are overridden by environment variables.
type Config struct {
	Port               string   `yaml:"port" env:"PORT" env-default:"8080"`
	Debug              bool     `yaml:"debug" env:"DEBUG" env-default:"false"`
	LogLevel           string   `yaml:"log-level" env:"LOG_LEVEL" env-default:"info"`
	FrontendOrigin     string   `yaml:"frontend-origin" env:"FRONTEND_PATH"`
	APIKeys            []string `yaml:"api-keys" env:"API_KEYS" env-separator:","`
	MaxConcurrentGames int      `yaml:"max-concurrent-games" env:"MAX_CONCURRENT_GAMES" env-default:"200"`
}

// Load reads the configuration. An empty path, or a path that does not
// exist, means environment variables and defaults only.
func Load(path string) (*Config, error) {
	config := &Config{}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, config); err != nil {
				return nil, fmt.Errorf("unable to load config file: %w", err)
			}
			return config, nil
		}
	}

	if err := cleanenv.ReadEnv(config); err != nil {
		return nil, fmt.Errorf("unable to read environment: %w", err)
	}

	return config, nil
}
