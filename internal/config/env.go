package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// EnvConfig holds overrides read from the environment. Empty means unset.
type EnvConfig struct {
	User       string `env:"TYPECLOCK_USER"`
	DB         string `env:"TYPECLOCK_DB"`
	LogLevel   string `env:"TYPECLOCK_LOG_LEVEL"`
	ConfigPath string `env:"TYPECLOCK_CONFIG"`
}

// LoadEnv loads dotenv files (missing ones are skipped) and parses the
// TYPECLOCK_* variables. Variables already set in the process win over
// dotenv values.
func LoadEnv(dotenvFiles ...string) (EnvConfig, error) {
	for _, file := range dotenvFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return EnvConfig{}, fmt.Errorf("failed to load %s: %w", file, err)
		}
	}
	var cfg EnvConfig
	if err := env.Parse(&cfg); err != nil {
		return EnvConfig{}, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

// ConfigFilePath returns the config file to read, honouring TYPECLOCK_CONFIG.
func (e EnvConfig) ConfigFilePath() string {
	if e.ConfigPath != "" {
		return e.ConfigPath
	}
	return DefaultConfigPath()
}

// Resolve picks the first non-empty value among an explicit flag, the
// environment, the config file and the default.
func Resolve(flag, envValue string, file *string, def string) string {
	switch {
	case flag != "":
		return flag
	case envValue != "":
		return envValue
	case file != nil && *file != "":
		return *file
	default:
		return def
	}
}
