package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/rezkam/dbsettings/internal/env"
)

// DefaultDotEnvPath is the .env file read before the environment is parsed.
const DefaultDotEnvPath = ".env"

var validate = validator.New(validator.WithRequiredStructEnabled())

// BootstrapConfig holds all configuration for the dbsettings binary.
type BootstrapConfig struct {
	// DevelopMode swaps every secret lookup for the mock provider.
	DevelopMode bool `env:"DEVELOP_MODE" default:"true"`

	// ProfilerMode prints a memory report for the settings objects after construction.
	ProfilerMode bool `env:"PROFILER_MODE" default:"false"`

	Secrets       SecretsConfig
	Database      DatabaseConfig
	Observability ObservabilityConfig
}

// Load reads the optional .env file (DOTENV_PATH, default .env), then parses
// and validates the environment.
func Load() (*BootstrapConfig, error) {
	path := DefaultDotEnvPath
	if p, ok := os.LookupEnv("DOTENV_PATH"); ok {
		path = p
	}
	if err := env.LoadDotEnv(path); err != nil {
		return nil, fmt.Errorf("failed to load dotenv: %w", err)
	}

	cfg := &BootstrapConfig{}
	if err := env.Load(cfg); err != nil {
		return nil, fmt.Errorf("failed to load bootstrap config: %w", err)
	}

	return cfg, nil
}

// Validate checks the struct tags of the whole configuration tree.
func (c *BootstrapConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
