package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/mstoykov/envconfig"
	"gopkg.in/guregu/null.v3"
	"gopkg.in/yaml.v3"
)

const configFileName = ".harnessctlrc"

// fileConfig is the .harnessctlrc structure. YAML, so JSON files load too.
type fileConfig struct {
	Port     *int    `yaml:"port"`
	Host     *string `yaml:"host"`
	Timeout  *string `yaml:"timeout"` // duration string, e.g. "30s"
	Output   *string `yaml:"output"`
	Target   *string `yaml:"target"`
	Backend  *string `yaml:"backend"`
	LogLevel *string `yaml:"logLevel"`
}

// loadConfigFile applies the first config file found to cfg. An explicit
// path must exist; otherwise the working directory is checked first, then
// the home directory, and a missing file is not an error.
func loadConfigFile(cfg *Config, explicit string) error {
	paths := []string{filepath.Join(".", configFileName)}
	if cfg.HomeDir != "" {
		paths = append(paths, filepath.Join(cfg.HomeDir, configFileName))
	}
	if explicit != "" {
		paths = []string{explicit}
	}

	for _, p := range paths {
		data, err := os.ReadFile(p)
		if errors.Is(err, fs.ErrNotExist) && explicit == "" {
			continue
		}
		if err != nil {
			return err
		}
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return fmt.Errorf("parsing %s: %w", p, err)
		}
		return applyFileConfig(cfg, &fc)
	}
	return nil
}

func applyFileConfig(cfg *Config, fc *fileConfig) error {
	if fc.Port != nil {
		cfg.Port = *fc.Port
	}
	if fc.Host != nil {
		cfg.Host = *fc.Host
	}
	if fc.Timeout != nil {
		d, err := time.ParseDuration(*fc.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout %q: %w", *fc.Timeout, err)
		}
		cfg.Timeout = d
	}
	if fc.Output != nil {
		cfg.Output = *fc.Output
	}
	if fc.Target != nil {
		cfg.Target = *fc.Target
	}
	if fc.Backend != nil {
		cfg.Backend = *fc.Backend
	}
	if fc.LogLevel != nil {
		cfg.LogLevel = *fc.LogLevel
	}
	return nil
}

// envConfig holds the HARNESSCTL_* variables. Unset variables stay invalid.
type envConfig struct {
	Host     null.String `envconfig:"HARNESSCTL_HOST"`
	Port     null.Int    `envconfig:"HARNESSCTL_PORT"`
	Timeout  null.String `envconfig:"HARNESSCTL_TIMEOUT"`
	Output   null.String `envconfig:"HARNESSCTL_OUTPUT"`
	Backend  null.String `envconfig:"HARNESSCTL_BACKEND"`
	LogLevel null.String `envconfig:"HARNESSCTL_LOG_LEVEL"`
}

func applyEnvVars(cfg *Config) error {
	var env envConfig
	lookup := cfg.LookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := envconfig.Process("", &env, lookup); err != nil {
		return err
	}

	if env.Host.Valid {
		cfg.Host = env.Host.String
	}
	if env.Port.Valid {
		cfg.Port = int(env.Port.Int64)
	}
	if env.Timeout.Valid {
		d, err := time.ParseDuration(env.Timeout.String)
		if err != nil {
			return fmt.Errorf("invalid HARNESSCTL_TIMEOUT %q: %w", env.Timeout.String, err)
		}
		cfg.Timeout = d
	}
	if env.Output.Valid {
		cfg.Output = env.Output.String
	}
	if env.Backend.Valid {
		cfg.Backend = env.Backend.String
	}
	if env.LogLevel.Valid {
		cfg.LogLevel = env.LogLevel.String
	}
	return nil
}
