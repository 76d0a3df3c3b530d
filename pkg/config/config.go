package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/meridianchain/meridian/pkg/chainspec"
)

// Config is the resolved runtime configuration of a node process.
//
// It is owned by the Runner between construction and the moment an
// invocation mode consumes it; until then callers may mutate it through the
// pointer the Runner hands out.
type Config struct {
	Chain      ChainConfig      `mapstructure:"chain"`
	Network    NetworkConfig    `mapstructure:"network"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Pool       PoolConfig       `mapstructure:"pool"`
	Role       string           `mapstructure:"role" default:"full" validate:"oneof=full authority light"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Logging    LoggingConfig    `mapstructure:"logging"`

	// Spec is the chain specification resolved from Chain.SpecFile,
	// or the built-in development spec when no file is configured.
	Spec *chainspec.ChainSpec `mapstructure:"-"`
}

// ChainConfig selects the chain specification
type ChainConfig struct {
	SpecFile string `mapstructure:"spec_file"`
}

// NetworkConfig contains peer-facing settings
type NetworkConfig struct {
	NodeName   string `mapstructure:"node_name"`
	ListenAddr string `mapstructure:"listen_addr" default:"0.0.0.0:30333"`
}

// DatabaseConfig describes the block store location
type DatabaseConfig struct {
	Kind string `mapstructure:"kind" default:"pebble" validate:"oneof=pebble memory"`
	Path string `mapstructure:"path" default:"./data/db"`
}

// PoolConfig sizes the execution pool. Workers defaults to the number of
// logical CPUs when left at zero.
type PoolConfig struct {
	Workers int `mapstructure:"workers"`
}

// MonitoringConfig contains metrics endpoint settings. Monitoring is on
// unless explicitly disabled.
type MonitoringConfig struct {
	Disabled        bool   `mapstructure:"disabled"`
	MetricsAddr     string `mapstructure:"metrics_addr" default:"127.0.0.1:9615"`
	ShutdownTimeout string `mapstructure:"shutdown_timeout" default:"10s"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `mapstructure:"level" default:"info"`
	Format     string `mapstructure:"format" default:"console"`
	OutputPath string `mapstructure:"output_path" default:"stdout"`
}

// DatabasePath returns the chain-scoped database directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Database.Path, c.Spec.ID)
}

// EffectiveWorkers resolves the configured pool size.
func (c *Config) EffectiveWorkers() int {
	if c.Pool.Workers > 0 {
		return c.Pool.Workers
	}
	return runtime.NumCPU()
}

// Load loads configuration from file and environment variables. A missing
// config file is not an error; defaults and environment cover everything.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("MERIDIAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, statErr := os.Stat(configPath); statErr == nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := defaults.Set(&config); err != nil {
		return nil, fmt.Errorf("failed to apply config defaults: %w", err)
	}

	if config.Network.NodeName == "" {
		config.Network.NodeName = generateNodeName()
	}

	spec, err := resolveChainSpec(config.Chain.SpecFile)
	if err != nil {
		return nil, err
	}
	config.Spec = spec

	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func resolveChainSpec(specFile string) (*chainspec.ChainSpec, error) {
	if specFile == "" {
		return chainspec.Development(), nil
	}
	spec, err := chainspec.Load(specFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load chain spec: %w", err)
	}
	return spec, nil
}

// generateNodeName produces a human-readable unique node handle,
// e.g. "meridian-7f3a2c1d".
func generateNodeName() string {
	id := uuid.New().String()
	return "meridian-" + id[:8]
}
