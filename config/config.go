// Package config holds the file-based configuration for brainmesh units and
// the credential source consumed when backend clients are constructed.
//
// Configuration is optional: every unit works with functional options alone.
// A YAML file is useful when the same resilience and credential settings are
// shared by several processes:
//
//	resilience:
//	  timeout: 60s
//	  attempts: 3
//	  backoff_base: 500ms
//	  backoff_max: 10s
//	  retry_writes: false
//	credentials:
//	  openai: OPENAI_API_KEY
//	logging:
//	  level: info
//	  format: json
//	threads:
//	  codex_path: codex
//	  claude_path: claude
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration document.
type Config struct {
	Resilience ResilienceConfig `yaml:"resilience"`
	// Credentials maps backend family to the environment variable holding its key.
	Credentials map[string]string `yaml:"credentials"`
	Logging     LoggingConfig     `yaml:"logging"`
	Threads     ThreadsConfig     `yaml:"threads"`
}

// ResilienceConfig configures timeout and retry for agentic (Repl) calls.
type ResilienceConfig struct {
	Timeout     time.Duration `yaml:"timeout"`
	Attempts    int           `yaml:"attempts"`
	BackoffBase time.Duration `yaml:"backoff_base"`
	BackoffMax  time.Duration `yaml:"backoff_max"`
	// RetryWrites enables automatic retry for read-write (Act) calls. Only
	// safe for idempotent instructions.
	RetryWrites bool `yaml:"retry_writes"`
}

// LoggingConfig configures the built-in slog logger.
type LoggingConfig struct {
	Level     string `yaml:"level"`  // debug, info, warn, error
	Format    string `yaml:"format"` // json or text
	AddSource bool   `yaml:"add_source"`
}

// ThreadsConfig configures the CLI-backed execution threads.
type ThreadsConfig struct {
	CodexPath  string `yaml:"codex_path"`
	ClaudePath string `yaml:"claude_path"`
	WorkingDir string `yaml:"working_dir"`
}

// Default returns the baseline configuration.
func Default() *Config {
	return &Config{
		Resilience: ResilienceConfig{
			Timeout:     60 * time.Second,
			Attempts:    3,
			BackoffBase: 500 * time.Millisecond,
			BackoffMax:  10 * time.Second,
		},
		Credentials: map[string]string{},
		Logging:     LoggingConfig{Level: "info", Format: "json"},
		Threads:     ThreadsConfig{CodexPath: "codex", ClaudePath: "claude"},
	}
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigurationError{Key: path, Message: "cannot read configuration file", Err: err}
	}
	return Parse(data)
}

// Parse decodes YAML on top of Default and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, &ConfigurationError{Key: "yaml", Message: "invalid configuration document", Err: err}
	}
	if cfg.Credentials == nil {
		cfg.Credentials = map[string]string{}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	r := c.Resilience
	if r.Timeout <= 0 {
		return NewConfigurationError("resilience.timeout", "must be positive")
	}
	if r.Attempts < 1 {
		return NewConfigurationError("resilience.attempts", "must be at least 1")
	}
	if r.BackoffBase < 0 || r.BackoffMax < 0 {
		return NewConfigurationError("resilience.backoff", "must not be negative")
	}
	if r.BackoffMax > 0 && r.BackoffMax < r.BackoffBase {
		return NewConfigurationError("resilience.backoff_max", fmt.Sprintf("must be >= backoff_base (%s)", r.BackoffBase))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return NewConfigurationError("logging.level", fmt.Sprintf("unknown level %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "", "json", "text":
	default:
		return NewConfigurationError("logging.format", fmt.Sprintf("unknown format %q", c.Logging.Format))
	}
	return nil
}

// CredentialSource returns an environment-backed Credentials honouring the
// configured variable names.
func (c *Config) CredentialSource() Credentials {
	return EnvCredentials(c.Credentials)
}
