package globalconfig

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/jaspreet-dot-casa/lxcrun/pkg/fanout"
	"github.com/jaspreet-dot-casa/lxcrun/pkg/pct"
)

// Version is the current config schema version.
const Version = "1.0"

// Environment variables overriding config values.
const (
	EnvOperationsDir = "LXCRUN_OPERATIONS_DIR"
	EnvParallelism   = "LXCRUN_PARALLEL"
	EnvStepTimeout   = "LXCRUN_STEP_TIMEOUT"
	EnvRetries       = "LXCRUN_RETRIES"
	EnvRemoteDir     = "LXCRUN_REMOTE_DIR"
	EnvPctPath       = "LXCRUN_PCT"
)

// DefaultStepTimeout bounds each remote step unless configured otherwise.
const DefaultStepTimeout = 30 * time.Minute

// ErrInvalidConfig is returned when a config value is out of range.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the host-wide lxcrun defaults.
type Config struct {
	Version       string        `yaml:"version"`
	OperationsDir string        `yaml:"operations_dir"`
	Parallelism   int           `yaml:"parallelism"`  // Default --parallel
	StepTimeout   time.Duration `yaml:"step_timeout"` // e.g. "30m"; 0 disables
	Retries       int           `yaml:"retries"`      // Extra transfer attempts
	RemoteDir     string        `yaml:"remote_dir"`   // Payload directory inside containers
	PctPath       string        `yaml:"pct_path"`
}

// NewConfig creates a new Config with defaults.
func NewConfig() *Config {
	return &Config{
		Version:       Version,
		OperationsDir: DefaultOperationsDir,
		Parallelism:   fanout.MinParallelism,
		StepTimeout:   DefaultStepTimeout,
		Retries:       0,
		RemoteDir:     fanout.DefaultRemoteDir,
		PctPath:       pct.DefaultBinary,
	}
}

// Load reads the config file, then the env file, then LXCRUN_* variables.
// Missing files are not an error.
func Load() (*Config, error) {
	cfg, err := LoadFrom(GetConfigPath())
	if err != nil {
		return nil, err
	}

	if err := LoadEnvFile(GetEnvFilePath()); err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFrom reads a YAML config file over the defaults.
func LoadFrom(path string) (*Config, error) {
	cfg := NewConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if cfg.Version == "" {
		cfg.Version = Version
	}

	return cfg, nil
}

// LoadEnvFile exports the variables of a dotenv file into the process
// environment. Variables already set are left untouched.
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides config values from LXCRUN_* variables.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := strings.TrimSpace(getenv(EnvOperationsDir)); v != "" {
		c.OperationsDir = v
	}
	if v := strings.TrimSpace(getenv(EnvRemoteDir)); v != "" {
		c.RemoteDir = v
	}
	if v := strings.TrimSpace(getenv(EnvPctPath)); v != "" {
		c.PctPath = v
	}
	if v := strings.TrimSpace(getenv(EnvParallelism)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, EnvParallelism, v)
		}
		c.Parallelism = n
	}
	if v := strings.TrimSpace(getenv(EnvRetries)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, EnvRetries, v)
		}
		c.Retries = n
	}
	if v := strings.TrimSpace(getenv(EnvStepTimeout)); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidConfig, EnvStepTimeout, v)
		}
		c.StepTimeout = d
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Parallelism < fanout.MinParallelism || c.Parallelism > fanout.MaxParallelism {
		return fmt.Errorf("%w: parallelism must be between %d and %d, got %d",
			ErrInvalidConfig, fanout.MinParallelism, fanout.MaxParallelism, c.Parallelism)
	}
	if c.StepTimeout < 0 {
		return fmt.Errorf("%w: step_timeout must not be negative", ErrInvalidConfig)
	}
	if c.Retries < 0 {
		return fmt.Errorf("%w: retries must not be negative", ErrInvalidConfig)
	}
	if c.OperationsDir == "" {
		return fmt.Errorf("%w: operations_dir is empty", ErrInvalidConfig)
	}
	if c.RemoteDir == "" || !strings.HasPrefix(c.RemoteDir, "/") {
		return fmt.Errorf("%w: remote_dir must be an absolute path", ErrInvalidConfig)
	}
	return nil
}
