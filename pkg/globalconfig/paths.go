// Package globalconfig loads host-wide lxcrun defaults from
// /etc/lxcrun/config.yaml, an optional env file, and LXCRUN_* variables.
package globalconfig

import (
	"os"
	"path/filepath"
)

const (
	// ConfigDir is the system configuration directory.
	ConfigDir = "/etc/lxcrun"
	// ConfigFileName is the name of the main config file.
	ConfigFileName = "config.yaml"
	// EnvFileName is the name of the env defaults file.
	EnvFileName = "lxcrun.env"
	// DefaultOperationsDir holds the operation scripts.
	DefaultOperationsDir = "/usr/local/share/lxcrun/operations"

	// ConfigPathEnv overrides the config file location.
	ConfigPathEnv = "LXCRUN_CONFIG"
	// EnvFilePathEnv overrides the env file location.
	EnvFilePathEnv = "LXCRUN_ENV_FILE"
)

// GetConfigPath returns the full path to the config file.
// Respects LXCRUN_CONFIG if set.
func GetConfigPath() string {
	if p := os.Getenv(ConfigPathEnv); p != "" {
		return p
	}
	return filepath.Join(ConfigDir, ConfigFileName)
}

// GetEnvFilePath returns the full path to the env defaults file.
// Respects LXCRUN_ENV_FILE if set.
func GetEnvFilePath() string {
	if p := os.Getenv(EnvFilePathEnv); p != "" {
		return p
	}
	return filepath.Join(ConfigDir, EnvFileName)
}
