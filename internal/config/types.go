// Package config provides configuration loading and management for flowci.
//
// Configuration is loaded using Viper, supporting YAML config files and
// environment variable overrides. The defaults work out of the box; a config
// file customizes workspace layout, timeouts, and the webhook server.
//
// Key types:
//   - [Config] is the root configuration container with all settings
//   - [Loader] handles Viper-based configuration loading
//
// Configuration priority (highest to lowest):
//  1. Environment variables (FLOWCI_ prefix)
//  2. Config file specified by FLOWCI_CONFIG
//  3. ./flowci.yaml
//  4. User config directory (platform-standard):
//     - Linux: ~/.config/flowci/flowci.yaml
//     - macOS: ~/Library/Application Support/flowci/flowci.yaml
//  5. [DefaultConfig] defaults
package config

import "time"

// Config represents the root configuration structure.
//
// This is the main configuration container loaded by [Loader] and used
// throughout the application. Use [DefaultConfig] to get sensible defaults.
type Config struct {
	// WorkflowFile is the workflow definition loaded when a command is
	// given no explicit path. Default: ".flowci.yml".
	WorkflowFile string `mapstructure:"workflow_file"`

	// Runner contains step execution settings.
	Runner RunnerConfig `mapstructure:"runner"`

	// Toolchain contains interpreter resolution settings.
	Toolchain ToolchainConfig `mapstructure:"toolchain"`

	// History contains run record storage settings.
	History HistoryConfig `mapstructure:"history"`

	// Server contains webhook listener settings.
	Server ServerConfig `mapstructure:"server"`
}

// RunnerConfig contains step execution settings.
type RunnerConfig struct {
	// Workspace is the directory run workspaces are created under.
	// Empty (the default) means a fresh temporary directory per run.
	Workspace string `mapstructure:"workspace"`

	// StepTimeout bounds each step unless the step sets its own timeout.
	// Default: 30m.
	StepTimeout time.Duration `mapstructure:"step_timeout"`

	// Shell is the interpreter run-step scripts execute under.
	// Default: "sh".
	Shell string `mapstructure:"shell"`

	// MaxParallel caps concurrent matrix instances. Zero (the default)
	// leaves the decision to the workflow's strategy.
	MaxParallel int `mapstructure:"max_parallel"`
}

// ToolchainConfig contains interpreter resolution settings.
type ToolchainConfig struct {
	// Dir is the toolcache root holding installed runtimes under
	// <dir>/<name>/<version>/bin. Empty (the default) resolves from
	// PATH only. Can be overridden with FLOWCI_TOOLCHAIN_DIR.
	Dir string `mapstructure:"dir"`
}

// HistoryConfig contains run record storage settings.
type HistoryConfig struct {
	// Dir is where run records and step logs are written.
	// Default: ".flowci/runs".
	Dir string `mapstructure:"dir"`

	// Limit is the default number of runs listed. Default: 20.
	Limit int `mapstructure:"limit"`
}

// ServerConfig contains webhook listener settings.
type ServerConfig struct {
	// Addr is the listen address. Default: ":8080".
	// Can be overridden with FLOWCI_SERVER_ADDR.
	Addr string `mapstructure:"addr"`

	// Secret enables HMAC signature verification of webhook payloads
	// when non-empty. Can be overridden with FLOWCI_SERVER_SECRET.
	Secret string `mapstructure:"secret"`

	// Workers is the size of the run worker pool. Default: 2.
	Workers int `mapstructure:"workers"`
}

// DefaultConfig returns a new [Config] with sensible defaults.
//
// The defaults run workflows from ./.flowci.yml in throwaway workspaces,
// keep history under ./.flowci/runs, and resolve runtimes from PATH. They
// work out of the box without any configuration file.
func DefaultConfig() *Config {
	return &Config{
		WorkflowFile: ".flowci.yml",
		Runner: RunnerConfig{
			StepTimeout: 30 * time.Minute,
			Shell:       "sh",
		},
		History: HistoryConfig{
			Dir:   ".flowci/runs",
			Limit: 20,
		},
		Server: ServerConfig{
			Addr:    ":8080",
			Workers: 2,
		},
	}
}
