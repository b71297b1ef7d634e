package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Loader handles Viper-based configuration loading.
//
// Create instances with [NewLoader]. [Loader.Load] follows the search order
// documented on the package; [Loader.LoadFromFile] reads one specific file.
type Loader struct {
	v *viper.Viper
}

// NewLoader creates a new configuration loader.
func NewLoader() *Loader {
	return &Loader{v: viper.New()}
}

// Load reads configuration from the standard locations.
//
// When FLOWCI_CONFIG is set, that file must exist and parse. Otherwise the
// working directory and the user config directory are searched for
// flowci.yaml; a missing file is not an error and yields the defaults.
// Environment overrides apply in every case.
func (l *Loader) Load() (*Config, error) {
	l.prepare()

	if path := os.Getenv("FLOWCI_CONFIG"); path != "" {
		l.v.SetConfigFile(path)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		return l.unmarshal()
	}

	l.v.SetConfigName("flowci")
	l.v.SetConfigType("yaml")
	l.v.AddConfigPath(".")
	if dir, err := ConfigDir(); err == nil {
		l.v.AddConfigPath(dir)
	}

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	return l.unmarshal()
}

// LoadFromFile reads configuration from a specific file. The format is
// inferred from the extension.
func (l *Loader) LoadFromFile(path string) (*Config, error) {
	l.prepare()

	l.v.SetConfigFile(path)
	if err := l.v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	return l.unmarshal()
}

// MustLoad loads configuration from the standard locations and panics on
// error. Intended for initialization paths that cannot report errors.
func MustLoad() *Config {
	cfg, err := NewLoader().Load()
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}

func (l *Loader) prepare() {
	def := DefaultConfig()
	l.v.SetDefault("workflow_file", def.WorkflowFile)
	l.v.SetDefault("runner.workspace", def.Runner.Workspace)
	l.v.SetDefault("runner.step_timeout", def.Runner.StepTimeout)
	l.v.SetDefault("runner.shell", def.Runner.Shell)
	l.v.SetDefault("runner.max_parallel", def.Runner.MaxParallel)
	l.v.SetDefault("toolchain.dir", def.Toolchain.Dir)
	l.v.SetDefault("history.dir", def.History.Dir)
	l.v.SetDefault("history.limit", def.History.Limit)
	l.v.SetDefault("server.addr", def.Server.Addr)
	l.v.SetDefault("server.secret", def.Server.Secret)
	l.v.SetDefault("server.workers", def.Server.Workers)

	l.v.BindEnv("workflow_file", "FLOWCI_WORKFLOW")
	l.v.BindEnv("runner.workspace", "FLOWCI_WORKSPACE")
	l.v.BindEnv("runner.shell", "FLOWCI_SHELL")
	l.v.BindEnv("toolchain.dir", "FLOWCI_TOOLCHAIN_DIR")
	l.v.BindEnv("history.dir", "FLOWCI_HISTORY_DIR")
	l.v.BindEnv("server.addr", "FLOWCI_SERVER_ADDR")
	l.v.BindEnv("server.secret", "FLOWCI_SERVER_SECRET")
}

func (l *Loader) unmarshal() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// ConfigDir returns the flowci directory under the platform config root.
func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(base, "flowci"), nil
}

// DefaultConfigPath returns the full path of the user-level config file.
func DefaultConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "flowci.yaml"), nil
}

// EnsureConfigDir creates the user config directory if it does not exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}
