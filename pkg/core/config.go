// pkg/core/config.go
package core

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Config holds mapnikdeps configuration.
//
// Environment variables recognized at load time take precedence over file
// values and are never overwritten by the orchestrator:
//
//	MAPNIKDEPS_PREFIX  install prefix for source-built dependencies
//	MAPNIK_CONFIG      path to a specific mapnik-config binary
//	PKG_CONFIG_PATH    extra pkg-config search path (passed through as-is)
//	CFLAGS / CXXFLAGS / LDFLAGS  extra compiler/linker flags (passed through)
type Config struct {
	Prefix       string `yaml:"prefix"`        // install prefix for source builds
	WorkDir      string `yaml:"work_dir"`      // scratch space for sources and logs
	Jobs         int    `yaml:"jobs"`          // parallel compile jobs (0 = NumCPU)
	Strategy     string `yaml:"strategy"`      // package manager override (apt, dnf, brew)
	MapnikConfig string `yaml:"mapnik_config"` // mapnik-config override path
	Debug        bool   `yaml:"debug"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Prefix:  defaultPrefix(),
		WorkDir: defaultWorkDir(),
		Jobs:    runtime.NumCPU(),
	}
}

// LoadConfig loads configuration from file, falling back to defaults when
// the file does not exist.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return applyEnv(cfg), nil
		}
		path = filepath.Join(home, ".config", "mapnikdeps", "config.yaml")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return applyEnv(cfg), nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Prefix == "" {
		cfg.Prefix = defaultPrefix()
	}
	if cfg.WorkDir == "" {
		cfg.WorkDir = defaultWorkDir()
	}
	if cfg.Jobs <= 0 {
		cfg.Jobs = runtime.NumCPU()
	}

	return applyEnv(cfg), nil
}

// applyEnv overlays recognized environment overrides. Set variables always
// win over file values.
func applyEnv(cfg *Config) *Config {
	if prefix := os.Getenv("MAPNIKDEPS_PREFIX"); prefix != "" {
		cfg.Prefix = prefix
	}
	if mc := os.Getenv("MAPNIK_CONFIG"); mc != "" {
		cfg.MapnikConfig = mc
	}
	return cfg
}

func defaultPrefix() string {
	return "/usr/local"
}

func defaultWorkDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "mapnikdeps")
	}
	return filepath.Join(home, ".cache", "mapnikdeps")
}
