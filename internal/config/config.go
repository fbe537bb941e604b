package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Organization Organization `yaml:"organization"`
	Generator    Generator    `yaml:"generator"`
	Tree         Tree         `yaml:"tree"`
	Output       Output       `yaml:"output"`
	Export       Export       `yaml:"export"`
	Server       Server       `yaml:"server"`
	Logging      Logging      `yaml:"logging"`
}

type Organization struct {
	Name     string `yaml:"name"`
	Scope    string `yaml:"scope"`
	RootID   string `yaml:"root_id"`
	RootName string `yaml:"root_name"`
}

type Generator struct {
	// Seed 0 means a time-based seed, so every run differs.
	Seed      int64  `yaml:"seed"`
	Version   string `yaml:"version"`
	Catalogue string `yaml:"catalogue"`
}

type Tree struct {
	Levels      string   `yaml:"levels"`
	PillarOrder []string `yaml:"pillar_order"`
}

type Output struct {
	Path    string `yaml:"path"`
	DataDir string `yaml:"data_dir"`
}

type Export struct {
	Mirrors []string `yaml:"mirrors"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// ConfigDir returns the XDG config directory for kpimap.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "kpimap")
}

// DataDir returns the XDG data directory for kpimap.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "kpimap")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/kpimap/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'kpimap init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Organization: Organization{
			Name:     "New York Spine Specialists (NYSS)",
			Scope:    "Complete Operations - All Pillars",
			RootID:   "root",
			RootName: "NYSS Complete Operations",
		},
		Generator: Generator{
			Version: "1.0-nyss-complete-all-pillars",
		},
		Tree: Tree{
			Levels: "4-level",
		},
		Output: Output{
			Path: "public/kpi_map.json",
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "info"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if cfg.Tree.Levels != "2-level" && cfg.Tree.Levels != "4-level" {
		return nil, fmt.Errorf("parsing config: tree.levels must be \"2-level\" or \"4-level\", got %q", cfg.Tree.Levels)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// LedgerPath returns the path of the SQLite run ledger.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.GetDataDir(), "kpimap.db")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
