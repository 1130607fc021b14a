// Package config loads the optional pyimports.toml file. Every field has
// a usable default, so a missing file is not an error for callers that
// treat the zero path as "use defaults".
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Version       int           `toml:"version"`
	ProjectRoot   string        `toml:"project_root"`
	SearchPaths   []string      `toml:"search_paths"`
	KnownExternal []string      `toml:"known_external"`
	Workers       int           `toml:"workers"`
	Exclude       Exclude       `toml:"exclude"`
	History       History       `toml:"history"`
	Observability Observability `toml:"observability"`
	Output        Output        `toml:"output"`
}

type Exclude struct {
	Dirs  []string `toml:"dirs"`
	Files []string `toml:"files"`
}

type History struct {
	Enabled    bool   `toml:"enabled"`
	Path       string `toml:"path"`
	ProjectKey string `toml:"project_key"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
}

// Output holds optional graph export targets, one path per format.
type Output struct {
	DOT      string `toml:"dot"`
	TSV      string `toml:"tsv"`
	Mermaid  string `toml:"mermaid"`
	PlantUML string `toml:"plantuml"`
}

func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}
	if len(cfg.Exclude.Dirs) == 0 {
		cfg.Exclude.Dirs = []string{".git", ".venv", "venv", "__pycache__", "node_modules"}
	}
	if strings.TrimSpace(cfg.History.Path) == "" {
		cfg.History.Path = "pyimports-history.db"
	}
	if strings.TrimSpace(cfg.History.ProjectKey) == "" {
		cfg.History.ProjectKey = "default"
	}

	// PYTHONPATH entries come after the configured ones, matching the
	// interpreter's own search order.
	for _, entry := range filepath.SplitList(os.Getenv("PYTHONPATH")) {
		if entry != "" {
			cfg.SearchPaths = append(cfg.SearchPaths, entry)
		}
	}
}

func validate(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d", cfg.Version)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", cfg.Workers)
	}
	for _, name := range cfg.KnownExternal {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("known_external entries must not be blank")
		}
	}
	return nil
}
