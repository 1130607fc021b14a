package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pyimports.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("PYTHONPATH", "")
	content := `
project_root = "./src"
search_paths = ["./lib"]
known_external = ["numpy", "requests"]
workers = 4

[exclude]
dirs = [".git", ".venv"]
files = ["*_test.py"]

[history]
enabled = true
path = "runs.db"
project_key = "myproject"

[observability]
metrics_addr = "127.0.0.1:9101"

[output]
dot = "imports.dot"
mermaid = "imports.mmd"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ProjectRoot != "./src" {
		t.Errorf("Expected project_root ./src, got %s", cfg.ProjectRoot)
	}
	if len(cfg.SearchPaths) != 1 || cfg.SearchPaths[0] != "./lib" {
		t.Errorf("Unexpected SearchPaths: %v", cfg.SearchPaths)
	}
	if len(cfg.KnownExternal) != 2 {
		t.Errorf("Unexpected KnownExternal: %v", cfg.KnownExternal)
	}
	if cfg.Workers != 4 {
		t.Errorf("Expected 4 workers, got %d", cfg.Workers)
	}
	if !cfg.History.Enabled || cfg.History.Path != "runs.db" || cfg.History.ProjectKey != "myproject" {
		t.Errorf("Unexpected History: %+v", cfg.History)
	}
	if cfg.Observability.MetricsAddr != "127.0.0.1:9101" {
		t.Errorf("Unexpected MetricsAddr: %s", cfg.Observability.MetricsAddr)
	}
	if cfg.Output.DOT != "imports.dot" || cfg.Output.Mermaid != "imports.mmd" {
		t.Errorf("Unexpected Output: %+v", cfg.Output)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PYTHONPATH", "")
	cfg, err := Load(writeConfig(t, `project_root = "."`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Version != 1 {
		t.Errorf("Expected default version 1, got %d", cfg.Version)
	}
	if len(cfg.Exclude.Dirs) == 0 {
		t.Error("Expected default exclude dirs")
	}
	if cfg.History.Path != "pyimports-history.db" {
		t.Errorf("Expected default history path, got %s", cfg.History.Path)
	}
}

func TestLoadMergesPythonPath(t *testing.T) {
	t.Setenv("PYTHONPATH", "/opt/lib"+string(os.PathListSeparator)+"/opt/vendor")

	cfg, err := Load(writeConfig(t, `search_paths = ["./lib"]`))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	want := []string{"./lib", "/opt/lib", "/opt/vendor"}
	if len(cfg.SearchPaths) != len(want) {
		t.Fatalf("Expected %v, got %v", want, cfg.SearchPaths)
	}
	for i, p := range want {
		if cfg.SearchPaths[i] != p {
			t.Errorf("Expected SearchPaths[%d] = %s, got %s", i, p, cfg.SearchPaths[i])
		}
	}
}

func TestLoadError(t *testing.T) {
	if _, err := Load("nonexistent.toml"); err == nil {
		t.Error("Expected error for nonexistent file")
	}

	if _, err := Load(writeConfig(t, "bad = toml = format")); err == nil {
		t.Error("Expected error for malformed TOML")
	}

	if _, err := Load(writeConfig(t, "version = 7")); err == nil {
		t.Error("Expected error for unsupported version")
	}

	if _, err := Load(writeConfig(t, "workers = -1")); err == nil {
		t.Error("Expected error for negative workers")
	}
}
