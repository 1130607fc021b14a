package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmyui/unused-import-linter-py/internal/config"
)

func testApp(t *testing.T) *App {
	t.Helper()
	t.Setenv("PYTHONPATH", "")
	return NewApp(config.Default())
}

func writeSource(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestRunSingleFileCleanProject(t *testing.T) {
	root := t.TempDir()
	writeSource(t, filepath.Join(root, "main.py"), "import os\nx = os.getcwd()\n")

	app := testApp(t)
	code, stats := app.runSingleFile([]string{root}, RunOptions{})

	assert.Equal(t, 0, code)
	assert.Equal(t, 1, stats.files)
	assert.Equal(t, 0, stats.unused)
}

func TestRunSingleFileWithFindings(t *testing.T) {
	root := t.TempDir()
	writeSource(t, filepath.Join(root, "main.py"), "import os\nimport sys\nx = os.getcwd()\n")

	app := testApp(t)
	code, stats := app.runSingleFile([]string{root}, RunOptions{Quiet: true})

	assert.Equal(t, 1, code)
	assert.Equal(t, 1, stats.unused)
}

func TestRunSingleFileFixRewritesSource(t *testing.T) {
	root := t.TempDir()
	target := filepath.Join(root, "main.py")
	writeSource(t, target, "import os\nimport sys\nx = os.getcwd()\n")

	app := testApp(t)
	code, stats := app.runSingleFile([]string{root}, RunOptions{Fix: true, Quiet: true})

	assert.Equal(t, 0, code)
	assert.Equal(t, 1, stats.fixed)

	content, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "import os\nx = os.getcwd()\n", string(content))
}

func TestRunSingleFileNoFiles(t *testing.T) {
	app := testApp(t)
	code, _ := app.runSingleFile([]string{t.TempDir()}, RunOptions{})
	assert.Equal(t, 1, code)
}

func TestRunCrossFileDirectory(t *testing.T) {
	root := t.TempDir()
	writeSource(t, filepath.Join(root, "utils.py"), "from typing import List, Dict\n")
	writeSource(t, filepath.Join(root, "main.py"), "from utils import List\n\nx: List[int] = []\n")

	app := testApp(t)
	code, stats := app.runCrossFile(context.Background(), []string{root}, RunOptions{Quiet: true})

	assert.Equal(t, 1, code)
	assert.Equal(t, "directory", stats.mode)
	assert.Equal(t, 2, stats.files)
	// Dict stays unused, List is re-exported into main.py.
	assert.Equal(t, 1, stats.unused)
	assert.Equal(t, 1, stats.reexports)
}

func TestRunCrossFileEntryWithExports(t *testing.T) {
	root := t.TempDir()
	entry := filepath.Join(root, "main.py")
	writeSource(t, filepath.Join(root, "helpers.py"), "def helper():\n    return 1\n")
	writeSource(t, entry, "from helpers import helper\n\nhelper()\n")

	dotPath := filepath.Join(root, "imports.dot")
	app := testApp(t)
	app.Config.Output.DOT = dotPath

	code, stats := app.runCrossFile(context.Background(), []string{entry}, RunOptions{Quiet: true})

	assert.Equal(t, 0, code)
	assert.Equal(t, "entry", stats.mode)

	dot, err := os.ReadFile(dotPath)
	require.NoError(t, err)
	assert.Contains(t, string(dot), "\"main\" -> \"helpers\"")
}

func TestRunCrossFileRejectsMultiplePaths(t *testing.T) {
	app := testApp(t)
	code, _ := app.runCrossFile(context.Background(), []string{"a.py", "b.py"}, RunOptions{})
	assert.Equal(t, 1, code)
}

func TestRunRecordsHistory(t *testing.T) {
	root := t.TempDir()
	writeSource(t, filepath.Join(root, "main.py"), "import sys\nx = 1\n")

	app := testApp(t)
	app.Config.History.Enabled = true
	app.Config.History.Path = filepath.Join(root, "history.db")

	code := app.Run(context.Background(), []string{root}, RunOptions{Quiet: true})
	assert.Equal(t, 1, code)

	_, err := os.Stat(app.Config.History.Path)
	assert.NoError(t, err, "history database should exist after a recorded run")
}

func TestCollectPythonFilesHonorsExcludes(t *testing.T) {
	root := t.TempDir()
	writeSource(t, filepath.Join(root, "main.py"), "x = 1\n")
	writeSource(t, filepath.Join(root, ".venv", "lib.py"), "x = 1\n")
	writeSource(t, filepath.Join(root, "main_test.py"), "x = 1\n")
	writeSource(t, filepath.Join(root, "notes.txt"), "not python\n")

	app := testApp(t)
	app.Config.Exclude.Files = []string{"*_test.py"}

	files, err := app.collectPythonFiles([]string{root})
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.True(t, strings.HasSuffix(files[0], "main.py"))
}
