package analysis

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cmyui/unused-import-linter-py/internal/graph"
	"github.com/cmyui/unused-import-linter-py/internal/resolver"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func analyzeProject(t *testing.T, entry string) *CrossFileResult {
	t.Helper()
	b := graph.NewBuilder(resolver.New(entry, nil, resolver.StdlibModules()))
	g, err := b.BuildFromEntry(context.Background(), entry)
	require.NoError(t, err)
	return NewCrossFileAnalyzer(g).Analyze(context.Background())
}

func unusedNames(result *CrossFileResult, path string) []string {
	var names []string
	for _, imp := range result.UnusedImports[path] {
		names = append(names, imp.Name)
	}
	return names
}

func TestReexportedImportNotUnused(t *testing.T) {
	root := t.TempDir()
	utils := filepath.Join(root, "utils.py")
	main := filepath.Join(root, "main.py")
	writeFile(t, utils, "from typing import List, Dict\n")
	writeFile(t, main, "from utils import List\n\nx: List[int] = []\n")

	result := analyzeProject(t, main)

	// List is consumed by main.py, so only Dict stays unused in utils.py.
	assert.Equal(t, []string{"Dict"}, unusedNames(result, utils))
	assert.NotContains(t, result.UnusedImports, main)
}

func TestImplicitReexportDetected(t *testing.T) {
	root := t.TempDir()
	utils := filepath.Join(root, "utils.py")
	main := filepath.Join(root, "main.py")
	writeFile(t, utils, "from typing import List\n")
	writeFile(t, main, "from utils import List\n\nx: List[int] = []\n")

	result := analyzeProject(t, main)

	require.Len(t, result.ImplicitReexports, 1)
	re := result.ImplicitReexports[0]
	assert.Equal(t, utils, re.SourceFile)
	assert.Equal(t, "List", re.ImportName)
	assert.Equal(t, map[string]bool{main: true}, re.UsedBy)
}

func TestExplicitAllSuppressesImplicitReexport(t *testing.T) {
	root := t.TempDir()
	utils := filepath.Join(root, "utils.py")
	main := filepath.Join(root, "main.py")
	writeFile(t, utils, "from typing import List\n\n__all__ = [\"List\"]\n")
	writeFile(t, main, "from utils import List\n\nx: List[int] = []\n")

	result := analyzeProject(t, main)

	assert.Empty(t, result.ImplicitReexports)
	assert.NotContains(t, result.UnusedImports, utils)
}

func TestChainedReexports(t *testing.T) {
	root := t.TempDir()
	c := filepath.Join(root, "c.py")
	b := filepath.Join(root, "b.py")
	a := filepath.Join(root, "a.py")
	writeFile(t, c, "from typing import Optional\n")
	writeFile(t, b, "from c import Optional\n")
	writeFile(t, a, "from b import Optional\n\nx: Optional[int] = None\n")

	result := analyzeProject(t, a)

	// Each hop re-exports Optional, so nothing is unused.
	assert.Empty(t, result.UnusedImports)

	sources := map[string]bool{}
	for _, re := range result.ImplicitReexports {
		assert.Equal(t, "Optional", re.ImportName)
		sources[re.SourceFile] = true
	}
	assert.Equal(t, map[string]bool{b: true, c: true}, sources)
}

func TestPartialReexport(t *testing.T) {
	root := t.TempDir()
	utils := filepath.Join(root, "utils.py")
	main := filepath.Join(root, "main.py")
	writeFile(t, utils, "from typing import List, Dict, Optional\n")
	writeFile(t, main, "from utils import List, Dict\n\nx: List[int] = []\ny: Dict[str, int] = {}\n")

	result := analyzeProject(t, main)

	assert.Equal(t, []string{"Optional"}, unusedNames(result, utils))
	assert.Len(t, result.ImplicitReexports, 2)
}

func TestDefinedNameIsNotReexport(t *testing.T) {
	root := t.TempDir()
	utils := filepath.Join(root, "utils.py")
	main := filepath.Join(root, "main.py")
	writeFile(t, utils, "import os\n\ndef helper():\n    return os.getcwd()\n")
	writeFile(t, main, "from utils import helper\n\nhelper()\n")

	result := analyzeProject(t, main)

	// helper is defined in utils.py, not re-exported from an import.
	assert.Empty(t, result.ImplicitReexports)
	assert.Empty(t, result.UnusedImports)
}

func TestExternalUsage(t *testing.T) {
	root := t.TempDir()
	main := filepath.Join(root, "main.py")
	other := filepath.Join(root, "other.py")
	writeFile(t, main, "import os\nimport other\n\nprint(os.getcwd(), other)\n")
	writeFile(t, other, "import os\nimport sys\n\nprint(os.sep, sys.argv)\n")

	result := analyzeProject(t, main)

	assert.Equal(t, map[string]bool{main: true, other: true}, result.ExternalUsage["os"])
	assert.Equal(t, map[string]bool{other: true}, result.ExternalUsage["sys"])
}

func TestCircularImportsReported(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a.py")
	b := filepath.Join(root, "b.py")
	writeFile(t, a, "import b\n\nprint(b)\n")
	writeFile(t, b, "import a\n\nprint(a)\n")

	result := analyzeProject(t, a)

	require.Len(t, result.CircularImports, 1)
	members := map[string]bool{}
	for _, p := range result.CircularImports[0] {
		members[p] = true
	}
	assert.True(t, members[a])
	assert.True(t, members[b])
}
