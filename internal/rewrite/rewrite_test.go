package rewrite

import (
	"testing"

	"github.com/cmyui/unused-import-linter-py/internal/analysis"
	"github.com/cmyui/unused-import-linter-py/internal/parser"
)

func fix(t *testing.T, source string) string {
	t.Helper()
	p := parser.NewParser()
	file, err := p.Analyze("test.py", []byte(source))
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	unused := analysis.FindUnusedImports(file)
	result, err := NewRewriter(p).RemoveUnused([]byte(source), file, unused)
	if err != nil {
		t.Fatalf("RemoveUnused failed: %v", err)
	}
	return string(result)
}

func TestRemoveWholeStatements(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected string
	}{
		{
			name:     "single unused import",
			source:   "import os\nimport sys\nx = os.getcwd()\n",
			expected: "import os\nx = os.getcwd()\n",
		},
		{
			name:     "multiple unused imports",
			source:   "import os\nimport sys\nimport json\nx = os.getcwd()\n",
			expected: "import os\nx = os.getcwd()\n",
		},
		{
			name:     "unused from-import",
			source:   "from pathlib import Path\nfrom typing import Optional\nx: Optional[int] = None\n",
			expected: "from typing import Optional\nx: Optional[int] = None\n",
		},
		{
			name:     "aliased import",
			source:   "import numpy as np\nimport os\nx = os.getcwd()\n",
			expected: "import os\nx = os.getcwd()\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fix(t, tt.source); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestPartialRemoval(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected string
	}{
		{
			name:     "keep one of three",
			source:   "from typing import List, Dict, Optional\nx: Optional[int] = None\n",
			expected: "from typing import Optional\nx: Optional[int] = None\n",
		},
		{
			name:     "keep two of three",
			source:   "from typing import List, Dict, Optional\nx: Dict[str, List[int]]\n",
			expected: "from typing import List, Dict\nx: Dict[str, List[int]]\n",
		},
		{
			name:     "aliases preserved",
			source:   "from itertools import chain as ch, cycle as cy, repeat as rp\nx = list(ch([1], [2]))\n",
			expected: "from itertools import chain as ch\nx = list(ch([1], [2]))\n",
		},
		{
			name:     "relative import prefix preserved",
			source:   "from ..pkg import used, unused\nprint(used)\n",
			expected: "from ..pkg import used\nprint(used)\n",
		},
		{
			name:     "plain multi-import",
			source:   "import os, sys\nx = os.getcwd()\n",
			expected: "import os\nx = os.getcwd()\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fix(t, tt.source); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestPassInsertion(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected string
	}{
		{
			name:     "emptied if block",
			source:   "if True:\n    import os\nx = 1\n",
			expected: "if True:\n    pass\nx = 1\n",
		},
		{
			name:     "emptied try block",
			source:   "try:\n    import os\nexcept Exception:\n    pass\n",
			expected: "try:\n    pass\nexcept Exception:\n    pass\n",
		},
		{
			name:     "emptied function body",
			source:   "def func():\n    import os\n",
			expected: "def func():\n    pass\n",
		},
		{
			name:     "emptied class body",
			source:   "class MyClass:\n    import os\n",
			expected: "class MyClass:\n    pass\n",
		},
		{
			name:     "single pass for several removals",
			source:   "if True:\n    import os\n    import sys\nx = 1\n",
			expected: "if True:\n    pass\nx = 1\n",
		},
		{
			name:     "nested block",
			source:   "def outer():\n    if True:\n        import os\n    return 1\n",
			expected: "def outer():\n    if True:\n        pass\n    return 1\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fix(t, tt.source); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestIndentationPreserved(t *testing.T) {
	source := "class MyClass:\n    def method(self):\n        from typing import List, Optional\n        x: Optional[int] = None\n"
	expected := "class MyClass:\n    def method(self):\n        from typing import Optional\n        x: Optional[int] = None\n"
	if got := fix(t, source); got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}

func TestMultilineImportCollapsed(t *testing.T) {
	source := "from typing import (\n    List,\n    Dict,\n    Optional,\n)\nx: Optional[int] = None\n"
	expected := "from typing import Optional\nx: Optional[int] = None\n"
	if got := fix(t, source); got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}

func TestMultilineImportFullyRemoved(t *testing.T) {
	source := "from typing import (\n    List,\n    Dict,\n)\nx = 1\n"
	expected := "x = 1\n"
	if got := fix(t, source); got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}

func TestNoChanges(t *testing.T) {
	tests := []struct {
		name   string
		source string
	}{
		{name: "all used", source: "import os\nx = os.getcwd()\n"},
		{name: "empty file", source: ""},
		{name: "no imports", source: "x = 1\ny = 2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := fix(t, tt.source); got != tt.source {
				t.Errorf("Expected source unchanged, got %q", got)
			}
		})
	}
}

func TestMixedStatements(t *testing.T) {
	source := "import os\nimport sys\nfrom pathlib import Path\nfrom typing import Optional, List\n\ndef func(p: Path) -> Optional[str]:\n    return str(p)\n"
	expected := "from pathlib import Path\nfrom typing import Optional\n\ndef func(p: Path) -> Optional[str]:\n    return str(p)\n"
	if got := fix(t, source); got != expected {
		t.Errorf("Expected %q, got %q", expected, got)
	}
}

func TestIdempotent(t *testing.T) {
	source := "import os\nimport sys\nx = os.getcwd()\n"
	first := fix(t, source)
	second := fix(t, first)
	if first != second {
		t.Errorf("Expected fixed point, got %q then %q", first, second)
	}
}
