package resolver

import (
	_ "embed"
	"strings"
)

//go:embed stdlib/python.txt
var pythonStdlibData string

var pythonStdlib = map[string]bool{}

func init() {
	for _, line := range strings.Split(pythonStdlibData, "\n") {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			pythonStdlib[line] = true
			// Add base name: e.g. urllib.request -> urllib
			parts := strings.Split(line, ".")
			pythonStdlib[parts[0]] = true
		}
	}
}

// StdlibModules returns a copy of the bundled standard-library module
// set, so callers can extend it with installed third-party names without
// mutating shared state.
func StdlibModules() map[string]bool {
	out := make(map[string]bool, len(pythonStdlib))
	for name := range pythonStdlib {
		out[name] = true
	}
	return out
}
