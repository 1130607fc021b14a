package resolver

import (
	"os"
	"path/filepath"
	"strings"
)

// Kind classifies what an import specification resolved to.
type Kind int

const (
	// KindLocal means the spec maps to a file under one of the search
	// roots.
	KindLocal Kind = iota
	// KindExternal means the spec names a known stdlib or installed
	// module.
	KindExternal
	// KindUnresolved means the spec matched neither. Not an error:
	// analysis continues without following the edge.
	KindUnresolved
)

// Resolution is the outcome of resolving one import spec. Path is only
// set for KindLocal.
type Resolution struct {
	Kind Kind
	Path string
}

type cacheKey struct {
	spec     string
	fromFile string
	level    int
}

// Resolver maps dotted import specifications to concrete files without
// executing any Python. The search-root list and the known-external set
// are fixed at construction.
type Resolver struct {
	sourceRoot string
	roots      []string
	known      map[string]bool
	cache      map[cacheKey]Resolution
}

// New builds a resolver rooted at the entry file's directory. extraPaths
// are searched after the source root, in order. known is the set of
// module names treated as external when no local file matches.
func New(entryFile string, extraPaths []string, known map[string]bool) *Resolver {
	return NewForRoot(filepath.Dir(absPath(entryFile)), extraPaths, known)
}

// NewForRoot builds a resolver whose source root is the given directory,
// used by whole-directory analysis where there is no entry file.
func NewForRoot(root string, extraPaths []string, known map[string]bool) *Resolver {
	sourceRoot := absPath(root)
	roots := append([]string{sourceRoot}, extraPaths...)
	return &Resolver{
		sourceRoot: sourceRoot,
		roots:      roots,
		known:      known,
		cache:      make(map[cacheKey]Resolution),
	}
}

// NewFromEnv builds a resolver whose extra search paths come from
// PYTHONPATH and whose known-external set is the bundled stdlib list.
func NewFromEnv(entryFile string) *Resolver {
	var extra []string
	for _, p := range filepath.SplitList(os.Getenv("PYTHONPATH")) {
		if p != "" {
			extra = append(extra, absPath(p))
		}
	}
	return New(entryFile, extra, StdlibModules())
}

func (r *Resolver) SourceRoot() string { return r.sourceRoot }

// Resolve maps (spec, importing file, relative level) to a resolution.
// Level 0 is an absolute import; level n counts the leading dots of a
// relative one. Results are memoized for the resolver's lifetime.
func (r *Resolver) Resolve(spec, fromFile string, level int) Resolution {
	key := cacheKey{spec: spec, fromFile: fromFile, level: level}
	if res, ok := r.cache[key]; ok {
		return res
	}
	res := r.resolve(spec, fromFile, level)
	r.cache[key] = res
	return res
}

func (r *Resolver) resolve(spec, fromFile string, level int) Resolution {
	if level > 0 {
		return r.resolveRelative(spec, fromFile, level)
	}

	parts := strings.Split(spec, ".")
	for _, root := range r.roots {
		if path, ok := findInDir(root, parts); ok {
			return Resolution{Kind: KindLocal, Path: path}
		}
	}
	if r.IsExternal(spec) {
		return Resolution{Kind: KindExternal}
	}
	return Resolution{Kind: KindUnresolved}
}

// resolveRelative starts at the importing file's directory and climbs
// one parent per extra dot. Relative imports never fall back to the
// external set.
func (r *Resolver) resolveRelative(spec, fromFile string, level int) Resolution {
	dir := filepath.Dir(absPath(fromFile))
	for i := 1; i < level; i++ {
		dir = filepath.Dir(dir)
	}

	if spec == "" {
		init := filepath.Join(dir, "__init__.py")
		if isFile(init) {
			return Resolution{Kind: KindLocal, Path: init}
		}
		return Resolution{Kind: KindUnresolved}
	}

	if path, ok := findInDir(dir, strings.Split(spec, ".")); ok {
		return Resolution{Kind: KindLocal, Path: path}
	}
	return Resolution{Kind: KindUnresolved}
}

// IsExternal reports whether the spec's first dotted segment is a known
// external module name.
func (r *Resolver) IsExternal(spec string) bool {
	head := strings.SplitN(spec, ".", 2)[0]
	return r.known[head]
}

// ModuleName converts a resolved file path back to a dotted module name
// relative to the source root. Leading directories that are not packages
// are dropped, and a package __init__.py reports the package itself.
func (r *Resolver) ModuleName(path string) string {
	rel, err := filepath.Rel(r.sourceRoot, absPath(path))
	if err != nil {
		return ""
	}
	parts := strings.Split(rel, string(os.PathSeparator))

	packageStart := 0
	for i := 0; i < len(parts)-1; i++ {
		init := filepath.Join(r.sourceRoot, filepath.Join(parts[:i+1]...), "__init__.py")
		if isFile(init) {
			break
		}
		packageStart = i + 1
	}
	parts = parts[packageStart:]

	parts[len(parts)-1] = strings.TrimSuffix(parts[len(parts)-1], ".py")
	if parts[len(parts)-1] == "__init__" {
		parts = parts[:len(parts)-1]
	}
	return strings.Join(parts, ".")
}

// findInDir walks the dotted segments under one root. Intermediate
// segments must be packages; the last segment prefers a module file over
// a package directory.
func findInDir(dir string, parts []string) (string, bool) {
	for i, part := range parts {
		if i == len(parts)-1 {
			file := filepath.Join(dir, part+".py")
			if isFile(file) {
				return file, true
			}
			init := filepath.Join(dir, part, "__init__.py")
			if isFile(init) {
				return init, true
			}
			return "", false
		}
		if !isFile(filepath.Join(dir, part, "__init__.py")) {
			return "", false
		}
		dir = filepath.Join(dir, part)
	}
	return "", false
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
