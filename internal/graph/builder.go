package graph

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"sync"

	"github.com/gobwas/glob"

	"github.com/cmyui/unused-import-linter-py/internal/observability"
	"github.com/cmyui/unused-import-linter-py/internal/parser"
	"github.com/cmyui/unused-import-linter-py/internal/resolver"
)

// Builder turns Python source files into an ImportGraph. Two modes:
// BuildFromEntry follows imports transitively from one entry file,
// BuildFromDirectory takes every source file under a root.
type Builder struct {
	Parser   *parser.Parser
	Resolver *resolver.Resolver
	Logger   *slog.Logger
	Workers  int

	ExcludeDirs  []string
	ExcludeFiles []string
}

func NewBuilder(res *resolver.Resolver) *Builder {
	return &Builder{
		Parser:   parser.NewParser(),
		Resolver: res,
		Logger:   slog.Default(),
		Workers:  runtime.NumCPU(),
	}
}

// BuildFromEntry parses the entry file and transitively every locally
// resolved import. Files already visited are not parsed again, which
// keeps import cycles from looping.
func (b *Builder) BuildFromEntry(ctx context.Context, entry string) (*ImportGraph, error) {
	g := NewImportGraph()

	absEntry, err := filepath.Abs(entry)
	if err != nil {
		return nil, err
	}

	queue := []string{absEntry}
	visited := map[string]bool{absEntry: true}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		path := queue[0]
		queue = queue[1:]

		file, err := b.parseFile(path)
		if err != nil {
			b.Logger.Warn("skipping unparseable file", "path", path, "error", err)
			continue
		}
		g.AddNode(b.record(path, file))

		for _, edge := range b.resolveEdges(path, file) {
			g.AddEdge(edge)
			if !edge.IsExternal && !visited[edge.Imported] {
				visited[edge.Imported] = true
				queue = append(queue, edge.Imported)
			}
		}
	}
	// An importer's edges are added before the target is dequeued, so a
	// target that later fails to parse leaves its inbound edge without a
	// node.
	g.pruneDanglingEdges()
	return g, nil
}

// BuildFromDirectory parses every .py file under root regardless of
// reachability. Parsing fans out over a bounded worker set; edges are
// resolved afterwards on one goroutine because the resolver cache is not
// synchronized.
func (b *Builder) BuildFromDirectory(ctx context.Context, root string) (*ImportGraph, error) {
	files, err := b.scan(root)
	if err != nil {
		return nil, err
	}

	parsed := make(map[string]*parser.File, len(files))
	var mu sync.Mutex
	var wg sync.WaitGroup
	sem := make(chan struct{}, max(b.Workers, 1))

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(path string) {
			defer wg.Done()
			defer func() { <-sem }()
			file, err := b.parseFile(path)
			if err != nil {
				b.Logger.Warn("skipping unparseable file", "path", path, "error", err)
				return
			}
			mu.Lock()
			parsed[path] = file
			mu.Unlock()
		}(path)
	}
	wg.Wait()

	g := NewImportGraph()
	paths := make([]string, 0, len(parsed))
	for path := range parsed {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		g.AddNode(b.record(path, parsed[path]))
	}
	for _, path := range paths {
		for _, edge := range b.resolveEdges(path, parsed[path]) {
			g.AddEdge(edge)
		}
	}
	// The resolver probes the filesystem, so it can resolve targets that
	// were unparseable or excluded from the scan.
	g.pruneDanglingEdges()
	return g, nil
}

func (b *Builder) parseFile(path string) (*parser.File, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	file, err := b.Parser.Analyze(path, content)
	if err != nil {
		observability.ParseErrors.Inc()
		return nil, err
	}
	observability.FilesParsed.Inc()
	return file, nil
}

func (b *Builder) record(path string, file *parser.File) *ModuleRecord {
	return &ModuleRecord{
		Path:       path,
		ModuleName: b.Resolver.ModuleName(path),
		IsPackage:  file.IsPackage,
		File:       file,
	}
}

// resolveEdges groups a file's import declarations per source module and
// resolves each group once. From-imports contribute their pre-alias
// names to the edge; plain imports contribute none. Unresolved specs
// produce no edge.
func (b *Builder) resolveEdges(path string, file *parser.File) []*ImportEdge {
	type groupKey struct {
		module string
		level  int
		isFrom bool
	}
	var order []groupKey
	groups := make(map[groupKey]*ImportEdge)

	for _, imp := range file.Imports {
		var key groupKey
		if imp.IsFrom {
			key = groupKey{module: imp.Module, level: imp.Level, isFrom: true}
		} else {
			key = groupKey{module: imp.Original}
		}

		edge, ok := groups[key]
		if !ok {
			res := b.Resolver.Resolve(key.module, path, key.level)
			if res.Kind == resolver.KindUnresolved {
				groups[key] = nil
				order = append(order, key)
				continue
			}
			edge = &ImportEdge{
				Importer:   path,
				Imported:   res.Path,
				ModuleName: key.module,
				Names:      make(map[string]bool),
				IsExternal: res.Kind == resolver.KindExternal,
			}
			groups[key] = edge
			order = append(order, key)
		}
		if edge != nil && imp.IsFrom {
			edge.Names[imp.Original] = true
		}
	}

	var edges []*ImportEdge
	for _, key := range order {
		if edge := groups[key]; edge != nil {
			edges = append(edges, edge)
		}
	}
	return edges
}

// scan collects .py files under root, skipping directories and files
// whose base name matches an exclude pattern.
func (b *Builder) scan(root string) ([]string, error) {
	dirGlobs := make([]glob.Glob, 0, len(b.ExcludeDirs))
	for _, p := range b.ExcludeDirs {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude dir pattern %q: %w", p, err)
		}
		dirGlobs = append(dirGlobs, g)
	}
	fileGlobs := make([]glob.Glob, 0, len(b.ExcludeFiles))
	for _, p := range b.ExcludeFiles {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude file pattern %q: %w", p, err)
		}
		fileGlobs = append(fileGlobs, g)
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		base := filepath.Base(path)
		if d.IsDir() {
			for _, g := range dirGlobs {
				if g.Match(base) {
					return filepath.SkipDir
				}
			}
			return nil
		}
		if filepath.Ext(path) != ".py" {
			return nil
		}
		for _, g := range fileGlobs {
			if g.Match(base) {
				return nil
			}
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}
		files = append(files, abs)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
