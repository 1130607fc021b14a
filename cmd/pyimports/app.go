package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gobwas/glob"

	"github.com/cmyui/unused-import-linter-py/internal/analysis"
	"github.com/cmyui/unused-import-linter-py/internal/config"
	"github.com/cmyui/unused-import-linter-py/internal/graph"
	"github.com/cmyui/unused-import-linter-py/internal/history"
	"github.com/cmyui/unused-import-linter-py/internal/observability"
	"github.com/cmyui/unused-import-linter-py/internal/output"
	"github.com/cmyui/unused-import-linter-py/internal/parser"
	"github.com/cmyui/unused-import-linter-py/internal/report"
	"github.com/cmyui/unused-import-linter-py/internal/resolver"
	"github.com/cmyui/unused-import-linter-py/internal/rewrite"
)

type RunOptions struct {
	Fix                   bool
	Quiet                 bool
	SingleFile            bool
	WarnImplicitReexports bool
	WarnCircular          bool
}

type App struct {
	Config   *config.Config
	Parser   *parser.Parser
	Rewriter *rewrite.Rewriter
}

// runStats feeds the optional run-history record.
type runStats struct {
	mode      string
	files     int
	unused    int
	reexports int
	cycles    int
	fixed     int
}

func NewApp(cfg *config.Config) *App {
	p := parser.NewParser()
	return &App{
		Config:   cfg,
		Parser:   p,
		Rewriter: rewrite.NewRewriter(p),
	}
}

func (a *App) Run(ctx context.Context, paths []string, opts RunOptions) int {
	if addr := a.Config.Observability.MetricsAddr; addr != "" {
		srv := observability.NewServer(addr)
		srv.Start()
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Stop(stopCtx)
		}()
	}
	if endpoint := a.Config.Observability.OTLPEndpoint; endpoint != "" {
		shutdown, err := observability.InitTracing(ctx, "pyimports", VERSION, endpoint)
		if err != nil {
			slog.Warn("tracing disabled", "error", err)
		} else {
			defer func() { _ = shutdown(context.Background()) }()
		}
	}

	start := time.Now()
	var (
		code  int
		stats runStats
	)
	if opts.SingleFile {
		code, stats = a.runSingleFile(paths, opts)
	} else {
		code, stats = a.runCrossFile(ctx, paths, opts)
	}

	if a.Config.History.Enabled {
		a.recordRun(stats, time.Since(start))
	}
	return code
}

func (a *App) runSingleFile(paths []string, opts RunOptions) (int, runStats) {
	stats := runStats{mode: "single-file"}

	files, err := a.collectPythonFiles(paths)
	if err != nil {
		slog.Error("failed to collect files", "error", err)
		return 1, stats
	}
	if len(files) == 0 {
		fmt.Fprintln(os.Stderr, "No Python files found")
		return 1, stats
	}
	stats.files = len(files)

	filesWithIssues := 0
	for _, path := range files {
		count := a.checkFile(path, opts, &stats)
		if count > 0 {
			stats.unused += count
			filesWithIssues++
		}
	}

	if stats.unused > 0 {
		action := "Found"
		if opts.Fix {
			action = "Fixed"
		}
		fmt.Printf("\n%s %d unused import(s) in %d file(s)\n", action, stats.unused, filesWithIssues)
		if opts.Fix {
			return 0, stats
		}
		return 1, stats
	}
	fmt.Println("No unused imports found")
	return 0, stats
}

func (a *App) checkFile(path string, opts RunOptions, stats *runStats) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
		return 0
	}

	file, err := a.Parser.Analyze(path, source)
	if err != nil {
		if errors.Is(err, parser.ErrSyntax) {
			slog.Warn("skipping unparseable file", "path", path)
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error analyzing %s: %v\n", path, err)
		return 0
	}

	unused := analysis.FindUnusedImports(file)
	if len(unused) == 0 {
		return 0
	}

	if !opts.Quiet {
		for _, imp := range unused {
			fmt.Println(report.UnusedMessage(path, imp))
		}
	}
	if opts.Fix {
		a.fixFile(path, source, file, unused, opts, stats)
	}
	return len(unused)
}

func (a *App) runCrossFile(ctx context.Context, paths []string, opts RunOptions) (int, runStats) {
	stats := runStats{}

	if len(paths) > 1 {
		fmt.Fprintln(os.Stderr, "Cross-file mode expects a single entry point file or directory. Use -single-file for multiple paths.")
		return 1, stats
	}
	path := paths[0]

	info, err := os.Stat(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Path not found: %s\n", path)
		return 1, stats
	}

	builder, base := a.newBuilder(path, info.IsDir())
	var g *graph.ImportGraph
	if info.IsDir() {
		stats.mode = "directory"
		g, err = builder.BuildFromDirectory(ctx, path)
	} else {
		stats.mode = "entry"
		g, err = builder.BuildFromEntry(ctx, path)
	}
	if err != nil {
		slog.Error("failed to build import graph", "error", err)
		return 1, stats
	}
	observability.GraphNodes.Set(float64(len(g.Nodes)))
	observability.GraphEdges.Set(float64(len(g.Edges)))
	stats.files = len(g.Nodes)

	result := analysis.NewCrossFileAnalyzer(g).Analyze(ctx)
	stats.reexports = len(result.ImplicitReexports)
	stats.cycles = len(result.CircularImports)
	for _, unused := range result.UnusedImports {
		stats.unused += len(unused)
	}

	if opts.Fix {
		a.fixGraphFiles(g, result, opts, &stats)
	}

	for _, line := range report.FormatCrossFile(result, report.Options{
		BasePath:              base,
		Fix:                   opts.Fix,
		Quiet:                 opts.Quiet,
		WarnImplicitReexports: opts.WarnImplicitReexports,
		WarnCircular:          opts.WarnCircular,
	}) {
		fmt.Println(line)
	}

	a.writeExports(g, result)

	if stats.unused > 0 && !opts.Fix {
		return 1, stats
	}
	return 0, stats
}

func (a *App) newBuilder(path string, isDir bool) (*graph.Builder, string) {
	known := resolver.StdlibModules()
	for _, name := range a.Config.KnownExternal {
		known[name] = true
	}

	var res *resolver.Resolver
	base := path
	if isDir {
		res = resolver.NewForRoot(path, a.Config.SearchPaths, known)
	} else {
		res = resolver.New(path, a.Config.SearchPaths, known)
		base = filepath.Dir(path)
	}

	builder := graph.NewBuilder(res)
	if a.Config.Workers > 0 {
		builder.Workers = a.Config.Workers
	}
	builder.ExcludeDirs = a.Config.Exclude.Dirs
	builder.ExcludeFiles = a.Config.Exclude.Files
	return builder, base
}

func (a *App) fixGraphFiles(g *graph.ImportGraph, result *analysis.CrossFileResult, opts RunOptions, stats *runStats) {
	paths := make([]string, 0, len(result.UnusedImports))
	for path := range result.UnusedImports {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		record, ok := g.Nodes[path]
		if !ok {
			continue
		}
		source, err := os.ReadFile(path)
		if err != nil {
			slog.Warn("failed to read file for fixing", "path", path, "error", err)
			continue
		}
		a.fixFile(path, source, record.File, result.UnusedImports[path], opts, stats)
	}
}

func (a *App) fixFile(path string, source []byte, file *parser.File, unused []parser.ImportDecl, opts RunOptions, stats *runStats) {
	fixed, err := a.Rewriter.RemoveUnused(source, file, unused)
	if err != nil {
		slog.Warn("failed to rewrite file", "path", path, "error", err)
		return
	}
	if string(fixed) == string(source) {
		return
	}
	if err := os.WriteFile(path, fixed, 0o644); err != nil {
		slog.Warn("failed to write fixed file", "path", path, "error", err)
		return
	}
	observability.FilesRewritten.Inc()
	stats.fixed += len(unused)
	if !opts.Quiet {
		fmt.Printf("Fixed %d unused import(s) in %s\n", len(unused), path)
	}
}

// writeExports renders the graph in every format the config names.
func (a *App) writeExports(g *graph.ImportGraph, result *analysis.CrossFileResult) {
	cycles := result.CircularImports
	write := func(path, content string, err error) {
		if path == "" {
			return
		}
		if err == nil {
			err = os.WriteFile(path, []byte(content), 0o644)
		}
		if err != nil {
			slog.Warn("failed to write export", "path", path, "error", err)
		}
	}

	if path := a.Config.Output.DOT; path != "" {
		content, err := output.NewDOTGenerator(g).Generate(cycles)
		write(path, content, err)
	}
	if path := a.Config.Output.Mermaid; path != "" {
		content, err := output.NewMermaidGenerator(g).Generate(cycles)
		write(path, content, err)
	}
	if path := a.Config.Output.PlantUML; path != "" {
		content, err := output.NewPlantUMLGenerator(g).Generate(cycles)
		write(path, content, err)
	}
	if path := a.Config.Output.TSV; path != "" {
		content, err := output.NewTSVGenerator(g).Generate()
		write(path, content, err)
	}
}

func (a *App) recordRun(stats runStats, duration time.Duration) {
	store, err := history.Open(a.Config.History.Path)
	if err != nil {
		slog.Warn("failed to open history store", "error", err)
		return
	}
	defer store.Close()

	err = store.SaveRun(history.Run{
		ProjectKey:            a.Config.History.ProjectKey,
		Mode:                  stats.mode,
		Duration:              duration,
		FileCount:             stats.files,
		UnusedImportCount:     stats.unused,
		ImplicitReexportCount: stats.reexports,
		CycleCount:            stats.cycles,
		FixedCount:            stats.fixed,
	})
	if err != nil {
		slog.Warn("failed to record run", "error", err)
	}
}

// collectPythonFiles expands files and directories into the list of
// Python sources to check, honoring the configured exclude globs.
func (a *App) collectPythonFiles(paths []string) ([]string, error) {
	dirGlobs, err := compileGlobs(a.Config.Exclude.Dirs)
	if err != nil {
		return nil, err
	}
	fileGlobs, err := compileGlobs(a.Config.Exclude.Files)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %q: %w", path, err)
		}
		if !info.IsDir() {
			if strings.HasSuffix(path, ".py") {
				files = append(files, path)
			}
			continue
		}

		err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				for _, g := range dirGlobs {
					if g.Match(d.Name()) {
						return filepath.SkipDir
					}
				}
				return nil
			}
			if !strings.HasSuffix(p, ".py") {
				return nil
			}
			for _, g := range fileGlobs {
				if g.Match(d.Name()) {
					return nil
				}
			}
			files = append(files, p)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(files)
	return files, nil
}

func compileGlobs(patterns []string) ([]glob.Glob, error) {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", p, err)
		}
		globs = append(globs, g)
	}
	return globs, nil
}
