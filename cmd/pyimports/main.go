package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/cmyui/unused-import-linter-py/internal/config"
)

var (
	configPath    = flag.String("config", "./pyimports.toml", "Path to config file")
	fix           = flag.Bool("fix", false, "Automatically remove unused imports")
	quiet         = flag.Bool("quiet", false, "Only show summary, not individual issues")
	singleFile    = flag.Bool("single-file", false, "Per-file mode without cross-file import tracking")
	warnReexports = flag.Bool("warn-implicit-reexports", false, "Warn when imports are re-exported without being in __all__")
	warnCircular  = flag.Bool("warn-circular", false, "Warn about circular import chains")
	verbose       = flag.Bool("verbose", false, "Enable verbose logging")
	versionFlag   = flag.Bool("version", false, "Print version and exit")
)

const VERSION = "1.0.0"

func main() {
	flag.Parse()

	if *versionFlag {
		fmt.Printf("pyimports v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: pyimports [flags] <paths>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	app := NewApp(cfg)
	opts := RunOptions{
		Fix:                   *fix,
		Quiet:                 *quiet,
		SingleFile:            *singleFile,
		WarnImplicitReexports: *warnReexports,
		WarnCircular:          *warnCircular,
	}

	os.Exit(app.Run(context.Background(), flag.Args(), opts))
}

// loadConfig falls back to defaults when the default config path does
// not exist; an explicitly given path must load.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		if path == "./pyimports.toml" && errors.Is(err, os.ErrNotExist) {
			return config.Default(), nil
		}
		return nil, err
	}
	return cfg, nil
}
