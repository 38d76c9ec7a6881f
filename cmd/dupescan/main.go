package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/standardbeagle/dupescan/internal/config"
	"github.com/standardbeagle/dupescan/internal/cst"
	"github.com/standardbeagle/dupescan/internal/debug"
	"github.com/standardbeagle/dupescan/internal/discovery"
	"github.com/standardbeagle/dupescan/internal/extractor"
	"github.com/standardbeagle/dupescan/internal/pipeline"
	"github.com/standardbeagle/dupescan/internal/report"
	"github.com/standardbeagle/dupescan/internal/version"
)

func main() {
	app := &cli.App{
		Name:                   "dupescan",
		Usage:                  "structural duplicate-code detector for multi-language codebases",
		Version:                version.Version,
		UseShortOptionHandling: true,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "source-path", Aliases: []string{"s"}, Usage: "directory or file to scan (required)"},
			&cli.StringSliceFlag{Name: "languages", Aliases: []string{"l"}, Usage: "restrict to these language tags; empty = all"},
			&cli.StringSliceFlag{Name: "excludes", Aliases: []string{"e"}, Usage: "shell-glob patterns matched against full path"},
			&cli.StringFlag{Name: "output-format", Aliases: []string{"o"}, Usage: "json, text, or xml", Value: "json"},
			&cli.StringFlag{Name: "output-file", Aliases: []string{"f"}, Usage: "write result here; default stdout"},
			&cli.IntFlag{Name: "threshold", Aliases: []string{"t"}, Usage: "minimum lines for a block to be considered", Value: 5},
			&cli.IntFlag{Name: "threads", Usage: "worker count; default #CPUs"},
			&cli.Int64Flag{Name: "max-file-size", Usage: "skip files larger than this many bytes", Value: 1048576},
			&cli.BoolFlag{Name: "debug", Usage: "verbose logging; dump intermediate indices to debug_data.json"},
			&cli.StringFlag{Name: "config", Usage: "path to an optional KDL config file", Value: ".dupescan.kdl"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cfg, err := config.LoadKDLFile(c.String("config"), config.Default())
	if err != nil {
		return err
	}
	applyCLIOverrides(c, cfg)

	if err := cfg.Validate(); err != nil {
		return err
	}
	if _, statErr := os.Stat(cfg.SourcePath); os.IsNotExist(statErr) {
		return fmt.Errorf("The source path '%s' does not exist.", cfg.SourcePath)
	}

	if cfg.Debug {
		if err := debug.OpenLogFile("dupescan-debug.log"); err != nil {
			return err
		}
		defer debug.CloseLogFile()
	}

	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider := cst.NewTreeSitterProvider()

	var recorder *report.Recorder
	if cfg.Debug {
		recorder = report.NewRecorder()
	}

	idx, stats, err := pipeline.Run(ctx, provider, cfg.SourcePath,
		discovery.Options{
			Languages:   cfg.Languages,
			Excludes:    cfg.Excludes,
			MaxFileSize: cfg.MaxFileSize,
		},
		pipeline.Options{
			Threads:   threads,
			Threshold: cfg.Threshold,
			Extractor: extractor.Options{Threshold: cfg.Threshold},
			Recorder:  recorder,
		},
	)
	if err != nil {
		return err
	}

	debug.Logf("processed %d files, skipped %d", stats.FilesProcessed, stats.FilesSkipped)

	survivors := idx.Survivors(2, 10)
	result := report.Build(survivors)

	out, closeOut, err := openOutput(cfg.OutputFile)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	defer closeOut()

	if err := report.Render(out, result, report.Format(cfg.OutputFormat)); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	if cfg.Debug && recorder != nil {
		dump := report.BuildDebugDump(idx, recorder, 2, 10)
		f, err := os.Create("debug_data.json")
		if err != nil {
			return fmt.Errorf("create debug dump: %w", err)
		}
		defer f.Close()
		if err := report.WriteDebugDump(f, dump); err != nil {
			return fmt.Errorf("write debug dump: %w", err)
		}
	}

	return nil
}

func applyCLIOverrides(c *cli.Context, cfg *config.Config) {
	if v := c.String("source-path"); v != "" {
		cfg.SourcePath = v
	}
	if v := c.StringSlice("languages"); len(v) > 0 {
		cfg.Languages = v
	}
	if v := c.StringSlice("excludes"); len(v) > 0 {
		cfg.Excludes = v
	}
	if c.IsSet("output-format") {
		cfg.OutputFormat = config.OutputFormat(c.String("output-format"))
	}
	if v := c.String("output-file"); v != "" {
		cfg.OutputFile = v
	}
	if c.IsSet("threshold") {
		cfg.Threshold = c.Int("threshold")
	}
	if c.IsSet("threads") {
		cfg.Threads = c.Int("threads")
	}
	if c.IsSet("max-file-size") {
		cfg.MaxFileSize = c.Int64("max-file-size")
	}
	if c.Bool("debug") {
		cfg.Debug = true
	}
}

func openOutput(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}
