// apislice extracts API-usage slices from a directory of C# files.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/phobologic/apislice/internal/batch"
	"github.com/phobologic/apislice/internal/config"
	"github.com/phobologic/apislice/internal/journal"
	"github.com/phobologic/apislice/internal/rules"
	"github.com/phobologic/apislice/internal/semantic"
	"github.com/phobologic/apislice/internal/slicer"
	"github.com/phobologic/apislice/internal/toon"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) > 0 && args[0] == "init" {
		return runInit(args[1:], stdout, stderr)
	}

	fs := flag.NewFlagSet("apislice", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var (
		configPath  string
		showVersion bool
		flagCfg     config.Config
		refs        string
	)

	fs.StringVar(&configPath, "config", "", "config file (default "+config.DefaultFile+" if present)")
	fs.StringVar(&flagCfg.Out, "out", "", "directory for slice files")
	fs.StringVar(&flagCfg.Logs, "logs", "", "directory for run logs and the checkpoint")
	fs.StringVar(&flagCfg.Rules, "rules", "", "keyword file")
	fs.StringVar(&refs, "refs", "", "comma-separated reference catalogs (files or directories)")
	fs.IntVar(&flagCfg.Workers, "workers", 0, "files processed in parallel")
	fs.DurationVar(&flagCfg.Timeout, "timeout", 0, "time limit per file")
	fs.IntVar(&flagCfg.MaxSlices, "max-slices", 0, "keep only the N largest slices per file")
	fs.IntVar(&flagCfg.MaxSliceNodes, "max-slice-nodes", 0, "drop slices larger than N syntax nodes")
	fs.StringVar(&flagCfg.Only, "only", "", "only process files whose identity contains this text")
	fs.BoolVar(&flagCfg.Verbose, "v", false, "verbose logging")
	fs.BoolVar(&showVersion, "V", false, "show version and exit")
	fs.BoolVar(&showVersion, "version", false, "show version and exit")

	fs.Usage = func() {
		fmt.Fprintf(stderr, `Usage: apislice [flags] [dir]
       apislice init [flags] [dir]

Slice every C# file under dir (default ".") and print a run report.

Flags:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(reorderArgs(args)); err != nil {
		return err
	}

	if showVersion {
		_, _ = fmt.Fprintf(stdout, "apislice %s\n", version)
		return nil
	}

	cfg, err := config.Load(config.Sources{File: configPath})
	if err != nil {
		return err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "out":
			cfg.Out = flagCfg.Out
		case "logs":
			cfg.Logs = flagCfg.Logs
		case "rules":
			cfg.Rules = flagCfg.Rules
		case "refs":
			cfg.Refs = config.SplitList(refs)
		case "workers":
			cfg.Workers = flagCfg.Workers
		case "timeout":
			cfg.Timeout = flagCfg.Timeout
		case "max-slices":
			cfg.MaxSlices = flagCfg.MaxSlices
		case "max-slice-nodes":
			cfg.MaxSliceNodes = flagCfg.MaxSliceNodes
		case "only":
			cfg.Only = flagCfg.Only
		case "v":
			cfg.Verbose = flagCfg.Verbose
		}
	})
	if err := cfg.Validate(); err != nil {
		return err
	}

	root := "."
	if fs.NArg() > 0 {
		root = fs.Arg(0)
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving input: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return fmt.Errorf("input path: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: not a directory", root)
	}

	log := newLogger(stderr, cfg.Verbose)
	defer func() { _ = log.Sync() }()

	rs, err := rules.Load(cfg.Rules)
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrConfiguration, err)
	}
	if rs.Len() == 0 {
		log.Warn("keyword file has no patterns", zap.String("rules", cfg.Rules))
	}
	catalog, err := semantic.LoadCatalog(cfg.Refs...)
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrConfiguration, err)
	}
	log.Debug("references loaded",
		zap.Int("types", catalog.Len()),
		zap.Strings("assemblies", catalog.Assemblies()))
	j, err := journal.Open(cfg.Logs)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.Out, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", cfg.Out, err)
	}

	s := slicer.New(rs, catalog, slicer.Options{
		MaxSlices:     cfg.MaxSlices,
		MaxSliceNodes: cfg.MaxSliceNodes,
		Logger:        log,
	})
	runner := batch.New(s, j, batch.Options{
		Input:   root,
		Out:     cfg.Out,
		Workers: cfg.Workers,
		Timeout: cfg.Timeout,
		Only:    cfg.Only,
		Logger:  log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := runner.Run(ctx)
	if report != nil {
		_, _ = fmt.Fprintln(stdout, toon.Encode(report))
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("interrupted; rerun to resume: %w", err)
	}
	return err
}

func newLogger(w io.Writer, verbose bool) *zap.Logger {
	level := zapcore.InfoLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.EncodeTime = zapcore.TimeEncoderOfLayout(time.TimeOnly)
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), level)
	return zap.New(core)
}

// flagsWithValue lists flags that take a value argument.
var flagsWithValue = map[string]bool{
	"-config": true, "--config": true,
	"-out": true, "--out": true,
	"-logs": true, "--logs": true,
	"-rules": true, "--rules": true,
	"-refs": true, "--refs": true,
	"-workers": true, "--workers": true,
	"-timeout": true, "--timeout": true,
	"-max-slices": true, "--max-slices": true,
	"-max-slice-nodes": true, "--max-slice-nodes": true,
	"-only": true, "--only": true,
}

// reorderArgs moves positional arguments after all flags so Go's flag package
// can parse them correctly (it stops at the first non-flag arg).
func reorderArgs(args []string) []string {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		if args[i] == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(args[i]) > 0 && args[i][0] == '-' {
			flags = append(flags, args[i])
			if flagsWithValue[args[i]] && i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, args[i])
		}
	}
	return append(flags, positional...)
}
