// Package cli implements the command-line interface for zip-tree.
package cli

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/clbarnes/zip-tree/pkg/logging"
)

// Run executes the CLI with the given arguments.
func Run(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: zip-tree <command> [options]\ncommands: plan, stat")
	}

	switch args[0] {
	case "plan":
		return runPlan(args[1:])
	case "stat":
		return runStat(args[1:])
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func runPlan(args []string) error {
	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	maxSize := fs.String("max-archive-size", "", "subtrees smaller than this are packed whole (human size, default 100GiB)")
	minPerTiB := fs.String("min-files-per-tib", "", "subtrees with fewer files per density unit are packed whole instead of split (default 100000)")
	densityUnit := fs.String("density-unit", "", "size unit the density floor is measured against (human size, default 1TiB)")
	total := fs.Int64("total", 0, "expected record count, for progress reporting only")
	countLines := fs.Bool("count-lines", false, "count input lines up front to size progress reporting (local uncompressed text input only)")
	noProgress := fs.Bool("no-progress", false, "disable periodic progress logging")
	format := fs.String("format", "", "input format: tsv or parquet (default: detect from the input name)")
	configPath := fs.String("config", "", "YAML config file")
	debug := fs.Bool("debug", false, "enable debug logging")
	pretty := fs.Bool("pretty", false, "human-friendly console logging")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 2 {
		return fmt.Errorf("unexpected arguments after input and output: %s", strings.Join(fs.Args()[2:], " "))
	}

	logging.Init(*debug, *pretty)

	fileCfg, err := loadFileConfig(*configPath)
	if err != nil {
		return err
	}

	opts := &planOptions{
		Input:      fs.Arg(0),
		Output:     fs.Arg(1),
		Total:      *total,
		CountLines: *countLines,
		Progress:   !resolveNoProgress(*noProgress, fileCfg),
	}
	if opts.Format, err = resolveFormat(*format, opts.Input); err != nil {
		return err
	}
	if opts.Partition.MaxArchiveBytes, err = determineMaxArchiveBytes(*maxSize, fileCfg); err != nil {
		return err
	}
	if opts.Partition.MinFilesPerUnit, err = determineMinFilesPerUnit(*minPerTiB, fileCfg); err != nil {
		return err
	}
	if opts.Partition.UnitBytes, err = determineDensityUnit(*densityUnit, fileCfg); err != nil {
		return err
	}

	return planRun(opts)
}

func runStat(args []string) error {
	fs := flag.NewFlagSet("stat", flag.ContinueOnError)
	densityUnit := fs.String("density-unit", "", "size unit the reported density is measured against (human size, default 1TiB)")
	total := fs.Int64("total", 0, "expected record count, for progress reporting only")
	countLines := fs.Bool("count-lines", false, "count input lines up front to size progress reporting (local uncompressed text input only)")
	noProgress := fs.Bool("no-progress", false, "disable periodic progress logging")
	format := fs.String("format", "", "input format: tsv or parquet (default: detect from the input name)")
	configPath := fs.String("config", "", "YAML config file")
	debug := fs.Bool("debug", false, "enable debug logging")
	pretty := fs.Bool("pretty", false, "human-friendly console logging")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return fmt.Errorf("unexpected arguments after input: %s", strings.Join(fs.Args()[1:], " "))
	}

	logging.Init(*debug, *pretty)

	fileCfg, err := loadFileConfig(*configPath)
	if err != nil {
		return err
	}

	opts := &planOptions{
		Input:      fs.Arg(0),
		Total:      *total,
		CountLines: *countLines,
		Progress:   !resolveNoProgress(*noProgress, fileCfg),
	}
	if opts.Format, err = resolveFormat(*format, opts.Input); err != nil {
		return err
	}
	if opts.Partition.UnitBytes, err = determineDensityUnit(*densityUnit, fileCfg); err != nil {
		return err
	}

	return statRun(opts)
}
