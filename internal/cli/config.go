package cli

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/clbarnes/zip-tree/pkg/fileutil"
	"github.com/clbarnes/zip-tree/pkg/humanfmt"
	"github.com/clbarnes/zip-tree/pkg/manifest"
	"github.com/clbarnes/zip-tree/pkg/partition"
)

// Environment variables consulted between CLI flags and the config file.
const (
	EnvMaxArchiveSize = "ZIPTREE_MAX_ARCHIVE_SIZE"
	EnvMinFilesPerTiB = "ZIPTREE_MIN_FILES_PER_TIB"
	EnvDensityUnit    = "ZIPTREE_DENSITY_UNIT"
)

// fileConfig mirrors the optional YAML config file. Pointer fields
// distinguish absent keys from explicit zero values.
type fileConfig struct {
	MaxArchiveSize string   `yaml:"max_archive_size"`
	MinFilesPerTiB *float64 `yaml:"min_files_per_tib"`
	DensityUnit    string   `yaml:"density_unit"`
	NoProgress     *bool    `yaml:"no_progress"`
}

// loadFileConfig reads the YAML config file. The path only arrives via an
// explicit --config flag, so a missing file is an error rather than a silent
// fallback to defaults.
func loadFileConfig(path string) (*fileConfig, error) {
	if path == "" {
		return nil, nil
	}
	if !fileutil.Exists(path) {
		return nil, fmt.Errorf("config file %s does not exist", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file %s: %w", path, err)
	}
	return &cfg, nil
}

// determineMaxArchiveBytes resolves the archive size ceiling from, in order:
// the --max-archive-size flag, ZIPTREE_MAX_ARCHIVE_SIZE, the config file, and
// the built-in default.
func determineMaxArchiveBytes(cliValue string, fileCfg *fileConfig) (uint64, error) {
	if cliValue != "" {
		return parseSizeSetting(cliValue, "--max-archive-size")
	}
	if env := os.Getenv(EnvMaxArchiveSize); env != "" {
		return parseSizeSetting(env, EnvMaxArchiveSize)
	}
	if fileCfg != nil && fileCfg.MaxArchiveSize != "" {
		return parseSizeSetting(fileCfg.MaxArchiveSize, "max_archive_size")
	}
	return partition.DefaultMaxArchiveBytes, nil
}

// determineMinFilesPerUnit resolves the density floor from, in order: the
// --min-files-per-tib flag, ZIPTREE_MIN_FILES_PER_TIB, the config file, and
// the built-in default.
func determineMinFilesPerUnit(cliValue string, fileCfg *fileConfig) (float64, error) {
	if cliValue != "" {
		return parseDensitySetting(cliValue, "--min-files-per-tib")
	}
	if env := os.Getenv(EnvMinFilesPerTiB); env != "" {
		return parseDensitySetting(env, EnvMinFilesPerTiB)
	}
	if fileCfg != nil && fileCfg.MinFilesPerTiB != nil {
		v := *fileCfg.MinFilesPerTiB
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("min_files_per_tib must be positive, got %v", v)
		}
		return v, nil
	}
	return partition.DefaultMinFilesPerUnit, nil
}

// determineDensityUnit resolves the size unit the density floor is measured
// against from, in order: the --density-unit flag, ZIPTREE_DENSITY_UNIT, the
// config file, and the built-in default.
func determineDensityUnit(cliValue string, fileCfg *fileConfig) (uint64, error) {
	if cliValue != "" {
		return parseSizeSetting(cliValue, "--density-unit")
	}
	if env := os.Getenv(EnvDensityUnit); env != "" {
		return parseSizeSetting(env, EnvDensityUnit)
	}
	if fileCfg != nil && fileCfg.DensityUnit != "" {
		return parseSizeSetting(fileCfg.DensityUnit, "density_unit")
	}
	return partition.DefaultUnitBytes, nil
}

func parseSizeSetting(value, source string) (uint64, error) {
	v, err := humanfmt.ParseBytes(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", source, value, err)
	}
	if v == 0 {
		return 0, fmt.Errorf("%s must be positive", source)
	}
	return v, nil
}

func parseDensitySetting(value, source string) (float64, error) {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s %q: expected a number", source, value)
	}
	if v <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %v", source, v)
	}
	return v, nil
}

// resolveNoProgress disables progress reporting when either the flag or the
// config file asks for it.
func resolveNoProgress(cliNoProgress bool, fileCfg *fileConfig) bool {
	if cliNoProgress {
		return true
	}
	return fileCfg != nil && fileCfg.NoProgress != nil && *fileCfg.NoProgress
}

// resolveFormat maps the --format flag to a manifest format, defaulting to
// detection from the input name.
func resolveFormat(flagValue, input string) (manifest.Format, error) {
	switch strings.ToLower(flagValue) {
	case "":
		return manifest.DetectFormat(input), nil
	case "tsv":
		return manifest.FormatTSV, nil
	case "parquet":
		return manifest.FormatParquet, nil
	default:
		return 0, fmt.Errorf("invalid --format %q (expected tsv or parquet)", flagValue)
	}
}
