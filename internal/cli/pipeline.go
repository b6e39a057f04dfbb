package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/clbarnes/zip-tree/internal/logctx"
	"github.com/clbarnes/zip-tree/pkg/fileutil"
	"github.com/clbarnes/zip-tree/pkg/humanfmt"
	"github.com/clbarnes/zip-tree/pkg/logging"
	"github.com/clbarnes/zip-tree/pkg/manifest"
	"github.com/clbarnes/zip-tree/pkg/memdiag"
	"github.com/clbarnes/zip-tree/pkg/partition"
	"github.com/clbarnes/zip-tree/pkg/pathtree"
	"github.com/clbarnes/zip-tree/pkg/s3fetch"
	"github.com/clbarnes/zip-tree/pkg/sysmem"
)

// planOptions carries everything a plan or stat run needs after flag, env,
// and config file resolution.
type planOptions struct {
	Input  string
	Output string

	Format     manifest.Format
	Total      int64
	CountLines bool
	Progress   bool

	Partition partition.Config
}

// manifestSource is an open manifest reader plus the advisory record total
// used to size progress reporting (0 when unknown).
type manifestSource struct {
	reader manifest.Reader
	extra  io.Closer // spooled S3 object or local file backing a Parquet reader
	total  int64
}

func (s *manifestSource) Close() error {
	err := s.reader.Close()
	if s.extra != nil {
		if cerr := s.extra.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// openManifest resolves the input argument to a manifest reader. Parquet
// needs random access, so S3 Parquet objects are spooled to a temp file by
// the concurrent downloader while TSV (plain or gzip) streams straight from
// the GetObject body. Local files and stdin are handled by fileutil.
func openManifest(ctx context.Context, opts *planOptions) (*manifestSource, error) {
	src := &manifestSource{total: opts.Total}
	log := logctx.FromContext(ctx)

	switch {
	case s3fetch.IsS3URI(opts.Input):
		bucket, key, err := s3fetch.ParseS3URI(opts.Input)
		if err != nil {
			return nil, err
		}
		client, err := s3fetch.NewClient(ctx)
		if err != nil {
			return nil, err
		}
		if opts.Format == manifest.FormatParquet {
			dl := s3fetch.NewDownloader(client.S3(), s3fetch.DefaultDownloaderConfig())
			obj, dlRes, err := dl.DownloadToReader(ctx, bucket, key)
			if err != nil {
				return nil, err
			}
			logging.PhaseComplete(log, "download_manifest", dlRes.Duration).
				Str("uri", opts.Input).
				Bytes("bytes", dlRes.BytesDownloaded).
				Throughput(dlRes.BytesDownloaded).
				Log("manifest downloaded")
			size, err := obj.Size()
			if err != nil {
				obj.Close()
				return nil, err
			}
			r, err := manifest.NewParquetReader(obj, size)
			if err != nil {
				obj.Close()
				return nil, fmt.Errorf("open parquet manifest %s: %w", opts.Input, err)
			}
			src.reader = r
			src.extra = obj
		} else {
			body, err := client.StreamObject(ctx, bucket, key)
			if err != nil {
				return nil, err
			}
			r, err := manifest.NewTSVReaderFromStream(body, key)
			if err != nil {
				return nil, err
			}
			src.reader = r
		}

	case opts.Format == manifest.FormatParquet:
		if fileutil.IsStdio(opts.Input) {
			rc, err := fileutil.OpenInput(opts.Input)
			if err != nil {
				return nil, err
			}
			r, err := manifest.NewParquetReaderFromStream(rc)
			if err != nil {
				return nil, fmt.Errorf("open parquet manifest from stdin: %w", err)
			}
			src.reader = r
		} else {
			f, err := os.Open(opts.Input)
			if err != nil {
				return nil, fmt.Errorf("open input: %w", err)
			}
			info, err := f.Stat()
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("stat input: %w", err)
			}
			r, err := manifest.NewParquetReader(f, info.Size())
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("open parquet manifest %s: %w", opts.Input, err)
			}
			src.reader = r
			src.extra = f
		}

	default:
		rc, err := fileutil.OpenInput(opts.Input)
		if err != nil {
			return nil, err
		}
		r, err := manifest.NewTSVReaderFromStream(rc, opts.Input)
		if err != nil {
			return nil, err
		}
		src.reader = r
	}

	if src.total <= 0 {
		if rc, ok := src.reader.(manifest.RowCounter); ok {
			src.total = rc.NumRows()
		} else if opts.CountLines {
			n, err := countLocalLines(opts.Input, log)
			if err != nil {
				src.Close()
				return nil, err
			}
			src.total = n
		}
	}
	return src, nil
}

// countLocalLines pre-counts manifest lines for progress estimation. Only a
// local uncompressed text file can be counted without paying for a second
// download or decompression pass, so anything else is skipped with a warning.
func countLocalLines(input string, log zerolog.Logger) (int64, error) {
	if fileutil.IsStdio(input) || s3fetch.IsS3URI(input) || strings.HasSuffix(strings.ToLower(input), ".gz") {
		log.Warn().Str("input", input).Msg("line counting needs a local uncompressed text file, skipping")
		return 0, nil
	}
	start := time.Now()
	n, err := manifest.CountLines(input)
	if err != nil {
		return 0, fmt.Errorf("count lines: %w", err)
	}
	log.Debug().
		Int64("lines", n).
		Dur("elapsed", time.Since(start)).
		Msg("counted manifest lines")
	return n, nil
}

// buildAggregated runs the manifest read phase and returns the aggregated
// tree shared by the plan and stat commands.
func buildAggregated(ctx context.Context, opts *planOptions) (*pathtree.Tree, error) {
	log := logging.WithPhase("build_tree")
	start := time.Now()

	src, err := openManifest(logctx.WithLogger(ctx, log), opts)
	if err != nil {
		return nil, err
	}

	builder := &pathtree.Builder{}
	if opts.Progress {
		pt := logging.NewProgressTracker("build_tree", src.total, log)
		builder.OnProgress = pt.Add
	}

	tree, err := builder.Build(logctx.WithLogger(ctx, log), src.reader)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("build tree: %w", err)
	}
	if err := src.Close(); err != nil {
		log.Warn().Err(err).Msg("close manifest input")
	}

	tree.Aggregate()

	logging.PhaseComplete(log, "build_tree", time.Since(start)).
		Int("nodes", tree.Len()).
		Count("files", tree.FileCount()).
		BytesUint64("total_size", tree.TotalSize()).
		Log("constructed tree")

	// The whole tree lives on the heap, so warn when it is crowding the
	// machine before selection doubles down on it.
	if mem := sysmem.Total(); mem.Reliable {
		if heap := memdiag.Read().HeapAlloc; heap > mem.TotalBytes/2 {
			log.Warn().
				Str("heap", humanfmt.BytesUint64(heap)).
				Str("system_ram", humanfmt.BytesUint64(mem.TotalBytes)).
				Msg("tree heap exceeds half of system memory")
		}
	}

	return tree, nil
}

// planRun executes the plan pipeline: read the manifest, aggregate the tree,
// select archive roots, and write them out.
func planRun(opts *planOptions) error {
	ctx := context.Background()

	if s3fetch.IsS3URI(opts.Output) {
		return errors.New("s3 output is not supported, write locally and upload separately")
	}
	if fileutil.SameFile(opts.Input, opts.Output) {
		return fmt.Errorf("input and output name the same file: %s", opts.Input)
	}
	if !fileutil.IsStdio(opts.Output) {
		if err := fileutil.EnsureParentDir(opts.Output); err != nil {
			return err
		}
	}

	memdiag.StartGlobal()
	defer memdiag.StopGlobal()
	mdiag := memdiag.Global()

	start := time.Now()
	mdiag.SetPhase("build_tree")
	tree, err := buildAggregated(ctx, opts)
	if err != nil {
		return err
	}
	if mdiag.Enabled() {
		memdiag.ForceGC()
	}

	mdiag.SetPhase("select_roots")
	selLog := logging.WithPhase("select_roots")
	selStart := time.Now()
	cfg := opts.Partition
	if opts.Progress {
		pt := logging.NewProgressTracker("select_roots", int64(tree.TotalDescendants())+1, selLog)
		cfg.OnProgress = pt.Add
	}
	res, err := partition.Select(logctx.WithLogger(ctx, selLog), tree, cfg)
	if err != nil {
		return fmt.Errorf("select archive roots: %w", err)
	}

	logging.PhaseComplete(selLog, "select_roots", time.Since(selStart)).
		CountUint64("files", res.ArchivedFiles).
		CountUint64("archives", res.Archives).
		BytesUint64("archived_bytes", res.ArchivedBytes).
		Log("archive roots selected")

	perUnit := int64(math.Ceil(res.ResidualDensity * float64(cfg.UnitBytes)))
	selLog.Info().
		Int64("max_files_per_unit", perUnit).
		Str("density_unit", humanfmt.BytesUint64(cfg.UnitBytes)).
		Msg("projected archive-set density assuming zero compression")

	mdiag.SetPhase("write_plan")
	if err := fileutil.WriteLines(opts.Output, res.Roots); err != nil {
		return fmt.Errorf("write archive roots: %w", err)
	}

	outName := opts.Output
	if fileutil.IsStdio(outName) {
		outName = "stdout"
	}
	logging.PhaseComplete(logging.WithPhase("plan"), "plan", time.Since(start)).
		CountUint64("archives", res.Archives).
		Str("output", outName).
		Log("plan complete")

	return nil
}

// statRun builds and aggregates the tree, then reports manifest-wide
// statistics without selecting archive roots.
func statRun(opts *planOptions) error {
	ctx := context.Background()

	memdiag.StartGlobal()
	defer memdiag.StopGlobal()
	memdiag.Global().SetPhase("build_tree")

	start := time.Now()
	tree, err := buildAggregated(ctx, opts)
	if err != nil {
		return err
	}

	density := 0.0
	if tree.TotalSize() > 0 {
		density = float64(tree.TotalDescendants()) / (float64(tree.TotalSize()) / float64(opts.Partition.UnitBytes))
	}

	logging.PhaseComplete(logging.WithPhase("stat"), "stat", time.Since(start)).
		Int("nodes", tree.Len()).
		Count("files", tree.FileCount()).
		CountUint64("entries", tree.TotalDescendants()).
		BytesUint64("total_size", tree.TotalSize()).
		Float64("files_per_unit", density).
		Str("density_unit", humanfmt.BytesUint64(opts.Partition.UnitBytes)).
		Log("manifest statistics")

	return nil
}
