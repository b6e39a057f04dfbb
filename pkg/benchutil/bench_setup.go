package benchutil

import (
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/clbarnes/zip-tree/pkg/manifest"
)

// SkipIfNoLongBench skips the benchmark if ZIPTREE_LONG_BENCH is not set.
// Use this to gate long-running benchmarks that shouldn't run by default.
func SkipIfNoLongBench(b *testing.B) {
	if os.Getenv("ZIPTREE_LONG_BENCH") == "" {
		b.Skip("set ZIPTREE_LONG_BENCH=1 to run scaling benchmark")
	}
}

// PathsToSizes generates synthetic sizes for a slice of paths.
// Returns sizes with a pattern that varies based on position.
func PathsToSizes(paths []string) []uint64 {
	sizes := make([]uint64, len(paths))
	for i := range paths {
		sizes[i] = uint64((i%1000 + 1) * 100)
	}
	return sizes
}

// SliceReader is a manifest.Reader over an in-memory record slice.
type SliceReader struct {
	records []manifest.Record
	pos     int
}

// NewSliceReader creates a manifest reader over the given records.
func NewSliceReader(records []manifest.Record) *SliceReader {
	return &SliceReader{records: records}
}

// NewSliceReaderFromFiles creates a manifest reader over generated files.
func NewSliceReaderFromFiles(files []FakeFile) *SliceReader {
	records := make([]manifest.Record, len(files))
	for i, f := range files {
		records[i] = manifest.Record{Path: f.Path, Size: f.Size}
	}
	return NewSliceReader(records)
}

// Next returns the next record, or io.EOF when exhausted.
func (r *SliceReader) Next() (manifest.Record, error) {
	if r.pos >= len(r.records) {
		return manifest.Record{}, io.EOF
	}
	rec := r.records[r.pos]
	r.pos++
	return rec, nil
}

// Close resets the reader so it can be reused in benchmark loops.
func (r *SliceReader) Close() error {
	r.pos = 0
	return nil
}

// WriteManifestTSV writes files as tab-separated manifest lines.
func WriteManifestTSV(w io.Writer, files []FakeFile) error {
	for _, f := range files {
		if _, err := fmt.Fprintf(w, "%s\t%d\n", f.Path, f.Size); err != nil {
			return err
		}
	}
	return nil
}
