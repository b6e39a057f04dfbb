package pathtree

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/clbarnes/zip-tree/internal/logctx"
	"github.com/clbarnes/zip-tree/pkg/benchutil"
	"github.com/clbarnes/zip-tree/pkg/manifest"
)

// errReader yields a fixed record set, then a terminal error.
type errReader struct {
	records []manifest.Record
	err     error
	pos     int
}

func (r *errReader) Next() (manifest.Record, error) {
	if r.pos >= len(r.records) {
		return manifest.Record{}, r.err
	}
	rec := r.records[r.pos]
	r.pos++
	return rec, nil
}

func (r *errReader) Close() error { return nil }

func TestBuild(t *testing.T) {
	records := []manifest.Record{
		{Path: "photos/2020/img001.jpg", Size: 483920},
		{Path: "photos/2020/img002.jpg", Size: 271828},
		{Path: "docs/report.pdf", Size: 1024},
	}

	var b Builder
	tree, err := b.Build(context.Background(), benchutil.NewSliceReader(records))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if tree.FileCount() != 3 {
		t.Errorf("FileCount() = %d, want 3", tree.FileCount())
	}
	if tree.TotalSize() != 483920+271828+1024 {
		t.Errorf("TotalSize() = %d, want %d", tree.TotalSize(), 483920+271828+1024)
	}
	// photos, photos/2020, 2 images, docs, report.pdf
	if tree.TotalDescendants() != 6 {
		t.Errorf("TotalDescendants() = %d, want 6", tree.TotalDescendants())
	}
	if tree.Aggregated() {
		t.Error("Build should not aggregate the tree")
	}
}

func TestBuild_EmptyManifest(t *testing.T) {
	var b Builder
	tree, err := b.Build(context.Background(), benchutil.NewSliceReader(nil))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if tree.Len() != 1 {
		t.Errorf("Len() = %d, want 1 (root only)", tree.Len())
	}
}

func TestBuild_ReaderErrorAborts(t *testing.T) {
	readErr := errors.New("disk on fire")
	r := &errReader{
		records: []manifest.Record{{Path: "a.txt", Size: 1}},
		err:     readErr,
	}

	var b Builder
	if _, err := b.Build(context.Background(), r); !errors.Is(err, readErr) {
		t.Errorf("Build error = %v, want wrapped %v", err, readErr)
	}
}

func TestBuild_InvalidPathAborts(t *testing.T) {
	records := []manifest.Record{
		{Path: "ok.txt", Size: 1},
		{Path: "/etc/passwd", Size: 1},
	}

	var b Builder
	_, err := b.Build(context.Background(), benchutil.NewSliceReader(records))
	if err == nil {
		t.Fatal("expected error for absolute path")
	}
	if !strings.Contains(err.Error(), "record 2") {
		t.Errorf("expected record number in error, got: %v", err)
	}
}

func TestBuild_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var b Builder
	_, err := b.Build(ctx, benchutil.NewSliceReader([]manifest.Record{{Path: "a", Size: 1}}))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Build error = %v, want context.Canceled", err)
	}
}

func TestBuild_Progress(t *testing.T) {
	records := []manifest.Record{
		{Path: "a.txt", Size: 1},
		{Path: "b.txt", Size: 2},
		{Path: "c/d.txt", Size: 3},
	}

	var total int64
	b := Builder{OnProgress: func(n int64) { total += n }}
	if _, err := b.Build(context.Background(), benchutil.NewSliceReader(records)); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if total != 3 {
		t.Errorf("progress total = %d, want 3", total)
	}
}

func TestBuild_WarnsOnDuplicate(t *testing.T) {
	var buf bytes.Buffer
	ctx := logctx.WithLogger(context.Background(), zerolog.New(&buf))

	records := []manifest.Record{
		{Path: "a/x.txt", Size: 100},
		{Path: "a/x.txt", Size: 50},
	}

	var b Builder
	tree, err := b.Build(ctx, benchutil.NewSliceReader(records))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	if !strings.Contains(buf.String(), "duplicate manifest record") {
		t.Errorf("expected duplicate warning, log output: %s", buf.String())
	}
	if tree.TotalSize() != 50 {
		t.Errorf("TotalSize() = %d, want 50", tree.TotalSize())
	}
}

func TestBuild_WarnsOnDirectoryRecord(t *testing.T) {
	var buf bytes.Buffer
	ctx := logctx.WithLogger(context.Background(), zerolog.New(&buf))

	records := []manifest.Record{
		{Path: "a/b/c.txt", Size: 1},
		{Path: "a/b", Size: 2},
	}

	var b Builder
	if _, err := b.Build(ctx, benchutil.NewSliceReader(records)); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if !strings.Contains(buf.String(), "names a known directory") {
		t.Errorf("expected directory-record warning, log output: %s", buf.String())
	}
}
