package manifest

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/parquet-go/parquet-go"
)

type manifestRow struct {
	Path string `parquet:"path"`
	Size int64  `parquet:"size"`
}

// inventoryRow mimics an S3 inventory export, which names its path column "key".
type inventoryRow struct {
	Key  string `parquet:"key"`
	Size int64  `parquet:"size"`
}

func TestParquetReader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.parquet")

	rows := []manifestRow{
		{Path: "a/b/c.txt", Size: 100},
		{Path: "d/e.txt", Size: 200},
		{Path: "f/g/h.txt", Size: 300},
	}

	if err := parquet.WriteFile(path, rows); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}

	reader, err := NewParquetReader(f, info.Size())
	if err != nil {
		t.Fatalf("NewParquetReader failed: %v", err)
	}
	defer reader.Close()

	for i, expected := range rows {
		rec, err := reader.Next()
		if err != nil {
			t.Fatalf("Next(%d) failed: %v", i, err)
		}
		if rec.Path != expected.Path {
			t.Errorf("row %d: Path = %q, want %q", i, rec.Path, expected.Path)
		}
		if rec.Size != uint64(expected.Size) {
			t.Errorf("row %d: Size = %d, want %d", i, rec.Size, expected.Size)
		}
	}

	_, err = reader.Next()
	if !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestParquetReader_NumRows(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.parquet")

	rows := []manifestRow{
		{Path: "a.txt", Size: 1},
		{Path: "b.txt", Size: 2},
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()
	info, _ := f.Stat()

	reader, err := NewParquetReader(f, info.Size())
	if err != nil {
		t.Fatalf("NewParquetReader failed: %v", err)
	}
	defer reader.Close()

	rc, ok := reader.(RowCounter)
	if !ok {
		t.Fatal("parquet reader should implement RowCounter")
	}
	if n := rc.NumRows(); n != 2 {
		t.Errorf("NumRows = %d, want 2", n)
	}
}

func TestParquetReaderFromStream(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.parquet")

	rows := []manifestRow{
		{Path: "file1.txt", Size: 100},
		{Path: "file2.txt", Size: 200},
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	reader, err := NewParquetReaderFromStream(io.NopCloser(bytes.NewReader(content)))
	if err != nil {
		t.Fatalf("NewParquetReaderFromStream failed: %v", err)
	}
	defer reader.Close()

	rec, err := reader.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if rec.Path != "file1.txt" || rec.Size != 100 {
		t.Errorf("got %+v, want {Path:file1.txt Size:100}", rec)
	}

	rec, err = reader.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if rec.Path != "file2.txt" || rec.Size != 200 {
		t.Errorf("got %+v, want {Path:file2.txt Size:200}", rec)
	}

	_, err = reader.Next()
	if !errors.Is(err, io.EOF) {
		t.Errorf("expected EOF, got %v", err)
	}
}

func TestParquetReader_KeyColumnAlias(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "inventory.parquet")

	rows := []inventoryRow{
		{Key: "data/2024/01/object.gz", Size: 4096},
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()
	info, _ := f.Stat()

	reader, err := NewParquetReader(f, info.Size())
	if err != nil {
		t.Fatalf("NewParquetReader failed: %v", err)
	}
	defer reader.Close()

	rec, err := reader.Next()
	if err != nil {
		t.Fatalf("Next failed: %v", err)
	}
	if rec.Path != "data/2024/01/object.gz" || rec.Size != 4096 {
		t.Errorf("got %+v, want {Path:data/2024/01/object.gz Size:4096}", rec)
	}
}

func TestParquetReader_MissingColumns(t *testing.T) {
	type wrongRow struct {
		Name  string `parquet:"name"`
		Bytes int64  `parquet:"bytes"`
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "wrong.parquet")

	if err := parquet.WriteFile(path, []wrongRow{{Name: "x", Bytes: 1}}); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer f.Close()
	info, _ := f.Stat()

	if _, err := NewParquetReader(f, info.Size()); err == nil {
		t.Error("expected schema error for missing path/size columns")
	}
}
