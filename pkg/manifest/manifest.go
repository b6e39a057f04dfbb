// Package manifest provides readers for archive-planning manifests.
//
// A manifest is a flat listing of (path, byte-size) records. The native
// format is tab-separated text: one record per line, the last tab-separated
// field holding the decimal byte size and everything before it the path
// (paths may themselves contain tabs). Parquet manifests with path/size
// columns are also supported.
package manifest

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Record represents a single file from a manifest.
type Record struct {
	// Path is the slash-separated file path, relative to the manifest root.
	Path string

	// Size is the file size in bytes.
	Size uint64
}

// Reader is the unified interface for reading manifest records.
// Implementations exist for tab-separated text and Parquet formats.
type Reader interface {
	// Next returns the next record.
	// Returns io.EOF when all records have been read.
	Next() (Record, error)

	// Close releases resources associated with the reader.
	Close() error
}

// RowCounter is implemented by readers that know their record count up
// front (Parquet). The count is advisory, for progress estimation only.
type RowCounter interface {
	NumRows() int64
}

// Format identifies a manifest encoding.
type Format int

const (
	FormatTSV Format = iota
	FormatParquet
)

// DetectFormat guesses the manifest format from a file name or object key.
// Anything that is not Parquet is treated as tab-separated text (possibly
// gzip-compressed).
func DetectFormat(name string) Format {
	if strings.HasSuffix(strings.ToLower(name), ".parquet") {
		return FormatParquet
	}
	return FormatTSV
}

// Scanner sizing for text manifests. Paths can be long, but a megabyte line
// means the input is not a manifest.
const (
	scanBufSize = 64 * 1024
	maxLineSize = 1024 * 1024
)

// tsvReader reads tab-separated manifest records from a text stream.
type tsvReader struct {
	scanner *bufio.Scanner
	line    int64
	closers []io.Closer
}

// NewTSVReader creates a manifest reader over raw tab-separated text.
// The stream should already be decompressed; use NewTSVReaderFromStream for
// automatic gzip handling.
func NewTSVReader(r io.Reader) Reader {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, scanBufSize), maxLineSize)
	return &tsvReader{scanner: sc}
}

// NewTSVReaderFromStream creates a manifest reader from a stream, wrapping it
// in gzip decompression when the source name ends in .gz.
func NewTSVReaderFromStream(r io.ReadCloser, name string) (Reader, error) {
	var reader io.Reader = r
	closers := []io.Closer{r}

	if strings.HasSuffix(strings.ToLower(name), ".gz") {
		gzr, err := gzip.NewReader(r)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("create gzip reader: %w", err)
		}
		closers = append(closers, gzr)
		reader = gzr
	}

	sc := bufio.NewScanner(reader)
	sc.Buffer(make([]byte, scanBufSize), maxLineSize)
	return &tsvReader{scanner: sc, closers: closers}, nil
}

// Next returns the next record. A line that cannot be parsed is a fatal
// error carrying the line number; an undercounted plan is worse than no
// plan. Fully empty lines carry no record and are skipped.
func (r *tsvReader) Next() (Record, error) {
	for r.scanner.Scan() {
		r.line++
		line := strings.TrimSuffix(r.scanner.Text(), "\r")
		if line == "" {
			continue
		}

		tab := strings.LastIndexByte(line, '\t')
		if tab < 0 {
			return Record{}, fmt.Errorf("line %d: no size field (expected <path>\\t<bytes>)", r.line)
		}

		path := line[:tab]
		if path == "" {
			return Record{}, fmt.Errorf("line %d: empty path", r.line)
		}

		sizeStr := strings.TrimSpace(line[tab+1:])
		size, err := strconv.ParseUint(sizeStr, 10, 64)
		if err != nil {
			return Record{}, fmt.Errorf("line %d: invalid size %q", r.line, sizeStr)
		}

		return Record{Path: path, Size: size}, nil
	}

	if err := r.scanner.Err(); err != nil {
		return Record{}, fmt.Errorf("read manifest line %d: %w", r.line+1, err)
	}
	return Record{}, io.EOF
}

// Close releases resources.
func (r *tsvReader) Close() error {
	var firstErr error
	// Close in reverse order (gzip reader before underlying stream)
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// CountLines counts newline bytes in the file at path. Used to derive an
// advisory record total for progress reporting on plain text manifests.
func CountLines(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("count lines: %w", err)
	}
	defer f.Close()

	buf := make([]byte, 256*1024)
	var lines int64
	for {
		n, err := f.Read(buf)
		lines += int64(bytes.Count(buf[:n], []byte{'\n'}))
		if err == io.EOF {
			return lines, nil
		}
		if err != nil {
			return 0, fmt.Errorf("count lines: %w", err)
		}
	}
}
