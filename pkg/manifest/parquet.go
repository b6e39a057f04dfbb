package manifest

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"
)

// parquetReader reads manifest records from Parquet files.
// It implements streaming by iterating through row groups.
type parquetReader struct {
	file     *parquet.File
	tempFile *os.File // Temp file for buffering (only if created by us)
	pathCol  int
	sizeCol  int

	// Row group iteration state
	rowGroups    []parquet.RowGroup
	currentRGIdx int
	currentRows  parquet.Rows
	rowBuf       []parquet.Row
	bufIdx       int
	bufLen       int
}

// NewParquetReader creates a Parquet manifest reader from an io.ReaderAt,
// typically a local file. Column indices are detected from the schema: the
// path column is named "path" (or "key", so S3 inventory exports can be fed
// in directly) and the size column "size".
func NewParquetReader(r io.ReaderAt, size int64) (Reader, error) {
	file, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, fmt.Errorf("open parquet file: %w", err)
	}

	pathCol, sizeCol, err := detectParquetSchema(file.Schema())
	if err != nil {
		return nil, err
	}

	return newParquetReader(file, nil, pathCol, sizeCol), nil
}

// NewParquetReaderFromStream creates a Parquet manifest reader from a
// non-seekable stream. Parquet requires random access, so the stream is
// buffered to a temp file first; Close removes it.
func NewParquetReaderFromStream(r io.ReadCloser) (Reader, error) {
	tempFile, err := os.CreateTemp("", "zip-tree-manifest-*.parquet")
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("create temp file: %w", err)
	}

	written, err := io.Copy(tempFile, r)
	r.Close()
	if err != nil {
		tempFile.Close()
		os.Remove(tempFile.Name())
		return nil, fmt.Errorf("buffer parquet data: %w", err)
	}

	if _, err := tempFile.Seek(0, io.SeekStart); err != nil {
		tempFile.Close()
		os.Remove(tempFile.Name())
		return nil, fmt.Errorf("seek temp file: %w", err)
	}

	file, err := parquet.OpenFile(tempFile, written)
	if err != nil {
		tempFile.Close()
		os.Remove(tempFile.Name())
		return nil, fmt.Errorf("open parquet file: %w", err)
	}

	pathCol, sizeCol, err := detectParquetSchema(file.Schema())
	if err != nil {
		tempFile.Close()
		os.Remove(tempFile.Name())
		return nil, err
	}

	return newParquetReader(file, tempFile, pathCol, sizeCol), nil
}

// detectParquetSchema finds the path and size column indices.
func detectParquetSchema(schema *parquet.Schema) (pathCol, sizeCol int, err error) {
	pathCol, sizeCol = -1, -1

	for i, field := range schema.Fields() {
		switch field.Name() {
		case "path", "key":
			if pathCol < 0 {
				pathCol = i
			}
		case "size":
			sizeCol = i
		}
	}

	if pathCol < 0 {
		return 0, 0, errors.New("parquet schema missing 'path' (or 'key') column")
	}
	if sizeCol < 0 {
		return 0, 0, errors.New("parquet schema missing 'size' column")
	}
	return pathCol, sizeCol, nil
}

func newParquetReader(file *parquet.File, tempFile *os.File, pathCol, sizeCol int) *parquetReader {
	return &parquetReader{
		file:         file,
		tempFile:     tempFile,
		pathCol:      pathCol,
		sizeCol:      sizeCol,
		rowGroups:    file.RowGroups(),
		currentRGIdx: -1,
		rowBuf:       make([]parquet.Row, 1024), // Buffer 1024 rows at a time
	}
}

// NumRows returns the total record count from the file metadata.
func (r *parquetReader) NumRows() int64 {
	var n int64
	for _, rg := range r.rowGroups {
		n += rg.NumRows()
	}
	return n
}

// Next returns the next record.
func (r *parquetReader) Next() (Record, error) {
	for {
		// Check if we have buffered rows
		if r.bufIdx < r.bufLen {
			row := r.rowBuf[r.bufIdx]
			r.bufIdx++
			return r.rowToRecord(row), nil
		}

		// Need to read more rows
		if r.currentRows != nil {
			n, err := r.currentRows.ReadRows(r.rowBuf)
			if n > 0 {
				r.bufIdx = 0
				r.bufLen = n
				continue // Process buffered rows
			}
			if err != nil && !errors.Is(err, io.EOF) {
				return Record{}, fmt.Errorf("read parquet rows: %w", err)
			}
			// Current row group exhausted
			r.currentRows.Close()
			r.currentRows = nil
		}

		// Move to next row group
		r.currentRGIdx++
		if r.currentRGIdx >= len(r.rowGroups) {
			return Record{}, io.EOF
		}

		r.currentRows = r.rowGroups[r.currentRGIdx].Rows()
	}
}

// rowToRecord converts a parquet.Row to a Record.
func (r *parquetReader) rowToRecord(row parquet.Row) Record {
	var rec Record

	for _, val := range row {
		if val.IsNull() {
			continue
		}
		switch val.Column() {
		case r.pathCol:
			rec.Path = val.String()
		case r.sizeCol:
			rec.Size = val.Uint64()
		}
	}

	return rec
}

// Close releases resources.
func (r *parquetReader) Close() error {
	if r.currentRows != nil {
		r.currentRows.Close()
	}

	// Clean up temp file if we created one
	if r.tempFile != nil {
		name := r.tempFile.Name()
		r.tempFile.Close()
		os.Remove(name)
	}

	return nil
}
