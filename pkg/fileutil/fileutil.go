// Package fileutil provides stdin/stdout plumbing and tmp+mv output writes.
package fileutil

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// IsStdio reports whether a CLI path argument selects standard input/output:
// the empty string or "-".
func IsStdio(arg string) bool {
	return arg == "" || arg == "-"
}

// Exists returns true if the file exists.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// OpenInput opens a path argument for reading, mapping stdio arguments to
// os.Stdin. The returned Close is a no-op for stdin.
func OpenInput(arg string) (io.ReadCloser, error) {
	if IsStdio(arg) {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(arg)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

// SameFile reports whether two path arguments name the same file. Stdio
// arguments never collide. Paths that do not exist yet are compared by
// absolute name, so an output about to be created still matches its input.
func SameFile(a, b string) bool {
	if IsStdio(a) || IsStdio(b) {
		return false
	}
	ia, errA := os.Stat(a)
	ib, errB := os.Stat(b)
	if errA == nil && errB == nil {
		return os.SameFile(ia, ib)
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

// EnsureParentDir creates the directory an output file will land in. Called
// before expensive work so an unwritable destination fails up front.
func EnsureParentDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	return nil
}

// WriteLines writes one line per entry to a path argument. Stdio arguments
// stream to os.Stdout; real paths are written via WriteTmpThenMove so the
// destination is never left half-written.
func WriteLines(arg string, lines []string) error {
	if IsStdio(arg) {
		w := bufio.NewWriter(os.Stdout)
		if err := writeLines(w, lines); err != nil {
			return fmt.Errorf("write stdout: %w", err)
		}
		return w.Flush()
	}
	return WriteTmpThenMove(filepath.Dir(arg), arg, func(tmpPath string) error {
		f, err := os.Create(tmpPath)
		if err != nil {
			return err
		}
		w := bufio.NewWriter(f)
		if err := writeLines(w, lines); err != nil {
			f.Close()
			return err
		}
		if err := w.Flush(); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	})
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// WriteTmpThenMove writes to a temporary file then atomically moves it to the final path.
// The writeFunc receives the temporary path and should write the complete file.
// On success, the file is moved to outPath atomically.
func WriteTmpThenMove(tmpDir, outPath string, writeFunc func(tmpPath string) error) error {
	// Ensure tmp directory exists
	if err := os.MkdirAll(tmpDir, 0755); err != nil {
		return fmt.Errorf("create tmp dir: %w", err)
	}

	// Create temp file path
	tmpPath := filepath.Join(tmpDir, filepath.Base(outPath)+".tmp")

	// Write to temp file
	if err := writeFunc(tmpPath); err != nil {
		os.Remove(tmpPath) // Clean up on error
		return err
	}

	// Fsync the temp file
	if err := syncFile(tmpPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}

	// Ensure output directory exists
	outDir := filepath.Dir(outPath)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("create output dir: %w", err)
	}

	// Atomic move
	if err := os.Rename(tmpPath, outPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp to final: %w", err)
	}

	return nil
}

// syncFile opens, syncs, and closes a file.
func syncFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	err = f.Sync()
	f.Close()
	return err
}
