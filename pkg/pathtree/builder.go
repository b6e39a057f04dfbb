package pathtree

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/clbarnes/zip-tree/internal/logctx"
	"github.com/clbarnes/zip-tree/pkg/manifest"
)

// Builder streams manifest records into a Tree.
//
// The manifest is consumed in a single forward pass, so pipes and other
// unrewindable sources work. Any record-level error aborts the whole build:
// a tree missing records would silently undercount every aggregate above
// them, which is worse than no plan at all.
type Builder struct {
	// OnProgress, if non-nil, is invoked after each record with the number
	// of records consumed since the previous call (currently always 1).
	// Progress reporting only; it has no effect on the resulting tree.
	OnProgress func(n int64)
}

// Build consumes the reader until EOF and returns the populated, not yet
// aggregated tree. Warnings about suspicious records (duplicates, records
// naming known directories) go to the context logger.
func (b *Builder) Build(ctx context.Context, r manifest.Reader) (*Tree, error) {
	log := logctx.FromContext(ctx)
	tree := New()

	var records int64
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		rec, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read manifest: %w", err)
		}
		records++

		outcome, err := tree.AddLeaf(rec.Path, rec.Size)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", records, err)
		}
		switch outcome {
		case OutcomeDuplicate:
			log.Warn().
				Str("path", rec.Path).
				Uint64("size", rec.Size).
				Msg("duplicate manifest record, keeping the last size")
		case OutcomeDirFile:
			log.Warn().
				Str("path", rec.Path).
				Uint64("size", rec.Size).
				Msg("record names a known directory, treating size as its own bytes")
		}

		if b.OnProgress != nil {
			b.OnProgress(1)
		}
	}

	return tree, nil
}
