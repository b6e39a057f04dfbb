// Package partition carves an aggregated path tree into archive roots.
//
// Selection walks the tree top-down and stops splitting at nodes that are
// either small enough to pack whole or too sparse for further splitting to
// pay off. Every node the walk stops at is emitted as one archive root, so
// the emitted subtrees are pairwise disjoint and jointly cover every file
// in the manifest.
package partition

import (
	"context"
	"errors"

	"github.com/clbarnes/zip-tree/pkg/pathtree"
)

// Defaults for the selection thresholds.
const (
	// DefaultMaxArchiveBytes caps one archive at 100 GiB.
	DefaultMaxArchiveBytes uint64 = 100 << 30

	// DefaultMinFilesPerUnit is the descendant-count floor per density
	// unit below which a subtree is packed whole instead of split.
	DefaultMinFilesPerUnit float64 = 100_000

	// DefaultUnitBytes is the density normalization unit, 1 TiB.
	DefaultUnitBytes uint64 = 1 << 40
)

// ErrNotAggregated is returned when the tree has not been frozen with
// Aggregate; selection only reads resolved aggregates.
var ErrNotAggregated = errors.New("tree is not aggregated")

// Config holds the selection thresholds. Zero values mean defaults.
type Config struct {
	// MaxArchiveBytes is the aggregate size ceiling per archive. A subtree
	// strictly smaller than this is emitted whole.
	MaxArchiveBytes uint64

	// MinFilesPerUnit is the density floor: subtrees with fewer
	// descendants per UnitBytes of aggregate size are emitted whole even
	// when oversized, since splitting them would not meaningfully reduce
	// per-archive file overhead.
	MinFilesPerUnit float64

	// UnitBytes is the size unit density is normalized to.
	UnitBytes uint64

	// OnProgress, if non-nil, is invoked per visited node with the number
	// of nodes accounted for since the previous call: 1 for a node whose
	// children will be walked, 1 plus the subtree descendant count when
	// the subtree is pruned. Progress reporting only.
	OnProgress func(n int64)
}

// DefaultConfig returns the default selection thresholds.
func DefaultConfig() Config {
	return Config{
		MaxArchiveBytes: DefaultMaxArchiveBytes,
		MinFilesPerUnit: DefaultMinFilesPerUnit,
		UnitBytes:       DefaultUnitBytes,
	}
}

func (c *Config) applyDefaults() {
	if c.MaxArchiveBytes == 0 {
		c.MaxArchiveBytes = DefaultMaxArchiveBytes
	}
	if c.MinFilesPerUnit <= 0 {
		c.MinFilesPerUnit = DefaultMinFilesPerUnit
	}
	if c.UnitBytes == 0 {
		c.UnitBytes = DefaultUnitBytes
	}
}

// Result is the selected partition plus its summary statistics.
type Result struct {
	// Roots are the archive-root paths in deterministic preorder: depth
	// first from the tree root, siblings ascending.
	Roots []string

	// ArchivedFiles is the summed descendant count of the emitted roots:
	// the number of tree entries that disappear into an archive, not
	// counting the roots themselves.
	ArchivedFiles uint64

	// Archives is the number of emitted roots.
	Archives uint64

	// ArchivedBytes is the summed aggregate size of the emitted roots.
	ArchivedBytes uint64

	// ResidualDensity projects the tree's entries-per-byte ratio after
	// each archived subtree is replaced by a single archive file,
	// assuming no compression. Zero for an empty (zero byte) tree.
	// Multiply by the configured unit for an entries-per-unit figure.
	ResidualDensity float64
}

// Select walks the aggregated tree and returns the archive roots.
//
// The walk is preorder over an explicit LIFO stack. Children were sorted
// ascending by the aggregation pass and are pushed in reverse, so popping
// visits them in ascending path order; output order is therefore stable
// across runs, which archive naming and auditing rely on.
//
// Decision per node, on its frozen (size, descendants) pair:
//
//   - size strictly below MaxArchiveBytes: emit the node and prune.
//   - otherwise, if descendants per UnitBytes of size is below
//     MinFilesPerUnit: emit the node and prune. This keeps an oversized
//     but sparse subtree in one archive rather than splitting forever,
//     and is what finally emits oversized leaves, which have nothing
//     below them to split into.
//   - otherwise: descend into the children looking for a cut lower down.
//
// A zero-size subtree never reaches the density division: it is already
// emitted by the size branch, and the division is guarded regardless.
func Select(ctx context.Context, tree *pathtree.Tree, cfg Config) (*Result, error) {
	if !tree.Aggregated() {
		return nil, ErrNotAggregated
	}
	cfg.applyDefaults()

	res := &Result{}
	stack := make([]pathtree.NodeID, 0, 64)
	stack = append(stack, pathtree.RootID)

	for len(stack) > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := tree.At(id)

		emit := n.Size < cfg.MaxArchiveBytes
		if !emit && n.Size > 0 {
			density := float64(n.Descendants) / (float64(n.Size) / float64(cfg.UnitBytes))
			emit = density < cfg.MinFilesPerUnit
		}

		if emit {
			res.Roots = append(res.Roots, n.Path)
			res.ArchivedFiles += n.Descendants
			res.Archives++
			res.ArchivedBytes += n.Size
			if cfg.OnProgress != nil {
				cfg.OnProgress(1 + int64(n.Descendants))
			}
			continue
		}

		// Push descending so LIFO pops ascending.
		for i := len(n.Children) - 1; i >= 0; i-- {
			stack = append(stack, n.Children[i])
		}
		if cfg.OnProgress != nil {
			cfg.OnProgress(1)
		}
	}

	if total := tree.TotalSize(); total > 0 {
		remaining := float64(tree.TotalDescendants()) - float64(res.ArchivedFiles) + float64(res.Archives)
		res.ResidualDensity = remaining / float64(total)
	}

	return res, nil
}
