// Package pathtree reconstructs the directory tree implied by a manifest of
// (path, size) records.
//
// Nodes live in a single append-only arena indexed by NodeID; a path map
// resolves manifest paths to ids and parent/child edges are integer adjacency
// lists, materialized once at insertion. Aggregation is a separate freeze
// pass: after Aggregate returns, every node carries its subtree byte total
// and descendant count and the tree is read-only.
package pathtree

import (
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
)

// NodeID indexes a node in the tree arena.
type NodeID int32

// RootID is the arena index of the root sentinel, present in every tree.
const RootID NodeID = 0

// RootPath is the path key of the root sentinel: the manifest's common
// ancestor, the current directory.
const RootPath = "."

// ErrFrozen is returned by AddLeaf once Aggregate has run.
var ErrFrozen = errors.New("tree already aggregated")

// Node is one entry in the tree arena: a file or directory keyed by its
// slash-separated path relative to the manifest root.
//
// Size and Descendants change meaning when the tree is aggregated. Before:
// Size is the node's own byte size (0 for directories inferred from leaf
// ancestry) and Descendants is 0. After: Size is the subtree byte total
// (own size plus all files below) and Descendants counts every file and
// directory strictly below the node.
type Node struct {
	Path     string
	Parent   NodeID // -1 for the root sentinel
	Children []NodeID

	Size        uint64
	Descendants uint64

	// IsFile marks nodes named by a manifest record, as opposed to
	// directories created only as ancestors.
	IsFile bool
}

// AddOutcome describes what AddLeaf did with a record.
type AddOutcome int

const (
	// OutcomeAdded is the normal case: a new leaf node was created.
	OutcomeAdded AddOutcome = iota

	// OutcomeDuplicate means the path was already present as a file; its
	// size was overwritten with the new record's.
	OutcomeDuplicate

	// OutcomeDirFile means the path was already present as an inferred
	// directory; the record's size was attached as the directory's own
	// bytes, kept alongside its children's totals.
	OutcomeDirFile
)

// Tree is the arena of nodes plus running build totals.
// Build with AddLeaf (usually through Builder), then freeze with Aggregate.
// Not safe for concurrent use; the expected life cycle is one writer during
// the build phase, then any number of readers.
type Tree struct {
	nodes  []Node
	byPath map[string]NodeID

	totalSize  uint64
	files      int64
	aggregated bool
}

// New creates an empty tree holding only the root sentinel.
func New() *Tree {
	t := &Tree{byPath: make(map[string]NodeID, 1024)}
	t.newNode(RootPath, 0, false)
	t.nodes[RootID].Parent = -1
	return t
}

// AddLeaf inserts one manifest record, creating any missing ancestor
// directories on the way to the root. The ancestor walk stops at the first
// ancestor that already exists: by induction everything above it is already
// linked, so total edge work across a build is bounded by the number of
// distinct nodes rather than records times path depth.
func (t *Tree) AddLeaf(p string, size uint64) (AddOutcome, error) {
	if t.aggregated {
		return 0, ErrFrozen
	}

	clean, err := normalizePath(p)
	if err != nil {
		return 0, err
	}

	if id, ok := t.byPath[clean]; ok {
		n := &t.nodes[id]
		if n.IsFile {
			t.totalSize -= n.Size
			t.totalSize += size
			n.Size = size
			return OutcomeDuplicate, nil
		}
		n.Size = size
		n.IsFile = true
		t.files++
		t.totalSize += size
		return OutcomeDirFile, nil
	}

	child := t.newNode(clean, size, true)
	t.files++
	t.totalSize += size

	for {
		parentPath := path.Dir(t.nodes[child].Path)
		if pid, ok := t.byPath[parentPath]; ok {
			t.link(pid, child)
			return OutcomeAdded, nil
		}
		pid := t.newNode(parentPath, 0, false)
		t.link(pid, child)
		child = pid
	}
}

// Aggregate computes subtree byte totals and descendant counts for every
// node and sorts each node's children into ascending path order, the
// canonical sibling order for traversal. The pass is a post-order walk over
// an explicit stack, so path depth is limited by memory, not by the call
// stack. Idempotent; after the first call the tree is frozen.
func (t *Tree) Aggregate() {
	if t.aggregated {
		return
	}

	for i := range t.nodes {
		children := t.nodes[i].Children
		sort.Slice(children, func(a, b int) bool {
			return t.nodes[children[a]].Path < t.nodes[children[b]].Path
		})
	}

	type frame struct {
		id   NodeID
		next int // index of the next child to descend into
	}
	stack := make([]frame, 0, 64)
	stack = append(stack, frame{id: RootID})

	for len(stack) > 0 {
		f := &stack[len(stack)-1]
		n := &t.nodes[f.id]
		if f.next < len(n.Children) {
			child := n.Children[f.next]
			f.next++
			stack = append(stack, frame{id: child})
			continue
		}

		// All children resolved; fold them into this node.
		for _, c := range n.Children {
			cn := &t.nodes[c]
			n.Size += cn.Size
			n.Descendants += 1 + cn.Descendants
		}
		stack = stack[:len(stack)-1]
	}

	t.aggregated = true
}

// Aggregated reports whether Aggregate has run.
func (t *Tree) Aggregated() bool {
	return t.aggregated
}

// At returns the node with the given id. The pointer stays valid for the
// tree's lifetime; mutating through it after Aggregate is undefined.
func (t *Tree) At(id NodeID) *Node {
	return &t.nodes[id]
}

// Lookup resolves a normalized path to its node id.
func (t *Tree) Lookup(p string) (NodeID, bool) {
	id, ok := t.byPath[p]
	return id, ok
}

// Len returns the number of nodes, root sentinel included.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// TotalSize is the sum of all record sizes, independent of aggregation.
func (t *Tree) TotalSize() uint64 {
	return t.totalSize
}

// TotalDescendants counts every node except the root sentinel.
func (t *Tree) TotalDescendants() uint64 {
	return uint64(len(t.nodes) - 1)
}

// FileCount returns the number of distinct file nodes.
func (t *Tree) FileCount() int64 {
	return t.files
}

func (t *Tree) newNode(p string, size uint64, isFile bool) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, Node{Path: p, Parent: -1, Size: size, IsFile: isFile})
	t.byPath[p] = id
	return id
}

func (t *Tree) link(parent, child NodeID) {
	t.nodes[parent].Children = append(t.nodes[parent].Children, child)
	t.nodes[child].Parent = parent
}

// normalizePath slash-cleans a manifest path and rejects anything that
// cannot live under the tree root. Paths strictly shorten toward the root
// after cleaning, which is what makes the ancestor walk terminate.
func normalizePath(p string) (string, error) {
	clean := path.Clean(p)
	switch {
	case clean == "" || clean == ".":
		return "", fmt.Errorf("path %q does not name a file", p)
	case strings.HasPrefix(clean, "/"):
		return "", fmt.Errorf("absolute path %q not supported", p)
	case clean == ".." || strings.HasPrefix(clean, "../"):
		return "", fmt.Errorf("path %q escapes the manifest root", p)
	}
	return clean, nil
}
