package rtreekit

// ScanIterator yields the links of a node's entries matching a scan query,
// in the node's internal order. Spec section 4.3 describes scan as
// returning an iterator rather than a materialized collection; all three
// layouts build the match list eagerly (cheap relative to the intersection
// tests themselves) and hand it out through this small pull iterator so
// callers - notably Tree's depth-first range search - never have to care
// which layout produced it.
type ScanIterator[T Coordinate] struct {
	links []Link
	pos   int
}

// Next advances the iterator and returns the next matching link, or
// (Link{}, false) once exhausted.
func (it *ScanIterator[T]) Next() (Link, bool) {
	if it.pos >= len(it.links) {
		return Link{}, false
	}
	l := it.links[it.pos]
	it.pos++
	return l, true
}

// Node is the interchangeable storage contract shared by the default,
// pointer-array and vectorized layouts (spec section 4.3). Reading an entry
// returns a value; writing takes one and stores it - the teacher's
// proxy-reference trick is a C++-only artefact (spec design notes) and has
// no idiomatic Go equivalent worth chasing.
type Node[T Coordinate] interface {
	Size() int
	Capacity() int
	IsFull() bool
	IsLeaf() bool
	SetLeaf(leaf bool)
	Add(e Entry[T])
	Get(i int) Entry[T]
	Set(i int, e Entry[T])
	// Assign replaces all entries in the node with the given slice, which
	// must not exceed capacity.
	Assign(entries []Entry[T])
	Reset()
	// Entries returns all entries in node order. Callers must not mutate
	// the returned slice.
	Entries() []Entry[T]
	Scan(query Mbr[T]) *ScanIterator[T]
	// CapturedCount and SetCapturedCount hold the RR*-tree's "captured
	// center" plugin state (spec section 3): how many of the node's
	// current entries defined its original MBR at construction time.
	CapturedCount() int
	SetCapturedCount(n int)
	// OriginalMBR and SetOriginalMBR hold the MBR the node was given when
	// it was last (re)built by a split, frozen until the next split - the
	// weighting function's reference point for how far the node has since
	// drifted. Every layout stores it as a plain field; only the RR*-tree
	// reads it.
	OriginalMBR() Mbr[T]
	SetOriginalMBR(m Mbr[T])
}

// Layout identifies one of the three node storage strategies a Tree can be
// built with.
type Layout int

const (
	// DefaultLayout stores entries as an array of (MBR, link) structs.
	DefaultLayout Layout = iota
	// PointerArrayLayout stores MBRs and links in separate parallel
	// arrays so MBR-only scans never touch link storage.
	PointerArrayLayout
	// VectorLayout stores MBRs column-major in 4-wide blocks per
	// dimension, enabling batched comparisons during scan.
	VectorLayout
)

// NewNode allocates an empty node of the given layout, capacity and
// minimum fill.
func NewNode[T Coordinate](layout Layout, capacity, min int) Node[T] {
	switch layout {
	case PointerArrayLayout:
		return newPointerArrayNode[T](capacity, min)
	case VectorLayout:
		return newVectorNode[T](capacity, min)
	default:
		return newDefaultNode[T](capacity, min)
	}
}

// Arena is an append-only collection of node allocations. Nodes never move
// once allocated, so NodeRef values returned by Alloc remain valid for the
// tree's lifetime - this is what lets insert cache entry references along
// the descent path (spec section 5).
type Arena[T Coordinate] struct {
	nodes []Node[T]
}

// Alloc appends n to the arena and returns its stable reference.
func (a *Arena[T]) Alloc(n Node[T]) NodeRef {
	a.nodes = append(a.nodes, n)
	return NodeRef(len(a.nodes) - 1)
}

// Get returns the node at ref.
func (a *Arena[T]) Get(ref NodeRef) Node[T] {
	return a.nodes[ref]
}

// Len returns the number of nodes ever allocated in this arena.
func (a *Arena[T]) Len() int {
	return len(a.nodes)
}
