package rtreekit

// Transform is the transforming decorator (spec section 4, "Transforming
// decorator"): it wraps a fully-built tree and, once Prepare is called,
// rebuilds every node of its arena into a different Layout, so the node
// layout's effect on search can be measured independently of whichever
// insert strategy built the tree. Insert and Prepare apply to the
// wrapped tree as usual; Search and the read-only operations that follow
// run against the rebuilt parallel tree.
type Transform[T Coordinate] struct {
	inner  Index[T]
	source *Tree[T]
	Layout Layout

	rebuilt *Tree[T]
}

// NewTransform wraps inner, whose backing skeleton is source (every
// insert strategy embeds a *Tree[T] under the field name Tree), targeting
// the given layout.
func NewTransform[T Coordinate](inner Index[T], source *Tree[T], layout Layout) *Transform[T] {
	return &Transform[T]{inner: inner, source: source, Layout: layout}
}

func (tr *Transform[T]) Insert(obj DataObject[T]) {
	tr.inner.Insert(obj)
}

// Prepare runs the wrapped tree's own Prepare, then walks its arena
// bottom-up and rebuilds every node into the target layout, preserving
// height, root MBR and the captured-center plugin state of each node
// (spec section 195: "resource ownership... a second root pointing into a
// parallel tree of alternately-laid-out nodes").
func (tr *Transform[T]) Prepare() {
	tr.inner.Prepare()

	rebuilt := &Tree[T]{
		Dim:            tr.source.Dim,
		Capacity:       tr.source.Capacity,
		Min:            tr.source.Min,
		Layout:         tr.Layout,
		Arena:          &Arena[T]{},
		Height:         tr.source.Height,
		HilbertOrdered: tr.source.HilbertOrdered,
	}

	switch {
	case tr.source.Height == 0:
		// empty tree, nothing to rebuild
	case tr.source.Height == 1:
		rebuilt.Root = tr.source.Root
	default:
		newRootRef := tr.rebuildNode(rebuilt, tr.source.Root.Link.Child())
		rebuilt.Root = Entry[T]{
			MBR:     tr.source.Root.MBR,
			Link:    ChildLink(newRootRef),
			Hilbert: tr.source.Root.Hilbert,
		}
	}

	tr.rebuilt = rebuilt
}

// rebuildNode copies the subtree rooted at ref in the source arena into a
// freshly allocated node of rebuilt's layout, recursing into children
// first so each child's new NodeRef is known before its parent entry is
// written.
func (tr *Transform[T]) rebuildNode(rebuilt *Tree[T], ref NodeRef) NodeRef {
	src := tr.source.Arena.Get(ref)
	newRef := rebuilt.allocateNode(src.IsLeaf())
	dst := rebuilt.Arena.Get(newRef)

	entries := src.Entries()
	if src.IsLeaf() {
		dst.Assign(entries)
	} else {
		copied := make([]Entry[T], len(entries))
		for i, e := range entries {
			copied[i] = Entry[T]{
				MBR:     e.MBR,
				Link:    ChildLink(tr.rebuildNode(rebuilt, e.Link.Child())),
				Hilbert: e.Hilbert,
			}
		}
		dst.Assign(copied)
	}

	dst.SetCapturedCount(src.CapturedCount())
	dst.SetOriginalMBR(src.OriginalMBR())

	return newRef
}

// Search runs against the rebuilt tree; Prepare must have been called
// first, as the Index contract requires of every variant.
func (tr *Transform[T]) Search(query Box[T], results *[]Id) {
	assertf(tr.rebuilt != nil, "transform: Search called before Prepare")
	tr.rebuilt.Search(query, results)
}

// CollectStatistics reports the rebuilt tree's counters, tagged with the
// layout it was rebuilt into, falling back to the wrapped tree's
// statistics if Prepare has not run yet.
func (tr *Transform[T]) CollectStatistics() map[string]int {
	if tr.rebuilt == nil {
		return tr.inner.CollectStatistics()
	}
	stats := tr.rebuilt.CollectStatistics()
	stats["layout"] = int(tr.Layout)
	return stats
}

// CheckStructure reports the wrapped tree's errors first (spec section
// 229), then validates the rebuilt tree as well, since a rebuild that
// corrupts the structure it copied is equally a defect.
func (tr *Transform[T]) CheckStructure() error {
	if err := tr.inner.CheckStructure(); err != nil {
		return err
	}
	if tr.rebuilt == nil {
		return nil
	}
	return tr.rebuilt.CheckStructure()
}
