package rtreekit

import "sort"

// HilbertTree implements the Hilbert R-tree (spec section 4.10): leaves and
// internal nodes keep their entries sorted by Hilbert value, descent always
// follows the first child whose largest Hilbert value covers the new
// entry, and an overflowing leaf first tries to borrow space from a nearby
// sibling before a new node is allocated.
type HilbertTree[T Coordinate] struct {
	*Tree[T]

	Curve *HilbertCurve[T]
	// SiblingWindow is s, the number of contiguous siblings considered for
	// cooperative redistribution before a new node is allocated (spec
	// section 4.10). Typical value 2.
	SiblingWindow int
}

// NewHilbertTree builds an empty Hilbert R-tree. bounds and bits configure
// the curve used to derive each object's Hilbert value from its box
// center.
func NewHilbertTree[T Coordinate](dim, capacity, min int, layout Layout, bounds Mbr[T], bits uint32) (*HilbertTree[T], error) {
	t, err := newTree[T](dim, capacity, min, layout)
	if err != nil {
		return nil, err
	}
	t.HilbertOrdered = true

	curve, err := NewHilbertCurve[T](bounds, bits)
	if err != nil {
		return nil, err
	}

	return &HilbertTree[T]{Tree: t, Curve: curve, SiblingWindow: 2}, nil
}

func (ht *HilbertTree[T]) Prepare() {}

func (ht *HilbertTree[T]) Insert(obj DataObject[T]) {
	e := newObjectEntry(obj)
	e.Hilbert = ht.Curve.Encode(NewMbr(obj.Box).Center())

	if ht.Height == 0 {
		ht.Root = e
		ht.Height = 1
		return
	}
	if ht.Height == 1 {
		ht.promoteSortedRoot(e)
		return
	}

	curRef := ht.Root.Link.Child()
	elevation := ht.Height - 1
	var path []descentStep

	for elevation > 1 {
		cur := ht.Arena.Get(curRef)
		idx := hilbertChooseChild(cur, e.Hilbert)
		path = append(path, descentStep{nodeRef: curRef, entryIdx: idx})
		curRef = cur.Get(idx).Link.Child()
		elevation--
	}

	leaf := ht.Arena.Get(curRef)
	if !leaf.IsFull() {
		hilbertInsertSorted(leaf, e)
		hilbertPropagateUp(ht.Tree, path, Entry[T]{}, false)
		return
	}

	ht.handleOverflow(curRef, e, path)
}

// promoteSortedRoot is the Hilbert-aware analog of promoteToTwoChildRoot:
// the tree had a single object at its root, so build a two-entry leaf
// keeping both entries in Hilbert order.
func (ht *HilbertTree[T]) promoteSortedRoot(e Entry[T]) {
	leafRef := ht.allocateNode(true)
	leaf := ht.Arena.Get(leafRef)
	hilbertInsertSorted(leaf, ht.Root)
	hilbertInsertSorted(leaf, e)
	mbr, lhv := recomputeChildSummary[T](leaf)
	ht.Root = Entry[T]{MBR: mbr, Link: ChildLink(leafRef), Hilbert: lhv}
	ht.Height = 2
}

// handleOverflow implements spec section 4.10 steps 3-5. path's last entry
// locates the overflowing node's parent and its index there; path is empty
// only when the overflowing node is the tree's sole (root) node, which has
// no siblings to borrow from.
func (ht *HilbertTree[T]) handleOverflow(leafRef NodeRef, e Entry[T], path []descentStep) {
	if len(path) == 0 {
		ht.splitAtRoot(leafRef, e)
		return
	}

	parentStep := path[len(path)-1]
	parent := ht.Arena.Get(parentStep.nodeRef)
	targetIdx := parentStep.entryIdx

	start, end := siblingWindow(parent.Size(), targetIdx, ht.SiblingWindow)

	donorIdx := -1
	bestDist := 0
	for i := start; i < end; i++ {
		if i == targetIdx {
			continue
		}
		siblingRef := parent.Get(i).Link.Child()
		if ht.Arena.Get(siblingRef).IsFull() {
			continue
		}
		dist := i - targetIdx
		if dist < 0 {
			dist = -dist
		}
		if donorIdx == -1 || dist < bestDist {
			donorIdx = i
			bestDist = dist
		}
	}

	if donorIdx != -1 {
		targetNode := ht.Arena.Get(parent.Get(targetIdx).Link.Child())
		donorNode := ht.Arena.Get(parent.Get(donorIdx).Link.Child())

		merged := append([]Entry[T]{}, targetNode.Entries()...)
		merged = append(merged, donorNode.Entries()...)
		merged = append(merged, e)

		groups := redistributeEvenlyAcross(merged, 2)

		// The lower-Hilbert group must land on whichever of the two nodes
		// sits at the lower parent index, independent of which one is the
		// "target" versus the "donor", or the parent's entries stop being
		// sorted by Hilbert value.
		lowNode, highNode := targetNode, donorNode
		if donorIdx < targetIdx {
			lowNode, highNode = donorNode, targetNode
		}
		lowNode.Assign(groups[0])
		highNode.Assign(groups[1])

		ht.refreshParentEntry(parent, targetIdx)
		ht.refreshParentEntry(parent, donorIdx)

		hilbertPropagateUp(ht.Tree, path[:len(path)-1], Entry[T]{}, false)
		return
	}

	// No sibling in the window has room: allocate a new node, fold it into
	// the window, and redistribute everyone in the window evenly.
	refs := make([]NodeRef, end-start)
	for i := start; i < end; i++ {
		refs[i-start] = parent.Get(i).Link.Child()
	}

	leafNode := ht.Arena.Get(leafRef)
	newRef := ht.allocateNode(leafNode.IsLeaf())

	var all []Entry[T]
	for _, ref := range refs {
		all = append(all, ht.Arena.Get(ref).Entries()...)
	}
	all = append(all, e)

	groups := redistributeEvenlyAcross(all, len(refs)+1)
	for i, ref := range refs {
		ht.Arena.Get(ref).Assign(groups[i])
	}
	ht.Arena.Get(newRef).Assign(groups[len(refs)])

	for i := start; i < end; i++ {
		ht.refreshParentEntry(parent, i)
	}

	newMBR, newLHV := recomputeChildSummary[T](ht.Arena.Get(newRef))
	newEntry := Entry[T]{MBR: newMBR, Link: ChildLink(newRef), Hilbert: newLHV}

	if !parent.IsFull() {
		hilbertInsertSorted(parent, newEntry)
		hilbertPropagateUp(ht.Tree, path[:len(path)-1], Entry[T]{}, false)
		return
	}

	promoted := hilbertSplitAndPromote(ht.Tree, parentStep.nodeRef, parent, newEntry, false)
	hilbertPropagateUp(ht.Tree, path[:len(path)-1], promoted, true)
}

// splitAtRoot handles overflow of the tree's single node (height 2): there
// is no parent to borrow a sibling from, so it always splits, forming a
// new two-child root.
func (ht *HilbertTree[T]) splitAtRoot(leafRef NodeRef, e Entry[T]) {
	leaf := ht.Arena.Get(leafRef)
	promoted := hilbertSplitAndPromote(ht.Tree, leafRef, leaf, e, true)

	oldMBR, oldLHV := recomputeChildSummary[T](leaf)
	oldEntry := Entry[T]{MBR: oldMBR, Link: ht.Root.Link, Hilbert: oldLHV}

	newRootRef := ht.allocateNode(false)
	newRootNode := ht.Arena.Get(newRootRef)
	hilbertInsertSorted(newRootNode, oldEntry)
	hilbertInsertSorted(newRootNode, promoted)

	ht.addLevel(Entry[T]{
		MBR:     oldEntry.MBR.Union(promoted.MBR),
		Link:    ChildLink(newRootRef),
		Hilbert: maxU64(oldEntry.Hilbert, promoted.Hilbert),
	})
}

func (ht *HilbertTree[T]) refreshParentEntry(parent Node[T], idx int) {
	e := parent.Get(idx)
	mbr, lhv := recomputeChildSummary[T](ht.Arena.Get(e.Link.Child()))
	e.MBR, e.Hilbert = mbr, lhv
	parent.Set(idx, e)
}

// siblingWindow picks a window of up to s contiguous indices into a parent
// of the given size, centered on target and shifted to stay in bounds
// rather than shrunk at the edges (spec section 4.10, step 3).
func siblingWindow(total, target, s int) (start, end int) {
	if s > total {
		s = total
	}
	start = target - s/2
	if start < 0 {
		start = 0
	}
	end = start + s
	if end > total {
		end = total
		start = end - s
		if start < 0 {
			start = 0
		}
	}
	return start, end
}

// hilbertChooseChild returns the index of the first child whose Hilbert
// value (its subtree's largest, for non-leaf entries) is at least hv,
// falling back to the last child (spec section 4.10, step 2).
func hilbertChooseChild[T Coordinate](node Node[T], hv uint64) int {
	n := node.Size()
	for i := 0; i < n; i++ {
		if node.Get(i).Hilbert >= hv {
			return i
		}
	}
	return n - 1
}

// hilbertInsertSorted inserts e into node keeping entries ordered by
// ascending Hilbert value, mirroring the binary-search insertion teacher
// code used for its own entry lists.
func hilbertInsertSorted[T Coordinate](node Node[T], e Entry[T]) {
	entries := append([]Entry[T]{}, node.Entries()...)
	i := sort.Search(len(entries), func(i int) bool { return entries[i].Hilbert > e.Hilbert })
	entries = append(entries, Entry[T]{})
	copy(entries[i+1:], entries[i:])
	entries[i] = e
	node.Assign(entries)
}

// redistributeEvenlyAcross sorts all by Hilbert value and divides it into
// groups equal parts, with any remainder assigned to the first group (spec
// section 4.10, step 5).
func redistributeEvenlyAcross[T Coordinate](all []Entry[T], groups int) [][]Entry[T] {
	sorted := append([]Entry[T]{}, all...)
	sortByHilbertAsc(sorted)

	n := len(sorted)
	base := n / groups
	extra := n % groups

	result := make([][]Entry[T], groups)
	idx := 0
	for g := 0; g < groups; g++ {
		size := base
		if g == 0 {
			size += extra
		}
		result[g] = sorted[idx : idx+size]
		idx += size
	}
	return result
}

func sortByHilbertAsc[T Coordinate](entries []Entry[T]) {
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Hilbert < entries[j].Hilbert })
}

// hilbertRedistribute is the two-group case of redistributeEvenlyAcross,
// shaped as a redistributeFunc so ancestor splits above the leaf's
// immediate sibling-cooperation range can go through splitNode.
func hilbertRedistribute[T Coordinate](t *Tree[T], node Node[T], all []Entry[T], isLeaf bool) ([]Entry[T], []Entry[T]) {
	groups := redistributeEvenlyAcross(all, 2)
	return groups[0], groups[1]
}

// hilbertSplitAndPromote splits node via splitNode and fixes up the
// promoted entry's Hilbert value, which splitNode - generic over all
// insert strategies - does not compute.
func hilbertSplitAndPromote[T Coordinate](t *Tree[T], ref NodeRef, node Node[T], e Entry[T], isLeaf bool) Entry[T] {
	promoted := splitNode(t, ref, node, e, isLeaf, hilbertRedistribute[T])
	mbr, lhv := recomputeChildSummary[T](t.Arena.Get(promoted.Link.Child()))
	promoted.MBR, promoted.Hilbert = mbr, lhv
	return promoted
}

// recomputeChildSummary returns a node's current MBR and largest Hilbert
// value (its LHV, in the original paper's terms).
func recomputeChildSummary[T Coordinate](node Node[T]) (Mbr[T], uint64) {
	entries := node.Entries()
	mbr := unionOfEntries(entries)
	var lhv uint64
	for _, e := range entries {
		if e.Hilbert > lhv {
			lhv = e.Hilbert
		}
	}
	return mbr, lhv
}

// hilbertPropagateUp is hilbertRedistribute's counterpart to
// propagateUp: it additionally keeps each ancestor entry's Hilbert field
// (its subtree's LHV) in sync, and inserts promoted entries in sorted
// position rather than appending.
func hilbertPropagateUp[T Coordinate](t *Tree[T], path []descentStep, promoted Entry[T], haveSplit bool) {
	for i := len(path) - 1; i >= 0; i-- {
		parentRef := path[i].nodeRef
		parent := t.Arena.Get(parentRef)
		idx := path[i].entryIdx

		childEntry := parent.Get(idx)
		mbr, lhv := recomputeChildSummary[T](t.Arena.Get(childEntry.Link.Child()))
		childEntry.MBR, childEntry.Hilbert = mbr, lhv
		parent.Set(idx, childEntry)

		if haveSplit {
			if !parent.IsFull() {
				hilbertInsertSorted(parent, promoted)
				haveSplit = false
			} else {
				promoted = hilbertSplitAndPromote(t, parentRef, parent, promoted, false)
			}
		}
	}

	if haveSplit {
		mbr, lhv := recomputeChildSummary[T](t.Arena.Get(t.Root.Link.Child()))
		oldRootEntry := Entry[T]{MBR: mbr, Link: t.Root.Link, Hilbert: lhv}

		newRootRef := t.allocateNode(false)
		newRootNode := t.Arena.Get(newRootRef)
		hilbertInsertSorted(newRootNode, oldRootEntry)
		hilbertInsertSorted(newRootNode, promoted)

		t.addLevel(Entry[T]{
			MBR:     oldRootEntry.MBR.Union(promoted.MBR),
			Link:    ChildLink(newRootRef),
			Hilbert: maxU64(oldRootEntry.Hilbert, promoted.Hilbert),
		})
	} else if len(path) > 0 || t.Height >= 2 {
		mbr, lhv := recomputeChildSummary[T](t.Arena.Get(t.Root.Link.Child()))
		t.Root.MBR, t.Root.Hilbert = mbr, lhv
	}
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}
