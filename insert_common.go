package rtreekit

// chooseFunc selects, within node (whose own elevation is the given one -
// the number of edges from node down to the object level, so a leaf node
// has elevation 1 and node's children have elevation-1), the index of the
// child entry the new entry e should descend into.
type chooseFunc[T Coordinate] func(t *Tree[T], node Node[T], e Entry[T], elevation int) int

// redistributeFunc splits all (a node's existing entries plus the
// overflowing new one) into two groups of at least t.Min each. node is the
// original, not-yet-reset node - strategies that need its captured-center
// state (the RR*-tree) can still read it. isLeaf reports whether the
// entries being split are leaf (object) entries.
type redistributeFunc[T Coordinate] func(t *Tree[T], node Node[T], all []Entry[T], isLeaf bool) (groupA, groupB []Entry[T])

func unionOfEntries[T Coordinate](entries []Entry[T]) Mbr[T] {
	assertf(len(entries) > 0, "union of an empty entry set")
	u := entries[0].MBR
	for _, e := range entries[1:] {
		u = u.Union(e.MBR)
	}
	return u
}

// promoteToTwoChildRoot implements spec section 4.5 step 3: the tree had a
// single object at its root; build a two-entry leaf node and make it the
// new root.
func (t *Tree[T]) promoteToTwoChildRoot(e Entry[T]) {
	leafRef := t.allocateNode(true)
	leaf := t.Arena.Get(leafRef)
	leaf.Add(t.Root)
	leaf.Add(e)
	leaf.SetCapturedCount(2)
	leaf.SetOriginalMBR(t.Root.MBR.Union(e.MBR))
	t.Root = Entry[T]{MBR: t.Root.MBR.Union(e.MBR), Link: ChildLink(leafRef)}
	t.Height = 2
}

// splitNode appends e to node's entries, redistributes all of them into two
// groups via redistribute, keeps groupA in place at ref and allocates a new
// sibling node for groupB, returning the entry the caller should promote to
// the parent.
func splitNode[T Coordinate](t *Tree[T], ref NodeRef, node Node[T], e Entry[T], isLeaf bool, redistribute redistributeFunc[T]) Entry[T] {
	all := make([]Entry[T], 0, node.Size()+1)
	all = append(all, node.Entries()...)
	all = append(all, e)

	groupA, groupB := redistribute(t, node, all, isLeaf)
	assertf(len(groupA) >= t.Min && len(groupB) >= t.Min, "redistribute produced undersized groups: %d, %d (min %d)", len(groupA), len(groupB), t.Min)

	node.Assign(groupA)
	node.SetCapturedCount(len(groupA))
	node.SetOriginalMBR(unionOfEntries(groupA))

	siblingRef := t.allocateNode(node.IsLeaf())
	sibling := t.Arena.Get(siblingRef)
	sibling.Assign(groupB)
	sibling.SetCapturedCount(len(groupB))
	sibling.SetOriginalMBR(unionOfEntries(groupB))

	return Entry[T]{MBR: unionOfEntries(groupB), Link: ChildLink(siblingRef)}
}

type descentStep struct {
	nodeRef  NodeRef
	entryIdx int
}

// propagateUp recomputes each ancestor's MBR along path (innermost first)
// from its child node's current entries, and - if the descent ended in a
// split - promotes the new sibling up the chain, splitting each ancestor in
// turn until one has room, finally growing the tree by one level if the
// split reaches the root. It is shared by every non-Hilbert strategy's
// insert, including the R*-tree's forced-reinsertion path.
func propagateUp[T Coordinate](t *Tree[T], path []descentStep, promoted Entry[T], haveSplit bool, redistribute redistributeFunc[T]) {
	for i := len(path) - 1; i >= 0; i-- {
		parentRef := path[i].nodeRef
		parent := t.Arena.Get(parentRef)
		idx := path[i].entryIdx

		childEntry := parent.Get(idx)
		childRef := childEntry.Link.Child()
		childEntry.MBR = unionOfEntries(t.Arena.Get(childRef).Entries())
		parent.Set(idx, childEntry)

		if haveSplit {
			if !parent.IsFull() {
				parent.Add(promoted)
				haveSplit = false
			} else {
				promoted = splitNode(t, parentRef, parent, promoted, false, redistribute)
			}
		}
	}

	if haveSplit {
		oldRootEntry := Entry[T]{
			MBR:  unionOfEntries(t.Arena.Get(t.Root.Link.Child()).Entries()),
			Link: t.Root.Link,
		}
		newRootRef := t.allocateNode(false)
		newRootNode := t.Arena.Get(newRootRef)
		newRootNode.Add(oldRootEntry)
		newRootNode.Add(promoted)
		t.addLevel(Entry[T]{MBR: oldRootEntry.MBR.Union(promoted.MBR), Link: ChildLink(newRootRef)})
	} else {
		t.Root.MBR = unionOfEntries(t.Arena.Get(t.Root.Link.Child()).Entries())
	}
}

// insertBasic implements the common insert skeleton of spec section 4.5,
// shared by the Quadratic, Greene and RR*-tree strategies. The R*-tree
// reuses descentStep, splitNode and propagateUp but has its own top-level
// Insert to support forced reinsertion.
func insertBasic[T Coordinate](t *Tree[T], e Entry[T], choose chooseFunc[T], redistribute redistributeFunc[T]) {
	if t.Height == 0 {
		t.Root = e
		t.Height = 1
		return
	}

	if t.Height == 1 {
		t.promoteToTwoChildRoot(e)
		return
	}

	curRef := t.Root.Link.Child()
	elevation := t.Height - 1
	var path []descentStep

	for elevation > 1 {
		cur := t.Arena.Get(curRef)
		idx := choose(t, cur, e, elevation)
		path = append(path, descentStep{nodeRef: curRef, entryIdx: idx})
		curRef = cur.Get(idx).Link.Child()
		elevation--
	}

	leaf := t.Arena.Get(curRef)

	if !leaf.IsFull() {
		leaf.Add(e)
		propagateUp(t, path, Entry[T]{}, false, redistribute)
		return
	}

	promoted := splitNode(t, curRef, leaf, e, true, redistribute)
	propagateUp(t, path, promoted, true, redistribute)
}
