package rtreekit

// CheckStructure validates the invariants of spec section 3 by walking the
// tree in preorder (Traverse) and checking, at each non-leaf entry, that
// its children's count is within [min, capacity] (the root may have as few
// as 2), that its MBR is the exact union of its children's MBRs, and - for
// Hilbert-ordered trees - that children are sorted by non-decreasing
// Hilbert value. It mirrors original_source's Rtree::checkStructure, which
// additionally checks MBR tightness rather than containment alone.
func (t *Tree[T]) CheckStructure() error {
	if t.Height == 0 || t.Height == 1 {
		return nil
	}

	var err error

	t.Traverse(func(e Entry[T], level int) bool {
		if err != nil {
			return false
		}

		if level == t.Height {
			return false
		}

		node := t.Arena.Get(e.Link.Child())
		size := node.Size()

		if size > node.Capacity() {
			err = invalidStructure(level, "node has %d entries, exceeding capacity %d", size, node.Capacity())
			return false
		}

		minRequired := t.Min
		if level == 1 {
			minRequired = 2
		}
		if size < minRequired {
			err = invalidStructure(level, "node has %d entries, fewer than minimum %d", size, minRequired)
			return false
		}

		entries := node.Entries()
		if len(entries) == 0 {
			err = invalidStructure(level, "non-root node has no entries")
			return false
		}

		union := entries[0].MBR
		var lastHilbert uint64
		for i, ce := range entries {
			if !e.MBR.Contains(ce.MBR) {
				err = invalidStructure(level, "child MBR not contained within parent MBR")
				return false
			}
			if i > 0 {
				union = union.Union(ce.MBR)
			}
			if t.HilbertOrdered {
				if i > 0 && ce.Hilbert < lastHilbert {
					err = invalidStructure(level, "children not sorted by non-decreasing Hilbert value")
					return false
				}
				lastHilbert = ce.Hilbert
			}
		}

		if !mbrEqual(union, e.MBR) {
			err = invalidStructure(level, "parent MBR is not the exact union of its children's MBRs")
			return false
		}

		return true
	})

	return err
}
