package rtreekit

// GreeneTree implements Greene's split strategy (spec section 4.7): seeds
// are the pair with maximum distance between centers, then entries are
// separated along the axis with the greatest normalized separation and
// sorted along it. chooseSubtree is the same least-enlargement rule as the
// quadratic tree.
type GreeneTree[T Coordinate] struct {
	*Tree[T]
}

// NewGreeneTree builds an empty Greene-split R-tree.
func NewGreeneTree[T Coordinate](dim, capacity, min int, layout Layout) (*GreeneTree[T], error) {
	t, err := newTree[T](dim, capacity, min, layout)
	if err != nil {
		return nil, err
	}
	return &GreeneTree[T]{Tree: t}, nil
}

func (g *GreeneTree[T]) Insert(obj DataObject[T]) {
	insertBasic(g.Tree, newObjectEntry(obj), quadraticChooseSubtree[T], greeneRedistribute[T])
}

func (g *GreeneTree[T]) Prepare() {}

// greeneSeeds picks the pair of entries whose centers are farthest apart
// (squared Euclidean distance), rather than quadratic's maximum-waste pair.
func greeneSeeds[T Coordinate](all []Entry[T]) (int, int) {
	bestI, bestJ := 0, 1
	first := true
	var bestDist T

	for i := 0; i < len(all); i++ {
		ci := all[i].MBR.Center()
		for j := i + 1; j < len(all); j++ {
			cj := all[j].MBR.Center()
			var d T
			for k := range ci {
				diff := ci[k] - cj[k]
				d += diff * diff
			}
			if first || d > bestDist {
				first = false
				bestDist = d
				bestI, bestJ = i, j
			}
		}
	}

	return bestI, bestJ
}

// greeneSplitDimension picks the axis whose extent-normalized separation
// between the two seeds is greatest: (seedB.low - seedA.high) / extent or
// (seedA.low - seedB.high) / extent, whichever is larger, normalized by the
// axis's overall extent across all entries so dimensions of different
// scale remain comparable.
func greeneSplitDimension[T Coordinate](all []Entry[T], seedA, seedB int) int {
	dim := all[0].MBR.Dim()
	bestDim := 0
	first := true
	var bestSeparation float64

	for d := 0; d < dim; d++ {
		lo := all[0].MBR.low[d]
		hi := all[0].MBR.high[d]
		for _, e := range all[1:] {
			if e.MBR.low[d] < lo {
				lo = e.MBR.low[d]
			}
			if e.MBR.high[d] > hi {
				hi = e.MBR.high[d]
			}
		}
		extent := float64(hi - lo)
		if extent <= 0 {
			continue
		}

		separation := float64(all[seedA].MBR.DistanceAlong(d, all[seedB].MBR)) / extent

		if first || separation > bestSeparation {
			first = false
			bestSeparation = separation
			bestDim = d
		}
	}

	return bestDim
}

// greeneRedistribute implements Greene's split (spec section 4.7 and spec
// section 9): pick seeds by maximum center distance, pick the split axis by
// maximum normalized seed separation, sort all entries by their low
// coordinate on that axis, and divide the sorted sequence at the midpoint
// index n/2 - 1, which is the last entry of the first group. The first
// group therefore holds n/2 entries: exactly half on even n, one fewer than
// the second group on odd n. The precondition len(all) >= 2*min+1 - needed
// for the midpoint to still leave both groups at or above min - is asserted
// rather than silently patched.
func greeneRedistribute[T Coordinate](t *Tree[T], node Node[T], all []Entry[T], isLeaf bool) ([]Entry[T], []Entry[T]) {
	n := len(all)
	seedA, seedB := greeneSeeds(all)
	splitDim := greeneSplitDimension(all, seedA, seedB)

	sorted := make([]Entry[T], n)
	copy(sorted, all)
	insertionSortByLow(sorted, splitDim)

	mid := n/2 - 1
	assertf(n >= 2*t.Min+1, "greene split midpoint %d leaves a group under min %d (n=%d)", mid, t.Min, n)

	groupA := append([]Entry[T]{}, sorted[:mid+1]...)
	groupB := append([]Entry[T]{}, sorted[mid+1:]...)
	return groupA, groupB
}

func insertionSortByLow[T Coordinate](entries []Entry[T], dim int) {
	for i := 1; i < len(entries); i++ {
		key := entries[i]
		j := i - 1
		for j >= 0 && entries[j].MBR.low[dim] > key.MBR.low[dim] {
			entries[j+1] = entries[j]
			j--
		}
		entries[j+1] = key
	}
}
