package rtreekit

// RStarTree implements the R*-tree (spec section 4.8): chooseSubtree uses
// overlap enlargement at the level just above the leaves and plain volume
// enlargement everywhere above that, and an overflowing node is given one
// chance per level, per top-level Insert call, to shed its p farthest
// entries and have them reinserted from the root before it is split.
type RStarTree[T Coordinate] struct {
	*Tree[T]

	// ReinsertCount is p, the number of entries removed for forced
	// reinsertion. Defaults to max(1, (capacity+1)/3) as in the original
	// R*-tree paper; callers may override it after construction.
	ReinsertCount int

	reinsertedAtLevel []bool
	Reinsertions      int
}

// NewRStarTree builds an empty R*-tree.
func NewRStarTree[T Coordinate](dim, capacity, min int, layout Layout) (*RStarTree[T], error) {
	t, err := newTree[T](dim, capacity, min, layout)
	if err != nil {
		return nil, err
	}
	p := (capacity + 1) / 3
	if p < 1 {
		p = 1
	}
	return &RStarTree[T]{Tree: t, ReinsertCount: p}, nil
}

func (r *RStarTree[T]) Prepare() {}

func (r *RStarTree[T]) Insert(obj DataObject[T]) {
	if r.Height > 1 {
		r.reinsertedAtLevel = make([]bool, r.Height)
	} else {
		r.reinsertedAtLevel = nil
	}
	r.insertAtElevation(newObjectEntry(obj), 1)
}

func (r *RStarTree[T]) CollectStatistics() map[string]int {
	stats := r.Tree.CollectStatistics()
	stats["reinsertions"] = r.Reinsertions
	return stats
}

// insertAtElevation descends from the root to the node at the given
// elevation (1 for a fresh object, >1 when reinserting a subtree entry
// removed from an overflowing internal node) and inserts e there.
func (r *RStarTree[T]) insertAtElevation(e Entry[T], targetElevation int) {
	if r.Height == 0 {
		r.Root = e
		r.Height = 1
		return
	}

	if r.Height == 1 {
		r.promoteToTwoChildRoot(e)
		return
	}

	curRef := r.Root.Link.Child()
	elevation := r.Height - 1
	var path []descentStep

	for elevation > targetElevation {
		cur := r.Arena.Get(curRef)
		idx := rstarChooseSubtree(r.Tree, cur, e, elevation)
		path = append(path, descentStep{nodeRef: curRef, entryIdx: idx})
		curRef = cur.Get(idx).Link.Child()
		elevation--
	}

	node := r.Arena.Get(curRef)

	if !node.IsFull() {
		node.Add(e)
		propagateUp(r.Tree, path, Entry[T]{}, false, rstarRedistribute[T])
		return
	}

	if targetElevation < len(r.reinsertedAtLevel) && !r.reinsertedAtLevel[targetElevation] {
		r.reinsertedAtLevel[targetElevation] = true
		r.forceReinsert(node, curRef, e, path, targetElevation)
		return
	}

	promoted := splitNode(r.Tree, curRef, node, e, targetElevation == 1, rstarRedistribute[T])
	propagateUp(r.Tree, path, promoted, true, rstarRedistribute[T])
}

// forceReinsert implements the R*-tree's ReInsert procedure: compute each
// candidate entry's distance from the node's center, evict the
// ReinsertCount farthest, shrink the node down to the rest, and reinsert
// the evicted entries one at a time (nearest first) starting from the
// root, at the same elevation they were evicted from.
func (r *RStarTree[T]) forceReinsert(node Node[T], nodeRef NodeRef, e Entry[T], path []descentStep, elevation int) {
	all := make([]Entry[T], 0, node.Size()+1)
	all = append(all, node.Entries()...)
	all = append(all, e)

	center := unionOfEntries(all).Center()
	dist := make([]T, len(all))
	for i, entry := range all {
		dist[i] = pointDist2(entry.MBR.Center(), center)
	}

	order := make([]int, len(all))
	for i := range order {
		order[i] = i
	}
	for i := 1; i < len(order); i++ {
		j := i
		for j > 0 && dist[order[j-1]] < dist[order[j]] {
			order[j-1], order[j] = order[j], order[j-1]
			j--
		}
	}

	p := r.ReinsertCount
	if p > len(all)-r.Min {
		p = len(all) - r.Min
	}
	if p < 1 {
		p = 1
	}

	farthest := order[:p]
	keep := make([]Entry[T], 0, len(all)-p)
	evict := make(map[int]bool, p)
	for _, idx := range farthest {
		evict[idx] = true
	}
	for i, entry := range all {
		if !evict[i] {
			keep = append(keep, entry)
		}
	}

	node.Assign(keep)
	node.SetCapturedCount(len(keep))
	node.SetOriginalMBR(unionOfEntries(keep))
	propagateUp(r.Tree, path, Entry[T]{}, false, rstarRedistribute[T])

	r.Reinsertions++

	for i := len(farthest) - 1; i >= 0; i-- {
		r.insertAtElevation(all[farthest[i]], elevation)
	}
}

// rstarChooseSubtree implements the R*-tree's chooseSubtree (spec section
// 4.8): at the level just above the leaves (elevation 2, whose children are
// leaf nodes), pick the child whose overlap with its siblings enlarges
// least, breaking ties by volume enlargement then volume. At every other
// level, fall back to the plain least-volume-enlargement rule.
func rstarChooseSubtree[T Coordinate](t *Tree[T], node Node[T], e Entry[T], elevation int) int {
	if elevation != 2 {
		return quadraticChooseSubtree(t, node, e, elevation)
	}

	n := node.Size()
	best := 0
	first := true
	var bestOverlap, bestEnlargement, bestVolume T

	for i := 0; i < n; i++ {
		candidate := node.Get(i).MBR
		enlarged := candidate.Union(e.MBR)

		var overlap T
		for j := 0; j < n; j++ {
			if j == i {
				continue
			}
			overlap += candidate.OverlapEnlargement(node.Get(j).MBR, e.MBR, VolumeMeasure[T])
		}

		enlargement := candidate.Enlargement(e.MBR)
		volume := enlarged.Volume()

		if first {
			first = false
			best, bestOverlap, bestEnlargement, bestVolume = i, overlap, enlargement, volume
			continue
		}

		switch {
		case overlap < bestOverlap:
			best, bestOverlap, bestEnlargement, bestVolume = i, overlap, enlargement, volume
		case overlap > bestOverlap:
		case enlargement < bestEnlargement:
			best, bestOverlap, bestEnlargement, bestVolume = i, overlap, enlargement, volume
		case enlargement > bestEnlargement:
		case volume < bestVolume:
			best, bestOverlap, bestEnlargement, bestVolume = i, overlap, enlargement, volume
		}
	}

	return best
}

// rstarRedistribute implements the R*-tree split (spec section 4.8): pick
// the split axis by summed perimeter across all valid divisions of the
// sorted entries, then pick the division point on that axis minimizing
// intersection volume, breaking ties by total perimeter.
func rstarRedistribute[T Coordinate](t *Tree[T], node Node[T], all []Entry[T], isLeaf bool) ([]Entry[T], []Entry[T]) {
	n := len(all)
	dim := all[0].MBR.Dim()
	m := t.Min

	bestDim := 0
	first := true
	var bestPerimeterSum float64

	byLow := make([]Entry[T], n)
	byHigh := make([]Entry[T], n)

	for d := 0; d < dim; d++ {
		copy(byLow, all)
		copy(byHigh, all)
		sortByLow(byLow, d)
		sortByHigh(byHigh, d)

		sum := axisDistributionPerimeterSum(byLow, m) + axisDistributionPerimeterSum(byHigh, m)
		if first || sum < bestPerimeterSum {
			first = false
			bestPerimeterSum = sum
			bestDim = d
		}
	}

	sortByLow(byLow, bestDim)
	copy(byHigh, byLow)

	bestK := m
	firstK := true
	var bestOverlap, bestPerimeter float64

	for k := m; k <= n-m; k++ {
		mbrA := unionOfEntries(byLow[:k])
		mbrB := unionOfEntries(byLow[k:])
		overlap := 0.0
		if mbrA.Intersects(mbrB) {
			overlap = float64(mbrA.Intersection(mbrB).Volume())
		}
		perimeter := float64(mbrA.Perimeter() + mbrB.Perimeter())

		if firstK || overlap < bestOverlap || (overlap == bestOverlap && perimeter < bestPerimeter) {
			firstK = false
			bestOverlap = overlap
			bestPerimeter = perimeter
			bestK = k
		}
	}

	groupA := append([]Entry[T]{}, byLow[:bestK]...)
	groupB := append([]Entry[T]{}, byLow[bestK:]...)
	return groupA, groupB
}

// axisDistributionPerimeterSum sums the combined perimeter of the two
// groups for every valid split point along a single sort order, the
// S(axis) term of the R*-tree's ChooseSplitAxis.
func axisDistributionPerimeterSum[T Coordinate](sorted []Entry[T], m int) float64 {
	n := len(sorted)
	var sum float64
	for k := m; k <= n-m; k++ {
		mbrA := unionOfEntries(sorted[:k])
		mbrB := unionOfEntries(sorted[k:])
		sum += float64(mbrA.Perimeter() + mbrB.Perimeter())
	}
	return sum
}

func sortByLow[T Coordinate](entries []Entry[T], dim int) {
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

func pointDist2[T Coordinate](a, b Point[T]) T {
	assertf(len(a) == len(b), "points of different dimension: %d vs %d", len(a), len(b))
	var d T
	for i := range a {
		diff := a[i] - b[i]
		d += diff * diff
	}
	return d
}

func sortByHigh[T Coordinate](entries []Entry[T], dim int) {
	for i := 1; i < len(entries); i++ {
		key := entries[i]
		j := i - 1
		for j >= 0 && entries[j].MBR.high[dim] > key.MBR.high[dim] {
			entries[j+1] = entries[j]
			j--
		}
		entries[j+1] = key
	}
}
