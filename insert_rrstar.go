package rtreekit

import (
	"math"
	"sort"
)

// rrstarEpsilon is the tolerance below which a volume or overlap is treated
// as zero, matching the revised R*-tree's floating-point guards.
const rrstarEpsilon = 1e-5

// RRStarTree implements the revised R*-tree (spec section 4.9): a
// CheckComp-based chooseSubtree that follows chains of overlap dependency
// rather than a single greedy pick, and a redistribute that scores every
// candidate split with a goal function wg and a weighting function wf
// derived from how far the node has drifted from the MBR it was given when
// it was last split.
type RRStarTree[T Coordinate] struct {
	*Tree[T]

	// PerimeterSplits counts redistribute calls that fell back to
	// perimeter as the split measure because an entry in the candidate
	// split range had (near) zero volume.
	PerimeterSplits int
	// NegativeGoals counts redistribute calls whose chosen split scored a
	// negative goal value (the two groups do not overlap under the split
	// measure and their combined perimeter is below the maximum).
	NegativeGoals int
}

// NewRRStarTree builds an empty RR*-tree. capacity must be at least
// 4*min so the internal split-range bound (capacity/4) stays at or above
// the tree's own minimum fill.
func NewRRStarTree[T Coordinate](dim, capacity, min int, layout Layout) (*RRStarTree[T], error) {
	t, err := newTree[T](dim, capacity, min, layout)
	if err != nil {
		return nil, err
	}
	if capacity/4 < min {
		return nil, ErrMinGTMax
	}
	return &RRStarTree[T]{Tree: t}, nil
}

func (r *RRStarTree[T]) Insert(obj DataObject[T]) {
	insertBasic(r.Tree, newObjectEntry(obj), rrstarChooseSubtree[T], r.redistribute)
}

func (r *RRStarTree[T]) Prepare() {}

// CollectStatistics reports the base tree statistics plus the RR*-tree's own
// perimeter_splits and negative_goals counters, mirroring
// RRStarTree::collectStatistics's extra bookkeeping.
func (r *RRStarTree[T]) CollectStatistics() map[string]int {
	stats := r.Tree.CollectStatistics()
	stats["perimeter_splits"] = r.PerimeterSplits
	stats["negative_goals"] = r.NegativeGoals
	return stats
}

// redistribute wraps rrstarRedistribute so this tree's own PerimeterSplits
// and NegativeGoals counters get updated on every split, the way
// RRStarTree::redistribute increments perimeterSplits/negativeGoals.
func (r *RRStarTree[T]) redistribute(t *Tree[T], node Node[T], all []Entry[T], isLeaf bool) ([]Entry[T], []Entry[T]) {
	groupA, groupB, perimeterSplit, negativeGoal := rrstarRedistributeWithStats(t, node, all, isLeaf)
	if perimeterSplit {
		r.PerimeterSplits++
	}
	if negativeGoal {
		r.NegativeGoals++
	}
	return groupA, groupB
}

// rrstarChooseSubtree implements spec section 4.9's chooseSubtree: first
// prefer a child that already covers the new entry outright, otherwise run
// CheckComp starting from the perimeter-enlargement-minimizing child to
// find an overlap-free target, falling back to the visited child with the
// smallest accumulated overlap.
func rrstarChooseSubtree[T Coordinate](t *Tree[T], node Node[T], e Entry[T], elevation int) int {
	n := node.Size()

	var covering []int
	for i := 0; i < n; i++ {
		if node.Get(i).MBR.Contains(e.MBR) {
			covering = append(covering, i)
		}
	}

	if len(covering) > 0 {
		noVolume := false
		for _, i := range covering {
			if node.Get(i).MBR.Volume() < rrstarEpsilon {
				noVolume = true
				break
			}
		}
		best := covering[0]
		if noVolume {
			bestPerimeter := node.Get(best).MBR.Perimeter()
			for _, i := range covering[1:] {
				if p := node.Get(i).MBR.Perimeter(); p < bestPerimeter {
					bestPerimeter = p
					best = i
				}
			}
		} else {
			bestVolume := node.Get(best).MBR.Volume()
			for _, i := range covering[1:] {
				if v := node.Get(i).MBR.Volume(); v < bestVolume {
					bestVolume = v
					best = i
				}
			}
		}
		return best
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	enlargement := func(i int) T {
		m := node.Get(i).MBR
		return m.Union(e.MBR).Perimeter() - m.Perimeter()
	}
	sort.Slice(order, func(a, b int) bool { return enlargement(order[a]) < enlargement(order[b]) })

	first := order[0]
	firstMBR := node.Get(first).MBR
	if rrstarPerimeterOverlap(node, firstMBR.Union(e.MBR))-rrstarPerimeterOverlap(node, e.MBR) < rrstarEpsilon {
		return first
	}

	// useVolume mirrors CheckComp.hpp's constructor: volume is usable as the
	// overlap measure only when every sibling's enlargement by e still has
	// nonzero volume.
	useVolume := true
	for i := 0; i < n; i++ {
		if node.Get(i).MBR.Union(e.MBR).Volume() == 0 {
			useVolume = false
			break
		}
	}
	var measure Measure[T]
	if useVolume {
		measure = VolumeMeasure[T]
	} else {
		measure = PerimeterMeasure[T]
	}

	// p is CheckComp.hpp's constructor-time optimization threshold: one past
	// the last sibling j in [1, n-2] whose perimeter overlap enlargement
	// against order[0] is still positive. Only order[0:p] ever enters the
	// DFS below.
	p := 1
	for j := 1; j <= n-2; j++ {
		delta := node.Get(order[0]).MBR.OverlapEnlargement(node.Get(order[j]).MBR, e.MBR, PerimeterMeasure[T])
		if delta > 0 {
			p = j + 1
		}
	}

	overlaps := make([]T, p)
	visited := make([]bool, p)
	type frame struct{ index, j int }
	stack := []frame{{index: 0, j: 0}}
	visited[0] = true

	resultRank := -1

	// Mirrors CheckComp::operator()(t): every sibling j in [0,p) contributes
	// its overlap enlargement to overlaps[t] unconditionally, and the
	// traversal only descends into j when that overlap is nonzero and j has
	// not already been visited - a visited j still counts toward overlaps[t].
search:
	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		j := top.j
		top.j++

		if j >= p {
			if overlaps[top.index] < rrstarEpsilon {
				resultRank = top.index
				break search
			}
			stack = stack[:len(stack)-1]
			continue
		}
		if j == top.index {
			continue
		}

		topMBR := node.Get(order[top.index]).MBR
		otherMBR := node.Get(order[j]).MBR
		overlap := topMBR.OverlapEnlargement(otherMBR, e.MBR, measure)
		overlaps[top.index] += overlap

		if overlap >= rrstarEpsilon && !visited[j] {
			visited[j] = true
			stack = append(stack, frame{index: j, j: 0})
		}
	}

	if resultRank == -1 {
		found := false
		for i := 0; i < p; i++ {
			if !visited[i] {
				continue
			}
			if !found || overlaps[i] < overlaps[resultRank] {
				found = true
				resultRank = i
			}
		}
	}

	return order[resultRank]
}

// rrstarPerimeterOverlap sums the perimeter of mbr's intersection with
// every one of node's current entries.
func rrstarPerimeterOverlap[T Coordinate](node Node[T], mbr Mbr[T]) T {
	var sum T
	for i := 0; i < node.Size(); i++ {
		other := node.Get(i).MBR
		if mbr.Intersects(other) {
			sum += mbr.Intersection(other).Perimeter()
		}
	}
	return sum
}

// sortRRStar orders entries by low[dim] ascending; entries with equal
// low[dim] keep their relative order, and - for a subtlety carried over
// unchanged from the reference comparator - entries with differing
// low[dim] are actually ordered by high[dim] rather than low[dim].
func sortRRStar[T Coordinate](entries []Entry[T], dim int) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].MBR, entries[j].MBR
		if a.low[dim] == b.low[dim] {
			return false
		}
		return a.high[dim] < b.high[dim]
	})
}

// rrstarGoal is the goal function wg (spec section 4.9): the overlap
// between the two groups under measure if they intersect, otherwise their
// combined perimeter shifted down by the enclosing MBR's max perimeter (so
// a tighter-than-worst-case split scores negative).
func rrstarGoal[T Coordinate](mbrA, mbrB Mbr[T], measure Measure[T], maxPerimeter T) float64 {
	if mbrA.Intersects(mbrB) {
		if overlap := measure(mbrA.Intersection(mbrB)); overlap > rrstarEpsilon {
			return float64(overlap)
		}
	}
	return float64(mbrA.Perimeter() + mbrB.Perimeter() - maxPerimeter)
}

// rrstarMaxPerimeter returns 2*perimeter(enclosing) - minProjection, the
// worst-case combined perimeter two groups covering enclosing could reach.
func rrstarMaxPerimeter[T Coordinate](enclosing Mbr[T]) T {
	dim := enclosing.Dim()
	minProjection := enclosing.high[0] - enclosing.low[0]
	for d := 1; d < dim; d++ {
		if p := enclosing.high[d] - enclosing.low[d]; p < minProjection {
			minProjection = p
		}
	}
	return 2*enclosing.Perimeter() - minProjection
}

const rrstarS = 0.5

// rrstarWeight is the weighting function wf (spec section 4.9): a bell
// curve over the split index k, centered and scaled by asym - how far the
// center of the node's current MBR along dimension d has drifted from the
// center of the captured MBR orig, relative to the current width.
func rrstarWeight[T Coordinate](k, capacity, m int, cur, orig Mbr[T], d int) float64 {
	width := float64(cur.high[d] - cur.low[d])
	var asym float64
	if width != 0 {
		asym = (float64(cur.high[d]+cur.low[d]) - float64(orig.high[d]+orig.low[d])) / width
	}

	shift := math.Exp(-1 / (rrstarS * rrstarS))
	scale := 1 / (1 - shift)

	preShift := 0.5 * (float64(capacity-1) + float64(capacity+1-2*m)*asym)
	preScale := 2 / (rrstarS * (float64(capacity+1) + float64(capacity+1-2*m)*math.Abs(asym)))

	e := preScale * (float64(k) - preShift)
	return scale * (math.Exp(-e*e) - shift)
}

// rrstarBestSplit finds the split index in [m, n-m] over entries (already
// sorted along dimension d) minimizing wg*wf (when wg is negative) or
// wg/wf (otherwise), per spec section 4.9. It also reports whether every
// entry at positions [m, n-m) has non-zero volume (otherwise perimeter is
// the measure) and the goal value of the winning split, the two conditions
// RRStarTree::redistribute counts as perimeterSplits/negativeGoals.
func rrstarBestSplit[T Coordinate](entries []Entry[T], enclosing, orig Mbr[T], maxPerimeter T, capacity, m, d int) (bestK int, bestScore float64, hasVolume bool, bestWG float64) {
	n := len(entries)

	hasVolume = true
	for i := m; i < n-m; i++ {
		if entries[i].MBR.Volume() < rrstarEpsilon {
			hasVolume = false
			break
		}
	}
	var measure Measure[T]
	if hasVolume {
		measure = VolumeMeasure[T]
	} else {
		measure = PerimeterMeasure[T]
	}

	bestK = m
	first := true

	for k := m; k <= n-m; k++ {
		mbrA := unionOfEntries(entries[:k])
		mbrB := unionOfEntries(entries[k:])
		wg := rrstarGoal(mbrA, mbrB, measure, maxPerimeter)
		wf := rrstarWeight(k, capacity, m, enclosing, orig, d)

		var score float64
		if wg < 0 {
			score = wg * wf
		} else {
			score = wg / wf
		}

		if first || score < bestScore {
			first = false
			bestScore = score
			bestK = k
			bestWG = wg
		}
	}

	return bestK, bestScore, hasVolume, bestWG
}

// rrstarRedistribute implements spec section 4.9's redistribute, matching
// the redistributeFunc signature shared by every insert strategy. It
// discards the perimeterSplit/negativeGoal flags rrstarRedistributeWithStats
// reports; RRStarTree.redistribute is the entry point that keeps them.
func rrstarRedistribute[T Coordinate](t *Tree[T], node Node[T], all []Entry[T], isLeaf bool) ([]Entry[T], []Entry[T]) {
	groupA, groupB, _, _ := rrstarRedistributeWithStats(t, node, all, isLeaf)
	return groupA, groupB
}

// rrstarRedistributeWithStats does the actual work. Leaf splits pick a
// single axis first, by the plain sum-of-perimeters proxy, then the split
// index on that axis by wg/wf; non-leaf splits search axis and split index
// jointly, per the spec's preserved asymmetry between the two levels.
// perimeterSplit and negativeGoal report, for the winning split,
// RRStarTree::redistribute's !useVolume and wg<0 conditions.
func rrstarRedistributeWithStats[T Coordinate](t *Tree[T], node Node[T], all []Entry[T], isLeaf bool) (groupA, groupB []Entry[T], perimeterSplit, negativeGoal bool) {
	n := len(all)
	capacity := t.Capacity
	m := capacity / 4
	if m < 1 {
		m = 1
	}
	assertf(n > 2*m, "rrstar split needs more than 2*(capacity/4) entries, got %d with capacity %d", n, capacity)

	dim := all[0].MBR.Dim()
	enclosing := unionOfEntries(all)
	maxPerimeter := rrstarMaxPerimeter(enclosing)
	orig := node.OriginalMBR()
	if orig.Dim() == 0 {
		orig = enclosing
	}

	entries := append([]Entry[T]{}, all...)

	var bestDim, bestK int
	var hasVolume bool
	var bestWG float64

	if isLeaf {
		first := true
		var bestSum T
		for d := 0; d < dim; d++ {
			sortRRStar(entries, d)
			sum := axisDistributionPerimeterSum(entries, m)
			if first || sum < bestSum {
				first = false
				bestSum = sum
				bestDim = d
			}
		}
		sortRRStar(entries, bestDim)
		bestK, _, hasVolume, bestWG = rrstarBestSplit(entries, enclosing, orig, maxPerimeter, capacity, m, bestDim)
	} else {
		first := true
		var bestScore float64
		for d := 0; d < dim; d++ {
			sortRRStar(entries, d)
			k, score, dimHasVolume, wg := rrstarBestSplit(entries, enclosing, orig, maxPerimeter, capacity, m, d)
			if first || score < bestScore {
				first = false
				bestScore = score
				bestDim = d
				bestK = k
				hasVolume = dimHasVolume
				bestWG = wg
			}
		}
		sortRRStar(entries, bestDim)
	}

	groupA = append([]Entry[T]{}, entries[:bestK]...)
	groupB = append([]Entry[T]{}, entries[bestK:]...)
	return groupA, groupB, !hasVolume, bestWG < 0
}
