package rtreekit

// QuadraticTree is the classic Guttman quadratic-split R-tree (spec section
// 4.6): chooseSubtree always picks the least-enlargement child, and
// redistribute seeds on the pair that wastes the most space together, then
// assigns the rest by largest preference difference.
type QuadraticTree[T Coordinate] struct {
	*Tree[T]
}

// NewQuadraticTree builds an empty quadratic R-tree with the given
// dimension, per-node capacity, minimum fill and node layout.
func NewQuadraticTree[T Coordinate](dim, capacity, min int, layout Layout) (*QuadraticTree[T], error) {
	t, err := newTree[T](dim, capacity, min, layout)
	if err != nil {
		return nil, err
	}
	return &QuadraticTree[T]{Tree: t}, nil
}

func (q *QuadraticTree[T]) Insert(obj DataObject[T]) {
	insertBasic(q.Tree, newObjectEntry(obj), quadraticChooseSubtree[T], quadraticRedistribute[T])
}

func (q *QuadraticTree[T]) Prepare() {}

// quadraticChooseSubtree picks the child entry whose MBR enlarges least to
// accommodate e, breaking ties by the smaller resulting volume and, failing
// that, the first candidate (spec section 4.6).
func quadraticChooseSubtree[T Coordinate](t *Tree[T], node Node[T], e Entry[T], elevation int) int {
	best := 0
	bestEnlargement := node.Get(0).MBR.Enlargement(e.MBR)
	bestVolume := node.Get(0).MBR.Union(e.MBR).Volume()

	for i := 1; i < node.Size(); i++ {
		candidate := node.Get(i).MBR
		enlargement := candidate.Enlargement(e.MBR)
		if enlargement > bestEnlargement {
			continue
		}
		if enlargement < bestEnlargement {
			best = i
			bestEnlargement = enlargement
			bestVolume = candidate.Union(e.MBR).Volume()
			continue
		}
		volume := candidate.Union(e.MBR).Volume()
		if volume < bestVolume {
			best = i
			bestVolume = volume
		}
	}

	return best
}

// quadraticSeeds picks the pair of entries that would waste the most space
// if placed in the same node: the classic PickSeeds step.
func quadraticSeeds[T Coordinate](all []Entry[T]) (int, int) {
	bestI, bestJ := 0, 1
	first := true
	var bestWaste T

	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			waste := all[i].MBR.Union(all[j].MBR).Volume() - all[i].MBR.Volume() - all[j].MBR.Volume()
			if first || waste > bestWaste {
				first = false
				bestWaste = waste
				bestI, bestJ = i, j
			}
		}
	}

	return bestI, bestJ
}

// quadraticRedistribute implements Guttman's quadratic split: seed on the
// pair found by quadraticSeeds, then repeatedly assign the remaining entry
// with the greatest |enlargement(A) - enlargement(B)| to whichever group
// enlarges less, breaking ties first by resulting volume, then by group
// size. Once a group has accumulated exactly (total - min) members, every
// remaining entry is forced into the other group so both stay within
// [min, capacity] (spec section 4.6).
func quadraticRedistribute[T Coordinate](t *Tree[T], node Node[T], all []Entry[T], isLeaf bool) ([]Entry[T], []Entry[T]) {
	n := len(all)
	seedA, seedB := quadraticSeeds(all)

	assigned := make([]bool, n)
	assigned[seedA] = true
	assigned[seedB] = true

	groupA := []Entry[T]{all[seedA]}
	groupB := []Entry[T]{all[seedB]}
	mbrA := all[seedA].MBR
	mbrB := all[seedB].MBR

	remaining := n - 2
	m := t.Min

	for remaining > 0 {
		if n-len(groupA) == m {
			for i := 0; i < n; i++ {
				if !assigned[i] {
					groupB = append(groupB, all[i])
					mbrB = mbrB.Union(all[i].MBR)
					assigned[i] = true
				}
			}
			break
		}
		if n-len(groupB) == m {
			for i := 0; i < n; i++ {
				if !assigned[i] {
					groupA = append(groupA, all[i])
					mbrA = mbrA.Union(all[i].MBR)
					assigned[i] = true
				}
			}
			break
		}

		bestIdx := -1
		first := true
		var bestDiff, bestDeltaA, bestDeltaB T

		for i := 0; i < n; i++ {
			if assigned[i] {
				continue
			}
			da := mbrA.Enlargement(all[i].MBR)
			db := mbrB.Enlargement(all[i].MBR)
			diff := da - db
			if diff < 0 {
				diff = -diff
			}
			if first || diff > bestDiff {
				first = false
				bestIdx = i
				bestDiff = diff
				bestDeltaA, bestDeltaB = da, db
			}
		}

		assignToA := false
		switch {
		case bestDeltaA < bestDeltaB:
			assignToA = true
		case bestDeltaA > bestDeltaB:
			assignToA = false
		default:
			va, vb := mbrA.Volume(), mbrB.Volume()
			switch {
			case va < vb:
				assignToA = true
			case va > vb:
				assignToA = false
			default:
				assignToA = len(groupA) <= len(groupB)
			}
		}

		if assignToA {
			groupA = append(groupA, all[bestIdx])
			mbrA = mbrA.Union(all[bestIdx].MBR)
		} else {
			groupB = append(groupB, all[bestIdx])
			mbrB = mbrB.Union(all[bestIdx].MBR)
		}
		assigned[bestIdx] = true
		remaining--
	}

	return groupA, groupB
}
