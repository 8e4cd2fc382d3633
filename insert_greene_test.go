package rtreekit

import "testing"

func clusterEntries() []Entry[float64] {
	mk := func(x, y float64) Entry[float64] {
		return Entry[float64]{MBR: NewMbr(box([]float64{x, y}, []float64{x + 1, y + 1}))}
	}
	return []Entry[float64]{
		mk(0, 0), mk(2, 0), mk(4, 0), // cluster A, near y=0
		mk(0, 100), mk(2, 100), mk(4, 100), // cluster B, near y=100
	}
}

// Scenario 6 of the concrete end-to-end table: six MBRs forming two
// clusters separated along y. The split axis must be y, since its
// normalized seed separation dwarfs x's.
func TestGreeneSplitDimensionPicksTheSeparatedAxis(t *testing.T) {
	all := clusterEntries()
	seedA, seedB := greeneSeeds(all)
	if got := greeneSplitDimension(all, seedA, seedB); got != 1 {
		t.Errorf("greeneSplitDimension() = %d; want 1 (y, the separated axis)", got)
	}
}

// The redistribute splits the six entries, sorted along y, at the n/2-1
// midpoint (index 2, the last entry of the first group; see
// insert_greene.go), so the first group is cluster A's 3 entries and the
// second is cluster B's 3.
func TestGreeneRedistributeSplitsAtMidpoint(t *testing.T) {
	tree, err := NewGreeneTree[float64](2, 8, 1, DefaultLayout)
	if err != nil {
		t.Fatalf("NewGreeneTree: %v", err)
	}

	all := clusterEntries()
	n := NewNode[float64](DefaultLayout, 8, 1)
	groupA, groupB := greeneRedistribute(tree.Tree, n, all, true)

	if len(groupA) != 3 || len(groupB) != 3 {
		t.Fatalf("greeneRedistribute produced groups of size %d, %d; want 3, 3 (split after index n/2-1)", len(groupA), len(groupB))
	}

	for _, e := range groupA {
		if e.MBR.low[1] != 0 {
			t.Errorf("groupA contains an entry outside cluster A: low[1]=%v", e.MBR.low[1])
		}
	}

	var fromA, fromB int
	for _, e := range groupB {
		if e.MBR.low[1] == 0 {
			fromA++
		} else {
			fromB++
		}
	}
	if fromA != 0 || fromB != 3 {
		t.Errorf("groupB has %d cluster-A and %d cluster-B entries; want 0 and 3", fromA, fromB)
	}
}

func TestGreeneTreeEndToEndBuildsValidStructure(t *testing.T) {
	tree, err := NewGreeneTree[float64](2, 4, 1, DefaultLayout)
	if err != nil {
		t.Fatalf("NewGreeneTree: %v", err)
	}

	for i := 0; i < 40; i++ {
		x := float64(i)
		tree.Insert(DataObject[float64]{Id: Id(i + 1), Box: box([]float64{x, 0}, []float64{x + 1, 1})})
		if err := tree.CheckStructure(); err != nil {
			t.Fatalf("CheckStructure after inserting %d objects: %v", i+1, err)
		}
	}
}
