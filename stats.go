package rtreekit

import "fmt"

// CollectStatistics returns height, total node count (leaf nodes included) and a
// per-level child count (level_<k>, k counted from the leaves upward, as in
// original_source's Rtree::collectStatistics) for any tree built on this
// skeleton. Strategy-specific counters (e.g. the R*-tree's reinsertion
// count or the RR*-tree's perimeter_splits/negative_goals) are merged in by
// each variant's own CollectStatistics.
func (t *Tree[T]) CollectStatistics() map[string]int {
	stats := map[string]int{
		"height": t.Height,
		"nodes":  0,
	}

	if t.Height == 0 {
		return stats
	}

	stats[fmt.Sprintf("level_%d", t.Height)] = 1

	t.Traverse(func(e Entry[T], level int) bool {
		if level == t.Height {
			return false
		}

		node := t.Arena.Get(e.Link.Child())
		key := fmt.Sprintf("level_%d", t.Height-level)
		stats[key] += node.Size()
		stats["nodes"]++
		return true
	})

	return stats
}
