// Command main demonstrates the R*-tree and Hilbert R-tree insert
// strategies, and the transforming decorator rebuilding the R*-tree into
// the vectorized node layout, over a small set of objects.
package main

import (
	"fmt"

	rtreekit "github.com/jtejido/rtreekit"
)

func grid(n int) []rtreekit.DataObject[float64] {
	objs := make([]rtreekit.DataObject[float64], 0, n*n)
	id := rtreekit.Id(1)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			x, y := float64(i), float64(j)
			low := rtreekit.Point[float64]{x, y}
			high := rtreekit.Point[float64]{x + 1, y + 1}
			b, err := rtreekit.NewBox(low, high)
			if err != nil {
				panic(err)
			}
			objs = append(objs, rtreekit.DataObject[float64]{Id: id, Box: b})
			id++
		}
	}
	return objs
}

func query(low, high []float64) rtreekit.Box[float64] {
	b, err := rtreekit.NewBox(rtreekit.Point[float64](low), rtreekit.Point[float64](high))
	if err != nil {
		panic(err)
	}
	return b
}

func main() {
	objs := grid(6)
	q := query([]float64{2, 2}, []float64{4, 4})

	rstar, err := rtreekit.NewRStarTree[float64](2, 8, 2, rtreekit.DefaultLayout)
	if err != nil {
		panic(err)
	}
	for _, o := range objs {
		rstar.Insert(o)
	}
	rstar.Prepare()

	var hits []rtreekit.Id
	rstar.Search(q, &hits)
	fmt.Printf("R*-tree: %d hits over [2,2]-[4,4], height %d, %d reinsertions\n",
		len(hits), rstar.Height, rstar.Reinsertions)

	if err := rstar.CheckStructure(); err != nil {
		fmt.Println("structure check failed:", err)
	}

	tr := rtreekit.NewTransform[float64](rstar, rstar.Tree, rtreekit.VectorLayout)
	tr.Prepare()

	var vecHits []rtreekit.Id
	tr.Search(q, &vecHits)
	fmt.Printf("vectorized rebuild: %d hits, stats: %v\n", len(vecHits), tr.CollectStatistics())

	bounds := rtreekit.NewMbr(query([]float64{0, 0}, []float64{6, 6}))
	hilbert, err := rtreekit.NewHilbertTree[float64](2, 8, 2, rtreekit.DefaultLayout, bounds, 16)
	if err != nil {
		panic(err)
	}
	for _, o := range objs {
		hilbert.Insert(o)
	}

	var hilbertHits []rtreekit.Id
	hilbert.Search(q, &hilbertHits)
	fmt.Printf("Hilbert R-tree: %d hits, height %d\n", len(hilbertHits), hilbert.Height)
}
