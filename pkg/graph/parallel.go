package graph

import (
	"runtime"
	"sync"
)

// chunks splits [0, n) into at most workers contiguous ranges.
func chunks(n, workers int) [][2]int {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > n {
		workers = n
	}
	if workers == 0 {
		return nil
	}

	size := (n + workers - 1) / workers
	ranges := make([][2]int, 0, workers)
	for lo := 0; lo < n; lo += size {
		hi := lo + size
		if hi > n {
			hi = n
		}
		ranges = append(ranges, [2]int{lo, hi})
	}
	return ranges
}

// ParallelForNodes calls fn for every live node, splitting the id range
// across workers. fn must only write state owned by its node. Returns after
// all workers finish.
func (g *Graph) ParallelForNodes(workers int, fn func(u int)) {
	ranges := chunks(g.UpperNodeIDBound(), workers)
	if len(ranges) <= 1 {
		g.ForNodes(fn)
		return
	}

	var wg sync.WaitGroup
	for _, r := range ranges {
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for u := lo; u < hi; u++ {
				if g.alive[u] {
					fn(u)
				}
			}
		}(r[0], r[1])
	}
	wg.Wait()
}

// ParallelSumForNodes sums fn over all live nodes. Partial sums are combined
// in chunk order, so the result does not depend on goroutine scheduling.
func (g *Graph) ParallelSumForNodes(workers int, fn func(u int) float64) float64 {
	ranges := chunks(g.UpperNodeIDBound(), workers)
	partial := make([]float64, len(ranges))

	var wg sync.WaitGroup
	for i, r := range ranges {
		wg.Add(1)
		go func(i, lo, hi int) {
			defer wg.Done()
			sum := 0.0
			for u := lo; u < hi; u++ {
				if g.alive[u] {
					sum += fn(u)
				}
			}
			partial[i] = sum
		}(i, r[0], r[1])
	}
	wg.Wait()

	total := 0.0
	for _, s := range partial {
		total += s
	}
	return total
}
