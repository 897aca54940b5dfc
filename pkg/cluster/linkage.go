// Package cluster performs Ward agglomerative clustering over observation
// rows and partitions the resulting dendrogram into groups, either at a fixed
// height or into a fixed number of groups.
package cluster

import (
	"math"
	"sort"

	"github.com/dd0wney/cluso-geonet/pkg/gerrors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Merge joins clusters A and B (A < B) at Height into a cluster of Size leaves.
// Leaves are 0..n-1; the cluster created by merge k has id n+k.
type Merge struct {
	A, B   int
	Height float64
	Size   int
}

// LinkageTree is the merge history of n leaves, n-1 merges long.
type LinkageTree struct {
	N      int
	Merges []Merge
}

// Validate checks that the tree is a well-formed merge history: every merge
// joins two distinct live clusters created before it.
func (t LinkageTree) Validate() error {
	const op = "LinkageTree"
	if t.N < 1 || len(t.Merges) != t.N-1 {
		return gerrors.New(op).Validation("%d merges for %d leaves", len(t.Merges), t.N)
	}
	merged := make([]bool, 2*t.N-1)
	size := make([]int, 2*t.N-1)
	for i := 0; i < t.N; i++ {
		size[i] = 1
	}
	for k, m := range t.Merges {
		id := t.N + k
		if m.A < 0 || m.A >= m.B || m.B >= id {
			return gerrors.New(op).Validation("merge %d joins %d and %d", k, m.A, m.B)
		}
		if merged[m.A] || merged[m.B] {
			return gerrors.New(op).Validation("merge %d reuses an absorbed cluster", k)
		}
		merged[m.A], merged[m.B] = true, true
		size[id] = size[m.A] + size[m.B]
		if m.Size != size[id] {
			return gerrors.New(op).Validation("merge %d records %d leaves, has %d", k, m.Size, size[id])
		}
	}
	return nil
}

// Monotonic reports whether merge heights never decrease. Height cuts only
// partition the leaves cleanly on monotonic trees.
func (t LinkageTree) Monotonic() bool {
	for k := 1; k < len(t.Merges); k++ {
		if t.Merges[k].Height < t.Merges[k-1].Height {
			return false
		}
	}
	return true
}

// Ward clusters the rows of obs with Ward's minimum variance criterion over
// Euclidean row distances. Merges are ordered by height, ties kept in
// discovery order, and renumbered so cluster ids follow merge order.
func Ward(obs mat.Matrix) (LinkageTree, error) {
	n, _ := obs.Dims()
	if n < 2 {
		return LinkageTree{}, gerrors.New("Ward").Validation("need at least 2 observations, got %d", n)
	}

	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = mat.Row(nil, i, obs)
	}
	d := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := floats.Distance(rows[i], rows[j], 2)
			d[i*n+j], d[j*n+i] = v, v
		}
	}

	merges := nnChain(d, n)
	sort.SliceStable(merges, func(a, b int) bool { return merges[a].Height < merges[b].Height })
	relabel(merges, n)
	return LinkageTree{N: n, Merges: merges}, nil
}

// nnChain runs the nearest-neighbour chain algorithm. Merges come out in
// discovery order with A and B naming matrix slots, not cluster ids.
func nnChain(d []float64, n int) []Merge {
	size := make([]int, n)
	for i := range size {
		size[i] = 1
	}
	merges := make([]Merge, 0, n-1)
	chain := make([]int, 0, n)

	for k := 0; k < n-1; k++ {
		if len(chain) == 0 {
			for i := 0; i < n; i++ {
				if size[i] > 0 {
					chain = append(chain, i)
					break
				}
			}
		}

		var x, y int
		var best float64
		for {
			x = chain[len(chain)-1]
			best = math.Inf(1)
			if len(chain) > 1 {
				y = chain[len(chain)-2]
				best = d[x*n+y]
			}
			for i := 0; i < n; i++ {
				if size[i] == 0 || i == x {
					continue
				}
				if d[x*n+i] < best {
					best = d[x*n+i]
					y = i
				}
			}
			if len(chain) > 1 && y == chain[len(chain)-2] {
				break
			}
			chain = append(chain, y)
		}
		chain = chain[:len(chain)-2]

		if x > y {
			x, y = y, x
		}
		nx, ny := size[x], size[y]
		merges = append(merges, Merge{A: x, B: y, Height: best, Size: nx + ny})

		// slot y holds the merged cluster from now on
		size[x] = 0
		size[y] = nx + ny
		for i := 0; i < n; i++ {
			if size[i] == 0 || i == y {
				continue
			}
			v := wardUpdate(d[i*n+x], d[i*n+y], best, nx, ny, size[i])
			d[i*n+y], d[y*n+i] = v, v
		}
	}
	return merges
}

// wardUpdate is the Lance-Williams distance from cluster i to the union of x
// and y.
func wardUpdate(dxi, dyi, dxy float64, nx, ny, ni int) float64 {
	t := 1 / float64(nx+ny+ni)
	v := float64(ni+nx)*t*dxi*dxi + float64(ni+ny)*t*dyi*dyi - float64(ni)*t*dxy*dxy
	if v < 0 {
		v = 0
	}
	return math.Sqrt(v)
}

// relabel rewrites slot numbers into cluster ids with a union-find over
// merges already in their final order.
func relabel(merges []Merge, n int) {
	parent := make([]int, 2*n-1)
	for i := range parent {
		parent[i] = i
	}
	find := func(x int) int {
		root := x
		for parent[root] != root {
			root = parent[root]
		}
		for parent[x] != root {
			parent[x], x = root, parent[x]
		}
		return root
	}
	for k := range merges {
		a, b := find(merges[k].A), find(merges[k].B)
		if a > b {
			a, b = b, a
		}
		merges[k].A, merges[k].B = a, b
		parent[a], parent[b] = n+k, n+k
	}
}
