package cluster

import (
	"math"

	"github.com/dd0wney/cluso-geonet/pkg/gerrors"
)

// resolver expands cluster ids to their leaves, caching the leaf list of
// every internal node it resolves.
type resolver struct {
	tree  LinkageTree
	cache [][]int // indexed by merge number
	used  []bool  // indexed by merge number
}

func newResolver(tree LinkageTree) *resolver {
	return &resolver{
		tree:  tree,
		cache: make([][]int, len(tree.Merges)),
		used:  make([]bool, len(tree.Merges)),
	}
}

func (r *resolver) leaves(id int) []int {
	if id < r.tree.N {
		return []int{id}
	}
	k := id - r.tree.N
	if r.cache[k] == nil {
		m := r.tree.Merges[k]
		a, b := r.leaves(m.A), r.leaves(m.B)
		out := make([]int, 0, len(a)+len(b))
		r.cache[k] = append(append(out, a...), b...)
	}
	return r.cache[k]
}

// absorb marks id and every internal node below it as used.
func (r *resolver) absorb(id int) {
	if id < r.tree.N {
		return
	}
	k := id - r.tree.N
	if r.used[k] {
		return
	}
	r.used[k] = true
	m := r.tree.Merges[k]
	r.absorb(m.A)
	r.absorb(m.B)
}

// CutByHeight walks the merges from the last to the first. A merge above h
// is split: its leaf children become singleton groups and its internal
// children are left to be visited on their own. A merge at or below h that no
// higher merge has absorbed becomes one group holding all its leaves.
// On a monotonic tree the groups partition 0..n-1.
func CutByHeight(tree LinkageTree, h float64) ([][]int, error) {
	if err := tree.Validate(); err != nil {
		return nil, err
	}
	return cut(tree, func(k int) bool { return tree.Merges[k].Height > h }), nil
}

// CutByCount undoes the last k-1 merges, leaving the k clusters alive after
// merge n-k-1. On a tree without tied heights this is the height cut at
// CountHeight; merges tied with that height are still split by rank, so
// exactly k groups come out.
func CutByCount(tree LinkageTree, k int) ([][]int, error) {
	if k < 2 {
		return nil, gerrors.New("CutByCount").Field("ngroup").Validation("at least two groups required, got %d", k)
	}
	if k > tree.N {
		return nil, gerrors.New("CutByCount").Field("ngroup").Validation("%d groups requested from %d leaves", k, tree.N)
	}
	if err := tree.Validate(); err != nil {
		return nil, err
	}
	keep := tree.N - k
	return cut(tree, func(m int) bool { return m >= keep }), nil
}

func cut(tree LinkageTree, split func(k int) bool) [][]int {
	if tree.N == 1 {
		return [][]int{{0}}
	}

	r := newResolver(tree)
	var groups [][]int
	for k := len(tree.Merges) - 1; k >= 0; k-- {
		m := tree.Merges[k]
		if split(k) {
			r.used[k] = true
			for _, child := range []int{m.A, m.B} {
				if child < tree.N {
					groups = append(groups, []int{child})
				}
			}
			continue
		}
		if r.used[k] {
			continue
		}
		id := tree.N + k
		groups = append(groups, r.leaves(id))
		r.absorb(id)
	}
	return groups
}

// CountHeight is the height of the last merge CutByCount keeps for k groups.
// With k = n every merge must be split, so the height is -Inf.
func CountHeight(tree LinkageTree, k int) float64 {
	if k >= tree.N {
		return math.Inf(-1)
	}
	return tree.Merges[tree.N-k-1].Height
}

// Assign maps each of n leaves to its 1-based group number. Leaves no group
// holds get 0.
func Assign(groups [][]int, n int) []int {
	out := make([]int, n)
	for g, leaves := range groups {
		for _, leaf := range leaves {
			if leaf >= 0 && leaf < n {
				out[leaf] = g + 1
			}
		}
	}
	return out
}
