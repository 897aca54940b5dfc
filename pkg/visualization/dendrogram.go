package visualization

import (
	"github.com/dd0wney/cluso-geonet/pkg/cluster"
)

// Leaf slots are leafSpacing apart, the first centred at leafSpacing/2.
const leafSpacing = 10.0

// Bracket is the link drawn for one merge. X and Y trace it up from the left
// child, across at the merge height and down to the right child.
type Bracket struct {
	X [4]float64 `json:"x"`
	Y [4]float64 `json:"y"`
}

// DendrogramData is everything needed to draw a dendrogram.
type DendrogramData struct {
	Leaves   []int     `json:"leaves"` // leaf ids, left to right
	Labels   []string  `json:"labels,omitempty"`
	Brackets []Bracket `json:"brackets"` // in merge order
}

// Dendrogram lays out tree with the first child of every merge on the left.
// labels, when given, are indexed by leaf id and reordered to match Leaves.
func Dendrogram(tree cluster.LinkageTree, labels []string) (*DendrogramData, error) {
	if err := tree.Validate(); err != nil {
		return nil, err
	}
	n := tree.N
	x := make([]float64, 2*n-1) // horizontal anchor per cluster id
	y := make([]float64, 2*n-1) // height per cluster id

	data := &DendrogramData{Leaves: make([]int, 0, n)}
	// explicit stack, root first, left child popped first
	stack := []int{2*n - 2}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id < n {
			x[id] = leafSpacing/2 + leafSpacing*float64(len(data.Leaves))
			data.Leaves = append(data.Leaves, id)
			continue
		}
		m := tree.Merges[id-n]
		stack = append(stack, m.B, m.A)
	}

	data.Brackets = make([]Bracket, len(tree.Merges))
	for k, m := range tree.Merges {
		id := n + k
		x[id] = (x[m.A] + x[m.B]) / 2
		y[id] = m.Height
		data.Brackets[k] = Bracket{
			X: [4]float64{x[m.A], x[m.A], x[m.B], x[m.B]},
			Y: [4]float64{y[m.A], m.Height, m.Height, y[m.B]},
		}
	}

	if labels != nil {
		data.Labels = make([]string, len(data.Leaves))
		for i, leaf := range data.Leaves {
			if leaf < len(labels) {
				data.Labels[i] = labels[leaf]
			}
		}
	}
	return data, nil
}
