package cluster

import (
	"github.com/dd0wney/cluso-geonet/pkg/distance"
	"github.com/dd0wney/cluso-geonet/pkg/geometry"
	"github.com/dd0wney/cluso-geonet/pkg/gerrors"
	"github.com/dd0wney/cluso-geonet/pkg/logging"
	"github.com/dd0wney/cluso-geonet/pkg/metrics"
	"gonum.org/v1/gonum/mat"
)

// Options configures Comprehensive.
type Options struct {
	Distance distance.Options
	NGroup   int    // groups to cut into; 0 builds the tree only
	OutField string // Integer field receiving each record's 1-based group
}

// Result is the outcome of a comprehensive clustering run. Row i of every
// matrix and leaf i of the tree is Nodes[i].
type Result struct {
	Nodes        []geometry.Node
	Relationship *mat.SymDense
	Tree         LinkageTree
	Groups       [][]int
	Assignment   []int // per leaf, 1-based; nil unless NGroup was set
}

// Clusterer runs the relationship, linkage and partition steps with logging
// and metrics. The zero value is ready to use.
type Clusterer struct {
	Logger  logging.Logger
	Metrics *metrics.Registry
}

// Comprehensive is Clusterer{}.Comprehensive.
func Comprehensive(ds *geometry.Dataset, field string, opts Options) (*Result, error) {
	return (&Clusterer{}).Comprehensive(ds, field, opts)
}

// Comprehensive clusters the located records of ds by their composite
// geo-semantic dissimilarity. When NGroup is set the tree is cut into that
// many groups, and when OutField is set too each record's group number is
// written there. Unlocated records are left untouched.
func (c *Clusterer) Comprehensive(ds *geometry.Dataset, field string, opts Options) (*Result, error) {
	const op = "ComprehensiveHCA"
	log := logging.OrNop(c.Logger).With(logging.Operation(op), logging.Layer(ds.Name))
	timer := logging.StartTimer(log, op)

	res, err := c.comprehensive(ds, field, opts, log)
	c.Metrics.RecordOperation(op, err, timer.Elapsed())
	if err != nil {
		timer.EndError(err)
		return nil, err
	}
	c.Metrics.SetClusterResult(res.Tree.N, len(res.Groups))
	timer.End(logging.Leaves(res.Tree.N), logging.Groups(len(res.Groups)))
	return res, nil
}

func (c *Clusterer) comprehensive(ds *geometry.Dataset, field string, opts Options, log logging.Logger) (*Result, error) {
	const op = "ComprehensiveHCA"
	if opts.NGroup < 0 || opts.NGroup == 1 {
		return nil, gerrors.New(op).Field("ngroup").Validation("at least two groups required, got %d", opts.NGroup)
	}
	if opts.OutField != "" {
		if _, err := ds.RequireField(op, opts.OutField); err != nil {
			return nil, err
		}
	}

	rel, nodes, err := distance.Composite(ds, field, opts.Distance)
	if err != nil {
		return nil, err
	}
	tree, err := Ward(distance.Dissimilarity(rel))
	if err != nil {
		return nil, err
	}
	if !tree.Monotonic() {
		log.Warn("linkage heights decrease; groups may overlap")
	}
	res := &Result{Nodes: nodes, Relationship: rel, Tree: tree}
	if opts.NGroup == 0 {
		return res, nil
	}

	res.Groups, err = CutByCount(tree, opts.NGroup)
	if err != nil {
		return nil, err
	}
	if len(res.Groups) != opts.NGroup {
		log.Warn("cut produced a different number of groups",
			logging.Int("requested", opts.NGroup), logging.Groups(len(res.Groups)))
	}
	res.Assignment = Assign(res.Groups, tree.N)
	if opts.OutField == "" {
		return res, nil
	}
	for leaf, g := range res.Assignment {
		if err := ds.UpdateAttribute(nodes[leaf].Index, opts.OutField, g); err != nil {
			return nil, err
		}
	}
	log.Debug("wrote group assignment", logging.Column(opts.OutField), logging.Count(len(res.Assignment)))
	return res, nil
}
