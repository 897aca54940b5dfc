// Package distance builds the composite geo-semantic relationship between
// settlements: a geographic closeness term that decays by an order of
// magnitude every DistBase units, blended with the Jaccard similarity of
// their category tokens.
package distance

import (
	"fmt"
	"math"
	"strings"

	"github.com/dd0wney/cluso-geonet/pkg/geometry"
	"github.com/dd0wney/cluso-geonet/pkg/gerrors"
	"github.com/dd0wney/cluso-geonet/pkg/parallel"
	"github.com/dd0wney/cluso-geonet/pkg/validation"
	"gonum.org/v1/gonum/mat"
)

// DefaultSeparator splits category token strings such as "3-12-7".
const DefaultSeparator = "-"

// Options configures Composite.
type Options struct {
	DistBase  float64 `validate:"gt=0"`         // distance at which closeness drops to 0.1
	Phi       float64 `validate:"gte=0,lte=1"` // weight of closeness against token similarity
	Geodesic  bool
	Separator string
	Workers   int `validate:"gte=0"` // goroutines filling matrix rows; 0 means GOMAXPROCS
}

// DecodeTokens splits s on sep into a token set, dropping empty tokens.
func DecodeTokens(s, sep string) map[string]struct{} {
	if sep == "" {
		sep = DefaultSeparator
	}
	set := make(map[string]struct{})
	for _, tok := range strings.Split(s, sep) {
		if tok != "" {
			set[tok] = struct{}{}
		}
	}
	return set
}

// Jaccard returns |a∩b| / |a∪b|, or 0 when both sets are empty.
func Jaccard(a, b map[string]struct{}) float64 {
	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// GeoDecay maps a distance d to exp(ln10 * d / -d0): 1 at d = 0 and 0.1 at
// d = d0.
func GeoDecay(d, d0 float64) float64 {
	return math.Exp(math.Ln10 * d / -d0)
}

// Composite returns R[i][j] = Phi*G[i][j] + (1-Phi)*S[i][j] over the located
// records of ds, in record order, where G is the GeoDecay of the node
// distance and S the Jaccard similarity of the field's tokens. The returned
// nodes give the record behind each row.
func Composite(ds *geometry.Dataset, field string, opts Options) (*mat.SymDense, []geometry.Node, error) {
	const op = "ComprehensiveRelationship"
	if err := validation.Struct(opts); err != nil {
		return nil, nil, gerrors.New(op).Cause(gerrors.ErrValidation).Context("%v", err).Err()
	}
	if _, ok := ds.Field(field); !ok {
		return nil, nil, gerrors.New(op).Layer(ds.Name).Field(field).Missing("field %s not found", field)
	}

	nodes, _ := ds.Points()
	n := len(nodes)
	if n == 0 {
		return nil, nil, gerrors.New(op).Layer(ds.Name).Validation("no located records")
	}
	tokens := make([]map[string]struct{}, n)
	for i, node := range nodes {
		tokens[i] = DecodeTokens(tokenString(node.Attrs[field]), opts.Separator)
	}

	// each row owns the upper triangle cells (i, j>=i)
	r := mat.NewSymDense(n, nil)
	err := parallel.Rows(n, opts.Workers, func(i int) {
		for j := i; j < n; j++ {
			g := GeoDecay(geometry.Length(nodes[i].Point, nodes[j].Point, opts.Geodesic), opts.DistBase)
			s := Jaccard(tokens[i], tokens[j])
			r.SetSym(i, j, opts.Phi*g+(1-opts.Phi)*s)
		}
	})
	if err != nil {
		return nil, nil, gerrors.New(op).Layer(ds.Name).Cause(err).Err()
	}
	return r, nodes, nil
}

// Dissimilarity returns 1 - R element-wise. For a relationship matrix whose
// self-closeness and self-similarity are both 1 the diagonal is 0.
func Dissimilarity(r mat.Symmetric) *mat.SymDense {
	n := r.SymmetricDim()
	d := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			d.SetSym(i, j, 1-r.At(i, j))
		}
	}
	return d
}

func tokenString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	default:
		return fmt.Sprint(s)
	}
}
