// Package network generates line layers between point nodes. Each mode
// enumerates candidate node pairs, decides inclusion and emits one edge per
// accepted pair to a layer.Sink: adjacency-matrix groups, distance threshold,
// shared attribute value and bipartite pairing.
package network

import (
	"context"
	"fmt"

	"github.com/dd0wney/cluso-geonet/pkg/geometry"
	"github.com/dd0wney/cluso-geonet/pkg/gerrors"
	"github.com/dd0wney/cluso-geonet/pkg/layer"
	"github.com/dd0wney/cluso-geonet/pkg/logging"
	"github.com/dd0wney/cluso-geonet/pkg/metrics"
)

// Mode names, used as metric labels and log fields.
const (
	ModeAdjacent  = "adjacent"
	ModeLength    = "length"
	ModeValue     = "value"
	ModeBipartite = "bipartite"
	ModeVectors   = "vectors"
)

// Endpoint is a node at one end of a generated edge. Side is 1 for nodes of
// the second bipartite input and 0 otherwise; Index is the record position in
// that side's dataset.
type Endpoint struct {
	Side  int
	Index int
}

// EdgeFunc observes an appended edge together with its endpoints.
type EdgeFunc func(e layer.Edge, from, to Endpoint)

// Builder writes generated edges to Sink. The caller owns the sink and closes
// it after the build; a failed build leaves already appended edges in place.
type Builder struct {
	Sink     layer.Sink
	Logger   logging.Logger
	Metrics  *metrics.Registry
	Geodesic bool // measure lengths in meters on the sphere instead of planar units

	// OnEdge, when set, sees every node-to-node edge after it is appended.
	// Vector rays start at a free origin and are not reported.
	OnEdge EdgeFunc
}

// run wraps one build with logging and operation metrics.
type run struct {
	b     *Builder
	ctx   context.Context
	mode  string
	log   logging.Logger
	timer *logging.TimedOperation
	edges int
}

func (b *Builder) start(ctx context.Context, op, mode, name string, schema []geometry.Field) (*run, error) {
	if b.Sink == nil {
		return nil, gerrors.Validationf(op, "builder has no output sink")
	}
	log := logging.OrNop(b.Logger).With(logging.Operation(op), logging.Mode(mode), logging.Layer(name))
	r := &run{b: b, ctx: ctx, mode: mode, log: log, timer: logging.StartTimer(log, op)}
	if err := b.Sink.Create(ctx, name, schema); err != nil {
		return nil, r.finish(op, fmt.Errorf("create layer %s: %w", name, err))
	}
	return r, nil
}

func (r *run) emit(e layer.Edge) error {
	if err := r.ctx.Err(); err != nil {
		return err
	}
	if err := r.b.Sink.Append(r.ctx, e); err != nil {
		return err
	}
	r.edges++
	r.b.Metrics.RecordEdge(r.mode)
	return nil
}

// link emits an edge between two nodes and reports it to OnEdge.
func (r *run) link(e layer.Edge, from, to Endpoint) error {
	if err := r.emit(e); err != nil {
		return err
	}
	if r.b.OnEdge != nil {
		r.b.OnEdge(e, from, to)
	}
	return nil
}

func (r *run) pairs(n int) {
	r.b.Metrics.RecordPairs(r.mode, n)
}

func (r *run) finish(op string, err error) error {
	r.b.Metrics.RecordOperation(op, err, r.timer.Elapsed())
	if err != nil {
		r.timer.EndError(err)
		return err
	}
	r.timer.End(logging.Count(r.edges))
	return nil
}

// keyFieldType picks the column type for node id attributes: Integer when
// every key is integral, String otherwise.
func keyFieldType(keys ...[]geometry.Node) geometry.FieldType {
	for _, nodes := range keys {
		for _, n := range nodes {
			switch k := n.Key.(type) {
			case int, int32, int64, uint32, uint64:
			case float64:
				if k != float64(int64(k)) {
					return geometry.FieldText
				}
			default:
				return geometry.FieldText
			}
		}
	}
	return geometry.FieldInteger
}

// keyValue renders a key for a column of type t.
func keyValue(key any, t geometry.FieldType) any {
	if t == geometry.FieldText {
		return geometry.KeyString(key)
	}
	if f, ok := key.(float64); ok {
		return int64(f)
	}
	return key
}

func checkMaxDistance(op string, maxDist float64) error {
	if maxDist < 0 {
		return gerrors.New(op).Field("max_distance").Validation("must be >= 0 (0 means unbounded), got %g", maxDist)
	}
	return nil
}

func withinDistance(length, maxDist float64) bool {
	return maxDist == 0 || length <= maxDist
}
