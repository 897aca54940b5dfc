// Package layer defines where generated edges go. A Sink is created once
// with its attribute schema and then receives edges one at a time. Sinks never
// modify a layer that already exists: creating over an existing target fails.
package layer

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/dd0wney/cluso-geonet/pkg/geometry"
	"github.com/dd0wney/cluso-geonet/pkg/gerrors"
	"github.com/dd0wney/cluso-geonet/pkg/validation"
	"github.com/paulmach/orb"
)

// Edge is one generated line record.
type Edge struct {
	Line  orb.LineString
	Z, M  []float64 // per-vertex, only when the source nodes carried them
	Attrs map[string]any
}

// Sink receives a single output layer.
type Sink interface {
	// Create declares the layer and its attribute columns.
	Create(ctx context.Context, name string, schema []geometry.Field) error
	// Append writes one edge. Attributes must be declared columns.
	Append(ctx context.Context, e Edge) error
	// Close flushes buffered output.
	Close(ctx context.Context) error
}

// OpenOptions configures sinks created by Open.
type OpenOptions struct {
	Compress   bool   // snappy-compress file and object outputs
	SRID       int    // spatial reference id for PostGIS tables
	S3Region   string // overrides the region from the AWS environment
	S3Endpoint string // S3-compatible endpoint, e.g. a local MinIO
}

// Open chooses a sink for target:
//
//	memory: or ""               in-memory layer
//	s3://bucket/key             object in S3, written on Close
//	postgres://...#table        PostGIS table
//	anything else               GeoJSON file path (".sz" suffix implies compression)
func Open(ctx context.Context, target string, opts OpenOptions) (Sink, error) {
	switch {
	case target == "" || target == "memory:":
		return NewMemory(), nil
	case strings.HasPrefix(target, "s3://"):
		u, err := url.Parse(target)
		if err != nil {
			return nil, fmt.Errorf("invalid s3 target %q: %w", target, err)
		}
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return nil, gerrors.Validationf("Open", "s3 target %q needs a bucket and a key", target)
		}
		return NewS3(ctx, u.Host, key, opts)
	case strings.HasPrefix(target, "postgres://"), strings.HasPrefix(target, "postgresql://"):
		dsn, table, ok := strings.Cut(target, "#")
		if !ok || table == "" {
			return nil, gerrors.Validationf("Open", "postgres target needs a #table suffix")
		}
		return NewPostGIS(ctx, dsn, table, opts.SRID)
	default:
		return NewFile(target, opts.Compress || strings.HasSuffix(target, ".sz")), nil
	}
}

// checkSchema validates column names and rejects duplicates.
func checkSchema(op string, schema []geometry.Field) error {
	seen := make(map[string]bool, len(schema))
	for _, col := range schema {
		if err := validation.FieldName(col.Name); err != nil {
			return gerrors.New(op).Field(col.Name).Cause(gerrors.ErrValidation).Context("%v", err).Err()
		}
		if seen[col.Name] {
			return gerrors.New(op).Field(col.Name).Validation("duplicate column")
		}
		seen[col.Name] = true
	}
	return nil
}

// checkAttrs rejects attributes that were not declared.
func checkAttrs(op string, schema []geometry.Field, attrs map[string]any) error {
	for k := range attrs {
		declared := false
		for _, col := range schema {
			if col.Name == k {
				declared = true
				break
			}
		}
		if !declared {
			return gerrors.New(op).Field(k).Validation("attribute is not a declared column")
		}
	}
	return nil
}

// collector accumulates edges as a polyline dataset for sinks that write a
// whole document at once.
type collector struct {
	ds *geometry.Dataset
}

func (c *collector) create(op, name string, schema []geometry.Field) error {
	if c.ds != nil {
		return gerrors.New(op).Layer(name).Validation("layer already created")
	}
	if err := checkSchema(op, schema); err != nil {
		return err
	}
	c.ds = geometry.NewDataset(name, geometry.TypePolyline, schema...)
	return nil
}

func (c *collector) append(op string, e Edge) error {
	if c.ds == nil {
		return gerrors.Validationf(op, "append before create")
	}
	if err := checkAttrs(op, c.ds.Fields, e.Attrs); err != nil {
		return err
	}
	addEdge(c.ds, c.ds.Len(), e)
	return nil
}

// addEdge appends e as a line feature keyed by key, copying its attributes
// and per-vertex measures.
func addEdge(ds *geometry.Dataset, key any, e Edge) {
	attrs := make(map[string]any, len(e.Attrs))
	for k, v := range e.Attrs {
		attrs[k] = v
	}
	i := ds.Add(key, e.Line, attrs)
	ds.Features[i].VertexZ = e.Z
	ds.Features[i].VertexM = e.M
}
