package geometry

import (
	"fmt"

	"github.com/dd0wney/cluso-geonet/pkg/gerrors"
	"github.com/paulmach/orb"
)

// Dataset is an in-memory vector layer.
type Dataset struct {
	Name     string
	Type     GeometryType
	Fields   []Field
	Features []Feature
}

// NewDataset creates an empty dataset with the given schema.
func NewDataset(name string, typ GeometryType, fields ...Field) *Dataset {
	return &Dataset{Name: name, Type: typ, Fields: fields}
}

// Add appends a feature and returns its index.
func (d *Dataset) Add(key any, g orb.Geometry, attrs map[string]any) int {
	if attrs == nil {
		attrs = make(map[string]any)
	}
	d.Features = append(d.Features, Feature{Key: key, Geometry: g, Attrs: attrs})
	return len(d.Features) - 1
}

// Len returns the number of features, located or not.
func (d *Dataset) Len() int {
	return len(d.Features)
}

// Field returns the named column.
func (d *Dataset) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// HasField reports whether the named column exists.
func (d *Dataset) HasField(name string) bool {
	_, ok := d.Field(name)
	return ok
}

// AddField declares a column. Declaring an existing name replaces its type.
func (d *Dataset) AddField(f Field) {
	for i := range d.Fields {
		if d.Fields[i].Name == f.Name {
			d.Fields[i].Type = f.Type
			return
		}
	}
	d.Fields = append(d.Fields, f)
}

// RequireField returns the named column or a lookup error attributed to op.
func (d *Dataset) RequireField(op, name string) (Field, error) {
	f, ok := d.Field(name)
	if !ok {
		return Field{}, gerrors.New(op).Layer(d.Name).Field(name).Lookup("field %s not found", name)
	}
	return f, nil
}

// RequireType fails with a validation error unless the dataset has type typ.
func (d *Dataset) RequireType(op string, typ GeometryType) error {
	if d.Type != typ {
		return gerrors.New(op).Layer(d.Name).Validation("expected %s geometry, got %q", typ, d.Type)
	}
	return nil
}

// UpdateAttribute sets one attribute of one record.
func (d *Dataset) UpdateAttribute(index int, field string, value any) error {
	if !d.HasField(field) {
		return gerrors.New("UpdateAttribute").Layer(d.Name).Field(field).Lookup("field %s not found", field)
	}
	if index < 0 || index >= len(d.Features) {
		return gerrors.New("UpdateAttribute").Layer(d.Name).Validation("record %d out of range", index)
	}
	if d.Features[index].Attrs == nil {
		d.Features[index].Attrs = make(map[string]any)
	}
	d.Features[index].Attrs[field] = value
	return nil
}

// Values returns the named attribute of every record in order.
func (d *Dataset) Values(field string) ([]any, error) {
	if !d.HasField(field) {
		return nil, gerrors.New("Values").Layer(d.Name).Field(field).Lookup("field %s not found", field)
	}
	out := make([]any, len(d.Features))
	for i, f := range d.Features {
		out[i] = f.Attrs[field]
	}
	return out, nil
}

// Extent returns the bounding box of every located feature.
func (d *Dataset) Extent() orb.Bound {
	var b orb.Bound
	first := true
	for _, f := range d.Features {
		if f.Geometry == nil {
			continue
		}
		if first {
			b = f.Geometry.Bound()
			first = false
			continue
		}
		b = b.Union(f.Geometry.Bound())
	}
	return b
}

// Points snapshots every located feature as a Node, in dataset order. The
// returned count is the number of records skipped for having no geometry.
func (d *Dataset) Points() ([]Node, int) {
	nodes := make([]Node, 0, len(d.Features))
	skipped := 0
	for i, f := range d.Features {
		pt, ok := FirstPoint(f.Geometry)
		if !ok {
			skipped++
			continue
		}
		key := f.Key
		if key == nil {
			key = i
		}
		nodes = append(nodes, Node{Index: i, Key: key, Point: pt, Z: f.Z, M: f.M, Attrs: f.Attrs})
	}
	return nodes, skipped
}

// Polygons wraps every record as a Polygon, keeping dataset order so results
// can be written back by index. Records without a shape become empty polygons.
func (d *Dataset) Polygons() ([]Polygon, error) {
	out := make([]Polygon, len(d.Features))
	for i, f := range d.Features {
		p, ok := NewPolygon(i, f.Key, f.Geometry)
		if !ok {
			return nil, gerrors.New("Polygons").Layer(d.Name).Validation("record %d is %T, not a polygon", i, f.Geometry)
		}
		out[i] = p
	}
	return out, nil
}

// Offset moves every located point feature by (dx, dy).
func (d *Dataset) Offset(dx, dy float64) error {
	if err := d.RequireType("Offset", TypePoint); err != nil {
		return err
	}
	for i, f := range d.Features {
		if pt, ok := f.Geometry.(orb.Point); ok {
			d.Features[i].Geometry = orb.Point{pt[0] + dx, pt[1] + dy}
		}
	}
	return nil
}

// WriteXY stores each feature's centroid coordinates into fieldX and fieldY,
// declaring both as double columns.
func (d *Dataset) WriteXY(fieldX, fieldY string) {
	d.AddField(Field{Name: fieldX, Type: FieldDouble})
	d.AddField(Field{Name: fieldY, Type: FieldDouble})
	for i, f := range d.Features {
		if f.Geometry == nil {
			continue
		}
		c := Centroid(f.Geometry)
		if d.Features[i].Attrs == nil {
			d.Features[i].Attrs = make(map[string]any)
		}
		d.Features[i].Attrs[fieldX] = c[0]
		d.Features[i].Attrs[fieldY] = c[1]
	}
}

// KeyString renders a node key for use in text attributes.
func KeyString(key any) string {
	switch k := key.(type) {
	case float64:
		if k == float64(int64(k)) {
			return fmt.Sprintf("%d", int64(k))
		}
	}
	return fmt.Sprint(key)
}
