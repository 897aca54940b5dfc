package geometry

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dd0wney/cluso-geonet/pkg/gerrors"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// schemaMember is the FeatureCollection foreign member carrying declared
// field types, so integer columns survive a round trip through JSON numbers.
const schemaMember = "fields"

// Z and M travel as per-feature foreign members: a number on point features
// and an array with one value per vertex on line features.
const (
	zMember = "z"
	mMember = "m"
)

// LoadGeoJSON reads a FeatureCollection file. The dataset is named after the
// file without its extension.
func LoadGeoJSON(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return DecodeGeoJSON(name, data)
}

// DecodeGeoJSON builds a dataset from FeatureCollection bytes. Field types are
// taken from a "fields" foreign member when present and inferred otherwise.
func DecodeGeoJSON(name string, data []byte) (*Dataset, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, gerrors.New("DecodeGeoJSON").Layer(name).Cause(err).Err()
	}

	ds := &Dataset{Name: name}
	for i, f := range fc.Features {
		typ := typeOf(f.Geometry)
		if typ != TypeUnknown {
			if ds.Type == TypeUnknown {
				ds.Type = typ
			} else if ds.Type != typ {
				return nil, gerrors.New("DecodeGeoJSON").Layer(name).Validation("feature %d is %s in a %s layer", i, typ, ds.Type)
			}
		}
		attrs := make(map[string]any, len(f.Properties))
		for k, v := range f.Properties {
			attrs[k] = v
		}
		ds.Features = append(ds.Features, Feature{Key: f.ID, Geometry: f.Geometry, Attrs: attrs})
	}

	if err := decodeMeasures(data, ds.Features); err != nil {
		return nil, gerrors.New("DecodeGeoJSON").Layer(name).Cause(err).Err()
	}

	declared := declaredFields(fc.ExtraMembers)
	for _, fieldName := range attributeNames(ds.Features, declared) {
		typ, ok := declared[fieldName]
		if !ok {
			typ = inferType(ds.Features, fieldName)
		}
		ds.Fields = append(ds.Fields, Field{Name: fieldName, Type: typ})
	}
	return ds, nil
}

type featureDoc struct {
	ID         any               `json:"id,omitempty"`
	Type       string            `json:"type"`
	Geometry   *geojson.Geometry `json:"geometry"`
	Properties map[string]any    `json:"properties"`
	Z          any               `json:"z,omitempty"`
	M          any               `json:"m,omitempty"`
}

// measureDoc picks the Z and M members that orb's Feature does not keep.
type measureDoc struct {
	Features []struct {
		Z json.RawMessage `json:"z"`
		M json.RawMessage `json:"m"`
	} `json:"features"`
}

func decodeMeasures(data []byte, features []Feature) error {
	var doc measureDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	for i := range doc.Features {
		if i >= len(features) {
			break
		}
		f := &features[i]
		if err := decodeMeasure(doc.Features[i].Z, zMember, &f.Z, &f.VertexZ); err != nil {
			return fmt.Errorf("feature %d: %w", i, err)
		}
		if err := decodeMeasure(doc.Features[i].M, mMember, &f.M, &f.VertexM); err != nil {
			return fmt.Errorf("feature %d: %w", i, err)
		}
	}
	return nil
}

func decodeMeasure(raw json.RawMessage, member string, scalar **float64, vertex *[]float64) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err == nil {
		*scalar = &v
		return nil
	}
	var vs []float64
	if err := json.Unmarshal(raw, &vs); err != nil {
		return fmt.Errorf("member %q is neither a number nor a number array", member)
	}
	*vertex = vs
	return nil
}

func encodeMeasure(scalar *float64, vertex []float64) any {
	if scalar != nil {
		return *scalar
	}
	if len(vertex) > 0 {
		return vertex
	}
	return nil
}

type collectionDoc struct {
	Type     string               `json:"type"`
	Fields   map[string]FieldType `json:"fields,omitempty"`
	Features []featureDoc         `json:"features"`
}

// EncodeGeoJSON writes the dataset as a FeatureCollection, including the
// declared field types. Unlocated records are written with a null geometry.
func (d *Dataset) EncodeGeoJSON(w io.Writer) error {
	doc := collectionDoc{
		Type:     "FeatureCollection",
		Fields:   make(map[string]FieldType, len(d.Fields)),
		Features: make([]featureDoc, 0, len(d.Features)),
	}
	for _, f := range d.Fields {
		doc.Fields[f.Name] = f.Type
	}
	for _, f := range d.Features {
		fd := featureDoc{
			ID:         f.Key,
			Type:       "Feature",
			Properties: f.Attrs,
			Z:          encodeMeasure(f.Z, f.VertexZ),
			M:          encodeMeasure(f.M, f.VertexM),
		}
		if f.Geometry != nil {
			fd.Geometry = geojson.NewGeometry(f.Geometry)
		}
		if fd.Properties == nil {
			fd.Properties = map[string]any{}
		}
		doc.Features = append(doc.Features, fd)
	}
	return json.NewEncoder(w).Encode(doc)
}

// SaveGeoJSON writes the dataset to path.
func (d *Dataset) SaveGeoJSON(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := d.EncodeGeoJSON(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func typeOf(g orb.Geometry) GeometryType {
	switch g.(type) {
	case orb.Point, orb.MultiPoint:
		return TypePoint
	case orb.LineString, orb.MultiLineString:
		return TypePolyline
	case orb.Polygon, orb.MultiPolygon:
		return TypePolygon
	default:
		return TypeUnknown
	}
}

func declaredFields(extra geojson.Properties) map[string]FieldType {
	out := make(map[string]FieldType)
	raw, ok := extra[schemaMember].(map[string]any)
	if !ok {
		return out
	}
	for name, v := range raw {
		if s, ok := v.(string); ok {
			out[name] = FieldType(s)
		}
	}
	return out
}

func attributeNames(features []Feature, declared map[string]FieldType) []string {
	seen := make(map[string]bool)
	for name := range declared {
		seen[name] = true
	}
	for _, f := range features {
		for k := range f.Attrs {
			seen[k] = true
		}
	}
	names := make([]string, 0, len(seen))
	for k := range seen {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// inferType picks Integer when every non-null value is a whole number, Double
// for other numbers and String otherwise.
func inferType(features []Feature, field string) FieldType {
	typ := FieldInteger
	for _, f := range features {
		switch v := f.Attrs[field].(type) {
		case nil:
		case float64:
			if v != math.Trunc(v) {
				typ = FieldDouble
			}
		case int, int64:
		default:
			return FieldText
		}
	}
	return typ
}
