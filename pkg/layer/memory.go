package layer

import (
	"context"

	"github.com/dd0wney/cluso-geonet/pkg/geometry"
	"github.com/dd0wney/cluso-geonet/pkg/gerrors"
	"github.com/google/uuid"
)

// Memory is an in-memory line layer.
type Memory struct {
	ID     uuid.UUID
	Name   string
	Schema []geometry.Field

	created bool
	edges   []Edge
}

// NewMemory creates an empty in-memory sink with a fresh layer id.
func NewMemory() *Memory {
	return &Memory{ID: uuid.New()}
}

func (m *Memory) Create(_ context.Context, name string, schema []geometry.Field) error {
	if m.created {
		return gerrors.New("Create").Layer(m.Name).Validation("layer already created")
	}
	if err := checkSchema("Create", schema); err != nil {
		return err
	}
	m.Name = name
	m.Schema = append([]geometry.Field(nil), schema...)
	m.created = true
	return nil
}

func (m *Memory) Append(_ context.Context, e Edge) error {
	if !m.created {
		return gerrors.Validationf("Append", "append before create")
	}
	if err := checkAttrs("Append", m.Schema, e.Attrs); err != nil {
		return err
	}
	m.edges = append(m.edges, e)
	return nil
}

func (m *Memory) Close(context.Context) error {
	return nil
}

// Edges returns the appended edges in order.
func (m *Memory) Edges() []Edge {
	return m.edges
}

// Dataset converts the layer to a polyline dataset.
func (m *Memory) Dataset() *geometry.Dataset {
	ds := geometry.NewDataset(m.Name, geometry.TypePolyline, m.Schema...)
	for i, e := range m.edges {
		addEdge(ds, i, e)
	}
	return ds
}
