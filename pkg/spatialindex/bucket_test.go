package spatialindex

import (
	"math/rand"
	"testing"

	"github.com/dd0wney/cluso-geonet/pkg/geometry"
	"github.com/dd0wney/cluso-geonet/pkg/gerrors"
	"github.com/dd0wney/cluso-geonet/pkg/metrics"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/paulmach/orb"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rect(x0, y0, w, h float64) orb.Polygon {
	return orb.Polygon{orb.Ring{{x0, y0}, {x0 + w, y0}, {x0 + w, y0 + h}, {x0, y0 + h}, {x0, y0}}}
}

func regions(polys ...orb.Polygon) *geometry.Dataset {
	ds := geometry.NewDataset("regions", geometry.TypePolygon,
		geometry.Field{Name: "cnt", Type: geometry.FieldInteger},
		geometry.Field{Name: "code", Type: geometry.FieldText},
		geometry.Field{Name: "area", Type: geometry.FieldDouble},
	)
	for i, p := range polys {
		ds.Add(i+100, p, map[string]any{"code": string(rune('a' + i))})
	}
	return ds
}

func pointLayer(pts ...orb.Point) *geometry.Dataset {
	ds := geometry.NewDataset("photos", geometry.TypePoint, geometry.Field{Name: "inside", Type: geometry.FieldText})
	for _, p := range pts {
		ds.Add(nil, p, nil)
	}
	return ds
}

func TestBuild_Shape(t *testing.T) {
	// widths 2 and 4 give a mean of 3; total span 10 gives ceil(10/3)+1 = 5 buckets
	polys, err := regions(rect(0, 0, 2, 1), rect(6, 0, 4, 1)).Polygons()
	require.NoError(t, err)

	idx := Build(polys)
	xb, yb := idx.Shape()
	assert.Equal(t, 5, xb)
	assert.Equal(t, 2, yb)

	c, ok := idx.Candidates(orb.Point{1, 0.5})
	assert.True(t, ok)
	assert.Equal(t, []int{0}, c)

	c, ok = idx.Candidates(orb.Point{8, 0.5})
	assert.True(t, ok)
	assert.Equal(t, []int{1}, c)

	_, ok = idx.Candidates(orb.Point{50, 0.5})
	assert.False(t, ok, "point beyond the last bucket has no candidates")

	assert.Equal(t, []int{1}, idx.Containing(orb.Point{7, 0.5}))
}

func TestBuild_Empty(t *testing.T) {
	idx := Build(nil)
	_, ok := idx.Candidates(orb.Point{0, 0})
	assert.False(t, ok)
}

func TestBuild_DegenerateAxis(t *testing.T) {
	line := orb.Polygon{orb.Ring{{0, 0}, {0, 5}, {0, 0}}}
	polys := []geometry.Polygon{}
	for i, g := range []orb.Polygon{line, rect(3, 0, 0, 2)} {
		p, _ := geometry.NewPolygon(i, i, g)
		polys = append(polys, p)
	}
	idx := Build(polys)
	xb, _ := idx.Shape()
	assert.Equal(t, 1, xb, "zero mean width collapses X to a single bucket")
}

func TestCount(t *testing.T) {
	polys := regions(rect(0, 0, 2, 2), rect(2, 0, 2, 2), rect(10, 10, 3, 3), rect(1, 1, 2, 2))
	points := pointLayer(
		orb.Point{0.5, 0.5},
		orb.Point{1.5, 1.5}, // also inside the overlapping fourth rectangle
		orb.Point{3.5, 0.5},
		orb.Point{11, 12},
		orb.Point{-5, -5},
	)
	points.Add(nil, nil, nil)

	reg := metrics.NewRegistry()
	counts, err := (&Counter{Metrics: reg}).Count(points, polys, "cnt")
	require.NoError(t, err)

	assert.Equal(t, []int{2, 1, 1, 1}, counts)
	vals, _ := polys.Values("cnt")
	assert.Equal(t, []any{2, 1, 1, 1}, vals)

	var m dto.Metric
	c, err := reg.PointsCountedTotal.GetMetricWithLabelValues("skipped_null")
	require.NoError(t, err)
	require.NoError(t, c.Write(&m))
	assert.Equal(t, 1.0, m.Counter.GetValue())
}

func TestCount_Validation(t *testing.T) {
	polys := regions(rect(0, 0, 1, 1))
	points := pointLayer(orb.Point{0.5, 0.5})

	tests := []struct {
		name     string
		points   *geometry.Dataset
		polygons *geometry.Dataset
		field    string
		lookup   bool
	}{
		{name: "points are polygons", points: polys, polygons: polys, field: "cnt"},
		{name: "polygons are points", points: points, polygons: points, field: "cnt"},
		{name: "missing counter", points: points, polygons: polys, field: "nope", lookup: true},
		{name: "text counter", points: points, polygons: polys, field: "code"},
		{name: "double counter", points: points, polygons: polys, field: "area"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Count(tt.points, tt.polygons, tt.field)
			require.Error(t, err)
			assert.True(t, gerrors.IsValidation(err), "expected validation error, got %v", err)
			if tt.lookup {
				assert.True(t, gerrors.IsLookup(err))
			}
		})
	}
}

func TestRecord(t *testing.T) {
	polys := regions(rect(0, 0, 2, 2), rect(1, 1, 2, 2))
	points := pointLayer(orb.Point{1.5, 1.5}, orb.Point{0.5, 0.5}, orb.Point{9, 9})
	points.Add(nil, nil, nil)

	require.NoError(t, Record(points, polys, "inside", "code"))
	vals, _ := points.Values("inside")
	assert.Equal(t, []any{",a,b,", ",a,", ",", ","}, vals)

	require.NoError(t, Record(points, polys, "inside", ""))
	vals, _ = points.Values("inside")
	assert.Equal(t, ",100,101,", vals[0])

	assert.True(t, gerrors.IsLookup(Record(points, polys, "missing", "")))
	assert.True(t, gerrors.IsLookup(Record(points, polys, "inside", "missing")))
}

// TestIndexMatchesNaiveScan checks that the index changes performance only:
// counts equal the exhaustive scan for random layouts.
func TestIndexMatchesNaiveScan(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("bucket count equals naive count", prop.ForAll(
		func(seed int64, nPolys, nPoints int) bool {
			rng := rand.New(rand.NewSource(seed))
			var shapes []orb.Polygon
			for i := 0; i < nPolys; i++ {
				shapes = append(shapes, rect(rng.Float64()*100, rng.Float64()*100, 0.5+rng.Float64()*20, 0.5+rng.Float64()*20))
			}
			polys := regions(shapes...)
			var pts []orb.Point
			for i := 0; i < nPoints; i++ {
				pts = append(pts, orb.Point{rng.Float64()*130 - 5, rng.Float64()*130 - 5})
			}

			got, err := Count(pointLayer(pts...), polys, "cnt")
			if err != nil {
				return false
			}
			wrapped, _ := polys.Polygons()
			want := NaiveCount(pts, wrapped)
			for i := range want {
				if got[i] != want[i] {
					return false
				}
			}
			return true
		},
		gen.Int64(),
		gen.IntRange(1, 25),
		gen.IntRange(0, 200),
	))

	properties.TestingRun(t)
}
