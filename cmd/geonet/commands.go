package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/dd0wney/cluso-geonet/pkg/binning"
	"github.com/dd0wney/cluso-geonet/pkg/cluster"
	"github.com/dd0wney/cluso-geonet/pkg/distance"
	"github.com/dd0wney/cluso-geonet/pkg/geometry"
	"github.com/dd0wney/cluso-geonet/pkg/layer"
	"github.com/dd0wney/cluso-geonet/pkg/logging"
	"github.com/dd0wney/cluso-geonet/pkg/matrix"
	"github.com/dd0wney/cluso-geonet/pkg/network"
	"github.com/dd0wney/cluso-geonet/pkg/spatialindex"
	"github.com/dd0wney/cluso-geonet/pkg/visualization"
	"github.com/paulmach/orb"
)

func runCount(_ context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("count", flag.ContinueOnError)
	points := fs.String("points", "", "point layer (GeoJSON)")
	polygons := fs.String("polygons", "", "polygon layer (GeoJSON)")
	field := fs.String("field", "count", "Integer counter field on the polygon layer")
	out := fs.String("out", "", "write the updated polygon layer here")
	if err := fs.Parse(args); err != nil {
		return err
	}
	pts, polys, err := loadPair(*points, *polygons, "-points", "-polygons")
	if err != nil {
		return err
	}
	if !polys.HasField(*field) {
		polys.AddField(geometry.Field{Name: *field, Type: geometry.FieldInteger})
	}

	c := &spatialindex.Counter{Logger: a.log, Metrics: a.metrics}
	counts, err := c.Count(pts, polys, *field)
	if err != nil {
		return err
	}
	if *out != "" {
		return polys.SaveGeoJSON(*out)
	}
	rows := make([][]string, len(counts))
	for i, n := range counts {
		rows[i] = []string{geometry.KeyString(polys.Features[i].Key), strconv.Itoa(n)}
	}
	return printTable(os.Stdout, a.pretty, "points per "+polys.Name, []string{"polygon", *field}, rows)
}

func runRecord(_ context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("record", flag.ContinueOnError)
	points := fs.String("points", "", "point layer (GeoJSON)")
	regions := fs.String("regions", "", "polygon layer (GeoJSON)")
	field := fs.String("field", "regions", "Text field receiving ,id1,id2,")
	idField := fs.String("id", "", "polygon id field (default: feature id)")
	out := fs.String("out", "", "write the updated point layer here (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *out == "" {
		return fmt.Errorf("-out is required")
	}
	pts, regs, err := loadPair(*points, *regions, "-points", "-regions")
	if err != nil {
		return err
	}
	if !pts.HasField(*field) {
		pts.AddField(geometry.Field{Name: *field, Type: geometry.FieldText})
	}
	if err := spatialindex.Record(pts, regs, *field, *idField); err != nil {
		return err
	}
	a.log.Info("recorded containing regions", logging.Layer(pts.Name), logging.Count(pts.Len()))
	return pts.SaveGeoJSON(*out)
}

func runNetwork(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("network needs a mode: adjacent, length, value or bipartite")
	}
	mode, args := args[0], args[1:]

	fs := flag.NewFlagSet("network "+mode, flag.ContinueOnError)
	nodesPath := fs.String("nodes", "", "node layer (GeoJSON)")
	out := fs.String("out", "", "output target: file path, s3://bucket/key, postgres://...#table or memory:")
	name := fs.String("name", mode+"_edges", "output layer name")
	vizPath := fs.String("viz", "", "also write a layout JSON of the generated network here")
	layoutName := fs.String("layout", "geographic", "layout for -viz: geographic, circular or force")
	maxDist := fs.Float64("max-dist", a.cfg.Network.MaxDistance, "maximum edge length, 0 for unbounded")
	geodesic := fs.Bool("geodesic", a.cfg.Network.Geodesic, "measure lengths on the sphere in meters")

	// mode specific
	matrixPath := fs.String("matrix", "", "adjacent: adjacency matrix CSV")
	groupSep := fs.String("group-sep", "", "adjacent: match node keys containing <sep>i<sep> instead of equal to i")
	field := fs.String("field", "", "value: attribute that links equal records")
	otherPath := fs.String("other", "", "bipartite: second node layer")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *nodesPath == "" {
		return fmt.Errorf("-nodes is required")
	}
	ds, err := geometry.LoadGeoJSON(*nodesPath)
	if err != nil {
		return err
	}
	nodes, skipped := ds.Points()
	if skipped > 0 {
		a.log.Warn("skipping unlocated nodes", logging.Layer(ds.Name), logging.Count(skipped))
	}

	sets := [][]geometry.Node{nodes}
	var build func(b *network.Builder) error
	switch mode {
	case network.ModeAdjacent:
		if *matrixPath == "" {
			return fmt.Errorf("-matrix is required")
		}
		adj, err := matrix.LoadFile(*matrixPath)
		if err != nil {
			return err
		}
		opts := network.AdjacentOptions{MaxDistance: *maxDist}
		if *groupSep != "" {
			opts.Criterion = network.GroupContains(*groupSep)
		}
		build = func(b *network.Builder) error { return b.Adjacent(ctx, *name, nodes, adj, opts) }
	case network.ModeLength:
		build = func(b *network.Builder) error { return b.ByLength(ctx, *name, nodes, *maxDist) }
	case network.ModeValue:
		build = func(b *network.Builder) error { return b.ByValue(ctx, *name, ds, *field) }
	case network.ModeBipartite:
		if *otherPath == "" {
			return fmt.Errorf("-other is required")
		}
		other, err := geometry.LoadGeoJSON(*otherPath)
		if err != nil {
			return err
		}
		var criterion network.PairCriterion
		if *maxDist > 0 {
			limit, geo := *maxDist, *geodesic
			criterion = func(_, _ []any, line orb.LineString) bool {
				return geometry.LineLength(line, geo) <= limit
			}
		}
		otherNodes, _ := other.Points()
		sets = append(sets, otherNodes)
		side1 := network.BipartiteInput{Dataset: ds}
		side2 := network.BipartiteInput{Dataset: other}
		build = func(b *network.Builder) error { return b.Bipartite(ctx, *name, side1, side2, criterion, nil) }
	default:
		return fmt.Errorf("unknown network mode %q", mode)
	}

	sink, closeSink, err := a.openSink(ctx, *out)
	if err != nil {
		return err
	}
	b := &network.Builder{Sink: sink, Logger: a.log, Metrics: a.metrics, Geodesic: *geodesic}
	var g *visualization.Graph
	if *vizPath != "" {
		g = visualization.NewGraph(sets...)
		b.OnEdge = func(e layer.Edge, from, to network.Endpoint) {
			g.Connect(from.Side, from.Index, to.Side, to.Index, visualization.EdgeWeight(e))
		}
	}
	if err := build(b); err != nil {
		closeSink()
		return err
	}
	if err := closeSink(); err != nil {
		return err
	}
	if err := a.printMemory(os.Stdout, sink); err != nil {
		return err
	}
	if g == nil {
		return nil
	}
	return writeLayout(*vizPath, *layoutName, g)
}

func runVectors(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("vectors", flag.ContinueOnError)
	points := fs.String("points", "", "point layer (GeoJSON)")
	originFlag := fs.String("origin", "", "ray origin as x,y")
	field := fs.String("field", "", "attribute copied onto every ray")
	length := fs.Float64("length", -1, "rescale every ray to this planar length (negative keeps the original)")
	out := fs.String("out", "", "output target")
	name := fs.String("name", "vectors", "output layer name")
	if err := fs.Parse(args); err != nil {
		return err
	}
	origin, err := parsePoint(*originFlag)
	if err != nil {
		return err
	}
	ds, err := geometry.LoadGeoJSON(*points)
	if err != nil {
		return err
	}
	var lp *float64
	if *length >= 0 {
		lp = length
	}

	sink, closeSink, err := a.openSink(ctx, *out)
	if err != nil {
		return err
	}
	b := &network.Builder{Sink: sink, Logger: a.log, Metrics: a.metrics}
	if err := b.Vectors(ctx, *name, ds, origin, *field, lp); err != nil {
		closeSink()
		return err
	}
	if err := closeSink(); err != nil {
		return err
	}
	return a.printMemory(os.Stdout, sink)
}

func runRelationship(_ context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("relationship", flag.ContinueOnError)
	points := fs.String("points", "", "point layer (GeoJSON)")
	field := fs.String("field", "", "category token field, e.g. \"3-12-7\"")
	out := fs.String("out", "", "CSV file (default: stdout)")
	dissimilar := fs.Bool("dissimilarity", false, "write 1-R instead of R")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ds, err := geometry.LoadGeoJSON(*points)
	if err != nil {
		return err
	}
	r, nodes, err := distance.Composite(ds, *field, a.distanceOptions())
	if err != nil {
		return err
	}
	a.log.Info("relationship matrix built", logging.Layer(ds.Name), logging.Count(len(nodes)))

	m := r
	if *dissimilar {
		m = distance.Dissimilarity(r)
	}
	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return distance.WriteCSV(w, m)
}

func runCluster(_ context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("cluster", flag.ContinueOnError)
	points := fs.String("points", "", "point layer (GeoJSON)")
	field := fs.String("field", "", "category token field")
	ngroup := fs.Int("ngroup", a.cfg.Cluster.NGroup, "number of groups, 0 for the tree only")
	outField := fs.String("out-field", "group", "Integer field receiving the 1-based group")
	out := fs.String("out", "", "write the updated point layer here")
	dendro := fs.String("dendrogram", "", "write dendrogram JSON here")
	heatmap := fs.String("heatmap", "", "write the normalized dissimilarity heatmap CSV in leaf order here")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ds, err := geometry.LoadGeoJSON(*points)
	if err != nil {
		return err
	}
	opts := cluster.Options{Distance: a.distanceOptions(), NGroup: *ngroup}
	if *ngroup > 0 && *out != "" {
		opts.OutField = *outField
		if !ds.HasField(*outField) {
			ds.AddField(geometry.Field{Name: *outField, Type: geometry.FieldInteger})
		}
	}

	c := &cluster.Clusterer{Logger: a.log, Metrics: a.metrics}
	res, err := c.Comprehensive(ds, *field, opts)
	if err != nil {
		return err
	}

	if *dendro != "" || *heatmap != "" {
		labels := make([]string, len(res.Nodes))
		for i, n := range res.Nodes {
			labels[i] = geometry.KeyString(n.Key)
		}
		data, err := visualization.Dendrogram(res.Tree, labels)
		if err != nil {
			return err
		}
		if *dendro != "" {
			if err := writeJSON(*dendro, data); err != nil {
				return err
			}
		}
		if *heatmap != "" {
			hm, err := visualization.Heatmap(distance.Dissimilarity(res.Relationship), data.Leaves)
			if err != nil {
				return err
			}
			f, err := os.Create(*heatmap)
			if err != nil {
				return err
			}
			if err := distance.WriteCSV(f, hm); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
		}
	}

	if *out != "" {
		return ds.SaveGeoJSON(*out)
	}
	rows := make([][]string, len(res.Groups))
	for g, members := range res.Groups {
		keys := make([]string, len(members))
		for i, leaf := range members {
			keys[i] = geometry.KeyString(res.Nodes[leaf].Key)
		}
		rows[g] = []string{strconv.Itoa(g + 1), strings.Join(keys, ",")}
	}
	return printTable(os.Stdout, a.pretty, "groups of "+ds.Name, []string{"group", "members"}, rows)
}

func runRank(_ context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("rank", flag.ContinueOnError)
	points := fs.String("points", "", "layer (GeoJSON)")
	field := fs.String("field", "", "numeric field to rank")
	ngroup := fs.Int("ngroup", a.cfg.Rank.NGroup, "number of bins")
	ratio := fs.Float64("ratio", a.cfg.Rank.Ratio, "size ratio between consecutive bins")
	outField := fs.String("out-field", "", "Integer field receiving the 0-based bin (needs -out)")
	out := fs.String("out", "", "write the classified layer here")
	if err := fs.Parse(args); err != nil {
		return err
	}
	ds, err := geometry.LoadGeoJSON(*points)
	if err != nil {
		return err
	}
	values, err := ds.Values(*field)
	if err != nil {
		return err
	}
	seq := make([]float64, 0, len(values))
	for _, v := range values {
		if f, ok := numeric(v); ok {
			seq = append(seq, f)
		}
	}

	ranges, err := binning.GeometricRank(seq, *ngroup, *ratio)
	if err != nil {
		return err
	}
	rows := make([][]string, len(ranges))
	for i, r := range ranges {
		high := "+inf"
		if r.High != nil {
			high = strconv.FormatFloat(*r.High, 'g', -1, 64)
		}
		rows[i] = []string{strconv.Itoa(i), strconv.FormatFloat(r.Low, 'g', -1, 64), high}
	}
	if err := printTable(os.Stdout, a.pretty, "bins of "+*field, []string{"bin", "low", "high"}, rows); err != nil {
		return err
	}
	if *outField == "" || *out == "" {
		return nil
	}

	classify, err := binning.Classifier(seq, *ngroup, *ratio)
	if err != nil {
		return err
	}
	ds.AddField(geometry.Field{Name: *outField, Type: geometry.FieldInteger})
	for i, v := range values {
		f, ok := numeric(v)
		if !ok {
			continue
		}
		if bin, ok := classify(f); ok {
			if err := ds.UpdateAttribute(i, *outField, bin); err != nil {
				return err
			}
		}
	}
	return ds.SaveGeoJSON(*out)
}

func (a *app) distanceOptions() distance.Options {
	return distance.Options{
		DistBase:  a.cfg.Cluster.DistBase,
		Phi:       a.cfg.Cluster.Phi,
		Geodesic:  a.cfg.Network.Geodesic,
		Separator: a.cfg.Cluster.TokenSeparator,
		Workers:   a.cfg.Cluster.Workers,
	}
}

// openSink opens target and returns a close function reporting the flush error.
func (a *app) openSink(ctx context.Context, target string) (layer.Sink, func() error, error) {
	sink, err := layer.Open(ctx, target, a.cfg.OpenOptions())
	if err != nil {
		return nil, nil, err
	}
	return sink, func() error { return sink.Close(ctx) }, nil
}

// printMemory shows a layer kept in memory, which is otherwise lost on exit.
func (a *app) printMemory(w io.Writer, sink layer.Sink) error {
	m, ok := sink.(*layer.Memory)
	if !ok {
		return nil
	}
	ds := m.Dataset()
	headers := make([]string, len(ds.Fields))
	for i, f := range ds.Fields {
		headers[i] = f.Name
	}
	rows := make([][]string, len(ds.Features))
	for i, f := range ds.Features {
		row := make([]string, len(headers))
		for j, h := range headers {
			if v := f.Attrs[h]; v != nil {
				row[j] = fmt.Sprint(v)
			}
		}
		rows[i] = row
	}
	title := fmt.Sprintf("%s: %d edges", m.Name, len(m.Edges()))
	return printTable(w, a.pretty, title, headers, rows)
}

func writeLayout(path, name string, g *visualization.Graph) error {
	cfg := &visualization.LayoutConfig{Seed: 1}
	var l visualization.Layout
	switch name {
	case "geographic":
		l = visualization.NewGeographicLayout(cfg)
	case "circular":
		l = visualization.NewCircularLayout(cfg)
	case "force":
		l = visualization.NewForceDirectedLayout(cfg)
	default:
		return fmt.Errorf("unknown layout %q", name)
	}
	pos, err := l.ComputeLayout(g)
	if err != nil {
		return err
	}
	data, err := (&visualization.Visualization{Graph: g, Positions: pos}).ExportJSON()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func loadPair(p1, p2, flag1, flag2 string) (*geometry.Dataset, *geometry.Dataset, error) {
	if p1 == "" || p2 == "" {
		return nil, nil, fmt.Errorf("%s and %s are required", flag1, flag2)
	}
	a, err := geometry.LoadGeoJSON(p1)
	if err != nil {
		return nil, nil, err
	}
	b, err := geometry.LoadGeoJSON(p2)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

func parsePoint(s string) (orb.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return orb.Point{}, fmt.Errorf("invalid point %q, want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(xs), 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("invalid x in %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(ys), 64)
	if err != nil {
		return orb.Point{}, fmt.Errorf("invalid y in %q: %w", s, err)
	}
	return orb.Point{x, y}, nil
}

func numeric(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case int32:
		f = float64(n)
	default:
		return 0, false
	}
	return f, !math.IsNaN(f)
}
