package layer

import (
	"context"
	"fmt"
	"strings"

	"github.com/dd0wney/cluso-geonet/pkg/geometry"
	"github.com/dd0wney/cluso-geonet/pkg/gerrors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/paulmach/orb/encoding/wkt"
)

// Execer is the part of a pgx pool or connection the sink uses.
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostGIS writes each edge as a row of a new table with a LineString column.
// The geometry column is 2D; Z and M measures of an edge are not stored.
type PostGIS struct {
	db     Execer
	pool   *pgxpool.Pool // owned pool, closed on Close
	Table  string
	SRID   int
	schema []geometry.Field
	insert string
}

// NewPostGIS connects to dsn and prepares a sink for table.
func NewPostGIS(ctx context.Context, dsn, table string, srid int) (*PostGIS, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	p := NewPostGISWithExecer(pool, table, srid)
	p.pool = pool
	return p, nil
}

// NewPostGISWithExecer creates a sink on an existing connection.
func NewPostGISWithExecer(db Execer, table string, srid int) *PostGIS {
	return &PostGIS{db: db, Table: table, SRID: srid}
}

func columnType(t geometry.FieldType) string {
	switch t {
	case geometry.FieldInteger:
		return "bigint"
	case geometry.FieldDouble:
		return "double precision"
	default:
		return "text"
	}
}

// Create issues CREATE TABLE without IF NOT EXISTS, so an existing table makes
// the operation fail rather than receive rows.
func (p *PostGIS) Create(ctx context.Context, name string, schema []geometry.Field) error {
	if p.insert != "" {
		return gerrors.New("Create").Layer(name).Validation("layer already created")
	}
	if err := checkSchema("Create", schema); err != nil {
		return err
	}

	table := pgx.Identifier{p.Table}.Sanitize()
	cols := make([]string, 0, len(schema)+2)
	names := make([]string, 0, len(schema)+1)
	params := make([]string, 0, len(schema)+1)
	cols = append(cols, "id bigserial PRIMARY KEY")
	for i, col := range schema {
		ident := pgx.Identifier{col.Name}.Sanitize()
		cols = append(cols, ident+" "+columnType(col.Type))
		names = append(names, ident)
		params = append(params, fmt.Sprintf("$%d", i+1))
	}
	cols = append(cols, fmt.Sprintf("geom geometry(LineString, %d)", p.SRID))
	names = append(names, "geom")
	params = append(params, fmt.Sprintf("ST_GeomFromText($%d, %d)", len(schema)+1, p.SRID))

	ddl := fmt.Sprintf("CREATE TABLE %s (%s)", table, strings.Join(cols, ", "))
	if _, err := p.db.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("failed to create table %s: %w", p.Table, err)
	}

	p.schema = append([]geometry.Field(nil), schema...)
	p.insert = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(names, ", "), strings.Join(params, ", "))
	return nil
}

func (p *PostGIS) Append(ctx context.Context, e Edge) error {
	if p.insert == "" {
		return gerrors.Validationf("Append", "append before create")
	}
	if err := checkAttrs("Append", p.schema, e.Attrs); err != nil {
		return err
	}
	args := make([]any, 0, len(p.schema)+1)
	for _, col := range p.schema {
		args = append(args, e.Attrs[col.Name])
	}
	args = append(args, wkt.MarshalString(e.Line))
	if _, err := p.db.Exec(ctx, p.insert, args...); err != nil {
		return fmt.Errorf("failed to insert edge into %s: %w", p.Table, err)
	}
	return nil
}

func (p *PostGIS) Close(context.Context) error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}
