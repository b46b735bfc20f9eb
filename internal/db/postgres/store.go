// Package postgres calls database procedures over a direct Postgres connection.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kailas-cloud/catsearch/internal/db"
)

// DriverName identifies this driver in logs and metrics.
const DriverName = "postgres"

// Config holds Postgres connection settings.
type Config struct {
	DSN      string
	Schema   string
	MaxConns int32
	Timeout  time.Duration // connect timeout
}

// Store implements db.Store on a pgx pool.
type Store struct {
	pool   *pgxpool.Pool
	schema string
}

var _ db.Store = (*Store)(nil)

// NewStore parses the DSN and opens a lazily-connecting pool.
// Statements run in exec mode so transaction poolers (pgbouncer, Supavisor) work.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, errors.New("postgres: dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.Timeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.Timeout
	}
	poolCfg.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres: create pool: %w", err)
	}

	schema := cfg.Schema
	if schema == "" {
		schema = "public"
	}
	return &Store{pool: pool, schema: schema}, nil
}

// Driver returns the driver name.
func (s *Store) Driver() string { return DriverName }

// Close releases all pooled connections.
func (s *Store) Close() { s.pool.Close() }

// Ping acquires a connection and pings the server.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// CallProcedure runs SELECT * FROM schema.name(arg => $n, ...) and collects rows as maps.
func (s *Store) CallProcedure(ctx context.Context, call *db.ProcedureCall) ([]db.Row, error) {
	sql, params, err := buildCall(s.schema, call)
	if err != nil {
		return nil, &db.Error{Op: db.OpRPC, Procedure: call.Name, Err: err}
	}

	rows, err := s.pool.Query(ctx, sql, params...)
	if err != nil {
		return nil, &db.Error{Op: db.OpRPC, Procedure: call.Name, Err: err}
	}

	collected, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, &db.Error{Op: db.OpRPC, Procedure: call.Name, Err: err}
	}

	out := make([]db.Row, len(collected))
	for i, r := range collected {
		for k, v := range r {
			r[k] = normalizeValue(v)
		}
		out[i] = r
	}
	return out, nil
}

// buildCall renders the statement with named-argument notation. Every parameter
// is cast explicitly, so the server never has to infer types.
func buildCall(schema string, call *db.ProcedureCall) (string, []any, error) {
	if call.Name == "" {
		return "", nil, errors.New("procedure name is required")
	}

	parts := make([]string, 0, len(call.Args))
	params := make([]any, 0, len(call.Args))
	for i, a := range call.Args {
		if a.Name == "" {
			return "", nil, fmt.Errorf("argument %d has no name", i)
		}
		cast, value, err := encodeArg(a.Value)
		if err != nil {
			return "", nil, fmt.Errorf("argument %s: %w", a.Name, err)
		}
		params = append(params, value)
		parts = append(parts, fmt.Sprintf("%s => $%d::%s",
			pgx.Identifier{a.Name}.Sanitize(), len(params), cast))
	}

	sql := fmt.Sprintf("SELECT * FROM %s(%s)",
		pgx.Identifier{schema, call.Name}.Sanitize(), strings.Join(parts, ", "))
	return sql, params, nil
}

// encodeArg maps a Go value to its SQL cast and wire value.
// Float vectors travel as pgvector text literals.
func encodeArg(v any) (string, any, error) {
	switch x := v.(type) {
	case []float32:
		return "text::vector", VectorLiteral(x), nil
	case float64:
		return "float8", x, nil
	case float32:
		return "float8", float64(x), nil
	case int:
		return "int", int64(x), nil
	case int32:
		return "int", int64(x), nil
	case int64:
		return "int", x, nil
	case string:
		return "text", x, nil
	case bool:
		return "bool", x, nil
	default:
		return "", nil, fmt.Errorf("%w: %T", db.ErrUnsupportedArgType, v)
	}
}

// VectorLiteral formats a vector in pgvector's text input format: [a,b,c].
func VectorLiteral(vec []float32) string {
	var b strings.Builder
	b.Grow(len(vec)*10 + 2)
	b.WriteByte('[')
	for i, f := range vec {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatFloat(float64(f), 'f', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// normalizeValue turns pgx-specific scan results into JSON-friendly Go values.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case pgtype.Numeric:
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case [16]byte:
		return fmt.Sprintf("%x-%x-%x-%x-%x", x[0:4], x[4:6], x[6:8], x[8:10], x[10:16])
	default:
		return v
	}
}
