package db

import (
	"context"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var schemaPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// ValidSchema reports whether schema is safe to splice into DDL unquoted.
func ValidSchema(schema string) bool {
	return schemaPattern.MatchString(schema)
}

// EnsureSchema creates the namespace if it does not exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool, schema string) error {
	if !ValidSchema(schema) {
		return fmt.Errorf("invalid schema identifier: %s", schema)
	}
	if _, err := pool.Exec(ctx, fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", schema)); err != nil {
		return fmt.Errorf("create schema %s: %w", schema, err)
	}
	return nil
}

// SchemaExists reports whether the namespace is present in the catalog.
func SchemaExists(ctx context.Context, q Querier, schema string) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM information_schema.schemata WHERE schema_name = $1)`,
		schema,
	).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

// ListTables returns the base tables of schema ordered by name, excluding
// the migration bookkeeping table.
func ListTables(ctx context.Context, q Querier, schema string) ([]string, error) {
	rows, err := q.Query(ctx, `
		SELECT table_name FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE' AND table_name <> '_migrations'
		ORDER BY table_name`, schema)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

// Inspector answers catalog questions about one schema, using the call's
// transaction when there is one.
type Inspector struct {
	pool   Querier
	schema string
}

func NewInspector(pool Querier, schema string) *Inspector {
	return &Inspector{pool: pool, schema: schema}
}

func (i *Inspector) conn(ctx context.Context) Querier {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return i.pool
}

func (i *Inspector) Schema() string { return i.schema }

func (i *Inspector) Health(ctx context.Context) (*HealthReport, error) {
	return CheckHealth(ctx, i.conn(ctx), i.schema)
}

func (i *Inspector) Tables(ctx context.Context) ([]string, error) {
	return ListTables(ctx, i.conn(ctx), i.schema)
}
