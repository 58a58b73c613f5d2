package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/hospitalcrm/internal/platform/apperr"
)

// NewPool opens the process-wide connection pool. Every connection resolves
// unqualified table names against schema first.
func NewPool(ctx context.Context, databaseURL, schema string, maxConns, minConns int32) (*pgxpool.Pool, error) {
	if !ValidSchema(schema) {
		return nil, apperr.New(apperr.KindConfiguration, "invalid schema identifier")
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		// The parse error echoes the connection string; keep it out of the message.
		return nil, apperr.New(apperr.KindConfiguration, "DATABASE_URL is not a valid connection string")
	}

	cfg.MaxConns = maxConns
	cfg.MinConns = minConns
	cfg.ConnConfig.RuntimeParams["search_path"] = schema + ", public"

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindConnectivity, err, "create connection pool")
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, Classify(err)
	}

	return pool, nil
}
