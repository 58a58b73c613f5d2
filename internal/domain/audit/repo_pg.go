package audit

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/hospitalcrm/internal/platform/db"
	"github.com/ehr/hospitalcrm/pkg/pagination"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func (r *repoPG) Insert(ctx context.Context, e *Entry) error {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO audit_logs (actor_user_id, entity_type, entity_id, action, details)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING audit_id, created_at`,
		e.ActorUserID, e.EntityType, e.EntityID, e.Action, e.Details,
	).Scan(&e.ID, &e.CreatedAt)
}

func (r *repoPG) ListForEntity(ctx context.Context, entityType, entityID string, page pagination.Params) ([]*Entry, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT audit_id, actor_user_id, entity_type, entity_id, action, details, created_at
		FROM audit_logs
		WHERE entity_type = $1 AND entity_id = $2
		ORDER BY created_at DESC, audit_id DESC
		LIMIT $3 OFFSET $4`,
		entityType, entityID, page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[Entry])
}
