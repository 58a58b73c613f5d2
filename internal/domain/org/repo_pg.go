package org

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/hospitalcrm/internal/platform/db"
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

func (r *repoPG) ListProviders(ctx context.Context, f ProviderFilter) ([]*Provider, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT p.provider_id, p.department_id, d.name AS department_name, p.npi,
		       p.first_name, p.last_name, p.specialty, p.phone, p.email, p.active
		FROM providers p
		LEFT JOIN departments d ON d.department_id = p.department_id
		WHERE ($1::bigint = 0 OR p.department_id = $1::bigint)
		  AND (NOT $2::boolean OR p.active)
		ORDER BY p.last_name, p.first_name, p.provider_id
		LIMIT $3 OFFSET $4`,
		f.DepartmentID, f.ActiveOnly, f.Page.Limit, f.Page.Offset)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[Provider])
}

func (r *repoPG) ListDepartments(ctx context.Context) ([]*Department, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT department_id, name, phone, location FROM departments ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[Department])
}
