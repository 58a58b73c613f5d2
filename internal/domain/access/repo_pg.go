package access

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/hospitalcrm/internal/platform/apperr"
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

func (r *repoPG) CreateUser(ctx context.Context, u *User) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO users (provider_id, email, password_hash, display_name)
		VALUES ($1, $2, $3, $4)
		RETURNING user_id, active, created_at`,
		u.ProviderID, u.Email, u.PasswordHash, u.DisplayName,
	).Scan(&u.ID, &u.Active, &u.CreatedAt)
}

func (r *repoPG) GetByEmail(ctx context.Context, email string) (*User, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT user_id, provider_id, email, password_hash, display_name, active, last_login_at, created_at
		FROM users WHERE LOWER(email) = LOWER($1)`, email)
	if err != nil {
		return nil, err
	}
	u, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[User])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("user", email)
	}
	return u, err
}

func (r *repoPG) GetRole(ctx context.Context, name string) (*Role, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT role_id, name, description FROM roles WHERE name = $1`, name)
	if err != nil {
		return nil, err
	}
	role, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[Role])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("role", name)
	}
	return role, err
}

func (r *repoPG) ListRoles(ctx context.Context) ([]*Role, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT role_id, name, description FROM roles ORDER BY name`)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[Role])
}

func (r *repoPG) GrantRole(ctx context.Context, userID, roleID int64) error {
	_, err := r.conn(ctx).Exec(ctx,
		`INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, roleID)
	return err
}

func (r *repoPG) Grants(ctx context.Context, userID int64) ([]string, []string, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT r.name FROM user_roles ur
		JOIN roles r ON r.role_id = ur.role_id
		WHERE ur.user_id = $1
		ORDER BY r.name`, userID)
	if err != nil {
		return nil, nil, err
	}
	roles, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, nil, err
	}

	rows, err = r.conn(ctx).Query(ctx, `
		SELECT DISTINCT p.code FROM user_roles ur
		JOIN role_permissions rp ON rp.role_id = ur.role_id
		JOIN permissions p ON p.permission_id = rp.permission_id
		WHERE ur.user_id = $1
		ORDER BY p.code`, userID)
	if err != nil {
		return nil, nil, err
	}
	perms, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, nil, err
	}
	return roles, perms, nil
}

func (r *repoPG) TouchLogin(ctx context.Context, userID int64) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE users SET last_login_at = NOW() WHERE user_id = $1`, userID)
	return err
}
