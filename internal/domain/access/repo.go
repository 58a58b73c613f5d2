package access

import "context"

type Repository interface {
	CreateUser(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetRole(ctx context.Context, name string) (*Role, error)
	ListRoles(ctx context.Context) ([]*Role, error)
	GrantRole(ctx context.Context, userID, roleID int64) error
	Grants(ctx context.Context, userID int64) (roles, permissions []string, err error)
	TouchLogin(ctx context.Context, userID int64) error
}
