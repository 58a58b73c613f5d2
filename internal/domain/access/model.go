package access

import "time"

// MinPasswordLength is the shortest password CreateUser accepts.
const MinPasswordLength = 8

// User maps to the users table.
type User struct {
	ID           int64      `db:"user_id" json:"user_id"`
	ProviderID   *int64     `db:"provider_id" json:"provider_id"`
	Email        string     `db:"email" json:"email"`
	PasswordHash string     `db:"password_hash" json:"-"`
	DisplayName  *string    `db:"display_name" json:"display_name"`
	Active       bool       `db:"active" json:"active"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"last_login_at"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}

// Role maps to the roles table.
type Role struct {
	ID          int64   `db:"role_id" json:"role_id"`
	Name        string  `db:"name" json:"name"`
	Description *string `db:"description" json:"description"`
}

type CreateUserInput struct {
	Email       string
	Password    string
	DisplayName string
	ProviderID  int64
}
