package access

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/ehr/hospitalcrm/internal/domain/audit"
	"github.com/ehr/hospitalcrm/internal/platform/apperr"
	"github.com/ehr/hospitalcrm/internal/platform/auth"
)

const entityType = "user"

// ErrInvalidCredentials is returned by Authenticate for any mismatch, so
// callers cannot tell unknown users from wrong passwords.
var ErrInvalidCredentials = apperr.New(apperr.KindValidation, "invalid email or password")

type Service struct {
	repo  Repository
	audit audit.Recorder
	cost  int
}

func NewService(repo Repository, rec audit.Recorder) *Service {
	return &Service{repo: repo, audit: rec, cost: bcrypt.DefaultCost}
}

func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*User, error) {
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if len(in.Password) < MinPasswordLength {
		return nil, apperr.Invalid("password", fmt.Sprintf("must be at least %d characters", MinPasswordLength))
	}
	if in.ProviderID < 0 {
		return nil, apperr.Invalid("provider_id", "must be a positive integer")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, apperr.Invalid("password", "must be at most 72 bytes")
		}
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{Email: email, PasswordHash: string(hash)}
	if in.ProviderID > 0 {
		id := in.ProviderID
		u.ProviderID = &id
	}
	if name := strings.TrimSpace(in.DisplayName); name != "" {
		u.DisplayName = &name
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	if err := s.audit.Record(ctx, entityType, u.ID, audit.ActionCreate, map[string]any{"email": u.Email}); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) GrantRole(ctx context.Context, email, roleName string) error {
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return err
	}
	role, err := s.repo.GetRole(ctx, strings.TrimSpace(roleName))
	if err != nil {
		return err
	}
	if err := s.repo.GrantRole(ctx, u.ID, role.ID); err != nil {
		return err
	}
	return s.audit.Record(ctx, entityType, u.ID, audit.ActionUpdate, map[string]any{"granted_role": role.Name})
}

func (s *Service) ListRoles(ctx context.Context) ([]*Role, error) {
	return s.repo.ListRoles(ctx)
}

// ResolvePrincipal loads an active user and its grants.
func (s *Service) ResolvePrincipal(ctx context.Context, email string) (*auth.Principal, error) {
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return nil, err
	}
	if !u.Active {
		return nil, apperr.NotFound("user", email)
	}
	return s.principalFor(ctx, u)
}

// Authenticate checks a password against the stored bcrypt hash.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*auth.Principal, error) {
	u, err := s.repo.GetByEmail(ctx, strings.TrimSpace(email))
	if apperr.IsKind(err, apperr.KindNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !u.Active || bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if err := s.repo.TouchLogin(ctx, u.ID); err != nil {
		return nil, err
	}
	return s.principalFor(ctx, u)
}

func (s *Service) principalFor(ctx context.Context, u *User) (*auth.Principal, error) {
	roles, perms, err := s.repo.Grants(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	return &auth.Principal{UserID: u.ID, Email: u.Email, Roles: roles, Permissions: perms}, nil
}

func normalizeEmail(raw string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" {
		return "", apperr.Invalid("email", "is required")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperr.Invalid("email", "is not a valid address")
	}
	return email, nil
}
