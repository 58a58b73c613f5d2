package access

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/ehr/hospitalcrm/internal/platform/apperr"
)

// -- Mock Repositories --

type mockRepo struct {
	users   map[string]*User
	roles   map[string]*Role
	grants  map[int64][]string
	perms   map[string][]string
	touched []int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		users:  make(map[string]*User),
		roles:  map[string]*Role{"clinician": {ID: 2, Name: "clinician"}},
		grants: make(map[int64][]string),
		perms:  map[string][]string{"clinician": {"clinical.read", "patients.read"}},
	}
}

func (m *mockRepo) CreateUser(_ context.Context, u *User) error {
	if _, ok := m.users[strings.ToLower(u.Email)]; ok {
		return apperr.New(apperr.KindIntegrity, "duplicate email")
	}
	u.ID = int64(len(m.users) + 1)
	u.Active = true
	u.CreatedAt = time.Now()
	m.users[strings.ToLower(u.Email)] = u
	return nil
}

func (m *mockRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	u, ok := m.users[strings.ToLower(email)]
	if !ok {
		return nil, apperr.NotFound("user", email)
	}
	return u, nil
}

func (m *mockRepo) GetRole(_ context.Context, name string) (*Role, error) {
	r, ok := m.roles[name]
	if !ok {
		return nil, apperr.NotFound("role", name)
	}
	return r, nil
}

func (m *mockRepo) ListRoles(context.Context) ([]*Role, error) {
	var out []*Role
	for _, r := range m.roles {
		out = append(out, r)
	}
	return out, nil
}

func (m *mockRepo) GrantRole(_ context.Context, userID, roleID int64) error {
	for name, r := range m.roles {
		if r.ID == roleID {
			m.grants[userID] = append(m.grants[userID], name)
		}
	}
	return nil
}

func (m *mockRepo) Grants(_ context.Context, userID int64) ([]string, []string, error) {
	var perms []string
	for _, role := range m.grants[userID] {
		perms = append(perms, m.perms[role]...)
	}
	return m.grants[userID], perms, nil
}

func (m *mockRepo) TouchLogin(_ context.Context, userID int64) error {
	m.touched = append(m.touched, userID)
	return nil
}

type mockRecorder struct{ actions []string }

func (m *mockRecorder) Record(_ context.Context, _ string, _ int64, action string, _ map[string]any) error {
	m.actions = append(m.actions, action)
	return nil
}

func newTestService() (*Service, *mockRepo, *mockRecorder) {
	repo := newMockRepo()
	rec := &mockRecorder{}
	svc := NewService(repo, rec)
	svc.cost = bcrypt.MinCost
	return svc, repo, rec
}

// -- Tests --

func TestCreateUser_HashesPassword(t *testing.T) {
	svc, _, rec := newTestService()
	u, err := svc.CreateUser(context.Background(), CreateUserInput{Email: " Nurse@Example.org ", Password: "correct horse"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Email != "nurse@example.org" {
		t.Errorf("expected normalized email, got %q", u.Email)
	}
	if u.PasswordHash == "correct horse" {
		t.Fatal("password stored in clear text")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("correct horse")) != nil {
		t.Error("hash does not match password")
	}
	if len(rec.actions) != 1 {
		t.Errorf("expected 1 audit entry, got %d", len(rec.actions))
	}
}

func TestCreateUser_Validation(t *testing.T) {
	tests := []struct {
		name    string
		in      CreateUserInput
		wantArg string
	}{
		{"missing email", CreateUserInput{Password: "long enough"}, "email"},
		{"bad email", CreateUserInput{Email: "not-an-email", Password: "long enough"}, "email"},
		{"short password", CreateUserInput{Email: "a@b.org", Password: "short"}, "password"},
		{"negative provider", CreateUserInput{Email: "a@b.org", Password: "long enough", ProviderID: -1}, "provider_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _ := newTestService()
			_, err := svc.CreateUser(context.Background(), tt.in)
			var ae *apperr.Error
			if !errors.As(err, &ae) || ae.Argument != tt.wantArg {
				t.Errorf("expected validation error on %s, got %v", tt.wantArg, err)
			}
		})
	}
}

func TestGrantRole_AndResolvePrincipal(t *testing.T) {
	svc, _, rec := newTestService()
	ctx := context.Background()
	u, _ := svc.CreateUser(ctx, CreateUserInput{Email: "doc@example.org", Password: "longpassword"})

	if err := svc.GrantRole(ctx, "DOC@example.org", "clinician"); err != nil {
		t.Fatalf("GrantRole: %v", err)
	}
	p, err := svc.ResolvePrincipal(ctx, "doc@example.org")
	if err != nil {
		t.Fatalf("ResolvePrincipal: %v", err)
	}
	if p.UserID != u.ID {
		t.Errorf("expected user %d, got %d", u.ID, p.UserID)
	}
	if !p.Can("clinical.read") || p.Can("billing.read") {
		t.Errorf("unexpected permissions %v", p.Permissions)
	}
	if len(rec.actions) != 2 || rec.actions[1] != "update" {
		t.Errorf("expected create then update audit entries, got %v", rec.actions)
	}
}

func TestGrantRole_UnknownRole(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()
	_, _ = svc.CreateUser(ctx, CreateUserInput{Email: "doc@example.org", Password: "longpassword"})
	if err := svc.GrantRole(ctx, "doc@example.org", "janitor"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not_found, got %v", err)
	}
}

func TestResolvePrincipal_Inactive(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	_, _ = svc.CreateUser(ctx, CreateUserInput{Email: "old@example.org", Password: "longpassword"})
	repo.users["old@example.org"].Active = false

	if _, err := svc.ResolvePrincipal(ctx, "old@example.org"); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not_found for inactive user, got %v", err)
	}
}

func TestAuthenticate(t *testing.T) {
	svc, repo, _ := newTestService()
	ctx := context.Background()
	u, _ := svc.CreateUser(ctx, CreateUserInput{Email: "doc@example.org", Password: "longpassword"})

	if _, err := svc.Authenticate(ctx, "doc@example.org", "wrongpassword"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected invalid credentials, got %v", err)
	}
	if _, err := svc.Authenticate(ctx, "nobody@example.org", "longpassword"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected invalid credentials for unknown user, got %v", err)
	}

	p, err := svc.Authenticate(ctx, "doc@example.org", "longpassword")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.UserID != u.ID {
		t.Errorf("expected user %d, got %d", u.ID, p.UserID)
	}
	if len(repo.touched) != 1 || repo.touched[0] != u.ID {
		t.Errorf("expected last login to be touched, got %v", repo.touched)
	}
}
