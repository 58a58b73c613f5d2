package org

import (
	"context"
	"testing"

	"github.com/ehr/hospitalcrm/internal/platform/apperr"
	"github.com/ehr/hospitalcrm/pkg/pagination"
)

type mockRepo struct {
	providers   []*Provider
	departments []*Department
}

func (m *mockRepo) ListProviders(_ context.Context, f ProviderFilter) ([]*Provider, error) {
	var out []*Provider
	for _, p := range m.providers {
		if f.DepartmentID != 0 && (p.DepartmentID == nil || *p.DepartmentID != f.DepartmentID) {
			continue
		}
		if f.ActiveOnly && !p.Active {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (m *mockRepo) ListDepartments(context.Context) ([]*Department, error) {
	return m.departments, nil
}

func TestListProviders_Filters(t *testing.T) {
	cardio := int64(1)
	repo := &mockRepo{providers: []*Provider{
		{ID: 1, LastName: "House", DepartmentID: &cardio, Active: true},
		{ID: 2, LastName: "Wilson", Active: true},
		{ID: 3, LastName: "Cuddy", DepartmentID: &cardio, Active: false},
	}}
	svc := NewService(repo)
	page := pagination.Params{Limit: 20}

	all, err := svc.ListProviders(context.Background(), ProviderFilter{Page: page})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("expected 3 providers, got %d", len(all))
	}

	active, _ := svc.ListProviders(context.Background(), ProviderFilter{DepartmentID: 1, ActiveOnly: true, Page: page})
	if len(active) != 1 || active[0].ID != 1 {
		t.Errorf("unexpected filtered providers %+v", active)
	}
}

func TestListProviders_RejectsNegativeDepartment(t *testing.T) {
	svc := NewService(&mockRepo{})
	_, err := svc.ListProviders(context.Background(), ProviderFilter{DepartmentID: -1})
	if !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
}
