package org

import (
	"context"

	"github.com/ehr/hospitalcrm/internal/platform/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListProviders(ctx context.Context, f ProviderFilter) ([]*Provider, error) {
	if f.DepartmentID < 0 {
		return nil, apperr.Invalid("department_id", "must be a positive integer")
	}
	return s.repo.ListProviders(ctx, f)
}

func (s *Service) ListDepartments(ctx context.Context) ([]*Department, error) {
	return s.repo.ListDepartments(ctx)
}
