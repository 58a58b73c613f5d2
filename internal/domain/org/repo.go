package org

import "context"

type Repository interface {
	ListProviders(ctx context.Context, f ProviderFilter) ([]*Provider, error)
	ListDepartments(ctx context.Context) ([]*Department, error)
}
