package audit

import (
	"context"

	"github.com/ehr/hospitalcrm/pkg/pagination"
)

type Repository interface {
	Insert(ctx context.Context, e *Entry) error
	ListForEntity(ctx context.Context, entityType, entityID string, page pagination.Params) ([]*Entry, error)
}
