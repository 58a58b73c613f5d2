package audit

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ehr/hospitalcrm/internal/platform/apperr"
	"github.com/ehr/hospitalcrm/internal/platform/auth"
	"github.com/ehr/hospitalcrm/pkg/pagination"
)

// Recorder is what the mutation services depend on. It must be called with
// the context of the transaction that carried the write.
type Recorder interface {
	Record(ctx context.Context, entityType string, entityID int64, action string, details map[string]any) error
}

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Record writes one audit_logs row. The actor is the authenticated
// principal on ctx, if any.
func (s *Service) Record(ctx context.Context, entityType string, entityID int64, action string, details map[string]any) error {
	e := &Entry{
		EntityType: entityType,
		EntityID:   strconv.FormatInt(entityID, 10),
		Action:     action,
		Details:    details,
	}
	if p := auth.PrincipalFromContext(ctx); p != nil {
		actor := p.UserID
		e.ActorUserID = &actor
	}
	if err := s.repo.Insert(ctx, e); err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	s.logger.Debug().
		Str("entity_type", e.EntityType).
		Str("entity_id", e.EntityID).
		Str("action", action).
		Msg("audit entry recorded")
	return nil
}

func (s *Service) Trail(ctx context.Context, entityType, entityID string, page pagination.Params) ([]*Entry, error) {
	entityType = strings.TrimSpace(entityType)
	entityID = strings.TrimSpace(entityID)
	if entityType == "" {
		return nil, apperr.Invalid("entity_type", "is required")
	}
	if entityID == "" {
		return nil, apperr.Invalid("entity_id", "is required")
	}
	return s.repo.ListForEntity(ctx, entityType, entityID, page)
}
