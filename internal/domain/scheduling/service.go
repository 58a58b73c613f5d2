package scheduling

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ehr/hospitalcrm/internal/domain/audit"
	"github.com/ehr/hospitalcrm/internal/platform/apperr"
)

const entityType = "appointment"

type Service struct {
	repo     Repository
	patients PatientChecker
	audit    audit.Recorder
	now      func() time.Time
}

func NewService(repo Repository, patients PatientChecker, rec audit.Recorder) *Service {
	return &Service{repo: repo, patients: patients, audit: rec, now: time.Now}
}

// List returns appointments for one patient or one provider, newest first.
func (s *Service) List(ctx context.Context, params ListParams) ([]*Appointment, error) {
	if err := exactlyOneOwner(params.PatientID, params.ProviderID); err != nil {
		return nil, err
	}
	if params.Status != "" && !validStatuses[params.Status] {
		return nil, apperr.Invalid("status", fmt.Sprintf("invalid status %q", params.Status))
	}
	if params.From != nil && params.To != nil && params.To.Before(*params.From) {
		return nil, apperr.Invalid("to", "must not be before from")
	}
	return s.repo.List(ctx, params)
}

// Upcoming returns appointments starting within the next Days days, soonest
// first. Days defaults to 30.
func (s *Service) Upcoming(ctx context.Context, params UpcomingParams) ([]*Appointment, error) {
	if params.PatientID < 0 || params.ProviderID < 0 {
		return nil, apperr.Invalid("patient_id", "must be a positive integer")
	}
	if params.PatientID > 0 && params.ProviderID > 0 {
		return nil, apperr.Invalid("provider_id", "give patient_id or provider_id, not both")
	}
	if params.Days == 0 {
		params.Days = DefaultUpcomingDays
	}
	if params.Days < 1 || params.Days > MaxUpcomingDays {
		return nil, apperr.Invalid("days", fmt.Sprintf("must be between 1 and %d", MaxUpcomingDays))
	}
	if params.Now.IsZero() {
		params.Now = s.now()
	}
	return s.repo.Upcoming(ctx, params)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Appointment, error) {
	if in.PatientID <= 0 {
		return nil, apperr.Invalid("patient_id", "must be a positive integer")
	}
	if in.StartsAt.IsZero() {
		return nil, apperr.Invalid("starts_at", "is required")
	}
	if in.EndsAt != nil && in.EndsAt.Before(in.StartsAt) {
		return nil, apperr.Invalid("ends_at", "must not be before starts_at")
	}
	for arg, id := range map[string]int64{"provider_id": in.ProviderID, "department_id": in.DepartmentID, "case_id": in.CaseID} {
		if id < 0 {
			return nil, apperr.Invalid(arg, "must be a positive integer")
		}
	}
	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = StatusScheduled
	}
	if !validStatuses[status] {
		return nil, apperr.Invalid("status", fmt.Sprintf("invalid status %q", status))
	}
	ok, err := s.patients.Exists(ctx, in.PatientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("patient", in.PatientID)
	}

	a := &Appointment{
		PatientID:    in.PatientID,
		ProviderID:   optionalID(in.ProviderID),
		DepartmentID: optionalID(in.DepartmentID),
		CaseID:       optionalID(in.CaseID),
		StartsAt:     in.StartsAt,
		EndsAt:       in.EndsAt,
		Status:       status,
		Reason:       optionalText(in.Reason),
		Location:     optionalText(in.Location),
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, err
	}
	if err := s.audit.Record(ctx, entityType, a.ID, audit.ActionCreate, map[string]any{
		"patient_id": a.PatientID,
		"starts_at":  a.StartsAt.UTC().Format(time.RFC3339),
		"status":     a.Status,
	}); err != nil {
		return nil, err
	}
	return a, nil
}

func exactlyOneOwner(patientID, providerID int64) error {
	if patientID < 0 {
		return apperr.Invalid("patient_id", "must be a positive integer")
	}
	if providerID < 0 {
		return apperr.Invalid("provider_id", "must be a positive integer")
	}
	if (patientID > 0) == (providerID > 0) {
		return apperr.Invalid("patient_id", "exactly one of patient_id or provider_id is required")
	}
	return nil
}

func optionalID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

func optionalText(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
