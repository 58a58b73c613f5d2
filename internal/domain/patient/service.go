package patient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ehr/hospitalcrm/internal/domain/audit"
	"github.com/ehr/hospitalcrm/internal/platform/apperr"
)

const entityType = "patient"

type Service struct {
	repo  Repository
	audit audit.Recorder
}

func NewService(repo Repository, rec audit.Recorder) *Service {
	return &Service{repo: repo, audit: rec}
}

// Search requires at least one of name fragment or MRN.
func (s *Service) Search(ctx context.Context, params SearchParams) ([]*Summary, error) {
	params.NameFragment = strings.TrimSpace(params.NameFragment)
	params.MRN = strings.TrimSpace(params.MRN)
	if params.NameFragment == "" && params.MRN == "" {
		return nil, apperr.Invalid("name_fragment", "name_fragment or mrn is required")
	}
	return s.repo.Search(ctx, params)
}

// Get returns the patient with its contacts, primary contact first.
func (s *Service) Get(ctx context.Context, id int64) (*Detail, error) {
	if id <= 0 {
		return nil, apperr.Invalid("patient_id", "must be a positive integer")
	}
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	contacts, err := s.repo.Contacts(ctx, id)
	if err != nil {
		return nil, err
	}
	if contacts == nil {
		contacts = []*Contact{}
	}
	return &Detail{Patient: p, Contacts: contacts}, nil
}

// Exists reports whether a patient row with id is present.
func (s *Service) Exists(ctx context.Context, id int64) (bool, error) {
	return s.repo.Exists(ctx, id)
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Patient, error) {
	p, err := in.toPatient()
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	details := map[string]any{"first_name": p.FirstName, "last_name": p.LastName}
	if p.MRN != nil {
		details["mrn"] = *p.MRN
	}
	if err := s.audit.Record(ctx, entityType, p.ID, audit.ActionCreate, details); err != nil {
		return nil, err
	}
	return p, nil
}

func (in CreateInput) toPatient() (*Patient, error) {
	first := strings.TrimSpace(in.FirstName)
	last := strings.TrimSpace(in.LastName)
	if first == "" {
		return nil, apperr.Invalid("first_name", "is required")
	}
	if last == "" {
		return nil, apperr.Invalid("last_name", "is required")
	}

	status := strings.TrimSpace(in.Status)
	if status == "" {
		status = StatusActive
	}
	if !validStatuses[status] {
		return nil, apperr.Invalid("status", fmt.Sprintf("invalid status %q", status))
	}

	country := strings.TrimSpace(in.Country)
	if country == "" {
		country = DefaultCountry
	}
	phone, err := normalizePhone(in.Phone, country)
	if err != nil {
		return nil, err
	}

	p := &Patient{
		MRN:          strPtr(strings.TrimSpace(in.MRN)),
		FirstName:    first,
		LastName:     last,
		Sex:          strPtr(strings.TrimSpace(in.Sex)),
		Phone:        strPtr(phone),
		Email:        strPtr(strings.TrimSpace(in.Email)),
		AddressLine1: strPtr(strings.TrimSpace(in.AddressLine1)),
		AddressLine2: strPtr(strings.TrimSpace(in.AddressLine2)),
		City:         strPtr(strings.TrimSpace(in.City)),
		State:        strPtr(strings.TrimSpace(in.State)),
		PostalCode:   strPtr(strings.TrimSpace(in.PostalCode)),
		Country:      &country,
		Status:       status,
	}

	if dob := strings.TrimSpace(in.DOB); dob != "" {
		t, err := time.Parse(time.DateOnly, dob)
		if err != nil {
			return nil, apperr.Invalid("dob", "must be a date in YYYY-MM-DD format")
		}
		p.DOB = pgtype.Date{Time: t, Valid: true}
	}
	return p, nil
}
