package pharmacy

import (
	"context"

	"github.com/ehr/hospitalcrm/internal/platform/apperr"
)

type Service struct {
	repo     Repository
	patients PatientChecker
}

func NewService(repo Repository, patients PatientChecker) *Service {
	return &Service{repo: repo, patients: patients}
}

func (s *Service) Snapshot(ctx context.Context, patientID int64, limit int) (*ClinicalSnapshot, error) {
	if patientID <= 0 {
		return nil, apperr.Invalid("patient_id", "must be a positive integer")
	}
	if limit == 0 {
		limit = DefaultSnapshotLimit
	}
	if limit < 0 {
		return nil, apperr.Invalid("limit", "must be positive")
	}
	ok, err := s.patients.Exists(ctx, patientID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("patient", patientID)
	}

	snap := &ClinicalSnapshot{PatientID: patientID}
	if snap.Allergies, err = s.repo.Allergies(ctx, patientID, limit); err != nil {
		return nil, err
	}
	if snap.ActivePrescriptions, err = s.repo.ActivePrescriptions(ctx, patientID, limit); err != nil {
		return nil, err
	}
	if snap.Allergies == nil {
		snap.Allergies = []*Allergy{}
	}
	if snap.ActivePrescriptions == nil {
		snap.ActivePrescriptions = []*ActivePrescription{}
	}
	return snap, nil
}
