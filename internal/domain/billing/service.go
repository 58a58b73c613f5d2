package billing

import (
	"context"
	"math"

	"github.com/ehr/hospitalcrm/internal/platform/apperr"
)

type Service struct {
	repo     Repository
	patients PatientChecker
}

func NewService(repo Repository, patients PatientChecker) *Service {
	return &Service{repo: repo, patients: patients}
}

// Snapshot returns outstanding invoices, claim statuses and policies for a
// patient. TotalBalance sums the returned invoices' balances.
func (s *Service) Snapshot(ctx context.Context, patientID int64, limit int) (*Snapshot, error) {
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

	snap := &Snapshot{PatientID: patientID}
	if snap.OutstandingInvoices, err = s.repo.OutstandingInvoices(ctx, patientID, limit); err != nil {
		return nil, err
	}
	if snap.Claims, err = s.repo.ClaimStatuses(ctx, patientID, limit); err != nil {
		return nil, err
	}
	if snap.Policies, err = s.repo.Policies(ctx, patientID); err != nil {
		return nil, err
	}
	if snap.OutstandingInvoices == nil {
		snap.OutstandingInvoices = []*OutstandingInvoice{}
	}
	if snap.Claims == nil {
		snap.Claims = []*ClaimStatus{}
	}
	if snap.Policies == nil {
		snap.Policies = []*Policy{}
	}

	var total float64
	for _, inv := range snap.OutstandingInvoices {
		total += inv.Balance
	}
	snap.TotalBalance = roundCents(total)
	return snap, nil
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
