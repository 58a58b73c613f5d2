package billing

import "context"

type Repository interface {
	OutstandingInvoices(ctx context.Context, patientID int64, limit int) ([]*OutstandingInvoice, error)
	ClaimStatuses(ctx context.Context, patientID int64, limit int) ([]*ClaimStatus, error)
	Policies(ctx context.Context, patientID int64) ([]*Policy, error)
}

// PatientChecker is satisfied by the patient service.
type PatientChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}
