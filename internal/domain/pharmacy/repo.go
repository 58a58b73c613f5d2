package pharmacy

import "context"

type Repository interface {
	Allergies(ctx context.Context, patientID int64, limit int) ([]*Allergy, error)
	ActivePrescriptions(ctx context.Context, patientID int64, limit int) ([]*ActivePrescription, error)
}

// PatientChecker is satisfied by the patient service.
type PatientChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}
