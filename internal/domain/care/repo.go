package care

import "context"

type Repository interface {
	Cases(ctx context.Context, patientID int64, limit int) ([]*Case, error)
	Encounters(ctx context.Context, patientID int64, limit int) ([]*Encounter, error)
	Notes(ctx context.Context, patientID int64, limit int) ([]*Note, error)
	Tasks(ctx context.Context, patientID int64, limit int) ([]*Task, error)
	Communications(ctx context.Context, patientID int64, limit int) ([]*Communication, error)
	CreateNote(ctx context.Context, n *Note) error
}

// PatientChecker is satisfied by the patient service.
type PatientChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}
