package scheduling

import "context"

// PatientChecker is satisfied by the patient service.
type PatientChecker interface {
	Exists(ctx context.Context, id int64) (bool, error)
}

type Repository interface {
	List(ctx context.Context, params ListParams) ([]*Appointment, error)
	Upcoming(ctx context.Context, params UpcomingParams) ([]*Appointment, error)
	Create(ctx context.Context, a *Appointment) error
}
