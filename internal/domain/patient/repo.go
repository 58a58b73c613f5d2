package patient

import "context"

type Repository interface {
	Search(ctx context.Context, params SearchParams) ([]*Summary, error)
	GetByID(ctx context.Context, id int64) (*Patient, error)
	Contacts(ctx context.Context, patientID int64) ([]*Contact, error)
	Create(ctx context.Context, p *Patient) error
	Exists(ctx context.Context, id int64) (bool, error)
}
