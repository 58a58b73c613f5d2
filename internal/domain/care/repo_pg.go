package care

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/hospitalcrm/internal/platform/db"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

func collect[T any](ctx context.Context, q db.Querier, sql string, args ...any) ([]*T, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[T])
}

func (r *repoPG) Cases(ctx context.Context, patientID int64, limit int) ([]*Case, error) {
	return collect[Case](ctx, r.conn(ctx), `
		SELECT case_id, patient_id, provider_id, department_id, title, chief_complaint, diagnosis,
		       status, priority, opened_at, closed_at
		FROM cases WHERE patient_id = $1
		ORDER BY opened_at DESC NULLS LAST, case_id DESC
		LIMIT $2`, patientID, limit)
}

func (r *repoPG) Encounters(ctx context.Context, patientID int64, limit int) ([]*Encounter, error) {
	return collect[Encounter](ctx, r.conn(ctx), `
		SELECT encounter_id, patient_id, case_id, appointment_id, provider_id, encounter_type,
		       location, started_at, ended_at, status
		FROM encounters WHERE patient_id = $1
		ORDER BY started_at DESC NULLS LAST, encounter_id DESC
		LIMIT $2`, patientID, limit)
}

func (r *repoPG) Notes(ctx context.Context, patientID int64, limit int) ([]*Note, error) {
	return collect[Note](ctx, r.conn(ctx), `
		SELECT note_id, patient_id, case_id, appointment_id, author_provider_id, note_type, title, body, created_at
		FROM notes WHERE patient_id = $1
		ORDER BY created_at DESC, note_id DESC
		LIMIT $2`, patientID, limit)
}

func (r *repoPG) Tasks(ctx context.Context, patientID int64, limit int) ([]*Task, error) {
	return collect[Task](ctx, r.conn(ctx), `
		SELECT task_id, patient_id, case_id, assigned_provider_id, title, description, status, priority,
		       due_at, completed_at, created_at
		FROM tasks WHERE patient_id = $1
		ORDER BY created_at DESC, task_id DESC
		LIMIT $2`, patientID, limit)
}

func (r *repoPG) Communications(ctx context.Context, patientID int64, limit int) ([]*Communication, error) {
	return collect[Communication](ctx, r.conn(ctx), `
		SELECT communication_id, patient_id, case_id, appointment_id, channel, direction, subject, body,
		       outcome, status, created_at
		FROM communications WHERE patient_id = $1
		ORDER BY created_at DESC, communication_id DESC
		LIMIT $2`, patientID, limit)
}

func (r *repoPG) CreateNote(ctx context.Context, n *Note) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO notes (patient_id, case_id, appointment_id, author_provider_id, note_type, title, body)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING note_id, created_at`,
		n.PatientID, n.CaseID, n.AppointmentID, n.AuthorProviderID, n.NoteType, n.Title, n.Body,
	).Scan(&n.ID, &n.CreatedAt)
}
