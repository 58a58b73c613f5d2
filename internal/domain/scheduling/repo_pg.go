package scheduling

import (
	"context"
	"time"

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

const apptSelect = `
	SELECT a.appointment_id, a.patient_id,
	       a.provider_id, NULLIF(TRIM(CONCAT_WS(' ', p.first_name, p.last_name)), '') AS provider_name,
	       a.department_id, d.name AS department_name,
	       a.case_id, a.starts_at, a.ends_at, a.status, a.reason, a.location, a.created_at
	FROM appointments a
	LEFT JOIN providers p ON p.provider_id = a.provider_id
	LEFT JOIN departments d ON d.department_id = a.department_id`

func (r *repoPG) List(ctx context.Context, params ListParams) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, apptSelect+`
		WHERE ($1::bigint = 0 OR a.patient_id = $1::bigint)
		  AND ($2::bigint = 0 OR a.provider_id = $2::bigint)
		  AND ($3::timestamptz IS NULL OR a.starts_at >= $3::timestamptz)
		  AND ($4::timestamptz IS NULL OR a.starts_at < $4::timestamptz)
		  AND ($5::text = '' OR a.status = $5::text)
		ORDER BY a.starts_at DESC, a.appointment_id DESC
		LIMIT $6 OFFSET $7`,
		params.PatientID, params.ProviderID, params.From, params.To, params.Status,
		params.Page.Limit, params.Page.Offset)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[Appointment])
}

func (r *repoPG) Upcoming(ctx context.Context, params UpcomingParams) ([]*Appointment, error) {
	until := params.Now.Add(time.Duration(params.Days) * 24 * time.Hour)
	rows, err := r.conn(ctx).Query(ctx, apptSelect+`
		WHERE ($1::bigint = 0 OR a.patient_id = $1::bigint)
		  AND ($2::bigint = 0 OR a.provider_id = $2::bigint)
		  AND a.starts_at >= $3 AND a.starts_at < $4
		ORDER BY a.starts_at ASC, a.appointment_id ASC
		LIMIT $5 OFFSET $6`,
		params.PatientID, params.ProviderID, params.Now, until,
		params.Page.Limit, params.Page.Offset)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[Appointment])
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointments (patient_id, provider_id, department_id, case_id,
			starts_at, ends_at, status, reason, location)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING appointment_id, created_at`,
		a.PatientID, a.ProviderID, a.DepartmentID, a.CaseID,
		a.StartsAt, a.EndsAt, a.Status, a.Reason, a.Location,
	).Scan(&a.ID, &a.CreatedAt)
}
