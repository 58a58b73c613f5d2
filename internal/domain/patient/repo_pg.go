package patient

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ehr/hospitalcrm/internal/platform/apperr"
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

const patientCols = `patient_id, mrn, first_name, last_name, dob, sex, phone, email,
	address_line1, address_line2, city, state, postal_code, country, status, created_at, updated_at`

const summaryCols = `patient_id, mrn, first_name, last_name, dob, phone, email, status`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s anywhere in the value.
// Wildcards in s match literally.
func containsPattern(s string) string {
	if s == "" {
		return ""
	}
	return "%" + likeEscaper.Replace(s) + "%"
}

// Search matches the name fragment case-insensitively against first and
// last name, and the MRN exactly. Both filters apply when both are given.
func (r *repoPG) Search(ctx context.Context, params SearchParams) ([]*Summary, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+summaryCols+` FROM patients
		WHERE ($1::text = '' OR first_name ILIKE $1::text ESCAPE '\' OR last_name ILIKE $1::text ESCAPE '\')
		  AND ($2::text = '' OR mrn = $2::text)
		ORDER BY last_name, first_name, patient_id
		LIMIT $3 OFFSET $4`,
		containsPattern(params.NameFragment), params.MRN, params.Page.Limit, params.Page.Offset)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[Summary])
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+patientCols+` FROM patients WHERE patient_id = $1`, id)
	if err != nil {
		return nil, err
	}
	p, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[Patient])
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("patient", id)
	}
	return p, err
}

func (r *repoPG) Contacts(ctx context.Context, patientID int64) ([]*Contact, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT contact_id, patient_id, relationship, full_name, phone, email, is_primary, created_at
		FROM patient_contacts
		WHERE patient_id = $1
		ORDER BY is_primary DESC, created_at DESC, contact_id DESC`, patientID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[Contact])
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (mrn, first_name, last_name, dob, sex, phone, email,
			address_line1, address_line2, city, state, postal_code, country, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING patient_id, created_at, updated_at`,
		p.MRN, p.FirstName, p.LastName, p.DOB, p.Sex, p.Phone, p.Email,
		p.AddressLine1, p.AddressLine2, p.City, p.State, p.PostalCode, p.Country, p.Status,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *repoPG) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM patients WHERE patient_id = $1)`, id).Scan(&exists)
	return exists, err
}
