package pharmacy

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

func (r *repoPG) Allergies(ctx context.Context, patientID int64, limit int) ([]*Allergy, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT allergy_id, allergen, reaction, severity, status, noted_at
		FROM allergies
		WHERE patient_id = $1
		ORDER BY noted_at DESC NULLS LAST, allergy_id DESC
		LIMIT $2`, patientID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[Allergy])
}

// ActivePrescriptions prefers the catalog medication name and falls back to
// the text captured when the prescription was written.
func (r *repoPG) ActivePrescriptions(ctx context.Context, patientID int64, limit int) ([]*ActivePrescription, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT pr.prescription_id, pr.status, pr.start_date, pr.end_date, pr.dosage_instructions,
		       pr.refills, pr.medication_id,
		       COALESCE(m.name, pr.medication_text) AS medication_name,
		       (SELECT MAX(pd.dispensed_at) FROM prescription_dispenses pd
		         WHERE pd.prescription_id = pr.prescription_id) AS last_dispensed_at
		FROM prescriptions pr
		LEFT JOIN medications m ON m.medication_id = pr.medication_id
		WHERE pr.patient_id = $1 AND pr.status = 'active'
		ORDER BY pr.start_date DESC NULLS LAST, pr.prescription_id DESC
		LIMIT $2`, patientID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[ActivePrescription])
}
