package billing

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

// OutstandingInvoices lists non-void invoices whose total exceeds the sum of
// payments applied to them, earliest due first.
func (r *repoPG) OutstandingInvoices(ctx context.Context, patientID int64, limit int) ([]*OutstandingInvoice, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT i.invoice_id, i.invoice_number, i.status, i.issued_at, i.due_at,
		       i.total_amount::float8 AS total_amount,
		       COALESCE(paid.paid_amount, 0)::float8 AS paid_amount,
		       (i.total_amount - COALESCE(paid.paid_amount, 0))::float8 AS balance
		FROM invoices i
		LEFT JOIN (
			SELECT invoice_id, SUM(amount) AS paid_amount
			FROM payments
			WHERE invoice_id IS NOT NULL
			GROUP BY invoice_id
		) paid ON paid.invoice_id = i.invoice_id
		WHERE i.patient_id = $1
		  AND i.status <> 'void'
		  AND i.total_amount - COALESCE(paid.paid_amount, 0) > 0
		ORDER BY i.due_at ASC NULLS LAST, i.issued_at DESC NULLS LAST, i.invoice_id
		LIMIT $2`, patientID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[OutstandingInvoice])
}

func (r *repoPG) ClaimStatuses(ctx context.Context, patientID int64, limit int) ([]*ClaimStatus, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT c.claim_id, c.claim_number, c.status, c.payer_id, py.name AS payer_name,
		       c.total_claim_amount::float8 AS total_claim_amount,
		       c.total_paid_amount::float8 AS total_paid_amount,
		       c.patient_responsibility::float8 AS patient_responsibility,
		       c.submitted_at, c.updated_at
		FROM claims c
		LEFT JOIN payers py ON py.payer_id = c.payer_id
		WHERE c.patient_id = $1
		ORDER BY c.updated_at DESC NULLS LAST, c.submitted_at DESC NULLS LAST, c.claim_id DESC
		LIMIT $2`, patientID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[ClaimStatus])
}

func (r *repoPG) Policies(ctx context.Context, patientID int64) ([]*Policy, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT ip.policy_id, ip.payer_id, py.name AS payer_name, ip.member_id, ip.group_number,
		       ip.plan_name, ip.is_primary, ip.effective_from, ip.effective_to
		FROM insurance_policies ip
		JOIN payers py ON py.payer_id = ip.payer_id
		WHERE ip.patient_id = $1
		ORDER BY ip.is_primary DESC, ip.effective_from DESC NULLS LAST, ip.policy_id`, patientID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToAddrOfStructByName[Policy])
}
