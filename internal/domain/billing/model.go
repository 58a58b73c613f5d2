package billing

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

// DefaultSnapshotLimit bounds each list in a billing snapshot.
const DefaultSnapshotLimit = 50

// OutstandingInvoice is an invoice whose payments do not cover its total.
type OutstandingInvoice struct {
	ID            int64      `db:"invoice_id" json:"invoice_id"`
	InvoiceNumber string     `db:"invoice_number" json:"invoice_number"`
	Status        string     `db:"status" json:"status"`
	IssuedAt      *time.Time `db:"issued_at" json:"issued_at"`
	DueAt         *time.Time `db:"due_at" json:"due_at"`
	TotalAmount   float64    `db:"total_amount" json:"total_amount"`
	PaidAmount    float64    `db:"paid_amount" json:"paid_amount"`
	Balance       float64    `db:"balance" json:"balance"`
}

// ClaimStatus is a claim with its payer name.
type ClaimStatus struct {
	ID                    int64      `db:"claim_id" json:"claim_id"`
	ClaimNumber           *string    `db:"claim_number" json:"claim_number"`
	Status                string     `db:"status" json:"status"`
	PayerID               int64      `db:"payer_id" json:"payer_id"`
	PayerName             *string    `db:"payer_name" json:"payer_name"`
	TotalClaimAmount      float64    `db:"total_claim_amount" json:"total_claim_amount"`
	TotalPaidAmount       float64    `db:"total_paid_amount" json:"total_paid_amount"`
	PatientResponsibility float64    `db:"patient_responsibility" json:"patient_responsibility"`
	SubmittedAt           *time.Time `db:"submitted_at" json:"submitted_at"`
	UpdatedAt             time.Time  `db:"updated_at" json:"updated_at"`
}

// Policy is an insurance policy with its payer name.
type Policy struct {
	ID            int64       `db:"policy_id" json:"policy_id"`
	PayerID       int64       `db:"payer_id" json:"payer_id"`
	PayerName     string      `db:"payer_name" json:"payer_name"`
	MemberID      string      `db:"member_id" json:"member_id"`
	GroupNumber   *string     `db:"group_number" json:"group_number"`
	PlanName      *string     `db:"plan_name" json:"plan_name"`
	IsPrimary     bool        `db:"is_primary" json:"is_primary"`
	EffectiveFrom pgtype.Date `db:"effective_from" json:"effective_from"`
	EffectiveTo   pgtype.Date `db:"effective_to" json:"effective_to"`
}

// Snapshot is the billing picture for one patient.
type Snapshot struct {
	PatientID           int64                 `json:"patient_id"`
	OutstandingInvoices []*OutstandingInvoice `json:"outstanding_invoices"`
	Claims              []*ClaimStatus        `json:"claims"`
	Policies            []*Policy             `json:"insurance_policies"`
	TotalBalance        float64               `json:"total_balance"`
}
