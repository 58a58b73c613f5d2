package patient

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/ehr/hospitalcrm/pkg/pagination"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
	StatusDeceased = "deceased"
	StatusMerged   = "merged"

	DefaultCountry = "USA"
)

var validStatuses = map[string]bool{
	StatusActive: true, StatusInactive: true, StatusDeceased: true, StatusMerged: true,
}

func Statuses() []string {
	return []string{StatusActive, StatusInactive, StatusDeceased, StatusMerged}
}

// Patient maps to the patients table.
type Patient struct {
	ID           int64       `db:"patient_id" json:"patient_id"`
	MRN          *string     `db:"mrn" json:"mrn"`
	FirstName    string      `db:"first_name" json:"first_name"`
	LastName     string      `db:"last_name" json:"last_name"`
	DOB          pgtype.Date `db:"dob" json:"dob"`
	Sex          *string     `db:"sex" json:"sex"`
	Phone        *string     `db:"phone" json:"phone"`
	Email        *string     `db:"email" json:"email"`
	AddressLine1 *string     `db:"address_line1" json:"address_line1"`
	AddressLine2 *string     `db:"address_line2" json:"address_line2"`
	City         *string     `db:"city" json:"city"`
	State        *string     `db:"state" json:"state"`
	PostalCode   *string     `db:"postal_code" json:"postal_code"`
	Country      *string     `db:"country" json:"country"`
	Status       string      `db:"status" json:"status"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// Summary is the row shape returned by lookups.
type Summary struct {
	ID        int64       `db:"patient_id" json:"patient_id"`
	MRN       *string     `db:"mrn" json:"mrn"`
	FirstName string      `db:"first_name" json:"first_name"`
	LastName  string      `db:"last_name" json:"last_name"`
	DOB       pgtype.Date `db:"dob" json:"dob"`
	Phone     *string     `db:"phone" json:"phone"`
	Email     *string     `db:"email" json:"email"`
	Status    string      `db:"status" json:"status"`
}

// Contact maps to the patient_contacts table.
type Contact struct {
	ID           int64     `db:"contact_id" json:"contact_id"`
	PatientID    int64     `db:"patient_id" json:"patient_id"`
	Relationship string    `db:"relationship" json:"relationship"`
	FullName     string    `db:"full_name" json:"full_name"`
	Phone        *string   `db:"phone" json:"phone"`
	Email        *string   `db:"email" json:"email"`
	IsPrimary    bool      `db:"is_primary" json:"is_primary"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Detail is a patient together with its contacts.
type Detail struct {
	*Patient
	Contacts []*Contact `json:"contacts"`
}

type SearchParams struct {
	NameFragment string
	MRN          string
	Page         pagination.Params
}

// CreateInput carries the caller-supplied fields for a new patient. Empty
// optional strings are stored as NULL; DOB is YYYY-MM-DD.
type CreateInput struct {
	MRN          string `json:"mrn"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	DOB          string `json:"dob"`
	Sex          string `json:"sex"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	AddressLine1 string `json:"address_line1"`
	AddressLine2 string `json:"address_line2"`
	City         string `json:"city"`
	State        string `json:"state"`
	PostalCode   string `json:"postal_code"`
	Country      string `json:"country"`
	Status       string `json:"status"`
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
