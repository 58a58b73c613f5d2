package scheduling

import (
	"time"

	"github.com/ehr/hospitalcrm/pkg/pagination"
)

const (
	StatusScheduled = "scheduled"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
	StatusNoShow    = "no_show"
	StatusCompleted = "completed"

	DefaultUpcomingDays = 30
	MaxUpcomingDays     = 365
)

var validStatuses = map[string]bool{
	StatusScheduled: true, StatusConfirmed: true, StatusCancelled: true,
	StatusNoShow: true, StatusCompleted: true,
}

// Statuses lists the accepted appointment statuses.
func Statuses() []string {
	return []string{StatusScheduled, StatusConfirmed, StatusCancelled, StatusNoShow, StatusCompleted}
}

// Appointment maps to the appointments table. ProviderName and
// DepartmentName come from joins and are empty when the reference is absent.
type Appointment struct {
	ID             int64      `db:"appointment_id" json:"appointment_id"`
	PatientID      int64      `db:"patient_id" json:"patient_id"`
	ProviderID     *int64     `db:"provider_id" json:"provider_id"`
	ProviderName   *string    `db:"provider_name" json:"provider_name"`
	DepartmentID   *int64     `db:"department_id" json:"department_id"`
	DepartmentName *string    `db:"department_name" json:"department_name"`
	CaseID         *int64     `db:"case_id" json:"case_id"`
	StartsAt       time.Time  `db:"starts_at" json:"starts_at"`
	EndsAt         *time.Time `db:"ends_at" json:"ends_at"`
	Status         string     `db:"status" json:"status"`
	Reason         *string    `db:"reason" json:"reason"`
	Location       *string    `db:"location" json:"location"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// ListParams selects appointments for exactly one patient or provider.
// From and To bound starts_at inclusively on the left and exclusively on
// the right.
type ListParams struct {
	PatientID  int64
	ProviderID int64
	From       *time.Time
	To         *time.Time
	Status     string
	Page       pagination.Params
}

// UpcomingParams selects appointments starting in [Now, Now+Days).
type UpcomingParams struct {
	PatientID  int64
	ProviderID int64
	Days       int
	Now        time.Time
	Page       pagination.Params
}

// CreateInput carries a new appointment. Zero IDs mean "not set".
type CreateInput struct {
	PatientID    int64
	ProviderID   int64
	DepartmentID int64
	CaseID       int64
	StartsAt     time.Time
	EndsAt       *time.Time
	Status       string
	Reason       string
	Location     string
}
