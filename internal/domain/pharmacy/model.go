package pharmacy

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

const DefaultSnapshotLimit = 50

// Allergy maps to the allergies table.
type Allergy struct {
	ID       int64      `db:"allergy_id" json:"allergy_id"`
	Allergen string     `db:"allergen" json:"allergen"`
	Reaction *string    `db:"reaction" json:"reaction"`
	Severity string     `db:"severity" json:"severity"`
	Status   string     `db:"status" json:"status"`
	NotedAt  *time.Time `db:"noted_at" json:"noted_at"`
}

// ActivePrescription is an active prescription joined with its medication
// and the most recent dispense, if any.
type ActivePrescription struct {
	ID                 int64       `db:"prescription_id" json:"prescription_id"`
	Status             string      `db:"status" json:"status"`
	StartDate          pgtype.Date `db:"start_date" json:"start_date"`
	EndDate            pgtype.Date `db:"end_date" json:"end_date"`
	DosageInstructions *string     `db:"dosage_instructions" json:"dosage_instructions"`
	Refills            int         `db:"refills" json:"refills"`
	MedicationID       *int64      `db:"medication_id" json:"medication_id"`
	MedicationName     string      `db:"medication_name" json:"medication_name"`
	LastDispensedAt    *time.Time  `db:"last_dispensed_at" json:"last_dispensed_at"`
}

// ClinicalSnapshot is the safety-relevant clinical picture for one patient.
type ClinicalSnapshot struct {
	PatientID           int64                 `json:"patient_id"`
	Allergies           []*Allergy            `json:"allergies"`
	ActivePrescriptions []*ActivePrescription `json:"active_prescriptions"`
}
