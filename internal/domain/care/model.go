package care

import "time"

const (
	KindCase          = "case"
	KindEncounter     = "encounter"
	KindNote          = "note"
	KindTask          = "task"
	KindCommunication = "communication"

	DefaultNoteType = "general"
)

// Case maps to the cases table.
type Case struct {
	ID             int64      `db:"case_id" json:"case_id"`
	PatientID      int64      `db:"patient_id" json:"patient_id"`
	ProviderID     *int64     `db:"provider_id" json:"provider_id"`
	DepartmentID   *int64     `db:"department_id" json:"department_id"`
	Title          string     `db:"title" json:"title"`
	ChiefComplaint *string    `db:"chief_complaint" json:"chief_complaint"`
	Diagnosis      *string    `db:"diagnosis" json:"diagnosis"`
	Status         string     `db:"status" json:"status"`
	Priority       string     `db:"priority" json:"priority"`
	OpenedAt       time.Time  `db:"opened_at" json:"opened_at"`
	ClosedAt       *time.Time `db:"closed_at" json:"closed_at"`
}

// Encounter maps to the encounters table.
type Encounter struct {
	ID            int64      `db:"encounter_id" json:"encounter_id"`
	PatientID     int64      `db:"patient_id" json:"patient_id"`
	CaseID        *int64     `db:"case_id" json:"case_id"`
	AppointmentID *int64     `db:"appointment_id" json:"appointment_id"`
	ProviderID    *int64     `db:"provider_id" json:"provider_id"`
	EncounterType *string    `db:"encounter_type" json:"encounter_type"`
	Location      *string    `db:"location" json:"location"`
	StartedAt     *time.Time `db:"started_at" json:"started_at"`
	EndedAt       *time.Time `db:"ended_at" json:"ended_at"`
	Status        string     `db:"status" json:"status"`
}

// Note maps to the notes table.
type Note struct {
	ID               int64     `db:"note_id" json:"note_id"`
	PatientID        int64     `db:"patient_id" json:"patient_id"`
	CaseID           *int64    `db:"case_id" json:"case_id"`
	AppointmentID    *int64    `db:"appointment_id" json:"appointment_id"`
	AuthorProviderID *int64    `db:"author_provider_id" json:"author_provider_id"`
	NoteType         string    `db:"note_type" json:"note_type"`
	Title            *string   `db:"title" json:"title"`
	Body             string    `db:"body" json:"body"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// Task maps to the tasks table.
type Task struct {
	ID                 int64      `db:"task_id" json:"task_id"`
	PatientID          int64      `db:"patient_id" json:"patient_id"`
	CaseID             *int64     `db:"case_id" json:"case_id"`
	AssignedProviderID *int64     `db:"assigned_provider_id" json:"assigned_provider_id"`
	Title              string     `db:"title" json:"title"`
	Description        *string    `db:"description" json:"description"`
	Status             string     `db:"status" json:"status"`
	Priority           string     `db:"priority" json:"priority"`
	DueAt              *time.Time `db:"due_at" json:"due_at"`
	CompletedAt        *time.Time `db:"completed_at" json:"completed_at"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
}

// Communication maps to the communications table.
type Communication struct {
	ID            int64     `db:"communication_id" json:"communication_id"`
	PatientID     int64     `db:"patient_id" json:"patient_id"`
	CaseID        *int64    `db:"case_id" json:"case_id"`
	AppointmentID *int64    `db:"appointment_id" json:"appointment_id"`
	Channel       string    `db:"channel" json:"channel"`
	Direction     string    `db:"direction" json:"direction"`
	Subject       *string   `db:"subject" json:"subject"`
	Body          *string   `db:"body" json:"body"`
	Outcome       *string   `db:"outcome" json:"outcome"`
	Status        string    `db:"status" json:"status"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Entry is one item of the merged timeline stream.
type Entry struct {
	Kind       string     `json:"kind"`
	ID         int64      `json:"id"`
	OccurredAt *time.Time `json:"occurred_at"`
	Title      string     `json:"title"`
	Status     string     `json:"status,omitempty"`
}

// Timeline is a patient's recent care activity, per type and merged.
type Timeline struct {
	PatientID      int64            `json:"patient_id"`
	Entries        []Entry          `json:"entries"`
	Cases          []*Case          `json:"cases"`
	Encounters     []*Encounter     `json:"encounters"`
	Notes          []*Note          `json:"notes"`
	Tasks          []*Task          `json:"tasks"`
	Communications []*Communication `json:"communications"`
}

type CreateNoteInput struct {
	PatientID        int64
	Body             string
	NoteType         string
	Title            string
	CaseID           int64
	AppointmentID    int64
	AuthorProviderID int64
}
