// Package tools declares the operations exposed to LLM clients and binds
// them to the domain services.
package tools

import (
	"context"
	"fmt"

	"github.com/ehr/hospitalcrm/internal/domain/audit"
	"github.com/ehr/hospitalcrm/internal/domain/billing"
	"github.com/ehr/hospitalcrm/internal/domain/care"
	"github.com/ehr/hospitalcrm/internal/domain/org"
	"github.com/ehr/hospitalcrm/internal/domain/patient"
	"github.com/ehr/hospitalcrm/internal/domain/pharmacy"
	"github.com/ehr/hospitalcrm/internal/domain/scheduling"
	"github.com/ehr/hospitalcrm/internal/platform/db"
	"github.com/ehr/hospitalcrm/internal/platform/dispatch"
	"github.com/ehr/hospitalcrm/pkg/pagination"
)

// Permission codes seeded by migrations/003_access.sql.
const (
	PermPatientsRead      = "patients.read"
	PermPatientsWrite     = "patients.write"
	PermAppointmentsRead  = "appointments.read"
	PermAppointmentsWrite = "appointments.write"
	PermNotesWrite        = "notes.write"
	PermBillingRead       = "billing.read"
	PermClinicalRead      = "clinical.read"
	PermAuditRead         = "audit.read"
)

type StoreInspector interface {
	Health(ctx context.Context) (*db.HealthReport, error)
	Tables(ctx context.Context) ([]string, error)
}

type PatientService interface {
	Search(ctx context.Context, params patient.SearchParams) ([]*patient.Summary, error)
	Get(ctx context.Context, id int64) (*patient.Detail, error)
	Create(ctx context.Context, in patient.CreateInput) (*patient.Patient, error)
}

type SchedulingService interface {
	List(ctx context.Context, params scheduling.ListParams) ([]*scheduling.Appointment, error)
	Upcoming(ctx context.Context, params scheduling.UpcomingParams) ([]*scheduling.Appointment, error)
	Create(ctx context.Context, in scheduling.CreateInput) (*scheduling.Appointment, error)
}

type CareService interface {
	Timeline(ctx context.Context, patientID int64, perType int) (*care.Timeline, error)
	CreateNote(ctx context.Context, in care.CreateNoteInput) (*care.Note, error)
}

type BillingService interface {
	Snapshot(ctx context.Context, patientID int64, limit int) (*billing.Snapshot, error)
}

type ClinicalService interface {
	Snapshot(ctx context.Context, patientID int64, limit int) (*pharmacy.ClinicalSnapshot, error)
}

type OrgService interface {
	ListProviders(ctx context.Context, f org.ProviderFilter) ([]*org.Provider, error)
	ListDepartments(ctx context.Context) ([]*org.Department, error)
}

type AuditService interface {
	Trail(ctx context.Context, entityType, entityID string, page pagination.Params) ([]*audit.Entry, error)
}

// Services are the dependencies of the catalog. All are required.
type Services struct {
	Store      StoreInspector
	Patients   PatientService
	Scheduling SchedulingService
	Care       CareService
	Billing    BillingService
	Clinical   ClinicalService
	Org        OrgService
	Audit      AuditService
}

// Register adds every tool to r in the order clients see them listed.
func Register(r *dispatch.Registry, s Services) error {
	catalog := []dispatch.Tool{
		dbHealthTool(s.Store),
		listTablesTool(s.Store),
		findPatientsTool(s.Patients),
		getPatientTool(s.Patients),
		listAppointmentsTool(s.Scheduling),
		upcomingAppointmentsTool(s.Scheduling),
		caseTimelineTool(s.Care),
		billingSnapshotTool(s.Billing),
		clinicalSnapshotTool(s.Clinical),
		listProvidersTool(s.Org),
		listDepartmentsTool(s.Org),
		auditTrailTool(s.Audit),
		createPatientTool(s.Patients),
		createAppointmentTool(s.Scheduling),
		createNoteTool(s.Care),
	}
	for _, t := range catalog {
		if err := r.Register(t); err != nil {
			return fmt.Errorf("register tools: %w", err)
		}
	}
	return nil
}

func patientIDParam(required bool) dispatch.Param {
	return dispatch.Param{
		Name: "patient_id", Type: dispatch.TypeInteger, Required: required,
		Min: dispatch.Bound(1), Description: "Patient identifier",
	}
}

func idParam(name, desc string) dispatch.Param {
	return dispatch.Param{Name: name, Type: dispatch.TypeInteger, Min: dispatch.Bound(1), Description: desc}
}

func limitParam(def int) dispatch.Param {
	return dispatch.Param{
		Name: "limit", Type: dispatch.TypeInteger,
		Min: dispatch.Bound(1), Max: dispatch.Bound(pagination.MaxLimit),
		Description: fmt.Sprintf("Maximum rows to return (1-%d, default %d)", pagination.MaxLimit, def),
	}
}

var offsetParam = dispatch.Param{
	Name: "offset", Type: dispatch.TypeInteger, Min: dispatch.Bound(0),
	Description: "Rows to skip, for paging",
}

func textParam(name, desc string) dispatch.Param {
	return dispatch.Param{Name: name, Type: dispatch.TypeString, Description: desc}
}

func pageFrom(args dispatch.Args, def int) (pagination.Params, error) {
	return pagination.NewWithDefault(int(args.Int("limit")), int(args.Int("offset")), def)
}
