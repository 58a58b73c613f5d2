package tools

import (
	"context"

	"github.com/ehr/hospitalcrm/internal/domain/care"
	"github.com/ehr/hospitalcrm/internal/platform/dispatch"
	"github.com/ehr/hospitalcrm/pkg/pagination"
)

func caseTimelineTool(svc CareService) dispatch.Tool {
	return dispatch.Tool{
		Name: "case_timeline",
		Description: "A patient's cases, encounters, notes, tasks and communications. " +
			"entries merges them most recent first.",
		ReadOnly:   true,
		Permission: PermClinicalRead,
		Params: []dispatch.Param{
			patientIDParam(true),
			{
				Name: "limit_per_type", Type: dispatch.TypeInteger,
				Min: dispatch.Bound(1), Max: dispatch.Bound(pagination.MaxLimit),
				Description: "Rows per activity kind (default 25)",
			},
		},
		Handler: func(ctx context.Context, args dispatch.Args) (any, error) {
			return svc.Timeline(ctx, args.Int("patient_id"),
				int(args.IntOr("limit_per_type", pagination.DefaultPerType)))
		},
	}
}

func createNoteTool(svc CareService) dispatch.Tool {
	return dispatch.Tool{
		Name:        "create_note",
		Description: "Attach a note to a patient, optionally linked to a case, appointment and author.",
		Permission:  PermNotesWrite,
		Params: []dispatch.Param{
			patientIDParam(true),
			{Name: "body", Type: dispatch.TypeString, Required: true},
			textParam("note_type", "Defaults to "+care.DefaultNoteType),
			textParam("title", ""),
			idParam("case_id", "Case identifier"),
			idParam("appointment_id", "Appointment identifier"),
			idParam("author_provider_id", "Authoring provider"),
		},
		Handler: func(ctx context.Context, args dispatch.Args) (any, error) {
			return svc.CreateNote(ctx, care.CreateNoteInput{
				PatientID:        args.Int("patient_id"),
				Body:             args.String("body"),
				NoteType:         args.String("note_type"),
				Title:            args.String("title"),
				CaseID:           args.Int("case_id"),
				AppointmentID:    args.Int("appointment_id"),
				AuthorProviderID: args.Int("author_provider_id"),
			})
		},
	}
}
