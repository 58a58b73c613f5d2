package tools

import (
	"context"

	"github.com/ehr/hospitalcrm/internal/domain/patient"
	"github.com/ehr/hospitalcrm/internal/platform/dispatch"
	"github.com/ehr/hospitalcrm/pkg/pagination"
)

func findPatientsTool(svc PatientService) dispatch.Tool {
	return dispatch.Tool{
		Name:        "find_patients",
		Description: "Search patients by a name fragment (first or last name, case-insensitive) and/or exact MRN. At least one is required.",
		ReadOnly:    true,
		Permission:  PermPatientsRead,
		Params: []dispatch.Param{
			textParam("name_fragment", "Part of the first or last name"),
			textParam("mrn", "Medical record number, exact match"),
			limitParam(pagination.DefaultLimit),
			offsetParam,
		},
		Handler: func(ctx context.Context, args dispatch.Args) (any, error) {
			page, err := pageFrom(args, pagination.DefaultLimit)
			if err != nil {
				return nil, err
			}
			rows, err := svc.Search(ctx, patient.SearchParams{
				NameFragment: args.String("name_fragment"),
				MRN:          args.String("mrn"),
				Page:         page,
			})
			if err != nil {
				return nil, err
			}
			if rows == nil {
				rows = []*patient.Summary{}
			}
			return map[string]any{"patients": rows, "count": len(rows)}, nil
		},
	}
}

func getPatientTool(svc PatientService) dispatch.Tool {
	return dispatch.Tool{
		Name:        "get_patient",
		Description: "Fetch one patient with contacts, primary contact first.",
		ReadOnly:    true,
		Permission:  PermPatientsRead,
		Params:      []dispatch.Param{patientIDParam(true)},
		Handler: func(ctx context.Context, args dispatch.Args) (any, error) {
			return svc.Get(ctx, args.Int("patient_id"))
		},
	}
}

func createPatientTool(svc PatientService) dispatch.Tool {
	return dispatch.Tool{
		Name:        "create_patient",
		Description: "Register a new patient. Returns the created record including patient_id.",
		Permission:  PermPatientsWrite,
		Params: []dispatch.Param{
			{Name: "first_name", Type: dispatch.TypeString, Required: true},
			{Name: "last_name", Type: dispatch.TypeString, Required: true},
			textParam("mrn", "Medical record number; must be unique"),
			{Name: "dob", Type: dispatch.TypeDate, Description: "Date of birth, YYYY-MM-DD"},
			textParam("sex", ""),
			textParam("phone", ""),
			textParam("email", ""),
			textParam("address_line1", ""),
			textParam("address_line2", ""),
			textParam("city", ""),
			textParam("state", ""),
			textParam("postal_code", ""),
			textParam("country", "Defaults to "+patient.DefaultCountry),
			{Name: "status", Type: dispatch.TypeString, Enum: patient.Statuses(), Description: "Defaults to active"},
		},
		Handler: func(ctx context.Context, args dispatch.Args) (any, error) {
			in := patient.CreateInput{
				MRN:          args.String("mrn"),
				FirstName:    args.String("first_name"),
				LastName:     args.String("last_name"),
				Sex:          args.String("sex"),
				Phone:        args.String("phone"),
				Email:        args.String("email"),
				AddressLine1: args.String("address_line1"),
				AddressLine2: args.String("address_line2"),
				City:         args.String("city"),
				State:        args.String("state"),
				PostalCode:   args.String("postal_code"),
				Country:      args.String("country"),
				Status:       args.String("status"),
			}
			if dob := args.Time("dob"); dob != nil {
				in.DOB = dob.Format("2006-01-02")
			}
			return svc.Create(ctx, in)
		},
	}
}
