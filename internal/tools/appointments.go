package tools

import (
	"context"
	"time"

	"github.com/ehr/hospitalcrm/internal/domain/scheduling"
	"github.com/ehr/hospitalcrm/internal/platform/dispatch"
	"github.com/ehr/hospitalcrm/pkg/pagination"
)

func listAppointmentsTool(svc SchedulingService) dispatch.Tool {
	return dispatch.Tool{
		Name:        "list_appointments",
		Description: "List appointments for exactly one patient or provider, most recent first. Optionally bound by date range and status.",
		ReadOnly:    true,
		Permission:  PermAppointmentsRead,
		Params: []dispatch.Param{
			patientIDParam(false),
			idParam("provider_id", "Provider identifier"),
			{Name: "from", Type: dispatch.TypeDate, Description: "First day included, YYYY-MM-DD"},
			{Name: "to", Type: dispatch.TypeDate, Description: "Last day included, YYYY-MM-DD"},
			{Name: "status", Type: dispatch.TypeString, Enum: scheduling.Statuses()},
			limitParam(pagination.DefaultLimit),
			offsetParam,
		},
		Handler: func(ctx context.Context, args dispatch.Args) (any, error) {
			page, err := pageFrom(args, pagination.DefaultLimit)
			if err != nil {
				return nil, err
			}
			params := scheduling.ListParams{
				PatientID:  args.Int("patient_id"),
				ProviderID: args.Int("provider_id"),
				From:       args.Time("from"),
				Status:     args.String("status"),
				Page:       page,
			}
			if to := args.Time("to"); to != nil {
				end := to.Add(24 * time.Hour)
				params.To = &end
			}
			rows, err := svc.List(ctx, params)
			if err != nil {
				return nil, err
			}
			return appointmentsResult(rows), nil
		},
	}
}

func upcomingAppointmentsTool(svc SchedulingService) dispatch.Tool {
	return dispatch.Tool{
		Name:        "upcoming_appointments",
		Description: "Appointments starting between now and the given number of days ahead, soonest first. Optionally for one patient or one provider.",
		ReadOnly:    true,
		Permission:  PermAppointmentsRead,
		Params: []dispatch.Param{
			patientIDParam(false),
			idParam("provider_id", "Provider identifier"),
			{
				Name: "days", Type: dispatch.TypeInteger,
				Min: dispatch.Bound(1), Max: dispatch.Bound(scheduling.MaxUpcomingDays),
				Description: "Window length in days (default 30)",
			},
			limitParam(pagination.DefaultLimit),
			offsetParam,
		},
		Handler: func(ctx context.Context, args dispatch.Args) (any, error) {
			page, err := pageFrom(args, pagination.DefaultLimit)
			if err != nil {
				return nil, err
			}
			rows, err := svc.Upcoming(ctx, scheduling.UpcomingParams{
				PatientID:  args.Int("patient_id"),
				ProviderID: args.Int("provider_id"),
				Days:       int(args.IntOr("days", scheduling.DefaultUpcomingDays)),
				Page:       page,
			})
			if err != nil {
				return nil, err
			}
			return appointmentsResult(rows), nil
		},
	}
}

func createAppointmentTool(svc SchedulingService) dispatch.Tool {
	return dispatch.Tool{
		Name:        "create_appointment",
		Description: "Book an appointment. ends_at, when given, must not precede starts_at.",
		Permission:  PermAppointmentsWrite,
		Params: []dispatch.Param{
			patientIDParam(true),
			{Name: "starts_at", Type: dispatch.TypeTimestamp, Required: true, Description: "RFC 3339 start time"},
			{Name: "ends_at", Type: dispatch.TypeTimestamp, Description: "RFC 3339 end time"},
			idParam("provider_id", "Provider identifier"),
			idParam("department_id", "Department identifier"),
			idParam("case_id", "Case identifier"),
			{Name: "status", Type: dispatch.TypeString, Enum: scheduling.Statuses(), Description: "Defaults to scheduled"},
			textParam("reason", "Reason for visit"),
			textParam("location", "Room or site"),
		},
		Handler: func(ctx context.Context, args dispatch.Args) (any, error) {
			return svc.Create(ctx, scheduling.CreateInput{
				PatientID:    args.Int("patient_id"),
				ProviderID:   args.Int("provider_id"),
				DepartmentID: args.Int("department_id"),
				CaseID:       args.Int("case_id"),
				StartsAt:     *args.Time("starts_at"),
				EndsAt:       args.Time("ends_at"),
				Status:       args.String("status"),
				Reason:       args.String("reason"),
				Location:     args.String("location"),
			})
		},
	}
}

func appointmentsResult(rows []*scheduling.Appointment) map[string]any {
	if rows == nil {
		rows = []*scheduling.Appointment{}
	}
	return map[string]any{"appointments": rows, "count": len(rows)}
}
