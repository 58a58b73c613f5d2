package tools

import (
	"context"

	"github.com/ehr/hospitalcrm/internal/domain/audit"
	"github.com/ehr/hospitalcrm/internal/domain/org"
	"github.com/ehr/hospitalcrm/internal/platform/dispatch"
	"github.com/ehr/hospitalcrm/pkg/pagination"
)

func listProvidersTool(svc OrgService) dispatch.Tool {
	return dispatch.Tool{
		Name:        "list_providers",
		Description: "List providers, optionally for one department or active only.",
		ReadOnly:    true,
		Params: []dispatch.Param{
			idParam("department_id", "Department identifier"),
			{Name: "active_only", Type: dispatch.TypeBoolean, Description: "Skip inactive providers"},
			limitParam(pagination.DefaultLimit),
			offsetParam,
		},
		Handler: func(ctx context.Context, args dispatch.Args) (any, error) {
			page, err := pageFrom(args, pagination.DefaultLimit)
			if err != nil {
				return nil, err
			}
			rows, err := svc.ListProviders(ctx, org.ProviderFilter{
				DepartmentID: args.Int("department_id"),
				ActiveOnly:   args.Bool("active_only"),
				Page:         page,
			})
			if err != nil {
				return nil, err
			}
			if rows == nil {
				rows = []*org.Provider{}
			}
			return map[string]any{"providers": rows, "count": len(rows)}, nil
		},
	}
}

func listDepartmentsTool(svc OrgService) dispatch.Tool {
	return dispatch.Tool{
		Name:        "list_departments",
		Description: "List hospital departments.",
		ReadOnly:    true,
		Handler: func(ctx context.Context, _ dispatch.Args) (any, error) {
			rows, err := svc.ListDepartments(ctx)
			if err != nil {
				return nil, err
			}
			if rows == nil {
				rows = []*org.Department{}
			}
			return map[string]any{"departments": rows}, nil
		},
	}
}

func auditTrailTool(svc AuditService) dispatch.Tool {
	return dispatch.Tool{
		Name:        "audit_trail",
		Description: "Audit log entries for one entity (for example entity_type patient), newest first.",
		ReadOnly:    true,
		Permission:  PermAuditRead,
		Params: []dispatch.Param{
			{Name: "entity_type", Type: dispatch.TypeString, Required: true, Description: "patient, appointment, note or user"},
			{Name: "entity_id", Type: dispatch.TypeString, Required: true},
			limitParam(pagination.DefaultLimit),
			offsetParam,
		},
		Handler: func(ctx context.Context, args dispatch.Args) (any, error) {
			page, err := pageFrom(args, pagination.DefaultLimit)
			if err != nil {
				return nil, err
			}
			rows, err := svc.Trail(ctx, args.String("entity_type"), args.String("entity_id"), page)
			if err != nil {
				return nil, err
			}
			if rows == nil {
				rows = []*audit.Entry{}
			}
			return map[string]any{"entries": rows, "count": len(rows)}, nil
		},
	}
}
