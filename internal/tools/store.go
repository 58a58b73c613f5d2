package tools

import (
	"context"

	"github.com/ehr/hospitalcrm/internal/platform/dispatch"
)

func dbHealthTool(store StoreInspector) dispatch.Tool {
	return dispatch.Tool{
		Name:        "db_health",
		Description: "Check database connectivity and whether the CRM schema exists.",
		ReadOnly:    true,
		Handler: func(ctx context.Context, _ dispatch.Args) (any, error) {
			return store.Health(ctx)
		},
	}
}

func listTablesTool(store StoreInspector) dispatch.Tool {
	return dispatch.Tool{
		Name:        "list_tables",
		Description: "List the tables in the CRM schema.",
		ReadOnly:    true,
		Handler: func(ctx context.Context, _ dispatch.Args) (any, error) {
			tables, err := store.Tables(ctx)
			if err != nil {
				return nil, err
			}
			if tables == nil {
				tables = []string{}
			}
			return map[string]any{"tables": tables}, nil
		},
	}
}
