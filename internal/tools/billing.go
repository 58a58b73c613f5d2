package tools

import (
	"context"

	"github.com/ehr/hospitalcrm/internal/domain/billing"
	"github.com/ehr/hospitalcrm/internal/domain/pharmacy"
	"github.com/ehr/hospitalcrm/internal/platform/dispatch"
)

func billingSnapshotTool(svc BillingService) dispatch.Tool {
	return dispatch.Tool{
		Name:        "billing_snapshot",
		Description: "Outstanding invoices (total minus payments above zero), claim statuses and insurance policies for a patient.",
		ReadOnly:    true,
		Permission:  PermBillingRead,
		Params:      []dispatch.Param{patientIDParam(true), limitParam(billing.DefaultSnapshotLimit)},
		Handler: func(ctx context.Context, args dispatch.Args) (any, error) {
			return svc.Snapshot(ctx, args.Int("patient_id"), int(args.Int("limit")))
		},
	}
}

func clinicalSnapshotTool(svc ClinicalService) dispatch.Tool {
	return dispatch.Tool{
		Name:        "clinical_snapshot",
		Description: "Allergies and active prescriptions for a patient.",
		ReadOnly:    true,
		Permission:  PermClinicalRead,
		Params:      []dispatch.Param{patientIDParam(true), limitParam(pharmacy.DefaultSnapshotLimit)},
		Handler: func(ctx context.Context, args dispatch.Args) (any, error) {
			return svc.Snapshot(ctx, args.Int("patient_id"), int(args.Int("limit")))
		},
	}
}
