package pharmacy

import (
	"context"
	"testing"

	"github.com/ehr/hospitalcrm/internal/platform/apperr"
)

type mockRepo struct {
	allergies []*Allergy
	rx        []*ActivePrescription
	lastLimit int
}

func (m *mockRepo) Allergies(_ context.Context, _ int64, limit int) ([]*Allergy, error) {
	m.lastLimit = limit
	return m.allergies, nil
}

func (m *mockRepo) ActivePrescriptions(context.Context, int64, int) ([]*ActivePrescription, error) {
	return m.rx, nil
}

type mockPatients map[int64]bool

func (m mockPatients) Exists(_ context.Context, id int64) (bool, error) { return m[id], nil }

func TestSnapshot(t *testing.T) {
	repo := &mockRepo{
		allergies: []*Allergy{{ID: 1, Allergen: "Penicillin", Severity: "severe", Status: "active"}},
		rx:        []*ActivePrescription{{ID: 2, Status: "active", MedicationName: "Lisinopril"}},
	}
	svc := NewService(repo, mockPatients{1: true})

	snap, err := svc.Snapshot(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(snap.Allergies) != 1 || snap.Allergies[0].Allergen != "Penicillin" {
		t.Errorf("unexpected allergies %+v", snap.Allergies)
	}
	if len(snap.ActivePrescriptions) != 1 || snap.ActivePrescriptions[0].MedicationName != "Lisinopril" {
		t.Errorf("unexpected prescriptions %+v", snap.ActivePrescriptions)
	}
	if repo.lastLimit != DefaultSnapshotLimit {
		t.Errorf("expected default limit, got %d", repo.lastLimit)
	}
}

func TestSnapshot_EmptyArrays(t *testing.T) {
	svc := NewService(&mockRepo{}, mockPatients{1: true})
	snap, err := svc.Snapshot(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.Allergies == nil || snap.ActivePrescriptions == nil {
		t.Error("expected empty slices, not nil")
	}
}

func TestSnapshot_Errors(t *testing.T) {
	svc := NewService(&mockRepo{}, mockPatients{})
	if _, err := svc.Snapshot(context.Background(), 0, 10); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if _, err := svc.Snapshot(context.Background(), 8, 10); !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not_found, got %v", err)
	}
}
