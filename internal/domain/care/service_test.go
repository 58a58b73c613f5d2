package care

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ehr/hospitalcrm/internal/platform/apperr"
)

// -- Mock Repositories --

type mockRepo struct {
	cases          []*Case
	encounters     []*Encounter
	notes          []*Note
	tasks          []*Task
	communications []*Communication
	lastLimit      int
}

func (m *mockRepo) Cases(_ context.Context, _ int64, limit int) ([]*Case, error) {
	m.lastLimit = limit
	return m.cases, nil
}

func (m *mockRepo) Encounters(context.Context, int64, int) ([]*Encounter, error) {
	return m.encounters, nil
}

func (m *mockRepo) Notes(context.Context, int64, int) ([]*Note, error) {
	return m.notes, nil
}

func (m *mockRepo) Tasks(context.Context, int64, int) ([]*Task, error) {
	return m.tasks, nil
}

func (m *mockRepo) Communications(context.Context, int64, int) ([]*Communication, error) {
	return m.communications, nil
}

func (m *mockRepo) CreateNote(_ context.Context, n *Note) error {
	n.ID = int64(len(m.notes) + 1)
	n.CreatedAt = time.Now()
	m.notes = append(m.notes, n)
	return nil
}

type mockPatients map[int64]bool

func (m mockPatients) Exists(_ context.Context, id int64) (bool, error) {
	return m[id], nil
}

type mockRecorder struct {
	entityTypes []string
}

func (m *mockRecorder) Record(_ context.Context, entityType string, _ int64, _ string, _ map[string]any) error {
	m.entityTypes = append(m.entityTypes, entityType)
	return nil
}

func at(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func ptr[T any](v T) *T { return &v }

// -- Tests --

func TestTimeline_MergedByRecency(t *testing.T) {
	repo := &mockRepo{
		cases:      []*Case{{ID: 1, Title: "Chest pain", Status: "open", OpenedAt: at("2025-01-01T10:00:00Z")}},
		encounters: []*Encounter{{ID: 2, StartedAt: ptr(at("2025-01-03T10:00:00Z")), Status: "closed"}, {ID: 3, Status: "open"}},
		notes:      []*Note{{ID: 4, NoteType: "general", CreatedAt: at("2025-01-05T10:00:00Z")}},
		tasks:      []*Task{{ID: 5, Title: "Call back", Status: "open", CreatedAt: at("2025-01-02T10:00:00Z")}},
		communications: []*Communication{
			{ID: 6, Channel: "phone", Direction: "outbound", Status: "completed", CreatedAt: at("2025-01-04T10:00:00Z")},
		},
	}
	svc := NewService(repo, mockPatients{9: true}, &mockRecorder{})

	tl, err := svc.Timeline(context.Background(), 9, 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.lastLimit != 25 {
		t.Errorf("expected per-type limit 25, got %d", repo.lastLimit)
	}

	wantIDs := []int64{4, 6, 2, 5, 1, 3}
	if len(tl.Entries) != len(wantIDs) {
		t.Fatalf("expected %d entries, got %d", len(wantIDs), len(tl.Entries))
	}
	for i, id := range wantIDs {
		if tl.Entries[i].ID != id {
			t.Errorf("entry %d: expected id %d, got %d (%s)", i, id, tl.Entries[i].ID, tl.Entries[i].Kind)
		}
	}
	if tl.Entries[len(tl.Entries)-1].OccurredAt != nil {
		t.Error("expected undated encounter last")
	}
	if tl.Entries[1].Title != "phone outbound" {
		t.Errorf("unexpected communication title %q", tl.Entries[1].Title)
	}
}

func TestTimeline_EmptyPatientHasArrays(t *testing.T) {
	svc := NewService(&mockRepo{}, mockPatients{1: true}, &mockRecorder{})
	tl, err := svc.Timeline(context.Background(), 1, 25)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tl.Cases == nil || tl.Encounters == nil || tl.Notes == nil || tl.Tasks == nil || tl.Communications == nil {
		t.Error("expected empty slices, not nil")
	}
	if len(tl.Entries) != 0 {
		t.Errorf("expected no entries, got %d", len(tl.Entries))
	}
}

func TestTimeline_UnknownPatient(t *testing.T) {
	svc := NewService(&mockRepo{}, mockPatients{}, &mockRecorder{})
	_, err := svc.Timeline(context.Background(), 5, 25)
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Errorf("expected not_found, got %v", err)
	}
}

func TestCreateNote(t *testing.T) {
	repo := &mockRepo{}
	rec := &mockRecorder{}
	svc := NewService(repo, mockPatients{1: true}, rec)

	n, err := svc.CreateNote(context.Background(), CreateNoteInput{PatientID: 1, Body: " Patient stable. ", AuthorProviderID: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n.NoteType != DefaultNoteType {
		t.Errorf("expected default note type, got %s", n.NoteType)
	}
	if n.Body != "Patient stable." {
		t.Errorf("expected trimmed body, got %q", n.Body)
	}
	if n.AuthorProviderID == nil || *n.AuthorProviderID != 3 {
		t.Errorf("expected author 3, got %v", n.AuthorProviderID)
	}
	if n.CaseID != nil {
		t.Error("expected no case")
	}
	if len(rec.entityTypes) != 1 || rec.entityTypes[0] != "note" {
		t.Errorf("expected one note audit entry, got %v", rec.entityTypes)
	}
}

func TestCreateNote_UnknownPatient(t *testing.T) {
	repo := &mockRepo{}
	rec := &mockRecorder{}
	svc := NewService(repo, mockPatients{1: true}, rec)

	_, err := svc.CreateNote(context.Background(), CreateNoteInput{PatientID: 999, Body: "Patient stable."})
	if !apperr.IsKind(err, apperr.KindNotFound) {
		t.Fatalf("expected not_found, got %v", err)
	}
	if len(repo.notes) != 0 || len(rec.entityTypes) != 0 {
		t.Error("expected nothing persisted")
	}
}

func TestCreateNote_Validation(t *testing.T) {
	svc := NewService(&mockRepo{}, mockPatients{}, &mockRecorder{})
	tests := []struct {
		in      CreateNoteInput
		wantArg string
	}{
		{CreateNoteInput{Body: "x"}, "patient_id"},
		{CreateNoteInput{PatientID: 1, Body: "   "}, "body"},
	}
	for _, tt := range tests {
		_, err := svc.CreateNote(context.Background(), tt.in)
		var ae *apperr.Error
		if !errors.As(err, &ae) || ae.Argument != tt.wantArg {
			t.Errorf("expected validation error on %s, got %v", tt.wantArg, err)
		}
	}
}
