package care

import (
	"context"
	"sort"
	"strings"

	"github.com/ehr/hospitalcrm/internal/domain/audit"
	"github.com/ehr/hospitalcrm/internal/platform/apperr"
)

type Service struct {
	repo     Repository
	patients PatientChecker
	audit    audit.Recorder
}

func NewService(repo Repository, patients PatientChecker, rec audit.Recorder) *Service {
	return &Service{repo: repo, patients: patients, audit: rec}
}

// Timeline gathers up to perType rows of each activity kind and merges them
// into a single stream, most recent first. Undated rows sort last.
func (s *Service) Timeline(ctx context.Context, patientID int64, perType int) (*Timeline, error) {
	if patientID <= 0 {
		return nil, apperr.Invalid("patient_id", "must be a positive integer")
	}
	if perType <= 0 {
		return nil, apperr.Invalid("limit_per_type", "must be positive")
	}
	if err := s.requirePatient(ctx, patientID); err != nil {
		return nil, err
	}

	t := &Timeline{PatientID: patientID}
	var err error
	if t.Cases, err = s.repo.Cases(ctx, patientID, perType); err != nil {
		return nil, err
	}
	if t.Encounters, err = s.repo.Encounters(ctx, patientID, perType); err != nil {
		return nil, err
	}
	if t.Notes, err = s.repo.Notes(ctx, patientID, perType); err != nil {
		return nil, err
	}
	if t.Tasks, err = s.repo.Tasks(ctx, patientID, perType); err != nil {
		return nil, err
	}
	if t.Communications, err = s.repo.Communications(ctx, patientID, perType); err != nil {
		return nil, err
	}
	t.normalize()
	t.Entries = t.merge()
	return t, nil
}

// normalize replaces nil slices so the JSON form always carries arrays.
func (t *Timeline) normalize() {
	if t.Cases == nil {
		t.Cases = []*Case{}
	}
	if t.Encounters == nil {
		t.Encounters = []*Encounter{}
	}
	if t.Notes == nil {
		t.Notes = []*Note{}
	}
	if t.Tasks == nil {
		t.Tasks = []*Task{}
	}
	if t.Communications == nil {
		t.Communications = []*Communication{}
	}
}

func (t *Timeline) merge() []Entry {
	entries := make([]Entry, 0, len(t.Cases)+len(t.Encounters)+len(t.Notes)+len(t.Tasks)+len(t.Communications))
	for _, c := range t.Cases {
		at := c.OpenedAt
		entries = append(entries, Entry{Kind: KindCase, ID: c.ID, OccurredAt: &at, Title: c.Title, Status: c.Status})
	}
	for _, e := range t.Encounters {
		title := "Encounter"
		if e.EncounterType != nil {
			title = *e.EncounterType
		}
		entries = append(entries, Entry{Kind: KindEncounter, ID: e.ID, OccurredAt: e.StartedAt, Title: title, Status: e.Status})
	}
	for _, n := range t.Notes {
		at := n.CreatedAt
		title := n.NoteType
		if n.Title != nil {
			title = *n.Title
		}
		entries = append(entries, Entry{Kind: KindNote, ID: n.ID, OccurredAt: &at, Title: title})
	}
	for _, k := range t.Tasks {
		at := k.CreatedAt
		entries = append(entries, Entry{Kind: KindTask, ID: k.ID, OccurredAt: &at, Title: k.Title, Status: k.Status})
	}
	for _, c := range t.Communications {
		at := c.CreatedAt
		title := c.Channel + " " + c.Direction
		if c.Subject != nil {
			title = *c.Subject
		}
		entries = append(entries, Entry{Kind: KindCommunication, ID: c.ID, OccurredAt: &at, Title: title, Status: c.Status})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i].OccurredAt, entries[j].OccurredAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	return entries
}

func (s *Service) CreateNote(ctx context.Context, in CreateNoteInput) (*Note, error) {
	if in.PatientID <= 0 {
		return nil, apperr.Invalid("patient_id", "must be a positive integer")
	}
	body := strings.TrimSpace(in.Body)
	if body == "" {
		return nil, apperr.Invalid("body", "is required")
	}
	noteType := strings.TrimSpace(in.NoteType)
	if noteType == "" {
		noteType = DefaultNoteType
	}
	if err := s.requirePatient(ctx, in.PatientID); err != nil {
		return nil, err
	}

	n := &Note{
		PatientID:        in.PatientID,
		CaseID:           optionalID(in.CaseID),
		AppointmentID:    optionalID(in.AppointmentID),
		AuthorProviderID: optionalID(in.AuthorProviderID),
		NoteType:         noteType,
		Body:             body,
	}
	if title := strings.TrimSpace(in.Title); title != "" {
		n.Title = &title
	}
	if err := s.repo.CreateNote(ctx, n); err != nil {
		return nil, err
	}
	if err := s.audit.Record(ctx, KindNote, n.ID, audit.ActionCreate, map[string]any{
		"patient_id": n.PatientID,
		"note_type":  n.NoteType,
	}); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Service) requirePatient(ctx context.Context, id int64) error {
	ok, err := s.patients.Exists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.NotFound("patient", id)
	}
	return nil
}

func optionalID(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}
