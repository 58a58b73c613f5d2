package dispatch

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ehr/hospitalcrm/internal/platform/apperr"
)

var testParams = []Param{
	{Name: "patient_id", Type: TypeInteger, Required: true, Min: Bound(1)},
	{Name: "limit", Type: TypeInteger, Min: Bound(1), Max: Bound(200)},
	{Name: "status", Type: TypeString, Enum: []string{"scheduled", "cancelled"}},
	{Name: "body", Type: TypeString},
	{Name: "active_only", Type: TypeBoolean},
	{Name: "from", Type: TypeDate},
	{Name: "starts_at", Type: TypeTimestamp},
	{Name: "amount", Type: TypeNumber, Min: Bound(0)},
}

func TestDecode_Valid(t *testing.T) {
	raw := json.RawMessage(`{
		"patient_id": 42, "limit": 10.0, "status": "scheduled", "active_only": true,
		"from": "2024-03-01", "starts_at": "2024-03-01T09:30:00+02:00", "amount": 12.5
	}`)
	args, err := Decode(testParams, raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if args.Int("patient_id") != 42 || args.Int("limit") != 10 {
		t.Errorf("unexpected integers %v", args)
	}
	if args.String("status") != "scheduled" || !args.Bool("active_only") {
		t.Errorf("unexpected string/bool %v", args)
	}
	if got := args.Time("from"); got == nil || !got.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected date %v", got)
	}
	if got := args.Time("starts_at"); got == nil || !got.Equal(time.Date(2024, 3, 1, 7, 30, 0, 0, time.UTC)) {
		t.Errorf("unexpected timestamp %v", got)
	}
	if args.Float("amount") != 12.5 {
		t.Errorf("unexpected amount %v", args.Float("amount"))
	}
	if args.Has("body") {
		t.Error("absent optional argument must have no key")
	}
	if args.IntOr("missing", 7) != 7 || args.Time("body") != nil {
		t.Error("accessor defaults misbehave")
	}
}

func TestDecode_EmptyAndNull(t *testing.T) {
	optional := []Param{{Name: "limit", Type: TypeInteger}}
	for _, raw := range []string{"", "null", "{}", "  "} {
		args, err := Decode(optional, json.RawMessage(raw))
		if err != nil {
			t.Errorf("Decode(%q): unexpected error %v", raw, err)
		}
		if len(args) != 0 {
			t.Errorf("Decode(%q): expected no args, got %v", raw, args)
		}
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantArg string
	}{
		{"missing required", `{}`, "patient_id"},
		{"null required", `{"patient_id": null}`, "patient_id"},
		{"unknown key", `{"patient_id": 1, "drop_table": true}`, "drop_table"},
		{"integer as string", `{"patient_id": "1"}`, "patient_id"},
		{"fractional integer", `{"patient_id": 1.5}`, "patient_id"},
		{"below minimum", `{"patient_id": 0}`, "patient_id"},
		{"limit too high", `{"patient_id": 1, "limit": 201}`, "limit"},
		{"limit zero", `{"patient_id": 1, "limit": 0}`, "limit"},
		{"enum miss", `{"patient_id": 1, "status": "lost"}`, "status"},
		{"bool as string", `{"patient_id": 1, "active_only": "yes"}`, "active_only"},
		{"bad date", `{"patient_id": 1, "from": "03/01/2024"}`, "from"},
		{"bad timestamp", `{"patient_id": 1, "starts_at": "tomorrow"}`, "starts_at"},
		{"negative amount", `{"patient_id": 1, "amount": -5}`, "amount"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(testParams, json.RawMessage(tt.raw))
			var ae *apperr.Error
			if !errors.As(err, &ae) {
				t.Fatalf("expected *apperr.Error, got %v", err)
			}
			if ae.Kind != apperr.KindValidation || ae.Argument != tt.wantArg {
				t.Errorf("expected validation on %s, got %s on %q", tt.wantArg, ae.Kind, ae.Argument)
			}
		})
	}
}

func TestDecode_NotAnObject(t *testing.T) {
	for _, raw := range []string{`[1,2]`, `"x"`, `{"a":1} {"b":2}`, `{bad json`} {
		if _, err := Decode(testParams, json.RawMessage(raw)); !apperr.IsKind(err, apperr.KindValidation) {
			t.Errorf("Decode(%q): expected validation error, got %v", raw, err)
		}
	}
}

func TestDecode_RequiredStringNotBlank(t *testing.T) {
	params := []Param{{Name: "body", Type: TypeString, Required: true}}
	if _, err := Decode(params, json.RawMessage(`{"body": "   "}`)); !apperr.IsKind(err, apperr.KindValidation) {
		t.Errorf("expected blank required string to fail, got %v", err)
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
	}{
		{"2024-05-01T10:00:00Z", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"2024-05-01T10:00:00.250Z", time.Date(2024, 5, 1, 10, 0, 0, 250e6, time.UTC)},
		{"2024-05-01T10:00:00", time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)},
		{"2024-05-01", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"2025-01-10T09:00Z", time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)},
		{"2025-01-10T09:00+02:00", time.Date(2025, 1, 10, 7, 0, 0, 0, time.UTC)},
		{"2025-01-10T09:00", time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)},
		{"2025-01-10 09:00:00", time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)},
		{"2025-01-10 09:00:00Z", time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)},
		{"2025-01-10 09:00:00-05:00", time.Date(2025, 1, 10, 14, 0, 0, 0, time.UTC)},
		{"2025-01-10 09:00", time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := ParseTimestamp(tt.in)
		if err != nil || !got.Equal(tt.want) {
			t.Errorf("ParseTimestamp(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseTimestamp("1 May"); err == nil {
		t.Error("expected error for free-form text")
	}
}

func TestDecode_TimestampWithoutSeconds(t *testing.T) {
	params := []Param{{Name: "starts_at", Type: TypeTimestamp, Required: true}}
	for _, raw := range []string{`{"starts_at": "2025-01-10T09:00Z"}`, `{"starts_at": "2025-01-10 09:00:00"}`} {
		args, err := Decode(params, json.RawMessage(raw))
		if err != nil {
			t.Fatalf("%s: unexpected error %v", raw, err)
		}
		if got := args.Time("starts_at"); got == nil || !got.Equal(time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)) {
			t.Errorf("%s: starts_at = %v", raw, got)
		}
	}
}

func TestInputSchema(t *testing.T) {
	tool := &Tool{Name: "x", Params: testParams}
	schema := tool.InputSchema()
	if schema["type"] != "object" || schema["additionalProperties"] != false {
		t.Fatalf("unexpected schema root %v", schema)
	}
	required, _ := schema["required"].([]string)
	if len(required) != 1 || required[0] != "patient_id" {
		t.Errorf("unexpected required %v", required)
	}
	props := schema["properties"].(map[string]any)
	limit := props["limit"].(map[string]any)
	if limit["type"] != "integer" || limit["minimum"] != 1.0 || limit["maximum"] != 200.0 {
		t.Errorf("unexpected limit schema %v", limit)
	}
	if from := props["from"].(map[string]any); from["type"] != "string" || from["format"] != "date" {
		t.Errorf("unexpected date schema %v", from)
	}
	if _, err := json.Marshal(schema); err != nil {
		t.Errorf("schema must marshal: %v", err)
	}

	empty := (&Tool{Name: "db_health"}).InputSchema()
	if _, ok := empty["required"]; ok {
		t.Error("no required key expected for parameterless tools")
	}
}
