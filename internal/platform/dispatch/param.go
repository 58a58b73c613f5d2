package dispatch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"github.com/ehr/hospitalcrm/internal/platform/apperr"
)

type ParamType string

const (
	TypeString    ParamType = "string"
	TypeInteger   ParamType = "integer"
	TypeNumber    ParamType = "number"
	TypeBoolean   ParamType = "boolean"
	TypeDate      ParamType = "date"
	TypeTimestamp ParamType = "timestamp"
)

// Param declares one tool argument. Min and Max bound integers and numbers
// inclusively; Enum restricts strings.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
	Enum        []string
	Min         *float64
	Max         *float64
}

// Bound is a convenience for Param.Min and Param.Max.
func Bound(v float64) *float64 { return &v }

// Args holds validated, typed argument values keyed by name: string, int64,
// float64, bool, or time.Time for dates and timestamps. Absent optional
// arguments have no key.
type Args map[string]any

func (a Args) Has(name string) bool {
	_, ok := a[name]
	return ok
}

func (a Args) String(name string) string {
	s, _ := a[name].(string)
	return s
}

func (a Args) Int(name string) int64 {
	n, _ := a[name].(int64)
	return n
}

// IntOr returns the integer argument, or def when it was not supplied.
func (a Args) IntOr(name string, def int64) int64 {
	if n, ok := a[name].(int64); ok {
		return n
	}
	return def
}

func (a Args) Float(name string) float64 {
	f, _ := a[name].(float64)
	return f
}

func (a Args) Bool(name string) bool {
	b, _ := a[name].(bool)
	return b
}

// Time returns a date or timestamp argument, or nil when absent.
func (a Args) Time(name string) *time.Time {
	t, ok := a[name].(time.Time)
	if !ok {
		return nil
	}
	return &t
}

// Decode validates raw JSON arguments against params. It rejects unknown
// keys and reports the first offending argument by name. Nothing here
// touches the database.
func Decode(params []Param, raw json.RawMessage) (Args, error) {
	fields := map[string]any{}
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&fields); err != nil {
			return nil, apperr.New(apperr.KindValidation, "arguments must be a JSON object")
		}
		if dec.More() {
			return nil, apperr.New(apperr.KindValidation, "arguments must be a single JSON object")
		}
	}

	byName := make(map[string]*Param, len(params))
	for i := range params {
		byName[params[i].Name] = &params[i]
	}
	unknown := make([]string, 0)
	for key := range fields {
		if _, ok := byName[key]; !ok {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		slices.Sort(unknown)
		return nil, apperr.Invalid(unknown[0], "unknown argument")
	}

	args := make(Args, len(fields))
	for i := range params {
		p := &params[i]
		v, ok := fields[p.Name]
		if !ok || v == nil {
			if p.Required {
				return nil, apperr.Invalid(p.Name, "is required")
			}
			continue
		}
		val, err := p.convert(v)
		if err != nil {
			return nil, err
		}
		args[p.Name] = val
	}
	return args, nil
}

func (p *Param) convert(v any) (any, error) {
	switch p.Type {
	case TypeString:
		s, ok := v.(string)
		if !ok {
			return nil, apperr.Invalid(p.Name, "must be a string")
		}
		if len(p.Enum) > 0 && !slices.Contains(p.Enum, s) {
			return nil, apperr.Invalid(p.Name, "must be one of "+strings.Join(p.Enum, ", "))
		}
		if p.Required && strings.TrimSpace(s) == "" {
			return nil, apperr.Invalid(p.Name, "must not be empty")
		}
		return s, nil

	case TypeInteger:
		num, ok := v.(json.Number)
		if !ok {
			return nil, apperr.Invalid(p.Name, "must be an integer")
		}
		n, err := num.Int64()
		if err != nil {
			// Accept integral floats such as 5.0 that some clients emit.
			f, ferr := num.Float64()
			if ferr != nil || f != math.Trunc(f) || math.Abs(f) > math.MaxInt64 {
				return nil, apperr.Invalid(p.Name, "must be an integer")
			}
			n = int64(f)
		}
		if err := p.checkRange(float64(n)); err != nil {
			return nil, err
		}
		return n, nil

	case TypeNumber:
		num, ok := v.(json.Number)
		if !ok {
			return nil, apperr.Invalid(p.Name, "must be a number")
		}
		f, err := num.Float64()
		if err != nil || math.IsInf(f, 0) {
			return nil, apperr.Invalid(p.Name, "must be a finite number")
		}
		if err := p.checkRange(f); err != nil {
			return nil, err
		}
		return f, nil

	case TypeBoolean:
		b, ok := v.(bool)
		if !ok {
			return nil, apperr.Invalid(p.Name, "must be a boolean")
		}
		return b, nil

	case TypeDate:
		s, ok := v.(string)
		if !ok {
			return nil, apperr.Invalid(p.Name, "must be a date string (YYYY-MM-DD)")
		}
		t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
		if err != nil {
			return nil, apperr.Invalid(p.Name, "must be a date (YYYY-MM-DD)")
		}
		return t, nil

	case TypeTimestamp:
		s, ok := v.(string)
		if !ok {
			return nil, apperr.Invalid(p.Name, "must be an RFC 3339 timestamp string")
		}
		t, err := ParseTimestamp(s)
		if err != nil {
			return nil, apperr.Invalid(p.Name, "must be a timestamp such as 2025-01-10T09:00Z or a YYYY-MM-DD date")
		}
		return t, nil
	}
	return nil, apperr.New(apperr.KindInternal, fmt.Sprintf("argument %s has unsupported type %q", p.Name, p.Type))
}

func (p *Param) checkRange(f float64) error {
	switch {
	case p.Min != nil && p.Max != nil && (f < *p.Min || f > *p.Max):
		return apperr.Invalid(p.Name, fmt.Sprintf("must be between %g and %g", *p.Min, *p.Max))
	case p.Min != nil && f < *p.Min:
		return apperr.Invalid(p.Name, fmt.Sprintf("must be at least %g", *p.Min))
	case p.Max != nil && f > *p.Max:
		return apperr.Invalid(p.Name, fmt.Sprintf("must be at most %g", *p.Max))
	}
	return nil
}

// Accepted timestamp layouts, tried in order. Seconds may be omitted, the
// date and time may be separated by a space, and zone-less values are UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	time.DateOnly,
}

// ParseTimestamp accepts ISO 8601 / RFC 3339 style timestamps with optional
// seconds and zone, or a bare date at midnight UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}
