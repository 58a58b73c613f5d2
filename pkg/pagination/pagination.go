package pagination

import (
	"fmt"

	"github.com/ehr/hospitalcrm/internal/platform/apperr"
)

const (
	DefaultLimit = 20
	MaxLimit     = 200
	// DefaultPerType bounds each stream of a multi-entity aggregation.
	DefaultPerType = 25
)

// Params holds the row window requested by a caller.
type Params struct {
	Limit  int
	Offset int
}

// NewWithDefault validates a caller-supplied window. A zero limit selects
// def.
func NewWithDefault(limit, offset, def int) (Params, error) {
	if limit == 0 {
		limit = def
	}
	if limit < 1 || limit > MaxLimit {
		return Params{}, apperr.Invalid("limit", fmt.Sprintf("must be between 1 and %d", MaxLimit))
	}
	if offset < 0 {
		return Params{}, apperr.Invalid("offset", "must not be negative")
	}
	return Params{Limit: limit, Offset: offset}, nil
}
