package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Message(t *testing.T) {
	err := Invalid("limit", "must be between 1 and 200")
	if got := err.Error(); got != "validation: limit: must be between 1 and 200" {
		t.Errorf("unexpected message %q", got)
	}

	err = New(KindIntegrity, "duplicate mrn")
	if got := err.Error(); got != "integrity: duplicate mrn" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestKindOf_Wrapped(t *testing.T) {
	base := NotFound("patient", 42)
	wrapped := fmt.Errorf("get patient: %w", base)

	if KindOf(wrapped) != KindNotFound {
		t.Errorf("expected not_found, got %s", KindOf(wrapped))
	}
	if !IsKind(wrapped, KindNotFound) {
		t.Error("expected IsKind to match")
	}
	if KindOf(errors.New("boom")) != KindInternal {
		t.Error("plain errors should classify as internal")
	}
	if IsKind(nil, KindInternal) {
		t.Error("nil error should not match any kind")
	}
}

func TestKind_Retryable(t *testing.T) {
	for _, k := range []Kind{KindConfiguration, KindValidation, KindIntegrity, KindNotFound, KindForbidden, KindInternal} {
		if k.Retryable() {
			t.Errorf("%s should not be retryable", k)
		}
	}
	if !KindConnectivity.Retryable() {
		t.Error("connectivity should be retryable")
	}
}

func TestWrap_Unwrap(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := Wrap(KindConnectivity, cause, "database unavailable")
	if !errors.Is(err, cause) {
		t.Error("expected wrapped cause to be reachable")
	}
}

func TestForbidden(t *testing.T) {
	err := Forbidden("billing.read")
	if err.Kind != KindForbidden {
		t.Errorf("expected forbidden, got %s", err.Kind)
	}
	if got := err.Error(); got != `forbidden: missing permission "billing.read"` {
		t.Errorf("unexpected message %q", got)
	}
}
