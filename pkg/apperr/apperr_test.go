package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAuthCarriesCodeAndStatus(t *testing.T) {
	err := Auth("", errors.New("token expired"))
	if err.Code != CodeAuthError {
		t.Errorf("expected %s, got %s", CodeAuthError, err.Code)
	}
	// The service's credential failed, not the caller's request, so the
	// status must be 5xx-class.
	if err.Status != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", err.Status)
	}
	if err.Message == "" {
		t.Error("expected default message")
	}
}

func TestUnwrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Storage("insert event", cause)
	if !errors.Is(err, cause) {
		t.Error("expected errors.Is to find the cause")
	}
}

func TestIsCodeThroughWrapping(t *testing.T) {
	inner := TransientFetch(errors.New("503"))
	wrapped := fmt.Errorf("run aborted: %w", inner)

	if !IsCode(wrapped, CodeTransientFetch) {
		t.Error("expected IsCode to see through fmt wrapping")
	}
	if !IsTransientFetch(wrapped) {
		t.Error("expected IsTransientFetch to match")
	}
	if IsAuth(wrapped) {
		t.Error("did not expect IsAuth to match")
	}
}

func TestAsAppErrorFallsBackToInternal(t *testing.T) {
	got := AsAppError(errors.New("plain"))
	if got.Code != CodeInternalError {
		t.Errorf("expected internal code, got %s", got.Code)
	}
	if got.Status != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", got.Status)
	}
}

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"auth", Auth("bad token", nil), 502},
		{"transient fetch", TransientFetch(nil), 502},
		{"storage", Storage("insert", nil), 500},
		{"deadline", DeadlineExceeded("model call", nil), 504},
		{"plain error", errors.New("x"), 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetHTTPStatus(tt.err); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestWithDetail(t *testing.T) {
	err := BadRequest("invalid date").WithDetail("field", "from")
	if err.Details["field"] != "from" {
		t.Errorf("expected detail to be set, got %v", err.Details)
	}
}
