package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestIsKind(t *testing.T) {
	err := ReferenceNotFound("Patient", "patient does not exist")
	if !IsKind(err, KindReferenceNotFound) {
		t.Error("expected KindReferenceNotFound")
	}
	if IsKind(err, KindNotFound) {
		t.Error("reference-not-found must not match not-found")
	}
}

func TestIsKind_Wrapped(t *testing.T) {
	inner := Conflict("Appointment", "version mismatch")
	wrapped := fmt.Errorf("transition appointment: %w", inner)
	if !IsKind(wrapped, KindConflict) {
		t.Error("expected wrapped conflict to match")
	}
}

func TestErrorsIs_MatchesByKind(t *testing.T) {
	a := InvalidTransition("completed is terminal")
	b := InvalidTransition("cancelled is terminal")
	if !errors.Is(a, b) {
		t.Error("expected two invalid-transition errors to match by kind")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{Validation("notes", "notes is required"), http.StatusBadRequest},
		{InvalidTransition("terminal"), http.StatusBadRequest},
		{ReferenceNotFound("Patient", "dangling"), http.StatusUnprocessableEntity},
		{Conflict("Appointment", "lost race"), http.StatusConflict},
		{Forbidden("history access denied"), http.StatusForbidden},
		{NotFound("Patient", "absent"), http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, c := range cases {
		if got := HTTPStatus(c.err); got != c.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("row scan failed")
	err := &Error{Kind: KindNotFound, Message: "patient lookup", Err: cause}
	if !errors.Is(err, cause) {
		t.Error("expected wrapped cause to be reachable")
	}
}
