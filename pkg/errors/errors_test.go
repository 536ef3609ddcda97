package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	cases := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeMissingField, http.StatusBadRequest},
		{CodeDuplicateEmail, http.StatusConflict},
		{CodeUnknownPosition, http.StatusNotFound},
		{CodeAlreadyLeader, http.StatusConflict},
		{CodeNotALeader, http.StatusUnprocessableEntity},
		{CodeLeadershipConflict, http.StatusConflict},
		{CodeAlreadyMember, http.StatusConflict},
		{CodeInvalidDateRange, http.StatusBadRequest},
		{CodeInvalidCredentials, http.StatusUnauthorized},
		{CodeAccountInactive, http.StatusForbidden},
		{CodeAuditWrite, http.StatusServiceUnavailable},
	}
	for _, tc := range cases {
		if got := MetadataFor(tc.code).HTTPStatus; got != tc.status {
			t.Errorf("MetadataFor(%s).HTTPStatus = %d, want %d", tc.code, got, tc.status)
		}
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("NOPE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("boom")
	err := Wrap(CodeDependency, cause, "audit insert")

	if !stdErrors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to be discoverable")
	}
	if err.Error() != "DEPENDENCY_ERROR: audit insert" {
		t.Fatalf("unexpected message: %s", err.Error())
	}
}

func TestAsFindsCodedErrorThroughChain(t *testing.T) {
	inner := New(CodeAlreadyLeader, "bob already holds PRESIDENT")
	wrapped := fmt.Errorf("promote: %w", inner)

	typed := As(wrapped)
	if typed == nil {
		t.Fatalf("expected coded error in chain")
	}
	if typed.Code() != CodeAlreadyLeader {
		t.Fatalf("unexpected code %s", typed.Code())
	}
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", New(CodeNotALeader, "no active assignment"))
	if !HasCode(err, CodeNotALeader) {
		t.Fatalf("expected HasCode to match")
	}
	if HasCode(err, CodeAlreadyLeader) {
		t.Fatalf("expected HasCode mismatch for wrong code")
	}
	if HasCode(nil, CodeNotALeader) {
		t.Fatalf("nil error should never match")
	}
}

func TestWithDetails(t *testing.T) {
	err := New(CodeValidation, "validation failed").WithDetails(map[string]string{"email": "is required"})
	details, ok := err.Details().(map[string]string)
	if !ok || details["email"] != "is required" {
		t.Fatalf("details not carried: %#v", err.Details())
	}
}
