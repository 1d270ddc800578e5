package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestReadWriteMessages(t *testing.T) {
	cause := errors.New("connection reset")
	err := Read(cause, "Failed to load sessions")
	if Message(err) != "Failed to load sessions: connection reset" {
		t.Fatalf("unexpected message %q", Message(err))
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to be unwrappable")
	}
	if KindOf(Write(cause, "")) != KindWrite {
		t.Fatalf("expected write kind")
	}
	if Message(Write(cause, "")) != "connection reset" {
		t.Fatalf("expected bare cause message")
	}
}

func TestKindOfWrapped(t *testing.T) {
	err := fmt.Errorf("handler: %w", Rejected("You have already marked attendance for this session"))
	if KindOf(err) != KindRejected {
		t.Fatalf("expected rejected, got %s", KindOf(err))
	}
	if Message(err) != "You have already marked attendance for this session" {
		t.Fatalf("unexpected message %q", Message(err))
	}
	if KindOf(errors.New("plain")) != KindInternal {
		t.Fatalf("expected internal for untagged error")
	}
	if KindOf(nil) != "" {
		t.Fatalf("expected empty kind for nil")
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := map[int]error{
		http.StatusUnauthorized:        Auth("Not authenticated"),
		http.StatusNotFound:            NotFound("Profile not found"),
		http.StatusBadRequest:          Validation("Please enter a session code"),
		http.StatusConflict:            Rejected("Invalid or expired session code"),
		http.StatusBadGateway:          Read(errors.New("x"), "y"),
		http.StatusInternalServerError: errors.New("boom"),
	}
	for want, err := range cases {
		if got := HTTPStatus(err); got != want {
			t.Fatalf("%v: expected %d got %d", err, want, got)
		}
	}
}
