package session

import (
	"errors"
	"testing"
)

func TestStageError(t *testing.T) {
	cause := errors.New("disk full")
	err := &StageError{Stage: "summary", Err: cause}

	if err.Error() != "stage summary: disk full" {
		t.Errorf("Unexpected message: '%s'", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("Expected the cause reachable through Unwrap")
	}
}

func TestPersistenceError(t *testing.T) {
	cause := errors.New("permission denied")
	err := &PersistenceError{Path: "/tmp/report.json", Err: cause}

	if err.Error() != "persist /tmp/report.json: permission denied" {
		t.Errorf("Unexpected message: '%s'", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("Expected the cause reachable through Unwrap")
	}
}
