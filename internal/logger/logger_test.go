package logger

import (
	"testing"

	"github.com/google/uuid"
)

func TestInit_SetsSessionID(t *testing.T) {
	Init("debug")

	first := SessionID()
	if _, err := uuid.Parse(first); err != nil {
		t.Fatalf("SessionID() = %q is not a uuid: %v", first, err)
	}

	Init("info")
	if SessionID() == first {
		t.Error("each Init should start a new session")
	}
}

func TestComponent(t *testing.T) {
	Init("info")
	if Component("history") == GetLogger() {
		t.Error("Component() should return a child logger")
	}
}
