package models

import (
	"errors"
	"fmt"
)

var (
	// ErrProviderUnavailable is returned when no wallet provider is configured.
	ErrProviderUnavailable = errors.New("wallet provider unavailable")

	// ErrConnectionDenied is returned when the wallet refuses or fails to
	// authorize an account.
	ErrConnectionDenied = errors.New("wallet connection denied")

	// ErrSubmissionInFlight is returned when a wave is submitted while another
	// one is still awaiting confirmation.
	ErrSubmissionInFlight = errors.New("submission already in flight")
)

// RemoteCallError wraps any failure of a call against the ledger.
type RemoteCallError struct {
	Op  string
	Err error
}

func (e *RemoteCallError) Error() string {
	return fmt.Sprintf("remote call %s failed: %v", e.Op, e.Err)
}

func (e *RemoteCallError) Unwrap() error {
	return e.Err
}

// NewRemoteCallError returns nil when err is nil.
func NewRemoteCallError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &RemoteCallError{Op: op, Err: err}
}

func IsRemoteCallFault(err error) bool {
	var rc *RemoteCallError
	return errors.As(err, &rc)
}
