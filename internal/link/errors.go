package link

import (
	"errors"
	"fmt"
)

var (
	// ErrBusy is returned when the triggering action already has a call in flight.
	ErrBusy = errors.New("operation already in progress")
	// ErrStaleResponse marks a response whose request belongs to an abandoned session or stage.
	ErrStaleResponse = errors.New("stale response discarded")
	// ErrInvalidTransition is returned for an action the current stage does not accept.
	ErrInvalidTransition = errors.New("action not allowed in current stage")
	// ErrNoChanges is returned when confirming without any edited row.
	ErrNoChanges = errors.New("enter at least one new target")
	// ErrNothingToExport is returned when exporting an empty result list.
	ErrNothingToExport = errors.New("no data to export")
	// ErrNoSuccessfulResults is returned when a QR export has no successful rows.
	ErrNoSuccessfulResults = errors.New("no successful short links to build QR codes from")
)

// ValidationError reports missing or empty required input. It is raised
// locally, before any network call.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// TransportError reports a network or HTTP-level failure.
type TransportError struct {
	Op     string
	Status int // 0 when no response was received
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("%s failed: HTTP %d: %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ApplicationError reports a well-formed response carrying an error message.
type ApplicationError struct {
	Op      string
	Status  int
	Message string
}

func (e *ApplicationError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Op, e.Message)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsRemote reports whether err came from the backend call, either as a
// transport failure or an application error.
func IsRemote(err error) bool {
	var t *TransportError
	var a *ApplicationError
	return errors.As(err, &t) || errors.As(err, &a)
}
