package errors

import (
	"fmt"

	"council-lab/domain/specialist"
)

var (
	ErrWorkerPanic          = fmt.Errorf("worker panic")
	ErrSpecialistPanic      = fmt.Errorf("specialist panic")
	ErrUnknownSpecialist    = fmt.Errorf("unknown specialist")
	ErrStoreUnavailable     = fmt.Errorf("store unavailable")
	ErrConversationNotFound = fmt.Errorf("conversation not found")
	ErrForbidden            = fmt.Errorf("conversation belongs to another user")
	ErrContentLength        = fmt.Errorf("content length out of bounds")
	ErrUserAlreadyExists    = fmt.Errorf("user already exists")
	ErrInvalidCredentials   = fmt.Errorf("invalid credentials")
	ErrInvalidPassword      = fmt.Errorf("password does not meet complexity requirements")
	ErrTokenGeneration      = fmt.Errorf("unable to generate token")
	ErrInvalidPayload       = fmt.Errorf("invalid event payload")
)

// DispatchError reports a coordination round in which at least one
// specialist handler failed. Responses of the successful specialists
// are already persisted when this error surfaces.
type DispatchError struct {
	Specialist specialist.ID // first failure in selection order
	Failed     []specialist.ID
	Succeeded  []specialist.ID
	Reasons    map[specialist.ID]string // failure detail per Failed entry
	Cause      error
}

func (e *DispatchError) Error() string {
	return fmt.Sprintf("specialist dispatch failed: %s: %v", e.Specialist, e.Cause)
}

func (e *DispatchError) Unwrap() error {
	return e.Cause
}
