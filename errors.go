package provenance

import (
	"errors"
	"fmt"
)

// Sentinel errors for rejected operations. A rejected operation leaves the
// ledger unchanged.
var (
	// Authorization errors
	ErrNotAuthorized         = errors.New("provenance: not authorized")
	ErrNotCurrentOwner       = errors.New("provenance: caller is not the current owner")
	ErrNewOwnerNotAuthorized = errors.New("provenance: new owner must be authorized")
	ErrCannotRevokeAdmin     = errors.New("provenance: cannot revoke admin")

	// Product errors
	ErrInvalidProductID   = errors.New("provenance: invalid product id")
	ErrEmptyName          = errors.New("provenance: product name cannot be empty")
	ErrDuplicateProduct   = errors.New("provenance: product already registered")
	ErrProductNotFound    = errors.New("provenance: product does not exist")
	ErrEmptyLocation      = errors.New("provenance: location cannot be empty")
	ErrInvalidProgression = errors.New("provenance: invalid status progression")
	ErrUnknownStatus      = errors.New("provenance: unknown status")
	ErrSelfTransfer       = errors.New("provenance: cannot transfer to yourself")

	// Participant errors
	ErrInvalidIdentity     = errors.New("provenance: invalid identity")
	ErrParticipantNotFound = errors.New("provenance: participant not found")

	// Configuration errors
	ErrInvalidStages = errors.New("provenance: invalid stage enumeration")

	// Store errors
	ErrStoreNotReady = errors.New("provenance: store not ready")
	ErrStoreClosed   = errors.New("provenance: store is closed")
)

// ValidationError represents a validation failure with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("provenance: validation failed for %s: %s", e.Field, e.Message)
}

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "provenance: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("provenance: %d errors occurred: %s", len(e.Errors), e.Errors[0])
}

// Unwrap exposes the collected errors to errors.Is and errors.As.
func (e MultiError) Unwrap() []error {
	return e.Errors
}

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrParticipantNotFound)
}

// IsAuthError returns true if the caller lacked the right to perform the operation.
func IsAuthError(err error) bool {
	return errors.Is(err, ErrNotAuthorized) ||
		errors.Is(err, ErrNotCurrentOwner) ||
		errors.Is(err, ErrNewOwnerNotAuthorized) ||
		errors.Is(err, ErrCannotRevokeAdmin)
}

// IsValidationError returns true if the operation was rejected because of
// its arguments or the product's current state.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve) ||
		errors.Is(err, ErrInvalidProductID) ||
		errors.Is(err, ErrEmptyName) ||
		errors.Is(err, ErrDuplicateProduct) ||
		errors.Is(err, ErrEmptyLocation) ||
		errors.Is(err, ErrInvalidProgression) ||
		errors.Is(err, ErrUnknownStatus) ||
		errors.Is(err, ErrSelfTransfer) ||
		errors.Is(err, ErrInvalidIdentity) ||
		errors.Is(err, ErrInvalidStages)
}

// IsRetryable returns true if the error is temporary and the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreNotReady)
}
