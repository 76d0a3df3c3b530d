// Package errors contains helper functions and types to work with errors
// raised by the node lifecycle layer.
package errors

import (
	"errors"
)

// Category defines error category
type Category int

const (
	// CategoryNoError means the operation finished without an error.
	CategoryNoError Category = iota
	// CategoryRuntimeInit The execution pool could not be constructed
	// (invalid worker count, OS resource exhaustion). Fatal, never retried.
	CategoryRuntimeInit
	// CategorySignalRegistration An OS signal listener could not be
	// installed. Fatal, never retried.
	CategorySignalRegistration
	// CategoryService A builder or initializer failed to assemble the
	// resources for an invocation. Fatal for that invocation.
	CategoryService
	// CategoryPrimary The supervised primary operation itself failed.
	// Task-manager termination still runs before this is surfaced.
	CategoryPrimary
	// CategoryInvalidInput The caller supplied unusable arguments.
	CategoryInvalidInput
	// CategoryConsumed A single-use value was used a second time.
	CategoryConsumed
	// CategoryGeneralError The layer failed in an unexpected way.
	CategoryGeneralError
)

func (c Category) String() string {
	switch c {
	case CategoryRuntimeInit:
		return "CategoryRuntimeInit"
	case CategorySignalRegistration:
		return "CategorySignalRegistration"
	case CategoryService:
		return "CategoryService"
	case CategoryPrimary:
		return "CategoryPrimary"
	case CategoryInvalidInput:
		return "CategoryInvalidInput"
	case CategoryConsumed:
		return "CategoryConsumed"
	default:
		return "CategoryGeneralError"
	}
}

// ServiceError represents the error type used across the lifecycle layer.
type ServiceError struct {
	Category Category
	Message  string
	Err      error
}

// Error method to comply with error interface
func (err ServiceError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	return err.Message
}

// Unwrap returns the underlying error
func (err ServiceError) Unwrap() error {
	return err.Err
}

// Is implements the custom condition to check an error is equal to a service error
func (err ServiceError) Is(target error) bool {
	return err.Message == target.Error()
}

// Is checks that provided error is a ServiceError with desired Category
func Is(err error, cat Category) bool {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) && svcErr.Category == cat {
		return true
	}
	return false
}

// RuntimeInitError returns an error with category RuntimeInit.
func RuntimeInitError(err error) error {
	if err == nil {
		err = errors.New("execution pool initialization failed")
	}
	return &ServiceError{
		Category: CategoryRuntimeInit,
		Message:  "execution pool initialization failed",
		Err:      err,
	}
}

// SignalRegistrationError returns an error with category SignalRegistration.
func SignalRegistrationError(err error) error {
	if err == nil {
		err = errors.New("signal handler registration failed")
	}
	return &ServiceError{
		Category: CategorySignalRegistration,
		Message:  "signal handler registration failed",
		Err:      err,
	}
}

// NewServiceError returns an error with category Service
// the message provided describes which resource assembly failed
func NewServiceError(err error, message string) error {
	if err == nil {
		err = errors.New("service error: " + message)
	}
	return &ServiceError{
		Category: CategoryService,
		Message:  message,
		Err:      err,
	}
}

// PrimaryError returns an error with category Primary wrapping the failure
// of a supervised operation.
func PrimaryError(err error) error {
	if err == nil {
		return nil
	}
	return &ServiceError{
		Category: CategoryPrimary,
		Message:  "primary operation failed",
		Err:      err,
	}
}

// InvalidInputError returns an error with category InvalidInput
// the message provided is returned to the caller
func InvalidInputError(err error, message string) error {
	if err == nil {
		err = errors.New("invalid input: " + message)
	}
	return &ServiceError{
		Category: CategoryInvalidInput,
		Message:  message,
		Err:      err,
	}
}

// ConsumedError returns an error with category Consumed.
func ConsumedError(message string) error {
	return &ServiceError{
		Category: CategoryConsumed,
		Message:  message,
		Err:      errors.New(message),
	}
}

// GeneralError returns a general service error
// the error passed is preserved for logging by the caller
func GeneralError(err error) error {
	if err == nil {
		err = errors.New("internal error")
	}
	return &ServiceError{
		Category: CategoryGeneralError,
		Message:  "internal error",
		Err:      err,
	}
}
