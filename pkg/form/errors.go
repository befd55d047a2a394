package form

import (
	"errors"
	"fmt"
)

var (
	// ErrNotAForm is returned when the controller is bound to a non-form
	// element.
	ErrNotAForm = errors.New("form: element must be a form")
	// ErrSubmitInFlight is returned by Submit while another submission is
	// outstanding. The call has no other effect.
	ErrSubmitInFlight = errors.New("form: submission already in flight")
	// ErrBeforeSubmit wraps a rejected preparation step.
	ErrBeforeSubmit = errors.New("form: before submit rejected")
	// ErrServerValidation is returned when the server answered with field
	// errors.
	ErrServerValidation = errors.New("form: server rejected submission")
	// ErrContractViolation is matched by errors that reveal a mismatch between
	// server error keys and the form's fields.
	ErrContractViolation = errors.New("form: server/client field contract violation")
)

// UnknownFieldError reports a server error targeting a field the form does
// not have.
type UnknownFieldError struct {
	Name string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("form: field with name %q is expected within the form but no such field was found", e.Name)
}

// Is lets errors.Is match ErrContractViolation.
func (e *UnknownFieldError) Is(target error) bool {
	return target == ErrContractViolation
}
