// Package form implements the create/edit modals for users and products.
package form

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Mode is the state of a modal.
type Mode int

const (
	Closed Mode = iota
	Create
	Edit
)

func (m Mode) String() string {
	switch m {
	case Closed:
		return "closed"
	case Create:
		return "create"
	case Edit:
		return "edit"
	default:
		return "unknown"
	}
}

var (
	// ErrNotConfirmed is returned by Delete when the prompt is declined.
	ErrNotConfirmed = errors.New("deletion not confirmed")
	// ErrClosed is returned when submitting or deleting from a closed modal.
	ErrClosed = errors.New("form is not open")
	// ErrNotEditing is returned by Delete outside edit mode.
	ErrNotEditing = errors.New("only an existing record can be deleted")
)

// ValidationError is a local validation failure. Message is the alert shown
// to the user; no request was sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Confirmer asks the user a yes/no question.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// AlwaysConfirm is used when the caller already obtained consent, as the
// web console does with ?confirm=yes.
var AlwaysConfirm Confirmer = ConfirmFunc(func(string) bool { return true })

// RefreshFunc is called after an accepted write so the owning list refetches.
type RefreshFunc func(ctx context.Context)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// firstFailure maps the first failing field onto its alert text, looking
// up "Field.tag" before "Field".
func firstFailure(err error, messages map[string]string) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate form: %w", err)
	}
	field := verrs[0].Field()
	msg, ok := messages[field+"."+verrs[0].Tag()]
	if !ok {
		msg, ok = messages[field]
	}
	if !ok {
		msg = field + " is invalid."
	}
	return &ValidationError{Field: field, Message: msg}
}
