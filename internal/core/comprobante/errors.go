package comprobante

import (
	"errors"
	"fmt"
)

var (
	// ErrUnparseable marks input that is not XML even after re-decoding.
	ErrUnparseable = errors.New("documento XML ilegible")
	// ErrInvalidNumber marks non-numeric text in a monetary field.
	ErrInvalidNumber = errors.New("valor numérico inválido")
	// ErrMissingField marks a structurally required element that is absent.
	ErrMissingField = errors.New("campo requerido ausente")
)

// ExtractionError reports why a single document produced no record.
type ExtractionError struct {
	Kind  error
	Field string
	Err   error
}

func (e *ExtractionError) Error() string {
	msg := e.Kind.Error()
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Field)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Is lets errors.Is match against the Kind sentinel.
func (e *ExtractionError) Is(target error) bool {
	return e.Kind == target
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NewExtractionError builds an ExtractionError of the given kind.
func NewExtractionError(kind error, field string, err error) *ExtractionError {
	return &ExtractionError{Kind: kind, Field: field, Err: err}
}
