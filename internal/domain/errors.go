package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Error types for consistent error handling across GO-Entulho.

// ErrMissingField indicates a required form field is empty after trimming.
type ErrMissingField struct {
	Field string
}

func (e *ErrMissingField) Error() string {
	return fmt.Sprintf("campo obrigatório em falta: %s", e.Field)
}

// ErrInvalidLength indicates a NIF or phone number that does not have 9 digits.
type ErrInvalidLength struct {
	Field  string
	Digits int
}

func (e *ErrInvalidLength) Error() string {
	label := "número"
	if e.Field == string(FieldNIF) {
		label = "NIF"
	}
	return fmt.Sprintf("O %s deve ter %d dígitos (tem %d)", label, GroupedDigitsLen, e.Digits)
}

// ErrInvalidAmount indicates a malformed monetary value.
type ErrInvalidAmount struct {
	Field string
	Input string
}

func (e *ErrInvalidAmount) Error() string {
	return fmt.Sprintf("Valor inválido em '%s': %q", e.Field, e.Input)
}

// ErrValidation indicates a validation error (bad input) not covered by the
// more specific field errors.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// FieldErrors aggregates per-field validation errors so every offending field
// can be reported at once.
type FieldErrors map[string]error

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, fe[f].Error())
	}
	return "formulário inválido: " + strings.Join(parts, "; ")
}

// Messages returns the field → message map shown next to each form field.
func (fe FieldErrors) Messages() map[string]string {
	out := make(map[string]string, len(fe))
	for f, err := range fe {
		out[f] = err.Error()
	}
	return out
}

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrDuplicate indicates a create collided with an existing key.
type ErrDuplicate struct {
	Key string
}

func (e *ErrDuplicate) Error() string {
	return fmt.Sprintf("duplicate key: %s", e.Key)
}

// ErrConfirmationRequired is returned when a destructive action was not confirmed.
type ErrConfirmationRequired struct {
	Action string
}

func (e *ErrConfirmationRequired) Error() string {
	return fmt.Sprintf("confirmation required: %s", e.Action)
}

// ErrPersistence indicates the backing slot could not be read or written.
type ErrPersistence struct {
	Op  string
	Err error
}

func (e *ErrPersistence) Error() string {
	return fmt.Sprintf("persistence failure [%s]: %v", e.Op, e.Err)
}

func (e *ErrPersistence) Unwrap() error {
	return e.Err
}

// ErrNotifier indicates the outbound webhook rejected or never received a record.
type ErrNotifier struct {
	Status int
	Err    error
}

func (e *ErrNotifier) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("notifier returned status %d", e.Status)
	}
	return fmt.Sprintf("notifier failure: %v", e.Err)
}

func (e *ErrNotifier) Unwrap() error {
	return e.Err
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}
