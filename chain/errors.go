package chain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidAddress   = errors.New("invalid address")
	ErrInvalidAmount    = errors.New("not an integer-like amount")
	ErrNegativeAmount   = errors.New("negative amount")
	ErrAmountOverflow   = errors.New("amount does not fit in 256 bits")
	ErrImpreciseNumber  = errors.New("number is not exact as float64, pass a string or json.Number")
	ErrInvalidHex       = errors.New("invalid hex data")
	ErrMissingField     = errors.New("missing field")
	ErrHashMismatch     = errors.New("order hash mismatch")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrNotSigned        = errors.New("order is not signed")
	ErrSignerRequired   = errors.New("signer is required")
)

// ValidationError is returned by setters and constructors when an input is
// rejected. The order is left untouched.
type ValidationError struct {
	Field string
	Value interface{}
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// SchemaError reports a wire document that does not conform to a schema.
type SchemaError struct {
	Schema string
	Fields []string
	Err    error
}

func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("document does not match %s", e.Schema)
	if len(e.Fields) > 0 {
		msg += ": " + strings.Join(e.Fields, ", ")
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// SigningError reports a key or transport failure while producing a signature.
type SigningError struct {
	Message string
	Err     error
}

func (e *SigningError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *SigningError) Unwrap() error {
	return e.Err
}
