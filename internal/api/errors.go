package api

import (
	"errors"
	"fmt"
)

// Kind is the error taxonomy every transport outcome is translated into
// before anything above this package sees it.
type Kind string

const (
	KindConnectivity Kind = "connectivity" // server unreachable; retryable
	KindAuth         Kind = "auth"         // credential invalid or expired
	KindValidation   Kind = "validation"   // specific fields rejected
	KindInternal     Kind = "internal"     // anything else
)

type Error struct {
	Kind   Kind
	Status int               // HTTP status, 0 for transport failures
	Msg    string
	Fields map[string]string // per-field detail, validation only
}

func (e *Error) Error() string {
	if len(e.Fields) > 0 {
		return fmt.Sprintf("%s: %s %v", e.Kind, e.Msg, e.Fields)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func is(err error, k Kind) bool {
	var ae *Error
	return errors.As(err, &ae) && ae.Kind == k
}

func IsConnectivity(err error) bool { return is(err, KindConnectivity) }
func IsAuth(err error) bool         { return is(err, KindAuth) }
func IsValidation(err error) bool   { return is(err, KindValidation) }

// FieldErrors extracts the per-field messages of a validation failure, nil
// for any other error.
func FieldErrors(err error) map[string]string {
	var ae *Error
	if errors.As(err, &ae) && ae.Kind == KindValidation {
		return ae.Fields
	}
	return nil
}
