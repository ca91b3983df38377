package core

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

// ValidationError is raised client-side, before any request is sent.
type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err != nil {
		return err.Err.Error()
	}
	if len(err.Fields) == 0 {
		return "invalid input"
	}
	msgs := make([]string, 0, len(err.Fields))
	for _, f := range err.Fields {
		msgs = append(msgs, f.Field+": "+f.Error)
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "; ")
}

type AuthorizationKind int

const (
	Unauthorized AuthorizationKind = iota + 1
)

func (k AuthorizationKind) String() string {
	switch k {
	case Unauthorized:
		return "UNAUTHORIZED"
	default:
		return "UNKNOWN"
	}
}

// AuthorizationError is returned when the calling principal is missing or lacks the required role.
type AuthorizationError struct {
	Kind AuthorizationKind
	Msg  string
}

func NewAuthorizationError(msg string) error {
	return &AuthorizationError{Kind: Unauthorized, Msg: msg}
}

func (err AuthorizationError) Error() string {
	if err.Msg == "" {
		return strings.ToLower(err.Kind.String())
	}
	return err.Kind.String() + ": " + err.Msg
}

// TransportError carries a network, HTTP or decoding failure of the remote API.
// Status is 0 when no response was received.
type TransportError struct {
	Status  int
	Message string
	Err     error
}

func NewTransportError(status int, msg string, err error) error {
	return &TransportError{Status: status, Message: msg, Err: err}
}

func (err TransportError) Error() string {
	var b strings.Builder
	if err.Status > 0 {
		fmt.Fprintf(&b, "%d %s", err.Status, http.StatusText(err.Status))
	} else {
		b.WriteString("request failed")
	}
	if err.Message != "" {
		b.WriteString(": " + err.Message)
	}
	if err.Err != nil {
		b.WriteString(": " + err.Err.Error())
	}
	return b.String()
}

func (err TransportError) Unwrap() error { return err.Err }

func IsAuthorization(err error) bool {
	var target *AuthorizationError
	return errors.As(err, &target)
}

func IsTransport(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// TransportStatus returns the HTTP status of a TransportError found in err's chain, or 0.
func TransportStatus(err error) int {
	var target *TransportError
	if errors.As(err, &target) {
		return target.Status
	}
	return 0
}
