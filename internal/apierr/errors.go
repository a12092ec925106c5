// Package apierr classifies failures of the upstream API and of local
// validation into a small closed set of kinds, and maps each kind to the
// message shown to the user.
package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is a non-2xx answer from the upstream API.
type StatusError struct {
	Status int
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("upstream returned %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("upstream returned %d", e.Status)
}

// TransportError is a failure to reach the upstream API or to decode its answer.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

type Kind int

const (
	KindValidation Kind = iota + 1
	KindAuth
	KindSubmission
	KindInvariant
	KindTransport
	// KindUpstream is a non-2xx answer to any call other than login,
	// register or booking create.
	KindUpstream
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindSubmission:
		return "submission"
	case KindInvariant:
		return "invariant"
	case KindTransport:
		return "transport"
	case KindUpstream:
		return "upstream"
	default:
		return "unknown"
	}
}

type Op string

const (
	OpLogin    Op = "login"
	OpRegister Op = "register"
	OpBooking  Op = "booking"
	OpGeneric  Op = ""
)

// Error is the classified error surfaced at UI boundaries.
type Error struct {
	Kind   Kind
	Op     Op
	Status int
	Detail string
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Kind, e.Op, e.Err)
	case e.Detail != "":
		return fmt.Sprintf("%s %s: %s", e.Kind, e.Op, e.Detail)
	default:
		return fmt.Sprintf("%s %s", e.Kind, e.Op)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Validation builds a field-scoped validation error.
func Validation(op Op, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Op: op, Fields: fields}
}

// Invariant reports a state that the booking flow should never reach.
func Invariant(op Op, detail string) *Error {
	return &Error{Kind: KindInvariant, Op: op, Detail: detail}
}

// Auth classifies a failed login or register call. An upstream error that
// was already classified elsewhere is re-tagged with op.
func Auth(op Op, err error) *Error {
	return classify(KindAuth, op, err)
}

// Submission classifies a failed booking create call.
func Submission(err error) *Error {
	return classify(KindSubmission, OpBooking, err)
}

// Classify wraps an arbitrary client error for op without a specific kind.
// An error that is already classified is returned unchanged.
func Classify(op Op, err error) *Error {
	return classify(KindUpstream, op, err)
}

func classify(kind Kind, op Op, err error) *Error {
	var already *Error
	if errors.As(err, &already) {
		if kind == KindUpstream || already.Err == nil {
			return already
		}
		return classify(kind, op, already.Err)
	}

	var status *StatusError
	if errors.As(err, &status) {
		return &Error{Kind: kind, Op: op, Status: status.Status, Detail: status.Detail, Err: err}
	}

	return &Error{Kind: KindTransport, Op: op, Err: err}
}

// StatusOf returns the upstream HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) && e.Status != 0 {
		return e.Status
	}
	var s *StatusError
	if errors.As(err, &s) {
		return s.Status
	}
	return 0
}

const (
	msgInvalidCredentials = "Invalid email or password"
	msgCheckCredentials   = "Please check your email and password"
	msgCheckRegistration  = "Please check your registration details"
	msgCheckBooking       = "Please check your booking details"
	msgInvalidBooking     = "Invalid booking data"
	msgBookingFailed      = "Booking failed"
	msgLoginFailed        = "Login failed"
	msgRegisterFailed     = "Registration failed"
	msgFixFields          = "Please fix the highlighted fields"
	msgGeneric            = "Something went wrong. Please try again."
)

// Message maps err to the single user-facing string shown in a toast.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var e *Error
	if !errors.As(err, &e) {
		return fallback(err.Error())
	}

	switch e.Kind {
	case KindValidation:
		return msgFixFields
	case KindAuth:
		return authMessage(e)
	case KindSubmission:
		return submissionMessage(e)
	case KindInvariant:
		return msgBookingFailed
	case KindUpstream:
		return orDefault(e.Detail, msgGeneric)
	case KindTransport:
		if e.Err != nil {
			return fallback(e.Err.Error())
		}
		return msgGeneric
	default:
		return msgGeneric
	}
}

func authMessage(e *Error) string {
	if e.Op == OpRegister {
		switch e.Status {
		case http.StatusUnprocessableEntity, http.StatusBadRequest:
			return orDefault(e.Detail, msgCheckRegistration)
		}
		return orDefault(e.Detail, msgRegisterFailed)
	}

	switch e.Status {
	case http.StatusUnauthorized:
		return msgInvalidCredentials
	case http.StatusUnprocessableEntity:
		return msgCheckCredentials
	}
	return orDefault(e.Detail, msgLoginFailed)
}

func submissionMessage(e *Error) string {
	switch e.Status {
	case http.StatusUnprocessableEntity:
		return orDefault(e.Detail, msgCheckBooking)
	case http.StatusBadRequest:
		return orDefault(e.Detail, msgInvalidBooking)
	}
	return orDefault(e.Detail, msgBookingFailed)
}

func orDefault(s, def string) string {
	if s != "" {
		return s
	}
	return def
}

func fallback(s string) string {
	return orDefault(s, msgGeneric)
}
