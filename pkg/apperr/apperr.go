package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failure so callers can pick a recovery action
// (refresh, re-authenticate, retry) without parsing messages.
type Kind string

const (
	Unauthenticated    Kind = "UNAUTHENTICATED"
	Forbidden          Kind = "FORBIDDEN"
	AttendanceRequired Kind = "ATTENDANCE_REQUIRED"
	AlreadyCheckedIn   Kind = "ALREADY_CHECKED_IN"
	NotCheckedIn       Kind = "NOT_CHECKED_IN"
	DayLocked          Kind = "DAY_LOCKED"
	AlreadyClaimed     Kind = "ALREADY_CLAIMED"
	NotClaimant        Kind = "NOT_CLAIMANT"
	AlreadyResolved    Kind = "ALREADY_RESOLVED"
	InvalidTransition  Kind = "INVALID_TRANSITION"
	NoDiscrepancy      Kind = "NO_DISCREPANCY"
	NotFound           Kind = "NOT_FOUND"
	Validation         Kind = "VALIDATION_ERROR"
	Transient          Kind = "TRANSIENT"
	Internal           Kind = "INTERNAL"
)

var knownKinds = map[Kind]bool{
	Unauthenticated: true, Forbidden: true, AttendanceRequired: true,
	AlreadyCheckedIn: true, NotCheckedIn: true, DayLocked: true,
	AlreadyClaimed: true, NotClaimant: true, AlreadyResolved: true,
	InvalidTransition: true, NoDiscrepancy: true, NotFound: true,
	Validation: true, Transient: true, Internal: true,
}

// Error makes a Kind usable as an errors.Is target:
//
//	if errors.Is(err, apperr.AlreadyClaimed) { ... }
func (k Kind) Error() string {
	return string(k)
}

// Valid reports whether k is one of the declared kinds
func (k Kind) Valid() bool {
	return knownKinds[k]
}

// Error is a classified failure carrying the action and entity it concerns
type Error struct {
	Kind    Kind
	Op      string // action, e.g. "claim", "clock_in"
	Ref     string // entity the action targeted (order id, request id, staff id)
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = DefaultMessage(e.Kind)
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches a bare Kind target against the error's kind
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// New creates a classified error
func New(kind Kind, op, ref, message string) *Error {
	return &Error{Kind: kind, Op: op, Ref: ref, Message: message}
}

// Wrap classifies an underlying error
func Wrap(kind Kind, op, ref string, err error) *Error {
	return &Error{Kind: kind, Op: op, Ref: ref, Err: err}
}

// KindOf extracts the kind of err. Unclassified errors are Internal.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return Internal
}

// IsRetryable reports whether a user-initiated retry makes sense.
// Only transport-level failures qualify; state-machine violations never do.
func IsRetryable(err error) bool {
	return KindOf(err) == Transient
}

// DefaultMessage returns a human readable message for a kind
func DefaultMessage(kind Kind) string {
	switch kind {
	case Unauthenticated:
		return "Authentication is required"
	case Forbidden:
		return "You don't have permission to perform this action"
	case AttendanceRequired:
		return "You must check in first"
	case AlreadyCheckedIn:
		return "You are already checked in today"
	case NotCheckedIn:
		return "You have not checked in today"
	case DayLocked:
		return "Attendance for today is already completed"
	case AlreadyClaimed:
		return "Order already claimed by someone else"
	case NotClaimant:
		return "This order is claimed by another worker"
	case AlreadyResolved:
		return "Bypass request has already been resolved"
	case InvalidTransition:
		return "Order is not in a state that allows this action"
	case NoDiscrepancy:
		return "Reported item counts match the expected counts"
	case NotFound:
		return "Resource not found"
	case Validation:
		return "Invalid request"
	case Transient:
		return "Temporary failure, please retry"
	default:
		return "Internal server error"
	}
}

// HTTPStatus maps a kind to the status code used on the wire
func HTTPStatus(kind Kind) int {
	switch kind {
	case Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden, AttendanceRequired, NotClaimant:
		return http.StatusForbidden
	case AlreadyCheckedIn, NotCheckedIn, DayLocked, AlreadyClaimed, AlreadyResolved, InvalidTransition:
		return http.StatusConflict
	case NoDiscrepancy:
		return http.StatusUnprocessableEntity
	case NotFound:
		return http.StatusNotFound
	case Validation:
		return http.StatusBadRequest
	case Transient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// FromHTTP classifies a failed HTTP response at the client boundary.
// A recognised code wins; otherwise the status decides.
func FromHTTP(status int, code, message string) *Error {
	kind := Kind(code)
	if !kind.Valid() {
		switch {
		case status == http.StatusUnauthorized:
			kind = Unauthenticated
		case status == http.StatusForbidden:
			kind = Forbidden
		case status == http.StatusNotFound:
			kind = NotFound
		case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
			kind = Validation
		case status == http.StatusConflict:
			kind = InvalidTransition
		case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests ||
			status == http.StatusBadGateway || status == http.StatusServiceUnavailable ||
			status == http.StatusGatewayTimeout:
			kind = Transient
		default:
			kind = Internal
		}
	}
	return &Error{Kind: kind, Message: message}
}
