package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is the stable error category surfaced to API callers. Code above the
// gateway layer branches on kinds only, never on message text.
type Kind int

const (
	Internal Kind = iota
	NotFound
	Conflict
	Unauthorized
	Forbidden
	InvalidInput
	Unavailable
	CancellationNotAllowed
)

func (k Kind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case InvalidInput:
		return "invalid_input"
	case Unavailable:
		return "service_unavailable"
	case CancellationNotAllowed:
		return "cancellation_not_allowed"
	default:
		return "internal_error"
	}
}

// Error carries the category, a human-readable message and the offending
// identifier (event id, ticket id or name) when one applies.
type Error struct {
	Kind    Kind
	Message string
	Ref     string

	// ActiveTickets is set only for CancellationNotAllowed.
	ActiveTickets int64
}

func (e *Error) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Ref)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func New(kind Kind, ref, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Ref: ref, Message: fmt.Sprintf(format, args...)}
}

// CancellationBlocked reports an event that still has active tickets.
func CancellationBlocked(eventID string, active int64) *Error {
	return &Error{
		Kind:          CancellationNotAllowed,
		Ref:           eventID,
		ActiveTickets: active,
		Message:       fmt.Sprintf("event has %d active ticket(s) and cannot be cancelled", active),
	}
}

// KindOf extracts the category from err, or Internal for anything untyped.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}

// IsKind reports whether err carries the given category.
func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps a category to its response status. The mapping lives here so
// every handler reports the same status for the same kind.
func HTTPStatus(kind Kind) int {
	switch kind {
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	case Unauthorized:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case InvalidInput, CancellationNotAllowed:
		return http.StatusBadRequest
	case Unavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
