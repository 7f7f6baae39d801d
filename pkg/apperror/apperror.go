package apperror

import (
	"errors"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Kind classifies an error for transport mapping.
type Kind int

const (
	Unexpected Kind = iota
	InvalidArgument
	Unauthenticated
	Forbidden
	NotFound
	Conflict
	InvalidState
)

func (k Kind) String() string {
	switch k {
	case InvalidArgument:
		return "invalid_argument"
	case Unauthenticated:
		return "unauthenticated"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	case InvalidState:
		return "invalid_state"
	default:
		return "unexpected"
	}
}

// HTTPStatus returns the response status for the kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case InvalidArgument, InvalidState:
		return http.StatusBadRequest
	case Unauthenticated:
		return http.StatusUnauthorized
	case Forbidden:
		return http.StatusForbidden
	case NotFound:
		return http.StatusNotFound
	case Conflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Error is a classified, user-safe error. Message is returned to clients as is.
type Error struct {
	Kind    Kind
	Message string
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	return e.Message
}

// KindOf returns the kind of the first *Error in err's chain, or Unexpected.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Unexpected
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// IsUniqueViolation checks if the error is a PostgreSQL unique constraint violation
// on a constraint whose name contains constraintName. An empty name matches any constraint.
func IsUniqueViolation(err error, constraintName string) bool {
	return hasPgCode(err, "23505", constraintName)
}

// IsForeignKeyViolation checks if the error is a PostgreSQL foreign key violation.
func IsForeignKeyViolation(err error, constraintName string) bool {
	return hasPgCode(err, "23503", constraintName)
}

func hasPgCode(err error, code, constraintName string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != code {
		return false
	}
	return strings.Contains(strings.ToLower(pgErr.ConstraintName), strings.ToLower(constraintName))
}
