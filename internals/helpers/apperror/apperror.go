// Package apperror is the error taxonomy shared by services and controllers.
package apperror

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
)

type Kind int

const (
	KindInternal Kind = iota
	KindNotFound
	KindAuthorization
	KindDuplicate
	KindValidation
	KindInvalidState
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "NOT_FOUND"
	case KindAuthorization:
		return "FORBIDDEN"
	case KindDuplicate:
		return "DUPLICATE_SUBMISSION"
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindInvalidState:
		return "INVALID_STATE"
	default:
		return "INTERNAL_ERROR"
	}
}

// Error carries a Kind, a user-facing message and an optional cause.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...any) *Error { return newf(KindNotFound, format, args...) }

func Authorization(format string, args ...any) *Error {
	return newf(KindAuthorization, format, args...)
}

func Duplicate(format string, args ...any) *Error { return newf(KindDuplicate, format, args...) }

func Validation(format string, args ...any) *Error { return newf(KindValidation, format, args...) }

func InvalidState(format string, args ...any) *Error {
	return newf(KindInvalidState, format, args...)
}

// Internal wraps an unexpected failure. The message is never shown to clients.
func Internal(err error, msg string) *Error {
	return &Error{Kind: KindInternal, Message: msg, Cause: pkgerrors.WithStack(err)}
}

const DuplicateSubmissionMessage = "Attendance already submitted for this time slot and date"

// ErrDuplicateSubmission is returned for a repeated (time slot, date) submission.
func ErrDuplicateSubmission() *Error { return Duplicate(DuplicateSubmissionMessage) }

// KindOf returns KindInternal for anything that is not an *Error.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus maps a Kind onto the REST surface.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return fiber.StatusNotFound
	case KindAuthorization:
		return fiber.StatusForbidden
	case KindDuplicate, KindInvalidState:
		return fiber.StatusConflict
	case KindValidation:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// PublicMessage hides internal details behind a generic message.
func PublicMessage(err error) string {
	var ae *Error
	if errors.As(err, &ae) && ae.Kind != KindInternal {
		return ae.Message
	}
	return "Internal server error"
}

// IsUniqueViolation detects SQLSTATE 23505 from pgx, lib/pq or gorm.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}

// IsForeignKeyViolation detects SQLSTATE 23503.
func IsForeignKeyViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == "23503"
	}
	return false
}

// FromDB translates persistence errors at the repository boundary.
func FromDB(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return NotFound("%s not found", what)
	case IsUniqueViolation(err):
		return &Error{Kind: KindDuplicate, Message: what + " already exists", Cause: err}
	case IsForeignKeyViolation(err):
		return &Error{Kind: KindValidation, Message: what + " references a missing record", Cause: err}
	default:
		var ae *Error
		if errors.As(err, &ae) {
			return err
		}
		return Internal(err, "query "+what)
	}
}
