package utils

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

// Stable machine-readable codes for translated data-access failures. Handlers
// branch on these codes, never on message text.
const (
	CodeUniqueViolation     = "UNIQUE_VIOLATION"
	CodeForeignKeyViolation = "FOREIGN_KEY_VIOLATION"
	CodeNotFound            = "NOT_FOUND"
	CodeRelationViolation   = "RELATION_VIOLATION"
	CodeQueryInterpretation = "QUERY_INTERPRETATION"
	CodeTimeout             = "TIMEOUT"
	CodeValidationError     = "VALIDATION_ERROR"
	CodeConnectionError     = "CONNECTION_ERROR"
	CodeUnknown             = "UNKNOWN"
)

// DatabaseError is a data-access failure classified into a stable code with a
// separate human-readable message.
type DatabaseError struct {
	Code    string
	Message string
}

func (e *DatabaseError) Error() string {
	return e.Message
}

// StatusCode returns the HTTP status this error maps to at the API boundary.
func (e *DatabaseError) StatusCode() int {
	switch e.Code {
	case CodeNotFound:
		return http.StatusNotFound
	case CodeTimeout, CodeConnectionError, CodeUnknown:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// TranslateDBError classifies a raw gorm/driver error into a DatabaseError.
// It relies on gorm's translated sentinel errors first and falls back to
// driver message matching so both the Postgres and sqlite dialects classify
// the same way.
func TranslateDBError(err error) *DatabaseError {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &DatabaseError{Code: CodeNotFound, Message: "Record not found."}
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &DatabaseError{Code: CodeUniqueViolation, Message: "A unique constraint would be violated."}
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return &DatabaseError{Code: CodeForeignKeyViolation, Message: "A foreign key constraint would be violated."}
	case errors.Is(err, gorm.ErrInvalidData), errors.Is(err, gorm.ErrInvalidValue), errors.Is(err, gorm.ErrInvalidValueOfLength):
		return &DatabaseError{Code: CodeValidationError, Message: "Invalid data provided."}
	case errors.Is(err, gorm.ErrMissingWhereClause), errors.Is(err, gorm.ErrModelValueRequired), errors.Is(err, gorm.ErrInvalidField):
		return &DatabaseError{Code: CodeQueryInterpretation, Message: "Query interpretation error."}
	case errors.Is(err, gorm.ErrInvalidTransaction):
		return &DatabaseError{Code: CodeRelationViolation, Message: "The change would violate a required relation."}
	case errors.Is(err, context.DeadlineExceeded):
		return &DatabaseError{Code: CodeTimeout, Message: "Connection timeout. Please try again."}
	case errors.Is(err, gorm.ErrInvalidDB):
		return &DatabaseError{Code: CodeConnectionError, Message: "Failed to connect to the database."}
	}

	// Fallback classification for drivers that surface constraint failures
	// as plain error strings.
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate"):
		return &DatabaseError{Code: CodeUniqueViolation, Message: "A unique constraint would be violated."}
	case strings.Contains(msg, "foreign key constraint"):
		return &DatabaseError{Code: CodeForeignKeyViolation, Message: "A foreign key constraint would be violated."}
	case strings.Contains(msg, "connection refused") || strings.Contains(msg, "connection reset"):
		return &DatabaseError{Code: CodeConnectionError, Message: "Failed to connect to the database."}
	case strings.Contains(msg, "timeout"):
		return &DatabaseError{Code: CodeTimeout, Message: "Connection timeout. Please try again."}
	}

	return &DatabaseError{Code: CodeUnknown, Message: "An unexpected database error occurred."}
}
