package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode represents a unique error code for categorizing errors
type ErrorCode string

const (
	// Connection errors (1xxx)
	ErrCodeConnectionFailed     ErrorCode = "RETL1001"
	ErrCodeConnectionTimeout    ErrorCode = "RETL1002"
	ErrCodeAuthenticationFailed ErrorCode = "RETL1003"

	// Configuration errors (2xxx)
	ErrCodeConfigMissing ErrorCode = "RETL2001"
	ErrCodeConfigInvalid ErrorCode = "RETL2002"

	// Source errors (3xxx)
	ErrCodeSourceNotFound ErrorCode = "RETL3001"
	ErrCodeMissingTables  ErrorCode = "RETL3002"
	ErrCodeSourceRead     ErrorCode = "RETL3003"

	// Target errors (4xxx)
	ErrCodeSchemaReset         ErrorCode = "RETL4001"
	ErrCodeConstraintViolation ErrorCode = "RETL4002"
	ErrCodeSQLExecution        ErrorCode = "RETL4003"
	ErrCodeSQLTransaction      ErrorCode = "RETL4004"

	// Transform errors (5xxx)
	ErrCodeTransform ErrorCode = "RETL5001"

	// Assistant errors (6xxx)
	ErrCodeLLMRequest  ErrorCode = "RETL6001"
	ErrCodeLLMResponse ErrorCode = "RETL6002"
	ErrCodeUserInput   ErrorCode = "RETL6003"

	// System errors (9xxx)
	ErrCodeInternal ErrorCode = "RETL9001"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "CRITICAL" // System failure, requires immediate attention
	SeverityError    ErrorSeverity = "ERROR"    // Operation failed, run is terminal
	SeverityWarning  ErrorSeverity = "WARNING"  // Operation succeeded with issues
	SeverityInfo     ErrorSeverity = "INFO"     // Informational, not an error
)

// AppError represents a structured application error with context
type AppError struct {
	Code        ErrorCode
	Message     string
	Severity    ErrorSeverity
	Context     map[string]interface{}
	Cause       error
	Stack       string
	Timestamp   time.Time
	Suggestions []string
}

// Error implements the error interface
func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s: %s", e.Code, e.Severity, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\nCaused by: %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}

	return b.String()
}

// Unwrap returns the cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Severity:  SeverityError,
		Context:   make(map[string]interface{}),
		Stack:     captureStack(),
		Timestamp: time.Now(),
	}
}

// Wrap wraps an existing error with AppError
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}

	appErr := New(code, message)
	appErr.Cause = err

	// If wrapping another AppError, inherit its context
	if ae, ok := err.(*AppError); ok {
		for k, v := range ae.Context {
			appErr.Context[k] = v
		}
	}

	return appErr
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity sets the error severity
func (e *AppError) WithSeverity(severity ErrorSeverity) *AppError {
	e.Severity = severity
	return e
}

// WithSuggestions adds recovery suggestions
func (e *AppError) WithSuggestions(suggestions ...string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// captureStack captures the current stack trace
func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			b.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return b.String()
}

// Common error constructors

// SourceNotFoundError reports a source database file that cannot be opened.
func SourceNotFoundError(path string, cause error) *AppError {
	return Wrap(cause, ErrCodeSourceNotFound, fmt.Sprintf("Source database not found: %s", path)).
		WithContext("path", path).
		WithSuggestions(
			"Check the SQLITE_DB_PATH setting",
			"Verify the file exists and is readable",
		)
}

// MissingTablesError reports expected source tables that are absent.
// The missing set is kept on the error so callers can report it exactly.
func MissingTablesError(missing []string, found []string) *AppError {
	return New(ErrCodeMissingTables, fmt.Sprintf("Source database is missing expected tables: %s", strings.Join(missing, ", "))).
		WithContext("missing", missing).
		WithContext("found", found).
		WithSuggestions(
			"Verify the source file holds the normalized retail dataset",
			"Table names are case-sensitive",
		)
}

// SchemaResetError reports a DDL failure while rebuilding the target schema.
func SchemaResetError(message string, cause error) *AppError {
	return Wrap(cause, ErrCodeSchemaReset, message).
		WithSeverity(SeverityCritical).
		WithSuggestions(
			"Check target database permissions for DROP/CREATE",
			"Re-run the migration once the cause is fixed; the schema is rebuilt from scratch",
		)
}

// TransformError reports a row whose values cannot be normalized.
func TransformError(table string, row interface{}, cause error) *AppError {
	return Wrap(cause, ErrCodeTransform, fmt.Sprintf("Row transform failed for table %s", table)).
		WithContext("table", table).
		WithContext("row", row).
		WithSuggestions(
			"Inspect the offending row in the source database",
			"Fix the source data and re-run the migration",
		)
}

// ConstraintViolationError surfaces a target-side constraint rejection verbatim.
func ConstraintViolationError(table string, cause error) *AppError {
	return Wrap(cause, ErrCodeConstraintViolation, fmt.Sprintf("Target rejected rows for table %s", table)).
		WithContext("table", table).
		WithSuggestions(
			"Check that parent tables were migrated first",
			"Look for dangling foreign keys or NULLs in the source data",
		)
}

// ConnectionError creates a connection-related error
func ConnectionError(message string, cause error) *AppError {
	return Wrap(cause, ErrCodeConnectionFailed, message).
		WithSuggestions(
			"Check your network connection",
			"Verify the database endpoint and credentials",
		)
}

// ConfigError creates a configuration-related error
func ConfigError(message string, fields ...string) *AppError {
	err := New(ErrCodeConfigMissing, message).
		WithSuggestions(
			"Set the missing variables in the environment or a .env file",
			"An optional config.yaml may supply the same keys",
		)
	if len(fields) > 0 {
		_ = err.WithContext("fields", fields)
	}
	return err
}

// SQLError creates an SQL execution error
func SQLError(message string, query string, cause error) *AppError {
	return Wrap(cause, ErrCodeSQLExecution, message).
		WithContext("query", truncateString(query, 200))
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// MissingTables extracts the missing-table set from a MissingTablesError, if any.
func MissingTables(err error) []string {
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Code != ErrCodeMissingTables {
		return nil
	}
	if missing, ok := appErr.Context["missing"].([]string); ok {
		return missing
	}
	return nil
}

// truncateString truncates a string to maxLen characters
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
