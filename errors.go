package basalt

import (
	"errors"
	"fmt"
)

// Standard sentinel errors.
var (
	// ErrDatabase is matched by every DatabaseError.
	ErrDatabase = errors.New("basalt: database error")

	// ErrScriptExhausted is returned by strict-mode mock databases when a
	// queued response spec runs out of entries. Non-strict databases fall
	// back to the caller's default value instead.
	ErrScriptExhausted = errors.New("basalt: response script exhausted")
)

// DatabaseError is the envelope every failed statement is reported in,
// consistent across real drivers and scripted mock failures, so calling
// code exercises one error-handling path against both.
type DatabaseError struct {
	Stmt string // statement being executed, possibly empty
	Err  error  // underlying failure
}

// Error returns the error string.
func (e *DatabaseError) Error() string {
	if e.Stmt != "" {
		return fmt.Sprintf("basalt: executing %q: %v", e.Stmt, e.Err)
	}
	return fmt.Sprintf("basalt: database error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *DatabaseError) Unwrap() error { return e.Err }

// Is reports whether the target error matches DatabaseError.
// This allows errors.Is(err, ErrDatabase) to return true.
func (e *DatabaseError) Is(err error) bool { return err == ErrDatabase }

// NewDatabaseError wraps err as a DatabaseError for the given statement.
func NewDatabaseError(stmt string, err error) *DatabaseError {
	return &DatabaseError{Stmt: stmt, Err: err}
}

// IsDatabaseError returns true if the error is a DatabaseError.
func IsDatabaseError(err error) bool {
	if err == nil {
		return false
	}
	var e *DatabaseError
	return errors.As(err, &e) || errors.Is(err, ErrDatabase)
}

// ConfigurationError reports a response spec or option with an unrecognized
// shape. Configuration failures are deterministic: the same script always
// fails the same way.
type ConfigurationError struct {
	msg string
}

// Error returns the error string.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("basalt: invalid configuration: %s", e.msg)
}

// NewConfigurationError returns a new ConfigurationError with a formatted
// message.
func NewConfigurationError(format string, args ...any) *ConfigurationError {
	return &ConfigurationError{msg: fmt.Sprintf(format, args...)}
}

// IsConfigurationError returns true if the error is a ConfigurationError.
func IsConfigurationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConfigurationError
	return errors.As(err, &e)
}
