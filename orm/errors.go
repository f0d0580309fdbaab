package orm

import (
	"errors"
	"fmt"

	"github.com/jadedragon942/dorm/logging"
)

var (
	// ErrNotConnected is returned by every operation while no pool is live.
	ErrNotConnected = errors.New("not connected to a database")
	// ErrSuspiciousValue is returned when value screening flags a payload.
	ErrSuspiciousValue = errors.New("value rejected by injection screening")
)

// ConnectionError reports a pool that could not be opened, reached or closed.
type ConnectionError struct {
	Op     string
	Engine string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Engine, logging.SanitizeError(e.Err))
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// QueryError wraps a builder or driver failure for one table operation.
type QueryError struct {
	Op    string
	Table string
	Err   error
}

func (e *QueryError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// InputError is a malformed or incomplete request.
type InputError struct {
	Msg string
}

func (e *InputError) Error() string { return e.Msg }

func inputErrorf(format string, args ...any) error {
	return &InputError{Msg: fmt.Sprintf(format, args...)}
}

// IsClientError reports whether err is the caller's fault: bad input or no
// live pool.
func IsClientError(err error) bool {
	var in *InputError
	return errors.As(err, &in) || errors.Is(err, ErrNotConnected)
}
