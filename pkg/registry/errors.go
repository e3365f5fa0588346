package registry

import (
	"github.com/pkg/errors"
)

var (
	// ErrStorageUnavailable the backend could not be read or written
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrMalformedState the stored value is not a serialized collection
	ErrMalformedState = errors.New("malformed state")
	// ErrIndexOutOfRange an index outside [0, length) was given
	ErrIndexOutOfRange = errors.New("index out of range")
	// ErrNotFound no record carries the given id
	ErrNotFound = errors.New("client not found")
	// ErrInvalidRecord a required field is blank
	ErrInvalidRecord = errors.New("invalid client record")
)

// Error binds one of the sentinel kinds above to the operation and its cause.
// errors.Is matches both the kind and the cause.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	msg := e.Op + ": " + e.Kind.Error()
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(kind error, op string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Err: cause}
}

func indexError(op string, index, length int) *Error {
	return newError(ErrIndexOutOfRange, op, errors.Errorf("index %d, length %d", index, length))
}
