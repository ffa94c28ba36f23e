package gateway

import (
	"fmt"
	"net/http"
)

// ErrorKind classifies a failed gateway round trip.
type ErrorKind int

const (
	// KindUnavailable: the gateway answered with a non-200 status.
	KindUnavailable ErrorKind = iota + 1
	// KindRejected: the body carried a non-zero error code.
	KindRejected
	// KindMalformed: the body could not be parsed.
	KindMalformed
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnavailable:
		return "unavailable"
	case KindRejected:
		return "rejected"
	case KindMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// Error is returned for every remote failure. It carries whatever the
// gateway told us about it.
type Error struct {
	Kind       ErrorKind
	StatusCode int
	Code       string
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindUnavailable:
		return fmt.Sprintf("robokassa: servers unavailable: http %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	case KindRejected:
		return fmt.Sprintf("robokassa: error code: %s, error message: %s", e.Code, e.Message)
	default:
		if e.Err != nil {
			return fmt.Sprintf("robokassa: malformed response: %v", e.Err)
		}
		return "robokassa: malformed response"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes errors.Is(err, &Error{Kind: k}) match on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == 0 || t.Kind == e.Kind
}

var (
	ErrUnavailable = &Error{Kind: KindUnavailable}
	ErrRejected    = &Error{Kind: KindRejected}
	ErrMalformed   = &Error{Kind: KindMalformed}
)
