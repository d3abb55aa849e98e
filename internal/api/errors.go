package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies why a request did not produce a usable result.
type Kind int

const (
	// KindNetwork: the request never reached the server or no response arrived.
	KindNetwork Kind = iota + 1
	// KindRejected: the server answered with a non-2xx status.
	KindRejected
	// KindValidation: a client-side check failed, before sending or on the decoded body.
	KindValidation
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindRejected:
		return "rejected"
	case KindValidation:
		return "validation"
	default:
		return "unknown"
	}
}

const (
	// DefaultRejectedMessage is shown when a rejection carries no message.
	DefaultRejectedMessage = "Request failed. Please try again."
	// NetworkMessage is shown for transport failures.
	NetworkMessage = "Network error. Please check if the server is running."
)

// ErrBadResponse is the cause of every Validation error raised for a 2xx
// body that could not be used.
var ErrBadResponse = errors.New("unusable response body")

// Sentinels for errors.Is matching by kind.
var (
	ErrNetwork    = &Error{Kind: KindNetwork}
	ErrRejected   = &Error{Kind: KindRejected}
	ErrValidation = &Error{Kind: KindValidation}
)

// Error is the failure half of every API call.
type Error struct {
	Kind    Kind
	Status  int    // HTTP status, Rejected only
	Message string // server "message" field or validation text; may be empty
	Err     error  // underlying cause, if any
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindRejected:
		return fmt.Sprintf("rejected (%d %s): %s", e.Status, http.StatusText(e.Status), e.Text())
	case KindNetwork:
		if e.Err != nil {
			return "network error: " + e.Err.Error()
		}
		return "network error"
	default:
		msg := e.Message
		if e.Err != nil {
			if msg != "" {
				msg += ": "
			}
			msg += e.Err.Error()
		}
		return e.Kind.String() + " error: " + msg
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind. A target with a non-zero
// Status also has to match the status, and a target with a cause only
// matches errors wrapping that cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind || (t.Status != 0 && t.Status != e.Status) {
		return false
	}
	return t.Err == nil || (e.Err != nil && errors.Is(e.Err, t.Err))
}

// Text is the user-facing message: the server or validation message, else
// the generic fallback.
func (e *Error) Text() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Kind == KindNetwork {
		return NetworkMessage
	}
	return DefaultRejectedMessage
}

// Validationf builds a KindValidation error.
func Validationf(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// responseError is a Validation error for an unusable 2xx body.
func responseError(msg string, cause error) *Error {
	err := ErrBadResponse
	if cause != nil {
		err = fmt.Errorf("%w: %w", ErrBadResponse, cause)
	}
	return &Error{Kind: KindValidation, Message: msg, Err: err}
}

// Describe turns any error from a client call into the single line shown to
// the user. fallback replaces a missing server message and an unusable
// response; an empty fallback means DefaultRejectedMessage.
func Describe(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if fallback == "" {
		fallback = DefaultRejectedMessage
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return fallback
	}
	switch apiErr.Kind {
	case KindNetwork:
		return NetworkMessage
	case KindRejected:
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fallback
	default:
		if errors.Is(apiErr.Err, ErrBadResponse) {
			return fallback
		}
		return apiErr.Text()
	}
}
