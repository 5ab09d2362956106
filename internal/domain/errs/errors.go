package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	KindConfiguration    Kind = "configuration"
	KindRateLimited      Kind = "rate_limited"
	KindNetwork          Kind = "network"
	KindServer           Kind = "server"
	KindMalformed        Kind = "malformed"
	KindInsufficientData Kind = "insufficient_data"
	KindArtifactNotFound Kind = "artifact_not_found"
	KindUnknown          Kind = "unknown"
)

// Sentinels for errors.Is checks. Matching is by kind only.
var (
	ErrConfiguration    = &Error{Kind: KindConfiguration}
	ErrRateLimited      = &Error{Kind: KindRateLimited}
	ErrNetwork          = &Error{Kind: KindNetwork}
	ErrServer           = &Error{Kind: KindServer}
	ErrMalformed        = &Error{Kind: KindMalformed}
	ErrInsufficientData = &Error{Kind: KindInsufficientData}
	ErrArtifactNotFound = &Error{Kind: KindArtifactNotFound}
)

// Error is a classified failure for one instrument (Symbol may be empty).
type Error struct {
	Kind    Kind
	Symbol  string
	Message string
	Status  int // upstream HTTP status, when there was one
	Err     error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Symbol != "" {
		msg += " [" + e.Symbol + "]"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// HTTPStatus maps the kind to a status for API responses.
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindConfiguration:
		return http.StatusInternalServerError
	case KindRateLimited:
		return http.StatusTooManyRequests
	case KindNetwork, KindServer:
		return http.StatusBadGateway
	case KindMalformed, KindInsufficientData:
		return http.StatusUnprocessableEntity
	case KindArtifactNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, symbol, message string) *Error {
	return &Error{Kind: kind, Symbol: symbol, Message: message}
}

func Newf(kind Kind, symbol, format string, a ...interface{}) *Error {
	return New(kind, symbol, fmt.Sprintf(format, a...))
}

func Wrap(kind Kind, symbol string, err error, message string) *Error {
	return &Error{Kind: kind, Symbol: symbol, Message: message, Err: err}
}

// WithStatus records the upstream HTTP status.
func (e *Error) WithStatus(status int) *Error {
	e.Status = status
	return e
}

// KindOf reports the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
