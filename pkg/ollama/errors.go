package ollama

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
)

// ErrorKind classifies client failures.
type ErrorKind int

const (
	// KindRequest: the server answered with a non-2xx status (other than 404)
	// or reported an error inside a stream.
	KindRequest ErrorKind = iota + 1
	// KindResponse: the body could not be decoded.
	KindResponse
	// KindModelNotFound: the server answered 404.
	KindModelNotFound
	// KindConnection: the server could not be reached or the body could not be read.
	KindConnection
)

func (k ErrorKind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindResponse:
		return "response"
	case KindModelNotFound:
		return "model_not_found"
	case KindConnection:
		return "connection"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is. Every *Error matches exactly one of them.
var (
	ErrRequest       = errors.New("ollama: request failed")
	ErrResponse      = errors.New("ollama: invalid response")
	ErrModelNotFound = errors.New("ollama: model not found")
	ErrConnection    = errors.New("ollama: connection failed")
)

// Error is returned by every Client method that talks to the server.
type Error struct {
	Kind ErrorKind
	// Code is the HTTP status received, or 0 when no response arrived.
	Code    int
	Message string
	Err     error
}

func (e *Error) sentinel() error {
	switch e.Kind {
	case KindResponse:
		return ErrResponse
	case KindModelNotFound:
		return ErrModelNotFound
	case KindConnection:
		return ErrConnection
	default:
		return ErrRequest
	}
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.sentinel().Error())
	if e.Code != 0 {
		b.WriteString(" (status ")
		b.WriteString(strconv.Itoa(e.Code))
		b.WriteString(")")
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool { return target == e.sentinel() }

// StatusCode maps the failure onto a status suitable for a proxying HTTP handler.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindModelNotFound:
		return http.StatusNotFound
	case KindConnection, KindResponse:
		return http.StatusBadGateway
	default:
		if e.Code >= 400 {
			return e.Code
		}
		return http.StatusBadGateway
	}
}

// IsRequest reports whether err is a request failure.
func IsRequest(err error) bool { return errors.Is(err, ErrRequest) }

// IsResponse reports whether err is a malformed response.
func IsResponse(err error) bool { return errors.Is(err, ErrResponse) }

// IsModelNotFound reports whether the server did not know the requested model.
func IsModelNotFound(err error) bool { return errors.Is(err, ErrModelNotFound) }

// IsConnection reports whether the server could not be reached.
func IsConnection(err error) bool { return errors.Is(err, ErrConnection) }

// statusError builds the error for a non-2xx response. The message comes
// from the body's "error" field when the body is JSON.
func statusError(code int, body []byte) *Error {
	msg := strings.TrimSpace(string(body))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		msg = payload.Error
	}
	if msg == "" {
		msg = http.StatusText(code)
	}
	if code == http.StatusNotFound {
		return &Error{Kind: KindModelNotFound, Code: code, Message: msg}
	}
	return &Error{Kind: KindRequest, Code: code, Message: msg}
}

func responseError(msg string, err error) *Error {
	return &Error{Kind: KindResponse, Message: msg, Err: err}
}

func connectionError(msg string, err error) *Error {
	return &Error{Kind: KindConnection, Message: msg, Err: err}
}
