package predict

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/goliatone/go-predictform/pkg/model"
)

// ServerError reports a non-2xx response whose body decoded as an
// ErrorPayload.
type ServerError struct {
	StatusCode int
	Payload    model.ErrorPayload
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("predict: server returned %d: %s", e.StatusCode, e.Payload.Message(http.StatusText(e.StatusCode)))
}

// Message returns the server supplied message or fallback.
func (e *ServerError) Message(fallback string) string {
	return e.Payload.Message(fallback)
}

// DecodeError reports a response body that could not be parsed as JSON.
type DecodeError struct {
	StatusCode int
	Err        error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("predict: decode %d response: %v", e.StatusCode, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// TransportError reports a request that could not be sent or a response that
// could not be received.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("predict: transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// IsServer reports whether err carries a *ServerError.
func IsServer(err error) bool {
	var target *ServerError
	return errors.As(err, &target)
}

// IsDecode reports whether err carries a *DecodeError.
func IsDecode(err error) bool {
	var target *DecodeError
	return errors.As(err, &target)
}

// IsTransport reports whether err carries a *TransportError.
func IsTransport(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}
