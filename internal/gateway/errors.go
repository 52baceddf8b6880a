package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

const (
	// GenericErrorMessage is shown when the backend gives no usable message.
	GenericErrorMessage = "The evaluation service could not complete the request. Please try again."
	// TimeoutErrorMessage is shown when a request exceeds the gateway timeout.
	TimeoutErrorMessage = "The evaluation service did not respond in time. Please try again."
)

// GatewayError is a non-2xx response or a transport failure. Message is safe to
// show to the user; Err keeps the underlying cause for logs.
type GatewayError struct {
	Operation  string
	StatusCode int
	Message    string
	Err        error
}

func (e *GatewayError) Error() string {
	return e.Message
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// NotFound reports whether the backend answered 404.
func (e *GatewayError) NotFound() bool {
	return e.StatusCode == 404
}

// MessageOf returns the user-facing message for any error coming out of the gateway.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}
	var gwErr *GatewayError
	if errors.As(err, &gwErr) && gwErr.Message != "" {
		return gwErr.Message
	}
	return GenericErrorMessage
}

func transportError(op string, err error) *GatewayError {
	msg := GenericErrorMessage
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		msg = TimeoutErrorMessage
	}
	return &GatewayError{Operation: op, Message: msg, Err: err}
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}

// statusError builds a GatewayError from a non-2xx body, preferring the
// backend's {"error": "..."} message.
func statusError(op string, status int, body []byte) *GatewayError {
	msg := GenericErrorMessage
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case strings.TrimSpace(payload.Error) != "":
			msg = payload.Error
		case strings.TrimSpace(payload.Message) != "":
			msg = payload.Message
		}
	}
	return &GatewayError{
		Operation:  op,
		StatusCode: status,
		Message:    msg,
		Err:        fmt.Errorf("%s: backend returned status %d", op, status),
	}
}
