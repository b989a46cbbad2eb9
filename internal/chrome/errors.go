package chrome

import (
	"errors"
	"strconv"
)

// ErrConnectionClosed is returned by calls made on, or pending when, the
// browser socket goes away.
var ErrConnectionClosed = errors.New("connection closed")

// ErrProtocolError matches every *ProtocolError through errors.Is.
var ErrProtocolError = errors.New("protocol error")

// ProtocolError is the error object of a failed DevTools command.
type ProtocolError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *ProtocolError) Error() string {
	return "protocol error " + strconv.Itoa(e.Code) + ": " + e.Message
}

func (e *ProtocolError) Unwrap() error { return ErrProtocolError }

// EvalError is an exception thrown by script run in the page. Description
// carries the stringified exception when the browser supplies one.
type EvalError struct {
	Text        string `json:"text"`
	Description string `json:"description,omitempty"`
}

func (e *EvalError) Error() string {
	msg := e.Text
	if e.Description != "" {
		msg = e.Description
	}
	return "JS exception: " + msg
}
