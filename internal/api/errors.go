package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error is returned for every failed call: transport failures carry Err and
// a zero StatusCode, HTTP failures carry the status and the server's message.
type Error struct {
	Method        string
	URL           string
	StatusCode    int
	Message       string
	ServerMessage string
	Err           error
}

func (e *Error) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s %s: %s: %v", e.Method, e.URL, e.Message, e.Err)
	}
	return fmt.Sprintf("%s %s: %d: %s", e.Method, e.URL, e.StatusCode, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Message maps a status code and optional server-provided message onto the
// user-facing text. A zero status means the request never got a response.
func Message(status int, serverMessage string) string {
	switch status {
	case 0:
		return "An error occurred"
	case http.StatusBadRequest:
		return orDefault(serverMessage, "Bad request")
	case http.StatusUnauthorized:
		return "Unauthorized. Please login again."
	case http.StatusForbidden:
		return "Access forbidden"
	case http.StatusNotFound:
		return orDefault(serverMessage, "Resource not found")
	case http.StatusInternalServerError:
		return "Internal server error. Please try again later."
	default:
		return orDefault(serverMessage, fmt.Sprintf("Error Code: %d", status))
	}
}

func orDefault(s, def string) string {
	if s != "" {
		return s
	}
	return def
}

// serverMessage pulls a human message out of an error body. JSON bodies are
// checked for message, then error, then title; other bodies are used as-is.
func serverMessage(body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return ""
	}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
		Title   string `json:"title"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Message != "":
			return payload.Message
		case payload.Error != "":
			return payload.Error
		default:
			return payload.Title
		}
	}

	if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "<") {
		return ""
	}
	return trimmed
}

func newStatusError(method, url string, status int, body []byte) *Error {
	msg := serverMessage(body)
	return &Error{
		Method:        method,
		URL:           url,
		StatusCode:    status,
		Message:       Message(status, msg),
		ServerMessage: msg,
	}
}

func newTransportError(method, url string, err error) *Error {
	return &Error{
		Method:  method,
		URL:     url,
		Message: Message(0, ""),
		Err:     err,
	}
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

func IsUnauthorized(err error) bool {
	return StatusCode(err) == http.StatusUnauthorized
}

func IsForbidden(err error) bool {
	return StatusCode(err) == http.StatusForbidden
}

func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// UserMessage returns the text to show for err.
func UserMessage(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return Message(0, "")
}
