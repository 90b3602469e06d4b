package api

import (
	"fmt"
	"net/http"

	"github.com/iota-uz/itam/pkg/serrors"
)

// ErrSessionExpired is returned when a 401 could not be recovered by refreshing
// the token. The session has already been cleared when it is returned.
var ErrSessionExpired = serrors.NewError("SESSION_EXPIRED", "Your session has expired, please sign in again", "Errors.SessionExpired")

// Error is a non-2xx backend response.
type Error struct {
	Method  string
	Path    string
	Status  int
	Message string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.Status, msg)
}

// UserMessage is the backend's own message when it sent one, else a generic text.
func (e *Error) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return "The server could not complete the request"
}

func (e *Error) NotFound() bool { return e.Status == http.StatusNotFound }
