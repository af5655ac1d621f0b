package gmail

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"

	"github.com/bassamadnan/mailgenie/auth"
)

// NotFoundError reports a message id that no longer exists on the server.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("message %s not found", e.ID)
}

// SendError reports a rejected outgoing message: malformed recipient,
// quota/rate limit, or any other server-side rejection of a send.
type SendError struct {
	Reason string
	Err    error
}

func (e *SendError) Error() string {
	if e.Err == nil {
		return "send failed: " + e.Reason
	}
	return fmt.Sprintf("send failed: %s: %v", e.Reason, e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// wrapAPIError translates a read/modify failure into the client's error
// taxonomy. 401 means the credentials are gone, 404 means the id is gone;
// everything else passes through untouched.
func wrapAPIError(err error, id string) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}
	switch gerr.Code {
	case http.StatusUnauthorized:
		return &auth.Error{Op: "gmail request", Err: err}
	case http.StatusNotFound:
		return &NotFoundError{ID: id}
	}
	return err
}

// wrapSendError translates a send failure. A 403/429 is a quota rejection,
// a 400 a malformed message; both are SendErrors scoped to this one action.
func wrapSendError(err error) error {
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return err
	}
	switch gerr.Code {
	case http.StatusUnauthorized:
		return &auth.Error{Op: "gmail send", Err: err}
	case http.StatusBadRequest:
		return &SendError{Reason: "rejected by server", Err: err}
	case http.StatusForbidden, http.StatusTooManyRequests:
		return &SendError{Reason: "quota exceeded", Err: err}
	}
	return err
}
