package profile

import (
	"errors"

	"github.com/mkrupp/affinity/internal/domain"
	"github.com/mkrupp/affinity/internal/viewmodel/login"
)

// User-facing messages.
const (
	MessageMissingHandle   = "Please enter a username"
	MessageMissingPassword = "Please enter your password"
	MessageProfileNotFound = "Profile not found"
)

// State is the observable profile state.
type State struct {
	Profile      *domain.UserProfile // nil until loaded, and after deletion
	Message      string              // confirmation of the last update or deletion
	IsLoading    bool
	ErrorMessage string
}

// HasError reports whether an error message is pending.
func (s State) HasError() bool {
	return s.ErrorMessage != ""
}

func errorMessage(err error) string {
	var (
		rejected     *domain.RejectedError
		transportErr *domain.TransportError
		malformedErr *domain.MalformedResponseError
	)

	switch {
	case errors.As(err, &rejected) && rejected.Message != "":
		return rejected.Message
	case errors.As(err, &transportErr):
		if transportErr.Cause == nil {
			return login.ServerErrorMessage(transportErr.StatusCode)
		}

		return login.ConnectionErrorMessage(transportErr.Cause)
	case errors.Is(err, domain.ErrEmptyResponse):
		return login.MessageEmptyResponse
	case errors.As(err, &malformedErr):
		return login.ServerErrorMessage(malformedErr.StatusCode)
	default:
		return err.Error()
	}
}
