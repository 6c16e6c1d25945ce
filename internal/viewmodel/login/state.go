package login

import (
	"errors"
	"fmt"

	"github.com/mkrupp/affinity/internal/domain"
)

// Phase is the position of the login state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseSubmitting
	PhaseSucceeded
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseSubmitting:
		return "submitting"
	case PhaseSucceeded:
		return "succeeded"
	case PhaseFailed:
		return "failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// User-facing messages.
const (
	MessageMissingFields   = "Please fill in all fields"
	MessageInvalidUserData = "Invalid user data"
	MessageEmptyResponse   = "Empty response from server"
)

// ServerErrorMessage is shown for error statuses and undecodable bodies.
func ServerErrorMessage(statusCode int) string {
	return fmt.Sprintf("Server error: %d", statusCode)
}

// ConnectionErrorMessage is shown when the API could not be reached.
func ConnectionErrorMessage(cause error) string {
	return "Connection error: " + cause.Error()
}

// State is the observable login state. Result and ErrorMessage are never
// both set once an attempt has settled.
type State struct {
	Phase        Phase
	IsLoading    bool
	Result       *domain.LoginOutcome
	ErrorMessage string // "" when there is no error to show
	Err          error  // classified cause of the last failure

	generation uint64
	inflight   bool // an attempt has been sent and not yet completed
}

// HasError reports whether an error message is pending.
func (s State) HasError() bool {
	return s.ErrorMessage != ""
}

// User returns the signed-in user after a successful attempt.
func (s State) User() (domain.UserRecord, bool) {
	if s.Phase != PhaseSucceeded || s.Result == nil || s.Result.User == nil {
		return domain.UserRecord{}, false
	}

	return *s.Result.User, true
}

func (s *State) fail(err error, message string) {
	s.Phase = PhaseFailed
	s.IsLoading = false
	s.Result = nil
	s.Err = err
	s.ErrorMessage = message
}

// settle applies the completion of an attempt.
func (s *State) settle(outcome domain.LoginOutcome, err error) {
	switch {
	case err != nil:
		s.fail(err, errorMessage(err))
	case !outcome.Success:
		message := outcome.Message
		if message == "" {
			message = ServerErrorMessage(outcome.StatusCode)
		}

		s.fail(fmt.Errorf("%w: %s", domain.ErrLoginRejected, message), message)
	case outcome.User == nil || !outcome.User.HasHandle():
		s.fail(domain.ErrInvalidUserData, MessageInvalidUserData)
	default:
		s.Phase = PhaseSucceeded
		s.IsLoading = false
		s.Result = &outcome
		s.Err = nil
		s.ErrorMessage = ""
	}
}

func errorMessage(err error) string {
	var (
		transportErr *domain.TransportError
		malformedErr *domain.MalformedResponseError
	)

	switch {
	case errors.Is(err, domain.ErrBlankCredentials):
		return MessageMissingFields
	case errors.As(err, &transportErr):
		if transportErr.Cause == nil {
			return ServerErrorMessage(transportErr.StatusCode)
		}

		return ConnectionErrorMessage(transportErr.Cause)
	case errors.Is(err, domain.ErrEmptyResponse):
		return MessageEmptyResponse
	case errors.As(err, &malformedErr):
		return ServerErrorMessage(malformedErr.StatusCode)
	default:
		return ConnectionErrorMessage(err)
	}
}
