// Package loginsvc decouples login callers from the transport that reaches the API.
package loginsvc

import (
	"context"
	"fmt"

	"github.com/mkrupp/affinity/internal/domain"
	"github.com/mkrupp/affinity/internal/infra/logging"
	"github.com/mkrupp/affinity/internal/svc/authsvc/authclient"
)

// LoginService builds credentials and hands them to the API client.
// It adds no retry, backoff or rate limiting.
type LoginService struct {
	client authclient.AuthClient
	log    logging.Logger
}

// NewLoginService creates a LoginService delegating to client.
func NewLoginService(client authclient.AuthClient) *LoginService {
	return &LoginService{
		client: client,
		log:    logging.GetLogger("svc.loginsvc"),
	}
}

// Login submits one login attempt. Blank credentials fail with
// domain.ErrBlankCredentials before reaching the client.
func (s *LoginService) Login(ctx context.Context, identifier, secret string) (outcome domain.LoginOutcome, err error) {
	log := s.log.With(logging.Group("user", "identifier", identifier))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "login failed", "error", err)
		} else {
			log.DebugContext(ctx, "login settled", "success", outcome.Success)
		}
	}()

	creds, err := domain.NewCredentials(identifier, secret)
	if err != nil {
		return domain.LoginOutcome{}, fmt.Errorf("new credentials: %w", err)
	}

	outcome, err = s.client.Login(ctx, creds)
	if err != nil {
		return domain.LoginOutcome{}, fmt.Errorf("login: %w", err)
	}

	return outcome, nil
}
