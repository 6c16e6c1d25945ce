package authclient

import (
	"context"

	"github.com/mkrupp/affinity/internal/domain"
)

// AuthClient performs login round trips against the remote API.
type AuthClient interface {
	// Login posts the credentials once and decodes the response.
	// Returns *domain.TransportError for non-2xx statuses and connectivity
	// failures, and *domain.MalformedResponseError for undecodable bodies.
	Login(ctx context.Context, creds domain.Credentials) (domain.LoginOutcome, error)
}
