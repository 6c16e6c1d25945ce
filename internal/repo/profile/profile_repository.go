package profile

import (
	"context"

	"github.com/mkrupp/affinity/internal/domain"
)

// Repository loads and changes the profile of the signed-in user.
type Repository interface {
	// GetProfile fetches the profile for a handle.
	// Returns the profile and true if found, or nil and false if not found.
	GetProfile(ctx context.Context, handle string) (*domain.UserProfile, bool, error)

	// UpdateProfile stores profile, authorized by the account secret.
	// Returns the confirmation message to show.
	UpdateProfile(ctx context.Context, profile domain.UserProfile, secret string) (string, error)

	// DeleteUser removes the account with the given id.
	// Returns the confirmation message to show.
	DeleteUser(ctx context.Context, id int64) (string, error)
}

// RepositoryFactory is a function that creates a new Repository instance.
type RepositoryFactory func() (Repository, error)
