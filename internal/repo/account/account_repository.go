package account

import (
	"context"

	"github.com/mkrupp/affinity/internal/domain"
)

// Repository defines the interface for account persistence.
type Repository interface {
	// CreateAccount stores a new account and returns its id.
	// Returns ErrAccountAlreadyExists if the username or email is taken.
	CreateAccount(ctx context.Context, profile domain.UserProfile, passwordHash []byte) (int64, error)

	// GetAccountByIdentifier retrieves an account by username or email.
	// Returns the account and true if found, or nil and false if not found.
	GetAccountByIdentifier(ctx context.Context, identifier string) (*domain.Account, bool, error)

	// GetAccountByID retrieves an account by id.
	GetAccountByID(ctx context.Context, id int64) (*domain.Account, bool, error)

	// UpdateProfile overwrites the profile columns of the account with profile.ID.
	// Returns ErrAccountNotFound if no such account exists.
	UpdateProfile(ctx context.Context, profile domain.UserProfile) error

	// DeleteAccount removes the account with the given id.
	// Returns ErrAccountNotFound if no such account exists.
	DeleteAccount(ctx context.Context, id int64) error

	// Close releases any resources held by the repository.
	Close() error
}

// RepositoryFactory is a function that creates a new Repository instance.
// Returns an error if initialization fails.
type RepositoryFactory func() (Repository, error)
