package photo

import (
	"context"

	"github.com/mkrupp/affinity/internal/domain"
)

// Repository defines the interface for photo storage.
// Photos are addressed by ID and MIME type, which together form the photo name.
type Repository interface {
	// Lock acquires a lock on the photo with the given name.
	// If exclusive is true, acquires a write lock, otherwise a read lock.
	// Returns a function to release the lock.
	Lock(ctx context.Context, name string, exclusive bool) (func(), error)

	// Exists checks if a photo with the given name is stored.
	Exists(ctx context.Context, name string) bool

	// Store persists a photo. Storing an existing photo rewrites it.
	Store(ctx context.Context, photo domain.Photo) error

	// Fetch retrieves a photo by name.
	// Returns domain.ErrPhotoNotFound if there is none.
	Fetch(ctx context.Context, name string) (domain.Photo, error)

	// Delete removes a photo by name.
	// Returns domain.ErrPhotoNotFound if there is none.
	Delete(ctx context.Context, name string) error
}

// RepositoryFactory is a function that creates a new Repository instance.
type RepositoryFactory func(ctx context.Context) (Repository, error)
