package profile

import (
	"context"

	"github.com/mkrupp/affinity/internal/domain"
)

// Confirmation messages returned by StubRepository.
const (
	StubUpdatedMessage = "Profile updated successfully."
	StubDeletedMessage = "Account deleted successfully."
)

// StubRepository synthesizes profiles without a backend. Used until the
// profile endpoints are deployed and in offline demos.
type StubRepository struct{}

var _ Repository = StubRepository{}

// StubRepositoryFactory returns a RepositoryFactory creating a StubRepository.
func StubRepositoryFactory() RepositoryFactory {
	return func() (Repository, error) {
		return StubRepository{}, nil
	}
}

// GetProfile implements Repository.GetProfile with placeholder data.
func (StubRepository) GetProfile(_ context.Context, handle string) (*domain.UserProfile, bool, error) {
	return &domain.UserProfile{
		ID:         1,
		Handle:     handle,
		Email:      handle + "@example.com",
		GivenName:  "Name",
		FamilyName: "Surname",
		Gender:     "Other",
		Location:   "Location",
		Photo:      "",
	}, true, nil
}

// UpdateProfile implements Repository.UpdateProfile.
func (StubRepository) UpdateProfile(context.Context, domain.UserProfile, string) (string, error) {
	return StubUpdatedMessage, nil
}

// DeleteUser implements Repository.DeleteUser.
func (StubRepository) DeleteUser(context.Context, int64) (string, error) {
	return StubDeletedMessage, nil
}
