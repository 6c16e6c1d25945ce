package profilesvc

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mkrupp/affinity/internal/domain"
	"github.com/mkrupp/affinity/internal/infra/logging"
	"github.com/mkrupp/affinity/internal/repo/account"
)

// PasswordVerifier checks an account password. Implemented by authsvc.AuthService.
type PasswordVerifier interface {
	VerifyPassword(ctx context.Context, id int64, password string) error
}

// ProfileService reads and changes stored profiles.
type ProfileService struct {
	accounts account.Repository
	verifier PasswordVerifier
	log      logging.Logger
}

// NewProfileService creates a ProfileService. Updates are authorized through verifier.
func NewProfileService(accounts account.Repository, verifier PasswordVerifier) *ProfileService {
	return &ProfileService{
		accounts: accounts,
		verifier: verifier,
		log:      logging.GetLogger("svc.profilesvc.profile_service"),
	}
}

// GetProfile returns the profile with the given username.
// Returns domain.ErrProfileNotFound if there is none.
func (s *ProfileService) GetProfile(ctx context.Context, handle string) (*domain.UserProfile, error) {
	acc, found, err := s.accounts.GetAccountByIdentifier(ctx, strings.TrimSpace(handle))
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}

	// Identifier lookups also match emails; profiles are addressed by username only.
	if !found || acc.Profile.Handle != strings.TrimSpace(handle) {
		return nil, domain.ErrProfileNotFound
	}

	return &acc.Profile, nil
}

// UpdateProfile stores p after checking password against the account p.ID.
// Returns domain.ErrInvalidCredentials on a wrong password.
func (s *ProfileService) UpdateProfile(ctx context.Context, p domain.UserProfile, password string) (err error) {
	log := s.log.With(logging.Group("user", "id", p.ID, "username", p.Handle))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "update profile failed", "error", err)
		} else {
			log.DebugContext(ctx, "profile updated")
		}
	}()

	p.Handle = strings.TrimSpace(p.Handle)
	p.Email = strings.TrimSpace(p.Email)

	if p.Handle == "" || p.Email == "" {
		return fmt.Errorf("%w: username and email are required", domain.ErrInvalidUserData)
	}

	if err := s.verifier.VerifyPassword(ctx, p.ID, password); err != nil {
		return fmt.Errorf("verify password: %w", err)
	}

	if err := s.accounts.UpdateProfile(ctx, p); err != nil {
		return fmt.Errorf("update account: %w", err)
	}

	return nil
}

// DeleteAccount removes the account with the given id.
// Returns domain.ErrAccountNotFound if there is none.
func (s *ProfileService) DeleteAccount(ctx context.Context, id int64) (err error) {
	defer func() {
		if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
			s.log.ErrorContext(ctx, "delete account failed", "id", id, "error", err)
		}
	}()

	if err := s.accounts.DeleteAccount(ctx, id); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	s.log.InfoContext(ctx, "account deleted", "id", id)

	return nil
}
