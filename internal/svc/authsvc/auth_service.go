package authsvc

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mkrupp/affinity/internal/domain"
	"github.com/mkrupp/affinity/internal/infra/logging"
	"github.com/mkrupp/affinity/internal/repo/account"
)

// AuthConfig contains configuration parameters for the authentication service.
type AuthConfig struct {
	// UserSchema selects the key set of user objects in responses ("snake" or "capitalized")
	UserSchema string `env:"USER_SCHEMA" default:"snake"`

	// BcryptCost is the work factor of stored password hashes
	BcryptCost int `env:"BCRYPT_COST" default:"10"`

	// Redirect is returned to clients after a successful login
	Redirect string `env:"REDIRECT" default:"perfil.php"`
}

// AuthService provides account registration and password login.
type AuthService struct {
	Config   AuthConfig
	Accounts account.Repository
	Log      logging.Logger
}

// NewAuthService creates a new AuthService backed by accounts.
// Returns an error if the configuration is invalid.
func NewAuthService(accounts account.Repository, cfg AuthConfig) (*AuthService, error) {
	if _, ok := domain.LookupUserKeySet(cfg.UserSchema); !ok {
		return nil, fmt.Errorf("unknown user schema %q", cfg.UserSchema)
	}

	if cfg.BcryptCost < bcrypt.MinCost || cfg.BcryptCost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost %d out of range", cfg.BcryptCost)
	}

	return &AuthService{
		Config:   cfg,
		Accounts: accounts,
		Log:      logging.GetLogger("svc.authsvc.auth_service"),
	}, nil
}

// RegisterUser creates a new account. The password is hashed before storage.
// Returns domain.ErrInvalidRegistration for missing fields and
// domain.ErrAccountAlreadyExists if the username or email is taken.
func (s *AuthService) RegisterUser(ctx context.Context, reg domain.Registration) (_ domain.UserProfile, err error) {
	log := s.Log.With(logging.Group("user", "username", reg.Handle))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "register user failed", "error", err)
		} else {
			log.DebugContext(ctx, "user registered")
		}
	}()

	if err := reg.Validate(); err != nil {
		return domain.UserProfile{}, err
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(reg.Password), s.Config.BcryptCost)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("hash password: %w", err)
	}

	profile := reg.Profile()

	profile.ID, err = s.Accounts.CreateAccount(ctx, profile, passwordHash)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("create account: %w", err)
	}

	return profile, nil
}

// Login authenticates by username or email.
// Returns domain.ErrInvalidCredentials if the account is unknown or the password does not match.
func (s *AuthService) Login(ctx context.Context, creds domain.Credentials) (_ *domain.Account, err error) {
	log := s.Log.With(logging.Group("user", "identifier", creds.Identifier))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "login failed", "error", err)
		} else {
			log.DebugContext(ctx, "login successful")
		}
	}()

	acc, found, err := s.Accounts.GetAccountByIdentifier(ctx, creds.Identifier)
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	} else if !found {
		return nil, domain.ErrInvalidCredentials
	}

	if err := checkPassword(acc, creds.Secret); err != nil {
		return nil, err
	}

	return acc, nil
}

// VerifyPassword checks password against the account with the given id.
// Returns domain.ErrAccountNotFound or domain.ErrInvalidCredentials on mismatch.
func (s *AuthService) VerifyPassword(ctx context.Context, id int64, password string) error {
	acc, found, err := s.Accounts.GetAccountByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	} else if !found {
		return domain.ErrAccountNotFound
	}

	return checkPassword(acc, password)
}

func checkPassword(acc *domain.Account, password string) error {
	err := bcrypt.CompareHashAndPassword(acc.PasswordHash, []byte(password))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return domain.ErrInvalidCredentials
	} else if err != nil {
		return fmt.Errorf("compare password: %w", err)
	}

	return nil
}

// UserKeys returns the key set user objects are rendered with.
func (s *AuthService) UserKeys() domain.UserKeySet {
	ks, _ := domain.LookupUserKeySet(s.Config.UserSchema)

	return ks
}
