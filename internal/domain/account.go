package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAccountAlreadyExists is returned when registering a taken username or email.
	ErrAccountAlreadyExists = errors.New("account already exists")
	// ErrAccountNotFound is returned when looking up a non-existent account.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidCredentials is returned when the identifier/password combination is incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrProfileNotFound is returned when no profile exists for a handle.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrInvalidRegistration is returned when a registration lacks a username, email or password.
	ErrInvalidRegistration = errors.New("invalid registration")
)

// Account is a user as stored by the backend.
type Account struct {
	Profile      UserProfile
	PasswordHash []byte // bcrypt hash
	CreatedAt    int64  // Unix timestamp of account creation
}

// Registration holds the values needed to create an account.
// Handle, Email and Password are required.
type Registration struct {
	Handle     string `json:"username"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	GivenName  string `json:"nombre"`
	FamilyName string `json:"apellido"`
	Gender     string `json:"genero"`
	Location   string `json:"ubicacion"`
	Photo      string `json:"foto"`
}

// Validate trims the required fields and reports ErrInvalidRegistration if one is blank.
func (r *Registration) Validate() error {
	r.Handle = strings.TrimSpace(r.Handle)
	r.Email = strings.TrimSpace(r.Email)

	switch {
	case r.Handle == "":
		return fmt.Errorf("%w: missing username", ErrInvalidRegistration)
	case r.Email == "":
		return fmt.Errorf("%w: missing email", ErrInvalidRegistration)
	case strings.TrimSpace(r.Password) == "":
		return fmt.Errorf("%w: missing password", ErrInvalidRegistration)
	}

	return nil
}

// Profile returns the profile part of the registration.
func (r Registration) Profile() UserProfile {
	return UserProfile{
		Handle:     r.Handle,
		Email:      r.Email,
		GivenName:  r.GivenName,
		FamilyName: r.FamilyName,
		Gender:     r.Gender,
		Location:   r.Location,
		Photo:      r.Photo,
	}
}
