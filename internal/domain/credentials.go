package domain

import "strings"

// Credentials carries the values submitted on a login attempt.
// They are never persisted.
type Credentials struct {
	Identifier string // Username or email
	Secret     string // Password
}

// NewCredentials trims the identifier and returns ErrBlankCredentials if either
// value is blank.
func NewCredentials(identifier, secret string) (Credentials, error) {
	identifier = strings.TrimSpace(identifier)

	if identifier == "" || strings.TrimSpace(secret) == "" {
		return Credentials{}, ErrBlankCredentials
	}

	return Credentials{Identifier: identifier, Secret: secret}, nil
}
