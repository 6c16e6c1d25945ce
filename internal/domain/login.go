package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRequestSchema is returned for a request schema not in RequestSchemas.
var ErrUnknownRequestSchema = errors.New("unknown request schema")

// LoginOutcome is the result of one login attempt as reported by the backend.
// Success carries User; failure carries Message. Immutable after creation.
type LoginOutcome struct {
	Success    bool
	Message    string
	User       *UserRecord
	Redirect   string
	StatusCode int // HTTP status the outcome was received with
}

// NewLoginOutcome builds an outcome from a decoded envelope.
func NewLoginOutcome(env Envelope, statusCode int) LoginOutcome {
	return LoginOutcome{
		Success:    env.Success,
		Message:    env.Message,
		User:       env.User,
		Redirect:   env.Redirect,
		StatusCode: statusCode,
	}
}

// RequestSchema selects the JSON key carrying the identifier in a login request.
type RequestSchema string

const (
	// RequestSchemaEmail is the current schema: {"email": ..., "password": ...}.
	RequestSchemaEmail RequestSchema = "email"
	// RequestSchemaUser is the older schema: {"user": ..., "password": ...}.
	RequestSchemaUser RequestSchema = "user"
)

const passwordKey = "password"

// RequestSchemas maps each schema to its identifier key.
//
//nolint:gochecknoglobals
var RequestSchemas = map[RequestSchema]string{
	RequestSchemaEmail: "email",
	RequestSchemaUser:  "user",
}

// ParseRequestSchema validates a schema name.
func ParseRequestSchema(name string) (RequestSchema, error) {
	schema := RequestSchema(strings.ToLower(strings.TrimSpace(name)))
	if _, ok := RequestSchemas[schema]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownRequestSchema, name)
	}

	return schema, nil
}

// EncodeLoginRequest renders the login request body with exactly two fields.
func EncodeLoginRequest(creds Credentials, schema RequestSchema) ([]byte, error) {
	key, ok := RequestSchemas[schema]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRequestSchema, schema)
	}

	data, err := json.Marshal(map[string]string{
		key:         creds.Identifier,
		passwordKey: creds.Secret,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal login request: %w", err)
	}

	return data, nil
}

// DecodeLoginRequest accepts a login request written with any known schema.
func DecodeLoginRequest(data []byte) (Credentials, error) {
	var obj map[string]*string
	if err := json.Unmarshal(data, &obj); err != nil {
		return Credentials{}, fmt.Errorf("unmarshal login request: %w", err)
	}

	var identifier, secret string

	for _, schema := range []RequestSchema{RequestSchemaEmail, RequestSchemaUser} {
		if v := obj[RequestSchemas[schema]]; v != nil {
			identifier = *v

			break
		}
	}

	if v := obj[passwordKey]; v != nil {
		secret = *v
	}

	return NewCredentials(identifier, secret)
}
