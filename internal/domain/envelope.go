package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMissingSuccess is returned when a response body lacks the "success" flag.
var ErrMissingSuccess = errors.New("missing success flag")

// Envelope is the JSON body every backend endpoint answers with:
//
//	{"success": bool, "message": string, "user": {...} | null, "redirect": string | null}
type Envelope struct {
	Success  bool
	Message  string
	User     *UserRecord
	Redirect string
}

type envelopeWire struct {
	Success  *bool           `json:"success"`
	Message  *string         `json:"message"`
	User     json.RawMessage `json:"user"`
	Redirect *string         `json:"redirect"`
}

// DecodeEnvelope decodes a response body. Returns ErrEmptyResponse for a blank
// body and ErrMissingSuccess when the body is JSON but not an envelope.
func DecodeEnvelope(data []byte) (Envelope, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Envelope{}, ErrEmptyResponse
	}

	var wire envelopeWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return Envelope{}, fmt.Errorf("unmarshal envelope: %w", err)
	}

	if wire.Success == nil {
		return Envelope{}, ErrMissingSuccess
	}

	env := Envelope{Success: *wire.Success}

	if wire.Message != nil {
		env.Message = *wire.Message
	}

	if wire.Redirect != nil {
		env.Redirect = *wire.Redirect
	}

	if len(wire.User) > 0 && !bytes.Equal(bytes.TrimSpace(wire.User), []byte("null")) {
		user, err := DecodeUserRecord(wire.User)
		if err != nil {
			return Envelope{}, fmt.Errorf("decode user: %w", err)
		}

		env.User = &user
	}

	return env, nil
}

// EncodeEnvelope renders an envelope, writing the user with the given key set.
func EncodeEnvelope(env Envelope, ks UserKeySet) ([]byte, error) {
	wire := map[string]any{
		"success":  env.Success,
		"message":  env.Message,
		"user":     nil,
		"redirect": nil,
	}

	if env.User != nil {
		wire["user"] = EncodeUserRecord(*env.User, ks)
	}

	if env.Redirect != "" {
		wire["redirect"] = env.Redirect
	}

	data, err := json.Marshal(wire)
	if err != nil {
		return nil, fmt.Errorf("marshal envelope: %w", err)
	}

	return data, nil
}
