package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidUserID is returned when the user id is neither a JSON integer nor a numeric string.
var ErrInvalidUserID = errors.New("invalid user id")

// UserKeySet names the JSON keys one backend revision uses for a user object.
type UserKeySet struct {
	Name        string
	ID          string
	Handle      string
	Email       string
	DisplayName string
	GivenName   string
	FamilyName  string
	Gender      string
	Location    string
	Photo       string
}

// Known key sets, in order of preference.
//
//nolint:gochecknoglobals
var (
	SnakeUserKeys = UserKeySet{
		Name:        "snake",
		ID:          "id",
		Handle:      "username",
		Email:       "email",
		DisplayName: "nombre_completo",
		GivenName:   "nombre",
		FamilyName:  "apellido",
		Gender:      "genero",
		Location:    "ubicacion",
		Photo:       "foto",
	}

	CapitalizedUserKeys = UserKeySet{
		Name:        "capitalized",
		ID:          "ID",
		Handle:      "User",
		Email:       "Email",
		DisplayName: "NombreCompleto",
		GivenName:   "Nombre",
		FamilyName:  "Apellido",
		Gender:      "genero",
		Location:    "ubicacion",
		Photo:       "foto",
	}

	UserKeySets = []UserKeySet{SnakeUserKeys, CapitalizedUserKeys}
)

// LookupUserKeySet returns the known key set with the given name.
func LookupUserKeySet(name string) (UserKeySet, bool) {
	for _, ks := range UserKeySets {
		if ks.Name == name {
			return ks, true
		}
	}

	return UserKeySet{}, false
}

type keyBinding struct {
	key string
	dst *string
}

func (ks UserKeySet) stringBindings(u *UserRecord) []keyBinding {
	return []keyBinding{
		{ks.Handle, &u.Handle},
		{ks.Email, &u.Email},
		{ks.DisplayName, &u.DisplayName},
		{ks.GivenName, &u.GivenName},
		{ks.FamilyName, &u.FamilyName},
		{ks.Gender, &u.Gender},
		{ks.Location, &u.Location},
		{ks.Photo, &u.Photo},
	}
}

func (ks UserKeySet) keys() []string {
	keys := []string{ks.ID}
	for _, b := range ks.stringBindings(new(UserRecord)) {
		keys = append(keys, b.key)
	}

	return keys
}

// matchUserKeySet picks the key set with the most keys present in obj.
// Ties go to the earlier set.
func matchUserKeySet(obj map[string]json.RawMessage) UserKeySet {
	best, bestHits := UserKeySets[0], -1

	for _, ks := range UserKeySets {
		hits := 0

		for _, key := range ks.keys() {
			if _, ok := obj[key]; ok {
				hits++
			}
		}

		if hits > bestHits {
			best, bestHits = ks, hits
		}
	}

	return best
}

// DecodeUserRecord decodes a user object written with any known key set.
func DecodeUserRecord(data []byte) (UserRecord, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return UserRecord{}, fmt.Errorf("unmarshal user: %w", err)
	}

	var (
		user UserRecord
		ks   = matchUserKeySet(obj)
	)

	if raw, ok := obj[ks.ID]; ok {
		id, err := decodeUserID(raw)
		if err != nil {
			return UserRecord{}, fmt.Errorf("decode %s: %w", ks.ID, err)
		}

		user.ID = id
	}

	for _, b := range ks.stringBindings(&user) {
		raw, ok := obj[b.key]
		if !ok {
			continue
		}

		var value *string
		if err := json.Unmarshal(raw, &value); err != nil {
			return UserRecord{}, fmt.Errorf("decode %s: %w", b.key, err)
		}

		if value != nil {
			*b.dst = *value
		}
	}

	return user, nil
}

// PHP backends emit ids as numbers or as numeric strings.
func decodeUserID(raw json.RawMessage) (int64, error) {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return 0, fmt.Errorf("unmarshal: %w", err)
	}

	switch v := value.(type) {
	case nil:
		return 0, nil
	case float64:
		if v != float64(int64(v)) {
			return 0, fmt.Errorf("%w: %v", ErrInvalidUserID, v)
		}

		return int64(v), nil
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidUserID, v)
		}

		return id, nil
	default:
		return 0, fmt.Errorf("%w: %v", ErrInvalidUserID, v)
	}
}

// EncodeUserRecord renders a user object with the given key set.
func EncodeUserRecord(user UserRecord, ks UserKeySet) map[string]any {
	obj := map[string]any{ks.ID: user.ID}

	for _, b := range ks.stringBindings(&user) {
		obj[b.key] = *b.dst
	}

	return obj
}
