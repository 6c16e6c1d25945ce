package domain_test

import (
	"errors"
	"testing"

	"github.com/mkrupp/affinity/internal/domain"
)

func TestDecodeUserRecord_KeySets(t *testing.T) {
	t.Parallel()

	want := domain.UserRecord{
		ID:          7,
		Handle:      "alice",
		Email:       "alice@example.com",
		DisplayName: "Alice Liddell",
		GivenName:   "Alice",
		FamilyName:  "Liddell",
		Gender:      "f",
		Location:    "Oxford",
		Photo:       "img/alice.png",
	}

	tests := []struct {
		name string
		body string
	}{
		{
			name: "snake keys",
			body: `{"id": 7, "username": "alice", "email": "alice@example.com",
				"nombre_completo": "Alice Liddell", "nombre": "Alice", "apellido": "Liddell",
				"genero": "f", "ubicacion": "Oxford", "foto": "img/alice.png"}`,
		},
		{
			name: "capitalized keys",
			body: `{"ID": 7, "User": "alice", "Email": "alice@example.com",
				"NombreCompleto": "Alice Liddell", "Nombre": "Alice", "Apellido": "Liddell",
				"genero": "f", "ubicacion": "Oxford", "foto": "img/alice.png"}`,
		},
		{
			name: "id as numeric string",
			body: `{"id": "7", "username": "alice", "email": "alice@example.com",
				"nombre_completo": "Alice Liddell", "nombre": "Alice", "apellido": "Liddell",
				"genero": "f", "ubicacion": "Oxford", "foto": "img/alice.png"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := domain.DecodeUserRecord([]byte(tt.body))
			if err != nil {
				t.Fatalf("DecodeUserRecord() error = %v", err)
			}

			if got != want {
				t.Errorf("DecodeUserRecord() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestDecodeUserRecord_OptionalFields(t *testing.T) {
	t.Parallel()

	got, err := domain.DecodeUserRecord([]byte(`{"ID": 3, "User": "bob", "Email": "bob@example.com", "foto": null}`))
	if err != nil {
		t.Fatalf("DecodeUserRecord() error = %v", err)
	}

	want := domain.UserRecord{ID: 3, Handle: "bob", Email: "bob@example.com"}
	if got != want {
		t.Errorf("DecodeUserRecord() = %+v, want %+v", got, want)
	}
}

func TestDecodeUserRecord_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		body    string
		wantErr error
	}{
		{name: "not an object", body: `[1,2]`},
		{name: "fractional id", body: `{"id": 1.5, "username": "x"}`, wantErr: domain.ErrInvalidUserID},
		{name: "non-numeric id", body: `{"id": "abc", "username": "x"}`, wantErr: domain.ErrInvalidUserID},
		{name: "handle is a number", body: `{"id": 1, "username": 5}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := domain.DecodeUserRecord([]byte(tt.body))
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("DecodeUserRecord() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestEncodeUserRecord(t *testing.T) {
	t.Parallel()

	user := domain.UserRecord{ID: 9, Handle: "carol", Email: "carol@example.com", Gender: "x"}

	for _, ks := range domain.UserKeySets {
		t.Run(ks.Name, func(t *testing.T) {
			t.Parallel()

			obj := domain.EncodeUserRecord(user, ks)

			if obj[ks.ID] != int64(9) {
				t.Errorf("%s = %v, want 9", ks.ID, obj[ks.ID])
			}

			if obj[ks.Handle] != "carol" {
				t.Errorf("%s = %v, want carol", ks.Handle, obj[ks.Handle])
			}

			if obj[ks.Location] != "" {
				t.Errorf("%s = %v, want empty", ks.Location, obj[ks.Location])
			}
		})
	}
}

func TestLookupUserKeySet(t *testing.T) {
	t.Parallel()

	if ks, ok := domain.LookupUserKeySet("capitalized"); !ok || ks.Handle != "User" {
		t.Errorf("LookupUserKeySet(capitalized) = %+v, %v", ks, ok)
	}

	if _, ok := domain.LookupUserKeySet("kebab"); ok {
		t.Error("LookupUserKeySet(kebab) found a key set")
	}
}
