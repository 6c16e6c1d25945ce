package profile_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/mkrupp/affinity/internal/domain"
	"github.com/mkrupp/affinity/internal/repo/profile"
)

func TestStubRepository(t *testing.T) {
	t.Parallel()

	repo, err := profile.StubRepositoryFactory()()
	if err != nil {
		t.Fatalf("factory error = %v", err)
	}

	ctx := context.Background()

	p, found, err := repo.GetProfile(ctx, "alice")
	if err != nil || !found {
		t.Fatalf("GetProfile() = %v, %v, %v", p, found, err)
	}

	if p.Handle != "alice" || p.Email != "alice@example.com" {
		t.Errorf("GetProfile() = %+v", p)
	}

	if msg, err := repo.UpdateProfile(ctx, *p, "pw"); err != nil || msg != profile.StubUpdatedMessage {
		t.Errorf("UpdateProfile() = %q, %v", msg, err)
	}

	if msg, err := repo.DeleteUser(ctx, p.ID); err != nil || msg != profile.StubDeletedMessage {
		t.Errorf("DeleteUser() = %q, %v", msg, err)
	}
}

type fakeBackend struct {
	mu sync.Mutex

	lastUpdate map[string]json.RawMessage
	lastDelete map[string]int64
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()

	fb := &fakeBackend{}
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/profile.php", func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("user") {
		case "alice":
			_, _ = io.WriteString(w, `{"success": true, "user": {"ID": "7", "User": "alice", "Email": "a@x", "Nombre": "Alice"}}`)
		case "broken":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			_, _ = io.WriteString(w, `{"success": false, "message": "User not found"}`)
		}
	})

	mux.HandleFunc("POST /api/update_profile.php", func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)

		var body map[string]json.RawMessage
		_ = json.Unmarshal(data, &body)

		fb.mu.Lock()
		fb.lastUpdate = body
		fb.mu.Unlock()

		var password string
		_ = json.Unmarshal(body["password"], &password)

		if password != "secret" {
			_, _ = io.WriteString(w, `{"success": false, "message": "Incorrect password"}`)

			return
		}

		_, _ = io.WriteString(w, `{"success": true, "message": "Profile updated"}`)
	})

	mux.HandleFunc("POST /api/delete_user.php", func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)

		var body map[string]int64
		_ = json.Unmarshal(data, &body)

		fb.mu.Lock()
		fb.lastDelete = body
		fb.mu.Unlock()

		_, _ = io.WriteString(w, `{"success": true, "message": "Account deleted"}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return fb, srv
}

func newHTTPRepository(t *testing.T, baseURL string) *profile.HTTPRepository {
	t.Helper()

	repo, err := profile.NewHTTPRepository(profile.HTTPRepositoryConfig{
		BaseURL:     baseURL,
		ProfilePath: "profile.php",
		UpdatePath:  "update_profile.php",
		DeletePath:  "delete_user.php",
		UserSchema:  "snake",
	}, nil)
	if err != nil {
		t.Fatalf("NewHTTPRepository() error = %v", err)
	}

	return repo
}

func TestHTTPRepository_GetProfile(t *testing.T) {
	t.Parallel()

	_, srv := newFakeBackend(t)
	repo := newHTTPRepository(t, srv.URL+"/api")
	ctx := context.Background()

	p, found, err := repo.GetProfile(ctx, "alice")
	if err != nil || !found {
		t.Fatalf("GetProfile(alice) = %v, %v, %v", p, found, err)
	}

	if p.ID != 7 || p.Handle != "alice" || p.GivenName != "Alice" {
		t.Errorf("GetProfile(alice) = %+v", p)
	}

	p, found, err = repo.GetProfile(ctx, "bob")
	if err != nil || found || p != nil {
		t.Errorf("GetProfile(bob) = %v, %v, %v, want not found", p, found, err)
	}

	_, _, err = repo.GetProfile(ctx, "broken")

	var transportErr *domain.TransportError
	if !errors.As(err, &transportErr) || transportErr.StatusCode != http.StatusInternalServerError {
		t.Errorf("GetProfile(broken) error = %v, want transport error 500", err)
	}
}

func TestHTTPRepository_UpdateProfile(t *testing.T) {
	t.Parallel()

	fb, srv := newFakeBackend(t)
	repo := newHTTPRepository(t, srv.URL+"/api")
	ctx := context.Background()

	p := domain.UserProfile{ID: 7, Handle: "alice", GivenName: "Alice", FamilyName: "Liddell"}

	msg, err := repo.UpdateProfile(ctx, p, "secret")
	if err != nil || msg != "Profile updated" {
		t.Fatalf("UpdateProfile() = %q, %v", msg, err)
	}

	fb.mu.Lock()
	sent := fb.lastUpdate["user"]
	fb.mu.Unlock()

	user, err := domain.DecodeUserRecord(sent)
	if err != nil {
		t.Fatalf("decode sent user: %v", err)
	}

	if user.ID != 7 || user.Handle != "alice" || user.DisplayName != "Alice Liddell" {
		t.Errorf("sent user = %+v", user)
	}

	_, err = repo.UpdateProfile(ctx, p, "wrong")

	var rejected *domain.RejectedError
	if !errors.As(err, &rejected) || rejected.Message != "Incorrect password" {
		t.Errorf("UpdateProfile(wrong) error = %v", err)
	}

	if !errors.Is(err, domain.ErrRequestRejected) {
		t.Errorf("UpdateProfile(wrong) error = %v, want ErrRequestRejected", err)
	}
}

func TestHTTPRepository_DeleteUser(t *testing.T) {
	t.Parallel()

	fb, srv := newFakeBackend(t)
	repo := newHTTPRepository(t, srv.URL+"/api")

	msg, err := repo.DeleteUser(context.Background(), 7)
	if err != nil || msg != "Account deleted" {
		t.Fatalf("DeleteUser() = %q, %v", msg, err)
	}

	fb.mu.Lock()
	defer fb.mu.Unlock()

	if fb.lastDelete["id"] != 7 {
		t.Errorf("sent body = %v", fb.lastDelete)
	}
}

func TestNewHTTPRepository_UnknownSchema(t *testing.T) {
	t.Parallel()

	_, err := profile.NewHTTPRepository(profile.HTTPRepositoryConfig{BaseURL: "http://x/", UserSchema: "camel"}, nil)
	if err == nil {
		t.Error("expected error, got nil")
	}
}
