package authsvc_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/mkrupp/affinity/internal/domain"
	"github.com/mkrupp/affinity/internal/infra/logging"
	http_ "github.com/mkrupp/affinity/internal/infra/transport/http"
	"github.com/mkrupp/affinity/internal/repo/account"
	"github.com/mkrupp/affinity/internal/svc/authsvc"
	"github.com/mkrupp/affinity/internal/svc/authsvc/authclient"
	"github.com/mkrupp/affinity/internal/svc/loginsvc"
	"github.com/mkrupp/affinity/internal/viewmodel/login"
)

func newTestAPI(t *testing.T, userSchema string) *httptest.Server {
	t.Helper()

	repo, err := account.NewSQLiteAccountRepository(account.SQLiteAccountRepositoryConfig{
		DatabasePath: filepath.Join(t.TempDir(), "accounts.db"),
	})
	if err != nil {
		t.Fatalf("NewSQLiteAccountRepository() error = %v", err)
	}

	t.Cleanup(func() { _ = repo.Close() })

	svc, err := authsvc.NewAuthService(repo, authsvc.AuthConfig{
		UserSchema: userSchema,
		BcryptCost: bcrypt.MinCost,
		Redirect:   "perfil.php",
	})
	if err != nil {
		t.Fatalf("NewAuthService() error = %v", err)
	}

	srv := httptest.NewServer(http_.Wrap(authsvc.NewHTTPTransport(svc), logging.NewNopLogger()))
	t.Cleanup(srv.Close)

	return srv
}

func post(t *testing.T, url, body string) (int, map[string]any) {
	t.Helper()

	resp, err := http.Post(url, "application/json", strings.NewReader(body)) //nolint:noctx
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("response %q is not JSON: %v", data, err)
	}

	return resp.StatusCode, decoded
}

const aliceRegistration = `{"username": "alice", "email": "alice@example.com", "password": "s3cret", "nombre": "Alice", "apellido": "Liddell"}`

func TestHTTPTransport_Register(t *testing.T) {
	t.Parallel()

	srv := newTestAPI(t, "snake")

	status, body := post(t, srv.URL+"/register.php", aliceRegistration)
	if status != http.StatusCreated || body["success"] != true {
		t.Fatalf("register = %d %v", status, body)
	}

	status, body = post(t, srv.URL+"/register.php", aliceRegistration)
	if status != http.StatusConflict || body["success"] != false {
		t.Errorf("duplicate register = %d %v", status, body)
	}

	status, _ = post(t, srv.URL+"/register.php", `{"username": "bob"}`)
	if status != http.StatusBadRequest {
		t.Errorf("incomplete register status = %d", status)
	}

	status, _ = post(t, srv.URL+"/register.php", `{`)
	if status != http.StatusBadRequest {
		t.Errorf("malformed register status = %d", status)
	}
}

func TestHTTPTransport_Login(t *testing.T) {
	t.Parallel()

	srv := newTestAPI(t, "snake")
	post(t, srv.URL+"/register.php", aliceRegistration)

	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantSuccess bool
		wantMessage string
	}{
		{
			name:        "email key",
			body:        `{"email": "alice@example.com", "password": "s3cret"}`,
			wantStatus:  http.StatusOK,
			wantSuccess: true,
			wantMessage: authsvc.MessageLoginSuccessful,
		},
		{
			name:        "user key",
			body:        `{"user": "alice", "password": "s3cret"}`,
			wantStatus:  http.StatusOK,
			wantSuccess: true,
			wantMessage: authsvc.MessageLoginSuccessful,
		},
		{
			name:        "wrong password",
			body:        `{"email": "alice", "password": "nope"}`,
			wantStatus:  http.StatusOK,
			wantMessage: authsvc.MessageInvalidCredentials,
		},
		{
			name:        "blank fields",
			body:        `{"email": "", "password": ""}`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: authsvc.MessageMissingFields,
		},
		{
			name:        "malformed body",
			body:        `not json`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: authsvc.MessageInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			status, body := post(t, srv.URL+"/login.php", tt.body)

			if status != tt.wantStatus || body["success"] != tt.wantSuccess || body["message"] != tt.wantMessage {
				t.Errorf("login = %d %v", status, body)
			}

			if !tt.wantSuccess {
				if body["user"] != nil {
					t.Errorf("failed login carries user %v", body["user"])
				}

				return
			}

			user, _ := body["user"].(map[string]any)
			if user["username"] != "alice" || user["nombre_completo"] != "Alice Liddell" || body["redirect"] != "perfil.php" {
				t.Errorf("login body = %v", body)
			}
		})
	}
}

// The login screen state machine against a live backend, for both user key sets.
func TestHTTPTransport_LoginViewModel(t *testing.T) {
	t.Parallel()

	for _, schema := range []string{"snake", "capitalized"} {
		t.Run(schema, func(t *testing.T) {
			t.Parallel()

			srv := newTestAPI(t, schema)
			post(t, srv.URL+"/register.php", aliceRegistration)

			client, err := authclient.NewHTTPClient(authclient.HTTPClientConfig{
				BaseURL:       srv.URL,
				LoginPath:     "login.php",
				RequestSchema: "user",
			}, srv.Client())
			if err != nil {
				t.Fatalf("NewHTTPClient() error = %v", err)
			}

			vm := login.NewViewModel(loginsvc.NewLoginService(client))
			ctx := context.Background()

			vm.Login(ctx, "alice", "wrong")
			vm.Wait()

			if st := vm.State(); st.Phase != login.PhaseFailed || st.ErrorMessage != authsvc.MessageInvalidCredentials {
				t.Errorf("after bad login state = %+v", st)
			}

			vm.Login(ctx, "alice", "s3cret")
			vm.Wait()

			st := vm.State()

			user, ok := st.User()
			if st.Phase != login.PhaseSucceeded || !ok {
				t.Fatalf("after good login state = %+v", st)
			}

			want := domain.UserRecord{
				ID:          user.ID,
				Handle:      "alice",
				Email:       "alice@example.com",
				DisplayName: "Alice Liddell",
				GivenName:   "Alice",
				FamilyName:  "Liddell",
			}
			if user.ID == 0 || user != want {
				t.Errorf("user = %+v, want %+v", user, want)
			}

			if st.Result.Redirect != "perfil.php" {
				t.Errorf("redirect = %q", st.Result.Redirect)
			}
		})
	}
}
