package authsvc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/mkrupp/affinity/internal/domain"
	"github.com/mkrupp/affinity/internal/infra/logging"
	http_ "github.com/mkrupp/affinity/internal/infra/transport/http"
)

// Response messages.
const (
	MessageLoginSuccessful    = "Login successful"
	MessageInvalidCredentials = "Invalid username or password"
	MessageInvalidRequest     = "Invalid request"
	MessageMissingFields      = "Please fill in all fields"
	MessageRegistered         = "User registered successfully"
	MessageAccountExists      = "Username or email already registered"
	MessageInternalError      = "Internal server error"
)

// maxBodySize bounds request bodies.
const maxBodySize = 1 << 20

// HTTPTransportConfig contains configuration parameters for the HTTP transport layer.
type HTTPTransportConfig struct {
	http_.HTTPTransportConfig
}

// HTTPTransport serves the login and registration endpoints.
type HTTPTransport struct {
	authSvc *AuthService
	log     logging.Logger
	keys    domain.UserKeySet
	mux     *http.ServeMux
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport for authSvc.
func NewHTTPTransport(authSvc *AuthService) *HTTPTransport {
	ht := &HTTPTransport{
		authSvc: authSvc,
		log:     logging.GetLogger("svc.authsvc.http_transport"),
		keys:    authSvc.UserKeys(),
		mux:     http.NewServeMux(),
	}

	ht.Register(ht.mux)

	return ht
}

// Register adds the endpoints to mux:
// - POST /login.php: Login with {"email"|"user", "password"}
// - POST /register.php: Register a new account.
func (ht *HTTPTransport) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /login.php", ht.HandleLogin)
	mux.HandleFunc("POST /register.php", ht.HandleRegister)
}

// ServeHTTP implements http.Handler.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.mux.ServeHTTP(w, r)
}

// HandleLogin processes login requests. Bad credentials are answered with
// 200 and success=false, malformed bodies with 400.
func (ht *HTTPTransport) HandleLogin(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleLogin(w, r)
}

func (ht *HTTPTransport) handleLogin(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "user login failed", "error", err)
		} else {
			log.DebugContext(ctx, "user logged in")
		}
	}(r.Context())

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		_ = ht.writeEnvelope(w, http.StatusBadRequest, domain.Envelope{Message: MessageInvalidRequest})

		return fmt.Errorf("read body: %w", err)
	}

	creds, err := domain.DecodeLoginRequest(data)
	if err != nil {
		message := MessageInvalidRequest
		if errors.Is(err, domain.ErrBlankCredentials) {
			message = MessageMissingFields
		}

		_ = ht.writeEnvelope(w, http.StatusBadRequest, domain.Envelope{Message: message})

		return fmt.Errorf("decode request: %w", err)
	}

	log = log.With(logging.Group("user", "identifier", creds.Identifier))

	acc, err := ht.authSvc.Login(r.Context(), creds)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		return ht.writeEnvelope(w, http.StatusOK, domain.Envelope{Message: MessageInvalidCredentials})
	} else if err != nil {
		_ = ht.writeEnvelope(w, http.StatusInternalServerError, domain.Envelope{Message: MessageInternalError})

		return fmt.Errorf("login user: %w", err)
	}

	user := acc.Profile.UserRecord()

	return ht.writeEnvelope(w, http.StatusOK, domain.Envelope{
		Success:  true,
		Message:  MessageLoginSuccessful,
		User:     &user,
		Redirect: ht.authSvc.Config.Redirect,
	})
}

// HandleRegister processes account registration requests.
// Expects a JSON domain.Registration; answers 201 with the new user.
func (ht *HTTPTransport) HandleRegister(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleRegister(w, r)
}

func (ht *HTTPTransport) handleRegister(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "user register failed", "error", err)
		} else {
			log.DebugContext(ctx, "user registered")
		}
	}(r.Context())

	var reg domain.Registration
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&reg); err != nil {
		_ = ht.writeEnvelope(w, http.StatusBadRequest, domain.Envelope{Message: MessageInvalidRequest})

		return fmt.Errorf("decode request: %w", err)
	}

	log = log.With(logging.Group("user", "username", reg.Handle))

	profile, err := ht.authSvc.RegisterUser(r.Context(), reg)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidRegistration):
			_ = ht.writeEnvelope(w, http.StatusBadRequest, domain.Envelope{Message: MessageMissingFields})
		case errors.Is(err, domain.ErrAccountAlreadyExists):
			_ = ht.writeEnvelope(w, http.StatusConflict, domain.Envelope{Message: MessageAccountExists})
		default:
			_ = ht.writeEnvelope(w, http.StatusInternalServerError, domain.Envelope{Message: MessageInternalError})
		}

		return fmt.Errorf("register user: %w", err)
	}

	user := profile.UserRecord()

	return ht.writeEnvelope(w, http.StatusCreated, domain.Envelope{
		Success: true,
		Message: MessageRegistered,
		User:    &user,
	})
}

func (ht *HTTPTransport) writeEnvelope(w http.ResponseWriter, status int, env domain.Envelope) error {
	body, err := domain.EncodeEnvelope(env, ht.keys)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return fmt.Errorf("encode envelope: %w", err)
	}

	return http_.WriteJSON(w, status, body) //nolint:wrapcheck
}
