package profilesvc

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
	MessageUserNotFound      = "User not found"
	MessageIncorrectPassword = "Incorrect password"
	MessageInvalidRequest    = "Invalid request"
	MessageInvalidUserData   = "Username and email are required"
	MessageAccountExists     = "Username or email already registered"
	MessageProfileUpdated    = "Profile updated successfully"
	MessageAccountDeleted    = "Account deleted successfully"
	MessageInternalError     = "Internal server error"
)

const maxBodySize = 1 << 20

// HTTPTransport serves the profile endpoints.
type HTTPTransport struct {
	profileSvc *ProfileService
	log        logging.Logger
	keys       domain.UserKeySet
	mux        *http.ServeMux
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport rendering users with keys.
func NewHTTPTransport(profileSvc *ProfileService, keys domain.UserKeySet) *HTTPTransport {
	ht := &HTTPTransport{
		profileSvc: profileSvc,
		log:        logging.GetLogger("svc.profilesvc.http_transport"),
		keys:       keys,
		mux:        http.NewServeMux(),
	}

	ht.Register(ht.mux)

	return ht
}

// Register adds the endpoints to mux:
// - GET /profile.php?user=: Fetch a profile
// - POST /update_profile.php: Update a profile, authorized by the account password
// - POST /delete_user.php: Delete an account.
func (ht *HTTPTransport) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /profile.php", ht.HandleGetProfile)
	mux.HandleFunc("POST /update_profile.php", ht.HandleUpdateProfile)
	mux.HandleFunc("POST /delete_user.php", ht.HandleDeleteUser)
}

// ServeHTTP implements http.Handler.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.mux.ServeHTTP(w, r)
}

// HandleGetProfile answers with the profile of the "user" query parameter.
func (ht *HTTPTransport) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleGetProfile(w, r)
}

func (ht *HTTPTransport) handleGetProfile(w http.ResponseWriter, r *http.Request) (err error) {
	handle := r.URL.Query().Get("user")
	log := ht.log.With(logging.Group("user", "username", handle))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "get profile failed", "error", err)
		}
	}(r.Context())

	if handle == "" {
		return ht.writeEnvelope(w, http.StatusBadRequest, domain.Envelope{Message: MessageInvalidRequest})
	}

	profile, err := ht.profileSvc.GetProfile(r.Context(), handle)
	if errors.Is(err, domain.ErrProfileNotFound) {
		return ht.writeEnvelope(w, http.StatusOK, domain.Envelope{Message: MessageUserNotFound})
	} else if err != nil {
		_ = ht.writeEnvelope(w, http.StatusInternalServerError, domain.Envelope{Message: MessageInternalError})

		return err
	}

	user := profile.UserRecord()

	return ht.writeEnvelope(w, http.StatusOK, domain.Envelope{Success: true, User: &user})
}

type updateRequest struct {
	User     json.RawMessage `json:"user"`
	Password string          `json:"password"`
}

// HandleUpdateProfile processes {"user": {...}, "password": "..."} bodies.
// Rejections are answered with 200 and success=false.
func (ht *HTTPTransport) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleUpdateProfile(w, r)
}

func (ht *HTTPTransport) handleUpdateProfile(w http.ResponseWriter, r *http.Request) (err error) {
	defer func(ctx context.Context) {
		if err != nil {
			ht.log.ErrorContext(ctx, "update profile request failed", "error", err)
		}
	}(r.Context())

	var req updateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		_ = ht.writeEnvelope(w, http.StatusBadRequest, domain.Envelope{Message: MessageInvalidRequest})

		return fmt.Errorf("decode request: %w", err)
	}

	user, err := domain.DecodeUserRecord(req.User)
	if err != nil {
		_ = ht.writeEnvelope(w, http.StatusBadRequest, domain.Envelope{Message: MessageInvalidRequest})

		return fmt.Errorf("decode user: %w", err)
	}

	err = ht.profileSvc.UpdateProfile(r.Context(), domain.ProfileFromUserRecord(user), req.Password)

	switch {
	case err == nil:
		return ht.writeEnvelope(w, http.StatusOK, domain.Envelope{Success: true, Message: MessageProfileUpdated})
	case errors.Is(err, domain.ErrInvalidCredentials):
		return ht.writeEnvelope(w, http.StatusOK, domain.Envelope{Message: MessageIncorrectPassword})
	case errors.Is(err, domain.ErrAccountNotFound):
		return ht.writeEnvelope(w, http.StatusOK, domain.Envelope{Message: MessageUserNotFound})
	case errors.Is(err, domain.ErrInvalidUserData):
		return ht.writeEnvelope(w, http.StatusOK, domain.Envelope{Message: MessageInvalidUserData})
	case errors.Is(err, domain.ErrAccountAlreadyExists):
		return ht.writeEnvelope(w, http.StatusOK, domain.Envelope{Message: MessageAccountExists})
	default:
		_ = ht.writeEnvelope(w, http.StatusInternalServerError, domain.Envelope{Message: MessageInternalError})

		return err
	}
}

type deleteRequest struct {
	ID int64 `json:"id"`
}

// HandleDeleteUser processes {"id": n} bodies.
func (ht *HTTPTransport) HandleDeleteUser(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleDeleteUser(w, r)
}

func (ht *HTTPTransport) handleDeleteUser(w http.ResponseWriter, r *http.Request) (err error) {
	defer func(ctx context.Context) {
		if err != nil {
			ht.log.ErrorContext(ctx, "delete user request failed", "error", err)
		}
	}(r.Context())

	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		_ = ht.writeEnvelope(w, http.StatusBadRequest, domain.Envelope{Message: MessageInvalidRequest})

		return fmt.Errorf("read body: %w", err)
	}

	var req deleteRequest
	if err := json.Unmarshal(data, &req); err != nil || req.ID <= 0 {
		_ = ht.writeEnvelope(w, http.StatusBadRequest, domain.Envelope{Message: MessageInvalidRequest})

		return fmt.Errorf("decode request: %w", errors.Join(domain.ErrInvalidUserID, err))
	}

	err = ht.profileSvc.DeleteAccount(r.Context(), req.ID)
	if errors.Is(err, domain.ErrAccountNotFound) {
		return ht.writeEnvelope(w, http.StatusOK, domain.Envelope{Message: MessageUserNotFound})
	} else if err != nil {
		_ = ht.writeEnvelope(w, http.StatusInternalServerError, domain.Envelope{Message: MessageInternalError})

		return err
	}

	return ht.writeEnvelope(w, http.StatusOK, domain.Envelope{Success: true, Message: MessageAccountDeleted})
}

func (ht *HTTPTransport) writeEnvelope(w http.ResponseWriter, status int, env domain.Envelope) error {
	body, err := domain.EncodeEnvelope(env, ht.keys)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return fmt.Errorf("encode envelope: %w", err)
	}

	return http_.WriteJSON(w, status, body) //nolint:wrapcheck
}
