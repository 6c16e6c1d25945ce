package photosvc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/mkrupp/affinity/internal/domain"
	"github.com/mkrupp/affinity/internal/infra/logging"
	http_ "github.com/mkrupp/affinity/internal/infra/transport/http"
)

// Response messages.
const (
	MessagePhotoUploaded     = "Photo uploaded successfully"
	MessageIncorrectPassword = "Incorrect password"
	MessageUserNotFound      = "User not found"
	MessageInvalidRequest    = "Invalid request"
	MessagePhotoTooLarge     = "Photo too large"
	MessageUnsupportedPhoto  = "Unsupported photo type"
	MessageInternalError     = "Internal server error"
)

// HTTPTransportConfig contains configuration parameters for the photo endpoints.
type HTTPTransportConfig struct {
	// MultipartFileName is the form field carrying the uploaded photo
	MultipartFileName string `env:"MULTIPART_FILE_NAME" default:"foto"`

	// MultipartFormMaxMemory is the part of a multipart form held in memory, in bytes
	MultipartFormMaxMemory int64 `env:"MULTIPART_FORM_MAX_MEMORY" default:"10485760"`
}

// HTTPTransport serves photo uploads and downloads.
type HTTPTransport struct {
	photoSvc *PhotoService
	log      logging.Logger
	keys     domain.UserKeySet
	cfg      HTTPTransportConfig
	mux      *http.ServeMux
}

var _ http_.HTTPTransport = (*HTTPTransport)(nil)

// NewHTTPTransport creates a new HTTPTransport rendering users with keys.
func NewHTTPTransport(photoSvc *PhotoService, keys domain.UserKeySet, cfg HTTPTransportConfig) *HTTPTransport {
	ht := &HTTPTransport{
		photoSvc: photoSvc,
		log:      logging.GetLogger("svc.photosvc.http_transport"),
		keys:     keys,
		cfg:      cfg,
		mux:      http.NewServeMux(),
	}

	ht.Register(ht.mux)

	return ht
}

// Register adds the endpoints to mux:
// - POST /upload_photo.php: multipart form with id, password and the photo file
// - GET /photos/{name}: Download a stored photo.
func (ht *HTTPTransport) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /upload_photo.php", ht.HandleUpload)
	mux.HandleFunc("GET /"+PhotoPathPrefix+"{name}", ht.HandleDownload)
}

// ServeHTTP implements http.Handler.
func (ht *HTTPTransport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ht.mux.ServeHTTP(w, r)
}

// HandleUpload stores the uploaded photo and answers with the updated user.
func (ht *HTTPTransport) HandleUpload(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleUpload(w, r)
}

//nolint:cyclop
func (ht *HTTPTransport) handleUpload(w http.ResponseWriter, r *http.Request) (err error) {
	log := ht.log.With(logging.Group("http", "method", r.Method, "url", r.URL.String()))

	defer func(ctx context.Context) {
		if err != nil {
			log.ErrorContext(ctx, "photo upload request failed", "error", err)
		}
	}(r.Context())

	// Allow for the form overhead on top of the photo itself.
	r.Body = http.MaxBytesReader(w, r.Body, ht.photoSvc.MaxSize()+1<<20)

	if err := r.ParseMultipartForm(ht.cfg.MultipartFormMaxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			_ = ht.writeEnvelope(w, http.StatusRequestEntityTooLarge, domain.Envelope{Message: MessagePhotoTooLarge})
		} else {
			_ = ht.writeEnvelope(w, http.StatusBadRequest, domain.Envelope{Message: MessageInvalidRequest})
		}

		return fmt.Errorf("parse multipart form: %w", err)
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	id, err := strconv.ParseInt(r.FormValue("id"), 10, 64)
	if err != nil || id <= 0 {
		_ = ht.writeEnvelope(w, http.StatusBadRequest, domain.Envelope{Message: MessageInvalidRequest})

		return fmt.Errorf("parse id: %w", errors.Join(domain.ErrInvalidUserID, err))
	}

	file, _, err := r.FormFile(ht.cfg.MultipartFileName)
	if err != nil {
		_ = ht.writeEnvelope(w, http.StatusBadRequest, domain.Envelope{Message: MessageInvalidRequest})

		return fmt.Errorf("form file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		_ = ht.writeEnvelope(w, http.StatusBadRequest, domain.Envelope{Message: MessageInvalidRequest})

		return fmt.Errorf("read file: %w", err)
	}

	profile, err := ht.photoSvc.Upload(r.Context(), id, r.FormValue("password"), data)

	switch {
	case err == nil:
		user := profile.UserRecord()

		return ht.writeEnvelope(w, http.StatusOK, domain.Envelope{Success: true, Message: MessagePhotoUploaded, User: &user})
	case errors.Is(err, domain.ErrInvalidCredentials):
		return ht.writeEnvelope(w, http.StatusOK, domain.Envelope{Message: MessageIncorrectPassword})
	case errors.Is(err, domain.ErrAccountNotFound):
		return ht.writeEnvelope(w, http.StatusOK, domain.Envelope{Message: MessageUserNotFound})
	case errors.Is(err, domain.ErrPhotoTooLarge):
		return ht.writeEnvelope(w, http.StatusRequestEntityTooLarge, domain.Envelope{Message: MessagePhotoTooLarge})
	case errors.Is(err, domain.ErrPhotoTypeNotSupported):
		return ht.writeEnvelope(w, http.StatusUnsupportedMediaType, domain.Envelope{Message: MessageUnsupportedPhoto})
	default:
		_ = ht.writeEnvelope(w, http.StatusInternalServerError, domain.Envelope{Message: MessageInternalError})

		return err
	}
}

// HandleDownload serves a stored photo. Photos never change under a name, so
// responses are cacheable indefinitely.
func (ht *HTTPTransport) HandleDownload(w http.ResponseWriter, r *http.Request) {
	_ = ht.handleDownload(w, r)
}

func (ht *HTTPTransport) handleDownload(w http.ResponseWriter, r *http.Request) (err error) {
	name := r.PathValue("name")

	defer func(ctx context.Context) {
		if err != nil {
			ht.log.ErrorContext(ctx, "photo download failed", "name", name, "error", err)
		}
	}(r.Context())

	p, err := ht.photoSvc.Fetch(r.Context(), name)
	if errors.Is(err, domain.ErrPhotoNotFound) || errors.Is(err, domain.ErrInvalidPhotoName) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)

		return nil
	} else if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return err
	}

	w.Header().Set("Content-Type", p.MIMEType)
	w.Header().Set("Content-Length", strconv.Itoa(len(p.Data)))
	w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
	w.Header().Set("ETag", `"`+string(p.ID)+`"`)

	if _, err := w.Write(p.Data); err != nil {
		return fmt.Errorf("write: %w", err)
	}

	return nil
}

func (ht *HTTPTransport) writeEnvelope(w http.ResponseWriter, status int, env domain.Envelope) error {
	body, err := domain.EncodeEnvelope(env, ht.keys)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)

		return fmt.Errorf("encode envelope: %w", err)
	}

	return http_.WriteJSON(w, status, body) //nolint:wrapcheck
}
