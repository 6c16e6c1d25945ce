package profile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mkrupp/affinity/internal/domain"
	context_ "github.com/mkrupp/affinity/internal/infra/context"
	"github.com/mkrupp/affinity/internal/infra/logging"
	http_ "github.com/mkrupp/affinity/internal/infra/transport/http"
	"github.com/mkrupp/affinity/internal/svc/authsvc/authclient"
)

// HTTPRepositoryConfig holds configuration for the HTTP profile repository.
type HTTPRepositoryConfig struct {
	// BaseURL is the API root the endpoint paths are resolved against
	BaseURL string `env:"BASE_URL" default:"http://localhost:8080/"`

	ProfilePath string `env:"PROFILE_PATH" default:"profile.php"`
	UpdatePath  string `env:"UPDATE_PATH" default:"update_profile.php"`
	DeletePath  string `env:"DELETE_PATH" default:"delete_user.php"`

	// UserSchema selects the key set used for user objects sent to the backend
	UserSchema string `env:"USER_SCHEMA" default:"snake"`
}

// HTTPRepository implements Repository against the profile endpoints of the API.
type HTTPRepository struct {
	httpClient *http.Client
	log        logging.Logger
	profileURL string
	updateURL  string
	deleteURL  string
	keys       domain.UserKeySet
}

var _ Repository = (*HTTPRepository)(nil)

// HTTPRepositoryFactory returns a RepositoryFactory creating an HTTPRepository.
func HTTPRepositoryFactory(cfg HTTPRepositoryConfig, httpClient *http.Client) RepositoryFactory {
	return func() (Repository, error) {
		return NewHTTPRepository(cfg, httpClient)
	}
}

// NewHTTPRepository creates a new HTTPRepository with the given configuration.
// If httpClient is nil, http.DefaultClient will be used.
func NewHTTPRepository(cfg HTTPRepositoryConfig, httpClient *http.Client) (*HTTPRepository, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	keys, ok := domain.LookupUserKeySet(cfg.UserSchema)
	if !ok {
		return nil, fmt.Errorf("unknown user schema %q", cfg.UserSchema)
	}

	repo := &HTTPRepository{
		httpClient: httpClient,
		log:        logging.GetLogger("repo.profile.http"),
		keys:       keys,
	}

	for _, ep := range []struct {
		dst  *string
		path string
	}{
		{&repo.profileURL, cfg.ProfilePath},
		{&repo.updateURL, cfg.UpdatePath},
		{&repo.deleteURL, cfg.DeletePath},
	} {
		u, err := http_.ResolveURL(cfg.BaseURL, ep.path)
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", ep.path, err)
		}

		*ep.dst = u
	}

	return repo, nil
}

// GetProfile implements Repository.GetProfile. An answer with success=false
// is reported as not found.
func (r *HTTPRepository) GetProfile(ctx context.Context, handle string) (*domain.UserProfile, bool, error) {
	u, err := url.Parse(r.profileURL)
	if err != nil {
		return nil, false, fmt.Errorf("parse profile url: %w", err)
	}

	q := u.Query()
	q.Set("user", handle)
	u.RawQuery = q.Encode()

	env, err := r.send(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, false, err
	}

	if !env.Success || env.User == nil {
		return nil, false, nil
	}

	profile := domain.ProfileFromUserRecord(*env.User)

	return &profile, true, nil
}

// UpdateProfile implements Repository.UpdateProfile.
func (r *HTTPRepository) UpdateProfile(ctx context.Context, profile domain.UserProfile, secret string) (string, error) {
	body, err := json.Marshal(map[string]any{
		"user":     domain.EncodeUserRecord(profile.UserRecord(), r.keys),
		"password": secret,
	})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	return r.command(ctx, r.updateURL, body)
}

// DeleteUser implements Repository.DeleteUser.
func (r *HTTPRepository) DeleteUser(ctx context.Context, id int64) (string, error) {
	body, err := json.Marshal(map[string]int64{"id": id})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	return r.command(ctx, r.deleteURL, body)
}

func (r *HTTPRepository) command(ctx context.Context, target string, body []byte) (string, error) {
	env, err := r.send(ctx, http.MethodPost, target, body)
	if err != nil {
		return "", err
	}

	if !env.Success {
		return "", &domain.RejectedError{Message: env.Message}
	}

	return env.Message, nil
}

func (r *HTTPRepository) send(ctx context.Context, method, target string, body []byte) (env domain.Envelope, err error) {
	ctx, traceID := context_.EnsureTraceID(ctx)

	log := r.log.With(logging.Group("http", "method", method, "url", target))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "profile request failed", "error", err)
		} else {
			log.DebugContext(ctx, "profile response", "success", env.Success)
		}
	}()

	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return domain.Envelope{}, fmt.Errorf("new request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", http_.ContentTypeJSON)
	}

	req.Header.Set("Accept", http_.ContentTypeJSON)
	req.Header.Set(http_.TraceIDHeader, traceID)

	data, statusCode, err := authclient.Do(r.httpClient, req)
	if err != nil {
		return domain.Envelope{}, err
	}

	return authclient.DecodeEnvelopeResponse(statusCode, data)
}
