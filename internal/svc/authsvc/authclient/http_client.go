package authclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/mkrupp/affinity/internal/domain"
	context_ "github.com/mkrupp/affinity/internal/infra/context"
	"github.com/mkrupp/affinity/internal/infra/logging"
	http_ "github.com/mkrupp/affinity/internal/infra/transport/http"
)

// HTTPClientConfig holds configuration for the HTTP login client.
type HTTPClientConfig struct {
	// BaseURL is the API root the endpoint paths are resolved against
	BaseURL string `env:"BASE_URL" default:"http://localhost:8080/"`

	// LoginPath is the login endpoint, relative to BaseURL
	LoginPath string `env:"LOGIN_PATH" default:"login.php"`

	// RequestSchema selects the identifier key of the request body ("email" or "user")
	RequestSchema string `env:"REQUEST_SCHEMA" default:"email"`
}

// HTTPClient implements AuthClient with a single JSON POST per login.
type HTTPClient struct {
	httpClient *http.Client
	log        logging.Logger
	loginURL   string
	schema     domain.RequestSchema
}

var _ AuthClient = (*HTTPClient)(nil)

// NewHTTPClient creates a new HTTPClient with the given configuration.
// If httpClient is nil, http.DefaultClient will be used.
func NewHTTPClient(cfg HTTPClientConfig, httpClient *http.Client) (*HTTPClient, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	loginURL, err := http_.ResolveURL(cfg.BaseURL, cfg.LoginPath)
	if err != nil {
		return nil, fmt.Errorf("resolve login url: %w", err)
	}

	schema, err := domain.ParseRequestSchema(cfg.RequestSchema)
	if err != nil {
		return nil, fmt.Errorf("parse request schema: %w", err)
	}

	return &HTTPClient{
		httpClient: httpClient,
		log:        logging.GetLogger("svc.authsvc.authclient.http_client"),
		loginURL:   loginURL,
		schema:     schema,
	}, nil
}

// Login implements AuthClient.Login.
func (hc *HTTPClient) Login(ctx context.Context, creds domain.Credentials) (outcome domain.LoginOutcome, err error) {
	ctx, traceID := context_.EnsureTraceID(ctx)

	log := hc.log.With(logging.Group("http", "method", http.MethodPost, "url", hc.loginURL))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "login failed", "error", err)
		} else {
			log.DebugContext(ctx, "login response",
				"status", outcome.StatusCode,
				"success", outcome.Success,
			)
		}
	}()

	body, err := domain.EncodeLoginRequest(creds, hc.schema)
	if err != nil {
		return domain.LoginOutcome{}, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, hc.loginURL, bytes.NewReader(body))
	if err != nil {
		return domain.LoginOutcome{}, fmt.Errorf("new request: %w", err)
	}

	req.Header.Set("Content-Type", http_.ContentTypeJSON)
	req.Header.Set("Accept", http_.ContentTypeJSON)
	req.Header.Set(http_.TraceIDHeader, traceID)

	log.DebugContext(ctx, "login request",
		"identifier", creds.Identifier,
		"password", logging.Secret(creds.Secret),
		"schema", string(hc.schema),
	)

	data, statusCode, err := Do(hc.httpClient, req)
	if err != nil {
		return domain.LoginOutcome{}, err
	}

	return DecodeLoginResponse(statusCode, data)
}

// DecodeLoginResponse classifies a login response: non-2xx statuses become
// *domain.TransportError regardless of the body, undecodable 2xx bodies
// become *domain.MalformedResponseError.
func DecodeLoginResponse(statusCode int, data []byte) (domain.LoginOutcome, error) {
	env, err := DecodeEnvelopeResponse(statusCode, data)
	if err != nil {
		return domain.LoginOutcome{}, err
	}

	return domain.NewLoginOutcome(env, statusCode), nil
}

// DecodeEnvelopeResponse applies the DecodeLoginResponse classification to any
// endpoint answering with the API envelope.
func DecodeEnvelopeResponse(statusCode int, data []byte) (domain.Envelope, error) {
	if statusCode < http.StatusOK || statusCode >= http.StatusMultipleChoices {
		return domain.Envelope{}, &domain.TransportError{StatusCode: statusCode}
	}

	env, err := domain.DecodeEnvelope(data)
	if err != nil {
		return domain.Envelope{}, &domain.MalformedResponseError{StatusCode: statusCode, Cause: err}
	}

	return env, nil
}

// Do sends req and reads the whole body. Connectivity and read failures are
// returned as *domain.TransportError.
func Do(httpClient *http.Client, req *http.Request) ([]byte, int, error) {
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, 0, &domain.TransportError{Cause: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, &domain.TransportError{StatusCode: resp.StatusCode, Cause: fmt.Errorf("read body: %w", err)}
	}

	return data, resp.StatusCode, nil
}
