package config_test

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/mkrupp/affinity/internal/infra/config"
)

type clientConfig struct {
	EnvConfig

	BaseURL       string        `env:"BASE_URL" default:"http://localhost:8080/"`
	RequestSchema string        `env:"REQUEST_SCHEMA" default:"email"`
	Retries       int           `env:"RETRIES" default:"0"`
	Verbose       bool          `env:"VERBOSE" default:"false"`
	Timeout       time.Duration `env:"TIMEOUT" default:"15s"`
	Label         string

	Profile profileBackendConfig `envPrefix:"PROFILE_"`
}

type profileBackendConfig struct {
	Backend     string `env:"BACKEND" default:"stub"`
	ProfilePath string `env:"PROFILE_PATH" default:"profile.php"`
}

func defaultClientConfig() clientConfig {
	return clientConfig{
		BaseURL:       "http://localhost:8080/",
		RequestSchema: "email",
		Timeout:       15 * time.Second,
		Profile: profileBackendConfig{
			Backend:     "stub",
			ProfilePath: "profile.php",
		},
	}
}

func assertClientConfig(t *testing.T, got, want clientConfig) {
	t.Helper()

	if got.BaseURL != want.BaseURL {
		t.Errorf("BaseURL = %q, want %q", got.BaseURL, want.BaseURL)
	}
	if got.RequestSchema != want.RequestSchema {
		t.Errorf("RequestSchema = %q, want %q", got.RequestSchema, want.RequestSchema)
	}
	if got.Retries != want.Retries {
		t.Errorf("Retries = %d, want %d", got.Retries, want.Retries)
	}
	if got.Verbose != want.Verbose {
		t.Errorf("Verbose = %v, want %v", got.Verbose, want.Verbose)
	}
	if got.Timeout != want.Timeout {
		t.Errorf("Timeout = %v, want %v", got.Timeout, want.Timeout)
	}
	if got.Label != want.Label {
		t.Errorf("Label = %q, want %q", got.Label, want.Label)
	}
	if got.Profile != want.Profile {
		t.Errorf("Profile = %+v, want %+v", got.Profile, want.Profile)
	}
}

//nolint:paralleltest
func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		namespace string
		env       map[string]string
		want      func(*clientConfig)
		wantErr   bool
	}{
		{
			name:      "defaults",
			namespace: "AFFINITY_CLIENT",
			want:      func(*clientConfig) {},
		},
		{
			name:      "namespaced values",
			namespace: "AFFINITY_CLIENT",
			env: map[string]string{
				"AFFINITY_CLIENT_BASE_URL":             "https://api.example.com/",
				"AFFINITY_CLIENT_REQUEST_SCHEMA":       "user",
				"AFFINITY_CLIENT_RETRIES":              "2",
				"AFFINITY_CLIENT_VERBOSE":              "true",
				"AFFINITY_CLIENT_TIMEOUT":              "250ms",
				"AFFINITY_CLIENT_PROFILE_BACKEND":      "http",
				"AFFINITY_CLIENT_PROFILE_PROFILE_PATH": "api/profile",
			},
			want: func(c *clientConfig) {
				c.BaseURL = "https://api.example.com/"
				c.RequestSchema = "user"
				c.Retries = 2
				c.Verbose = true
				c.Timeout = 250 * time.Millisecond
				c.Profile.Backend = "http"
				c.Profile.ProfilePath = "api/profile"
			},
		},
		{
			name:      "falls back to shorter namespace",
			namespace: "AFFINITY_CLIENT",
			env: map[string]string{
				"AFFINITY_BASE_URL":        "http://shared/",
				"AFFINITY_PROFILE_BACKEND": "http",
			},
			want: func(c *clientConfig) {
				c.BaseURL = "http://shared/"
				c.Profile.Backend = "http"
			},
		},
		{
			name:      "most specific namespace wins",
			namespace: "AFFINITY_CLIENT",
			env: map[string]string{
				"AFFINITY_BASE_URL":        "http://shared/",
				"AFFINITY_CLIENT_BASE_URL": "http://client/",
			},
			want: func(c *clientConfig) {
				c.BaseURL = "http://client/"
			},
		},
		{
			name: "empty namespace reads bare names",
			env: map[string]string{
				"BASE_URL": "http://bare/",
			},
			want: func(c *clientConfig) {
				c.BaseURL = "http://bare/"
			},
		},
		{
			name:      "empty value overrides default",
			namespace: "AFFINITY",
			env: map[string]string{
				"AFFINITY_REQUEST_SCHEMA": "",
			},
			want: func(c *clientConfig) {
				c.RequestSchema = ""
			},
		},
		{
			name:      "invalid int",
			namespace: "AFFINITY",
			env:       map[string]string{"AFFINITY_RETRIES": "many"},
			wantErr:   true,
		},
		{
			name:      "invalid bool",
			namespace: "AFFINITY",
			env:       map[string]string{"AFFINITY_VERBOSE": "sometimes"},
			wantErr:   true,
		},
		{
			name:      "invalid duration",
			namespace: "AFFINITY",
			env:       map[string]string{"AFFINITY_TIMEOUT": "15"},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			var cfg clientConfig

			err := Parse(context.Background(), &cfg, tt.namespace)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}

			if tt.wantErr {
				return
			}

			want := defaultClientConfig()
			tt.want(&want)
			assertClientConfig(t, cfg, want)
		})
	}
}

func TestParseInvalidConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		cfg  any
	}{
		{name: "struct value", cfg: clientConfig{}},
		{name: "pointer to string", cfg: new(string)},
		{name: "no EnvConfig", cfg: &struct {
			BaseURL string `env:"BASE_URL"`
		}{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if err := Parse(context.Background(), tt.cfg, ""); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Parse() error = %v, want %v", err, ErrInvalidConfig)
			}
		})
	}
}

type requiredConfig struct {
	EnvConfig

	DatabasePath string `env:"DATABASE_PATH"`
}

//nolint:paralleltest
func TestParseRequired(t *testing.T) {
	var cfg requiredConfig

	if err := Parse(context.Background(), &cfg, "AFFINITYAPI_ACCOUNT"); !errors.Is(err, ErrVarNotSet) {
		t.Fatalf("Parse() error = %v, want %v", err, ErrVarNotSet)
	}

	t.Setenv("AFFINITYAPI_ACCOUNT_DATABASE_PATH", "/tmp/accounts.db")

	if err := Parse(context.Background(), &cfg, "AFFINITYAPI_ACCOUNT"); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.DatabasePath != "/tmp/accounts.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
}

type costConfig struct {
	EnvConfig

	BcryptCost uint8 `env:"BCRYPT_COST" default:"10"`
}

//nolint:paralleltest
func TestParseUint(t *testing.T) {
	var cfg costConfig

	if err := Parse(context.Background(), &cfg, "AUTH"); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.BcryptCost != 10 {
		t.Errorf("BcryptCost = %d, want 10", cfg.BcryptCost)
	}

	t.Setenv("AUTH_BCRYPT_COST", "12")

	if err := Parse(context.Background(), &cfg, "AUTH"); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}

	t.Setenv("AUTH_BCRYPT_COST", "300")

	if err := Parse(context.Background(), &cfg, "AUTH"); err == nil {
		t.Error("expected overflow error, got nil")
	}
}
