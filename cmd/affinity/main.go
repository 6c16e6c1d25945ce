package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mkrupp/affinity/internal/infra/config"
	"github.com/mkrupp/affinity/internal/infra/logging"
	"github.com/mkrupp/affinity/internal/repo/profile"
	"github.com/mkrupp/affinity/internal/svc/authsvc/authclient"
	"github.com/mkrupp/affinity/internal/svc/loginsvc"
	"github.com/mkrupp/affinity/internal/viewmodel/login"
	profilevm "github.com/mkrupp/affinity/internal/viewmodel/profile"
)

const (
	appName = "affinity"
	svcName = "cli"
)

var errFailed = errors.New("command failed")

type ProfileConfig struct {
	// Backend selects the profile repository ("stub" or "http")
	Backend string `env:"BACKEND" default:"stub"`

	profile.HTTPRepositoryConfig
}

type Config struct {
	config.EnvConfig

	Log     logging.LoggerConfig        `envPrefix:"LOG_"`
	Client  authclient.HTTPClientConfig `envPrefix:"CLIENT_"`
	Profile ProfileConfig               `envPrefix:"PROFILE_"`

	// Timeout bounds every backend request
	Timeout time.Duration `env:"TIMEOUT" default:"15s"`
}

func main() {
	var (
		cfg Config
		ctx = context.Background()

		loggerName = strings.Join([]string{appName, svcName}, ".")
	)

	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := config.Parse(ctx, &cfg, strings.ToUpper(appName)); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	if err := run(ctx, cfg, os.Args[1:], os.Stdout); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(os.Stderr, err)
		}

		os.Exit(1)
	}
}

func usage(w io.Writer) {
	fmt.Fprint(w, `usage: affinity <command> [flags]

commands:
  login   -user <username|email> -password <password>
  profile -user <username>
  update  -user <username> -password <password> [-email ...] [-nombre ...] [-apellido ...] [-genero ...] [-ubicacion ...] [-foto ...]
  delete  -id <user id>
`)
}

func run(ctx context.Context, cfg Config, args []string, out io.Writer) error {
	if len(args) == 0 {
		usage(out)

		return errFailed
	}

	httpClient := &http.Client{Timeout: cfg.Timeout}

	switch args[0] {
	case "login":
		return runLogin(ctx, cfg, httpClient, args[1:], out)
	case "profile", "update", "delete":
		repo, err := newProfileRepository(cfg.Profile, httpClient)
		if err != nil {
			return err
		}

		return runProfile(ctx, profilevm.NewViewModel(repo), args[0], args[1:], out)
	default:
		usage(out)

		return fmt.Errorf("unknown command %q", args[0])
	}
}

func newProfileRepository(cfg ProfileConfig, httpClient *http.Client) (profile.Repository, error) {
	var factory profile.RepositoryFactory

	switch cfg.Backend {
	case "stub":
		factory = profile.StubRepositoryFactory()
	case "http":
		factory = profile.HTTPRepositoryFactory(cfg.HTTPRepositoryConfig, httpClient)
	default:
		return nil, fmt.Errorf("unknown profile backend %q", cfg.Backend)
	}

	repo, err := factory()
	if err != nil {
		return nil, fmt.Errorf("new profile repository: %w", err)
	}

	return repo, nil
}

func runLogin(ctx context.Context, cfg Config, httpClient *http.Client, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(out)

	identifier := fs.String("user", "", "username or email")
	password := fs.String("password", "", "password")

	if err := fs.Parse(args); err != nil {
		return errFailed
	}

	client, err := authclient.NewHTTPClient(cfg.Client, httpClient)
	if err != nil {
		return fmt.Errorf("new auth client: %w", err)
	}

	vm := login.NewViewModel(loginsvc.NewLoginService(client))

	unsubscribe, err := vm.Subscribe(func(s login.State) {
		printLoginState(out, s)
	})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer unsubscribe()

	vm.Login(ctx, *identifier, *password)
	vm.Wait()

	if vm.State().HasError() {
		return errFailed
	}

	return nil
}

func printLoginState(out io.Writer, s login.State) {
	switch {
	case s.IsLoading:
		fmt.Fprintln(out, "logging in...")
	case s.HasError():
		fmt.Fprintln(out, "error:", s.ErrorMessage)
	default:
		if user, ok := s.User(); ok {
			fmt.Fprintf(out, "welcome, %s (id %d)\n", user.Handle, user.ID)

			if s.Result.Message != "" {
				fmt.Fprintln(out, s.Result.Message)
			}

			if s.Result.Redirect != "" {
				fmt.Fprintln(out, "redirect:", s.Result.Redirect)
			}
		}
	}
}

func runProfile(ctx context.Context, vm *profilevm.ViewModel, cmd string, args []string, out io.Writer) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(out)

	var (
		handle   = fs.String("user", "", "username")
		password = fs.String("password", "", "account password (update)")
		id       = fs.Int64("id", 0, "user id (delete)")
		fields   = map[string]*string{}
	)

	if cmd == "update" {
		for _, name := range []string{"email", "nombre", "apellido", "genero", "ubicacion", "foto"} {
			fields[name] = fs.String(name, "", name+" (unchanged when empty)")
		}
	}

	if err := fs.Parse(args); err != nil {
		return errFailed
	}

	unsubscribe, err := vm.Subscribe(func(s profilevm.State) {
		printProfileState(out, s)
	})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	defer unsubscribe()

	switch cmd {
	case "profile":
		vm.LoadProfile(ctx, *handle)
	case "update":
		vm.LoadProfile(ctx, *handle)

		current := vm.State().Profile
		if current == nil {
			return errFailed
		}

		edited := *current
		for name, dst := range map[string]*string{
			"email":     &edited.Email,
			"nombre":    &edited.GivenName,
			"apellido":  &edited.FamilyName,
			"genero":    &edited.Gender,
			"ubicacion": &edited.Location,
			"foto":      &edited.Photo,
		} {
			if v := *fields[name]; v != "" {
				*dst = v
			}
		}

		vm.UpdateProfile(ctx, edited, *password)
	case "delete":
		vm.DeleteAccount(ctx, *id)
	}

	if vm.State().HasError() {
		return errFailed
	}

	return nil
}

func printProfileState(out io.Writer, s profilevm.State) {
	switch {
	case s.IsLoading:
		return
	case s.HasError():
		fmt.Fprintln(out, "error:", s.ErrorMessage)
	case s.Message != "":
		fmt.Fprintln(out, s.Message)
	}

	if s.Profile != nil && !s.HasError() {
		p := s.Profile
		fmt.Fprintf(out, "id:        %d\nusername:  %s\nemail:     %s\nname:      %s %s\ngender:    %s\nlocation:  %s\nphoto:     %s\n",
			p.ID, p.Handle, p.Email, p.GivenName, p.FamilyName, p.Gender, p.Location, p.Photo)
	}
}
