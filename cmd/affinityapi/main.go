package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/mkrupp/affinity/internal/infra/config"
	"github.com/mkrupp/affinity/internal/infra/logging"
	http_ "github.com/mkrupp/affinity/internal/infra/transport/http"
	"github.com/mkrupp/affinity/internal/repo/account"
	"github.com/mkrupp/affinity/internal/repo/photo"
	"github.com/mkrupp/affinity/internal/svc/authsvc"
	"github.com/mkrupp/affinity/internal/svc/photosvc"
	"github.com/mkrupp/affinity/internal/svc/profilesvc"
)

const (
	appName = "affinity"
	svcName = "affinityapi"
)

type Config struct {
	config.EnvConfig

	Log     logging.LoggerConfig                  `envPrefix:"LOG_"`
	Auth    authsvc.AuthConfig                    `envPrefix:"AUTH_"`
	HTTP    authsvc.HTTPTransportConfig           `envPrefix:"HTTP_"`
	Account account.SQLiteAccountRepositoryConfig `envPrefix:"ACCOUNT_"`

	Photo      photosvc.PhotoConfig                  `envPrefix:"PHOTO_"`
	PhotoHTTP  photosvc.HTTPTransportConfig          `envPrefix:"PHOTO_HTTP_"`
	PhotoStore photo.FileSystemPhotoRepositoryConfig `envPrefix:"PHOTO_STORE_"`
}

func main() {
	var (
		cfg Config
		ctx = context.Background()

		loggerName = strings.Join([]string{appName, svcName}, ".")
	)

	if err := config.LoadDotEnv(); err != nil {
		panic(err)
	}

	if err := config.Parse(ctx, &cfg, strings.ToUpper(svcName)); err != nil {
		panic(err)
	}

	logging.Configure(ctx, cfg.Log, loggerName)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		panic(err)
	}
}

func run(ctx context.Context, cfg Config) (err error) {
	log := logging.GetLogger("cmd." + svcName)

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "error", "err", err)

			return
		}

		log.InfoContext(ctx, "shutdown")
	}()

	accounts, err := account.SQLiteAccountRepositoryFactory(cfg.Account)()
	if err != nil {
		return fmt.Errorf("new account repo: %w", err)
	}

	defer func() {
		if cerr := accounts.Close(); cerr != nil {
			log.ErrorContext(ctx, "close account repo", "err", cerr)
		}
	}()

	authSvc, err := authsvc.NewAuthService(accounts, cfg.Auth)
	if err != nil {
		return fmt.Errorf("new auth service: %w", err)
	}

	profileSvc := profilesvc.NewProfileService(accounts, authSvc)

	photoSvc, err := photosvc.NewPhotoService(ctx,
		photo.FileSystemPhotoRepositoryFactory(cfg.PhotoStore),
		accounts,
		authSvc,
		cfg.Photo,
	)
	if err != nil {
		return fmt.Errorf("new photo service: %w", err)
	}

	mux := http.NewServeMux()
	authsvc.NewHTTPTransport(authSvc).Register(mux)
	profilesvc.NewHTTPTransport(profileSvc, authSvc.UserKeys()).Register(mux)
	photosvc.NewHTTPTransport(photoSvc, authSvc.UserKeys(), cfg.PhotoHTTP).Register(mux)

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := http_.ListenAndServe(ctx, mux, cfg.HTTP.HTTPTransportConfig); err != nil {
			return fmt.Errorf("listen and serve: %w", err)
		}

		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		log.InfoContext(ctx, "stopping", "cause", context.Cause(ctx))

		return nil
	})

	return group.Wait() //nolint:wrapcheck
}
