package photosvc

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/image/draw"

	"github.com/mkrupp/affinity/internal/domain"
	"github.com/mkrupp/affinity/internal/infra/logging"
	"github.com/mkrupp/affinity/internal/repo/account"
	"github.com/mkrupp/affinity/internal/repo/photo"
)

// PhotoPathPrefix is the path, relative to the API root, photos are served under.
// Profile photo references are PhotoPathPrefix + photo name.
const PhotoPathPrefix = "photos/"

// PasswordVerifier checks an account password. Implemented by authsvc.AuthService.
type PasswordVerifier interface {
	VerifyPassword(ctx context.Context, id int64, password string) error
}

// PhotoService stores profile photos and points profiles at them.
type PhotoService struct {
	photos   photo.Repository
	accounts account.Repository
	verifier PasswordVerifier
	interpol draw.Interpolator
	cfg      PhotoConfig
	log      logging.Logger
}

// NewPhotoService creates a PhotoService. Returns an error if the photo
// repository cannot be created or the interpolator is unknown.
func NewPhotoService(
	ctx context.Context,
	repoFactory photo.RepositoryFactory,
	accounts account.Repository,
	verifier PasswordVerifier,
	cfg PhotoConfig,
) (*PhotoService, error) {
	interpol, err := getInterpolatorByName(cfg.Interpolator)
	if err != nil {
		return nil, err
	}

	if cfg.MaxWidth <= 0 {
		return nil, fmt.Errorf("max width %d must be positive", cfg.MaxWidth)
	}

	photos, err := repoFactory(ctx)
	if err != nil {
		return nil, fmt.Errorf("new photo repository: %w", err)
	}

	return &PhotoService{
		photos:   photos,
		accounts: accounts,
		verifier: verifier,
		interpol: interpol,
		cfg:      cfg,
		log:      logging.GetLogger("svc.photosvc.photo_service"),
	}, nil
}

// MaxSize returns the maximum accepted upload size in bytes.
func (s *PhotoService) MaxSize() int64 {
	return s.cfg.MaxSize
}

// Upload stores data as the photo of account id, authorized by password.
// Returns the updated profile.
func (s *PhotoService) Upload(ctx context.Context, id int64, password string, data []byte) (_ domain.UserProfile, err error) {
	log := s.log.With(logging.Group("photo", "user", id, "size", len(data)))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "photo upload failed", "error", err)
		} else {
			log.DebugContext(ctx, "photo uploaded")
		}
	}()

	if int64(len(data)) > s.cfg.MaxSize {
		return domain.UserProfile{}, fmt.Errorf("%w: %d exceeds %d", domain.ErrPhotoTooLarge, len(data), s.cfg.MaxSize)
	}

	if err := s.verifier.VerifyPassword(ctx, id, password); err != nil {
		return domain.UserProfile{}, fmt.Errorf("verify password: %w", err)
	}

	p, err := normalizePhoto(data, s.cfg.MaxWidth, s.interpol)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("normalize photo: %w", err)
	}

	log = log.With(logging.Group("photo", "name", p.Name(), "type", p.MIMEType))

	if err := s.store(ctx, p); err != nil {
		return domain.UserProfile{}, err
	}

	acc, found, err := s.accounts.GetAccountByID(ctx, id)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("get account: %w", err)
	} else if !found {
		return domain.UserProfile{}, domain.ErrAccountNotFound
	}

	profile := acc.Profile
	profile.Photo = PhotoPathPrefix + p.Name()

	if err := s.accounts.UpdateProfile(ctx, profile); err != nil {
		return domain.UserProfile{}, fmt.Errorf("update account: %w", err)
	}

	return profile, nil
}

func (s *PhotoService) store(ctx context.Context, p domain.Photo) error {
	unlock, err := s.photos.Lock(ctx, p.Name(), true)
	if err != nil {
		return fmt.Errorf("lock photo: %w", err)
	}
	defer unlock()

	// Content addressed: an existing file already holds these bytes.
	if s.photos.Exists(ctx, p.Name()) {
		return nil
	}

	if err := s.photos.Store(ctx, p); err != nil {
		return fmt.Errorf("store photo: %w", err)
	}

	return nil
}

// Fetch returns the photo with the given name, with or without PhotoPathPrefix.
// Returns domain.ErrPhotoNotFound if there is none.
func (s *PhotoService) Fetch(ctx context.Context, name string) (domain.Photo, error) {
	name = strings.TrimPrefix(name, PhotoPathPrefix)

	unlock, err := s.photos.Lock(ctx, name, false)
	if err != nil {
		return domain.Photo{}, fmt.Errorf("lock photo: %w", err)
	}
	defer unlock()

	p, err := s.photos.Fetch(ctx, name)
	if err != nil {
		return domain.Photo{}, fmt.Errorf("fetch photo: %w", err)
	}

	return p, nil
}
