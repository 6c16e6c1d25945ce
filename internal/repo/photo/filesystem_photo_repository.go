package photo

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/mkrupp/affinity/internal/domain"
	"github.com/mkrupp/affinity/internal/infra/logging"
)

// ErrBytesWrittenMismatch is returned when a stored file does not have the photo's size.
var ErrBytesWrittenMismatch = errors.New("bytes written mismatch")

const (
	dirPrefixLength = 2 // 16^2 = 256 directories
	dirPrefixDepth  = 3 // 256^3 = 16,777,216 directories
)

// FileSystemPhotoRepositoryConfig holds configuration for the filesystem photo repository.
type FileSystemPhotoRepositoryConfig struct {
	// Basedir is the root directory for photo storage
	Basedir string `env:"BASEDIR" default:"var/storage/photos"`
}

// FileSystemPhotoRepositoryFactory creates a factory function that returns a new FileSystemRepository.
func FileSystemPhotoRepositoryFactory(cfg FileSystemPhotoRepositoryConfig) RepositoryFactory {
	return func(ctx context.Context) (Repository, error) {
		return NewFileSystemPhotoRepository(ctx, cfg)
	}
}

// NewFileSystemPhotoRepository creates a FileSystemRepository rooted at cfg.Basedir.
func NewFileSystemPhotoRepository(ctx context.Context, cfg FileSystemPhotoRepositoryConfig) (*FileSystemRepository, error) {
	repo := &FileSystemRepository{
		cfg: cfg,
		log: logging.GetLogger("repo.photo.filesystem").With(
			logging.Group("repo", "basedir", cfg.Basedir),
		),
	}

	if err := os.MkdirAll(cfg.Basedir, 0o755); err != nil {
		repo.log.ErrorContext(ctx, "init storage failed", "error", err)

		return nil, fmt.Errorf("mkdir all: %w", err)
	}

	return repo, nil
}

// FileSystemRepository implements Repository on the local filesystem.
// Files are fanned out over a directory hierarchy keyed by the leading ID
// characters:
//
//	5f/56/69/5f56692f0df9ff68607abdb054943ed86bcee7c9f2a2d01fdcb27032f70f3fe9.jpg
type FileSystemRepository struct {
	cfg FileSystemPhotoRepositoryConfig
	log logging.Logger
}

var _ Repository = (*FileSystemRepository)(nil)

// Filename returns the path of the photo with the given name.
func (r *FileSystemRepository) Filename(name string) (string, error) {
	id, mimeType, err := domain.ParsePhotoName(name)
	if err != nil {
		return "", err //nolint:wrapcheck
	}

	parts := []string{r.cfg.Basedir}
	for i := range dirPrefixDepth {
		parts = append(parts, string(id[i*dirPrefixLength:(i+1)*dirPrefixLength]))
	}

	// Rebuilt from the parsed parts so the path never carries caller input.
	parts = append(parts, domain.Photo{ID: id, MIMEType: mimeType}.Name())

	return filepath.Join(parts...), nil
}

// Lock implements Repository.Lock with flock(2) on a sibling lock file.
func (r *FileSystemRepository) Lock(ctx context.Context, name string, exclusive bool) (release func(), err error) {
	filename, err := r.Filename(name)
	if err != nil {
		return nil, err
	}

	lockfile := filename + ".lock"
	log := r.log.With(logging.Group("photo", "lockfile", lockfile))

	defer func() {
		if err != nil {
			log.ErrorContext(ctx, "lock failed", "error", err)
		} else {
			log.DebugContext(ctx, "lock acquired")
		}
	}()

	mode := syscall.LOCK_SH
	if exclusive {
		mode = syscall.LOCK_EX
	}

	if err := os.MkdirAll(filepath.Dir(lockfile), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir all: %w", err)
	}

	file, err := os.OpenFile(lockfile, os.O_CREATE|os.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open lockfile: %w", err)
	}

	if err := syscall.Flock(int(file.Fd()), mode); err != nil {
		_ = file.Close()

		return nil, fmt.Errorf("flock: %w", err)
	}

	return func() {
		_ = syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		_ = file.Close()

		log.DebugContext(ctx, "lock released")
	}, nil
}

// Exists implements Repository.Exists.
func (r *FileSystemRepository) Exists(_ context.Context, name string) bool {
	filename, err := r.Filename(name)
	if err != nil {
		return false
	}

	_, err = os.Stat(filename)

	return err == nil
}

// Store implements Repository.Store. The file is synced before returning.
func (r *FileSystemRepository) Store(ctx context.Context, photo domain.Photo) (err error) {
	filename, err := r.Filename(photo.Name())
	if err != nil {
		return err
	}

	defer func() {
		log := r.log.With(logging.Group("photo", "id", photo.ID, "filename", filename))
		if err != nil {
			log.ErrorContext(ctx, "photo store failed", "error", err)
		} else {
			log.DebugContext(ctx, "photo stored", "size", len(photo.Data))
		}
	}()

	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return fmt.Errorf("mkdir all: %w", err)
	}

	file, err := os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer file.Close()

	if n, err := file.Write(photo.Data); err != nil {
		return fmt.Errorf("write: %w", err)
	} else if err := file.Sync(); err != nil {
		return fmt.Errorf("sync: %w", err)
	} else if info, err := file.Stat(); err != nil {
		return fmt.Errorf("stat: %w", err)
	} else if int64(n) != info.Size() || n != len(photo.Data) {
		return fmt.Errorf("%w: expected %d, got %d", ErrBytesWrittenMismatch, len(photo.Data), n)
	}

	return nil
}

// Fetch implements Repository.Fetch.
func (r *FileSystemRepository) Fetch(ctx context.Context, name string) (domain.Photo, error) {
	id, mimeType, err := domain.ParsePhotoName(name)
	if err != nil {
		return domain.Photo{}, err //nolint:wrapcheck
	}

	filename, err := r.Filename(name)
	if err != nil {
		return domain.Photo{}, err
	}

	data, err := os.ReadFile(filename)
	if errors.Is(err, fs.ErrNotExist) {
		return domain.Photo{}, fmt.Errorf("%w: %s", domain.ErrPhotoNotFound, name)
	} else if err != nil {
		r.log.ErrorContext(ctx, "photo fetch failed", "filename", filename, "error", err)

		return domain.Photo{}, fmt.Errorf("read: %w", err)
	}

	return domain.Photo{ID: id, MIMEType: mimeType, Data: data}, nil
}

// Delete implements Repository.Delete.
func (r *FileSystemRepository) Delete(ctx context.Context, name string) error {
	filename, err := r.Filename(name)
	if err != nil {
		return err
	}

	if err := os.Remove(filename); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s", domain.ErrPhotoNotFound, name)
	} else if err != nil {
		return fmt.Errorf("remove: %w", err)
	}

	r.log.DebugContext(ctx, "photo deleted", "filename", filename)

	return nil
}
