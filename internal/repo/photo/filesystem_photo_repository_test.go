//go:build integration || all

package photo_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/mkrupp/affinity/internal/domain"
	"github.com/mkrupp/affinity/internal/repo/photo"
)

func setupTestRepo(t *testing.T) (*photo.FileSystemRepository, string) {
	t.Helper()

	tempDir := t.TempDir()

	repo, err := photo.NewFileSystemPhotoRepository(context.Background(), photo.FileSystemPhotoRepositoryConfig{
		Basedir: tempDir,
	})
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}

	return repo, tempDir
}

func newPhoto(t *testing.T, data string, mimeType string) domain.Photo {
	t.Helper()

	p, err := domain.NewPhoto([]byte(data), mimeType)
	if err != nil {
		t.Fatalf("NewPhoto() error = %v", err)
	}

	return p
}

func TestFileSystemPhotoRepository_StoreFetchDelete(t *testing.T) {
	t.Parallel()

	repo, tempDir := setupTestRepo(t)
	ctx := context.Background()
	p := newPhoto(t, "jpeg bytes", domain.MIMETypeJPEG)

	if repo.Exists(ctx, p.Name()) {
		t.Fatal("photo exists before store")
	}

	if err := repo.Store(ctx, p); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	filename, err := repo.Filename(p.Name())
	if err != nil {
		t.Fatalf("Filename() error = %v", err)
	}

	want := filepath.Join(tempDir, string(p.ID[0:2]), string(p.ID[2:4]), string(p.ID[4:6]), p.Name())
	if filename != want {
		t.Errorf("Filename() = %q, want %q", filename, want)
	}

	if _, err := os.Stat(filename); err != nil {
		t.Errorf("stored file missing: %v", err)
	}

	got, err := repo.Fetch(ctx, p.Name())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if got.ID != p.ID || got.MIMEType != p.MIMEType || !bytes.Equal(got.Data, p.Data) {
		t.Errorf("Fetch() = %+v, want %+v", got, p)
	}

	if err := repo.Delete(ctx, p.Name()); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := repo.Fetch(ctx, p.Name()); !errors.Is(err, domain.ErrPhotoNotFound) {
		t.Errorf("Fetch() after delete error = %v", err)
	}

	if err := repo.Delete(ctx, p.Name()); !errors.Is(err, domain.ErrPhotoNotFound) {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestFileSystemPhotoRepository_InvalidNames(t *testing.T) {
	t.Parallel()

	repo, _ := setupTestRepo(t)
	ctx := context.Background()

	for _, name := range []string{
		"",
		"../../etc/passwd",
		strings.Repeat("a", 64) + ".gif",
		strings.Repeat("z", 64) + ".png",
		strings.Repeat("a", 63) + ".png",
	} {
		if _, err := repo.Fetch(ctx, name); !errors.Is(err, domain.ErrInvalidPhotoName) {
			t.Errorf("Fetch(%q) error = %v, want ErrInvalidPhotoName", name, err)
		}
	}
}

func TestFileSystemPhotoRepository_Lock(t *testing.T) {
	t.Parallel()

	repo, _ := setupTestRepo(t)
	ctx := context.Background()
	p := newPhoto(t, "png bytes", domain.MIMETypePNG)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		holders int
		maxSeen int
	)

	for range 8 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			release, err := repo.Lock(ctx, p.Name(), true)
			if err != nil {
				t.Errorf("Lock() error = %v", err)

				return
			}
			defer release()

			mu.Lock()
			holders++
			maxSeen = max(maxSeen, holders)
			mu.Unlock()

			if err := repo.Store(ctx, p); err != nil {
				t.Errorf("Store() error = %v", err)
			}

			mu.Lock()
			holders--
			mu.Unlock()
		}()
	}

	wg.Wait()

	if maxSeen != 1 {
		t.Errorf("exclusive lock held by %d goroutines at once", maxSeen)
	}
}
