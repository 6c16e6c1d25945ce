package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrPhotoNotFound is returned when fetching a photo that is not stored.
	ErrPhotoNotFound = errors.New("photo not found")
	// ErrPhotoTooLarge is returned when an upload exceeds the configured size limit.
	ErrPhotoTooLarge = errors.New("photo too large")
	// ErrPhotoTypeNotSupported is returned for uploads that are not JPEG, PNG or TIFF.
	ErrPhotoTypeNotSupported = errors.New("photo type not supported")
	// ErrInvalidPhotoName is returned when a photo name is not "<sha256 hex>.<ext>".
	ErrInvalidPhotoName = errors.New("invalid photo name")
)

// Photo MIME types.
const (
	MIMETypeJPEG = "image/jpeg"
	MIMETypePNG  = "image/png"
	MIMETypeTIFF = "image/tiff"
)

//nolint:gochecknoglobals
var photoExtensions = map[string]string{
	MIMETypeJPEG: "jpg",
	MIMETypePNG:  "png",
}

// PhotoID is the hex SHA-256 of the stored photo bytes.
type PhotoID string

// Photo is a stored profile photo. Photos are content addressed, so equal
// uploads share one ID.
type Photo struct {
	ID       PhotoID
	MIMEType string
	Data     []byte
}

// NewPhoto wraps normalized photo bytes. mimeType must be JPEG or PNG.
func NewPhoto(data []byte, mimeType string) (Photo, error) {
	if _, ok := photoExtensions[mimeType]; !ok {
		return Photo{}, fmt.Errorf("%w: %q", ErrPhotoTypeNotSupported, mimeType)
	}

	sum := sha256.Sum256(data)

	return Photo{
		ID:       PhotoID(hex.EncodeToString(sum[:])),
		MIMEType: mimeType,
		Data:     data,
	}, nil
}

// Name is the file name the photo is served under, e.g. "5f56...e9.jpg".
func (p Photo) Name() string {
	return string(p.ID) + "." + photoExtensions[p.MIMEType]
}

// ParsePhotoName splits a name produced by Photo.Name.
func ParsePhotoName(name string) (PhotoID, string, error) {
	id, ext, ok := strings.Cut(name, ".")
	if !ok || len(id) != sha256.Size*2 {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPhotoName, name)
	}

	if _, err := hex.DecodeString(id); err != nil {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidPhotoName, name)
	}

	for mimeType, e := range photoExtensions {
		if e == ext {
			return PhotoID(strings.ToLower(id)), mimeType, nil
		}
	}

	return "", "", fmt.Errorf("%w: %q", ErrInvalidPhotoName, name)
}
