package photosvc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	"github.com/mkrupp/affinity/internal/domain"
)

// ErrUnknownInterpolator is returned when an unsupported interpolation method is configured.
var ErrUnknownInterpolator = errors.New("unknown interpolator")

//nolint:gochecknoglobals
var (
	interpolMap = map[string]draw.Interpolator{
		"nearestneighbor": draw.NearestNeighbor,
		"catmullrom":      draw.CatmullRom,
		"bilinear":        draw.BiLinear,
		"approxbilinear":  draw.ApproxBiLinear,
	}

	imageHeaders = map[string][]string{
		domain.MIMETypeJPEG: {"\xFF\xD8"},
		domain.MIMETypePNG:  {"\x89\x50\x4E\x47\x0D\x0A\x1A\x0A"},
		domain.MIMETypeTIFF: {"\x49\x49\x2A\x00", "\x4D\x4D\x00\x2A"},
	}

	imageDecoders = map[string]func(io.Reader) (image.Image, error){
		domain.MIMETypeJPEG: jpeg.Decode,
		domain.MIMETypePNG:  png.Decode,
		domain.MIMETypeTIFF: tiff.Decode,
	}
)

func getInterpolatorByName(name string) (draw.Interpolator, error) {
	interpol, ok := interpolMap[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownInterpolator, name)
	}

	return interpol, nil
}

// detectMIMEType sniffs the upload by its magic bytes.
func detectMIMEType(data []byte) (string, error) {
	for mimeType, headers := range imageHeaders {
		for _, header := range headers {
			if bytes.HasPrefix(data, []byte(header)) {
				return mimeType, nil
			}
		}
	}

	return "", domain.ErrPhotoTypeNotSupported
}

// normalizePhoto decodes an upload, scales it down to maxWidth if wider and
// re-encodes it. TIFF uploads are stored as PNG. Uploads that need no scaling
// keep their original bytes.
func normalizePhoto(data []byte, maxWidth int, interpol draw.Interpolator) (domain.Photo, error) {
	mimeType, err := detectMIMEType(data)
	if err != nil {
		return domain.Photo{}, err
	}

	original, err := imageDecoders[mimeType](bytes.NewReader(data))
	if err != nil {
		return domain.Photo{}, fmt.Errorf("%w: decode: %w", domain.ErrPhotoTypeNotSupported, err)
	}

	width := original.Bounds().Dx()

	if width <= maxWidth && mimeType != domain.MIMETypeTIFF {
		return domain.NewPhoto(data, mimeType) //nolint:wrapcheck
	}

	bitmap := original

	if width > maxWidth {
		height := max(1, int(float64(original.Bounds().Dy())*float64(maxWidth)/float64(width)))
		scaled := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
		interpol.Scale(scaled, scaled.Bounds(), original, original.Bounds(), draw.Over, nil)
		bitmap = scaled
	}

	if mimeType == domain.MIMETypeTIFF {
		mimeType = domain.MIMETypePNG
	}

	var buf bytes.Buffer

	switch mimeType {
	case domain.MIMETypeJPEG:
		err = jpeg.Encode(&buf, bitmap, nil)
	default:
		err = png.Encode(&buf, bitmap)
	}

	if err != nil {
		return domain.Photo{}, fmt.Errorf("encode: %w", err)
	}

	return domain.NewPhoto(buf.Bytes(), mimeType) //nolint:wrapcheck
}
