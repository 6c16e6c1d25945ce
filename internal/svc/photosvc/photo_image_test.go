package photosvc

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	"github.com/mkrupp/affinity/internal/domain"
)

func testImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := range width {
		for y := range height {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}

	return img
}

func encode(t *testing.T, img image.Image, mimeType string) []byte {
	t.Helper()

	var (
		buf bytes.Buffer
		err error
	)

	switch mimeType {
	case domain.MIMETypeJPEG:
		err = jpeg.Encode(&buf, img, nil)
	case domain.MIMETypePNG:
		err = png.Encode(&buf, img)
	case domain.MIMETypeTIFF:
		err = tiff.Encode(&buf, img, nil)
	}

	if err != nil {
		t.Fatalf("encode %s: %v", mimeType, err)
	}

	return buf.Bytes()
}

func TestNormalizePhoto(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		mimeType   string
		width      int
		height     int
		wantType   string
		wantWidth  int
		wantHeight int
		wantSame   bool
	}{
		{name: "small png kept", mimeType: domain.MIMETypePNG, width: 40, height: 20, wantType: domain.MIMETypePNG, wantWidth: 40, wantHeight: 20, wantSame: true},
		{name: "small jpeg kept", mimeType: domain.MIMETypeJPEG, width: 64, height: 64, wantType: domain.MIMETypeJPEG, wantWidth: 64, wantHeight: 64, wantSame: true},
		{name: "wide png scaled", mimeType: domain.MIMETypePNG, width: 128, height: 64, wantType: domain.MIMETypePNG, wantWidth: 64, wantHeight: 32},
		{name: "wide jpeg scaled", mimeType: domain.MIMETypeJPEG, width: 200, height: 100, wantType: domain.MIMETypeJPEG, wantWidth: 64, wantHeight: 32},
		{name: "tiff converted", mimeType: domain.MIMETypeTIFF, width: 32, height: 16, wantType: domain.MIMETypePNG, wantWidth: 32, wantHeight: 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			data := encode(t, testImage(tt.width, tt.height), tt.mimeType)

			p, err := normalizePhoto(data, 64, draw.ApproxBiLinear)
			if err != nil {
				t.Fatalf("normalizePhoto() error = %v", err)
			}

			if p.MIMEType != tt.wantType {
				t.Errorf("MIMEType = %q, want %q", p.MIMEType, tt.wantType)
			}

			if same := bytes.Equal(p.Data, data); same != tt.wantSame {
				t.Errorf("bytes unchanged = %v, want %v", same, tt.wantSame)
			}

			cfg, _, err := image.DecodeConfig(bytes.NewReader(p.Data))
			if err != nil {
				t.Fatalf("decode result: %v", err)
			}

			if cfg.Width != tt.wantWidth || cfg.Height != tt.wantHeight {
				t.Errorf("size = %dx%d, want %dx%d", cfg.Width, cfg.Height, tt.wantWidth, tt.wantHeight)
			}
		})
	}
}

func TestNormalizePhoto_Unsupported(t *testing.T) {
	t.Parallel()

	for _, data := range [][]byte{
		[]byte("GIF89a"),
		[]byte("\x89\x50\x4E\x47\x0D\x0A\x1A\x0Atruncated"),
		nil,
	} {
		if _, err := normalizePhoto(data, 64, draw.ApproxBiLinear); !errors.Is(err, domain.ErrPhotoTypeNotSupported) {
			t.Errorf("normalizePhoto(%q) error = %v, want ErrPhotoTypeNotSupported", data, err)
		}
	}
}

func TestGetInterpolatorByName(t *testing.T) {
	t.Parallel()

	if _, err := getInterpolatorByName("CatmullRom"); err != nil {
		t.Errorf("getInterpolatorByName(CatmullRom) error = %v", err)
	}

	if _, err := getInterpolatorByName("lanczos"); !errors.Is(err, ErrUnknownInterpolator) {
		t.Errorf("getInterpolatorByName(lanczos) error = %v", err)
	}
}
