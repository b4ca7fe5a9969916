package cdn

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/image/draw"
)

const (
	// MaxUploadSize bounds the bytes read from an upload.
	MaxUploadSize = 10 << 20
	maxWidth      = 2400
	jpegQuality   = 85
)

var ErrNotImage = errors.New("not a supported image")

// Prepared is an upload ready to be sent to the CDN.
type Prepared struct {
	Data        []byte
	Filename    string
	ContentType string
	Width       int
	Height      int
}

// Prepare reads an uploaded image, checks that it decodes as JPEG, PNG or
// GIF, and downsizes it to maxWidth when wider, re-encoding as JPEG. Images
// within bounds are passed through untouched.
func Prepare(r io.Reader, filename string) (Prepared, error) {
	raw, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return Prepared{}, fmt.Errorf("read upload: %w", err)
	}
	if len(raw) > MaxUploadSize {
		return Prepared{}, fmt.Errorf("%w: larger than %d bytes", ErrNotImage, MaxUploadSize)
	}
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return Prepared{}, fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	if filename = filepath.Base(strings.TrimSpace(filename)); filename == "." || filename == "/" {
		filename = "image"
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxWidth {
		return Prepared{
			Data:        raw,
			Filename:    filename,
			ContentType: "image/" + format,
			Width:       w,
			Height:      h,
		}, nil
	}

	newH := h * maxWidth / w
	if newH < 1 {
		newH = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Prepared{}, fmt.Errorf("encode jpeg: %w", err)
	}
	return Prepared{
		Data:        buf.Bytes(),
		Filename:    strings.TrimSuffix(filename, filepath.Ext(filename)) + ".jpg",
		ContentType: "image/jpeg",
		Width:       maxWidth,
		Height:      newH,
	}, nil
}
