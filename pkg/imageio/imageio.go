// Package imageio reads source images and writes sketches.
//
// Decoding goes through [imaging.Open] with EXIF auto-orientation. Inputs
// are limited to the extensions in errors.ImageExtensions (PNG, JPEG and
// BMP) even though imaging could read more. Any alpha channel is discarded:
// the returned [*image.NRGBA] is always fully opaque with its colour
// channels untouched, the way an OpenCV colour read behaves.
//
// Encoding is restricted to PNG and JPEG. Every failure is reported as a
// coded error from pkg/errors: LOAD_FAILED for reads and WRITE_FAILED for
// writes, with the underlying cause wrapped.
package imageio

import (
	"bytes"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/graphite/pkg/errors"
)

// DefaultJPEGQuality matches the quality used by most image tools.
const DefaultJPEGQuality = 95

// EncodeOptions controls how images are written.
type EncodeOptions struct {
	// JPEGQuality is in [1,100]. Zero means DefaultJPEGQuality.
	JPEGQuality int
}

func (o EncodeOptions) quality() int {
	switch {
	case o.JPEGQuality <= 0:
		return DefaultJPEGQuality
	case o.JPEGQuality > 100:
		return 100
	}
	return o.JPEGQuality
}

// Decode reads the image at path and returns it as opaque NRGBA with its
// origin at (0,0).
func Decode(path string) (*image.NRGBA, error) {
	if err := errors.ValidatePath(path); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLoad, err, "failed to load image")
	}
	if err := errors.ValidateImageExtension(path, errors.ImageExtensions); err != nil {
		return nil, errors.Wrap(errors.ErrCodeLoad, err, "failed to load image %s", filepath.Base(path))
	}

	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLoad, err, "failed to load image %s", filepath.Base(path))
	}
	return opaque(img), nil
}

// DecodeBytes decodes an in-memory image the same way Decode reads a file.
func DecodeBytes(data []byte) (*image.NRGBA, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLoad, err, "failed to decode image")
	}
	return opaque(img), nil
}

// Encode writes img to path. The format is chosen from the extension;
// only .png, .jpg and .jpeg are accepted.
func Encode(img image.Image, path string, opts EncodeOptions) error {
	if err := errors.ValidatePath(path); err != nil {
		return errors.Wrap(errors.ErrCodeWrite, err, "failed to write image")
	}
	if err := errors.ValidateImageExtension(path, errors.OutputExtensions); err != nil {
		return errors.Wrap(errors.ErrCodeWrite, err, "failed to write %s", filepath.Base(path))
	}
	if img == nil || img.Bounds().Empty() {
		return errors.New(errors.ErrCodeWrite, "cannot write an empty image to %s", filepath.Base(path))
	}

	if err := imaging.Save(img, path, imaging.JPEGQuality(opts.quality())); err != nil {
		return errors.Wrap(errors.ErrCodeWrite, err, "failed to write %s", filepath.Base(path))
	}
	return nil
}

// EncodeBytes encodes img in the given format ("png", "jpg" or "jpeg").
func EncodeBytes(img image.Image, format string, opts EncodeOptions) ([]byte, error) {
	f, err := parseFormat(format)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeWrite, err, "failed to encode image")
	}
	if img == nil || img.Bounds().Empty() {
		return nil, errors.New(errors.ErrCodeWrite, "cannot encode an empty image")
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, f, imaging.JPEGQuality(opts.quality())); err != nil {
		return nil, errors.Wrap(errors.ErrCodeWrite, err, "failed to encode %s", format)
	}
	return buf.Bytes(), nil
}

// SupportedInput reports whether path has an extension Decode accepts.
func SupportedInput(path string) bool {
	return errors.ValidateImageExtension(path, errors.ImageExtensions) == nil
}

// FormatFromPath returns the canonical output format name ("png" or "jpg")
// for path, or an INVALID_FORMAT error.
func FormatFromPath(path string) (string, error) {
	if err := errors.ValidateImageExtension(path, errors.OutputExtensions); err != nil {
		return "", err
	}
	return canonical(strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")), nil
}

// Extension returns the file extension, including the dot, for an output
// format name.
func Extension(format string) (string, error) {
	if _, err := parseFormat(format); err != nil {
		return "", err
	}
	return "." + canonical(strings.ToLower(format)), nil
}

func parseFormat(format string) (imaging.Format, error) {
	switch strings.ToLower(format) {
	case "png":
		return imaging.PNG, nil
	case "jpg", "jpeg":
		return imaging.JPEG, nil
	}
	return 0, errors.New(errors.ErrCodeInvalidFormat, "unsupported output format %q (must be png or jpg)", format)
}

func canonical(format string) string {
	if format == "jpeg" {
		return "jpg"
	}
	return format
}

// opaque copies img into a fresh NRGBA rooted at (0,0) and forces every
// alpha value to 255 without touching the colour channels.
func opaque(img image.Image) *image.NRGBA {
	dst := imaging.Clone(img)
	for i := 3; i < len(dst.Pix); i += 4 {
		dst.Pix[i] = 0xff
	}
	return dst
}
