package imageio

import "image"

// Codec bundles Decode and Encode behind a value so callers can swap the
// file system for a fake in tests.
type Codec struct {
	Options EncodeOptions
}

// NewCodec returns a codec that writes JPEGs at the given quality.
func NewCodec(jpegQuality int) Codec {
	return Codec{Options: EncodeOptions{JPEGQuality: jpegQuality}}
}

// Decode implements session.Codec.
func (c Codec) Decode(path string) (*image.NRGBA, error) {
	return Decode(path)
}

// Encode implements session.Codec.
func (c Codec) Encode(img image.Image, path string) error {
	return Encode(img, path, c.Options)
}
