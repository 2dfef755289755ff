package cache

import "fmt"

// Keyer generates cache keys for the different artifact kinds.
type Keyer interface {
	// SketchKey returns the key for an encoded sketch of the input whose
	// content hash is contentHash.
	SketchKey(contentHash string, opts SketchKeyOpts) string

	// PreviewKey returns the key for a side-by-side preview image.
	PreviewKey(contentHash string, opts PreviewKeyOpts) string
}

// SketchKeyOpts lists every option that changes an encoded sketch.
type SketchKeyOpts struct {
	Intensity   int    `json:"intensity"`
	Format      string `json:"format"`
	JPEGQuality int    `json:"jpeg_quality,omitempty"`
}

// PreviewKeyOpts lists every option that changes a preview image.
type PreviewKeyOpts struct {
	Intensity int `json:"intensity"`
	Size      int `json:"size"`
}

// DefaultKeyer produces "kind:sha256(parts)" keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// SketchKey implements Keyer.
func (DefaultKeyer) SketchKey(contentHash string, opts SketchKeyOpts) string {
	return hashKey("sketch", contentHash, opts)
}

// PreviewKey implements Keyer.
func (DefaultKeyer) PreviewKey(contentHash string, opts PreviewKeyOpts) string {
	return hashKey("preview", contentHash, opts)
}

// String identifies the keyer in debug logs.
func (DefaultKeyer) String() string {
	return fmt.Sprintf("%T", DefaultKeyer{})
}
