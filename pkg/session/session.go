// Package session implements the interactive sketch session.
//
// A [Session] holds at most one source image, the current intensity and the
// sketch computed from them. It moves through three states:
//
//	Empty ──LoadImage ok──▶ Loaded ──LoadImage ok──▶ Loaded
//	  │                      │
//	  └────────Close─────────┴──────────▶ Closed
//
// A failed load never changes state: the previous image and sketch stay
// in place. Changing the intensity while Empty only records the value;
// the first successful load uses it.
//
// The session is driven from a single goroutine (the UI loop) and does no
// locking. Buffers are replaced wholesale, never mutated, so images handed
// out by [Session.Source] and [Session.Sketch] stay valid.
//
// # Usage
//
//	s := session.New(session.Options{Codec: imageio.NewCodec(95)})
//	if err := s.LoadImage(ctx, "photo.jpg"); err != nil {
//	    // errors.IsLoadError(err)
//	}
//	s.SetIntensity(ctx, 35)
//	err := s.SaveSketch(ctx, "photo_sketch.png")
package session

import (
	"context"
	"image"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/graphite/pkg/errors"
	"github.com/matzehuels/graphite/pkg/observability"
	"github.com/matzehuels/graphite/pkg/sketch"
)

// State is the lifecycle state of a session.
type State int

const (
	StateEmpty State = iota
	StateLoaded
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateLoaded:
		return "loaded"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Codec reads source images and writes sketches.
type Codec interface {
	Decode(path string) (*image.NRGBA, error)
	Encode(img image.Image, path string) error
}

// Display receives every new original and sketch image.
type Display interface {
	ShowOriginal(img *image.NRGBA)
	ShowSketch(img *image.Gray)
}

// DefaultExtension is appended to save paths that have none.
const DefaultExtension = ".png"

// Options configures a new session.
type Options struct {
	// Codec is required.
	Codec Codec

	// Display is optional.
	Display Display

	// Logger defaults to log.Default().
	Logger *log.Logger

	// Intensity is the starting intensity. Zero means sketch.DefaultIntensity.
	Intensity sketch.Intensity
}

// Session is the interactive sketch state machine.
type Session struct {
	id        string
	codec     Codec
	display   Display
	logger    *log.Logger
	state     State
	intensity sketch.Intensity
	path      string
	source    *image.NRGBA
	sketch    *image.Gray
	lastSaved string
}

// New creates an Empty session.
func New(opts Options) *Session {
	id := uuid.NewString()
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	intensity := opts.Intensity
	if intensity == 0 {
		intensity = sketch.DefaultIntensity
	}
	return &Session{
		id:        id,
		codec:     opts.Codec,
		display:   opts.Display,
		logger:    logger.With("session", id[:8]),
		state:     StateEmpty,
		intensity: intensity.Clamp(),
	}
}

// LoadImage decodes path and makes it the current source. On success the
// sketch is recomputed at the current intensity and the session becomes
// Loaded. On failure a LOAD_FAILED error is returned and nothing changes.
func (s *Session) LoadImage(ctx context.Context, path string) (err error) {
	if s.state == StateClosed {
		return errClosed()
	}
	defer func() { observability.Session().OnLoad(ctx, s.id, path, err) }()

	if s.codec == nil {
		return errors.New(errors.ErrCodeInternal, "session has no codec")
	}
	img, err := s.codec.Decode(path)
	if err != nil {
		s.logger.Debug("load failed", "path", path, "error", err)
		if !errors.IsLoadError(err) {
			err = errors.Wrap(errors.ErrCodeLoad, err, "failed to load image %s", filepath.Base(path))
		}
		return err
	}
	if img == nil || img.Bounds().Empty() {
		s.logger.Debug("load failed", "path", path, "error", "empty image")
		return errors.New(errors.ErrCodeLoad, "failed to load image %s: image is empty", filepath.Base(path))
	}

	s.source = img
	s.path = path
	s.state = StateLoaded
	s.logger.Info("image loaded", "path", path, "width", img.Bounds().Dx(), "height", img.Bounds().Dy())
	if s.display != nil {
		s.display.ShowOriginal(img)
	}
	s.recompute(ctx)
	return nil
}

// SetIntensity clamps v to the valid range and stores it. When an image is
// loaded the sketch is recomputed immediately. The stored value is
// returned. On a closed session nothing happens.
func (s *Session) SetIntensity(ctx context.Context, v int) sketch.Intensity {
	if s.state == StateClosed {
		return s.intensity
	}
	next := sketch.Intensity(v).Clamp()
	if next == s.intensity && s.sketch != nil {
		return next
	}
	s.intensity = next
	observability.Session().OnIntensity(ctx, s.id, int(next))
	if s.state == StateLoaded {
		s.recompute(ctx)
	}
	return next
}

// AdjustIntensity adds delta to the current intensity.
func (s *Session) AdjustIntensity(ctx context.Context, delta int) sketch.Intensity {
	return s.SetIntensity(ctx, int(s.intensity)+delta)
}

// SaveSketch writes the current sketch to path. A path without an
// extension gets DefaultExtension appended. It returns a NO_SKETCH error
// when nothing has been computed yet, in which case nothing is written,
// and a WRITE_FAILED error when path names no file (empty, or ending in a
// separator) or when encoding or writing fails.
func (s *Session) SaveSketch(ctx context.Context, path string) (err error) {
	if s.state == StateClosed {
		return errClosed()
	}
	defer func() { observability.Session().OnSave(ctx, s.id, path, err) }()

	if s.state != StateLoaded || s.sketch == nil {
		return errors.New(errors.ErrCodeNoSketch, "No sketch image to save.")
	}
	if !namesFile(path) {
		return errors.New(errors.ErrCodeWrite, "save path %q is not a file name", path)
	}
	if filepath.Ext(path) == "" {
		path += DefaultExtension
	}
	if err := s.codec.Encode(s.sketch, path); err != nil {
		s.logger.Debug("save failed", "path", path, "error", err)
		if !errors.IsWriteError(err) {
			err = errors.Wrap(errors.ErrCodeWrite, err, "failed to write %s", filepath.Base(path))
		}
		return err
	}
	s.lastSaved = path
	s.logger.Info("sketch saved", "path", path)
	return nil
}

// Close ends the session and drops its buffers. Further loads and saves
// fail; Close itself is idempotent.
func (s *Session) Close() error {
	if s.state == StateClosed {
		return nil
	}
	s.state = StateClosed
	s.source = nil
	s.sketch = nil
	s.logger.Debug("session closed")
	return nil
}

// ID returns the session's unique identifier.
func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() State { return s.state }

// Intensity returns the stored intensity.
func (s *Session) Intensity() sketch.Intensity { return s.intensity }

// Source returns the loaded image, or nil.
func (s *Session) Source() *image.NRGBA { return s.source }

// Sketch returns the current sketch, or nil.
func (s *Session) Sketch() *image.Gray { return s.sketch }

// Path returns the path of the loaded image.
func (s *Session) Path() string { return s.path }

// LastSaved returns the final path of the last successful save.
func (s *Session) LastSaved() string { return s.lastSaved }

func (s *Session) recompute(ctx context.Context) {
	s.sketch = sketch.TransformContext(ctx, s.source, s.intensity)
	s.logger.Debug("sketch computed", "intensity", int(s.intensity), "kernel", s.intensity.KernelSize())
	if s.display != nil {
		s.display.ShowSketch(s.sketch)
	}
}

// namesFile reports whether path has a usable final element, so that
// "out/" is not silently saved as the hidden file "out/.png".
func namesFile(path string) bool {
	if path == "" || os.IsPathSeparator(path[len(path)-1]) {
		return false
	}
	base := filepath.Base(path)
	return base != "." && base != ".."
}

func errClosed() error {
	return errors.New(errors.ErrCodeInternal, "session closed")
}
