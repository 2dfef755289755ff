package preview

import "image"

// Panel holds one resized, independently owned image plus a cached
// terminal rendering of it.
type Panel struct {
	Title string
	size  int
	img   *image.NRGBA

	ansi     string
	ansiCols int
	ansiRows int
}

// NewPanel creates an empty panel of the given pixel size.
func NewPanel(title string, size int) *Panel {
	if size <= 0 {
		size = DefaultSize
	}
	return &Panel{Title: title, size: size}
}

// Set replaces the panel content with a resized copy of img.
func (p *Panel) Set(img image.Image) {
	p.img = Fit(img, p.size)
	p.ansi = ""
}

// Clear empties the panel.
func (p *Panel) Clear() {
	p.img = nil
	p.ansi = ""
}

// Image returns the panel's resized copy, or nil when empty.
func (p *Panel) Image() *image.NRGBA { return p.img }

// Empty reports whether nothing has been shown yet.
func (p *Panel) Empty() bool { return p.img == nil }

// ANSI returns the panel as a cols×rows terminal thumbnail.
func (p *Panel) ANSI(cols, rows int) string {
	if p.img == nil {
		return ""
	}
	if p.ansi == "" || p.ansiCols != cols || p.ansiRows != rows {
		p.ansi = ANSI(p.img, cols, rows)
		p.ansiCols, p.ansiRows = cols, rows
	}
	return p.ansi
}

// Display is the two-panel surface an interactive session draws on.
// It is meant for a single goroutine, like the session itself.
type Display struct {
	Original *Panel
	Sketch   *Panel
	size     int
}

// NewDisplay creates a display whose panels are size×size pixels.
func NewDisplay(size int) *Display {
	if size <= 0 {
		size = DefaultSize
	}
	return &Display{
		Original: NewPanel(TitleOriginal, size),
		Sketch:   NewPanel(TitleSketch, size),
		size:     size,
	}
}

// ShowOriginal replaces the original panel. A nil image clears it.
func (d *Display) ShowOriginal(img *image.NRGBA) {
	if img == nil {
		d.Original.Clear()
		return
	}
	d.Original.Set(img)
}

// ShowSketch replaces the sketch panel. A nil image clears it.
func (d *Display) ShowSketch(img *image.Gray) {
	if img == nil {
		d.Sketch.Clear()
		return
	}
	d.Sketch.Set(img)
}

// Size returns the panel side in pixels.
func (d *Display) Size() int { return d.size }

// Snapshot composes both panels into a single image.
func (d *Display) Snapshot() *image.NRGBA {
	var orig, sk image.Image
	if d.Original.img != nil {
		orig = d.Original.img
	}
	if d.Sketch.img != nil {
		sk = d.Sketch.img
	}
	return SideBySide(orig, sk, d.size)
}
