package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/graphite/pkg/errors"
	"github.com/matzehuels/graphite/pkg/imageio"
	"github.com/matzehuels/graphite/pkg/preview"
	"github.com/matzehuels/graphite/pkg/session"
	"github.com/matzehuels/graphite/pkg/sketch"
)

// Notification texts shown to the user.
const (
	msgLoadFailed = "Failed to load image."
	msgNoSketch   = "No sketch image to save."
	msgSaved      = "Sketch saved successfully!"
)

var (
	panelTitleStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	panelStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Background(lipgloss.Color("#1e1e1e"))
	promptStyle   = lipgloss.NewStyle().Foreground(colorCyan)
	sliderOnStyle = lipgloss.NewStyle().Foreground(colorCyan)
	helpStyle     = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// SessionModel - Interactive sketch session
// =============================================================================

type inputMode int

const (
	modeNormal inputMode = iota
	modeOpen
	modeSave
)

type noticeKind int

const (
	noticeInfo noticeKind = iota
	noticeSuccess
	noticeError
)

type notice struct {
	kind   noticeKind
	text   string
	detail string
}

// SessionModel is the bubbletea model driving a session.Session.
// All session calls happen inside Update, on bubbletea's goroutine.
type SessionModel struct {
	ctx     context.Context
	session *session.Session
	display *preview.Display

	mode   inputMode
	input  []rune
	notice notice

	width  int
	height int
}

// NewSessionModel creates the model. The display must be the one the
// session was created with.
func NewSessionModel(ctx context.Context, s *session.Session, d *preview.Display) SessionModel {
	return SessionModel{
		ctx:     ctx,
		session: s,
		display: d,
		width:   80,
		height:  24,
		notice:  notice{kind: noticeInfo, text: "Press o to open an image, or paste/drop a path."},
	}
}

func (m SessionModel) Init() tea.Cmd {
	return nil
}

func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	case tea.KeyMsg:
		if m.mode != modeNormal {
			return m.updatePrompt(msg)
		}
		return m.updateNormal(msg)
	}
	return m, nil
}

func (m SessionModel) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Paste {
		m.load(sanitizePath(string(msg.Runes)))
		return m, nil
	}

	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "left", "h":
		m.adjust(-1)
	case "right", "l":
		m.adjust(+1)
	case "[":
		m.adjust(-5)
	case "]":
		m.adjust(+5)
	case "home":
		m.session.SetIntensity(m.ctx, int(sketch.MinIntensity))
	case "end":
		m.session.SetIntensity(m.ctx, int(sketch.MaxIntensity))
	case "o":
		m.mode = modeOpen
		m.input = []rune(m.session.Path())
	case "s":
		if m.session.Sketch() == nil {
			m.notice = notice{kind: noticeError, text: msgNoSketch}
			return m, nil
		}
		m.mode = modeSave
		m.input = []rune(defaultSavePath(m.session.Path()))
	case "p":
		m.writePreview()
	}
	return m, nil
}

func (m SessionModel) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Paste {
		m.input = append(m.input, []rune(sanitizePath(string(msg.Runes)))...)
		return m, nil
	}

	switch msg.Type {
	case tea.KeyCtrlC:
		return m, tea.Quit
	case tea.KeyEsc:
		m.mode = modeNormal
		m.input = nil
	case tea.KeyEnter:
		path := sanitizePath(string(m.input))
		mode := m.mode
		m.mode = modeNormal
		m.input = nil
		if path == "" {
			return m, nil
		}
		if mode == modeOpen {
			m.load(path)
		} else {
			m.save(path)
		}
	case tea.KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	case tea.KeyCtrlU:
		m.input = nil
	case tea.KeySpace:
		m.input = append(m.input, ' ')
	case tea.KeyRunes:
		m.input = append(m.input, msg.Runes...)
	}
	return m, nil
}

func (m *SessionModel) adjust(delta int) {
	v := m.session.AdjustIntensity(m.ctx, delta)
	if m.session.State() != session.StateLoaded {
		m.notice = notice{kind: noticeInfo, text: fmt.Sprintf("Intensity set to %d", v)}
	}
}

func (m *SessionModel) load(path string) {
	if path == "" {
		return
	}
	if err := m.session.LoadImage(m.ctx, path); err != nil {
		m.notice = notice{kind: noticeError, text: msgLoadFailed, detail: errors.UserMessage(err)}
		return
	}
	src := m.session.Source().Bounds()
	m.notice = notice{
		kind: noticeInfo,
		text: fmt.Sprintf("Loaded %s (%d×%d)", filepath.Base(path), src.Dx(), src.Dy()),
	}
}

func (m *SessionModel) save(path string) {
	err := m.session.SaveSketch(m.ctx, path)
	switch {
	case err == nil:
		m.notice = notice{kind: noticeSuccess, text: msgSaved, detail: m.session.LastSaved()}
	case errors.IsNoSketchError(err):
		m.notice = notice{kind: noticeError, text: msgNoSketch}
	default:
		m.notice = notice{kind: noticeError, text: "Failed to save sketch.", detail: errors.UserMessage(err)}
	}
}

func (m *SessionModel) writePreview() {
	if m.session.Sketch() == nil {
		m.notice = notice{kind: noticeError, text: msgNoSketch}
		return
	}
	path := previewPath(m.session.Path())
	if err := imageio.Encode(m.display.Snapshot(), path, imageio.EncodeOptions{}); err != nil {
		m.notice = notice{kind: noticeError, text: "Failed to write preview.", detail: errors.UserMessage(err)}
		return
	}
	m.notice = notice{
		kind:   noticeSuccess,
		text:   fmt.Sprintf("Preview written (%dpx panels)", m.display.Size()),
		detail: path,
	}
}

// =============================================================================
// View
// =============================================================================

func (m SessionModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Graphite"))
	b.WriteString("  ")
	b.WriteString(m.intensityBar())
	b.WriteString("\n\n")

	cols, rows := m.panelSize()
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		renderPanel(m.display.Original, cols, rows),
		" ",
		renderPanel(m.display.Sketch, cols, rows),
	))
	b.WriteString("\n")

	switch m.mode {
	case modeOpen:
		b.WriteString(promptStyle.Render("Open: ") + string(m.input) + "█")
	case modeSave:
		b.WriteString(promptStyle.Render("Save as: ") + string(m.input) + "█")
	default:
		b.WriteString(m.renderNotice())
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.helpLine()))
	return b.String()
}

func (m SessionModel) helpLine() string {
	if m.mode != modeNormal {
		return "⏎ confirm  esc cancel  ctrl+u clear"
	}
	return "←/→ intensity ±1  [/] ±5  o open  s save  p preview  q quit"
}

func (m SessionModel) intensityBar() string {
	const width = 25
	v := int(m.session.Intensity())
	filled := (v - int(sketch.MinIntensity)) * width / int(sketch.MaxIntensity-sketch.MinIntensity)
	bar := sliderOnStyle.Render(strings.Repeat("━", filled)) + StyleDim.Render(strings.Repeat("─", width-filled))
	return fmt.Sprintf("%s %s %s",
		StyleDim.Render("Sketch Intensity"),
		bar,
		StyleNumber.Render(fmt.Sprintf("%2d", v)))
}

func (m SessionModel) renderNotice() string {
	var icon, text string
	switch m.notice.kind {
	case noticeSuccess:
		icon, text = styleIconSuccess.Render(iconSuccess), StyleSuccess.Render(m.notice.text)
	case noticeError:
		icon, text = styleIconError.Render(iconError), StyleError.Render(m.notice.text)
	default:
		icon, text = styleIconInfo.Render(iconInfo), m.notice.text
	}
	line := icon + " " + text
	if m.notice.detail != "" {
		line += " " + StyleDim.Render(m.notice.detail)
	}
	return line
}

// panelSize fits two square thumbnails side by side. A terminal cell
// shows two image rows, so a square of n columns needs n/2 cell rows.
func (m SessionModel) panelSize() (cols, rows int) {
	cols = (m.width - 5) / 2
	rows = m.height - 7
	if cols/2 < rows {
		rows = cols / 2
	}
	if rows*2 < cols {
		cols = rows * 2
	}
	return max(cols, 2), max(rows, 1)
}

func renderPanel(p *preview.Panel, cols, rows int) string {
	var body string
	if p.Empty() {
		body = lipgloss.Place(cols, rows, lipgloss.Center, lipgloss.Center, StyleDim.Render("no image"))
	} else {
		body = p.ANSI(cols, rows)
	}
	return lipgloss.JoinVertical(lipgloss.Center,
		panelTitleStyle.Render(p.Title),
		panelStyle.Render(body),
	)
}
