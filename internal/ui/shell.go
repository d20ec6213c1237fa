package ui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/ivlev/slideshow/internal/config"
	"github.com/ivlev/slideshow/internal/engine"
	"github.com/ivlev/slideshow/internal/renderer"
)

const (
	buttonLabel   = "⚙ Settings"
	buttonTimeout = 3 * time.Second
	noImagesText  = "No images found"
)

// Controller is the part of the engine the shell drives.
type Controller interface {
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	ApplySettings(ctx context.Context, s config.Settings) error
	Snapshot(ctx context.Context) (engine.Snapshot, error)
	SetViewport(w, h int)
}

// Options configure the shell.
type Options struct {
	Context    context.Context
	Controller Controller
	Display    *FrameDisplay
	Compositor *renderer.Compositor
	Logger     *slog.Logger
}

type hideButtonMsg struct {
	seq int
}

type editorOpenMsg struct {
	settings config.Settings
	err      error
}

type appliedMsg struct {
	err error
}

// Model is the full-screen slideshow window.
type Model struct {
	ctx        context.Context
	ctrl       Controller
	display    *FrameDisplay
	compositor *renderer.Compositor
	logger     *slog.Logger
	styles     Styles

	width, height int
	frame         renderer.Frame
	picture       string

	buttonVisible bool
	buttonSeq     int

	editor  *editor
	opening bool
	status  string
}

func New(opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Compositor == nil {
		opts.Compositor = renderer.NewCompositor()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return Model{
		ctx:        opts.Context,
		ctrl:       opts.Controller,
		display:    opts.Display,
		compositor: opts.Compositor,
		logger:     opts.Logger,
		styles:     defaultStyles(),
	}
}

func (m Model) Init() tea.Cmd {
	if m.display == nil {
		return nil
	}
	return waitFrame(m.display)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ctrl.SetViewport(m.width, m.height*2)
		m.redraw()
		return m, nil

	case frameMsg:
		m.frame = msg.frame
		m.redraw()
		return m, waitFrame(m.display)

	case hideButtonMsg:
		if msg.seq == m.buttonSeq {
			m.buttonVisible = false
		}
		return m, nil

	case editorOpenMsg:
		m.opening = false
		if msg.err != nil {
			m.logger.Warn("could not open settings", "error", msg.err)
			return m, nil
		}
		e := newEditor(msg.settings, m.styles)
		m.editor = &e
		m.buttonVisible = false
		return m, nil

	case editorAcceptMsg:
		m.editor = nil
		return m, m.apply(msg.settings)

	case editorCancelMsg:
		m.editor = nil
		return m, m.resume()

	case appliedMsg:
		m.status = ""
		if msg.err != nil {
			m.status = "Settings not saved: " + msg.err.Error()
		}
		return m, nil

	case tea.KeyMsg:
		if m.editor != nil {
			e, cmd := m.editor.Update(msg)
			m.editor = &e
			return m, cmd
		}
		return m, tea.Quit

	case tea.MouseMsg:
		if m.editor != nil || m.opening {
			return m, nil
		}
		return m.handleMouse(msg)
	}

	if m.editor != nil {
		e, cmd := m.editor.Update(msg)
		m.editor = &e
		return m, cmd
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch msg.Action {
	case tea.MouseActionMotion:
		m.buttonVisible = true
		m.buttonSeq++
		seq := m.buttonSeq
		return m, tea.Tick(buttonTimeout, func(time.Time) tea.Msg {
			return hideButtonMsg{seq: seq}
		})
	case tea.MouseActionPress:
		if m.buttonVisible && m.onButton(msg.X, msg.Y) {
			m.opening = true
			return m, m.openEditor()
		}
		return m, tea.Quit
	}
	return m, nil
}

// onButton reports whether the cell x,y lies on the settings button, which
// sits in the bottom-right corner.
func (m Model) onButton(x, y int) bool {
	w := lipgloss.Width(m.styles.Button.Render(buttonLabel))
	return y == m.height-1 && x >= m.width-w && x < m.width
}

func (m Model) openEditor() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		if err := ctrl.Pause(ctx); err != nil {
			return editorOpenMsg{err: fmt.Errorf("pause: %w", err)}
		}
		snap, err := ctrl.Snapshot(ctx)
		if err != nil {
			return editorOpenMsg{err: fmt.Errorf("read settings: %w", err)}
		}
		return editorOpenMsg{settings: snap.Settings}
	}
}

func (m Model) apply(s config.Settings) tea.Cmd {
	ctx, ctrl, logger := m.ctx, m.ctrl, m.logger
	return func() tea.Msg {
		err := ctrl.ApplySettings(ctx, s)
		if err != nil && !errors.Is(err, engine.ErrStopped) {
			logger.Warn("apply settings", "error", err)
		}
		return appliedMsg{err: err}
	}
}

func (m Model) resume() tea.Cmd {
	ctx, ctrl, logger := m.ctx, m.ctrl, m.logger
	return func() tea.Msg {
		if err := ctrl.Resume(ctx); err != nil {
			logger.Warn("resume", "error", err)
		}
		return nil
	}
}

// redraw rasterises the current frame at the window size.
func (m *Model) redraw() {
	if m.width <= 0 || m.height <= 0 || m.frame.Empty() {
		m.picture = ""
		return
	}
	img := m.compositor.Render(m.frame, m.width, m.height*2)
	m.picture = rasterize(img, m.width, m.height)
	m.compositor.Release(img)
}

func (m Model) View() string {
	if m.width <= 0 || m.height <= 0 {
		return ""
	}
	if m.editor != nil {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.editor.View())
	}

	if m.picture == "" {
		placard := m.styles.Placard.Render(noImagesText)
		if m.status != "" {
			placard = lipgloss.JoinVertical(lipgloss.Center, placard, m.styles.Error.Render(m.status))
		}
		view := lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, placard)
		return m.overlayBottom(view, false)
	}
	return m.overlayBottom(m.picture, true)
}

// overlayBottom replaces the last line with the status message, when
// withStatus is set, on the left and the settings button on the right while
// it is visible.
func (m Model) overlayBottom(view string, withStatus bool) string {
	status := ""
	if withStatus && m.status != "" {
		status = m.styles.Error.Render(m.status)
	}
	if status == "" && !m.buttonVisible {
		return view
	}

	button := ""
	if m.buttonVisible {
		button = m.styles.Button.Render(buttonLabel)
	}
	room := max(m.width-lipgloss.Width(button), 0)
	if lipgloss.Width(status) > room {
		status = m.styles.Error.Render(ansi.Truncate(m.status, room, "…"))
	}
	pad := max(room-lipgloss.Width(status), 0)

	lines := strings.Split(view, "\n")
	lines[len(lines)-1] = status + strings.Repeat(" ", pad) + button
	return strings.Join(lines, "\n")
}

// Run shows the slideshow until a key press, a click outside the settings
// button, or ctx ending.
func Run(ctx context.Context, opts Options) error {
	opts.Context = ctx
	p := tea.NewProgram(New(opts),
		tea.WithContext(ctx),
		tea.WithAltScreen(),
		tea.WithMouseAllMotion(),
	)
	_, err := p.Run()
	if err != nil && errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
