package ui

import (
	"errors"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ivlev/slideshow/internal/config"
)

type field int

const (
	fieldFolder field = iota
	fieldInterval
	fieldShuffle
	fieldMode
	fieldEffect
	fieldCount
)

type editorAcceptMsg struct {
	settings config.Settings
}

type editorCancelMsg struct{}

// editor is the settings form shown while the slideshow is paused.
type editor struct {
	folder   textinput.Model
	interval textinput.Model
	shuffle  bool
	mode     config.TransitionMode
	effect   config.TransitionEffect
	focus    field
	err      string
	styles   Styles
}

func newEditor(s config.Settings, styles Styles) editor {
	folder := textinput.New()
	folder.Prompt = ""
	folder.CharLimit = 1024
	folder.Width = 48
	folder.SetValue(s.ImageFolderPath)
	folder.Focus()

	interval := textinput.New()
	interval.Prompt = ""
	interval.CharLimit = 6
	interval.Width = 8
	interval.SetValue(strconv.Itoa(s.ImageDisplayTimeSeconds))

	return editor{
		folder:   folder,
		interval: interval,
		shuffle:  s.Shuffle,
		mode:     s.TransitionMode,
		effect:   s.TransitionEffect,
		styles:   styles,
	}
}

func (e editor) Update(msg tea.Msg) (editor, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return e.updateInputs(msg)
	}

	switch key.String() {
	case "esc":
		return e, dispatch(editorCancelMsg{})
	case "enter":
		s, err := e.settings()
		if err != nil {
			e.err = err.Error()
			return e, nil
		}
		return e, dispatch(editorAcceptMsg{settings: s})
	case "tab", "down":
		return e.focusField((e.focus + 1) % fieldCount), nil
	case "shift+tab", "up":
		return e.focusField((e.focus + fieldCount - 1) % fieldCount), nil
	}

	switch e.focus {
	case fieldShuffle:
		switch key.String() {
		case " ", "left", "right", "h", "l":
			e.shuffle = !e.shuffle
		}
		return e, nil
	case fieldMode:
		if step := cycleStep(key); step != 0 {
			e.mode = cycle(config.TransitionModes(), e.mode, step)
		}
		return e, nil
	case fieldEffect:
		if step := cycleStep(key); step != 0 {
			e.effect = cycle(config.TransitionEffects(), e.effect, step)
		}
		return e, nil
	}
	return e.updateInputs(msg)
}

func (e editor) updateInputs(msg tea.Msg) (editor, tea.Cmd) {
	var cmd tea.Cmd
	switch e.focus {
	case fieldFolder:
		e.folder, cmd = e.folder.Update(msg)
	case fieldInterval:
		e.interval, cmd = e.interval.Update(msg)
	}
	return e, cmd
}

func (e editor) focusField(f field) editor {
	e.focus = f
	e.folder.Blur()
	e.interval.Blur()
	switch f {
	case fieldFolder:
		e.folder.Focus()
	case fieldInterval:
		e.interval.Focus()
	}
	return e
}

// settings validates the form.
func (e editor) settings() (config.Settings, error) {
	secs, err := strconv.Atoi(strings.TrimSpace(e.interval.Value()))
	if err != nil || secs <= 0 {
		return config.Settings{}, errors.New("display time must be a whole number of seconds above zero")
	}
	s := config.Settings{
		ImageFolderPath:         strings.TrimSpace(e.folder.Value()),
		ImageDisplayTimeSeconds: secs,
		Shuffle:                 e.shuffle,
		TransitionMode:          e.mode,
		TransitionEffect:        e.effect,
	}
	if s.ImageFolderPath == "" {
		s.ImageFolderPath = config.DefaultImageFolder
	}
	return s, s.Validate()
}

func (e editor) View() string {
	row := func(f field, label, value string) string {
		style := e.styles.Label
		if e.focus == f {
			style = e.styles.ActiveLabel
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, style.Render(label), e.styles.Value.Render(value))
	}

	shuffle := "off"
	if e.shuffle {
		shuffle = "on"
	}

	rows := []string{
		e.styles.Title.Render("Slideshow settings"),
		row(fieldFolder, "Folder", e.folder.View()),
		row(fieldInterval, "Seconds", e.interval.View()),
		row(fieldShuffle, "Shuffle", "‹ "+shuffle+" ›"),
		row(fieldMode, "Mode", "‹ "+e.mode.String()+" ›"),
		row(fieldEffect, "Effect", "‹ "+e.effect.String()+" ›"),
	}
	if e.err != "" {
		rows = append(rows, "", e.styles.Error.Render(e.err))
	}
	rows = append(rows, e.styles.Hint.Render("tab move · ←/→ change · enter save · esc cancel"))

	return e.styles.Panel.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func cycleStep(key tea.KeyMsg) int {
	switch key.String() {
	case "right", "l", " ":
		return 1
	case "left", "h":
		return -1
	}
	return 0
}

func cycle[T comparable](all []T, cur T, step int) T {
	i := slices.Index(all, cur)
	if i < 0 {
		return all[0]
	}
	n := len(all)
	return all[((i+step)%n+n)%n]
}

func dispatch(msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return msg
	}
}
