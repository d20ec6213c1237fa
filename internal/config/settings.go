package config

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// TransitionMode selects the family of transition played between two images.
type TransitionMode int

const (
	FullReplace TransitionMode = iota
	PartialOverlay
	Slide
	Scale
	Rotate
)

var modeNames = []string{"FullReplace", "PartialOverlay", "Slide", "Scale", "Rotate"}

// TransitionModes lists every mode in declaration order.
func TransitionModes() []TransitionMode {
	return []TransitionMode{FullReplace, PartialOverlay, Slide, Scale, Rotate}
}

func (m TransitionMode) String() string {
	if m < 0 || int(m) >= len(modeNames) {
		return fmt.Sprintf("TransitionMode(%d)", int(m))
	}
	return modeNames[m]
}

func (m TransitionMode) Valid() bool {
	return m >= 0 && int(m) < len(modeNames)
}

func (m TransitionMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("invalid transition mode %d", int(m))
	}
	return []byte(m.String()), nil
}

func (m *TransitionMode) UnmarshalText(text []byte) error {
	v, err := ParseTransitionMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ParseTransitionMode matches a mode name case-insensitively.
func ParseTransitionMode(s string) (TransitionMode, error) {
	name := strings.TrimSpace(s)
	for i, n := range modeNames {
		if strings.EqualFold(n, name) {
			return TransitionMode(i), nil
		}
	}
	return 0, fmt.Errorf("unknown transition mode %q", s)
}

// TransitionEffect refines FullReplace transitions.
type TransitionEffect int

const (
	Fade TransitionEffect = iota
	SlideLeft
	SlideRight
	ZoomIn
	ZoomOut
	RotateEffect
)

var effectNames = []string{"Fade", "SlideLeft", "SlideRight", "ZoomIn", "ZoomOut", "Rotate"}

// TransitionEffects lists every effect in declaration order.
func TransitionEffects() []TransitionEffect {
	return []TransitionEffect{Fade, SlideLeft, SlideRight, ZoomIn, ZoomOut, RotateEffect}
}

func (e TransitionEffect) String() string {
	if e < 0 || int(e) >= len(effectNames) {
		return fmt.Sprintf("TransitionEffect(%d)", int(e))
	}
	return effectNames[e]
}

func (e TransitionEffect) Valid() bool {
	return e >= 0 && int(e) < len(effectNames)
}

func (e TransitionEffect) MarshalText() ([]byte, error) {
	if !e.Valid() {
		return nil, fmt.Errorf("invalid transition effect %d", int(e))
	}
	return []byte(e.String()), nil
}

func (e *TransitionEffect) UnmarshalText(text []byte) error {
	v, err := ParseTransitionEffect(string(text))
	if err != nil {
		return err
	}
	*e = v
	return nil
}

// ParseTransitionEffect matches an effect name case-insensitively.
func ParseTransitionEffect(s string) (TransitionEffect, error) {
	name := strings.TrimSpace(s)
	for i, n := range effectNames {
		if strings.EqualFold(n, name) {
			return TransitionEffect(i), nil
		}
	}
	return 0, fmt.Errorf("unknown transition effect %q", s)
}

const (
	DefaultImageFolder  = "~/Pictures"
	DefaultDisplayTime  = 5
	DefaultShuffle      = true
	DefaultMode         = FullReplace
	DefaultEffect       = Fade
	defaultSettingsName = "settings.yaml"
)

// MaxDisplayTimeSeconds is the longest display time a time.Duration can hold.
const MaxDisplayTimeSeconds = math.MaxInt64 / int64(time.Second)

// Settings is the persisted slideshow configuration.
type Settings struct {
	ImageFolderPath         string           `json:"imageFolderPath" yaml:"imageFolderPath" toml:"imageFolderPath"`
	ImageDisplayTimeSeconds int              `json:"imageDisplayTimeSeconds" yaml:"imageDisplayTimeSeconds" toml:"imageDisplayTimeSeconds"`
	Shuffle                 bool             `json:"shuffle" yaml:"shuffle" toml:"shuffle"`
	TransitionMode          TransitionMode   `json:"transitionMode" yaml:"transitionMode" toml:"transitionMode"`
	TransitionEffect        TransitionEffect `json:"transitionEffect" yaml:"transitionEffect" toml:"transitionEffect"`
}

// Defaults returns the settings used when nothing valid is on disk.
func Defaults() Settings {
	return Settings{
		ImageFolderPath:         DefaultImageFolder,
		ImageDisplayTimeSeconds: DefaultDisplayTime,
		Shuffle:                 DefaultShuffle,
		TransitionMode:          DefaultMode,
		TransitionEffect:        DefaultEffect,
	}
}

// Validate reports the first field that makes s unusable.
func (s Settings) Validate() error {
	if s.ImageDisplayTimeSeconds <= 0 {
		return fmt.Errorf("imageDisplayTimeSeconds must be positive, got %d", s.ImageDisplayTimeSeconds)
	}
	if int64(s.ImageDisplayTimeSeconds) > MaxDisplayTimeSeconds {
		return fmt.Errorf("imageDisplayTimeSeconds must be at most %d, got %d", MaxDisplayTimeSeconds, s.ImageDisplayTimeSeconds)
	}
	if !s.TransitionMode.Valid() {
		return fmt.Errorf("invalid transitionMode %d", int(s.TransitionMode))
	}
	if !s.TransitionEffect.Valid() {
		return fmt.Errorf("invalid transitionEffect %d", int(s.TransitionEffect))
	}
	return nil
}

// Interval is the time each image stays on screen. Out-of-range values
// saturate instead of wrapping.
func (s Settings) Interval() time.Duration {
	secs := int64(s.ImageDisplayTimeSeconds)
	switch {
	case secs <= 0:
		return 0
	case secs > MaxDisplayTimeSeconds:
		return time.Duration(MaxDisplayTimeSeconds) * time.Second
	}
	return time.Duration(secs) * time.Second
}
