package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Store loads and saves Settings at a fixed path.
type Store struct {
	path   string
	codec  codec
	logger *slog.Logger
}

// NewStore returns a store for path. An empty path selects DefaultPath.
func NewStore(path string, logger *slog.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath()
	}
	resolved, err := ExpandPath(path)
	if err != nil {
		return nil, fmt.Errorf("resolve settings path: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: resolved, codec: codecFor(resolved), logger: logger}, nil
}

// DefaultPath is settings.yaml next to the running executable, or in the
// working directory when the executable cannot be located.
func DefaultPath() string {
	exe, err := os.Executable()
	if err != nil {
		return defaultSettingsName
	}
	return filepath.Join(filepath.Dir(exe), defaultSettingsName)
}

// Path returns the resolved file path.
func (st *Store) Path() string {
	return st.path
}

// Load returns the persisted settings. Anything unreadable is replaced by
// Defaults, which are written back immediately.
func (st *Store) Load() Settings {
	s, repaired, err := st.read()
	if err == nil {
		if repaired {
			st.logger.Info("settings folder blank, using default", "path", st.path, "folder", s.ImageFolderPath)
			if err := st.Save(s); err != nil {
				st.logger.Warn("could not persist repaired settings", "path", st.path, "error", err)
			}
		}
		return s
	}

	if errors.Is(err, os.ErrNotExist) {
		st.logger.Info("settings file not found, writing defaults", "path", st.path)
	} else {
		st.logger.Warn("settings file unusable, writing defaults", "path", st.path, "error", err)
	}

	defaults := Defaults()
	if err := st.Save(defaults); err != nil {
		st.logger.Warn("could not persist default settings", "path", st.path, "error", err)
	}
	return defaults
}

// read decodes the file. repaired reports that a blank folder was replaced
// and the file should be written back.
func (st *Store) read() (s Settings, repaired bool, err error) {
	data, err := os.ReadFile(st.path)
	if err != nil {
		return Settings{}, false, err
	}

	s = Defaults()
	if err := st.codec.decode(data, &s); err != nil {
		return Settings{}, false, fmt.Errorf("parse settings: %w", err)
	}
	if strings.TrimSpace(s.ImageFolderPath) == "" {
		s.ImageFolderPath = DefaultImageFolder
		repaired = true
	}
	if err := s.Validate(); err != nil {
		return Settings{}, false, err
	}
	return s, repaired, nil
}

// Save overwrites the settings file, creating its directory when needed.
func (st *Store) Save(s Settings) error {
	if err := s.Validate(); err != nil {
		return fmt.Errorf("refusing to save settings: %w", err)
	}

	data, err := st.codec.encode(s)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	dir := filepath.Dir(st.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*")
	if err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmpName, st.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// ExpandPath turns a leading ~ into the user's home directory and returns an
// absolute path.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") || strings.HasPrefix(trimmed, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, trimmed[1:])
	}
	return filepath.Abs(trimmed)
}
