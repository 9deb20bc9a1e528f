package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/vedsharma/apireplay/internal/model"
)

// SettingsFile is the optional settings document in the data directory.
const SettingsFile = "settings.toml"

type HeaderSetting struct {
	Key   string `toml:"key"`
	Value string `toml:"value"`
}

// Settings are user preferences that do not fit an env var.
type Settings struct {
	DefaultHeaders []HeaderSetting `toml:"default_headers"`
	CORSOrigins    []string        `toml:"cors_origins"`
}

// LoadSettings reads settings.toml from dir. A missing file yields empty
// settings; a malformed one is an error.
func LoadSettings(dir string) (Settings, error) {
	path := filepath.Join(dir, SettingsFile)
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Settings{}, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings %q: %w", path, err)
	}

	var settings Settings
	if err := toml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("parse settings %q: %w", path, err)
	}
	return settings, nil
}

// HeaderDefaults returns the configured default headers, or nil when the
// built-in defaults apply.
func (s Settings) HeaderDefaults() []model.KeyValue {
	if len(s.DefaultHeaders) == 0 {
		return nil
	}
	rows := make([]model.KeyValue, 0, len(s.DefaultHeaders))
	for _, h := range s.DefaultHeaders {
		if h.Key == "" {
			continue
		}
		rows = append(rows, model.KeyValue{Key: h.Key, Value: h.Value, Enabled: true})
	}
	return rows
}
