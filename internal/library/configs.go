package library

import (
	"bytes"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/vedsharma/apireplay/internal/model"
	"github.com/vedsharma/apireplay/internal/storage"
)

func decodeConfigs(data []byte) ([]model.Configuration, error) {
	var stored []struct {
		model.Configuration
		URL string `json:"url,omitempty"`
	}
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, err
	}
	configs := make([]model.Configuration, len(stored))
	for i, s := range stored {
		cfg := s.Configuration
		cfg.Template = storedTemplate{Template: cfg.Template, URL: s.URL}.template()
		configs[i] = cfg
	}
	return configs, nil
}

// Configs returns the saved configurations, most recent first.
func (l *Library) Configs() ([]model.Configuration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.configsLocked()
}

func (l *Library) configsLocked() ([]model.Configuration, error) {
	data, ok, err := l.cache.Get(storage.KeyConfigs)
	if err != nil {
		return nil, fmt.Errorf("load configs: %w", err)
	}
	if !ok {
		return []model.Configuration{}, nil
	}
	configs, err := decodeConfigs(data)
	if err != nil {
		return nil, fmt.Errorf("load configs: %w", err)
	}
	return configs, nil
}

// SaveConfig snapshots tpl under name and prepends it. A blank name is
// rejected and nothing is written.
func (l *Library) SaveConfig(name string, tpl model.Template) (model.Configuration, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return model.Configuration{}, ErrEmptyName
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	configs, err := l.configsLocked()
	if err != nil {
		return model.Configuration{}, err
	}
	cfg := model.Configuration{
		ID:       l.newID(),
		Name:     name,
		Date:     l.now(),
		Template: tpl.Clone(),
	}
	configs = append([]model.Configuration{cfg}, configs...)
	if err := storage.SetJSON(l.cache, storage.KeyConfigs, configs); err != nil {
		return model.Configuration{}, err
	}
	return cfg, nil
}

// FindConfig looks a configuration up by id, then by exact name. The most
// recent name match wins. It returns nil when nothing matches.
func (l *Library) FindConfig(ref string) (*model.Configuration, error) {
	configs, err := l.Configs()
	if err != nil {
		return nil, err
	}
	for i := range configs {
		if configs[i].ID == ref {
			return &configs[i], nil
		}
	}
	for i := range configs {
		if configs[i].Name == ref {
			return &configs[i], nil
		}
	}
	return nil, nil
}

// DeleteConfig removes the first configuration with id and reports
// whether one was removed.
func (l *Library) DeleteConfig(id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	configs, err := l.configsLocked()
	if err != nil {
		return false, err
	}
	for i, cfg := range configs {
		if cfg.ID == id {
			kept := append(configs[:i:i], configs[i+1:]...)
			return true, storage.SetJSON(l.cache, storage.KeyConfigs, kept)
		}
	}
	return false, nil
}

// LoadConfig rehydrates a saved configuration into an editable template.
func (l *Library) LoadConfig(cfg model.Configuration) model.Template {
	return l.Hydrate(cfg.Template)
}

// ConfigsInCollection returns the configurations labeled with collection.
func (l *Library) ConfigsInCollection(collection string) ([]model.Configuration, error) {
	configs, err := l.Configs()
	if err != nil {
		return nil, err
	}
	matched := []model.Configuration{}
	for _, cfg := range configs {
		if cfg.Collection == collection {
			matched = append(matched, cfg)
		}
	}
	return matched, nil
}

// ExportConfigs serializes every configuration as a JSON array.
func (l *Library) ExportConfigs() ([]byte, error) {
	configs, err := l.Configs()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(configs, "", "  ")
}

// ExportConfigsYAML is ExportConfigs rendered as YAML.
func (l *Library) ExportConfigsYAML() ([]byte, error) {
	doc, err := l.ExportConfigs()
	if err != nil {
		return nil, err
	}
	var generic any
	if err := json.Unmarshal(doc, &generic); err != nil {
		return nil, err
	}
	return yaml.Marshal(generic)
}

// ImportConfigs prepends the configurations in doc ahead of the existing
// ones, without deduplication. A document that is not a JSON array of
// configurations is ignored: the existing list comes back with zero
// imported and no error.
func (l *Library) ImportConfigs(doc []byte) ([]model.Configuration, int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	existing, err := l.configsLocked()
	if err != nil {
		return nil, 0, err
	}

	trimmed := bytes.TrimSpace(doc)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return existing, 0, nil
	}
	imported, err := decodeConfigs(trimmed)
	if err != nil {
		return existing, 0, nil
	}
	// Names may repeat but ids stay unique: an imported id already in
	// use gets a fresh one.
	taken := make(map[string]bool, len(existing)+len(imported))
	for _, cfg := range existing {
		taken[cfg.ID] = true
	}
	for i := range imported {
		if imported[i].ID == "" || taken[imported[i].ID] {
			imported[i].ID = l.newID()
		}
		taken[imported[i].ID] = true
		if imported[i].Date.IsZero() {
			imported[i].Date = l.now()
		}
	}

	merged := append(imported, existing...)
	if err := storage.SetJSON(l.cache, storage.KeyConfigs, merged); err != nil {
		return nil, 0, err
	}
	return merged, len(imported), nil
}
