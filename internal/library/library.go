// Package library keeps the small user-curated lists that live beside
// the record store: named configurations, favorites and the last
// in-progress template.
package library

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vedsharma/apireplay/internal/compose"
	"github.com/vedsharma/apireplay/internal/model"
	"github.com/vedsharma/apireplay/internal/storage"
)

// ErrEmptyName is returned when a configuration is saved without a name.
var ErrEmptyName = errors.New("configuration name is required")

type Library struct {
	mu       sync.Mutex
	cache    storage.Cache
	defaults []model.KeyValue

	now   func() time.Time
	newID func() string
}

// New returns a Library over cache. defaults are the headers merged into
// every template it hands out; nil means compose.DefaultHeaders.
func New(cache storage.Cache, defaults []model.KeyValue) *Library {
	if defaults == nil {
		defaults = compose.DefaultHeaders()
	}
	return &Library{
		cache:    cache,
		defaults: defaults,
		now:      time.Now,
		newID:    func() string { return uuid.New().String() },
	}
}

// Defaults returns the default headers in use.
func (l *Library) Defaults() []model.KeyValue {
	return append([]model.KeyValue(nil), l.defaults...)
}

// Hydrate fills the fields older or partial snapshots leave out and
// merges the default headers.
func (l *Library) Hydrate(tpl model.Template) model.Template {
	out := tpl.Clone()
	if strings.Contains(out.URLBase, "?") {
		base, params := compose.SplitURL(out.URLBase)
		out.URLBase = base
		out.Params = append(out.Params, params...)
	}
	if out.Method == "" {
		out.Method = model.MethodGet
	}
	if len(out.Params) == 0 {
		out.Params = []model.KeyValue{{Enabled: true}}
	}
	if out.Headers == nil {
		out.Headers = []model.KeyValue{}
	}
	if out.Variables == nil {
		out.Variables = []model.Variable{}
	}
	out.Headers = compose.MergeDefaultHeaders(out.Headers, l.defaults)
	return out
}

// storedTemplate accepts snapshots written before urlBase existed, which
// kept the full URL under "url".
type storedTemplate struct {
	model.Template
	URL string `json:"url,omitempty"`
}

func (s storedTemplate) template() model.Template {
	tpl := s.Template
	if tpl.URLBase == "" && s.URL != "" {
		base, params := compose.SplitURL(s.URL)
		tpl.URLBase = base
		if len(tpl.Params) == 0 {
			tpl.Params = params
		}
	}
	return tpl
}

// LoadSession returns the last in-progress template, or a fresh one.
func (l *Library) LoadSession() (model.Template, error) {
	var stored storedTemplate
	ok, err := storage.GetJSON(l.cache, storage.KeyTemplate, &stored)
	if err != nil {
		return l.Hydrate(model.NewTemplate()), fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return l.Hydrate(model.NewTemplate()), nil
	}
	return l.Hydrate(stored.template()), nil
}

// SaveSession stores tpl as the in-progress template.
func (l *Library) SaveSession(tpl model.Template) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return storage.SetJSON(l.cache, storage.KeyTemplate, tpl)
}
