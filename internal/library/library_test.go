package library

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedsharma/apireplay/internal/model"
	"github.com/vedsharma/apireplay/internal/storage"
)

func newTestLibrary(t *testing.T) (*Library, *storage.MemoryCache) {
	t.Helper()
	cache := storage.NewMemoryCache()
	lib := New(cache, nil)

	clock := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	lib.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	seq := 0
	lib.newID = func() string {
		seq++
		return fmt.Sprintf("cfg-%d", seq)
	}
	return lib, cache
}

func sampleTemplate(url string) model.Template {
	tpl := model.NewTemplate()
	tpl.URLBase = url
	tpl.Variables = []model.Variable{{Key: "id", Value: "7"}}
	return tpl
}

func TestSaveConfigRejectsBlankName(t *testing.T) {
	lib, cache := newTestLibrary(t)

	_, err := lib.SaveConfig("   ", sampleTemplate("https://x"))
	assert.ErrorIs(t, err, ErrEmptyName)

	_, ok, err := cache.Get(storage.KeyConfigs)
	require.NoError(t, err)
	assert.False(t, ok, "nothing is written")
}

func TestSaveConfigPrependsAndFinds(t *testing.T) {
	lib, _ := newTestLibrary(t)

	first, err := lib.SaveConfig("users", sampleTemplate("https://x/users"))
	require.NoError(t, err)
	second, err := lib.SaveConfig("users", sampleTemplate("https://x/users/v2"))
	require.NoError(t, err)
	_, err = lib.SaveConfig("orders", sampleTemplate("https://x/orders"))
	require.NoError(t, err)

	configs, err := lib.Configs()
	require.NoError(t, err)
	require.Len(t, configs, 3)
	assert.Equal(t, []string{"orders", "users", "users"}, []string{configs[0].Name, configs[1].Name, configs[2].Name})

	byName, err := lib.FindConfig("users")
	require.NoError(t, err)
	require.NotNil(t, byName)
	assert.Equal(t, second.ID, byName.ID, "most recent name match wins")

	byID, err := lib.FindConfig(first.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "https://x/users", byID.URLBase)

	missing, err := lib.FindConfig("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestDeleteConfig(t *testing.T) {
	lib, _ := newTestLibrary(t)
	cfg, err := lib.SaveConfig("a", sampleTemplate("https://x"))
	require.NoError(t, err)

	removed, err := lib.DeleteConfig("unknown")
	require.NoError(t, err)
	assert.False(t, removed)

	removed, err = lib.DeleteConfig(cfg.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	configs, err := lib.Configs()
	require.NoError(t, err)
	assert.Empty(t, configs)
}

func TestLoadConfigHydratesOlderSnapshots(t *testing.T) {
	lib, cache := newTestLibrary(t)
	legacy := `[{"id":"old","name":"legacy","date":"2023-01-01T00:00:00Z",
		"url":"https://x/y?a=1&b=two%20words",
		"headers":[{"key":"accept","value":"text/plain"}]}]`
	require.NoError(t, cache.Set(storage.KeyConfigs, []byte(legacy)))

	cfg, err := lib.FindConfig("legacy")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	tpl := lib.LoadConfig(*cfg)
	assert.Equal(t, "https://x/y", tpl.URLBase)
	assert.Equal(t, model.MethodGet, tpl.Method)
	assert.Equal(t, []model.KeyValue{
		{Key: "a", Value: "1", Enabled: true},
		{Key: "b", Value: "two words", Enabled: true},
	}, tpl.Params)
	assert.Equal(t, []model.KeyValue{
		{Key: "accept", Value: "text/plain", Enabled: true},
		{Key: "Content-Type", Value: "application/json", Enabled: true},
	}, tpl.Headers)
	assert.NotNil(t, tpl.Variables)
}

func TestLoadConfigKeepsDisabledUserHeader(t *testing.T) {
	lib, _ := newTestLibrary(t)
	tpl := sampleTemplate("https://x")
	tpl.Headers = []model.KeyValue{{Key: "content-type", Value: "text/xml", Enabled: false}}

	cfg, err := lib.SaveConfig("xml", tpl)
	require.NoError(t, err)

	loaded := lib.LoadConfig(cfg)
	assert.Equal(t, []model.KeyValue{
		{Key: "content-type", Value: "text/xml", Enabled: false},
		{Key: "Accept", Value: "application/json", Enabled: true},
	}, loaded.Headers)
}

func TestExportImportRoundTrip(t *testing.T) {
	src, _ := newTestLibrary(t)
	for _, name := range []string{"a", "b", "c"} {
		_, err := src.SaveConfig(name, sampleTemplate("https://x/"+name))
		require.NoError(t, err)
	}
	original, err := src.Configs()
	require.NoError(t, err)

	doc, err := src.ExportConfigs()
	require.NoError(t, err)

	dst, _ := newTestLibrary(t)
	merged, n, err := dst.ImportConfigs(doc)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	key := func(cfgs []model.Configuration) []string {
		out := make([]string, len(cfgs))
		for i, c := range cfgs {
			out[i] = c.Name + "@" + c.Date.UTC().Format(time.RFC3339Nano)
		}
		return out
	}
	assert.ElementsMatch(t, key(original), key(merged))

	stored, err := dst.Configs()
	require.NoError(t, err)
	assert.Equal(t, key(merged), key(stored))
	assert.Equal(t, original[0].Variables, stored[0].Variables)
}

func TestImportPrependsWithoutDedup(t *testing.T) {
	lib, _ := newTestLibrary(t)
	_, err := lib.SaveConfig("same", sampleTemplate("https://x"))
	require.NoError(t, err)

	merged, n, err := lib.ImportConfigs([]byte(`[{"name":"same","urlBase":"https://y"},{"name":"other","urlBase":"https://z"}]`))
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, merged, 3)
	assert.Equal(t, []string{"same", "other", "same"}, []string{merged[0].Name, merged[1].Name, merged[2].Name})
	assert.NotEmpty(t, merged[0].ID)
	assert.False(t, merged[0].Date.IsZero())
}

func TestReimportKeepsIDsUnique(t *testing.T) {
	lib, _ := newTestLibrary(t)
	cfg, err := lib.SaveConfig("users", sampleTemplate("https://x/users"))
	require.NoError(t, err)

	doc, err := lib.ExportConfigs()
	require.NoError(t, err)
	merged, n, err := lib.ImportConfigs(doc)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.Len(t, merged, 2)
	assert.NotEqual(t, merged[0].ID, merged[1].ID)
	assert.Equal(t, cfg.ID, merged[1].ID)

	deleted, err := lib.DeleteConfig(cfg.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	left, err := lib.Configs()
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "users", left[0].Name)
	assert.Equal(t, merged[0].ID, left[0].ID)
}

func TestImportIgnoresMalformedDocuments(t *testing.T) {
	for _, doc := range []string{``, `{"name":"x"}`, `not json`, `[{"name":`, `"[]"`} {
		t.Run(doc, func(t *testing.T) {
			lib, _ := newTestLibrary(t)
			_, err := lib.SaveConfig("keep", sampleTemplate("https://x"))
			require.NoError(t, err)

			merged, n, err := lib.ImportConfigs([]byte(doc))
			require.NoError(t, err)
			assert.Zero(t, n)
			require.Len(t, merged, 1)
			assert.Equal(t, "keep", merged[0].Name)
		})
	}
}

func TestExportConfigsYAML(t *testing.T) {
	lib, _ := newTestLibrary(t)
	_, err := lib.SaveConfig("users", sampleTemplate("https://x/users"))
	require.NoError(t, err)

	doc, err := lib.ExportConfigsYAML()
	require.NoError(t, err)
	assert.Contains(t, string(doc), "name: users")
	assert.Contains(t, string(doc), "urlBase: https://x/users")
}

func TestToggleFavoriteStoresDeepCopies(t *testing.T) {
	lib, _ := newTestLibrary(t)
	status := 200
	rec := model.Record{
		ID:       4,
		URL:      "https://x",
		Method:   model.MethodGet,
		Headers:  map[string]string{"Accept": "application/json"},
		Status:   &status,
		Response: model.TextPayload("ok"),
	}

	starred, err := lib.ToggleFavorite(rec)
	require.NoError(t, err)
	assert.True(t, starred)

	rec.Headers["Accept"] = "text/plain"
	*rec.Status = 500

	favorites, err := lib.Favorites()
	require.NoError(t, err)
	require.Len(t, favorites, 1)
	assert.Equal(t, "application/json", favorites[0].Headers["Accept"])
	assert.Equal(t, 200, *favorites[0].Status)

	ok, err := lib.IsFavorite(4)
	require.NoError(t, err)
	assert.True(t, ok)

	starred, err = lib.ToggleFavorite(model.Record{ID: 4})
	require.NoError(t, err)
	assert.False(t, starred)

	favorites, err = lib.Favorites()
	require.NoError(t, err)
	assert.Empty(t, favorites)
}

func TestSession(t *testing.T) {
	lib, _ := newTestLibrary(t)

	fresh, err := lib.LoadSession()
	require.NoError(t, err)
	assert.Equal(t, model.MethodGet, fresh.Method)
	require.Len(t, fresh.Headers, 3)
	assert.Equal(t, "Content-Type", fresh.Headers[1].Key)
	assert.Equal(t, "Accept", fresh.Headers[2].Key)

	tpl := sampleTemplate("https://x/session")
	tpl.Method = model.MethodPatch
	tpl.Headers = []model.KeyValue{{Key: "Accept", Value: "text/csv", Enabled: true}}
	require.NoError(t, lib.SaveSession(tpl))

	loaded, err := lib.LoadSession()
	require.NoError(t, err)
	assert.Equal(t, "https://x/session", loaded.URLBase)
	assert.Equal(t, model.MethodPatch, loaded.Method)
	assert.Equal(t, []model.KeyValue{
		{Key: "Accept", Value: "text/csv", Enabled: true},
		{Key: "Content-Type", Value: "application/json", Enabled: true},
	}, loaded.Headers)
}
