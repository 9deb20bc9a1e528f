package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpclient "github.com/vedsharma/apireplay/internal/http"
	"github.com/vedsharma/apireplay/internal/library"
	"github.com/vedsharma/apireplay/internal/model"
	"github.com/vedsharma/apireplay/internal/pipeline"
	"github.com/vedsharma/apireplay/internal/storage"
	"github.com/vedsharma/apireplay/internal/workbench"
)

type testEnv struct {
	api    *httptest.Server
	target *httptest.Server
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	target := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"path":%q}`, r.URL.Path)
	}))
	t.Cleanup(target.Close)

	store, err := storage.Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	p := pipeline.New(httpclient.NewClient(httpclient.Options{}), store, pipeline.Options{})
	wb := workbench.New(p, store, library.New(storage.NewMemoryCache(), nil))

	srv := httptest.NewServer(NewServer(wb, nil))
	t.Cleanup(srv.Close)
	return &testEnv{api: srv, target: target}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.api.URL+path, reader)
	require.NoError(t, err)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, data
}

func (e *testEnv) template(path string) model.Template {
	tpl := model.NewTemplate()
	tpl.URLBase = e.target.URL + path
	return tpl
}

func (e *testEnv) send(t *testing.T, path string) model.Record {
	t.Helper()
	status, data := e.do(t, http.MethodPost, "/api/v1/send", e.template(path))
	require.Equal(t, http.StatusOK, status, string(data))
	var out struct {
		Record model.Record `json:"record"`
	}
	require.NoError(t, json.Unmarshal(data, &out))
	return out.Record
}

func TestSendAndFetchRecord(t *testing.T) {
	env := newTestEnv(t)
	rec := env.send(t, "/users")
	assert.NotZero(t, rec.ID)
	require.NotNil(t, rec.Status)
	assert.Equal(t, 200, *rec.Status)
	assert.Equal(t, model.PayloadStructured, rec.Response.Kind)

	status, data := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/records/%d", rec.ID), nil)
	require.Equal(t, http.StatusOK, status)
	var got model.Record
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, rec.URL, got.URL)
	assert.JSONEq(t, `{"path":"/users"}`, got.Response.String())

	status, data = env.do(t, http.MethodGet, "/api/v1/template", nil)
	require.Equal(t, http.StatusOK, status)
	var session model.Template
	require.NoError(t, json.Unmarshal(data, &session))
	assert.Equal(t, env.target.URL+"/users", session.URLBase)
}

func TestErrorMapping(t *testing.T) {
	env := newTestEnv(t)

	status, _ := env.do(t, http.MethodGet, "/api/v1/records/99", nil)
	assert.Equal(t, http.StatusNotFound, status)

	tpl := env.template("/x")
	tpl.Prescript = "throw new Error('nope')"
	status, data := env.do(t, http.MethodPost, "/api/v1/send", tpl)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, string(data), "prescript error")

	status, _ = env.do(t, http.MethodGet, "/api/v1/records?where=status%20%2B", nil)
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(t, http.MethodPost, "/api/v1/configs", map[string]any{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestListFilterAndDelete(t *testing.T) {
	env := newTestEnv(t)
	first := env.send(t, "/a")
	env.send(t, "/b")

	status, data := env.do(t, http.MethodGet, "/api/v1/records?q=%2Fa", nil)
	require.Equal(t, http.StatusOK, status)
	var list struct {
		Records []model.Record `json:"records"`
	}
	require.NoError(t, json.Unmarshal(data, &list))
	require.Len(t, list.Records, 1)
	assert.Equal(t, first.ID, list.Records[0].ID)

	status, _ = env.do(t, http.MethodDelete, fmt.Sprintf("/api/v1/records/%d", first.ID), nil)
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = env.do(t, http.MethodDelete, "/api/v1/records", nil)
	assert.Equal(t, http.StatusNoContent, status)

	_, data = env.do(t, http.MethodGet, "/api/v1/records", nil)
	require.NoError(t, json.Unmarshal(data, &list))
	assert.Empty(t, list.Records)
}

func TestSnippetAndUpdateResponse(t *testing.T) {
	env := newTestEnv(t)
	rec := env.send(t, "/s")

	status, data := env.do(t, http.MethodGet, fmt.Sprintf("/api/v1/records/%d/snippet?kind=curl", rec.ID), nil)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(data), "curl -X GET")

	status, data = env.do(t, http.MethodPut, fmt.Sprintf("/api/v1/records/%d/response", rec.ID), `{"edited":true}`)
	require.Equal(t, http.StatusOK, status, string(data))
	var got model.Record
	require.NoError(t, json.Unmarshal(data, &got))
	assert.JSONEq(t, `{"edited":true}`, got.Response.String())
}

func TestExportImportRecords(t *testing.T) {
	env := newTestEnv(t)
	env.send(t, "/e")

	status, doc := env.do(t, http.MethodGet, "/api/v1/records/export", nil)
	require.Equal(t, http.StatusOK, status)

	status, data := env.do(t, http.MethodPost, "/api/v1/records/import", string(doc))
	require.Equal(t, http.StatusOK, status, string(data))
	assert.JSONEq(t, `{"imported":1}`, string(data))

	status, data = env.do(t, http.MethodPost, "/api/v1/records/import", "not json")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"imported":0}`, string(data))
}

func TestConfigLifecycle(t *testing.T) {
	env := newTestEnv(t)
	tpl := env.template("/cfg")
	tpl.Collection = "smoke"

	status, data := env.do(t, http.MethodPost, "/api/v1/configs", map[string]any{"name": "users", "template": tpl})
	require.Equal(t, http.StatusCreated, status, string(data))
	var cfg model.Configuration
	require.NoError(t, json.Unmarshal(data, &cfg))
	assert.Equal(t, "users", cfg.Name)

	status, data = env.do(t, http.MethodPost, "/api/v1/configs/users/load", nil)
	require.Equal(t, http.StatusOK, status, string(data))

	status, data = env.do(t, http.MethodPost, "/api/v1/collections/smoke/run?parallel=2", nil)
	require.Equal(t, http.StatusOK, status, string(data))
	var run struct {
		Results []runResultBody `json:"results"`
	}
	require.NoError(t, json.Unmarshal(data, &run))
	require.Len(t, run.Results, 1)
	assert.Empty(t, run.Results[0].Error)
	require.NotNil(t, run.Results[0].Record)

	status, _ = env.do(t, http.MethodPost, "/api/v1/collections/none/run", nil)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = env.do(t, http.MethodDelete, "/api/v1/configs/"+cfg.ID, nil)
	assert.Equal(t, http.StatusOK, status)
	status, _ = env.do(t, http.MethodDelete, "/api/v1/configs/"+cfg.ID, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestToggleFavorite(t *testing.T) {
	env := newTestEnv(t)
	rec := env.send(t, "/fav")
	path := fmt.Sprintf("/api/v1/favorites/%d/toggle", rec.ID)

	status, data := env.do(t, http.MethodPost, path, nil)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"starred":true}`, string(data))

	_, data = env.do(t, http.MethodGet, "/api/v1/favorites", nil)
	var favs struct {
		Favorites []model.Record `json:"favorites"`
	}
	require.NoError(t, json.Unmarshal(data, &favs))
	require.Len(t, favs.Favorites, 1)

	_, data = env.do(t, http.MethodPost, path, nil)
	assert.JSONEq(t, `{"starred":false}`, string(data))
}

func TestOpenAPIDescribesResponseAsAnyValue(t *testing.T) {
	env := newTestEnv(t)
	status, data := env.do(t, http.MethodGet, "/openapi.json", nil)
	require.Equal(t, http.StatusOK, status)

	var doc struct {
		Components struct {
			Schemas map[string]map[string]any `json:"schemas"`
		} `json:"components"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	record, ok := doc.Components.Schemas["Record"]
	require.True(t, ok)
	props, ok := record["properties"].(map[string]any)
	require.True(t, ok)
	response, ok := props["response"].(map[string]any)
	require.True(t, ok)
	if ref, isRef := response["$ref"].(string); isRef {
		response = doc.Components.Schemas[ref[strings.LastIndex(ref, "/")+1:]]
	}

	assert.NotContains(t, response, "properties")
	assert.Contains(t, response["description"], "ERROR: <message>")
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)
	req, err := http.NewRequest(http.MethodOptions, env.api.URL+"/api/v1/records", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "http://localhost:5173", resp.Header.Get("Access-Control-Allow-Origin"))
}
