package http

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func strPtr(s string) *string { return &s }

func TestSendGet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "a=1", r.URL.RawQuery)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		body, _ := io.ReadAll(r.Body)
		assert.Empty(t, body)

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Trace", "abc")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	resp, err := NewClient(Options{}).Send(context.Background(), Request{
		Method:  http.MethodGet,
		URL:     srv.URL + "/x?a=1",
		Headers: map[string]string{"Accept": "application/json"},
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "application/json", resp.ContentType)
	assert.Equal(t, "abc", resp.Headers["X-Trace"])
	assert.JSONEq(t, `{"ok":true}`, string(resp.Body))
	assert.False(t, resp.Truncated)
}

func TestSendPostBodyVerbatim(t *testing.T) {
	var got []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = io.ReadAll(r.Body)
		assert.Empty(t, r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	resp, err := NewClient(Options{}).Send(context.Background(), Request{
		Method: http.MethodPost,
		URL:    srv.URL,
		Body:   strPtr(`{"a": 1}`),
	})
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, `{"a": 1}`, string(got))
}

func TestSendTruncatesLargeBodies(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(bytes.Repeat([]byte("x"), 64))
	}))
	defer srv.Close()

	resp, err := NewClient(Options{MaxResponseSize: 10}).Send(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})
	require.NoError(t, err)
	assert.True(t, resp.Truncated)
	assert.Len(t, resp.Body, 10)
}

func TestSendDecodesContentEncoding(t *testing.T) {
	payload := []byte(`{"encoded":true}`)

	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, _ = gw.Write(payload)
	require.NoError(t, gw.Close())

	var br bytes.Buffer
	bw := brotli.NewWriter(&br)
	_, _ = bw.Write(payload)
	require.NoError(t, bw.Close())

	tests := []struct {
		name     string
		encoding string
		body     []byte
	}{
		{name: "gzip", encoding: "gzip", body: gz.Bytes()},
		{name: "brotli", encoding: "br", body: br.Bytes()},
		{name: "identity", encoding: "", body: payload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.encoding != "" {
					w.Header().Set("Content-Encoding", tt.encoding)
				}
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write(tt.body)
			}))
			defer srv.Close()

			resp, err := NewClient(Options{}).Send(context.Background(), Request{
				Method:  http.MethodGet,
				URL:     srv.URL,
				Headers: map[string]string{"Accept-Encoding": "gzip, br"},
			})
			require.NoError(t, err)
			assert.JSONEq(t, string(payload), string(resp.Body))
		})
	}
}

func TestSendCapsDecodedBody(t *testing.T) {
	var gz bytes.Buffer
	gw := gzip.NewWriter(&gz)
	_, _ = gw.Write(bytes.Repeat([]byte("a"), 4<<20))
	require.NoError(t, gw.Close())
	require.Less(t, gz.Len(), 1<<20)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write(gz.Bytes())
	}))
	defer srv.Close()

	resp, err := NewClient(Options{MaxResponseSize: 1 << 20}).Send(context.Background(), Request{
		Method:  http.MethodGet,
		URL:     srv.URL,
		Headers: map[string]string{"Accept-Encoding": "gzip"},
	})
	require.NoError(t, err)
	assert.True(t, resp.Truncated)
	assert.Len(t, resp.Body, 1<<20)
}

func TestSendTranscodesCharset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=iso-8859-1")
		_, _ = w.Write([]byte{'c', 'a', 'f', 0xE9})
	}))
	defer srv.Close()

	resp, err := NewClient(Options{}).Send(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})
	require.NoError(t, err)
	assert.Equal(t, "café", string(resp.Body))
}

func TestSendTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(Options{Timeout: time.Second}).Send(context.Background(), Request{Method: http.MethodGet, URL: url})
	require.Error(t, err)
}

func TestSendRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	c := NewClient(Options{Limiter: rate.NewLimiter(rate.Every(time.Hour), 1)})
	_, err := c.Send(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Send(ctx, Request{Method: http.MethodGet, URL: srv.URL})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limit")
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url     string
		wantErr string
	}{
		{url: "https://api.example.com/v1"},
		{url: "http://192.168.1.10:8080"},
		{url: "ftp://example.com", wantErr: "unsupported URL scheme"},
		{url: "https://", wantErr: "hostname"},
		{url: "http://169.254.169.254/latest/meta-data", wantErr: "metadata"},
		{url: "http://Metadata.Google.Internal/", wantErr: "metadata"},
		{url: "://bad", wantErr: "invalid URL"},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			err := validateURL(tt.url)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestIsPrivateOrReservedHost(t *testing.T) {
	assert.True(t, isPrivateOrReservedHost("10.0.0.1"))
	assert.True(t, isPrivateOrReservedHost("172.20.1.1"))
	assert.False(t, isPrivateOrReservedHost("172.32.1.1"))
	assert.False(t, isPrivateOrReservedHost("8.8.8.8"))
}
