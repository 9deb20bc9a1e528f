package prescript

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedsharma/apireplay/internal/model"
)

func baseDraft() Draft {
	return Draft{
		URL:     "https://x/1?p=1",
		Method:  model.MethodGet,
		Params:  []model.KeyValue{{Key: "p", Value: "1", Enabled: true}},
		Headers: map[string]string{"Accept": "application/json"},
		Body:    "",
	}
}

func TestNewReturnsNoopForBlankSource(t *testing.T) {
	tr := New("  \n", time.Second)
	_, ok := tr.(Noop)
	assert.True(t, ok)

	d := baseDraft()
	out, err := tr.Apply(context.Background(), d)
	require.NoError(t, err)
	assert.Equal(t, d, out)
}

func TestScriptOverridesEveryField(t *testing.T) {
	tr := New(`return {url: "https://x/2", method: "GET", params: [], headers: {}, body: ""};`, time.Second)

	out, err := tr.Apply(context.Background(), baseDraft())
	require.NoError(t, err)
	assert.Equal(t, "https://x/2", out.URL)
	assert.Equal(t, model.MethodGet, out.Method)
	assert.Empty(t, out.Params)
	assert.Empty(t, out.Headers)
	assert.Equal(t, "", out.Body)
}

func TestScriptMutatesArguments(t *testing.T) {
	src := `
headers["X-Signature"] = "sig-" + params.length;
params.push({key: "page", value: 2});
params.push({key: "debug", value: "1", enabled: false});
return {url: url, method: "post", params: params, headers: headers, body: JSON.stringify({from: method})};
`
	out, err := New(src, time.Second).Apply(context.Background(), baseDraft())
	require.NoError(t, err)

	assert.Equal(t, model.MethodPost, out.Method)
	assert.Equal(t, "sig-1", out.Headers["X-Signature"])
	assert.Equal(t, "application/json", out.Headers["Accept"])
	require.Len(t, out.Params, 3)
	assert.Equal(t, model.KeyValue{Key: "page", Value: "2", Enabled: true}, out.Params[1])
	assert.False(t, out.Params[2].Enabled)
	assert.JSONEq(t, `{"from":"GET"}`, out.Body)
}

func TestScriptAuthoringErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{name: "syntax error", src: `return {url: `, want: "prescript error"},
		{name: "throw", src: `throw new Error("boom")`, want: "boom"},
		{name: "no return", src: `var x = 1;`, want: "must return"},
		{name: "not an object", src: `return "nope"`, want: "expected an object"},
		{name: "missing field", src: `return {url: url, method: method, params: params, headers: headers}`, want: `missing "body"`},
		{name: "bad method", src: `return {url: url, method: "TRACE", params: [], headers: {}, body: ""}`, want: "unsupported method"},
		{name: "params not array", src: `return {url: url, method: method, params: {}, headers: {}, body: ""}`, want: "params must be an array"},
		{name: "numeric body", src: `return {url: url, method: method, params: [], headers: {}, body: 5}`, want: "body must be a string"},
		{name: "throwing getter", src: `return {get url() { throw new Error("getter boom") }, method: method, params: [], headers: {}, body: ""}`, want: "getter boom"},
		{name: "throwing toString", src: `return {url: url, method: {toString() { throw new Error("bad method") }}, params: [], headers: {}, body: ""}`, want: "bad method"},
		{name: "throwing param getter", src: `return {url: url, method: method, params: [{get key() { throw new Error("bad key") }}], headers: {}, body: ""}`, want: "bad key"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.src, time.Second).Apply(context.Background(), baseDraft())
			require.Error(t, err)

			var scriptErr *Error
			require.True(t, errors.As(err, &scriptErr))
			assert.Contains(t, err.Error(), "prescript error")
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestScriptTimeout(t *testing.T) {
	_, err := New(`while (true) {}`, 50*time.Millisecond).Apply(context.Background(), baseDraft())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interrupted")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestScriptTimeoutWhileReadingResult(t *testing.T) {
	src := `return {get url() { while (true) {} }, method: method, params: [], headers: {}, body: ""}`
	_, err := New(src, 50*time.Millisecond).Apply(context.Background(), baseDraft())
	require.Error(t, err)

	var scriptErr *Error
	require.True(t, errors.As(err, &scriptErr))
	assert.Contains(t, err.Error(), "interrupted")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestScriptHasNoHostAccess(t *testing.T) {
	_, err := New(`require("fs"); return {}`, time.Second).Apply(context.Background(), baseDraft())
	require.Error(t, err)

	out, err := New(`console.log("hi", url); return {url, method, params, headers, body: null}`, time.Second).
		Apply(context.Background(), baseDraft())
	require.NoError(t, err)
	assert.Equal(t, "", out.Body)
}
