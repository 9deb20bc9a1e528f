// Package pipeline turns a template into one outbound request and one
// persisted record.
//
// A submission runs substitution, the query builder, the optional
// prescript, the query builder again, the send and the store append in
// strict sequence. Authoring errors stop it before anything is sent.
// Transport failures do not: they are captured in the record.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/vedsharma/apireplay/internal/compose"
	httpclient "github.com/vedsharma/apireplay/internal/http"
	"github.com/vedsharma/apireplay/internal/model"
	"github.com/vedsharma/apireplay/internal/prescript"
)

// Transport issues a resolved request.
type Transport interface {
	Send(ctx context.Context, req httpclient.Request) (*httpclient.Response, error)
}

// Store appends records and assigns their ids.
type Store interface {
	Append(ctx context.Context, rec model.Record) (int64, error)
}

// Outcome is the result of a submission that reached the transport.
type Outcome struct {
	Record model.Record
	// Notice is the transport failure message, empty on success.
	Notice string
}

// Options tune a Pipeline.
type Options struct {
	ScriptTimeout time.Duration
	// RedactHeaders stores sensitive header values as [REDACTED].
	RedactHeaders bool
}

type Pipeline struct {
	transport Transport
	store     Store
	opts      Options

	newTransform func(source string) prescript.Transform
	now          func() time.Time
}

func New(transport Transport, store Store, opts Options) *Pipeline {
	p := &Pipeline{
		transport: transport,
		store:     store,
		opts:      opts,
		now:       time.Now,
	}
	p.newTransform = func(source string) prescript.Transform {
		return prescript.New(source, p.opts.ScriptTimeout)
	}
	return p
}

// Resolve applies variables and the query builder and, when the template
// has a prescript, runs it and rebuilds the URL from what it returned.
func (p *Pipeline) Resolve(ctx context.Context, tpl model.Template) (prescript.Draft, error) {
	sub := compose.NewSubstitutor(tpl.Variables)

	method := tpl.Method
	if method == "" {
		method = model.MethodGet
	}
	params := compose.ActiveParams(sub.Pairs(tpl.Params))
	draft := prescript.Draft{
		URL:     compose.BuildURL(sub.String(tpl.URLBase), params),
		Method:  method,
		Params:  params,
		Headers: compose.ResolveHeaders(sub.Pairs(tpl.Headers)),
		Body:    sub.String(tpl.Body),
	}

	if strings.TrimSpace(tpl.Prescript) == "" {
		return draft, nil
	}

	out, err := p.newTransform(tpl.Prescript).Apply(ctx, draft)
	if err != nil {
		return prescript.Draft{}, err
	}
	out.Params = compose.ActiveParams(out.Params)
	out.URL = compose.BuildURL(compose.StripQuery(out.URL), out.Params)
	if out.Headers == nil {
		out.Headers = map[string]string{}
	}
	return out, nil
}

// Submit resolves tpl, sends it and appends exactly one record. The only
// errors are authoring errors (*prescript.Error) and store failures.
func (p *Pipeline) Submit(ctx context.Context, tpl model.Template) (Outcome, error) {
	draft, err := p.Resolve(ctx, tpl)
	if err != nil {
		return Outcome{}, err
	}

	req := httpclient.Request{
		Method:  string(draft.Method),
		URL:     draft.URL,
		Headers: draft.Headers,
	}
	rec := model.Record{
		URL:        draft.URL,
		Method:     draft.Method,
		Params:     draft.Params,
		Headers:    draft.Headers,
		Tags:       tpl.TagList(),
		Collection: tpl.Collection,
		Prescript:  tpl.Prescript,
		Date:       p.now(),
	}
	if draft.Method.HasBody() {
		body := draft.Body
		req.Body = &body
		rec.Body = &body
	}
	if p.opts.RedactHeaders {
		rec.Headers = RedactHeaders(draft.Headers)
	}

	var out Outcome
	start := time.Now()
	resp, err := p.transport.Send(ctx, req)
	if err != nil {
		slog.Info("request failed", "method", req.Method, "url", req.URL, "error", err)
		rec.Response = model.FailedPayload(err.Error())
		out.Notice = err.Error()
	} else {
		elapsed := time.Since(start).Milliseconds()
		status := resp.StatusCode
		rec.Status = &status
		rec.ResponseTime = &elapsed
		rec.Response = Capture(resp.ContentType, resp.Body)
		slog.Debug("request sent", "method", req.Method, "url", req.URL, "status", status, "elapsed_ms", elapsed)
	}

	id, err := p.store.Append(ctx, rec)
	if err != nil {
		return Outcome{}, fmt.Errorf("save record: %w", err)
	}
	rec.ID = id
	out.Record = rec
	return out, nil
}
