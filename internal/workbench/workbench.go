// Package workbench is the service behind both the command line and the
// HTTP API. It owns the in-progress template session and routes every
// send through the pipeline.
package workbench

import (
	"context"
	"errors"
	"fmt"

	"github.com/vedsharma/apireplay/internal/compose"
	"github.com/vedsharma/apireplay/internal/history"
	"github.com/vedsharma/apireplay/internal/library"
	"github.com/vedsharma/apireplay/internal/model"
	"github.com/vedsharma/apireplay/internal/pipeline"
	"github.com/vedsharma/apireplay/internal/snippet"
)

// ErrNotFound is returned when a record or configuration does not exist.
var ErrNotFound = errors.New("not found")

// RecordStore is the durable record store.
type RecordStore interface {
	pipeline.Store
	List(ctx context.Context) ([]model.Record, error)
	Get(ctx context.Context, id int64) (*model.Record, error)
	Delete(ctx context.Context, id int64) error
	Clear(ctx context.Context) error
	UpdateResponse(ctx context.Context, id int64, payload model.Payload) (bool, error)
	Import(ctx context.Context, recs []model.Record) (int, error)
}

type Workbench struct {
	pipeline *pipeline.Pipeline
	records  RecordStore
	library  *library.Library
}

func New(p *pipeline.Pipeline, records RecordStore, lib *library.Library) *Workbench {
	return &Workbench{pipeline: p, records: records, library: lib}
}

// Session returns the in-progress template.
func (w *Workbench) Session() (model.Template, error) {
	return w.library.LoadSession()
}

// SaveSession replaces the in-progress template.
func (w *Workbench) SaveSession(tpl model.Template) error {
	return w.library.SaveSession(tpl)
}

// ResetSession replaces the in-progress template with a blank one.
func (w *Workbench) ResetSession() (model.Template, error) {
	tpl := w.library.Hydrate(model.NewTemplate())
	return tpl, w.library.SaveSession(tpl)
}

// Hydrate normalizes a freshly authored template the way stored ones
// are loaded: query split out of the URL, default headers merged.
func (w *Workbench) Hydrate(tpl model.Template) model.Template {
	return w.library.Hydrate(tpl)
}

// Send remembers tpl as the session and submits it.
func (w *Workbench) Send(ctx context.Context, tpl model.Template) (pipeline.Outcome, error) {
	if err := w.library.SaveSession(tpl); err != nil {
		return pipeline.Outcome{}, err
	}
	return w.pipeline.Submit(ctx, tpl)
}

// SendSession submits the in-progress template.
func (w *Workbench) SendSession(ctx context.Context) (pipeline.Outcome, error) {
	tpl, err := w.library.LoadSession()
	if err != nil {
		return pipeline.Outcome{}, err
	}
	return w.pipeline.Submit(ctx, tpl)
}

// Records returns the records matching q, newest first.
func (w *Workbench) Records(ctx context.Context, q history.Query) ([]model.Record, error) {
	all, err := w.records.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return history.Filter(history.SortNewestFirst(all), q)
}

// Record returns one record.
func (w *Workbench) Record(ctx context.Context, id int64) (model.Record, error) {
	rec, err := w.records.Get(ctx, id)
	if err != nil {
		return model.Record{}, fmt.Errorf("get record %d: %w", id, err)
	}
	if rec == nil {
		return model.Record{}, fmt.Errorf("record %d: %w", id, ErrNotFound)
	}
	return *rec, nil
}

// DeleteRecord removes a record. Deleting a missing id succeeds.
func (w *Workbench) DeleteRecord(ctx context.Context, id int64) error {
	return w.records.Delete(ctx, id)
}

func (w *Workbench) ClearRecords(ctx context.Context) error {
	return w.records.Clear(ctx)
}

// UpdateResponse replaces the captured response of a record.
func (w *Workbench) UpdateResponse(ctx context.Context, id int64, payload model.Payload) error {
	changed, err := w.records.UpdateResponse(ctx, id, payload)
	if err != nil {
		return err
	}
	if !changed {
		return fmt.Errorf("record %d: %w", id, ErrNotFound)
	}
	return nil
}

// Replicate loads a record back into the session as an editable
// template.
func (w *Workbench) Replicate(ctx context.Context, id int64) (model.Template, error) {
	rec, err := w.Record(ctx, id)
	if err != nil {
		return model.Template{}, err
	}
	tpl := w.library.Hydrate(compose.FromRecord(rec))
	if err := w.library.SaveSession(tpl); err != nil {
		return model.Template{}, err
	}
	return tpl, nil
}

// Resend replicates a record and submits it again, producing a new record.
// A record holds the request after its prescript ran, so by default the
// prescript is dropped and the request goes out as recorded. With
// rerunPrescript the script runs again over those already mutated values.
func (w *Workbench) Resend(ctx context.Context, id int64, rerunPrescript bool) (pipeline.Outcome, error) {
	tpl, err := w.Replicate(ctx, id)
	if err != nil {
		return pipeline.Outcome{}, err
	}
	if !rerunPrescript {
		tpl.Prescript = ""
	}
	return w.pipeline.Submit(ctx, tpl)
}

// SnippetKind selects a generated client snippet.
type SnippetKind string

const (
	SnippetCurl  SnippetKind = "curl"
	SnippetFetch SnippetKind = "fetch"
)

// Snippet renders a record as client code.
func (w *Workbench) Snippet(ctx context.Context, id int64, kind SnippetKind) (string, error) {
	rec, err := w.Record(ctx, id)
	if err != nil {
		return "", err
	}
	switch kind {
	case SnippetCurl:
		return snippet.Curl(rec), nil
	case SnippetFetch:
		return snippet.Fetch(rec), nil
	default:
		return "", fmt.Errorf("unknown snippet kind %q", kind)
	}
}

// Diff compares the responses of two records.
func (w *Workbench) Diff(ctx context.Context, a, b int64) (string, error) {
	left, err := w.Record(ctx, a)
	if err != nil {
		return "", err
	}
	right, err := w.Record(ctx, b)
	if err != nil {
		return "", err
	}
	return history.Diff(left, right), nil
}

// Collections counts records per collection label.
func (w *Workbench) Collections(ctx context.Context) ([]history.CollectionCount, error) {
	all, err := w.records.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return history.Collections(all), nil
}
