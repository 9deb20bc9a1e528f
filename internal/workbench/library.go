package workbench

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vedsharma/apireplay/internal/model"
	"github.com/vedsharma/apireplay/internal/pipeline"
)

func (w *Workbench) Configs() ([]model.Configuration, error) {
	return w.library.Configs()
}

// SaveConfig snapshots the session under name.
func (w *Workbench) SaveConfig(name string) (model.Configuration, error) {
	tpl, err := w.library.LoadSession()
	if err != nil {
		return model.Configuration{}, err
	}
	return w.library.SaveConfig(name, tpl)
}

// SaveConfigFrom snapshots tpl under name.
func (w *Workbench) SaveConfigFrom(name string, tpl model.Template) (model.Configuration, error) {
	return w.library.SaveConfig(name, tpl)
}

func (w *Workbench) findConfig(ref string) (model.Configuration, error) {
	cfg, err := w.library.FindConfig(ref)
	if err != nil {
		return model.Configuration{}, err
	}
	if cfg == nil {
		return model.Configuration{}, fmt.Errorf("configuration %q: %w", ref, ErrNotFound)
	}
	return *cfg, nil
}

// LoadConfig makes a saved configuration the session. ref is an id or a
// name.
func (w *Workbench) LoadConfig(ref string) (model.Template, error) {
	cfg, err := w.findConfig(ref)
	if err != nil {
		return model.Template{}, err
	}
	tpl := w.library.LoadConfig(cfg)
	if err := w.library.SaveSession(tpl); err != nil {
		return model.Template{}, err
	}
	return tpl, nil
}

// DeleteConfig removes a configuration by id or name.
func (w *Workbench) DeleteConfig(ref string) (model.Configuration, error) {
	cfg, err := w.findConfig(ref)
	if err != nil {
		return model.Configuration{}, err
	}
	if _, err := w.library.DeleteConfig(cfg.ID); err != nil {
		return model.Configuration{}, err
	}
	return cfg, nil
}

func (w *Workbench) Favorites() ([]model.Record, error) {
	return w.library.Favorites()
}

// ToggleFavorite stars or unstars a record. A favorite whose record was
// deleted can still be unstarred.
func (w *Workbench) ToggleFavorite(ctx context.Context, id int64) (bool, error) {
	rec, err := w.records.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if rec == nil {
		starred, err := w.library.IsFavorite(id)
		if err != nil {
			return false, err
		}
		if !starred {
			return false, fmt.Errorf("record %d: %w", id, ErrNotFound)
		}
		return w.library.ToggleFavorite(model.Record{ID: id})
	}
	return w.library.ToggleFavorite(*rec)
}

// RunResult is the outcome of one configuration in a collection run.
type RunResult struct {
	Config  model.Configuration
	Outcome pipeline.Outcome
	Err     error
}

// RunCollection submits every saved configuration labeled collection,
// up to parallel at a time. Each run is independent: a failing
// configuration is reported in its result and does not stop the others.
// Results follow the configuration list order.
func (w *Workbench) RunCollection(ctx context.Context, collection string, parallel int) ([]RunResult, error) {
	configs, err := w.library.ConfigsInCollection(collection)
	if err != nil {
		return nil, err
	}
	if len(configs) == 0 {
		return nil, fmt.Errorf("collection %q: %w", collection, ErrNotFound)
	}
	if parallel < 1 {
		parallel = 1
	}

	results := make([]RunResult, len(configs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i, cfg := range configs {
		g.Go(func() error {
			outcome, err := w.pipeline.Submit(gctx, w.library.LoadConfig(cfg))
			results[i] = RunResult{Config: cfg, Outcome: outcome, Err: err}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
