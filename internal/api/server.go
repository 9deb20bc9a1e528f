// Package api serves the workbench over HTTP for browser front ends.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vedsharma/apireplay/internal/history"
	"github.com/vedsharma/apireplay/internal/library"
	"github.com/vedsharma/apireplay/internal/model"
	"github.com/vedsharma/apireplay/internal/pipeline"
	"github.com/vedsharma/apireplay/internal/prescript"
	"github.com/vedsharma/apireplay/internal/workbench"
)

type Service interface {
	Session() (model.Template, error)
	SaveSession(tpl model.Template) error
	ResetSession() (model.Template, error)
	Send(ctx context.Context, tpl model.Template) (pipeline.Outcome, error)
	SendSession(ctx context.Context) (pipeline.Outcome, error)

	Records(ctx context.Context, q history.Query) ([]model.Record, error)
	Record(ctx context.Context, id int64) (model.Record, error)
	DeleteRecord(ctx context.Context, id int64) error
	ClearRecords(ctx context.Context) error
	UpdateResponse(ctx context.Context, id int64, payload model.Payload) error
	Replicate(ctx context.Context, id int64) (model.Template, error)
	Resend(ctx context.Context, id int64, rerunPrescript bool) (pipeline.Outcome, error)
	Snippet(ctx context.Context, id int64, kind workbench.SnippetKind) (string, error)
	Diff(ctx context.Context, a, b int64) (string, error)
	ExportRecords(ctx context.Context, format workbench.Format) ([]byte, error)
	ImportRecords(ctx context.Context, doc []byte) (int, error)
	Collections(ctx context.Context) ([]history.CollectionCount, error)
	RunCollection(ctx context.Context, collection string, parallel int) ([]workbench.RunResult, error)

	Configs() ([]model.Configuration, error)
	SaveConfig(name string) (model.Configuration, error)
	SaveConfigFrom(name string, tpl model.Template) (model.Configuration, error)
	LoadConfig(ref string) (model.Template, error)
	DeleteConfig(ref string) (model.Configuration, error)
	ExportConfigs(format workbench.Format) ([]byte, error)
	ImportConfigs(doc []byte) ([]model.Configuration, int, error)

	Favorites() ([]model.Record, error)
	ToggleFavorite(ctx context.Context, id int64) (bool, error)
}

// NewServer builds the router. origins lists the browser origins allowed
// by CORS; empty allows any origin.
func NewServer(svc Service, origins []string) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)
	router.Use(newCORS(origins).Handler)

	cfg := huma.DefaultConfig("apireplay API", "1.0.0")
	// The $schema link copies response bodies field by field, which
	// bypasses Record.MarshalJSON.
	cfg.CreateHooks = nil
	api := humachi.New(router, cfg)

	registerSendHandlers(api, svc)
	registerRecordHandlers(api, svc)
	registerConfigHandlers(api, svc)

	return router
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var scriptErr *prescript.Error
	switch {
	case errors.As(err, &scriptErr):
		return huma.Error422UnprocessableEntity(scriptErr.Error())
	case errors.Is(err, workbench.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, library.ErrEmptyName), errors.Is(err, history.ErrInvalidWhere):
		return huma.Error400BadRequest(err.Error())
	default:
		return huma.Error500InternalServerError(err.Error())
	}
}
