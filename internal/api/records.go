package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/vedsharma/apireplay/internal/history"
	"github.com/vedsharma/apireplay/internal/model"
	"github.com/vedsharma/apireplay/internal/workbench"
)

type recordIDInput struct {
	ID int64 `path:"id" doc:"Record id"`
}

type recordOutput struct {
	Body model.Record
}

type documentOutput struct {
	ContentType string `header:"Content-Type"`
	Body        []byte
}

func newDocumentOutput(doc []byte, format workbench.Format) *documentOutput {
	contentType := "application/json"
	if format == workbench.FormatYAML {
		contentType = "application/yaml"
	}
	return &documentOutput{ContentType: contentType, Body: doc}
}

type importOutput struct {
	Body struct {
		Imported int `json:"imported"`
	}
}

func registerRecordHandlers(api huma.API, svc Service) {
	huma.Register(api, huma.Operation{OperationID: "list-records", Method: http.MethodGet, Path: "/api/v1/records", Summary: "List records, newest first", Tags: []string{"Records"}},
		func(ctx context.Context, input *struct {
			Text       string `query:"q" doc:"Match URL, method or date"`
			Fuzzy      bool   `query:"fuzzy" doc:"Fuzzy text match"`
			Method     string `query:"method" doc:"Only this method"`
			Tag        string `query:"tag"`
			Collection string `query:"collection"`
			Where      string `query:"where" doc:"Boolean filter expression, e.g. status >= 400"`
			Limit      int    `query:"limit" minimum:"0"`
		}) (*struct {
			Body struct {
				Records []model.Record `json:"records"`
			}
		}, error) {
			recs, err := svc.Records(ctx, history.Query{
				Text:       input.Text,
				Fuzzy:      input.Fuzzy,
				Method:     model.Method(strings.ToUpper(input.Method)),
				Tag:        input.Tag,
				Collection: input.Collection,
				Where:      input.Where,
				Limit:      input.Limit,
			})
			if err != nil {
				return nil, mapErr(err)
			}
			out := &struct {
				Body struct {
					Records []model.Record `json:"records"`
				}
			}{}
			out.Body.Records = recs
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "clear-records", Method: http.MethodDelete, Path: "/api/v1/records", Summary: "Delete every record", Tags: []string{"Records"}, DefaultStatus: http.StatusNoContent},
		func(ctx context.Context, input *struct{}) (*struct{}, error) {
			return nil, mapErr(svc.ClearRecords(ctx))
		})

	huma.Register(api, huma.Operation{OperationID: "export-records", Method: http.MethodGet, Path: "/api/v1/records/export", Summary: "Export every record", Tags: []string{"Records"}},
		func(ctx context.Context, input *struct {
			Format string `query:"format" enum:"json,yaml" default:"json"`
		}) (*documentOutput, error) {
			format := workbench.Format(input.Format)
			doc, err := svc.ExportRecords(ctx, format)
			if err != nil {
				return nil, mapErr(err)
			}
			return newDocumentOutput(doc, format), nil
		})

	huma.Register(api, huma.Operation{OperationID: "import-records", Method: http.MethodPost, Path: "/api/v1/records/import", Summary: "Import a JSON array of records", Tags: []string{"Records"}},
		func(ctx context.Context, input *struct {
			RawBody []byte
		}) (*importOutput, error) {
			n, err := svc.ImportRecords(ctx, input.RawBody)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &importOutput{}
			out.Body.Imported = n
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "diff-records", Method: http.MethodGet, Path: "/api/v1/records/diff", Summary: "Unified diff of two responses", Tags: []string{"Records"}},
		func(ctx context.Context, input *struct {
			A int64 `query:"a" required:"true"`
			B int64 `query:"b" required:"true"`
		}) (*struct {
			Body struct {
				Diff string `json:"diff"`
			}
		}, error) {
			diff, err := svc.Diff(ctx, input.A, input.B)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &struct {
				Body struct {
					Diff string `json:"diff"`
				}
			}{}
			out.Body.Diff = diff
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "get-record", Method: http.MethodGet, Path: "/api/v1/records/{id}", Summary: "Get one record", Tags: []string{"Records"}},
		func(ctx context.Context, input *recordIDInput) (*recordOutput, error) {
			rec, err := svc.Record(ctx, input.ID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &recordOutput{Body: rec}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "delete-record", Method: http.MethodDelete, Path: "/api/v1/records/{id}", Summary: "Delete one record", Tags: []string{"Records"}, DefaultStatus: http.StatusNoContent},
		func(ctx context.Context, input *recordIDInput) (*struct{}, error) {
			return nil, mapErr(svc.DeleteRecord(ctx, input.ID))
		})

	huma.Register(api, huma.Operation{OperationID: "update-record-response", Method: http.MethodPut, Path: "/api/v1/records/{id}/response", Summary: "Replace a record's captured response", Tags: []string{"Records"}},
		func(ctx context.Context, input *struct {
			ID      int64 `path:"id"`
			RawBody []byte
		}) (*recordOutput, error) {
			var payload model.Payload
			if err := payload.UnmarshalJSON(input.RawBody); err != nil {
				return nil, huma.Error400BadRequest("response must be a JSON value", err)
			}
			if err := svc.UpdateResponse(ctx, input.ID, payload); err != nil {
				return nil, mapErr(err)
			}
			rec, err := svc.Record(ctx, input.ID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &recordOutput{Body: rec}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "record-snippet", Method: http.MethodGet, Path: "/api/v1/records/{id}/snippet", Summary: "Render a record as client code", Tags: []string{"Records"}},
		func(ctx context.Context, input *struct {
			ID   int64  `path:"id"`
			Kind string `query:"kind" enum:"curl,fetch" default:"curl"`
		}) (*struct {
			Body struct {
				Snippet string `json:"snippet"`
			}
		}, error) {
			text, err := svc.Snippet(ctx, input.ID, workbench.SnippetKind(input.Kind))
			if err != nil {
				return nil, mapErr(err)
			}
			out := &struct {
				Body struct {
					Snippet string `json:"snippet"`
				}
			}{}
			out.Body.Snippet = text
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "replicate-record", Method: http.MethodPost, Path: "/api/v1/records/{id}/replicate", Summary: "Load a record into the template", Tags: []string{"Records"}},
		func(ctx context.Context, input *recordIDInput) (*templateOutput, error) {
			tpl, err := svc.Replicate(ctx, input.ID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &templateOutput{Body: tpl}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "resend-record", Method: http.MethodPost, Path: "/api/v1/records/{id}/resend", Summary: "Send a record again", Tags: []string{"Records"}},
		func(ctx context.Context, input *struct {
			ID        int64 `path:"id"`
			Prescript bool  `query:"prescript" doc:"Run the record's prescript again over the recorded request"`
		}) (*outcomeOutput, error) {
			out, err := svc.Resend(ctx, input.ID, input.Prescript)
			if err != nil {
				return nil, mapErr(err)
			}
			return newOutcomeOutput(out), nil
		})

	huma.Register(api, huma.Operation{OperationID: "list-favorites", Method: http.MethodGet, Path: "/api/v1/favorites", Summary: "List starred record snapshots", Tags: []string{"Favorites"}},
		func(ctx context.Context, input *struct{}) (*struct {
			Body struct {
				Favorites []model.Record `json:"favorites"`
			}
		}, error) {
			favs, err := svc.Favorites()
			if err != nil {
				return nil, mapErr(err)
			}
			out := &struct {
				Body struct {
					Favorites []model.Record `json:"favorites"`
				}
			}{}
			out.Body.Favorites = favs
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "toggle-favorite", Method: http.MethodPost, Path: "/api/v1/favorites/{id}/toggle", Summary: "Star or unstar a record", Tags: []string{"Favorites"}},
		func(ctx context.Context, input *recordIDInput) (*struct {
			Body struct {
				Starred bool `json:"starred"`
			}
		}, error) {
			starred, err := svc.ToggleFavorite(ctx, input.ID)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &struct {
				Body struct {
					Starred bool `json:"starred"`
				}
			}{}
			out.Body.Starred = starred
			return out, nil
		})
}
