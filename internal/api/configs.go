package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/vedsharma/apireplay/internal/history"
	"github.com/vedsharma/apireplay/internal/model"
	"github.com/vedsharma/apireplay/internal/workbench"
)

type configOutput struct {
	Body model.Configuration
}

type configListOutput struct {
	Body struct {
		Configs []model.Configuration `json:"configs"`
	}
}

type runResultBody struct {
	ConfigID   string        `json:"configId"`
	ConfigName string        `json:"configName"`
	Record     *model.Record `json:"record,omitempty"`
	Notice     string        `json:"notice,omitempty"`
	Error      string        `json:"error,omitempty"`
}

func newRunResultBody(r workbench.RunResult) runResultBody {
	body := runResultBody{ConfigID: r.Config.ID, ConfigName: r.Config.Name}
	if r.Err != nil {
		body.Error = r.Err.Error()
		return body
	}
	rec := r.Outcome.Record
	body.Record = &rec
	body.Notice = r.Outcome.Notice
	return body
}

func registerConfigHandlers(api huma.API, svc Service) {
	huma.Register(api, huma.Operation{OperationID: "list-configs", Method: http.MethodGet, Path: "/api/v1/configs", Summary: "List saved configurations, newest first", Tags: []string{"Configs"}},
		func(ctx context.Context, input *struct{}) (*configListOutput, error) {
			configs, err := svc.Configs()
			if err != nil {
				return nil, mapErr(err)
			}
			out := &configListOutput{}
			out.Body.Configs = configs
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "save-config", Method: http.MethodPost, Path: "/api/v1/configs", Summary: "Save a named configuration", Tags: []string{"Configs"}, DefaultStatus: http.StatusCreated},
		func(ctx context.Context, input *struct {
			Body struct {
				Name     string          `json:"name"`
				Template *model.Template `json:"template,omitempty" required:"false" doc:"Template to save; the in-progress template when omitted"`
			}
		}) (*configOutput, error) {
			var (
				cfg model.Configuration
				err error
			)
			if input.Body.Template != nil {
				cfg, err = svc.SaveConfigFrom(input.Body.Name, *input.Body.Template)
			} else {
				cfg, err = svc.SaveConfig(input.Body.Name)
			}
			if err != nil {
				return nil, mapErr(err)
			}
			return &configOutput{Body: cfg}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "export-configs", Method: http.MethodGet, Path: "/api/v1/configs/export", Summary: "Export saved configurations", Tags: []string{"Configs"}},
		func(ctx context.Context, input *struct {
			Format string `query:"format" enum:"json,yaml" default:"json"`
		}) (*documentOutput, error) {
			format := workbench.Format(input.Format)
			doc, err := svc.ExportConfigs(format)
			if err != nil {
				return nil, mapErr(err)
			}
			return newDocumentOutput(doc, format), nil
		})

	huma.Register(api, huma.Operation{OperationID: "import-configs", Method: http.MethodPost, Path: "/api/v1/configs/import", Summary: "Import a JSON array of configurations", Tags: []string{"Configs"}},
		func(ctx context.Context, input *struct {
			RawBody []byte
		}) (*struct {
			Body struct {
				Imported int                   `json:"imported"`
				Configs  []model.Configuration `json:"configs"`
			}
		}, error) {
			configs, n, err := svc.ImportConfigs(input.RawBody)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &struct {
				Body struct {
					Imported int                   `json:"imported"`
					Configs  []model.Configuration `json:"configs"`
				}
			}{}
			out.Body.Imported = n
			out.Body.Configs = configs
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "delete-config", Method: http.MethodDelete, Path: "/api/v1/configs/{ref}", Summary: "Delete a configuration by id or name", Tags: []string{"Configs"}},
		func(ctx context.Context, input *struct {
			Ref string `path:"ref"`
		}) (*configOutput, error) {
			cfg, err := svc.DeleteConfig(input.Ref)
			if err != nil {
				return nil, mapErr(err)
			}
			return &configOutput{Body: cfg}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "load-config", Method: http.MethodPost, Path: "/api/v1/configs/{ref}/load", Summary: "Load a configuration into the template", Tags: []string{"Configs"}},
		func(ctx context.Context, input *struct {
			Ref string `path:"ref"`
		}) (*templateOutput, error) {
			tpl, err := svc.LoadConfig(input.Ref)
			if err != nil {
				return nil, mapErr(err)
			}
			return &templateOutput{Body: tpl}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "list-collections", Method: http.MethodGet, Path: "/api/v1/collections", Summary: "Collections with record counts", Tags: []string{"Collections"}},
		func(ctx context.Context, input *struct{}) (*struct {
			Body struct {
				Collections []history.CollectionCount `json:"collections"`
			}
		}, error) {
			cols, err := svc.Collections(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &struct {
				Body struct {
					Collections []history.CollectionCount `json:"collections"`
				}
			}{}
			out.Body.Collections = cols
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "run-collection", Method: http.MethodPost, Path: "/api/v1/collections/{name}/run", Summary: "Send every configuration in a collection", Tags: []string{"Collections"}},
		func(ctx context.Context, input *struct {
			Name     string `path:"name"`
			Parallel int    `query:"parallel" minimum:"1" default:"1"`
		}) (*struct {
			Body struct {
				Results []runResultBody `json:"results"`
			}
		}, error) {
			results, err := svc.RunCollection(ctx, input.Name, input.Parallel)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &struct {
				Body struct {
					Results []runResultBody `json:"results"`
				}
			}{}
			out.Body.Results = make([]runResultBody, 0, len(results))
			for _, r := range results {
				out.Body.Results = append(out.Body.Results, newRunResultBody(r))
			}
			return out, nil
		})
}
