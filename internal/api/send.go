package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/vedsharma/apireplay/internal/model"
	"github.com/vedsharma/apireplay/internal/pipeline"
)

type outcomeBody struct {
	Record model.Record `json:"record"`
	Notice string       `json:"notice,omitempty" doc:"Transport failure message, empty on success"`
}

type outcomeOutput struct {
	Body outcomeBody
}

func newOutcomeOutput(o pipeline.Outcome) *outcomeOutput {
	return &outcomeOutput{Body: outcomeBody{Record: o.Record, Notice: o.Notice}}
}

type templateOutput struct {
	Body model.Template
}

func registerSendHandlers(api huma.API, svc Service) {
	huma.Register(api, huma.Operation{OperationID: "send", Method: http.MethodPost, Path: "/api/v1/send", Summary: "Send a template and record the result", Tags: []string{"Send"}},
		func(ctx context.Context, input *struct {
			Body model.Template
		}) (*outcomeOutput, error) {
			out, err := svc.Send(ctx, input.Body)
			if err != nil {
				return nil, mapErr(err)
			}
			return newOutcomeOutput(out), nil
		})

	huma.Register(api, huma.Operation{OperationID: "send-session", Method: http.MethodPost, Path: "/api/v1/template/send", Summary: "Send the in-progress template", Tags: []string{"Send"}},
		func(ctx context.Context, input *struct{}) (*outcomeOutput, error) {
			out, err := svc.SendSession(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			return newOutcomeOutput(out), nil
		})

	huma.Register(api, huma.Operation{OperationID: "get-template", Method: http.MethodGet, Path: "/api/v1/template", Summary: "Get the in-progress template", Tags: []string{"Template"}},
		func(ctx context.Context, input *struct{}) (*templateOutput, error) {
			tpl, err := svc.Session()
			if err != nil {
				return nil, mapErr(err)
			}
			return &templateOutput{Body: tpl}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "put-template", Method: http.MethodPut, Path: "/api/v1/template", Summary: "Replace the in-progress template", Tags: []string{"Template"}},
		func(ctx context.Context, input *struct {
			Body model.Template
		}) (*templateOutput, error) {
			if err := svc.SaveSession(input.Body); err != nil {
				return nil, mapErr(err)
			}
			tpl, err := svc.Session()
			if err != nil {
				return nil, mapErr(err)
			}
			return &templateOutput{Body: tpl}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "reset-template", Method: http.MethodPost, Path: "/api/v1/template/reset", Summary: "Start a blank template", Tags: []string{"Template"}},
		func(ctx context.Context, input *struct{}) (*templateOutput, error) {
			tpl, err := svc.ResetSession()
			if err != nil {
				return nil, mapErr(err)
			}
			return &templateOutput{Body: tpl}, nil
		})
}
