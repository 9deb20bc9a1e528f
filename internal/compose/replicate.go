package compose

import (
	"sort"
	"strings"

	"github.com/vedsharma/apireplay/internal/model"
)

// FromRecord rebuilds an editable template from a sent record. Variables
// are not recoverable, the record only holds resolved values. Callers
// merge default headers on top.
func FromRecord(rec model.Record) model.Template {
	base, queryParams := SplitURL(rec.URL)

	params := append([]model.KeyValue(nil), rec.Params...)
	if len(params) == 0 {
		params = queryParams
	}
	if len(params) == 0 {
		params = []model.KeyValue{{Enabled: true}}
	}

	keys := make([]string, 0, len(rec.Headers))
	for k := range rec.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	headers := make([]model.KeyValue, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, model.KeyValue{Key: k, Value: rec.Headers[k], Enabled: true})
	}

	tmpl := model.Template{
		URLBase:    base,
		Method:     rec.Method,
		Params:     params,
		Headers:    headers,
		Variables:  []model.Variable{},
		Prescript:  rec.Prescript,
		Tags:       strings.Join(rec.Tags, ", "),
		Collection: rec.Collection,
	}
	if rec.Body != nil {
		tmpl.Body = *rec.Body
	}
	if tmpl.Method == "" {
		tmpl.Method = model.MethodGet
	}
	return tmpl
}
