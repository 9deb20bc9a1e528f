package prescript

import (
	"fmt"

	"github.com/dop251/goja"

	"github.com/vedsharma/apireplay/internal/model"
)

var requiredFields = []string{"url", "method", "params", "headers", "body"}

func decodeResult(result goja.Value) (Draft, error) {
	if isAbsent(result) {
		return Draft{}, errorf(nil, "script must return {url, method, params, headers, body}")
	}
	obj, ok := result.(*goja.Object)
	if !ok {
		return Draft{}, errorf(nil, "script returned %s, expected an object", result.String())
	}
	for _, field := range requiredFields {
		if v := obj.Get(field); v == nil || goja.IsUndefined(v) {
			return Draft{}, errorf(nil, "returned object is missing %q", field)
		}
	}

	var d Draft
	url := obj.Get("url")
	if _, ok := url.Export().(string); !ok {
		return Draft{}, errorf(nil, "url must be a string")
	}
	d.URL = url.String()

	method, err := model.ParseMethod(obj.Get("method").String())
	if err != nil {
		return Draft{}, errorf(err, "%v", err)
	}
	d.Method = method

	if d.Params, err = decodeParams(obj.Get("params")); err != nil {
		return Draft{}, err
	}
	if d.Headers, err = decodeHeaders(obj.Get("headers")); err != nil {
		return Draft{}, err
	}

	body := obj.Get("body")
	if !goja.IsNull(body) {
		if _, ok := body.Export().(string); !ok {
			return Draft{}, errorf(nil, "body must be a string")
		}
		d.Body = body.String()
	}
	return d, nil
}

func decodeParams(value goja.Value) ([]model.KeyValue, error) {
	items, ok := value.Export().([]any)
	if !ok {
		return nil, errorf(nil, "params must be an array")
	}
	params := make([]model.KeyValue, 0, len(items))
	for i, item := range items {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, errorf(nil, "params[%d] must be an object", i)
		}
		kv := model.KeyValue{
			Key:     stringField(entry, "key"),
			Value:   stringField(entry, "value"),
			Enabled: true,
		}
		if enabled, present := entry["enabled"]; present {
			if b, isBool := enabled.(bool); isBool {
				kv.Enabled = b
			}
		}
		params = append(params, kv)
	}
	return params, nil
}

func decodeHeaders(value goja.Value) (map[string]string, error) {
	if goja.IsNull(value) {
		return map[string]string{}, nil
	}
	entries, ok := value.Export().(map[string]any)
	if !ok {
		return nil, errorf(nil, "headers must be an object")
	}
	headers := make(map[string]string, len(entries))
	for k, v := range entries {
		headers[k] = fmt.Sprint(v)
	}
	return headers, nil
}

func stringField(entry map[string]any, name string) string {
	v, ok := entry[name]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func isAbsent(v goja.Value) bool {
	return v == nil || goja.IsUndefined(v) || goja.IsNull(v)
}
