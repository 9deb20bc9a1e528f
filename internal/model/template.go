package model

import (
	"strings"

	json "github.com/goccy/go-json"
)

// KeyValue is a param or header row. Rows stay in the template when
// disabled so the user can toggle them back on.
type KeyValue struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Enabled bool   `json:"enabled" required:"false"`
}

// UnmarshalJSON treats a missing "enabled" as true.
func (kv *KeyValue) UnmarshalJSON(data []byte) error {
	var raw struct {
		Key     string `json:"key"`
		Value   string `json:"value"`
		Enabled *bool  `json:"enabled"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	kv.Key = raw.Key
	kv.Value = raw.Value
	kv.Enabled = raw.Enabled == nil || *raw.Enabled
	return nil
}

// Variable is a named value substituted into {{key}} placeholders.
type Variable struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Template is the editable, unsaved request.
type Template struct {
	URLBase    string     `json:"urlBase"`
	Method     Method     `json:"method"`
	Params     []KeyValue `json:"params" required:"false"`
	Headers    []KeyValue `json:"headers" required:"false"`
	Body       string     `json:"body" required:"false"`
	Variables  []Variable `json:"variables" required:"false"`
	Prescript  string     `json:"prescript" required:"false"`
	Tags       string     `json:"tags" required:"false"`
	Collection string     `json:"collection" required:"false"`
}

// NewTemplate returns an empty GET template with one blank param and
// header row each.
func NewTemplate() Template {
	return Template{
		Method:    MethodGet,
		Params:    []KeyValue{{Enabled: true}},
		Headers:   []KeyValue{{Enabled: true}},
		Variables: []Variable{},
	}
}

// TagList splits the comma separated tags into trimmed, non-empty values.
func (t Template) TagList() []string {
	return SplitTags(t.Tags)
}

// SplitTags normalizes a comma separated tag string.
func SplitTags(s string) []string {
	tags := []string{}
	for _, part := range strings.Split(s, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// Clone returns a copy that shares no slices with t.
func (t Template) Clone() Template {
	out := t
	out.Params = append([]KeyValue(nil), t.Params...)
	out.Headers = append([]KeyValue(nil), t.Headers...)
	out.Variables = append([]Variable(nil), t.Variables...)
	return out
}
