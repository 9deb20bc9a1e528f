package model

import (
	"bytes"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	json "github.com/goccy/go-json"
)

// ErrorPrefix marks a response that captured a transport failure.
const ErrorPrefix = "ERROR: "

type PayloadKind string

const (
	PayloadStructured PayloadKind = "structured"
	PayloadText       PayloadKind = "text"
	PayloadFailed     PayloadKind = "failed"
)

// Payload is the captured response body: a decoded JSON document, raw
// text, or the message of a transport failure.
type Payload struct {
	Kind PayloadKind
	// Data holds the compact JSON document when Kind is PayloadStructured.
	Data json.RawMessage
	// Text holds the body for PayloadText and the message for PayloadFailed.
	Text string
}

func StructuredPayload(data []byte) Payload {
	return Payload{Kind: PayloadStructured, Data: append(json.RawMessage(nil), data...)}
}

func TextPayload(text string) Payload {
	return Payload{Kind: PayloadText, Text: text}
}

func FailedPayload(message string) Payload {
	return Payload{Kind: PayloadFailed, Text: message}
}

func (p Payload) Failed() bool {
	return p.Kind == PayloadFailed
}

// String renders the payload the way it is stored: the JSON document,
// the text, or the error marker.
func (p Payload) String() string {
	switch p.Kind {
	case PayloadStructured:
		return string(p.Data)
	case PayloadFailed:
		return ErrorPrefix + p.Text
	default:
		return p.Text
	}
}

// Decoded returns the structured document as Go values, or the string
// form for the other kinds.
func (p Payload) Decoded() (any, error) {
	if p.Kind != PayloadStructured {
		return p.String(), nil
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(p.Data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// Schema describes the marshaled form, which is any JSON value, for the
// API document.
func (Payload) Schema(huma.Registry) *huma.Schema {
	return &huma.Schema{
		Description: "Captured response: the JSON document, the body text, or \"ERROR: <message>\" when the request failed.",
	}
}

func (p Payload) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case PayloadStructured:
		if len(p.Data) == 0 {
			return []byte("null"), nil
		}
		return p.Data, nil
	case PayloadText, PayloadFailed:
		return json.Marshal(p.String())
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON reads strings as text and any other value as a structured
// document. Failure markers are recognised by Record, which knows the
// status.
func (p *Payload) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		*p = TextPayload("")
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*p = TextPayload(s)
	default:
		var buf bytes.Buffer
		if err := json.Compact(&buf, trimmed); err != nil {
			return err
		}
		*p = StructuredPayload(buf.Bytes())
	}
	return nil
}

func (p Payload) reconcile(kind PayloadKind, statusAbsent bool) Payload {
	if p.Kind != PayloadText {
		return p
	}
	switch {
	case kind == PayloadFailed:
		return FailedPayload(strings.TrimPrefix(p.Text, ErrorPrefix))
	case kind == "" && statusAbsent && strings.HasPrefix(p.Text, ErrorPrefix):
		return FailedPayload(strings.TrimPrefix(p.Text, ErrorPrefix))
	default:
		return p
	}
}
