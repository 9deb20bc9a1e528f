package model

import (
	"time"

	json "github.com/goccy/go-json"
)

// Record is the immutable result of one send: the resolved request and
// the captured response.
type Record struct {
	ID         int64             `json:"id"`
	URL        string            `json:"url"`
	Method     Method            `json:"method"`
	Params     []KeyValue        `json:"params"`
	Headers    map[string]string `json:"headers"`
	Body       *string           `json:"body,omitempty"`
	Tags       []string          `json:"tags"`
	Collection string            `json:"collection"`
	// Status and ResponseTime are nil when the transport failed.
	Status       *int      `json:"status,omitempty"`
	ResponseTime *int64    `json:"responseTime,omitempty"`
	Prescript    string    `json:"prescript"`
	Date         time.Time `json:"date"`
	Response     Payload   `json:"response"`
}

type recordFields Record

type recordDocument struct {
	recordFields
	ResponseKind PayloadKind `json:"responseKind,omitempty"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordDocument{recordFields: recordFields(r), ResponseKind: r.Response.Kind})
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var doc recordDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*r = Record(doc.recordFields)
	r.Response = r.Response.reconcile(doc.ResponseKind, r.Status == nil)
	return nil
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	out := r
	out.Params = append([]KeyValue(nil), r.Params...)
	if r.Headers != nil {
		out.Headers = make(map[string]string, len(r.Headers))
		for k, v := range r.Headers {
			out.Headers[k] = v
		}
	}
	out.Tags = append([]string(nil), r.Tags...)
	if r.Body != nil {
		body := *r.Body
		out.Body = &body
	}
	if r.Status != nil {
		status := *r.Status
		out.Status = &status
	}
	if r.ResponseTime != nil {
		elapsed := *r.ResponseTime
		out.ResponseTime = &elapsed
	}
	out.Response.Data = append(json.RawMessage(nil), r.Response.Data...)
	return out
}

// Configuration is a named, dated snapshot of a template.
type Configuration struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Date time.Time `json:"date"`
	Template
}
