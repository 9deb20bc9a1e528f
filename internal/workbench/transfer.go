package workbench

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/vedsharma/apireplay/internal/history"
	"github.com/vedsharma/apireplay/internal/model"
)

// Format is an export document format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ExportRecords serializes every record, newest first.
func (w *Workbench) ExportRecords(ctx context.Context, format Format) ([]byte, error) {
	all, err := w.records.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	doc, err := json.MarshalIndent(history.SortNewestFirst(all), "", "  ")
	if err != nil {
		return nil, err
	}
	return render(doc, format)
}

// ImportRecords appends the records of a JSON array document with fresh
// ids. Anything else is ignored and reports zero imported.
func (w *Workbench) ImportRecords(ctx context.Context, doc []byte) (int, error) {
	trimmed := bytes.TrimSpace(doc)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return 0, nil
	}
	var recs []model.Record
	if err := json.Unmarshal(trimmed, &recs); err != nil {
		slog.Debug("ignoring malformed record import", "error", err)
		return 0, nil
	}
	// Oldest first so newer records keep higher ids.
	sorted := history.SortNewestFirst(recs)
	for i, j := 0, len(sorted)-1; i < j; i, j = i+1, j-1 {
		sorted[i], sorted[j] = sorted[j], sorted[i]
	}
	return w.records.Import(ctx, sorted)
}

// ExportConfigs serializes every saved configuration.
func (w *Workbench) ExportConfigs(format Format) ([]byte, error) {
	doc, err := w.library.ExportConfigs()
	if err != nil {
		return nil, err
	}
	return render(doc, format)
}

// ImportConfigs prepends the configurations of a JSON array document.
func (w *Workbench) ImportConfigs(doc []byte) ([]model.Configuration, int, error) {
	return w.library.ImportConfigs(doc)
}

func render(doc []byte, format Format) ([]byte, error) {
	switch format {
	case "", FormatJSON:
		return doc, nil
	case FormatYAML:
		var generic any
		if err := json.Unmarshal(doc, &generic); err != nil {
			return nil, err
		}
		return yaml.Marshal(generic)
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}
