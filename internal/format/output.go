// Package format renders records, templates and configurations for the
// terminal.
package format

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"github.com/vedsharma/apireplay/internal/history"
	"github.com/vedsharma/apireplay/internal/model"
	"github.com/vedsharma/apireplay/internal/workbench"
)

// sanitizeOutput removes or escapes control characters that could
// manipulate terminal display or execute commands.
func sanitizeOutput(s string) string {
	var result strings.Builder
	result.Grow(len(s))

	for _, r := range s {
		switch {
		case r == '\n' || r == '\r' || r == '\t':
			result.WriteRune(r)
		case r == '\x1b':
			result.WriteString("\\x1b")
		case unicode.IsControl(r) && r < 0x20:
			fmt.Fprintf(&result, "\\x%02x", r)
		case r == 0x7F:
			result.WriteString("\\x7f")
		default:
			result.WriteRune(r)
		}
	}

	return result.String()
}

var (
	successColor   = color.New(color.FgGreen, color.Bold)
	redirectColor  = color.New(color.FgYellow, color.Bold)
	clientErrColor = color.New(color.FgRed, color.Bold)
	serverErrColor = color.New(color.FgRed, color.Bold, color.BgWhite)
	headerKeyColor = color.New(color.FgCyan)
	methodColor    = color.New(color.FgMagenta, color.Bold)
	urlColor       = color.New(color.FgBlue)
	dimColor       = color.New(color.Faint)
	matchColor     = color.New(color.FgBlack, color.BgYellow)
	starColor      = color.New(color.FgYellow)
)

// urlWidth is the column width of URLs in list views.
const urlWidth = 60

func statusColor(status *int) *color.Color {
	if status == nil {
		return clientErrColor
	}
	code := *status
	switch {
	case code >= 200 && code < 300:
		return successColor
	case code >= 300 && code < 400:
		return redirectColor
	case code >= 400 && code < 500:
		return clientErrColor
	default:
		return serverErrColor
	}
}

func statusText(rec model.Record) string {
	if rec.Status == nil {
		return "ERR"
	}
	return fmt.Sprintf("%d", *rec.Status)
}

// Truncate shortens s to width terminal cells, ending with "...".
func Truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "...")
}

func pad(s string, width int) string {
	return runewidth.FillRight(s, width)
}

func writeKeyValues(w io.Writer, title string, rows []model.KeyValue) {
	var active []model.KeyValue
	for _, kv := range rows {
		if strings.TrimSpace(kv.Key) != "" {
			active = append(active, kv)
		}
	}
	if len(active) == 0 {
		return
	}
	fmt.Fprintf(w, "%s:\n", title)
	for _, kv := range active {
		headerKeyColor.Fprintf(w, "  %s: ", sanitizeOutput(kv.Key))
		fmt.Fprint(w, sanitizeOutput(kv.Value))
		if !kv.Enabled {
			dimColor.Fprint(w, " (disabled)")
		}
		fmt.Fprintln(w)
	}
}

func writeHeaderMap(w io.Writer, headers map[string]string) {
	if len(headers) == 0 {
		return
	}
	fmt.Fprintln(w, "Headers:")
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		headerKeyColor.Fprintf(w, "  %s: ", sanitizeOutput(key))
		fmt.Fprintln(w, sanitizeOutput(headers[key]))
	}
}

// WriteOutcome prints the status line and response body of a freshly
// sent record.
func WriteOutcome(w io.Writer, rec model.Record) {
	methodColor.Fprintf(w, "%s ", rec.Method)
	urlColor.Fprintln(w, sanitizeOutput(rec.URL))
	dimColor.Fprintf(w, "  Record: #%d\n", rec.ID)
	if rec.Status == nil {
		clientErrColor.Fprintln(w, "  Request failed")
	} else {
		fmt.Fprint(w, "  Status: ")
		statusColor(rec.Status).Fprintln(w, *rec.Status)
	}
	if rec.ResponseTime != nil {
		dimColor.Fprintf(w, "  Time: %dms\n", *rec.ResponseTime)
	}
	fmt.Fprintln(w)
	writeResponse(w, rec.Response, "")
}

func writeResponse(w io.Writer, payload model.Payload, find string) {
	text := history.ResponseText(payload)
	switch {
	case payload.Failed():
		clientErrColor.Fprintln(w, sanitizeOutput(text))
	case text == "":
		dimColor.Fprintln(w, "(empty body)")
	case find != "":
		fmt.Fprintln(w, HighlightMatches(text, find))
	case payload.Kind == model.PayloadStructured:
		fmt.Fprintln(w, HighlightJSON(text))
	default:
		fmt.Fprintln(w, sanitizeOutput(text))
	}
}

// WriteRecordList prints one line per record. favorites marks starred ids.
func WriteRecordList(w io.Writer, recs []model.Record, favorites map[int64]bool, now time.Time) {
	if len(recs) == 0 {
		dimColor.Fprintln(w, "No records")
		return
	}
	for _, rec := range recs {
		if favorites[rec.ID] {
			starColor.Fprint(w, "★ ")
		} else {
			fmt.Fprint(w, "  ")
		}
		dimColor.Fprintf(w, "#%-5d ", rec.ID)
		methodColor.Fprintf(w, "%-7s ", rec.Method)
		urlColor.Fprintf(w, "%s ", pad(sanitizeOutput(Truncate(rec.URL, urlWidth)), urlWidth))
		statusColor(rec.Status).Fprintf(w, "%-4s ", statusText(rec))
		if rec.ResponseTime != nil {
			dimColor.Fprintf(w, "%6dms ", *rec.ResponseTime)
		} else {
			dimColor.Fprint(w, "       - ")
		}
		dimColor.Fprint(w, history.TimeAgo(rec.Date, now))
		if len(rec.Tags) > 0 {
			headerKeyColor.Fprintf(w, " [%s]", sanitizeOutput(strings.Join(rec.Tags, ", ")))
		}
		fmt.Fprintln(w)
	}
}

// WriteRecordDetail prints the request and response of one record. A
// non-empty find highlights its case-insensitive matches in the
// response.
func WriteRecordDetail(w io.Writer, rec model.Record, find string) {
	fmt.Fprintln(w, "Request:")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	methodColor.Fprintf(w, "%s ", rec.Method)
	urlColor.Fprintln(w, sanitizeOutput(rec.URL))
	dimColor.Fprintf(w, "ID: %d\n", rec.ID)
	dimColor.Fprintf(w, "Time: %s\n", rec.Date.Local().Format(history.DateLayout))
	if rec.Collection != "" {
		dimColor.Fprintf(w, "Collection: %s\n", sanitizeOutput(rec.Collection))
	}
	if len(rec.Tags) > 0 {
		dimColor.Fprintf(w, "Tags: %s\n", sanitizeOutput(strings.Join(rec.Tags, ", ")))
	}
	fmt.Fprintln(w)

	writeKeyValues(w, "Params", rec.Params)
	writeHeaderMap(w, rec.Headers)
	if rec.Body != nil && *rec.Body != "" {
		fmt.Fprintln(w, "Body:")
		fmt.Fprintln(w, sanitizeOutput(*rec.Body))
	}
	if rec.Prescript != "" {
		fmt.Fprintln(w, "Prescript:")
		fmt.Fprintln(w, HighlightScript(rec.Prescript))
	}

	fmt.Fprintln(w, "\nResponse:")
	fmt.Fprintln(w, strings.Repeat("-", 40))
	if rec.Status != nil {
		fmt.Fprint(w, "Status: ")
		statusColor(rec.Status).Fprintln(w, *rec.Status)
	}
	if rec.ResponseTime != nil {
		dimColor.Fprintf(w, "Time: %dms\n", *rec.ResponseTime)
	}
	if find != "" {
		n := len(history.FindMatches(history.ResponseText(rec.Response), find))
		dimColor.Fprintf(w, "Matches: %d\n", n)
	}
	fmt.Fprintln(w)
	writeResponse(w, rec.Response, find)
}

// WriteTemplate prints the in-progress template.
func WriteTemplate(w io.Writer, tpl model.Template) {
	methodColor.Fprintf(w, "%s ", tpl.Method)
	if tpl.URLBase == "" {
		dimColor.Fprintln(w, "(no URL)")
	} else {
		urlColor.Fprintln(w, sanitizeOutput(tpl.URLBase))
	}
	writeKeyValues(w, "Params", tpl.Params)
	writeKeyValues(w, "Headers", tpl.Headers)
	if len(tpl.Variables) > 0 {
		fmt.Fprintln(w, "Variables:")
		for _, v := range tpl.Variables {
			headerKeyColor.Fprintf(w, "  {{%s}} ", sanitizeOutput(v.Key))
			dimColor.Fprint(w, "→ ")
			fmt.Fprintln(w, sanitizeOutput(v.Value))
		}
	}
	if tpl.Body != "" {
		fmt.Fprintln(w, "Body:")
		fmt.Fprintln(w, sanitizeOutput(tpl.Body))
	}
	if tpl.Prescript != "" {
		fmt.Fprintln(w, "Prescript:")
		fmt.Fprintln(w, HighlightScript(tpl.Prescript))
	}
	if tpl.Tags != "" {
		dimColor.Fprintf(w, "Tags: %s\n", sanitizeOutput(tpl.Tags))
	}
	if tpl.Collection != "" {
		dimColor.Fprintf(w, "Collection: %s\n", sanitizeOutput(tpl.Collection))
	}
}

// WriteConfigList prints saved configurations, newest first.
func WriteConfigList(w io.Writer, configs []model.Configuration, now time.Time) {
	if len(configs) == 0 {
		dimColor.Fprintln(w, "No saved configurations")
		return
	}
	for _, cfg := range configs {
		headerKeyColor.Fprintf(w, "%s ", sanitizeOutput(cfg.Name))
		methodColor.Fprintf(w, "%s ", cfg.Method)
		urlColor.Fprintf(w, "%s ", sanitizeOutput(Truncate(cfg.URLBase, urlWidth)))
		dimColor.Fprintf(w, "(%s, %s)\n", cfg.ID[:min(8, len(cfg.ID))], history.TimeAgo(cfg.Date, now))
	}
}

// WriteCollections prints collection names with their record counts.
func WriteCollections(w io.Writer, cols []history.CollectionCount) {
	if len(cols) == 0 {
		dimColor.Fprintln(w, "No collections found")
		return
	}
	fmt.Fprintln(w, "Collections:")
	for _, c := range cols {
		headerKeyColor.Fprintf(w, "  %s ", sanitizeOutput(c.Name))
		dimColor.Fprintf(w, "(%d records)\n", c.Count)
	}
}

// PrintSuccess prints a success message
func PrintSuccess(msg string) {
	successColor.Fprintf(color.Output, "✓ %s\n", msg)
}

// PrintError prints an error message
func PrintError(msg string) {
	clientErrColor.Fprintf(color.Error, "✗ %s\n", msg)
}

func PrintWarning(msg string) {
	redirectColor.Fprintf(color.Error, "! %s\n", msg)
}

// WriteRunResults prints one line per configuration of a collection run.
func WriteRunResults(w io.Writer, results []workbench.RunResult) {
	for _, r := range results {
		headerKeyColor.Fprintf(w, "%s ", pad(sanitizeOutput(Truncate(r.Config.Name, 24)), 24))
		if r.Err != nil {
			clientErrColor.Fprintf(w, "✗ %s\n", sanitizeOutput(r.Err.Error()))
			continue
		}
		rec := r.Outcome.Record
		methodColor.Fprintf(w, "%-7s ", rec.Method)
		statusColor(rec.Status).Fprintf(w, "%-4s ", statusText(rec))
		if rec.ResponseTime != nil {
			dimColor.Fprintf(w, "%dms ", *rec.ResponseTime)
		}
		dimColor.Fprintf(w, "#%d", rec.ID)
		if r.Outcome.Notice != "" {
			clientErrColor.Fprintf(w, " %s", sanitizeOutput(r.Outcome.Notice))
		}
		fmt.Fprintln(w)
	}
}
