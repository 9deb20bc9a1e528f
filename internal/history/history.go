// Package history holds the display-side helpers over the full record
// list: ordering, search, response inspection and comparison. The store
// only ever returns every record; everything here runs on that list.
package history

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/vedsharma/apireplay/internal/model"
)

// ErrInvalidWhere wraps Where expressions that do not compile to a
// boolean.
var ErrInvalidWhere = errors.New("invalid filter expression")

// DateLayout is how record dates are shown and matched by text search.
const DateLayout = "2006-01-02 15:04:05"

// SortNewestFirst returns a copy of records ordered by date, newest
// first, with the higher id first on ties.
func SortNewestFirst(records []model.Record) []model.Record {
	out := append([]model.Record(nil), records...)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// Query narrows a record list. Zero fields match everything.
type Query struct {
	// Text matches the URL, the method or the formatted date.
	Text string
	// Fuzzy matches Text as a subsequence instead of a substring.
	Fuzzy      bool
	Method     model.Method
	Tag        string
	Collection string
	// Where is a boolean expression over id, status, method, url,
	// responseTime, tags, collection, failed and response.
	Where string
	Limit int
}

type whereEnv struct {
	ID           int64    `expr:"id"`
	Status       int      `expr:"status"`
	Method       string   `expr:"method"`
	URL          string   `expr:"url"`
	ResponseTime int64    `expr:"responseTime"`
	Tags         []string `expr:"tags"`
	Collection   string   `expr:"collection"`
	Failed       bool     `expr:"failed"`
	Response     string   `expr:"response"`
}

func envFor(rec model.Record) whereEnv {
	env := whereEnv{
		ID:         rec.ID,
		Method:     string(rec.Method),
		URL:        rec.URL,
		Tags:       rec.Tags,
		Collection: rec.Collection,
		Failed:     rec.Response.Failed(),
		Response:   rec.Response.String(),
	}
	if rec.Status != nil {
		env.Status = *rec.Status
	}
	if rec.ResponseTime != nil {
		env.ResponseTime = *rec.ResponseTime
	}
	if env.Tags == nil {
		env.Tags = []string{}
	}
	return env
}

// Filter returns the records matching q, keeping their order. Only an
// invalid Where expression is an error.
func Filter(records []model.Record, q Query) ([]model.Record, error) {
	var program *vm.Program
	if strings.TrimSpace(q.Where) != "" {
		p, err := expr.Compile(q.Where, expr.Env(whereEnv{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidWhere, err)
		}
		program = p
	}

	out := []model.Record{}
	for _, rec := range records {
		if !matchesText(rec, q) {
			continue
		}
		if q.Method != "" && rec.Method != q.Method {
			continue
		}
		if q.Collection != "" && !strings.EqualFold(rec.Collection, q.Collection) {
			continue
		}
		if q.Tag != "" && !hasTag(rec.Tags, q.Tag) {
			continue
		}
		if program != nil {
			result, err := expr.Run(program, envFor(rec))
			if err != nil {
				return nil, fmt.Errorf("filter record %d: %w", rec.ID, err)
			}
			if ok, _ := result.(bool); !ok {
				continue
			}
		}
		out = append(out, rec)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

func matchesText(rec model.Record, q Query) bool {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return true
	}
	fields := []string{rec.URL, string(rec.Method), rec.Date.Local().Format(DateLayout)}
	for _, field := range fields {
		if q.Fuzzy {
			if fuzzy.MatchFold(text, field) {
				return true
			}
			continue
		}
		if strings.Contains(strings.ToLower(field), strings.ToLower(text)) {
			return true
		}
	}
	return false
}

func hasTag(tags []string, want string) bool {
	for _, tag := range tags {
		if strings.EqualFold(tag, want) {
			return true
		}
	}
	return false
}

// CollectionCount is a collection label and how many records carry it.
type CollectionCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Collections counts records per non-empty collection label, sorted by
// name.
func Collections(records []model.Record) []CollectionCount {
	counts := map[string]int{}
	for _, rec := range records {
		if rec.Collection != "" {
			counts[rec.Collection]++
		}
	}
	out := make([]CollectionCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, CollectionCount{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// TimeAgo renders date relative to now for list views. Anything older
// than a day is shown as a date.
func TimeAgo(date, now time.Time) string {
	diff := now.Sub(date)
	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return fmt.Sprintf("%d min ago", int(diff/time.Minute))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%d h ago", int(diff/time.Hour))
	default:
		return date.Local().Format("2006-01-02 15:04")
	}
}
