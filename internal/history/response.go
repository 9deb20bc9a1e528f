package history

import (
	"bytes"
	"regexp"
	"strconv"

	"github.com/aymanbagabas/go-udiff"
	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"

	"github.com/vedsharma/apireplay/internal/model"
)

// ResponseText is the display form of a payload: indented JSON for
// structured documents, the stored string otherwise.
func ResponseText(p model.Payload) string {
	if p.Kind != model.PayloadStructured {
		return p.String()
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, p.Data, "", "  "); err != nil {
		return string(p.Data)
	}
	return buf.String()
}

// FindMatches returns the byte ranges of case-insensitive occurrences of
// term in text.
func FindMatches(text, term string) [][]int {
	if term == "" {
		return nil
	}
	re := regexp.MustCompile("(?i)" + regexp.QuoteMeta(term))
	return re.FindAllStringIndex(text, -1)
}

// MatchResponse reports whether term occurs in the display form of p.
func MatchResponse(p model.Payload, term string) bool {
	return len(FindMatches(ResponseText(p), term)) > 0
}

// ExtractPath reads a gjson path out of a structured payload.
func ExtractPath(p model.Payload, path string) (string, bool) {
	if p.Kind != model.PayloadStructured {
		return "", false
	}
	result := gjson.GetBytes(p.Data, path)
	if !result.Exists() {
		return "", false
	}
	if result.Type == gjson.JSON {
		var buf bytes.Buffer
		if err := json.Indent(&buf, []byte(result.Raw), "", "  "); err == nil {
			return buf.String(), true
		}
		return result.Raw, true
	}
	return result.String(), true
}

// Diff is a unified diff of the display form of two responses. It is
// empty when they render the same.
func Diff(a, b model.Record) string {
	left := ResponseText(a.Response) + "\n"
	right := ResponseText(b.Response) + "\n"
	return udiff.Unified(label(a), label(b), left, right)
}

func label(rec model.Record) string {
	return "#" + strconv.FormatInt(rec.ID, 10) + " " + string(rec.Method) + " " + rec.URL
}
