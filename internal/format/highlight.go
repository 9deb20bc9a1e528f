package format

import (
	"strings"

	"github.com/alecthomas/chroma/quick"
	"github.com/fatih/color"

	"github.com/vedsharma/apireplay/internal/history"
)

const chromaStyle = "monokai"

func highlight(source, lexer string) string {
	if color.NoColor {
		return sanitizeOutput(source)
	}
	var b strings.Builder
	if err := quick.Highlight(&b, sanitizeOutput(source), lexer, "terminal256", chromaStyle); err != nil {
		return sanitizeOutput(source)
	}
	return strings.TrimRight(b.String(), "\n")
}

// HighlightJSON colors a JSON document for the terminal.
func HighlightJSON(s string) string {
	return highlight(s, "json")
}

// HighlightScript colors prescript source.
func HighlightScript(s string) string {
	return highlight(s, "javascript")
}

// HighlightMatches marks every case-insensitive occurrence of term in s.
func HighlightMatches(s, term string) string {
	matches := history.FindMatches(s, term)
	if len(matches) == 0 {
		return sanitizeOutput(s)
	}
	var b strings.Builder
	last := 0
	for _, m := range matches {
		b.WriteString(sanitizeOutput(s[last:m[0]]))
		b.WriteString(matchColor.Sprint(sanitizeOutput(s[m[0]:m[1]])))
		last = m[1]
	}
	b.WriteString(sanitizeOutput(s[last:]))
	return b.String()
}
