// Package snippet renders a record as client code the user can paste
// elsewhere.
package snippet

import (
	"fmt"
	"sort"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/vedsharma/apireplay/internal/model"
)

func sortedKeys(headers map[string]string) []string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func method(rec model.Record) string {
	if rec.Method == "" {
		return string(model.MethodGet)
	}
	return string(rec.Method)
}

// Curl renders rec as a single-line curl command.
func Curl(rec model.Record) string {
	args := []string{"curl", "-X " + method(rec), singleQuote(rec.URL)}
	for _, k := range sortedKeys(rec.Headers) {
		args = append(args, "-H "+singleQuote(k+": "+rec.Headers[k]))
	}
	if rec.Body != nil {
		args = append(args, "--data-raw "+singleQuote(*rec.Body))
	}
	return strings.Join(args, " ")
}

func singleQuote(value string) string {
	if value == "" {
		return "''"
	}
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}

// Fetch renders rec as a fetch() call.
func Fetch(rec model.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "fetch(%s, {\n", jsString(rec.URL))
	fmt.Fprintf(&b, "  method: %s,\n", jsString(method(rec)))

	keys := sortedKeys(rec.Headers)
	if len(keys) == 0 {
		b.WriteString("  headers: {},\n")
	} else {
		b.WriteString("  headers: {\n")
		for i, k := range keys {
			sep := ","
			if i == len(keys)-1 {
				sep = ""
			}
			fmt.Fprintf(&b, "    %s: %s%s\n", jsString(k), jsString(rec.Headers[k]), sep)
		}
		b.WriteString("  },\n")
	}
	if rec.Body != nil {
		fmt.Fprintf(&b, "  body: %s,\n", jsString(*rec.Body))
	}
	b.WriteString("})\n")
	b.WriteString("  .then((res) => res.text())\n")
	b.WriteString("  .then((text) => console.log(text));")
	return b.String()
}

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	out, err := json.MarshalNoEscape(s)
	if err != nil {
		return `""`
	}
	return string(out)
}
