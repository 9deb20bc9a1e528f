package compose

import (
	"net/url"
	"strings"

	"github.com/vedsharma/apireplay/internal/model"
)

// ActiveParams keeps the params that take part in the query string.
func ActiveParams(params []model.KeyValue) []model.KeyValue {
	active := make([]model.KeyValue, 0, len(params))
	for _, p := range params {
		if !p.Enabled || p.Key == "" {
			continue
		}
		active = append(active, p)
	}
	return active
}

// BuildURL appends the encoded active params to base, in order. base is
// returned unchanged when no param is active.
func BuildURL(base string, params []model.KeyValue) string {
	active := ActiveParams(params)
	if len(active) == 0 {
		return base
	}

	pairs := make([]string, len(active))
	for i, p := range active {
		pairs[i] = escape(p.Key) + "=" + escape(p.Value)
	}

	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + strings.Join(pairs, "&")
}

// escape percent-encodes s for a query component the way browsers'
// encodeURIComponent does: letters, digits and -_.!~*'() stay literal.
func escape(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnescaped(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0F])
	}
	return b.String()
}

func isUnescaped(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-_.!~*'()", c) >= 0
}

// StripQuery returns the part of rawURL before the first '?'.
func StripQuery(rawURL string) string {
	if idx := strings.Index(rawURL, "?"); idx >= 0 {
		return rawURL[:idx]
	}
	return rawURL
}

// SplitURL separates rawURL into its base and the params of its query
// string. Params that cannot be decoded are kept verbatim.
func SplitURL(rawURL string) (string, []model.KeyValue) {
	idx := strings.Index(rawURL, "?")
	if idx < 0 {
		return rawURL, nil
	}

	base, query := rawURL[:idx], rawURL[idx+1:]
	var params []model.KeyValue
	for _, pair := range strings.Split(query, "&") {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		if k, err := url.QueryUnescape(key); err == nil {
			key = k
		}
		if v, err := url.QueryUnescape(value); err == nil {
			value = v
		}
		params = append(params, model.KeyValue{Key: key, Value: value, Enabled: true})
	}
	return base, params
}
