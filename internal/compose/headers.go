package compose

import (
	"strings"

	"github.com/vedsharma/apireplay/internal/model"
)

// DefaultHeaders returns the baseline headers every template starts with.
func DefaultHeaders() []model.KeyValue {
	return []model.KeyValue{
		{Key: "Content-Type", Value: "application/json", Enabled: true},
		{Key: "Accept", Value: "application/json", Enabled: true},
	}
}

// MergeDefaultHeaders appends every default whose key is not already
// present in existing, compared case-insensitively. Existing rows keep
// their order, values and enabled flags, even when disabled.
func MergeDefaultHeaders(existing, defaults []model.KeyValue) []model.KeyValue {
	merged := make([]model.KeyValue, 0, len(existing)+len(defaults))
	merged = append(merged, existing...)

	seen := make(map[string]bool, len(existing))
	for _, h := range existing {
		seen[strings.ToLower(strings.TrimSpace(h.Key))] = true
	}
	for _, d := range defaults {
		key := strings.ToLower(strings.TrimSpace(d.Key))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		merged = append(merged, d)
	}
	return merged
}

// ResolveHeaders flattens enabled, keyed rows into a mapping. A later row
// with the same key wins.
func ResolveHeaders(headers []model.KeyValue) map[string]string {
	resolved := make(map[string]string, len(headers))
	for _, h := range headers {
		if !h.Enabled || h.Key == "" {
			continue
		}
		resolved[h.Key] = h.Value
	}
	return resolved
}
