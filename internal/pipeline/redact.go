package pipeline

import "strings"

// Redacted replaces sensitive header values in stored records.
const Redacted = "[REDACTED]"

// sensitiveHeaders is a list of headers that should be redacted before storing in history
var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"x-api-key":           true,
	"api-key":             true,
	"x-auth-token":        true,
	"x-csrf-token":        true,
	"x-xsrf-token":        true,
	"x-access-token":      true,
	"x-refresh-token":     true,
	"x-session-token":     true,
	"x-secret-key":        true,
	"x-private-key":       true,

	// cloud credentials
	"x-amz-security-token":     true,
	"x-amz-credential":         true,
	"x-amz-signature":          true,
	"x-goog-iap-jwt-assertion": true,
	"x-ms-token-aad-id-token":  true,
}

// IsSensitiveHeader reports whether key carries credentials.
func IsSensitiveHeader(key string) bool {
	return sensitiveHeaders[strings.ToLower(key)]
}

// RedactHeaders returns a copy of headers with sensitive values redacted.
func RedactHeaders(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if IsSensitiveHeader(k) {
			out[k] = Redacted
			continue
		}
		out[k] = v
	}
	return out
}

var sensitiveBodyPatterns = []string{
	"password", "passwd", "secret", "token", "api_key", "apikey",
	"private_key", "client_secret", "credit_card", "card_number",
}

// LooksSensitive reports whether body mentions credential-like fields.
func LooksSensitive(body string) bool {
	lower := strings.ToLower(body)
	for _, pattern := range sensitiveBodyPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
