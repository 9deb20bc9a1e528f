package pipeline

import (
	"bytes"
	"errors"
	"log/slog"
	"mime"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/vedsharma/apireplay/internal/model"
)

// IsJSONMediaType reports whether contentType names application/json or a
// +json structured syntax suffix. A malformed parameter does not hide the
// media type.
func IsJSONMediaType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil && !errors.Is(err, mime.ErrInvalidMediaParameter) {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// Capture decodes a response body by its declared content type. JSON that
// does not parse falls back to text.
func Capture(contentType string, body []byte) model.Payload {
	if !IsJSONMediaType(contentType) {
		return model.TextPayload(string(body))
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, body); err != nil {
		slog.Debug("response claims JSON but does not parse", "content_type", contentType, "error", err)
		return model.TextPayload(string(body))
	}
	return model.StructuredPayload(buf.Bytes())
}
