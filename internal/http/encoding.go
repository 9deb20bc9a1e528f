package http

import (
	"bytes"
	"io"
	"log/slog"
	"mime"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"golang.org/x/net/html/charset"
)

// decodeContentEncoding undoes the encodings listed in a Content-Encoding
// header, last applied first. Unknown or broken encodings leave the body
// as it arrived. Each decoded stage is capped at limit bytes; truncated
// reports whether the cap was hit.
func decodeContentEncoding(body []byte, header string, limit int64) (decoded []byte, truncated bool) {
	if header == "" {
		return body, false
	}
	codings := strings.Split(header, ",")
	out := body
	for i := len(codings) - 1; i >= 0; i-- {
		coding := strings.ToLower(strings.TrimSpace(codings[i]))
		stage, err := decompress(out, coding, limit)
		if err != nil {
			slog.Debug("content-encoding decode failed", "encoding", coding, "error", err)
			return body, false
		}
		if int64(len(stage)) > limit {
			return stage[:limit], true
		}
		out = stage
	}
	return out, false
}

// decompress reads at most limit+1 decoded bytes so callers can tell a
// body that fits from one that overflows.
func decompress(data []byte, coding string, limit int64) ([]byte, error) {
	var r io.Reader
	switch coding {
	case "", "identity":
		return data, nil
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	case "deflate":
		fr := flate.NewReader(bytes.NewReader(data))
		defer fr.Close()
		r = fr
	case "zstd":
		zr, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		r = zr
	case "br":
		r = brotli.NewReader(bytes.NewReader(data))
	default:
		return data, nil
	}
	return io.ReadAll(io.LimitReader(r, limit+1))
}

// toUTF8 transcodes bodies whose Content-Type names a non UTF-8 charset.
func toUTF8(body []byte, contentType string) []byte {
	if contentType == "" {
		return body
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return body
	}
	label := strings.ToLower(strings.TrimSpace(params["charset"]))
	if label == "" || label == "utf-8" || label == "utf8" {
		return body
	}
	r, err := charset.NewReaderLabel(label, bytes.NewReader(body))
	if err != nil {
		slog.Debug("unknown response charset", "charset", label, "error", err)
		return body
	}
	decoded, err := io.ReadAll(r)
	if err != nil {
		return body
	}
	return decoded
}
