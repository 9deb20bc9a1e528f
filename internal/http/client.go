package http

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// MaxResponseSize limits response body to 50MB to prevent memory exhaustion
	MaxResponseSize = 50 * 1024 * 1024

	// Default timeout for HTTP requests
	DefaultTimeout = 30 * time.Second
)

// Request is a fully resolved outbound request.
type Request struct {
	Method  string
	URL     string
	Headers map[string]string
	// Body is nil for methods that carry no body.
	Body *string
}

// Response is what came back, decoded to plain UTF-8 bytes.
type Response struct {
	StatusCode  int
	Status      string
	Headers     map[string]string
	ContentType string
	Body        []byte
	Truncated   bool
}

// Options tune a Client. Zero values fall back to the defaults above.
type Options struct {
	Timeout         time.Duration
	MaxResponseSize int64
	// Limiter throttles outbound requests when set.
	Limiter *rate.Limiter
	// Transport overrides the underlying round tripper (tests).
	Transport http.RoundTripper
}

// Client wraps the standard http.Client with validation, size limits and
// response decoding.
type Client struct {
	client  *http.Client
	maxSize int64
	limiter *rate.Limiter
}

// NewClient creates a new HTTP client
func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxSize := opts.MaxResponseSize
	if maxSize <= 0 {
		maxSize = MaxResponseSize
	}
	return &Client{
		client: &http.Client{
			Timeout:   timeout,
			Transport: opts.Transport,
		},
		maxSize: maxSize,
		limiter: opts.Limiter,
	}
}

// Send executes req. Any returned error is a transport failure: the
// request never produced a response.
func (c *Client) Send(ctx context.Context, req Request) (*Response, error) {
	// Validate URL and check for SSRF risks
	if err := validateURL(req.URL); err != nil {
		return nil, err
	}

	if strings.HasPrefix(strings.ToLower(req.URL), "http://") {
		slog.Debug("using insecure HTTP connection", "url", req.URL)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	var bodyReader io.Reader
	if req.Body != nil {
		bodyReader = strings.NewReader(*req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bodyReader)
	if err != nil {
		return nil, err
	}
	for key, value := range req.Headers {
		if strings.EqualFold(key, "Host") {
			httpReq.Host = value
			continue
		}
		httpReq.Header.Set(key, value)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// Read response body with size limit to prevent memory exhaustion
	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxSize+1))
	if err != nil {
		return nil, err
	}

	truncated := int64(len(raw)) > c.maxSize
	if truncated {
		raw = raw[:c.maxSize]
		slog.Warn("response body truncated", "url", req.URL, "limit_bytes", c.maxSize)
	}

	contentType := resp.Header.Get("Content-Type")
	body := raw
	if !resp.Uncompressed && !truncated {
		var overflow bool
		body, overflow = decodeContentEncoding(raw, resp.Header.Get("Content-Encoding"), c.maxSize)
		if overflow {
			truncated = true
			slog.Warn("decoded response body truncated", "url", req.URL, "limit_bytes", c.maxSize)
		}
	}
	body = toUTF8(body, contentType)

	// Convert response headers
	headers := make(map[string]string, len(resp.Header))
	for key, values := range resp.Header {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}

	return &Response{
		StatusCode:  resp.StatusCode,
		Status:      resp.Status,
		Headers:     headers,
		ContentType: contentType,
		Body:        body,
		Truncated:   truncated,
	}, nil
}

// validateURL checks the URL for potential SSRF vulnerabilities
func validateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %q (only http and https are allowed)", parsed.Scheme)
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return fmt.Errorf("URL must have a hostname")
	}

	// Block cloud metadata endpoints (common SSRF targets)
	if isCloudMetadataEndpoint(hostname) {
		return fmt.Errorf("blocked request to cloud metadata endpoint: %s", hostname)
	}

	lowerHost := strings.ToLower(hostname)
	if lowerHost == "localhost" || lowerHost == "127.0.0.1" || lowerHost == "::1" {
		slog.Debug("request to loopback address", "host", hostname)
	} else if isPrivateOrReservedHost(hostname) {
		slog.Warn("request to private or reserved address", "host", hostname)
	}

	return nil
}

// isPrivateOrReservedHost checks if the hostname is a private or reserved IP
func isPrivateOrReservedHost(hostname string) bool {
	privatePatterns := []string{
		"10.",      // 10.0.0.0/8
		"192.168.", // 192.168.0.0/16
		"172.16.", "172.17.", "172.18.", "172.19.", // 172.16.0.0/12
		"172.20.", "172.21.", "172.22.", "172.23.",
		"172.24.", "172.25.", "172.26.", "172.27.",
		"172.28.", "172.29.", "172.30.", "172.31.",
		"0.",       // 0.0.0.0/8
		"169.254.", // Link-local
	}

	for _, pattern := range privatePatterns {
		if strings.HasPrefix(hostname, pattern) {
			return true
		}
	}
	return false
}

var metadataHosts = map[string]bool{
	"169.254.169.254":          true, // AWS, GCP, Azure metadata
	"metadata.google.internal": true, // GCP metadata
	"metadata.goog":            true, // GCP metadata alternative
	"100.100.100.200":          true, // Alibaba Cloud metadata
	"169.254.170.2":            true, // AWS ECS task metadata
}

// isCloudMetadataEndpoint checks if the hostname is a cloud metadata service
func isCloudMetadataEndpoint(hostname string) bool {
	return metadataHosts[strings.ToLower(hostname)]
}

