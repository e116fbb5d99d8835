package integrations

import (
	"errors"
	"net/http"
	"net/url"
	"time"
)

// httpTimeout bounds a single request. Bundle downloads run to hundreds of
// kilobytes, so this is more generous than a metadata-only client would need.
const httpTimeout = 30 * time.Second

var (
	// ErrNotFound is returned when a package or resource doesn't exist in the registry.
	ErrNotFound = errors.New("resource not found")

	// ErrNetwork is returned for HTTP failures (timeouts, connection errors, 5xx responses).
	ErrNetwork = errors.New("network error")
)

// NewHTTPClient creates an HTTP client with a standard timeout for CDN and
// registry requests.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: httpTimeout}
}

// URLEncode percent-encodes a string for use in URLs. Scoped npm package
// names carry a slash that registry paths require encoded.
// This is a convenience wrapper around [url.QueryEscape].
func URLEncode(s string) string { return url.QueryEscape(s) }
