// Package httputil provides HTTP retry infrastructure for CDN and
// registry clients.
//
// # Retry
//
// [Retry] wraps HTTP requests with automatic retry for transient
// failures:
//
//   - Network errors
//   - 5xx server errors
//   - 429 rate limit responses
//
// It uses exponential backoff, honoring a server-requested Retry-After
// delay when the wrapped error carries one:
//
//	err := httputil.Retry(ctx, 3, time.Second, func() error {
//	    resp, err := client.Get(url)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    defer resp.Body.Close()
//	    return checkStatus(resp)
//	})
//
// Errors not wrapped in [RetryableError] abort immediately; a 404 from a
// registry will never be retried.
//
// # Configuration
//
// Default settings via [RetryWithBackoff] are suitable for most use
// cases: 3 attempts with a 1 second base delay, doubling each retry.
package httputil
