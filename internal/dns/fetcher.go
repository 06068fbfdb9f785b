// Package dns implements the dns_lookup tool on top of the HackerTarget
// DNS lookup API.
package dns

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bobmcallan/dns-mcp/internal/common"
)

// Fetch stages reported by FetchError.
const (
	OpRequest = "request"
	OpRead    = "read"
)

// ErrResponseTooLarge is returned when a response body exceeds the fetcher's
// byte limit. Oversized bodies are rejected whole, never cut short.
var ErrResponseTooLarge = errors.New("response too large")

// Fetcher retrieves the body of a URL as text.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetchError reports which stage of a fetch failed.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// HTTPFetcher is a Fetcher backed by an *http.Client. The response status is
// not inspected; any body the provider sends back is returned.
type HTTPFetcher struct {
	httpClient *http.Client
	maxBytes   int64
	userAgent  string
	logger     *common.Logger
}

// NewHTTPFetcher creates a fetcher with the given request timeout and body
// limit in bytes.
func NewHTTPFetcher(timeout time.Duration, maxBytes int64, userAgent string, logger *common.Logger) *HTTPFetcher {
	return &HTTPFetcher{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxBytes:  maxBytes,
		userAgent: userAgent,
		logger:    logger,
	}
}

// Fetch performs a GET request and returns the response body.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (string, error) {
	f.logger.Debug().Str("method", "GET").Str("url", url).Msg("provider request")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &FetchError{Op: OpRequest, Err: err}
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		f.logger.Error().Str("url", url).Int64("duration_ms", duration.Milliseconds()).Str("error", err.Error()).Msg("provider request failed")
		return "", &FetchError{Op: OpRequest, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err == nil && int64(len(body)) > f.maxBytes {
		err = fmt.Errorf("%w: limit is %d bytes", ErrResponseTooLarge, f.maxBytes)
	}
	if err != nil {
		f.logger.Error().Str("url", url).Int("status", resp.StatusCode).Str("error", err.Error()).Msg("provider response read failed")
		return "", &FetchError{Op: OpRead, Err: err}
	}

	f.logger.Debug().
		Int("status", resp.StatusCode).
		Int("bytes", len(body)).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("provider response")

	return string(body), nil
}
