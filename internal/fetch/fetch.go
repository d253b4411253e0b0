// Package fetch is the gateway's only egress point. It enforces a hard
// hostname allowlist, rejects private/loopback targets, sets standard
// headers, and enforces a per-call timeout. Spec §4.3.
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ApiError is the typed error this package returns for allowlist violations,
// timeouts, and upstream non-2xx responses. It is deliberately not treated as
// a breaker failure by the fetcher itself — the caller's breaker decides.
type ApiError struct {
	Status  int
	Message string
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

func newAPIError(status int, msg string) *ApiError {
	return &ApiError{Status: status, Message: msg}
}

// Fetcher performs SSRF-guarded outbound HTTP.
type Fetcher struct {
	client     *http.Client
	allowlist  map[string]struct{}
	production bool
	userAgent  string
}

// New constructs a Fetcher bound to the given hostname allowlist.
func New(allowlist []string, production bool) *Fetcher {
	set := make(map[string]struct{}, len(allowlist))
	for _, h := range allowlist {
		set[strings.ToLower(h)] = struct{}{}
	}
	return &Fetcher{
		client:     &http.Client{},
		allowlist:  set,
		production: production,
		userAgent:  "TickerHub/1.0",
	}
}

var privatePrefixes = []string{"192.168.", "10.", "172.16."}

// validate applies every rule in spec §4.3 in order; all must pass.
func (f *Fetcher) validate(rawURL string) (*url.URL, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, newAPIError(http.StatusForbidden, "unparseable URL")
	}

	if f.production && u.Scheme != "https" {
		return nil, newAPIError(http.StatusForbidden, "https required in production")
	}

	host := strings.ToLower(u.Hostname())

	if _, ok := f.allowlist[host]; !ok {
		return nil, newAPIError(http.StatusForbidden, "host not in allowlist: "+host)
	}

	if host == "localhost" || host == "127.0.0.1" || strings.HasSuffix(host, ".local") {
		return nil, newAPIError(http.StatusForbidden, "private/loopback host rejected: "+host)
	}
	for _, prefix := range privatePrefixes {
		if strings.HasPrefix(host, prefix) {
			return nil, newAPIError(http.StatusForbidden, "private/loopback host rejected: "+host)
		}
	}

	return u, nil
}

// FetchWithTimeout performs the request with standard headers merged over
// caller headers, aborting at the deadline.
func (f *Fetcher) FetchWithTimeout(ctx context.Context, rawURL string, headers http.Header, timeout time.Duration) (*http.Response, error) {
	u, err := f.validate(rawURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Set(k, v)
		}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, newAPIError(http.StatusRequestTimeout, "upstream timeout")
		}
		return nil, err
	}
	// The body is read here, before cancel runs, so the deadline covers it.
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, newAPIError(http.StatusRequestTimeout, "upstream timeout")
		}
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(data))
	return resp, nil
}

// PostWithTimeout is the POST counterpart to FetchWithTimeout, used only by
// the LLM wrapper (every other upstream in this gateway is read-only). The
// same allowlist validation and header policy applies.
func (f *Fetcher) PostWithTimeout(ctx context.Context, rawURL string, body []byte, timeout time.Duration) (*http.Response, error) {
	u, err := f.validate(rawURL)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, newAPIError(http.StatusRequestTimeout, "upstream timeout")
		}
		return nil, err
	}
	// The body is read here, before cancel runs, so the deadline covers it.
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, newAPIError(http.StatusRequestTimeout, "upstream timeout")
		}
		return nil, err
	}
	resp.Body = io.NopCloser(bytes.NewReader(data))
	return resp, nil
}

// FetchJSON decodes a 2xx JSON response into T. Non-2xx and parse failures
// both surface as ApiError.
func FetchJSON[T any](ctx context.Context, f *Fetcher, rawURL string, timeout time.Duration) (T, error) {
	var zero T
	resp, err := f.FetchWithTimeout(ctx, rawURL, nil, timeout)
	if err != nil {
		return zero, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return zero, newAPIError(resp.StatusCode, "failed to read body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return zero, newAPIError(resp.StatusCode, "upstream non-2xx")
	}

	var out T
	if err := json.Unmarshal(body, &out); err != nil {
		return zero, newAPIError(resp.StatusCode, "failed to parse JSON: "+err.Error())
	}
	return out, nil
}

// SafeFetch swallows all errors to (zero, false); for optional augmentation
// calls where a failure should never abort the caller's flow.
func SafeFetch[T any](ctx context.Context, f *Fetcher, rawURL string, timeout time.Duration) (T, bool) {
	v, err := FetchJSON[T](ctx, f, rawURL, timeout)
	if err != nil {
		var zero T
		return zero, false
	}
	return v, true
}
