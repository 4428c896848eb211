// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"time"

	"github.com/decoupage/decoupage/internal/issue"

	"github.com/spf13/afero"
)

const (
	// DefaultMaxRedirects bounds how many Location hops one download follows.
	DefaultMaxRedirects = 10

	defaultUserAgent = "decoupage/dev"
)

// ErrTooManyRedirects is returned when a download exceeds the redirect limit.
var ErrTooManyRedirects = errors.New("too many redirects")

type (
	// StatusError is returned when a server answers with a status other than
	// 200 or a followed redirect. It wraps issue.ErrNetwork.
	StatusError struct {
		URL        string
		StatusCode int
	}

	// ClientOption configures a Client during construction.
	ClientOption func(*Client)

	// Client downloads files over HTTP. Redirects (301, 302, 307, 308) are
	// followed by hand so each hop is logged and bounded.
	Client struct {
		httpClient   *http.Client
		fs           afero.Fs
		userAgent    string
		timeout      time.Duration
		maxRedirects int
	}
)

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d from %s", e.StatusCode, e.URL)
}

// Unwrap returns issue.ErrNetwork so callers can classify the failure.
func (e *StatusError) Unwrap() error {
	return issue.ErrNetwork
}

// WithFs sets the filesystem downloads are written to.
func WithFs(fsys afero.Fs) ClientOption {
	return func(cl *Client) {
		cl.fs = fsys
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) ClientOption {
	return func(cl *Client) {
		cl.userAgent = ua
	}
}

// WithTimeout bounds one download attempt, redirects included. Zero
// disables the timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(cl *Client) {
		cl.timeout = d
	}
}

// WithMaxRedirects sets the redirect limit.
func WithMaxRedirects(n int) ClientOption {
	return func(cl *Client) {
		cl.maxRedirects = n
	}
}

// NewClient creates a Client with sensible defaults.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:   &http.Client{},
		fs:           afero.NewOsFs(),
		userAgent:    defaultUserAgent,
		maxRedirects: DefaultMaxRedirects,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.httpClient.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return c
}

// Download fetches rawURL into dest and returns the number of bytes written.
// The body is streamed to a temporary file next to dest and renamed into
// place only once complete, so dest never holds a partial download.
func (c *Client) Download(ctx context.Context, rawURL, dest string) (int64, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	name := filepath.Base(dest)
	current := rawURL
	for hop := 0; ; hop++ {
		resp, err := c.get(ctx, current)
		if err != nil {
			return 0, fmt.Errorf("%w: GET %s: %w", issue.ErrNetwork, redactURL(current), err)
		}

		if isRedirect(resp.StatusCode) {
			location := resp.Header.Get("Location")
			drainAndClose(resp.Body)

			if location == "" {
				return 0, fmt.Errorf("%w: redirect %d from %s without Location header", issue.ErrNetwork, resp.StatusCode, redactURL(current))
			}
			if hop >= c.maxRedirects {
				return 0, fmt.Errorf("%w: %w (%d) starting at %s", issue.ErrNetwork, ErrTooManyRedirects, c.maxRedirects, redactURL(rawURL))
			}
			next, err := resolveLocation(current, location)
			if err != nil {
				return 0, fmt.Errorf("%w: invalid redirect Location %q: %w", issue.ErrNetwork, location, err)
			}

			slog.Debug("following redirect", "file", name, "status", resp.StatusCode, "to", redactURL(next))
			current = next
			continue
		}

		if resp.StatusCode != http.StatusOK {
			drainAndClose(resp.Body)
			return 0, &StatusError{URL: redactURL(current), StatusCode: resp.StatusCode}
		}

		n, err := c.save(resp.Body, dest)
		resp.Body.Close()
		if err != nil {
			return 0, fmt.Errorf("%w: downloading %s: %w", issue.ErrNetwork, name, err)
		}
		return n, nil
	}
}

func (c *Client) get(ctx context.Context, reqURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	return resp, nil
}

// save streams body into a temp file in dest's directory, then renames it.
func (c *Client) save(body io.Reader, dest string) (n int64, err error) {
	dir := filepath.Dir(dest)
	if err := c.fs.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := afero.TempFile(c.fs, dir, filepath.Base(dest)+".*.part")
	if err != nil {
		return 0, fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = c.fs.Remove(tmpName)
		}
	}()

	n, err = io.Copy(tmp, body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, err
	}

	if err = c.fs.Rename(tmpName, dest); err != nil {
		return 0, fmt.Errorf("moving download into place: %w", err)
	}
	return n, nil
}

func isRedirect(code int) bool {
	switch code {
	case http.StatusMovedPermanently, http.StatusFound,
		http.StatusTemporaryRedirect, http.StatusPermanentRedirect:
		return true
	}
	return false
}

// resolveLocation resolves a possibly relative Location against the URL
// that produced it.
func resolveLocation(current, location string) (string, error) {
	base, err := url.Parse(current)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, 64*1024))
	_ = body.Close()
}

// redactURL strips query parameters and fragments from a URL for safe inclusion
// in logs and error messages, since mirror URLs may carry access tokens.
func redactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "<invalid-url>"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
