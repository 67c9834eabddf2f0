package discovery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/net/html/charset"
	"golang.org/x/time/rate"
)

// Fetcher returns the text of a page.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Fetch error sentinels
var (
	// ErrTimeout is wrapped by fetch errors caused by the per-request timeout.
	ErrTimeout = eris.New("fetch timed out")
	// ErrInvalidURL is wrapped when a link can never be fetched, such as a
	// relative path or a non-web scheme.
	ErrInvalidURL = eris.New("not a fetchable URL")
)

// StatusError reports a non-success HTTP response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// IsTransient reports whether a fetch error is worth retrying on a later
// run. Only timeouts, network failures and 408/429/5xx statuses qualify.
func IsTransient(err error) bool {
	if err == nil || eris.Is(err, ErrInvalidURL) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		code := statusErr.StatusCode
		return code >= 500 || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
	}
	if eris.Is(err, ErrTimeout) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	// *url.Error satisfies net.Error itself, so look at what it wraps.
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}

// checkURL rejects links that no HTTP request could ever retrieve.
func checkURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return eris.Wrapf(ErrInvalidURL, "%q: %v", rawURL, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return eris.Wrapf(ErrInvalidURL, "%q", rawURL)
	}
	return nil
}

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent string
	Timeout   time.Duration
	// RequestsPerSecond limits requests to a single host. Zero disables
	// the limit.
	RequestsPerSecond float64
	MaxBodyBytes      int64
}

// DefaultUserAgent is sent when HTTPOptions.UserAgent is empty.
const DefaultUserAgent = "mozilla/5.0 (macintosh; intel mac os x 10_11_5) applewebkit/537.36 " +
	"(khtml, like gecko) chrome/50.0.2661.102 safari/537.36"

// HTTPFetcher implements Fetcher using net/http with a per-request timeout
// and a per-host rate limit.
type HTTPFetcher struct {
	client *http.Client
	opts   HTTPOptions

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

// NewHTTPFetcher creates a new HTTPFetcher with the given options.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 9 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.MaxBodyBytes == 0 {
		opts.MaxBodyBytes = 10 << 20
	}
	return &HTTPFetcher{
		client:   &http.Client{},
		opts:     opts,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (f *HTTPFetcher) limiterFor(rawURL string) *rate.Limiter {
	if f.opts.RequestsPerSecond <= 0 {
		return nil
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	lim, ok := f.limiters[u.Host]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(f.opts.RequestsPerSecond), 1)
		f.limiters[u.Host] = lim
	}
	return lim
}

// Fetch downloads rawURL and returns the body decoded to UTF-8.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	if err := checkURL(rawURL); err != nil {
		return "", err
	}

	if lim := f.limiterFor(rawURL); lim != nil {
		if err := lim.Wait(ctx); err != nil {
			return "", eris.Wrap(err, "rate limiter wait")
		}
	}

	fetchCtx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", eris.Wrapf(ErrInvalidURL, "%q: %v", rawURL, err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", f.classify(ctx, err, rawURL)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, f.opts.MaxBodyBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", eris.Wrap(err, "failed to decode response")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", f.classify(ctx, err, rawURL)
	}

	return string(data), nil
}

// classify maps a transport error to ErrTimeout when the request deadline,
// rather than the caller, ended it.
func (f *HTTPFetcher) classify(ctx context.Context, err error, rawURL string) error {
	if ctx.Err() != nil {
		return eris.Wrap(ctx.Err(), "fetch cancelled")
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return eris.Wrapf(ErrTimeout, "%s after %s", rawURL, f.opts.Timeout)
	}
	return eris.Wrap(err, "failed to fetch URL")
}
