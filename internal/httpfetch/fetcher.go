// Package httpfetch performs all outbound requests to the upstream feeds,
// so timeout classification, redirect handling, and retry/backoff are
// applied uniformly regardless of which source adapter is calling.
package httpfetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/geosafe-net/geosafe/internal/geosafeerr"
)

const defaultUserAgent = "geosafe-gateway/1.0"

// Fetcher performs a single HTTP GET under a hard wall-clock deadline and
// classifies the result into the geosafeerr taxonomy. It never retries;
// that's RetryingFetcher's job.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher builds a Fetcher whose requests are bounded by timeout. The
// underlying client's CheckRedirect re-applies the original request's
// User-Agent header (including a per-request override) on every hop.
func NewFetcher(timeout time.Duration, userAgent string) *Fetcher {
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	f := &Fetcher{userAgent: userAgent}
	f.client = &http.Client{
		Timeout: timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("stopped after 10 redirects")
			}
			ua := f.userAgent
			if len(via) > 0 && via[0].Header.Get("User-Agent") != "" {
				ua = via[0].Header.Get("User-Agent")
			}
			req.Header.Set("User-Agent", ua)
			return nil
		},
	}
	return f
}

// Do performs one GET against url with the given extra headers, classifying
// any failure as a *geosafeerr.Error. source identifies the caller for error
// messages and metrics labels.
func (f *Fetcher) Do(ctx context.Context, source, url string, headers map[string]string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, geosafeerr.Network(source, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json, application/xml, text/xml, */*")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil || isTimeoutErr(err) {
			return nil, geosafeerr.Timeout(source, err)
		}
		return nil, geosafeerr.Network(source, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, geosafeerr.Network(source, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, geosafeerr.HTTPStatus(source, resp.StatusCode, http.StatusText(resp.StatusCode))
	}
	return body, nil
}

func isTimeoutErr(err error) bool {
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) {
		return netErr.Timeout()
	}
	return errors.Is(err, context.DeadlineExceeded)
}
