package vocab

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/time/rate"

	"github.com/teranos/semls/errors"
	"github.com/teranos/semls/internal/httpclient"
)

// maxBodySize bounds a vocabulary document.
const maxBodySize = 16 << 20

// AcceptHeader prefers Turtle, then JSON-LD.
const AcceptHeader = "text/turtle, application/ld+json;q=0.9, application/json;q=0.5, */*;q=0.1"

// Response is the part of a fetch result the loader uses.
type Response struct {
	Status  int
	Headers map[string]string
	Body    []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Fetcher retrieves a URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string, headers map[string]string) (*Response, error)
}

// FetcherFunc adapts a function to Fetcher.
type FetcherFunc func(ctx context.Context, url string, headers map[string]string) (*Response, error)

func (f FetcherFunc) Fetch(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	return f(ctx, url, headers)
}

// HTTPFetcher fetches over HTTP(S) through an SSRF-guarded client and reads
// file:// URLs from disk. Requests are spaced by a shared limiter.
type HTTPFetcher struct {
	client  *httpclient.Client
	limiter *rate.Limiter
}

// NewHTTPFetcher creates a fetcher allowing perSecond requests with a burst
// of one. perSecond <= 0 disables the limit.
func NewHTTPFetcher(client *httpclient.Client, perSecond float64) *HTTPFetcher {
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	return &HTTPFetcher{client: client, limiter: rate.NewLimiter(limit, 1)}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, raw string, headers map[string]string) (*Response, error) {
	if strings.HasPrefix(raw, "file:") {
		return readFile(raw)
	}
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "rate limiter")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, raw, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "build request for %s", raw)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrFetchFailed, "%s: %v", raw, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, errors.Wrapf(err, "read body of %s", raw)
	}
	out := &Response{Status: resp.StatusCode, Headers: make(map[string]string), Body: body}
	for k := range resp.Header {
		out.Headers[strings.ToLower(k)] = resp.Header.Get(k)
	}
	return out, nil
}

func readFile(raw string) (*Response, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid file URL %s", raw)
	}
	data, err := os.ReadFile(filepath.FromSlash(u.Path))
	if os.IsNotExist(err) {
		return &Response{Status: http.StatusNotFound}, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", u.Path)
	}
	ct := "text/turtle"
	if ext := strings.ToLower(filepath.Ext(u.Path)); ext == ".jsonld" || ext == ".json" {
		ct = "application/ld+json"
	}
	return &Response{
		Status:  http.StatusOK,
		Headers: map[string]string{"content-type": ct},
		Body:    data,
	}, nil
}
