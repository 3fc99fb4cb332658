package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/petrijr/nodeflux/pkg/api"
)

const DefaultTimeout = 10 * time.Second

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Fetcher retrieves a web page and reduces it to a Page.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (Page, error)
}

// ValidateURL requires an absolute http(s) URL.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return api.Fail(api.FailureInvalidArgument, "invalid URL %q", rawURL)
	}
	return nil
}

// HTTPFetcher downloads pages with a plain HTTP GET.
type HTTPFetcher struct {
	Client *http.Client
}

var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher returns a fetcher with the given request timeout; zero
// selects DefaultTimeout.
func NewHTTPFetcher(timeout time.Duration) *HTTPFetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &HTTPFetcher{Client: &http.Client{Timeout: timeout}}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	if err := ValidateURL(rawURL); err != nil {
		return Page{}, err
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Page{}, api.Wrap(api.FailureInvalidArgument, err, "build request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return Page{}, api.Wrap(api.FailureUnavailable, err, "fetch page")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		kind := api.FailureUnavailable
		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone {
			kind = api.FailureNotFound
		}
		return Page{}, api.Fail(kind, "fetch page: HTTP %d", resp.StatusCode)
	}

	page, err := ExtractPage(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return Page{}, api.Wrap(api.FailureInternal, err, "parse page")
	}
	return page, nil
}

// ChromeFetcher renders pages in headless Chrome before extracting them,
// for sites that build their content with JavaScript.
type ChromeFetcher struct {
	Timeout time.Duration
	// ExecPath overrides the browser binary; empty uses chromedp's lookup.
	ExecPath string
}

var _ Fetcher = (*ChromeFetcher)(nil)

func (f *ChromeFetcher) Fetch(ctx context.Context, rawURL string) (Page, error) {
	if err := ValidateURL(rawURL); err != nil {
		return Page{}, err
	}
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = 3 * DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.UserAgent(userAgent),
	)
	if f.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(f.ExecPath))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var doc string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &doc, chromedp.ByQuery),
	)
	if err != nil {
		return Page{}, api.Wrap(api.FailureUnavailable, err, "render page")
	}

	page, err := ExtractPage(strings.NewReader(doc))
	if err != nil {
		return Page{}, api.Wrap(api.FailureInternal, err, "parse page")
	}
	return page, nil
}

// New returns the fetcher for driver ("http" or "chrome").
func New(driver string, timeout time.Duration) (Fetcher, error) {
	switch driver {
	case "", "http":
		return NewHTTPFetcher(timeout), nil
	case "chrome":
		return &ChromeFetcher{Timeout: timeout}, nil
	}
	return nil, fmt.Errorf("unknown scrape driver %q", driver)
}
