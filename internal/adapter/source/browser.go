package source

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"contact-monitor/internal/domain/model"
	"contact-monitor/internal/domain/ports"
)

// PageLoader renders target in a browser and returns the resulting HTML.
type PageLoader func(ctx context.Context, target string) (string, error)

// BrowserFetcher loads the messages API in headless Chrome, which gets past
// WAF pages that only let JavaScript-capable clients through.
type BrowserFetcher struct {
	endpoint string
	apiKey   string
	retry    RetryPolicy
	logger   ports.Logger
	load     PageLoader
}

var _ ports.Fetcher = (*BrowserFetcher)(nil)

// BrowserOptions tunes the Chrome instance.
type BrowserOptions struct {
	// ChromePath overrides Chrome discovery.
	ChromePath string
	// Timeout bounds navigation.
	Timeout time.Duration
	// Settle is how long to wait after navigation before reading the page.
	Settle time.Duration
}

// NewBrowserFetcher creates a fetcher driving a fresh headless Chrome per attempt.
func NewBrowserFetcher(endpoint, apiKey string, opts BrowserOptions, retry RetryPolicy, logger ports.Logger) *BrowserFetcher {
	return &BrowserFetcher{
		endpoint: endpoint,
		apiKey:   apiKey,
		retry:    retry,
		logger:   logger,
		load:     ChromeLoader(opts),
	}
}

// WithLoader swaps the page loader.
func (f *BrowserFetcher) WithLoader(load PageLoader) *BrowserFetcher {
	f.load = load
	return f
}

// Fetch renders the API response in the browser and parses the JSON body.
func (f *BrowserFetcher) Fetch(ctx context.Context) (model.Snapshot, error) {
	target, err := withAPIKey(f.endpoint, f.apiKey)
	if err != nil {
		return model.Snapshot{}, err
	}
	f.logger.Info(ctx, "loading api in headless browser", "endpoint", f.endpoint)

	return retry(ctx, f.retry, f.logger, "browser", func(ctx context.Context) (model.Snapshot, error) {
		page, err := f.load(ctx, target)
		if err != nil {
			return model.Snapshot{}, transient(fmt.Errorf("load page: %w", err))
		}
		f.logger.Debug(ctx, "page loaded", "length", len(page))
		return parseRenderedPage(page)
	})
}

func parseRenderedPage(page string) (model.Snapshot, error) {
	if obj, ok := extractJSONObject(pageText(page)); ok {
		return parseEnvelope([]byte(obj))
	}
	switch {
	case isChallenge(page):
		return model.Snapshot{}, transient(model.ErrChallengeDetected)
	case strings.Contains(page, "Unauthorized"):
		return model.Snapshot{}, fmt.Errorf("%w: api key rejected", model.ErrUnauthorized)
	default:
		return model.Snapshot{}, fmt.Errorf("unexpected page content: %s", snippet([]byte(page)))
	}
}

// ChromeLoader returns a PageLoader backed by chromedp.
func ChromeLoader(opts BrowserOptions) PageLoader {
	return func(ctx context.Context, target string) (string, error) {
		allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.NoSandbox,
			chromedp.DisableGPU,
			chromedp.WindowSize(1920, 1080),
			chromedp.UserAgent(userAgent),
			chromedp.Flag("disable-extensions", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("blink-settings", "imagesEnabled=false"),
		)
		if opts.ChromePath != "" {
			allocOpts = append(allocOpts, chromedp.ExecPath(opts.ChromePath))
		}

		allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
		defer cancelAlloc()
		browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
		defer cancelBrowser()

		if opts.Timeout > 0 {
			var cancel context.CancelFunc
			browserCtx, cancel = context.WithTimeout(browserCtx, opts.Timeout+opts.Settle)
			defer cancel()
		}

		var page string
		err := chromedp.Run(browserCtx,
			chromedp.Navigate(target),
			chromedp.Sleep(opts.Settle),
			chromedp.OuterHTML("html", &page, chromedp.ByQuery),
		)
		if err != nil {
			return "", err
		}
		return page, nil
	}
}
