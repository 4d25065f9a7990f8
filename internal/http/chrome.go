package http

import (
	"context"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// ChromeRenderer renders pages in a local headless Chrome. It is the
// alternative to Splash when no render service is available.
//
// One browser is started per renderer and every Fetch opens its own tab,
// so concurrent fetches are safe.
//
// Example usage:
//
//	chrome, err := NewChromeRenderer(ctx, "", 60*time.Second, retry)
//	if err != nil {
//	    return err
//	}
//	defer chrome.Close()
//
//	html, err := chrome.Fetch(ctx, "https://xchina.co/photo/id-64c4abcd9026b.html")
type ChromeRenderer struct {
	browserCtx context.Context
	cancel     context.CancelFunc
	timeout    time.Duration
	retry      RetryPolicy
}

// NewChromeRenderer starts a headless browser that lives until Close or
// until ctx is cancelled.
func NewChromeRenderer(ctx context.Context, proxy string, timeout time.Duration, retry RetryPolicy) (*ChromeRenderer, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(UserAgent),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
	)
	if proxy != "" {
		opts = append(opts, chromedp.ProxyServer(proxy))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	// Start the browser now so a missing Chrome binary fails fast.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, err
	}

	return &ChromeRenderer{
		browserCtx: browserCtx,
		cancel: func() {
			browserCancel()
			allocCancel()
		},
		timeout: timeout,
		retry:   retry,
	}, nil
}

// Fetch returns the rendered outer HTML of pageURL.
func (r *ChromeRenderer) Fetch(ctx context.Context, pageURL string) (string, error) {
	var html string
	err := r.retry.Do(ctx, pageURL, func(ctx context.Context) error {
		var err error
		html, err = r.render(ctx, pageURL)
		return err
	})
	return html, err
}

func (r *ChromeRenderer) render(ctx context.Context, pageURL string) (string, error) {
	tabCtx, tabCancel := chromedp.NewContext(r.browserCtx)
	defer tabCancel()

	tabCtx, timeoutCancel := context.WithTimeout(tabCtx, r.timeout)
	defer timeoutCancel()

	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	headers := make(network.Headers)
	for k, v := range headerMap(BrowserHeaders()) {
		headers[k] = v
	}

	var html string
	err := chromedp.Run(tabCtx,
		network.Enable(),
		network.SetExtraHTTPHeaders(headers),
		chromedp.Navigate(pageURL),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
}

// Close shuts the browser down.
func (r *ChromeRenderer) Close() {
	r.cancel()
}
