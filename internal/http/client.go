package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUnexpectedContent is returned when a media URL answers with an HTML
// page instead of the file, which the site does for unknown media paths.
var ErrUnexpectedContent = errors.New("unexpected content type")

// Options configures a Client.
type Options struct {
	// Proxy is an optional proxy URL ("http://127.0.0.1:8118").
	Proxy string

	// Timeout bounds a single request.
	Timeout time.Duration

	// PageRetry is used by Fetch.
	PageRetry RetryPolicy

	// DownloadRetry is used by DownloadBytesRetry.
	DownloadRetry RetryPolicy
}

// Client wraps HTTP operations with browser-like headers.
//
// Client provides:
//   - Browser headers on every request
//   - Optional proxy
//   - No redirect following, so a moved media file surfaces as an error
//   - Retried page and media fetches
//
// Example usage:
//
//	client, err := NewClient(Options{Timeout: 60 * time.Second})
//
//	// Fetch HTML content directly
//	html, err := client.Fetch(ctx, "https://xchina.co/photo/id-64c4abcd9026b.html")
//
//	// Download a media file with retries
//	data, err := client.DownloadBytesRetry(ctx, "https://img.xchina.biz/photos/64c4abcd9026b/0001.jpg")
type Client struct {
	httpClient    *http.Client
	headers       http.Header
	pageRetry     RetryPolicy
	downloadRetry RetryPolicy
}

// NewClient creates a new HTTP client from opts.
func NewClient(opts Options) (*Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if opts.Proxy != "" {
		proxyURL, err := url.Parse(opts.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid proxy %q: %w", opts.Proxy, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		headers:       BrowserHeaders(),
		pageRetry:     opts.PageRetry,
		downloadRetry: opts.DownloadRetry,
	}, nil
}

// Get performs a GET request and returns the response body and its content type.
//
// Returns an error if:
//   - The request fails
//   - The response status is not 200 OK
//   - Reading the body fails
func (c *Client) Get(ctx context.Context, url string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", err
	}
	req.Header = c.headers.Clone()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", err
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// GetString performs a GET request and returns the response body as a string.
func (c *Client) GetString(ctx context.Context, url string) (string, error) {
	body, _, err := c.Get(ctx, url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// Fetch returns the raw HTML of url, retrying with the page policy.
// It satisfies the page fetcher used by the resolver when no renderer is
// configured.
func (c *Client) Fetch(ctx context.Context, url string) (string, error) {
	var html string
	err := c.pageRetry.Do(ctx, url, func(ctx context.Context) error {
		var err error
		html, err = c.GetString(ctx, url)
		return err
	})
	return html, err
}

// DownloadBytes downloads a media file and returns the bytes in memory.
//
// An HTML response is rejected with ErrUnexpectedContent: the site answers
// wrong media paths with a regular page rather than a 404.
func (c *Client) DownloadBytes(ctx context.Context, url string) ([]byte, error) {
	body, contentType, err := c.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(contentType, "text/html") {
		return nil, fmt.Errorf("%w: %s for %s", ErrUnexpectedContent, contentType, url)
	}
	return body, nil
}

// DownloadBytesRetry is DownloadBytes under the download retry policy.
func (c *Client) DownloadBytesRetry(ctx context.Context, url string) ([]byte, error) {
	var data []byte
	err := c.downloadRetry.Do(ctx, url, func(ctx context.Context) error {
		var err error
		data, err = c.DownloadBytes(ctx, url)
		return err
	})
	return data, err
}
