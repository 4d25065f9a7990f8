package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// errSplashTimeout marks a 200 response whose body is Splash's own
// render-timeout report rather than the page.
var errSplashTimeout = errors.New("splash render timeout")

const splashTimeoutMarker = `{"error": 504`

// splashRequest is the JSON body of a render.html call.
type splashRequest struct {
	Proxy   string            `json:"proxy,omitempty"`
	Images  int               `json:"images"`
	Headers map[string]string `json:"headers"`
	Timeout int               `json:"timeout"`
}

// SplashClient renders pages through a Splash service, so that HTML built
// by the site's scripts is visible to the parser.
//
// Example usage:
//
//	splash := NewSplashClient("127.0.0.1:8050", "", 60*time.Second, RetryPolicy{MaxAttempts: 3, Delay: time.Second})
//	html, err := splash.Fetch(ctx, "https://xchina.co/photos/series-5f1476781eab4.html")
type SplashClient struct {
	httpClient *http.Client
	endpoint   string
	payload    []byte
	retry      RetryPolicy
}

// NewSplashClient creates a client for the Splash service at addr. The
// address may omit the scheme. proxy, if set, is the proxy Splash itself
// uses to reach the site.
func NewSplashClient(addr, proxy string, renderTimeout time.Duration, retry RetryPolicy) *SplashClient {
	if !strings.HasPrefix(addr, "http") {
		addr = "http://" + addr
	}

	payload, _ := json.Marshal(splashRequest{
		Proxy:   proxy,
		Images:  0,
		Headers: headerMap(BrowserHeaders()),
		Timeout: int(renderTimeout.Seconds()),
	})

	return &SplashClient{
		httpClient: &http.Client{
			// Leave Splash room to report its own timeout.
			Timeout: renderTimeout + 10*time.Second,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		endpoint: strings.TrimSuffix(addr, "/") + "/render.html",
		payload:  payload,
		retry:    retry,
	}
}

// Fetch returns the rendered HTML of pageURL, retrying on transport errors,
// non-200 responses and Splash render timeouts.
func (s *SplashClient) Fetch(ctx context.Context, pageURL string) (string, error) {
	var html string
	err := s.retry.Do(ctx, pageURL, func(ctx context.Context) error {
		var err error
		html, err = s.render(ctx, pageURL)
		return err
	})
	return html, err
}

func (s *SplashClient) render(ctx context.Context, pageURL string) (string, error) {
	reqURL := s.endpoint + "?" + url.Values{"url": {pageURL}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(s.payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}

	if strings.Contains(string(body), splashTimeoutMarker) {
		return "", errSplashTimeout
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("splash HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	return string(body), nil
}
