// Package http provides the transports used to reach the gallery site.
//
// The package handles:
//   - Direct requests with browser-like headers, optional proxy and no redirects (Client)
//   - Rendered page fetches through a Splash service (SplashClient)
//   - Rendered page fetches through a local headless Chrome (ChromeRenderer)
//   - Bounded retries with a fixed delay (RetryPolicy)
//
// Client, SplashClient and ChromeRenderer all implement
//
//	Fetch(ctx context.Context, url string) (string, error)
//
// and return a *FetchError once every attempt has failed.
//
// # Basic Usage
//
//	retry := http.RetryPolicy{MaxAttempts: 3, Delay: time.Second}
//	splash := http.NewSplashClient("127.0.0.1:8050", "", 60*time.Second, retry)
//	html, err := splash.Fetch(ctx, "https://xchina.co/photos/series-5f1476781eab4.html")
//
//	client, _ := http.NewClient(http.Options{
//	    Timeout:       60 * time.Second,
//	    DownloadRetry: http.RetryPolicy{MaxAttempts: 3, Delay: 500 * time.Millisecond},
//	})
//	data, err := client.DownloadBytesRetry(ctx, "https://img.xchina.biz/photos/64c4abcd9026b/0001.jpg")
package http
