package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

var fastRetry = RetryPolicy{MaxAttempts: 3, Delay: time.Millisecond}

func TestRetryPolicy_Do(t *testing.T) {
	tests := []struct {
		name         string
		failures     int
		wantErr      bool
		wantAttempts int
	}{
		{"first try succeeds", 0, false, 1},
		{"succeeds on last try", 2, false, 3},
		{"all attempts fail", 5, true, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := fastRetry.Do(context.Background(), "u", func(context.Context) error {
				calls++
				if calls <= tt.failures {
					return errors.New("boom")
				}
				return nil
			})

			if calls != tt.wantAttempts {
				t.Errorf("calls = %d, want %d", calls, tt.wantAttempts)
			}
			if tt.wantErr {
				var fe *FetchError
				if !errors.As(err, &fe) {
					t.Fatalf("error = %v, want *FetchError", err)
				}
				if fe.Attempts != 3 || fe.URL != "u" {
					t.Errorf("FetchError = %+v", fe)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestRetryPolicy_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	policy := RetryPolicy{MaxAttempts: 5, Delay: time.Hour}
	calls := 0
	err := policy.Do(ctx, "u", func(context.Context) error {
		calls++
		return errors.New("boom")
	})

	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestClient_DownloadBytes(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/ok.jpg", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != UserAgent {
			t.Errorf("User-Agent = %q", r.Header.Get("User-Agent"))
		}
		w.Header().Set("Content-Type", "image/jpeg")
		fmt.Fprint(w, "jpeg-bytes")
	})
	mux.HandleFunc("/html.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html></html>")
	})
	mux.HandleFunc("/moved.jpg", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/ok.jpg", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client, err := NewClient(Options{Timeout: 5 * time.Second, DownloadRetry: fastRetry})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	ctx := context.Background()

	data, err := client.DownloadBytes(ctx, srv.URL+"/ok.jpg")
	if err != nil || string(data) != "jpeg-bytes" {
		t.Errorf("DownloadBytes(ok) = %q, %v", data, err)
	}

	if _, err := client.DownloadBytes(ctx, srv.URL+"/html.jpg"); !errors.Is(err, ErrUnexpectedContent) {
		t.Errorf("DownloadBytes(html) error = %v, want ErrUnexpectedContent", err)
	}

	if _, err := client.DownloadBytes(ctx, srv.URL+"/moved.jpg"); err == nil {
		t.Error("DownloadBytes should not follow redirects")
	}

	_, err = client.DownloadBytesRetry(ctx, srv.URL+"/missing.jpg")
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Attempts != 3 {
		t.Errorf("DownloadBytesRetry(missing) error = %v, want FetchError after 3 attempts", err)
	}
}

func TestNewClient_InvalidProxy(t *testing.T) {
	if _, err := NewClient(Options{Proxy: "://bad"}); err == nil {
		t.Error("expected error for invalid proxy")
	}
}

func TestSplashClient_Fetch(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)

		if r.Method != http.MethodPost || r.URL.Path != "/render.html" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("url"); got != "https://xchina.co/photo/id-1.html" {
			t.Errorf("url param = %q", got)
		}

		var body splashRequest
		raw, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Errorf("bad body: %v", err)
		}
		if body.Proxy != "http://proxy:8118" || body.Timeout != 30 || body.Headers["User-Agent"] != UserAgent {
			t.Errorf("unexpected payload %+v", body)
		}

		if n == 1 {
			fmt.Fprint(w, `{"error": 504, "type": "GlobalTimeoutError"}`)
			return
		}
		fmt.Fprint(w, "<html>rendered</html>")
	}))
	defer srv.Close()

	splash := NewSplashClient(srv.URL, "http://proxy:8118", 30*time.Second, fastRetry)
	html, err := splash.Fetch(context.Background(), "https://xchina.co/photo/id-1.html")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if html != "<html>rendered</html>" {
		t.Errorf("html = %q", html)
	}
	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestSplashClient_AddressWithoutScheme(t *testing.T) {
	s := NewSplashClient("127.0.0.1:8050/", "", time.Second, fastRetry)
	if s.endpoint != "http://127.0.0.1:8050/render.html" {
		t.Errorf("endpoint = %q", s.endpoint)
	}
}
