package app

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/handiism/xchina-downloader/internal/config"
	"github.com/handiism/xchina-downloader/internal/http"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestNew_Renderers(t *testing.T) {
	tests := []struct {
		renderer string
		check    func(t *testing.T, a *App)
	}{
		{config.RendererSplash, func(t *testing.T, a *App) {
			if _, ok := a.Fetcher.(*http.SplashClient); !ok {
				t.Errorf("fetcher = %T, want *http.SplashClient", a.Fetcher)
			}
		}},
		{config.RendererDirect, func(t *testing.T, a *App) {
			if a.Fetcher != a.Client {
				t.Errorf("fetcher = %T, want the http client", a.Fetcher)
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.renderer, func(t *testing.T) {
			settings := config.DefaultSettings()
			settings.Renderer = tt.renderer
			settings.HistoryPath = ""

			a, err := New(context.Background(), settings, testLogger())
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			defer a.Close()

			if a.Manager == nil || a.Resolver == nil {
				t.Fatal("manager and resolver must be set")
			}
			if a.History != nil {
				t.Error("history should be disabled")
			}
			tt.check(t, a)
		})
	}
}

func TestNew_History(t *testing.T) {
	settings := config.DefaultSettings()
	settings.Renderer = config.RendererDirect
	settings.HistoryPath = filepath.Join(t.TempDir(), "nested", "history.db")

	a, err := New(context.Background(), settings, testLogger())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	if a.History == nil || a.History.Path() != settings.HistoryPath {
		t.Fatalf("History = %+v", a.History)
	}
	runs, err := a.History.RecentRuns(context.Background(), 5)
	if err != nil || len(runs) != 0 {
		t.Errorf("RecentRuns = %v, %v", runs, err)
	}
}

func TestNew_InvalidProxy(t *testing.T) {
	settings := config.DefaultSettings()
	settings.Proxy = "://bad"
	if _, err := New(context.Background(), settings, testLogger()); err == nil {
		t.Error("expected error for invalid proxy")
	}
}
