// Package app wires settings into the fetcher, resolver, history store and
// download manager shared by the CLI and the TUI.
package app

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/handiism/xchina-downloader/internal/config"
	"github.com/handiism/xchina-downloader/internal/download"
	"github.com/handiism/xchina-downloader/internal/http"
	"github.com/handiism/xchina-downloader/internal/store"
	"github.com/handiism/xchina-downloader/internal/xchina"
)

// App holds the long-lived components of one process.
type App struct {
	Settings *config.Settings
	Client   *http.Client
	Fetcher  xchina.PageFetcher
	Resolver *xchina.Resolver
	Manager  *download.Manager
	History  *store.Store // nil when history is disabled

	closers []func()
}

// New builds an App from settings. ctx bounds the lifetime of a headless
// browser, if one is started.
func New(ctx context.Context, settings *config.Settings, log logrus.FieldLogger) (*App, error) {
	client, err := http.NewClient(settings.ToClientOptions())
	if err != nil {
		return nil, err
	}

	a := &App{Settings: settings, Client: client}

	a.Fetcher, err = a.newFetcher(ctx)
	if err != nil {
		return nil, err
	}
	a.Resolver = xchina.NewResolver(a.Fetcher, log, settings.MaxConcurrentListingPages, settings.MaxConcurrentContentPages)

	var recorder download.Recorder = download.NopRecorder{}
	if settings.HistoryPath != "" {
		history, err := store.Open(settings.HistoryPath)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("open history %s: %w", settings.HistoryPath, err)
		}
		a.History = history
		a.closers = append(a.closers, func() { _ = history.Close() })
		recorder = history
	}

	a.Manager = download.NewManager(settings, client, a.Resolver, recorder, log)
	log.WithFields(logrus.Fields{
		"renderer": settings.Renderer,
		"save_dir": settings.SaveDir,
		"history":  settings.HistoryPath,
	}).Debug("Initialized")
	return a, nil
}

func (a *App) newFetcher(ctx context.Context) (xchina.PageFetcher, error) {
	s := a.Settings
	switch s.Renderer {
	case config.RendererChrome:
		chrome, err := http.NewChromeRenderer(ctx, s.Proxy, s.RenderTimeout, s.ToFetchRetry())
		if err != nil {
			return nil, fmt.Errorf("start headless chrome: %w", err)
		}
		a.closers = append(a.closers, chrome.Close)
		return chrome, nil
	case config.RendererDirect:
		return a.Client, nil
	default:
		return http.NewSplashClient(s.SplashAddr, s.Proxy, s.RenderTimeout, s.ToFetchRetry()), nil
	}
}

// Close releases the browser and the history database, newest first.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
