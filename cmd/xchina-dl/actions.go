package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/handiism/xchina-downloader/internal/app"
	"github.com/handiism/xchina-downloader/internal/config"
	"github.com/handiism/xchina-downloader/internal/download"
	ioutils "github.com/handiism/xchina-downloader/internal/io"
	"github.com/handiism/xchina-downloader/internal/logger"
	"github.com/handiism/xchina-downloader/internal/model"
	"github.com/handiism/xchina-downloader/internal/pagerange"
	"github.com/handiism/xchina-downloader/internal/store"
	"github.com/handiism/xchina-downloader/internal/xchina"
)

// Exit codes.
const (
	exitFailure     = 1
	exitUsage       = 2
	exitInterrupted = 130
)

const (
	formatYAML = "yaml"
	formatJSON = "json"
)

// loadSettings reads the config file and environment, then applies the
// global flags that were given.
func loadSettings(c *cli.Context) (*config.Settings, error) {
	settings, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("splash-addr") {
		settings.SplashAddr = c.String("splash-addr")
	}
	if c.IsSet("proxy") {
		settings.Proxy = c.String("proxy")
	}
	if c.IsSet("save-dir") {
		settings.SaveDir = c.String("save-dir")
	}
	if c.IsSet("renderer") {
		settings.Renderer = c.String("renderer")
	}
	if c.IsSet("history") {
		settings.HistoryPath = c.String("history")
	}
	if c.Bool("debug") {
		settings.Debug = true
	}

	return settings, settings.Validate()
}

// setup builds the logger and the wired components.
func setup(c *cli.Context) (*app.App, *logrus.Logger, error) {
	settings, err := loadSettings(c)
	if err != nil {
		return nil, nil, cli.Exit(err.Error(), exitUsage)
	}

	log := logger.New(settings)
	a, err := app.New(c.Context, settings, log)
	if err != nil {
		return nil, nil, cli.Exit(err.Error(), exitFailure)
	}
	return a, log, nil
}

// checkTarget classifies rawURL and validates the page options against it.
// It never touches the network.
func checkTarget(rawURL, pages string, maxPage bool) (xchina.Target, error) {
	target, ok := xchina.Classify(rawURL)
	if !ok {
		return xchina.Target{}, fmt.Errorf("%w: %s", xchina.ErrInvalidURL, rawURL)
	}

	if pages != "" && maxPage {
		return xchina.Target{}, errors.New("--pages and --max-page cannot be used together")
	}
	if target.Kind != xchina.KindListing {
		if pages != "" {
			return xchina.Target{}, fmt.Errorf("--pages requires a listing URL, got %s URL %s", target.Kind, target.URL)
		}
		if maxPage {
			return xchina.Target{}, fmt.Errorf("--max-page requires a listing URL, got %s URL %s", target.Kind, target.URL)
		}
	}
	if pages != "" {
		if _, err := pagerange.PageURLs(target.URL, pages); err != nil {
			return xchina.Target{}, err
		}
	}
	return target, nil
}

func parseAction(c *cli.Context) error {
	pages, maxPage := c.String("pages"), c.Bool("max-page")
	target, err := checkTarget(c.String("url"), pages, maxPage)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	if target.Kind == xchina.KindSingleFile {
		return cli.Exit(fmt.Sprintf("%s is a file, not a page", target.URL), exitUsage)
	}
	format := c.String("format")
	if format != formatYAML && format != formatJSON {
		return cli.Exit(fmt.Sprintf("invalid format %q, valid values are %s, %s", format, formatYAML, formatJSON), exitUsage)
	}

	a, log, err := setup(c)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := c.Context
	log.WithFields(logrus.Fields{"url": target.URL, "kind": target.Kind.String()}).Debug("Parsing")

	var out any
	switch target.Kind {
	case xchina.KindMainPage:
		out, err = a.Resolver.Categories(ctx, target.URL)
	case xchina.KindContentItem:
		out, err = a.Resolver.Content(ctx, target.URL)
	default:
		if maxPage {
			out, err = a.Resolver.Pages(ctx, target.URL)
			break
		}
		var pageURLs []string
		if pageURLs, err = a.Resolver.ListingURLs(ctx, target.URL, pages); err == nil {
			out = a.Resolver.Listing(ctx, pageURLs)
		}
	}
	if err != nil {
		return exitErr(ctx, err)
	}

	return encode(c.App.Writer, format, out)
}

func downloadAction(c *cli.Context) error {
	pages := c.String("pages")
	target, err := checkTarget(c.String("url"), pages, false)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	if target.Kind == xchina.KindMainPage {
		return cli.Exit(fmt.Sprintf("%v: %s", download.ErrNotDownloadable, target.URL), exitUsage)
	}
	filter, err := model.ParseFilter(c.String("only"))
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}

	a, _, err := setup(c)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := c.Context
	a.Manager.SetFilter(filter)

	start := time.Now()
	runErr := a.Manager.Run(ctx, target, pages)
	progress := a.Manager.Progress()
	printSummary(c.App.Writer, progress, time.Since(start))

	if runErr != nil {
		return exitErr(ctx, runErr)
	}
	if ctx.Err() != nil {
		return cli.Exit("interrupted", exitInterrupted)
	}
	if progress.ItemsFailed > 0 || progress.FilesFailed > 0 {
		return cli.Exit(fmt.Sprintf("%d item(s) and %d file(s) failed", progress.ItemsFailed, progress.FilesFailed), exitFailure)
	}
	return nil
}

func historyAction(c *cli.Context) error {
	settings, err := loadSettings(c)
	if err != nil {
		return cli.Exit(err.Error(), exitUsage)
	}
	if settings.HistoryPath == "" {
		return cli.Exit("history is disabled (history_path is empty)", exitUsage)
	}

	history, err := store.Open(settings.HistoryPath)
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}
	defer history.Close()

	ctx := c.Context
	if runID := c.String("run"); runID != "" {
		items, err := history.Items(ctx, runID)
		if err != nil {
			return cli.Exit(err.Error(), exitFailure)
		}
		files, err := history.Files(ctx, runID)
		if err != nil {
			return cli.Exit(err.Error(), exitFailure)
		}
		return encode(c.App.Writer, formatYAML, map[string]any{
			"run":   runID,
			"items": items,
			"files": files,
		})
	}

	runs, err := history.RecentRuns(ctx, c.Int("limit"))
	if err != nil {
		return cli.Exit(err.Error(), exitFailure)
	}
	if len(runs) == 0 {
		fmt.Fprintln(c.App.Writer, "No runs found")
		return nil
	}
	return encode(c.App.Writer, formatYAML, runs)
}

func configInitAction(c *cli.Context) error {
	path := c.String("path")
	if path == "" {
		path = config.DefaultPath()
	}
	if ioutils.Exists(path) && !c.Bool("force") {
		return cli.Exit(fmt.Sprintf("%s already exists, use --force to overwrite", path), exitUsage)
	}

	if err := config.DefaultSettings().Save(path); err != nil {
		return cli.Exit(fmt.Sprintf("failed to write %s: %v", path, err), exitFailure)
	}
	fmt.Fprintf(c.App.Writer, "Wrote %s\n", path)
	return nil
}

// exitErr maps a runtime error to an exit code, treating cancellation as
// an interrupt.
func exitErr(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return cli.Exit("interrupted", exitInterrupted)
	}
	return cli.Exit(err.Error(), exitFailure)
}

func encode(w io.Writer, format string, v any) error {
	if format == formatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

func printSummary(w io.Writer, p download.Progress, elapsed time.Duration) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Items: %d total, %d done, %d failed\n", p.ItemsTotal, p.ItemsDone, p.ItemsFailed)
	fmt.Fprintf(w, "Files: %d saved, %d skipped, %d failed\n", p.FilesDone, p.FilesSkipped, p.FilesFailed)
	fmt.Fprintf(w, "Size:  %.2f MB in %s\n", float64(p.Bytes)/1024/1024, elapsed.Round(time.Millisecond))
}
