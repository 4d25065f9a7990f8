package download

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/handiism/xchina-downloader/internal/config"
	ioutils "github.com/handiism/xchina-downloader/internal/io"
	"github.com/handiism/xchina-downloader/internal/model"
	"github.com/handiism/xchina-downloader/internal/store"
	"github.com/handiism/xchina-downloader/internal/xchina"
)

// MediaFetcher downloads a media file, retrying internally.
type MediaFetcher interface {
	DownloadBytesRetry(ctx context.Context, url string) ([]byte, error)
}

// Resolver turns item and listing URLs into content records.
// *xchina.Resolver implements it.
type Resolver interface {
	Content(ctx context.Context, pageURL string) (*model.Content, error)
	ListingURLs(ctx context.Context, listingURL, expr string) ([]string, error)
	Listing(ctx context.Context, pageURLs []string) []*model.ContentInfo
}

var _ Resolver = (*xchina.Resolver)(nil)

// Manager coordinates item downloads.
type Manager struct {
	settings *config.Settings
	media    MediaFetcher
	resolver Resolver
	recorder Recorder
	log      logrus.FieldLogger

	filter   atomic.Int32
	counters counters

	runMu sync.Mutex // serializes Run

	mu    sync.RWMutex
	runID string
}

// NewManager creates a new download Manager. A nil recorder disables
// history.
func NewManager(settings *config.Settings, media MediaFetcher, resolver Resolver, recorder Recorder, log logrus.FieldLogger) *Manager {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	return &Manager{
		settings: settings,
		media:    media,
		resolver: resolver,
		recorder: recorder,
		log:      log.WithField("component", "download"),
	}
}

// SetFilter selects the media types downloaded from now on.
func (m *Manager) SetFilter(f model.Filter) {
	m.filter.Store(int32(f))
}

// Filter returns the current media filter.
func (m *Manager) Filter() model.Filter {
	return model.Filter(m.filter.Load())
}

// Progress returns a snapshot of the current run's counters.
func (m *Manager) Progress() Progress {
	return m.counters.snapshot()
}

func (m *Manager) currentRun() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.runID
}

func (m *Manager) setRun(id string) {
	m.mu.Lock()
	m.runID = id
	m.mu.Unlock()
}

// Run downloads everything a classified target points at. pageExpr is a
// page range expression and only applies to listings. Progress counters
// are reset at the start of each run.
func (m *Manager) Run(ctx context.Context, target xchina.Target, pageExpr string) error {
	if pageExpr != "" && target.Kind != xchina.KindListing {
		return fmt.Errorf("page range %q requires a listing URL, got %s URL %s", pageExpr, target.Kind, target.URL)
	}
	switch target.Kind {
	case xchina.KindSingleFile, xchina.KindContentItem, xchina.KindListing:
	default:
		return fmt.Errorf("%w: %s URL %s", ErrNotDownloadable, target.Kind, target.URL)
	}

	m.runMu.Lock()
	defer m.runMu.Unlock()

	m.counters.reset()
	m.startRun(ctx, target)
	defer m.finishRun(ctx)

	log := m.log.WithFields(logrus.Fields{"url": target.URL, "kind": target.Kind.String()})
	log.Info("Starting download")

	switch target.Kind {
	case xchina.KindSingleFile:
		return m.DownloadFile(ctx, target.URL)

	case xchina.KindContentItem:
		m.counters.itemsTotal.Add(1)
		content, err := m.resolver.Content(ctx, target.URL)
		if err != nil {
			m.counters.itemsFailed.Add(1)
			return err
		}
		return m.DownloadContent(ctx, content)

	default:
		pages, err := m.resolver.ListingURLs(ctx, target.URL, pageExpr)
		if err != nil {
			return err
		}
		infos := m.resolver.Listing(ctx, pages)
		if len(infos) == 0 {
			return fmt.Errorf("%w: no items on %d listing page(s) of %s", ErrNoFiles, len(pages), target.URL)
		}
		log.WithFields(logrus.Fields{"pages": len(pages), "items": len(infos)}).Info("Resolved listing")
		m.DownloadMany(ctx, infos)
		return nil
	}
}

func (m *Manager) startRun(ctx context.Context, target xchina.Target) {
	id, err := m.recorder.StartRun(ctx, target.URL, target.Kind.String())
	if err != nil {
		m.log.WithError(err).Warn("Failed to record run, history disabled for this run")
		return
	}
	m.setRun(id)
}

func (m *Manager) finishRun(ctx context.Context) {
	id := m.currentRun()
	m.setRun("")
	if id == "" {
		return
	}
	if err := m.recorder.FinishRun(context.WithoutCancel(ctx), id); err != nil {
		m.log.WithError(err).Warn("Failed to record run end")
	}
}

// DownloadMany downloads every item, at most MaxConcurrentItems at a time.
// A failing item is logged and never stops the others.
func (m *Manager) DownloadMany(ctx context.Context, infos []*model.ContentInfo) {
	m.counters.itemsTotal.Add(int64(len(infos)))

	var g errgroup.Group
	g.SetLimit(m.settings.MaxConcurrentItems)

	for _, info := range infos {
		g.Go(func() error {
			if err := m.DownloadContent(ctx, model.NewContent(info)); err != nil {
				m.log.WithField("url", info.PageURL).WithError(err).Warn("Item incomplete")
			}
			return nil
		})
	}
	_ = g.Wait()
}

// DownloadContent downloads the files of one item into its directory.
//
// Count-only records are resolved through the item pages first, as are
// records that declare videos they cannot name. The first URL is probed;
// if that fails for a record whose URLs were synthesized, the item pages
// are resolved and their explicit URLs used instead.
// Files already on disk are skipped. The returned error reports files that
// could not be fetched or written.
func (m *Manager) DownloadContent(ctx context.Context, content *model.Content) error {
	log := m.log.WithField("url", content.PageURL)
	resolved := content.HasExplicitURLs()

	urls := content.URLs()
	if len(urls) == 0 {
		log.Debug("No URLs on record, resolving item pages")
		if err := m.resolve(ctx, content); err != nil {
			return m.failItem(ctx, content, err)
		}
		resolved = true
		if urls = content.URLs(); len(urls) == 0 {
			return m.failItem(ctx, content, fmt.Errorf("%w: %s", ErrNoFiles, content.PageURL))
		}
	}

	// Listing cards carry a video count but no video filenames, so the
	// synthesized set has images only.
	missingVideos := 0
	if !resolved && m.Filter() != model.FilterImages && content.VideoCount > len(content.Videos) {
		log.WithField("videos", content.VideoCount).Debug("Record lacks video names, resolving item pages")
		if err := m.resolve(ctx, content); err != nil {
			missingVideos = content.VideoCount
			log.WithError(err).Warn("Failed to resolve item pages, videos will be missing")
		} else {
			resolved = true
			if urls = content.URLs(); len(urls) == 0 {
				return m.failItem(ctx, content, fmt.Errorf("%w: %s", ErrNoFiles, content.PageURL))
			}
		}
	}

	probeURL := urls[0]
	probe, err := m.media.DownloadBytesRetry(ctx, probeURL)
	if err != nil {
		if !resolved {
			log.WithField("file", probeURL).WithError(err).Info("Probe failed, resolving item pages")
			if err := m.resolve(ctx, content); err != nil {
				return m.failItem(ctx, content, err)
			}
			if urls = content.URLs(); len(urls) == 0 {
				return m.failItem(ctx, content, fmt.Errorf("%w: %s", ErrNoFiles, content.PageURL))
			}
		} else {
			log.WithField("file", probeURL).WithError(err).Warn("Probe failed")
		}
		probe = nil
	}

	urls = m.Filter().Apply(urls)
	if len(urls) == 0 && missingVideos > 0 {
		return m.failItem(ctx, content, fmt.Errorf("%w: %d video(s) of %s", ErrNoFiles, missingVideos, content.PageURL))
	}
	if len(urls) == 0 {
		log.WithField("filter", m.Filter().String()).Info("Nothing left after filter")
		m.finishItem(ctx, content, store.StatusDone, 0, 0)
		return nil
	}

	dir := content.Dir(m.settings.SaveDir)
	if err := ioutils.EnsureDir(dir); err != nil {
		return m.failItem(ctx, content, fmt.Errorf("%w: %w", ErrWrite, err))
	}

	var tasks []model.DownloadTask
	existing := 0
	for _, u := range urls {
		task := model.NewDownloadTask(u, dir)
		if ioutils.Exists(task.Path) {
			existing++
			m.counters.filesSkipped.Add(1)
			log.WithField("path", task.Path).WithError(ErrDuplicate).Info("Skipping existing file")
			continue
		}
		tasks = append(tasks, task)
	}
	m.counters.filesScheduled.Add(int64(len(urls)))

	itemID := content.ItemID()
	results := make(chan fetched, m.settings.MaxConcurrentFiles)
	done := make(chan writeStats, 1)
	go func() {
		done <- m.writeFiles(ctx, log, itemID, results)
	}()

	var fetchFailed atomic.Int64

	var g errgroup.Group
	g.SetLimit(m.settings.MaxConcurrentFiles)

	for _, task := range tasks {
		g.Go(func() error {
			data := probe
			if task.URL != probeURL || data == nil {
				var err error
				data, err = m.media.DownloadBytesRetry(ctx, task.URL)
				if err != nil {
					fetchFailed.Add(1)
					m.counters.filesFailed.Add(1)
					log.WithField("file", task.URL).WithError(err).Error("Failed to download file")
					return nil
				}
			}
			m.counters.bytes.Add(int64(len(data)))
			results <- fetched{task: task, data: data}
			return nil
		})
	}
	_ = g.Wait()
	close(results)
	stats := <-done

	ok := existing + stats.written + stats.skipped
	failed := int(fetchFailed.Load()) + stats.failed + missingVideos

	status := store.StatusDone
	switch {
	case failed > 0 && ok == 0:
		status = store.StatusFailed
	case failed > 0:
		status = store.StatusPartial
	}
	m.finishItem(ctx, content, status, ok, failed)

	log.WithFields(logrus.Fields{
		"written": stats.written,
		"skipped": existing + stats.skipped,
		"failed":  failed,
		"dir":     dir,
	}).Info("Item finished")

	if failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed for %s", failed, len(urls)+missingVideos, content.PageURL)
	}
	return nil
}

// resolve replaces the media lists of content with those parsed from its
// item pages. The listing metadata, and with it the target directory, is
// kept.
func (m *Manager) resolve(ctx context.Context, content *model.Content) error {
	full, err := m.resolver.Content(ctx, content.PageURL)
	if err != nil {
		return err
	}
	content.Images = full.Images
	content.Videos = full.Videos
	if full.ShowURL != "" {
		content.ShowURL = full.ShowURL
	}
	return nil
}

func (m *Manager) failItem(ctx context.Context, content *model.Content, err error) error {
	m.finishItem(ctx, content, store.StatusFailed, 0, 0)
	return err
}

func (m *Manager) finishItem(ctx context.Context, content *model.Content, status string, ok, failed int) {
	if status == store.StatusFailed {
		m.counters.itemsFailed.Add(1)
	} else {
		m.counters.itemsDone.Add(1)
	}

	runID := m.currentRun()
	if runID == "" {
		return
	}
	err := m.recorder.RecordItem(context.WithoutCancel(ctx), store.Item{
		RunID:     runID,
		ItemID:    content.ItemID(),
		PageURL:   content.PageURL,
		Title:     content.Title,
		Category:  content.Category,
		Performer: content.Performer,
		Status:    status,
		OK:        ok,
		Failed:    failed,
	})
	if err != nil {
		m.log.WithField("url", content.PageURL).WithError(err).Warn("Failed to record item")
	}
}

// DownloadFile downloads a single file into the save directory.
func (m *Manager) DownloadFile(ctx context.Context, url string) error {
	task := model.NewDownloadTask(url, m.settings.SaveDir)
	log := m.log.WithFields(logrus.Fields{"file": url, "path": task.Path})

	m.counters.filesScheduled.Add(1)

	if err := ioutils.EnsureDir(m.settings.SaveDir); err != nil {
		m.counters.filesFailed.Add(1)
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}
	if ioutils.Exists(task.Path) {
		m.counters.filesSkipped.Add(1)
		log.WithError(ErrDuplicate).Info("Skipping existing file")
		return nil
	}

	data, err := m.media.DownloadBytesRetry(ctx, url)
	if err != nil {
		m.counters.filesFailed.Add(1)
		return err
	}
	m.counters.bytes.Add(int64(len(data)))

	err = ioutils.WriteFileExclusive(ctx, task.Path, data)
	switch {
	case errors.Is(err, fs.ErrExist):
		m.counters.filesSkipped.Add(1)
		log.WithError(ErrDuplicate).Info("Skipping existing file")
		return nil
	case err != nil:
		m.counters.filesFailed.Add(1)
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	m.counters.filesDone.Add(1)
	m.recordFile(ctx, "", task, int64(len(data)))
	log.WithField("bytes", len(data)).Info("Saved file")
	return nil
}
