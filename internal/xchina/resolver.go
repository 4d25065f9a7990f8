package xchina

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/handiism/xchina-downloader/internal/model"
	"github.com/handiism/xchina-downloader/internal/pagerange"
)

// PageFetcher returns the HTML of a page, retrying internally.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Resolver fetches pages through a PageFetcher and runs the parsers over
// them, fanning out over paginated listings and items.
//
// Example usage:
//
//	resolver := NewResolver(splash, log, 50, 20)
//
//	pages, _ := resolver.ListingURLs(ctx, "https://xchina.co/photos/series-5f1476781eab4.html", "1~3")
//	infos := resolver.Listing(ctx, pages)
//
//	content, err := resolver.Content(ctx, infos[0].PageURL)
type Resolver struct {
	fetcher      PageFetcher
	parser       *Parser
	log          logrus.FieldLogger
	listingLimit int
	contentLimit int
}

// NewResolver creates a Resolver. listingLimit and contentLimit bound the
// number of listing pages and content pages fetched at once.
func NewResolver(fetcher PageFetcher, log logrus.FieldLogger, listingLimit, contentLimit int) *Resolver {
	log = log.WithField("component", "resolver")
	return &Resolver{
		fetcher:      fetcher,
		parser:       NewParser(log),
		log:          log,
		listingLimit: max(listingLimit, 1),
		contentLimit: max(contentLimit, 1),
	}
}

// Pages fetches url and returns it together with its sibling pages.
func (r *Resolver) Pages(ctx context.Context, url string) ([]PageRef, error) {
	pages, _, err := r.pages(ctx, url)
	return pages, err
}

func (r *Resolver) pages(ctx context.Context, url string) ([]PageRef, string, error) {
	html, err := r.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, "", err
	}
	pages, err := ParsePager(html, url)
	if err != nil {
		return nil, "", err
	}
	return pages, html, nil
}

// ListingURLs returns the listing pages to walk. With an empty expr every
// page reported by the pager is returned; otherwise the expression is
// expanded around the page number of listingURL without touching the
// network.
func (r *Resolver) ListingURLs(ctx context.Context, listingURL, expr string) ([]string, error) {
	if expr != "" {
		return pagerange.PageURLs(listingURL, expr)
	}

	pages, err := r.Pages(ctx, listingURL)
	if err != nil {
		return nil, err
	}
	urls := make([]string, len(pages))
	for i, p := range pages {
		urls[i] = p.URL
	}
	return urls, nil
}

// Listing parses every page in pageURLs and concatenates the summaries in
// page order. Pages that fail to fetch or parse are logged and skipped.
func (r *Resolver) Listing(ctx context.Context, pageURLs []string) []*model.ContentInfo {
	results := make([][]*model.ContentInfo, len(pageURLs))

	var g errgroup.Group
	g.SetLimit(r.listingLimit)

	for i, pageURL := range pageURLs {
		g.Go(func() error {
			html, err := r.fetcher.Fetch(ctx, pageURL)
			if err != nil {
				r.log.WithField("url", pageURL).WithError(err).Error("Failed to fetch listing page")
				return nil
			}
			infos, err := r.parser.ParseListing(html, pageURL)
			if err != nil {
				r.log.WithField("url", pageURL).WithError(err).Error("Failed to parse listing page")
				return nil
			}
			r.log.WithFields(logrus.Fields{"url": pageURL, "items": len(infos)}).Debug("Parsed listing page")
			results[i] = infos
			return nil
		})
	}
	_ = g.Wait()

	var all []*model.ContentInfo
	for _, infos := range results {
		all = append(all, infos...)
	}
	return all
}

// Content resolves every page of the item at pageURL and merges their image
// lists in page order. Pages that fail are logged and left out; the call
// fails only when no page could be parsed.
func (r *Resolver) Content(ctx context.Context, pageURL string) (*model.Content, error) {
	pages, firstHTML, err := r.pages(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	results := make([]*model.Content, len(pages))
	errs := make([]error, len(pages))

	var g errgroup.Group
	g.SetLimit(r.contentLimit)

	for i, page := range pages {
		g.Go(func() error {
			html := firstHTML
			if !page.Current && page.URL != pageURL {
				fetched, err := r.fetcher.Fetch(ctx, page.URL)
				if err != nil {
					errs[i] = err
					return nil
				}
				html = fetched
			}
			results[i], errs[i] = r.parser.ParseContentPage(html, page.URL)
			return nil
		})
	}
	_ = g.Wait()

	var merged *model.Content
	for i, content := range results {
		if errs[i] != nil {
			r.log.WithField("url", pages[i].URL).WithError(errs[i]).Warn("Skipping content page")
			continue
		}
		if merged == nil {
			merged = content
			continue
		}
		merged.Merge(content)
	}

	if merged == nil {
		return nil, fmt.Errorf("no usable page for %s: %w", pageURL, errors.Join(errs...))
	}

	// The item is identified by the URL it was requested with, not by
	// whichever numbered page parsed first.
	merged.PageURL = pageURL
	return merged, nil
}

// Categories parses the category sidebar of the main page.
func (r *Resolver) Categories(ctx context.Context, mainURL string) ([]model.Category, error) {
	html, err := r.fetcher.Fetch(ctx, mainURL)
	if err != nil {
		return nil, err
	}
	return r.parser.ParseCategories(html, mainURL)
}
