package xchina

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// PageRef is one page of a paginated listing or content item.
type PageRef struct {
	URL     string `json:"url" yaml:"url"`
	Current bool   `json:"current" yaml:"current"`
}

// ParsePager lists every sibling page of pageURL using its pager links.
//
//	<div class="pager"><div>
//	  <a href="/photos/series-5f1476781eab4/1.html" current="true">1</a>
//	  <a href="/photos/series-5f1476781eab4/2.html">2</a>
//	  <a href="/photos/series-5f1476781eab4/359.html">359</a>
//	</div></div>
//
// Only the highest page link is trusted; pages 1..max are synthesized from
// its directory so that elided ranges ("...") are covered. A page without
// numeric pager links is its own single page.
func ParsePager(htmlContent, pageURL string) ([]PageRef, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse pager: %w", err)
	}

	var (
		maxPage, current int
		maxHref          string
	)
	doc.Find("div.pager div a").Each(func(_ int, a *goquery.Selection) {
		n, err := strconv.Atoi(strings.TrimSpace(a.Text()))
		if err != nil || n <= 0 {
			return
		}
		if a.AttrOr("current", "") == "true" {
			current = n
		}
		if href, ok := a.Attr("href"); ok && n > maxPage {
			maxPage, maxHref = n, href
		}
	})

	if maxPage == 0 {
		return []PageRef{{URL: pageURL, Current: true}}, nil
	}

	idx := strings.LastIndex(maxHref, "/")
	if idx < 0 {
		return nil, fmt.Errorf("%w: pager link %q has no directory", ErrMissingField, maxHref)
	}
	base := absolute(pageURL, maxHref[:idx])

	pages := make([]PageRef, 0, maxPage)
	for i := 1; i <= maxPage; i++ {
		pages = append(pages, PageRef{
			URL:     fmt.Sprintf("%s/%d.html", base, i),
			Current: i == current,
		})
	}
	return pages, nil
}
