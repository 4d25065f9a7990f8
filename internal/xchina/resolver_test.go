package xchina

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/handiism/xchina-downloader/internal/pagerange"
)

// fakeFetcher serves pages from memory and records what was requested.
type fakeFetcher struct {
	pages map[string]string

	mu    sync.Mutex
	calls map[string]int
}

func newFakeFetcher(pages map[string]string) *fakeFetcher {
	return &fakeFetcher{pages: pages, calls: make(map[string]int)}
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.mu.Lock()
	f.calls[url]++
	f.mu.Unlock()

	html, ok := f.pages[url]
	if !ok {
		return "", fmt.Errorf("fetch %s: not found", url)
	}
	return html, nil
}

func (f *fakeFetcher) count(url string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[url]
}

func listingPage(cards ...string) string {
	html := `<html><body><div class="list">`
	for _, id := range cards {
		html += fmt.Sprintf(`<div class="item">
  <a href="/photo/%s.html"><img src="https://img.xchina.biz/photos/%s/0001_600x0.jpg" alt="%s"></a>
  <div class="tag"><div>5P</div></div>
</div>`, id, id, id)
	}
	return html + `</div></body></html>`
}

func TestResolver_Listing(t *testing.T) {
	base := "https://xchina.co/photos/series-5f1476781eab4"
	fetcher := newFakeFetcher(map[string]string{
		base + "/1.html": listingPage("id-a", "id-b"),
		base + "/3.html": listingPage("id-e"),
		base + "/2.html": listingPage("id-c", "id-d"),
	})
	resolver := NewResolver(fetcher, testLogger(), 2, 2)

	urls := []string{base + "/1.html", base + "/2.html", base + "/missing.html", base + "/3.html"}
	infos := resolver.Listing(context.Background(), urls)

	var titles []string
	for _, info := range infos {
		titles = append(titles, info.Title)
	}
	want := []string{"id-a", "id-b", "id-c", "id-d", "id-e"}
	if fmt.Sprint(titles) != fmt.Sprint(want) {
		t.Errorf("titles = %v, want %v (page order)", titles, want)
	}
}

func TestResolver_ListingURLs(t *testing.T) {
	listing := "https://xchina.co/photos/series-5f1476781eab4.html"
	fetcher := newFakeFetcher(map[string]string{
		listing: pagerHTML(`
			<a href="/photos/series-5f1476781eab4/1.html" current="true">1</a>
			<a href="/photos/series-5f1476781eab4/4.html">4</a>`),
	})
	resolver := NewResolver(fetcher, testLogger(), 4, 4)
	ctx := context.Background()

	all, err := resolver.ListingURLs(ctx, listing, "")
	if err != nil {
		t.Fatalf("ListingURLs: %v", err)
	}
	if len(all) != 4 || all[3] != "https://xchina.co/photos/series-5f1476781eab4/4.html" {
		t.Errorf("ListingURLs(all) = %v", all)
	}

	ranged, err := resolver.ListingURLs(ctx, listing, "2~3")
	if err != nil {
		t.Fatalf("ListingURLs(range): %v", err)
	}
	if len(ranged) != 2 || ranged[0] != "https://xchina.co/photos/series-5f1476781eab4/2.html" {
		t.Errorf("ListingURLs(range) = %v", ranged)
	}
	if fetcher.count(listing) != 1 {
		t.Errorf("range expansion should not fetch, got %d fetches", fetcher.count(listing))
	}

	if _, err := resolver.ListingURLs(ctx, listing, "+1,+2"); !errors.Is(err, pagerange.ErrRangeExpression) {
		t.Errorf("error = %v, want ErrRangeExpression", err)
	}
}

func itemPage(pager string, images ...string) string {
	var figures string
	for _, src := range images {
		figures += `<figure class="item"><img class="cr_only" src="` + src + `"></figure>`
	}
	return contentPage(`
<div><i class="fa fa-address-card-o"></i>Beach</div>
<div><i class="fa fa-picture-o"></i>4P</div>
<div><i class="fa fa-video-camera"></i>XiuRen</div>`, "", figures+`<div class="pager"><div>`+pager+`</div></div>`)
}

func TestResolver_Content(t *testing.T) {
	itemURL := "https://xchina.co/photo/id-64c4abcd9026b.html"
	page2 := "https://xchina.co/photo/id-64c4abcd9026b/2.html"
	pager := `
		<a href="/photo/id-64c4abcd9026b/1.html" current="true">1</a>
		<a href="/photo/id-64c4abcd9026b/2.html">2</a>`
	img := func(n int) string {
		return fmt.Sprintf("https://img.xchina.biz/photos/64c4abcd9026b/%04d_600x0.jpg", n)
	}

	fetcher := newFakeFetcher(map[string]string{
		itemURL: itemPage(pager, img(1), img(2)),
		page2:   itemPage(pager, img(3), img(4)),
	})
	resolver := NewResolver(fetcher, testLogger(), 4, 4)

	content, err := resolver.Content(context.Background(), itemURL)
	if err != nil {
		t.Fatalf("Content: %v", err)
	}

	want := []string{
		"https://img.xchina.biz/photos/64c4abcd9026b/0001.jpg",
		"https://img.xchina.biz/photos/64c4abcd9026b/0002.jpg",
		"https://img.xchina.biz/photos/64c4abcd9026b/0003.jpg",
		"https://img.xchina.biz/photos/64c4abcd9026b/0004.jpg",
	}
	if fmt.Sprint(content.Images) != fmt.Sprint(want) {
		t.Errorf("Images = %v, want %v", content.Images, want)
	}
	if content.PageURL != itemURL {
		t.Errorf("PageURL = %q, want %q", content.PageURL, itemURL)
	}
	if content.ItemID() != "id-64c4abcd9026b" {
		t.Errorf("ItemID = %q", content.ItemID())
	}
	if n := fetcher.count(itemURL); n != 1 {
		t.Errorf("current page fetched %d times, want 1", n)
	}
}

func TestResolver_Content_NoUsablePage(t *testing.T) {
	itemURL := "https://xchina.co/photo/id-broken.html"
	fetcher := newFakeFetcher(map[string]string{
		itemURL: `<html><body>gone</body></html>`,
	})
	resolver := NewResolver(fetcher, testLogger(), 1, 1)

	_, err := resolver.Content(context.Background(), itemURL)
	if !errors.Is(err, ErrNotContentPage) {
		t.Errorf("error = %v, want ErrNotContentPage", err)
	}

	if _, err := resolver.Content(context.Background(), "https://xchina.co/photo/id-missing.html"); err == nil {
		t.Error("expected fetch error")
	}
}

func TestResolver_Categories(t *testing.T) {
	fetcher := newFakeFetcher(map[string]string{
		Origin: `<div class="section"><div class="aside"><div class="series"><h3>Series</h3>
			<a href="/photos/series-1.html"><div>XiuRen (3)</div></a></div></div></div>`,
	})

	categories, err := NewResolver(fetcher, testLogger(), 1, 1).Categories(context.Background(), Origin)
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if len(categories) != 1 || categories[0].URL != "https://xchina.co/photos/series-1.html" {
		t.Errorf("Categories = %+v", categories)
	}
}
