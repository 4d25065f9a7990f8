package xchina

import "testing"

func pagerHTML(links string) string {
	return `<html><body><div class="pager"><div>` + links + `</div></div></body></html>`
}

func TestParsePager(t *testing.T) {
	tests := []struct {
		name        string
		html        string
		pageURL     string
		wantCount   int
		wantCurrent int // 1-based, 0 for none
		wantLast    string
	}{
		{
			name: "listing with elided pages",
			html: pagerHTML(`
				<a href="/photos/series-5f1476781eab4/1.html" current="true">1</a>
				<a href="/photos/series-5f1476781eab4/2.html">2</a>
				<a href="/photos/series-5f1476781eab4/3.html">3</a>
				<a>...</a>
				<a href="/photos/series-5f1476781eab4/359.html">359</a>
				<a href="/photos/series-5f1476781eab4/2.html">Next</a>`),
			pageURL:     "https://xchina.co/photos/series-5f1476781eab4.html",
			wantCount:   359,
			wantCurrent: 1,
			wantLast:    "https://xchina.co/photos/series-5f1476781eab4/359.html",
		},
		{
			name: "content item on its second page",
			html: pagerHTML(`
				<a href="/photo/id-64c4abcd9026b/1.html">1</a>
				<a href="/photo/id-64c4abcd9026b/2.html" current="true">2</a>
				<a href="/photo/id-64c4abcd9026b/3.html">3</a>`),
			pageURL:     "https://xchina.co/photo/id-64c4abcd9026b/2.html",
			wantCount:   3,
			wantCurrent: 2,
			wantLast:    "https://xchina.co/photo/id-64c4abcd9026b/3.html",
		},
		{
			name: "single numbered page",
			html: pagerHTML(`
				<a href="/photo/id-64c4abcd9026b/1.html" current="true">1</a>`),
			pageURL:     "https://xchina.co/photo/id-64c4abcd9026b.html",
			wantCount:   1,
			wantCurrent: 1,
			wantLast:    "https://xchina.co/photo/id-64c4abcd9026b/1.html",
		},
		{
			name:        "no pager",
			html:        `<html><body><p>nothing</p></body></html>`,
			pageURL:     "https://xchina.co/photo/id-64c4abcd9026b.html",
			wantCount:   1,
			wantCurrent: 1,
			wantLast:    "https://xchina.co/photo/id-64c4abcd9026b.html",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pages, err := ParsePager(tt.html, tt.pageURL)
			if err != nil {
				t.Fatalf("ParsePager: %v", err)
			}
			if len(pages) != tt.wantCount {
				t.Fatalf("got %d pages, want %d", len(pages), tt.wantCount)
			}
			if last := pages[len(pages)-1].URL; last != tt.wantLast {
				t.Errorf("last page = %q, want %q", last, tt.wantLast)
			}

			currents := 0
			for i, p := range pages {
				if p.Current {
					currents++
					if i+1 != tt.wantCurrent {
						t.Errorf("page %d marked current, want %d", i+1, tt.wantCurrent)
					}
				}
			}
			if currents > 1 {
				t.Errorf("%d pages marked current", currents)
			}
		})
	}
}
