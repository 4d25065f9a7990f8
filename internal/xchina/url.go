package xchina

import (
	"net/url"
	"strings"
)

// Origin is the canonical origin of the site.
const Origin = "https://xchina.co"

// Kind is the role a URL plays on the site.
type Kind int

const (
	// KindMainPage is the site home.
	KindMainPage Kind = iota + 1

	// KindListing is a category, series or model listing.
	KindListing

	// KindContentItem is the page of one gallery entry.
	KindContentItem

	// KindSingleFile is a media file on another host.
	KindSingleFile
)

func (k Kind) String() string {
	switch k {
	case KindMainPage:
		return "main"
	case KindListing:
		return "listing"
	case KindContentItem:
		return "content"
	case KindSingleFile:
		return "file"
	}
	return "unknown"
}

// Target is a classified URL.
type Target struct {
	Kind Kind
	URL  string
}

// Classify determines what kind of page raw points at.
//
//	https://xchina.co/                                  -> KindMainPage
//	https://xchina.co/photos/series-5f1476781eab4.html  -> KindListing
//	https://xchina.co/model/id-5f14.html                -> KindListing
//	https://xchina.co/photo/id-64c4abcd9026b.html       -> KindContentItem
//	https://img.xchina.biz/photos/64c4abcd9026b/0001.jpg -> KindSingleFile
//
// Anything else returns ok == false.
func Classify(raw string) (Target, bool) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Target{}, false
	}

	origin := u.Scheme + "://" + strings.ToLower(u.Host)
	path := u.Path
	if path == "" {
		path = "/"
	}

	if origin == Origin {
		switch {
		case path == "/":
			return Target{Kind: KindMainPage, URL: origin}, true
		case strings.HasPrefix(path, "/photos/"), strings.HasPrefix(path, "/model"):
			return Target{Kind: KindListing, URL: u.String()}, true
		case strings.HasPrefix(path, "/photo/"):
			return Target{Kind: KindContentItem, URL: u.String()}, true
		}
		return Target{}, false
	}

	segments := strings.FieldsFunc(path, func(r rune) bool { return r == '/' })
	if len(segments) == 0 {
		return Target{}, false
	}
	if !strings.HasSuffix(path, ".html") && strings.Contains(segments[len(segments)-1], ".") {
		return Target{Kind: KindSingleFile, URL: u.String()}, true
	}

	return Target{}, false
}

// originOf returns scheme://host of pageURL, falling back to Origin.
func originOf(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Origin
	}
	return u.Scheme + "://" + u.Host
}

// absolute resolves href against the origin of pageURL.
func absolute(pageURL, href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return originOf(pageURL) + href
}
