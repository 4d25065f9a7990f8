package pagerange

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrRangeExpression is returned for any grammar violation in a page range
// expression. It is always wrapped with the offending token.
var ErrRangeExpression = errors.New("invalid page range expression")

// MaxPage is the highest page number an expression may select.
const MaxPage = 32767

// span is an inclusive page interval.
type span struct {
	from, to int
}

// Parse expands a page range expression relative to anchor into a sorted,
// deduplicated list of page numbers.
//
// The expression is a comma separated list of tokens:
//   - "7"     a single page
//   - "3~8"   pages 3 through 8
//   - "+5"    anchor through anchor+5
//   - "-10"   max(1, anchor-10) through anchor
//
// At most one "+" token and one "-" token may appear. No selected page may
// exceed MaxPage.
//
// Example:
//
//	pages, err := Parse("3,5,4~6,3~8,+5,-10", 9)
//	// pages = [1 2 3 4 5 6 7 8 9 10 11 12 13 14]
func Parse(expr string, anchor int) ([]int, error) {
	if anchor <= 0 {
		return nil, fmt.Errorf("%w: anchor page must be positive, got %d", ErrRangeExpression, anchor)
	}
	if anchor > MaxPage {
		return nil, fmt.Errorf("%w: anchor page %d exceeds %d", ErrRangeExpression, anchor, MaxPage)
	}

	var spans []span
	var forward, backward bool

	for _, raw := range strings.Split(expr, ",") {
		token := strings.TrimSpace(raw)
		if token == "" {
			return nil, fmt.Errorf("%w: empty token in %q", ErrRangeExpression, expr)
		}

		switch token[0] {
		case '+':
			if forward {
				return nil, fmt.Errorf("%w: more than one forward range in %q", ErrRangeExpression, expr)
			}
			forward = true
			n, err := parseCount(token[1:], token)
			if err != nil {
				return nil, err
			}
			if n > MaxPage-anchor {
				return nil, fmt.Errorf("%w: %q goes past page %d", ErrRangeExpression, token, MaxPage)
			}
			spans = append(spans, span{anchor, anchor + n})

		case '-':
			if backward {
				return nil, fmt.Errorf("%w: more than one backward range in %q", ErrRangeExpression, expr)
			}
			backward = true
			n, err := parseCount(token[1:], token)
			if err != nil {
				return nil, err
			}
			spans = append(spans, span{max(1, anchor-n), anchor})

		default:
			s, err := parseAbsolute(token)
			if err != nil {
				return nil, err
			}
			spans = append(spans, s)
		}
	}

	seen := make(map[int]struct{})
	var pages []int
	for _, s := range spans {
		for p := s.from; p <= s.to; p++ {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			pages = append(pages, p)
		}
	}
	sort.Ints(pages)

	return pages, nil
}

// parseAbsolute parses "N" or "A~B".
func parseAbsolute(token string) (span, error) {
	left, right, isRange := strings.Cut(token, "~")
	from, err := parsePage(left, token)
	if err != nil {
		return span{}, err
	}
	if !isRange {
		return span{from, from}, nil
	}

	to, err := parsePage(right, token)
	if err != nil {
		return span{}, err
	}
	if from > to {
		return span{}, fmt.Errorf("%w: descending range %q", ErrRangeExpression, token)
	}
	return span{from, to}, nil
}

func parsePage(s, token string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrRangeExpression, token)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: page numbers start at 1, got %q", ErrRangeExpression, token)
	}
	if n > MaxPage {
		return 0, fmt.Errorf("%w: page numbers end at %d, got %q", ErrRangeExpression, MaxPage, token)
	}
	return n, nil
}

func parseCount(s, token string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 || n > MaxPage {
		return 0, fmt.Errorf("%w: %q is not a relative range", ErrRangeExpression, token)
	}
	return n, nil
}

// PageURLs builds the listing page URLs selected by expr.
//
// A listing URL either names a page ("https://xchina.co/photos/series-x/3.html",
// anchor 3) or the series itself ("https://xchina.co/photos/series-x.html",
// anchor 1). Both produce URLs of the form "<base>/<n>.html".
func PageURLs(listingURL, expr string) ([]string, error) {
	trimmed := strings.TrimSuffix(listingURL, "/")

	idx := strings.LastIndex(trimmed, "/")
	if idx < 0 {
		return nil, fmt.Errorf("%w: cannot derive pages from %q", ErrRangeExpression, listingURL)
	}
	left, last := trimmed[:idx], trimmed[idx+1:]

	anchor := 1
	base := strings.TrimSuffix(trimmed, ".html")
	if n, err := strconv.Atoi(strings.TrimSuffix(last, ".html")); err == nil && n > 0 {
		anchor = n
		base = left
	}

	pages, err := Parse(expr, anchor)
	if err != nil {
		return nil, err
	}

	urls := make([]string, 0, len(pages))
	for _, p := range pages {
		urls = append(urls, fmt.Sprintf("%s/%d.html", base, p))
	}
	return urls, nil
}
