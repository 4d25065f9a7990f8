package xchina

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"github.com/handiism/xchina-downloader/internal/model"
	"github.com/handiism/xchina-downloader/internal/xchina/dto"
)

// Parser extracts content summaries and records from xchina HTML pages.
//
// The site lays every gallery entry out twice: as a card on listing pages
// and as a full item page split over one or more numbered pages. Parser
// understands both, plus the category sidebar of the home page.
//
// Optional fields that are missing fall back to the model defaults. A card
// with a broken required field is logged and skipped; a content page with
// one is rejected.
//
// Example usage:
//
//	parser := NewParser(log)
//
//	infos, err := parser.ParseListing(html, "https://xchina.co/photos/series-5f1476781eab4.html")
//	for _, info := range infos {
//	    fmt.Println(info.Title, info.ImageCount)
//	}
type Parser struct {
	log logrus.FieldLogger
}

// NewParser creates a Parser that reports skipped cards to log.
func NewParser(log logrus.FieldLogger) *Parser {
	return &Parser{log: log}
}

// ParseListing extracts every card of a listing page.
//
// Card layout:
//
//	<div class="item">
//	  <a href="/photo/id-64c4abcd9026b.html"><img src=".../0001_600x0.jpg" alt="Title"></a>
//	  <div class="tag"><div>60P + 3V</div></div>
//	  <div><a href="/photos/series-5f1476781eab4.html"><i class="fa fa-stop-circle"></i>&nbsp;XiuRen</a></div>
//	  <div class="actorsOrModels"><a>Alice</a><a>Bob</a></div>
//	  <div><div><i class="fa fa-clock-o"></i>&nbsp;2023-07-18</div></div>
//	</div>
//
// Cards without an image link are skipped silently; cards without a usable
// count are logged and skipped. The error is only non-nil when the document
// itself cannot be read.
func (p *Parser) ParseListing(htmlContent, pageURL string) ([]*model.ContentInfo, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse listing page: %w", err)
	}

	var infos []*model.ContentInfo
	doc.Find("div.list div.item").Each(func(i int, card *goquery.Selection) {
		info, err := parseCard(card, pageURL)
		if err != nil {
			p.log.WithFields(logrus.Fields{
				"url":  pageURL,
				"card": i,
			}).WithError(err).Warn("Skipping listing card")
			return
		}
		if info != nil {
			infos = append(infos, info)
		}
	})

	return infos, nil
}

// parseCard returns nil, nil for cards that are not gallery entries.
func parseCard(card *goquery.Selection, pageURL string) (*model.ContentInfo, error) {
	img := card.Find("img").First()
	showURL, ok := img.Attr("src")
	if !ok || showURL == "" {
		return nil, nil
	}
	href, ok := img.Closest("a").Attr("href")
	if !ok || href == "" {
		return nil, nil
	}

	var countText string
	card.Find("div.tag div").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if t := s.Text(); strings.Contains(t, "P") {
			countText = t
			return false
		}
		return true
	})
	if countText == "" {
		return nil, fmt.Errorf("%w: count marker", ErrMissingField)
	}
	images, videos, err := parseCount(countText)
	if err != nil {
		return nil, err
	}

	info := &model.ContentInfo{
		Category:   model.DefaultCategory,
		Performer:  model.DefaultPerformer,
		Title:      model.DefaultTitle,
		Date:       model.DefaultDate,
		PageURL:    absolute(pageURL, href),
		ShowURL:    showURL,
		ImageCount: images,
		VideoCount: videos,
	}

	if alt := strings.TrimSpace(img.AttrOr("alt", "")); alt != "" {
		info.Title = alt
	}
	if category := strings.TrimSpace(card.Find("i.fa-stop-circle").First().Parent().Text()); category != "" {
		info.Category = category
	}
	if performers := linkTexts(card.Find("div.actorsOrModels a")); len(performers) > 0 {
		info.Performer = strings.Join(performers, model.PerformerSeparator)
	}
	if date := strings.TrimSpace(card.Find("i.fa-clock-o").First().Parent().Text()); date != "" {
		info.Date = date
	}

	return info, nil
}

// ParseContentPage extracts one page of a content item.
//
// Page layout:
//
//	<head><meta property="og:image" content=".../0001.jpg"></head>
//	<div class="tab-contents"><div class="tab-content">
//	  <div><i class="fa fa-address-card-o"></i>Title</div>
//	  <div><i class="fa fa-picture-o"></i>60P + 3V</div>
//	  <div><i class="fa fa-video-camera"></i><a>Series</a>&nbsp;<a>XiuRen</a></div>
//	  <div><i class="fa fa-calendar"></i>2023-07-18</div>
//	  <div><i class="fa fa-female"></i><div class="actorsOrModels"><a>Alice</a></div></div>
//	</div></div>
//	<div class="main"><script>
//	  var domain = "https://img.xchina.biz";
//	  var videos = [{"url": "\/photos\/64c4\/0003.mp4", "filename": "0003.mp4", "filesize": "29M"}];
//	</script></div>
//	<div class="article"><div class="photos">
//	  <figure class="item"><img class="cr_only" src=".../0001_600x0.jpg"></figure>
//	</div></div>
//
// Returns an error wrapping:
//   - ErrNotContentPage if the metadata block or every image is missing
//   - ErrMissingField if the title, count or category is missing
//   - ErrNumericParse if the count cannot be read
//
// A malformed video block is logged and treated as no videos.
func (p *Parser) ParseContentPage(htmlContent, pageURL string) (*model.Content, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse content page: %w", err)
	}

	block := doc.Find("div.tab-contents div.tab-content").First()
	if block.Length() == 0 {
		return nil, fmt.Errorf("%w: %s has no metadata block", ErrNotContentPage, pageURL)
	}

	info, err := parseContentInfo(block, pageURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pageURL, err)
	}
	if og, ok := doc.Find(`head meta[property="og:image"]`).Attr("content"); ok && og != "" {
		info.ShowURL = og
	}

	content := model.NewContent(info)

	if info.VideoCount > 0 {
		videos, err := parseVideos(doc)
		if err != nil {
			p.log.WithField("url", pageURL).WithError(err).Warn("Ignoring malformed video list")
		}
		content.Videos = videos
	}

	content.Images = parseImages(doc)
	if len(content.Images) == 0 {
		return nil, fmt.Errorf("%w: %s has no images", ErrNotContentPage, pageURL)
	}

	return content, nil
}

func parseContentInfo(block *goquery.Selection, pageURL string) (*model.ContentInfo, error) {
	info := &model.ContentInfo{
		Performer: model.DefaultPerformer,
		Date:      model.DefaultDate,
		PageURL:   pageURL,
		ShowURL:   pageURL,
	}

	titles := iconTexts(block, "i.fa-address-card-o")
	if len(titles) == 0 {
		return nil, fmt.Errorf("%w: title", ErrMissingField)
	}
	info.Title = titles[0]

	counts := iconTexts(block, "i.fa-picture-o")
	if len(counts) == 0 {
		return nil, fmt.Errorf("%w: count marker", ErrMissingField)
	}
	images, videos, err := parseCount(strings.Join(counts, " "))
	if err != nil {
		return nil, err
	}
	info.ImageCount, info.VideoCount = images, videos

	categories := iconTexts(block, "i.fa-video-camera")
	if len(categories) == 0 {
		return nil, fmt.Errorf("%w: category", ErrMissingField)
	}
	info.Category = categories[len(categories)-1]

	if dates := iconTexts(block, "i.fa-calendar"); len(dates) > 0 {
		info.Date = dates[0]
	}
	if performers := linkTexts(block.Find("div.actorsOrModels a").First()); len(performers) > 0 {
		info.Performer = performers[0]
	}

	return info, nil
}

// parseVideos reads the domain and videos variables from the page scripts.
func parseVideos(doc *goquery.Document) ([]model.Video, error) {
	var domain, list string

	doc.Find("body div.main script").Each(func(_ int, s *goquery.Selection) {
		for _, line := range strings.Split(s.Text(), "\n") {
			switch {
			case strings.Contains(line, "var domain"):
				domain = strings.Trim(assignedValue(line), `"'`)
			case strings.Contains(line, "var videos"):
				list = assignedValue(line)
			}
		}
	})

	if domain == "" || list == "" {
		return nil, fmt.Errorf("%w: video script", ErrMissingField)
	}
	return dto.ParseVideos(list, domain)
}

// assignedValue returns the right-hand side of `var x = value;`.
func assignedValue(line string) string {
	_, value, _ := strings.Cut(line, "=")
	return strings.TrimSuffix(strings.TrimSpace(value), ";")
}

// parseImages collects full-size image URLs by dropping the downscale
// suffix: ".../0001_600x0.jpg" becomes ".../0001.jpg".
func parseImages(doc *goquery.Document) []string {
	var urls []string
	doc.Find("div.article div.photos figure.item img.cr_only").Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("src")
		if !ok || src == "" {
			return
		}
		urls = append(urls, fullSizeURL(src))
	})
	return urls
}

func fullSizeURL(src string) string {
	dir, name := "", src
	if idx := strings.LastIndex(src, "/"); idx >= 0 {
		dir, name = src[:idx+1], src[idx+1:]
	}

	underscore := strings.LastIndex(name, "_")
	dot := strings.LastIndex(name, ".")
	if underscore < 0 || dot < underscore {
		return src
	}
	return dir + name[:underscore] + name[dot:]
}

// ParseCategories extracts the category sidebar of the home page.
//
//	<div class="series">
//	  <h3>Photo series</h3>
//	  <a href="/photos/kind-1.html"><div>全部写真</div></a>
//	  <a href="/photos/series-5f14806585bef.html"><div>XiuRen (6820)</div></a>
//	</div>
//
// "All" entries and entries without a count are skipped.
func (p *Parser) ParseCategories(htmlContent, pageURL string) ([]model.Category, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("failed to parse main page: %w", err)
	}

	var categories []model.Category
	doc.Find("div.section div.aside div.series").Each(func(_ int, series *goquery.Selection) {
		group := strings.TrimSpace(series.Find("h3").First().Text())
		if group == "" {
			return
		}

		series.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			name, count, ok := splitNameCount(a.Find("div").First().Text())
			if !ok || strings.Contains(name, "全部") {
				return
			}
			n, err := strconv.Atoi(count)
			if err != nil {
				p.log.WithFields(logrus.Fields{"name": name, "count": count}).Warn("Skipping category with invalid count")
				return
			}
			categories = append(categories, model.Category{
				Group: group,
				Name:  name,
				URL:   absolute(pageURL, a.AttrOr("href", "")),
				Count: n,
			})
		})
	})

	return categories, nil
}

// splitNameCount splits "XiuRen (6820)" into its name and count.
func splitNameCount(text string) (name, count string, ok bool) {
	open := strings.LastIndex(text, "(")
	if open < 0 {
		return "", "", false
	}
	closing := strings.LastIndex(text, ")")
	if closing < open {
		return "", "", false
	}
	name = strings.TrimSpace(text[:open])
	count = strings.TrimSpace(text[open+1 : closing])
	return name, count, name != "" && count != ""
}

// parseCount reads a marker like "60P" or "60P + 3V".
func parseCount(text string) (images, videos int, err error) {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return r == 'P' || r == 'V' || r == '+' || r == ' ' || r == '\u00a0'
	})
	if len(fields) == 0 {
		return 0, 0, fmt.Errorf("%w: empty count %q", ErrMissingField, text)
	}

	images, err = strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return 0, 0, fmt.Errorf("%w: count %q", ErrNumericParse, text)
	}
	if len(fields) > 1 {
		videos, err = strconv.Atoi(strings.TrimSpace(fields[1]))
		if err != nil {
			return 0, 0, fmt.Errorf("%w: count %q", ErrNumericParse, text)
		}
	}
	return images, videos, nil
}

// iconTexts returns the non-empty text nodes of the element that holds the
// first icon matching selector.
func iconTexts(block *goquery.Selection, selector string) []string {
	icon := block.Find(selector).First()
	if icon.Length() == 0 {
		return nil
	}
	return textNodes(icon.Parent())
}

func linkTexts(links *goquery.Selection) []string {
	var names []string
	links.Each(func(_ int, a *goquery.Selection) {
		if name := strings.TrimSpace(a.Text()); name != "" {
			names = append(names, name)
		}
	})
	return names
}

// textNodes walks s depth-first and returns every trimmed, non-empty text node.
func textNodes(s *goquery.Selection) []string {
	var texts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				texts = append(texts, t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return texts
}
