package model

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// Defaults applied when a listing card or content page omits a field.
const (
	DefaultCategory  = "uncategorized"
	DefaultPerformer = "unnamed"
	DefaultTitle     = "untitled"
	DefaultDate      = "1970-01-01"
)

// PerformerSeparator joins multiple performer names.
const PerformerSeparator = "-"

// ContentInfo is the summary of one gallery entry as shown on a listing
// card. It carries no media URLs beyond the representative show URL.
//
// Example:
//
//	info := &ContentInfo{
//	    Category:   "XiuRen",
//	    Performer:  "Alice",
//	    Title:      "Beach",
//	    Date:       "2023-05-05",
//	    PageURL:    "https://xchina.co/photo/id-64c4abcd9026b.html",
//	    ShowURL:    "https://img.xchina.biz/photos/64c4abcd9026b/0001_600x0.jpg",
//	    ImageCount: 60,
//	}
//	info.Dir("/data") // "/data/XiuRen/Alice/Beach_2023-05-05_id-64c4abcd9026b"
type ContentInfo struct {
	Category   string `json:"category" yaml:"category"`
	Performer  string `json:"performer" yaml:"performer"`
	Title      string `json:"title" yaml:"title"`
	Date       string `json:"date" yaml:"date"`
	PageURL    string `json:"page_url" yaml:"page_url"`
	ShowURL    string `json:"show_url" yaml:"show_url"`
	ImageCount int    `json:"image_count" yaml:"image_count"`
	VideoCount int    `json:"video_count" yaml:"video_count"`
}

// ItemID returns the item identifier embedded in the page URL.
//
// Both "https://xchina.co/photo/id-64c4abcd9026b.html" and
// "https://xchina.co/photo/id-64c4abcd9026b/2.html" yield "id-64c4abcd9026b".
func (c *ContentInfo) ItemID() string {
	path := strings.TrimSuffix(strings.TrimSuffix(c.PageURL, "/"), ".html")
	segments := strings.Split(path, "/")

	last := segments[len(segments)-1]
	if _, err := strconv.Atoi(last); err == nil && len(segments) > 1 {
		return segments[len(segments)-2]
	}
	return last
}

// Dir returns the directory the item's files are saved into:
// {saveRoot}/{category}/{performer}/{title}_{date}_{itemID}.
func (c *ContentInfo) Dir(saveRoot string) string {
	leaf := fmt.Sprintf("%s_%s_%s", c.Title, c.Date, c.ItemID())
	return filepath.Join(
		saveRoot,
		sanitizeFileName(c.Category),
		sanitizeFileName(c.Performer),
		sanitizeFileName(leaf),
	)
}

// Content is a fully resolved gallery entry: the summary plus whatever
// explicit media lists were found across the item's pages.
type Content struct {
	ContentInfo `yaml:",inline"`

	Images []string `json:"images" yaml:"images"`
	Videos []Video  `json:"videos" yaml:"videos"`
}

// Video is one entry of a content page's embedded video list.
//
// URL is the page's own link to the video and is informational only.
// Downloads use VideoURLs, which joins Filename to the show URL's base.
type Video struct {
	URL      string `json:"url" yaml:"url"`
	Filename string `json:"filename" yaml:"filename"`
	Filesize string `json:"filesize" yaml:"filesize"`
}

// NewContent wraps a summary that has no explicit media lists.
func NewContent(info *ContentInfo) *Content {
	return &Content{ContentInfo: *info}
}

// URLs returns every downloadable file URL of the item.
//
// Explicit image URLs take precedence, followed by the video URLs. When
// both lists are empty the URLs are synthesized from the show URL, which
// only works if its filename starts with a number ("0001_600x0.jpg"):
//
//	show: https://img.xchina.biz/photos/64c4abcd9026b/0001_600x0.jpg, 3 images
//	  -> .../64c4abcd9026b/0001.jpg, .../0002.jpg, .../0003.jpg
//
// An empty result means the item page must be parsed to learn the URLs.
func (c *Content) URLs() []string {
	var urls []string

	if len(c.Images) > 0 {
		urls = append(urls, c.Images...)
		return append(urls, c.VideoURLs()...)
	}

	if len(c.Videos) > 0 {
		return c.VideoURLs()
	}

	if !c.CanSynthesize() {
		return nil
	}

	base, ext := c.BaseURL(), c.Extension()
	for i := 1; i <= c.ImageCount; i++ {
		urls = append(urls, fmt.Sprintf("%s/%04d.%s", base, i, ext))
	}
	return append(urls, c.VideoURLs()...)
}

// HasExplicitURLs reports whether the item came from a parsed content page.
func (c *Content) HasExplicitURLs() bool {
	return len(c.Images) > 0 || len(c.Videos) > 0
}

// CanSynthesize reports whether the show URL follows the numbered naming
// scheme that URLs relies on for count-only items.
func (c *Content) CanSynthesize() bool {
	first := FileName(c.ShowURL)
	if idx := strings.IndexAny(first, "_."); idx >= 0 {
		first = first[:idx]
	}
	_, err := strconv.ParseUint(first, 10, 16)
	return err == nil
}

// BaseURL is the show URL without its filename.
func (c *Content) BaseURL() string {
	idx := strings.LastIndex(c.ShowURL, "/")
	if idx < 0 {
		return c.ShowURL
	}
	return c.ShowURL[:idx]
}

// Extension is the show URL's extension without the leading dot.
func (c *Content) Extension() string {
	idx := strings.LastIndex(c.ShowURL, ".")
	if idx < 0 {
		return ""
	}
	return c.ShowURL[idx+1:]
}

// VideoURLs resolves each video's filename against BaseURL.
func (c *Content) VideoURLs() []string {
	base := c.BaseURL()
	urls := make([]string, 0, len(c.Videos))
	for _, v := range c.Videos {
		urls = append(urls, base+"/"+v.Filename)
	}
	return urls
}

// Merge appends the images of later pages of the same item.
func (c *Content) Merge(other *Content) {
	c.Images = append(c.Images, other.Images...)
}

// Category is one entry of the home page's category sidebar.
type Category struct {
	Group string `json:"group" yaml:"group"`
	Name  string `json:"name" yaml:"name"`
	URL   string `json:"url" yaml:"url"`
	Count int    `json:"count" yaml:"count"`
}

var (
	invalidChars  = regexp.MustCompile(`[<>:"/\\|?*\x00-\x1f]`)
	trailingDots  = regexp.MustCompile(`\.+$`)
	repeatedSpace = regexp.MustCompile(`\s+`)
)

// sanitizeFileName removes or replaces characters that are invalid in file/folder names.
//
// The following transformations are applied:
//   - Invalid characters (<>:"/\|?* and control chars) are replaced with underscore
//   - Multiple whitespace is collapsed to single space
//   - Trailing dots and whitespace are removed
//
// Example:
//
//	sanitizeFileName("Part 1/2") // Returns "Part 1_2"
func sanitizeFileName(name string) string {
	name = invalidChars.ReplaceAllString(name, "_")
	name = repeatedSpace.ReplaceAllString(name, " ")
	name = strings.TrimSpace(name)
	name = trailingDots.ReplaceAllString(name, "")
	return strings.TrimRight(name, " ")
}
