package model

import (
	"fmt"
	"path/filepath"
	"strings"
)

// VideoSuffix marks a URL as a video file.
const VideoSuffix = ".mp4"

// DownloadTask is one file to fetch and where to put it.
type DownloadTask struct {
	URL  string
	Path string
}

// NewDownloadTask places url's filename inside dir.
func NewDownloadTask(url, dir string) DownloadTask {
	return DownloadTask{URL: url, Path: filepath.Join(dir, FileName(url))}
}

// FileName returns the last path segment of url.
func FileName(url string) string {
	return url[strings.LastIndex(url, "/")+1:]
}

// Filter selects which media types of an item are downloaded.
type Filter int

const (
	// FilterAll downloads images and videos.
	FilterAll Filter = iota

	// FilterImages skips videos.
	FilterImages

	// FilterVideos skips images.
	FilterVideos
)

// ParseFilter accepts the short CLI forms (a, p, v) and the long names.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "a", "all":
		return FilterAll, nil
	case "p", "images", "image", "photos":
		return FilterImages, nil
	case "v", "videos", "video":
		return FilterVideos, nil
	}
	return FilterAll, fmt.Errorf("unknown media filter %q, valid values are a, p, v", s)
}

// String returns the long name of the filter.
func (f Filter) String() string {
	switch f {
	case FilterImages:
		return "images"
	case FilterVideos:
		return "videos"
	default:
		return "all"
	}
}

// Next cycles all -> images -> videos -> all.
func (f Filter) Next() Filter {
	return (f + 1) % 3
}

// Match reports whether url passes the filter.
func (f Filter) Match(url string) bool {
	isVideo := strings.HasSuffix(url, VideoSuffix)
	switch f {
	case FilterImages:
		return !isVideo
	case FilterVideos:
		return isVideo
	default:
		return true
	}
}

// Apply returns the urls that pass the filter, keeping their order.
func (f Filter) Apply(urls []string) []string {
	if f == FilterAll {
		return urls
	}
	kept := make([]string, 0, len(urls))
	for _, u := range urls {
		if f.Match(u) {
			kept = append(kept, u)
		}
	}
	return kept
}
