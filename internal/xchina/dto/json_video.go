package dto

import (
	"encoding/json"
	"strings"

	"github.com/handiism/xchina-downloader/internal/model"
)

// JSONVideo is one element of the `var videos = [...]` array embedded in a
// content page script.
type JSONVideo struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Filesize string `json:"filesize"`
}

// ToVideo converts JSONVideo to a model.Video, prefixing the relative url
// with domain. The resulting URL is kept for output only; downloads are
// built from Filename (see model.Content.VideoURLs).
func (jv *JSONVideo) ToVideo(domain string) model.Video {
	return model.Video{
		URL:      strings.TrimSuffix(domain, "/") + jv.URL,
		Filename: jv.Filename,
		Filesize: jv.Filesize,
	}
}

// ParseVideos decodes the videos array and resolves every entry against
// domain.
func ParseVideos(data, domain string) ([]model.Video, error) {
	var raw []JSONVideo
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, err
	}

	videos := make([]model.Video, 0, len(raw))
	for i := range raw {
		videos = append(videos, raw[i].ToVideo(domain))
	}
	return videos, nil
}
