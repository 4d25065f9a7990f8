package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/handiism/xchina-downloader/internal/config"
	"github.com/handiism/xchina-downloader/internal/model"
	"github.com/handiism/xchina-downloader/internal/pagerange"
	"github.com/handiism/xchina-downloader/internal/xchina"
)

func TestCheckTarget(t *testing.T) {
	const listing = "https://xchina.co/photos/series-5f1476781eab4.html"
	const item = "https://xchina.co/photo/id-64c4abcd9026b.html"

	tests := []struct {
		name     string
		url      string
		pages    string
		maxPage  bool
		wantKind xchina.Kind
		wantErr  bool
		errIs    error
	}{
		{name: "listing", url: listing, wantKind: xchina.KindListing},
		{name: "listing with pages", url: listing, pages: "1~3", wantKind: xchina.KindListing},
		{name: "listing max page", url: listing, maxPage: true, wantKind: xchina.KindListing},
		{name: "main page", url: "https://xchina.co", wantKind: xchina.KindMainPage},
		{name: "file", url: "https://img.xchina.biz/photos/64c4abcd9026b/0001.jpg", wantKind: xchina.KindSingleFile},
		{name: "invalid url", url: "not a url", wantErr: true, errIs: xchina.ErrInvalidURL},
		{name: "pages and max page", url: listing, pages: "2", maxPage: true, wantErr: true},
		{name: "pages on item", url: item, pages: "2", wantErr: true},
		{name: "max page on item", url: item, maxPage: true, wantErr: true},
		{name: "bad range", url: listing, pages: "+1,+2", wantErr: true, errIs: pagerange.ErrRangeExpression},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			target, err := checkTarget(tt.url, tt.pages, tt.maxPage)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if tt.errIs != nil && !errors.Is(err, tt.errIs) {
					t.Errorf("error = %v, want %v", err, tt.errIs)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if target.Kind != tt.wantKind {
				t.Errorf("kind = %v, want %v", target.Kind, tt.wantKind)
			}
		})
	}
}

func TestEncode(t *testing.T) {
	infos := []*model.ContentInfo{{Title: "Beach", ImageCount: 60}}

	var y bytes.Buffer
	if err := encode(&y, formatYAML, infos); err != nil {
		t.Fatalf("encode yaml: %v", err)
	}
	if !strings.Contains(y.String(), "title: Beach") || !strings.Contains(y.String(), "image_count: 60") {
		t.Errorf("yaml = %q", y.String())
	}

	var j bytes.Buffer
	if err := encode(&j, formatJSON, infos); err != nil {
		t.Fatalf("encode json: %v", err)
	}
	if !strings.Contains(j.String(), `"title": "Beach"`) {
		t.Errorf("json = %q", j.String())
	}
}

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "config.yaml")

	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	if err := app.Run([]string{"xchina-dl", "config", "init", "--path", path}); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(out.String(), path) {
		t.Errorf("output = %q", out.String())
	}

	settings, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if settings.MaxConcurrentFiles != 20 {
		t.Errorf("MaxConcurrentFiles = %d", settings.MaxConcurrentFiles)
	}
	if _, err := os.Stat(path); err != nil {
		t.Error(err)
	}
}
