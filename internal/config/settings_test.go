package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()

	if s.Renderer != RendererSplash || s.SplashAddr != "http://127.0.0.1:8050" {
		t.Errorf("renderer defaults = %q, %q", s.Renderer, s.SplashAddr)
	}
	if s.MaxConcurrentItems != 10 || s.MaxConcurrentFiles != 20 ||
		s.MaxConcurrentListingPages != 50 || s.MaxConcurrentContentPages != 20 {
		t.Errorf("concurrency defaults = %d/%d/%d/%d", s.MaxConcurrentItems, s.MaxConcurrentFiles,
			s.MaxConcurrentListingPages, s.MaxConcurrentContentPages)
	}
	if got := s.ToDownloadRetry(); got.MaxAttempts != 3 || got.Delay != 500*time.Millisecond {
		t.Errorf("download retry = %+v", got)
	}
	if got := s.ToFetchRetry(); got.MaxAttempts != 3 || got.Delay != time.Second {
		t.Errorf("fetch retry = %+v", got)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.MaxConcurrentFiles != 20 || s.FetchRetryDelay != time.Second {
		t.Errorf("expected defaults, got %+v", s)
	}
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := strings.Join([]string{
		"renderer: direct",
		"splash_addr: http://file:8050",
		"max_concurrent_files: 4",
		"download_retry_delay: 2s",
		"save_dir: /from/file",
	}, "\n")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvSaveDir, "")
	t.Setenv(EnvSplashAddr, "http://env:8050")
	t.Setenv(EnvProxy, "http://proxy:8118")
	t.Setenv("XCHINA_MAX_CONCURRENT_ITEMS", "3")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"renderer from file", s.Renderer, RendererDirect},
		{"save dir from file", s.SaveDir, "/from/file"},
		{"files from file", s.MaxConcurrentFiles, 4},
		{"duration from file", s.DownloadRetryDelay, 2 * time.Second},
		{"splash from env", s.SplashAddr, "http://env:8050"},
		{"proxy from env", s.Proxy, "http://proxy:8118"},
		{"items from prefixed env", s.MaxConcurrentItems, 3},
		{"untouched default", s.MaxConcurrentListingPages, 50},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestLoad_InvalidValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("renderer: firefox\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown renderer")
	}
}

func TestSettings_SaveThenLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	s := DefaultSettings()
	s.Renderer = RendererChrome
	s.RenderTimeout = 90 * time.Second
	s.MaxConcurrentContentPages = 5
	if err := s.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Renderer != RendererChrome || loaded.RenderTimeout != 90*time.Second || loaded.MaxConcurrentContentPages != 5 {
		t.Errorf("loaded = %+v", loaded)
	}
}

func TestSettings_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Settings)
	}{
		{"unknown renderer", func(s *Settings) { s.Renderer = "curl" }},
		{"zero items", func(s *Settings) { s.MaxConcurrentItems = 0 }},
		{"zero files", func(s *Settings) { s.MaxConcurrentFiles = 0 }},
		{"items equal files", func(s *Settings) { s.MaxConcurrentItems, s.MaxConcurrentFiles = 8, 8 }},
		{"items above files", func(s *Settings) { s.MaxConcurrentItems, s.MaxConcurrentFiles = 30, 20 }},
		{"zero retries", func(s *Settings) { s.DownloadMaxRetries = 0 }},
		{"empty save dir", func(s *Settings) { s.SaveDir = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.mutate(s)
			if err := s.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSettings_ToClientOptions(t *testing.T) {
	s := DefaultSettings()
	s.Proxy = "http://proxy:8118"
	opts := s.ToClientOptions()
	if opts.Proxy != s.Proxy || opts.Timeout != 60*time.Second || opts.DownloadRetry.MaxAttempts != 3 {
		t.Errorf("ToClientOptions = %+v", opts)
	}
}
