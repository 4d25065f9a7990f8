package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/handiism/xchina-downloader/internal/http"
)

// Page renderers.
const (
	RendererSplash = "splash"
	RendererChrome = "chrome"
	RendererDirect = "direct"
)

// Environment variables that override the config file.
const (
	EnvSplashAddr = "SPLASH_ADDR"
	EnvProxy      = "APP_PROXY"
	EnvSaveDir    = "SAVE_DIR"

	// EnvPrefix prefixes every other key, e.g. XCHINA_MAX_CONCURRENT_FILES.
	EnvPrefix = "XCHINA"
)

const appDir = "xchina-downloader"

// Settings holds all configuration options.
type Settings struct {
	// Output
	SaveDir     string `mapstructure:"save_dir" yaml:"save_dir"`
	HistoryPath string `mapstructure:"history_path" yaml:"history_path"` // empty disables history
	Debug       bool   `mapstructure:"debug" yaml:"debug"`

	// Page fetching
	Renderer      string        `mapstructure:"renderer" yaml:"renderer"` // splash, chrome, direct
	SplashAddr    string        `mapstructure:"splash_addr" yaml:"splash_addr"`
	Proxy         string        `mapstructure:"proxy" yaml:"proxy"`
	RenderTimeout time.Duration `mapstructure:"render_timeout" yaml:"render_timeout"`
	HTTPTimeout   time.Duration `mapstructure:"http_timeout" yaml:"http_timeout"`

	// Concurrency
	MaxConcurrentItems        int `mapstructure:"max_concurrent_items" yaml:"max_concurrent_items"`
	MaxConcurrentFiles        int `mapstructure:"max_concurrent_files" yaml:"max_concurrent_files"`
	MaxConcurrentListingPages int `mapstructure:"max_concurrent_listing_pages" yaml:"max_concurrent_listing_pages"`
	MaxConcurrentContentPages int `mapstructure:"max_concurrent_content_pages" yaml:"max_concurrent_content_pages"`

	// Retries
	DownloadMaxRetries int           `mapstructure:"download_max_retries" yaml:"download_max_retries"`
	DownloadRetryDelay time.Duration `mapstructure:"download_retry_delay" yaml:"download_retry_delay"`
	FetchMaxRetries    int           `mapstructure:"fetch_max_retries" yaml:"fetch_max_retries"`
	FetchRetryDelay    time.Duration `mapstructure:"fetch_retry_delay" yaml:"fetch_retry_delay"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	saveDir, err := os.Getwd()
	if err != nil {
		saveDir = "."
	}

	var historyPath string
	if dir, err := os.UserConfigDir(); err == nil {
		historyPath = filepath.Join(dir, appDir, "history.db")
	}

	return &Settings{
		SaveDir:     saveDir,
		HistoryPath: historyPath,

		Renderer:      RendererSplash,
		SplashAddr:    "http://127.0.0.1:8050",
		RenderTimeout: 60 * time.Second,
		HTTPTimeout:   60 * time.Second,

		MaxConcurrentItems:        10,
		MaxConcurrentFiles:        20,
		MaxConcurrentListingPages: 50,
		MaxConcurrentContentPages: 20,

		DownloadMaxRetries: 3,
		DownloadRetryDelay: 500 * time.Millisecond,
		FetchMaxRetries:    3,
		FetchRetryDelay:    time.Second,
	}
}

// DefaultPath is where the config file lives when no path is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "config.yaml"
	}
	return filepath.Join(dir, appDir, "config.yaml")
}

// Load reads settings from a YAML file, then applies .env files and
// environment variables on top. An empty path searches the working
// directory and DefaultPath; a missing file yields the defaults.
func Load(path string) (*Settings, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	defaults := DefaultSettings()

	v := viper.New()
	setDefaults(v, defaults)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Dir(DefaultPath()))
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	_ = v.BindEnv("splash_addr", EnvSplashAddr)
	_ = v.BindEnv("proxy", EnvProxy)
	_ = v.BindEnv("save_dir", EnvSaveDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	settings := defaults
	if err := v.Unmarshal(settings); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// loadDotEnv reads .env next to the executable, then in the working
// directory. Variables already set in the environment win.
func loadDotEnv() error {
	var files []string
	if exe, err := os.Executable(); err == nil {
		files = append(files, filepath.Join(filepath.Dir(exe), ".env"))
	}
	files = append(files, ".env")

	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("error loading %s: %w", file, err)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper, d *Settings) {
	v.SetDefault("save_dir", d.SaveDir)
	v.SetDefault("history_path", d.HistoryPath)
	v.SetDefault("debug", d.Debug)
	v.SetDefault("renderer", d.Renderer)
	v.SetDefault("splash_addr", d.SplashAddr)
	v.SetDefault("proxy", d.Proxy)
	v.SetDefault("render_timeout", d.RenderTimeout)
	v.SetDefault("http_timeout", d.HTTPTimeout)
	v.SetDefault("max_concurrent_items", d.MaxConcurrentItems)
	v.SetDefault("max_concurrent_files", d.MaxConcurrentFiles)
	v.SetDefault("max_concurrent_listing_pages", d.MaxConcurrentListingPages)
	v.SetDefault("max_concurrent_content_pages", d.MaxConcurrentContentPages)
	v.SetDefault("download_max_retries", d.DownloadMaxRetries)
	v.SetDefault("download_retry_delay", d.DownloadRetryDelay)
	v.SetDefault("fetch_max_retries", d.FetchMaxRetries)
	v.SetDefault("fetch_retry_delay", d.FetchRetryDelay)
}

// Validate checks values that would otherwise fail deep inside a download.
func (s *Settings) Validate() error {
	switch s.Renderer {
	case RendererSplash, RendererChrome, RendererDirect:
	default:
		return fmt.Errorf("invalid renderer %q, valid values are %s, %s, %s",
			s.Renderer, RendererSplash, RendererChrome, RendererDirect)
	}

	limits := map[string]int{
		"max_concurrent_items":         s.MaxConcurrentItems,
		"max_concurrent_files":         s.MaxConcurrentFiles,
		"max_concurrent_listing_pages": s.MaxConcurrentListingPages,
		"max_concurrent_content_pages": s.MaxConcurrentContentPages,
		"download_max_retries":         s.DownloadMaxRetries,
		"fetch_max_retries":            s.FetchMaxRetries,
	}
	for key, value := range limits {
		if value < 1 {
			return fmt.Errorf("%s must be at least 1, got %d", key, value)
		}
	}

	if s.MaxConcurrentItems >= s.MaxConcurrentFiles {
		return fmt.Errorf("max_concurrent_items (%d) must be smaller than max_concurrent_files (%d)",
			s.MaxConcurrentItems, s.MaxConcurrentFiles)
	}

	if s.SaveDir == "" {
		return errors.New("save_dir must not be empty")
	}
	return nil
}

// Save writes settings to a YAML file.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ToFetchRetry converts settings to the page fetch retry policy.
func (s *Settings) ToFetchRetry() http.RetryPolicy {
	return http.RetryPolicy{MaxAttempts: s.FetchMaxRetries, Delay: s.FetchRetryDelay}
}

// ToDownloadRetry converts settings to the media download retry policy.
func (s *Settings) ToDownloadRetry() http.RetryPolicy {
	return http.RetryPolicy{MaxAttempts: s.DownloadMaxRetries, Delay: s.DownloadRetryDelay}
}

// ToClientOptions converts settings to http.Options.
func (s *Settings) ToClientOptions() http.Options {
	return http.Options{
		Proxy:         s.Proxy,
		Timeout:       s.HTTPTimeout,
		PageRetry:     s.ToFetchRetry(),
		DownloadRetry: s.ToDownloadRetry(),
	}
}
