// Package config provides configuration management for xchina-downloader.
//
// This package handles:
//   - Loading settings from a YAML file with viper
//   - Reading .env files with godotenv
//   - Environment overrides (SPLASH_ADDR, APP_PROXY, SAVE_DIR, XCHINA_*)
//   - Default configuration values
//   - Conversion to http retry policies and client options
//
// # Precedence
//
// Defaults are overridden by the config file, which is overridden by the
// environment. Command line flags are applied by the caller last.
//
// # Loading from File
//
//	settings, err := config.Load("/path/to/config.yaml")
//	if err != nil {
//	    // Invalid file or value; a missing file yields the defaults
//	}
//
// # Saving Settings
//
//	settings := config.DefaultSettings()
//	settings.Renderer = config.RendererChrome
//	err := settings.Save(config.DefaultPath())
//
// # Configuration Options
//
// Settings includes options for:
//   - Output directory and download history
//   - Page renderer (Splash, headless Chrome or plain HTTP) and proxy
//   - Concurrency limits for items, files, listing pages and content pages
//   - Retry counts and delays for page fetches and downloads
package config
