package config

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jackzampolin/dossier/internal/engine"
	"github.com/jackzampolin/dossier/internal/pdf"
	"github.com/jackzampolin/dossier/internal/remote"
	"github.com/jackzampolin/dossier/internal/storage"
	"github.com/jackzampolin/dossier/internal/upload"
)

// Rasterizer returns the configured page renderer, or nil when thumbnails
// are disabled or pdftoppm cannot be found.
func (c *Config) Rasterizer(logger *slog.Logger) pdf.Rasterizer {
	if c.Render.Disabled {
		return nil
	}
	r := &pdf.Pdftoppm{Path: c.Render.PdftoppmPath, DPI: c.Render.DPI}
	if !r.Available() {
		if logger != nil {
			logger.Warn("pdftoppm not found, thumbnails disabled", "path", c.Render.PdftoppmPath)
		}
		return nil
	}
	return r
}

// FetcherConfig returns the remote fetcher configuration with header
// secrets resolved.
func (c *Config) FetcherConfig(logger *slog.Logger) remote.FetcherConfig {
	return remote.FetcherConfig{
		Timeout:  time.Duration(c.Fetch.TimeoutSeconds) * time.Second,
		Attempts: uint(max(c.Fetch.Attempts, 0)),
		Delay:    time.Duration(c.Fetch.DelayMillis) * time.Millisecond,
		Headers:  resolveHeaders(c.Fetch.Headers),
		Logger:   logger,
	}
}

// UploadConfig returns the upload packager configuration.
func (c *Config) UploadConfig(logger *slog.Logger) upload.Config {
	cfg := upload.Config{
		FieldName:    c.Upload.FieldName,
		SectionParam: c.Upload.SectionParam,
		TenantHeader: c.Upload.TenantHeader,
		Logger:       logger,
	}
	if c.Upload.TimeoutSeconds > 0 {
		cfg.Client = &http.Client{Timeout: time.Duration(c.Upload.TimeoutSeconds) * time.Second}
	}
	return cfg
}

// Destination returns the upload destination. A non-empty url overrides
// the configured one. The tenant id is sent under the tenant header.
func (c *Config) Destination(url string) upload.Destination {
	if url == "" {
		url = c.Upload.URL
	}
	headers := resolveHeaders(c.Upload.Headers)
	if tenant := ResolveEnvVars(c.Upload.TenantID); tenant != "" {
		header := c.Upload.TenantHeader
		if header == "" {
			header = upload.DefaultTenantHeader
		}
		headers[header] = tenant
	}
	return upload.Destination{URL: url, Headers: headers}
}

// StorageConfig returns the storage client configuration.
func (c *Config) StorageConfig(fetcher remote.Getter, logger *slog.Logger) storage.Config {
	return storage.Config{
		BaseURL:        c.Storage.BaseURL,
		DescriptorPath: c.Storage.DescriptorPath,
		Fetcher:        fetcher,
		Logger:         logger,
	}
}

// EngineConfig returns the configuration engines are built from.
func (c *Config) EngineConfig(logger *slog.Logger) engine.Config {
	return engine.Config{
		Rasterizer:         c.Rasterizer(logger),
		ThumbnailScale:     c.Render.ThumbnailScale,
		JPEGQuality:        c.Render.JPEGQuality,
		Workers:            c.Render.Workers,
		Fetcher:            remote.NewFetcher(c.FetcherConfig(logger)),
		Upload:             c.UploadConfig(logger),
		ActivationDistance: c.Reorder.ActivationDistance,
		Logger:             logger,
	}
}
