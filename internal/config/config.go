package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

// EnvPrefix prefixes environment overrides, e.g. DOSSIER_UPLOAD_URL.
const EnvPrefix = "DOSSIER"

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	v         *viper.Viper
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{
		v:         viper.New(),
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	v := cm.v
	d := DefaultConfig()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.max_upload_mb", d.Server.MaxUploadMB)

	v.SetDefault("render.pdftoppm_path", d.Render.PdftoppmPath)
	v.SetDefault("render.dpi", d.Render.DPI)
	v.SetDefault("render.thumbnail_scale", d.Render.ThumbnailScale)
	v.SetDefault("render.jpeg_quality", d.Render.JPEGQuality)
	v.SetDefault("render.workers", d.Render.Workers)
	v.SetDefault("render.disabled", d.Render.Disabled)

	v.SetDefault("reorder.activation_distance", d.Reorder.ActivationDistance)

	v.SetDefault("fetch.timeout_seconds", d.Fetch.TimeoutSeconds)
	v.SetDefault("fetch.attempts", d.Fetch.Attempts)
	v.SetDefault("fetch.delay_millis", d.Fetch.DelayMillis)
	v.SetDefault("fetch.headers", d.Fetch.Headers)

	v.SetDefault("upload.url", d.Upload.URL)
	v.SetDefault("upload.field_name", d.Upload.FieldName)
	v.SetDefault("upload.section_param", d.Upload.SectionParam)
	v.SetDefault("upload.tenant_header", d.Upload.TenantHeader)
	v.SetDefault("upload.tenant_id", d.Upload.TenantID)
	v.SetDefault("upload.headers", d.Upload.Headers)
	v.SetDefault("upload.timeout_seconds", d.Upload.TimeoutSeconds)

	v.SetDefault("storage.base_url", d.Storage.BaseURL)
	v.SetDefault("storage.descriptor_path", d.Storage.DescriptorPath)

	v.SetDefault("export.dir", d.Export.Dir)
	v.SetDefault("export.cover_title", d.Export.CoverTitle)

	// Environment variables with DOSSIER_ prefix
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.dossier")
	}

	// Try to read config file (not required)
	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := cm.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// ConfigFile returns the config file in use, or "" when running on defaults.
func (cm *Manager) ConfigFile() string {
	return cm.v.ConfigFileUsed()
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration.
func (cm *Manager) WatchConfig() {
	cm.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	cm.v.WatchConfig()
}

var envPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	return envPattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// resolveHeaders returns a copy of headers with ${ENV_VAR} references
// expanded. Headers that resolve to empty are dropped.
func resolveHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if resolved := ResolveEnvVars(v); resolved != "" {
			out[k] = resolved
		}
	}
	return out
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# Dossier configuration
# Secrets use ${ENV_VAR} syntax to reference environment variables
# Set these in your shell: export DOSSIER_TENANT_ID=xxx
# Any key can be overridden with DOSSIER_<SECTION>_<KEY>, e.g. DOSSIER_UPLOAD_URL

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
