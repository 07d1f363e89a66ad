package config

// Config holds dossier configuration.
// Stored at: ~/.dossier/config.yaml
type Config struct {
	Server  ServerCfg  `mapstructure:"server" yaml:"server"`
	Render  RenderCfg  `mapstructure:"render" yaml:"render"`
	Reorder ReorderCfg `mapstructure:"reorder" yaml:"reorder"`
	Fetch   FetchCfg   `mapstructure:"fetch" yaml:"fetch"`
	Upload  UploadCfg  `mapstructure:"upload" yaml:"upload"`
	Storage StorageCfg `mapstructure:"storage" yaml:"storage"`
	Export  ExportCfg  `mapstructure:"export" yaml:"export"`
}

// ServerCfg configures the HTTP server.
type ServerCfg struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port string `mapstructure:"port" yaml:"port"`
	// MaxUploadMB caps a single multipart document upload.
	MaxUploadMB int64 `mapstructure:"max_upload_mb" yaml:"max_upload_mb"`
}

// RenderCfg configures page thumbnails.
type RenderCfg struct {
	PdftoppmPath   string  `mapstructure:"pdftoppm_path" yaml:"pdftoppm_path"`     // empty looks up pdftoppm on PATH
	DPI            int     `mapstructure:"dpi" yaml:"dpi"`                         // 72 renders at native size
	ThumbnailScale float64 `mapstructure:"thumbnail_scale" yaml:"thumbnail_scale"` // fraction of native size
	JPEGQuality    int     `mapstructure:"jpeg_quality" yaml:"jpeg_quality"`
	Workers        int     `mapstructure:"workers" yaml:"workers"` // 0 uses every CPU
	Disabled       bool    `mapstructure:"disabled" yaml:"disabled"`
}

// ReorderCfg configures drag gestures.
type ReorderCfg struct {
	// ActivationDistance is how far, in pixels, a press must travel
	// before it becomes a drag.
	ActivationDistance float64 `mapstructure:"activation_distance" yaml:"activation_distance"`
}

// FetchCfg configures remote document downloads.
type FetchCfg struct {
	TimeoutSeconds int               `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	Attempts       int               `mapstructure:"attempts" yaml:"attempts"`
	DelayMillis    int               `mapstructure:"delay_millis" yaml:"delay_millis"`
	Headers        map[string]string `mapstructure:"headers" yaml:"headers"` // values support ${ENV_VAR} syntax
}

// UploadCfg configures the section upload destination.
type UploadCfg struct {
	URL            string            `mapstructure:"url" yaml:"url"`
	FieldName      string            `mapstructure:"field_name" yaml:"field_name"`
	SectionParam   string            `mapstructure:"section_param" yaml:"section_param"`
	TenantHeader   string            `mapstructure:"tenant_header" yaml:"tenant_header"`
	TenantID       string            `mapstructure:"tenant_id" yaml:"tenant_id"` // supports ${ENV_VAR} syntax
	Headers        map[string]string `mapstructure:"headers" yaml:"headers"`     // values support ${ENV_VAR} syntax
	TimeoutSeconds int               `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
}

// StorageCfg locates the storage service's file descriptors.
type StorageCfg struct {
	BaseURL        string `mapstructure:"base_url" yaml:"base_url"`
	DescriptorPath string `mapstructure:"descriptor_path" yaml:"descriptor_path"` // "{id}" is the employee id
}

// ExportCfg configures downloads.
type ExportCfg struct {
	Dir        string `mapstructure:"dir" yaml:"dir"` // empty uses ~/.dossier/exports
	CoverTitle string `mapstructure:"cover_title" yaml:"cover_title"`
}

// DefaultConfig returns configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerCfg{
			Host:        "127.0.0.1",
			Port:        "8080",
			MaxUploadMB: 64,
		},
		Render: RenderCfg{
			DPI:            72,
			ThumbnailScale: 0.3,
			JPEGQuality:    75,
		},
		Reorder: ReorderCfg{
			ActivationDistance: 8,
		},
		Fetch: FetchCfg{
			TimeoutSeconds: 30,
			Attempts:       3,
			DelayMillis:    500,
			Headers:        map[string]string{},
		},
		Upload: UploadCfg{
			FieldName:      "files",
			SectionParam:   "sections",
			TenantHeader:   "X-Organization-ID",
			TenantID:       "${DOSSIER_TENANT_ID}",
			Headers:        map[string]string{},
			TimeoutSeconds: 300,
		},
		Storage: StorageCfg{
			DescriptorPath: "/api/employees/{id}/file",
		},
		Export: ExportCfg{
			CoverTitle: "Employee File",
		},
	}
}
