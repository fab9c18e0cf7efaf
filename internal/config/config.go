// Package config provides configuration management for the spframe server.
// It handles loading and parsing the YAML configuration file and provides
// structured access to application settings: SharePoint credentials, library
// and folder selection, slideshow behavior, and server options.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by LoadConfig when the file omits a value.
const (
	DefaultLibraryName       = "Documents"
	DefaultBaseFolderPath    = "/Photos"
	DefaultFolderHistorySize = 30
	DefaultRefreshInterval   = Duration(6 * time.Hour)
	DefaultRotationSeconds   = 10
	DefaultRequestTimeout    = Duration(30 * time.Second)
	DefaultPort              = 8317

	maxFolderHistorySize = 200
)

// Duration wraps time.Duration so YAML values can be written either as a
// duration string ("6h", "30s") or as a bare number of seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var seconds int64
	if err := value.Decode(&seconds); err == nil {
		*d = Duration(time.Duration(seconds) * time.Second)
		return nil
	}
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("invalid duration value: %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config represents the application's configuration, loaded from a YAML file.
type Config struct {
	// Port is the TCP port the HTTP server listens on.
	Port int `yaml:"port"`

	// TenantID, ClientID, and ClientSecret identify the app registration
	// used for the client-credentials grant. ClientSecret may instead come
	// from the SPFRAME_CLIENT_SECRET environment variable.
	TenantID     string `yaml:"tenant-id"`
	ClientID     string `yaml:"client-id"`
	ClientSecret string `yaml:"client-secret"`

	// SiteURL is the full https URL of the SharePoint site.
	SiteURL string `yaml:"site-url"`

	// LibraryName is the display name of the document library.
	LibraryName string `yaml:"library-name"`

	// BaseFolderPath is the library-relative root under which photo folders
	// are discovered.
	BaseFolderPath string `yaml:"base-folder-path"`

	// FolderHistorySize bounds the anti-repeat folder history; an explicit 0
	// disables it, and omitting the key selects the default. A pointer keeps
	// those two cases apart.
	FolderHistorySize *int `yaml:"folder-history-size"`

	// RefreshInterval is the cadence of automatic folder refreshes.
	RefreshInterval Duration `yaml:"refresh-interval"`

	// RotationSeconds is the slideshow cycle length for the current photo.
	RotationSeconds int `yaml:"rotation-seconds"`

	// RequestTimeout bounds every outbound HTTP request.
	RequestTimeout Duration `yaml:"request-timeout"`

	// APIKeys, when non-empty, gates the mutating service endpoints.
	APIKeys []string `yaml:"api-keys"`

	// Debug enables debug-level logging.
	Debug bool `yaml:"debug"`

	// LoggingToFile switches log output to rotating files under logs/.
	LoggingToFile bool `yaml:"logging-to-file"`
}

// LoadConfig reads and parses the configuration file, applies environment
// overrides and defaults, and validates the result.
func LoadConfig(configFile string) (*Config, error) {
	data, err := os.ReadFile(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()
	if err = cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides lets secrets live outside the config file.
func (c *Config) applyEnvOverrides() {
	overlay := func(dst *string, keys ...string) {
		for _, key := range keys {
			if value := strings.TrimSpace(os.Getenv(key)); value != "" {
				*dst = value
				return
			}
		}
	}
	overlay(&c.TenantID, "SPFRAME_TENANT_ID")
	overlay(&c.ClientID, "SPFRAME_CLIENT_ID")
	overlay(&c.ClientSecret, "SPFRAME_CLIENT_SECRET")
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.LibraryName == "" {
		c.LibraryName = DefaultLibraryName
	}
	if c.BaseFolderPath == "" {
		c.BaseFolderPath = DefaultBaseFolderPath
	}
	if c.FolderHistorySize == nil {
		size := DefaultFolderHistorySize
		c.FolderHistorySize = &size
	}
	if c.RefreshInterval == 0 {
		c.RefreshInterval = DefaultRefreshInterval
	}
	if c.RotationSeconds == 0 {
		c.RotationSeconds = DefaultRotationSeconds
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.TenantID == "" || c.ClientID == "" || c.ClientSecret == "" {
		return fmt.Errorf("tenant-id, client-id, and client-secret are required")
	}
	if c.SiteURL == "" {
		return fmt.Errorf("site-url is required")
	}
	parsed, err := url.Parse(c.SiteURL)
	if err != nil || parsed.Scheme != "https" || parsed.Host == "" {
		return fmt.Errorf("site-url must be a full https URL, got %q", c.SiteURL)
	}
	if size := c.HistorySize(); size < 0 || size > maxFolderHistorySize {
		return fmt.Errorf("folder-history-size must be between 0 and %d", maxFolderHistorySize)
	}
	if !strings.HasPrefix(c.BaseFolderPath, "/") {
		return fmt.Errorf("base-folder-path must start with /, got %q", c.BaseFolderPath)
	}
	return nil
}

// HistorySize returns the effective anti-repeat history capacity.
func (c *Config) HistorySize() int {
	if c.FolderHistorySize == nil {
		return DefaultFolderHistorySize
	}
	return *c.FolderHistorySize
}
