package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

const minimalConfig = `
tenant-id: "tenant-1"
client-id: "client-1"
client-secret: "secret-1"
site-url: "https://contoso.sharepoint.com/sites/team"
`

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Port != DefaultPort {
		t.Errorf("port = %d, want %d", cfg.Port, DefaultPort)
	}
	if cfg.LibraryName != DefaultLibraryName {
		t.Errorf("library = %q, want %q", cfg.LibraryName, DefaultLibraryName)
	}
	if cfg.BaseFolderPath != DefaultBaseFolderPath {
		t.Errorf("base folder = %q, want %q", cfg.BaseFolderPath, DefaultBaseFolderPath)
	}
	if cfg.HistorySize() != DefaultFolderHistorySize {
		t.Errorf("history size = %d, want %d", cfg.HistorySize(), DefaultFolderHistorySize)
	}
	if cfg.RefreshInterval != DefaultRefreshInterval {
		t.Errorf("refresh interval = %v, want %v", cfg.RefreshInterval, DefaultRefreshInterval)
	}
	if cfg.RotationSeconds != DefaultRotationSeconds {
		t.Errorf("rotation seconds = %d, want %d", cfg.RotationSeconds, DefaultRotationSeconds)
	}
	if cfg.RequestTimeout != DefaultRequestTimeout {
		t.Errorf("request timeout = %v, want %v", cfg.RequestTimeout, DefaultRequestTimeout)
	}
}

func TestLoadConfigExplicitValues(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalConfig+`
port: 9000
library-name: "Shared Documents"
base-folder-path: "/Slideshow"
folder-history-size: 10
refresh-interval: 2h
rotation-seconds: 30
request-timeout: 15s
api-keys:
  - "key-1"
debug: true
`))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}

	if cfg.Port != 9000 {
		t.Errorf("port = %d", cfg.Port)
	}
	if cfg.LibraryName != "Shared Documents" {
		t.Errorf("library = %q", cfg.LibraryName)
	}
	if cfg.BaseFolderPath != "/Slideshow" {
		t.Errorf("base folder = %q", cfg.BaseFolderPath)
	}
	if cfg.HistorySize() != 10 {
		t.Errorf("history size = %d", cfg.HistorySize())
	}
	if cfg.RefreshInterval.Std() != 2*time.Hour {
		t.Errorf("refresh interval = %v", cfg.RefreshInterval.Std())
	}
	if cfg.RotationSeconds != 30 {
		t.Errorf("rotation seconds = %d", cfg.RotationSeconds)
	}
	if cfg.RequestTimeout.Std() != 15*time.Second {
		t.Errorf("request timeout = %v", cfg.RequestTimeout.Std())
	}
	if len(cfg.APIKeys) != 1 || cfg.APIKeys[0] != "key-1" {
		t.Errorf("api keys = %v", cfg.APIKeys)
	}
	if !cfg.Debug {
		t.Error("debug should be true")
	}
}

func TestLoadConfigNumericDurations(t *testing.T) {
	// Bare numbers are read as seconds.
	cfg, err := LoadConfig(writeConfig(t, minimalConfig+"request-timeout: 45\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.RequestTimeout.Std() != 45*time.Second {
		t.Errorf("request timeout = %v, want 45s", cfg.RequestTimeout.Std())
	}
}

func TestLoadConfigExplicitZeroHistoryDisables(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalConfig+"folder-history-size: 0\n"))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	// An explicit zero disables the history, it is not replaced by the
	// default the way an omitted key is.
	if cfg.HistorySize() != 0 {
		t.Errorf("history size = %d, want 0", cfg.HistorySize())
	}
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("SPFRAME_CLIENT_SECRET", "env-secret")
	cfg, err := LoadConfig(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.ClientSecret != "env-secret" {
		t.Errorf("client secret = %q, want env-secret", cfg.ClientSecret)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	cases := []struct {
		name, yaml string
	}{
		{"missing credentials", `site-url: "https://contoso.sharepoint.com/sites/team"`},
		{"missing site url", "tenant-id: t\nclient-id: c\nclient-secret: s\n"},
		{"plain http site url", "tenant-id: t\nclient-id: c\nclient-secret: s\nsite-url: \"http://contoso.sharepoint.com\"\n"},
		{"negative history", minimalConfig + "folder-history-size: -1\n"},
		{"oversized history", minimalConfig + "folder-history-size: 500\n"},
		{"relative base folder", minimalConfig + "base-folder-path: \"Photos\"\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, tc.yaml)); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected an error for a missing file")
	}
}
