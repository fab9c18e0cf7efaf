package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spframe/spframe/internal/config"
)

const validConfig = `
tenant-id: "tenant-1"
client-id: "client-1"
client-secret: "secret-1"
site-url: "https://contoso.sharepoint.com/sites/team"
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func startWatcher(t *testing.T, path string) (*Watcher, chan *config.Config) {
	t.Helper()
	reloads := make(chan *config.Config, 4)
	w, err := NewWatcher(path, func(cfg *config.Config) { reloads <- cfg })
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return w, reloads
}

func waitReload(t *testing.T, reloads chan *config.Config) *config.Config {
	t.Helper()
	select {
	case cfg := <-reloads:
		return cfg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
		return nil
	}
}

func expectNoReload(t *testing.T, reloads chan *config.Config) {
	t.Helper()
	select {
	case <-reloads:
		t.Fatal("unexpected reload")
	case <-time.After(3 * reloadDebounce):
	}
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, validConfig)
	_, reloads := startWatcher(t, path)

	writeFile(t, path, validConfig+"port: 9000\n")
	cfg := waitReload(t, reloads)
	if cfg.Port != 9000 {
		t.Errorf("reloaded port = %d, want 9000", cfg.Port)
	}
}

func TestWatcherIgnoresUnchangedContent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, validConfig)
	_, reloads := startWatcher(t, path)

	// Rewriting identical bytes must not fire the callback.
	writeFile(t, path, validConfig)
	expectNoReload(t, reloads)
}

func TestWatcherKeepsPreviousConfigOnParseError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, validConfig)
	_, reloads := startWatcher(t, path)

	writeFile(t, path, "port: [broken\n")
	expectNoReload(t, reloads)

	// A later valid write still reloads.
	writeFile(t, path, validConfig+"port: 9100\n")
	cfg := waitReload(t, reloads)
	if cfg.Port != 9100 {
		t.Errorf("reloaded port = %d, want 9100", cfg.Port)
	}
}

func TestWatcherSurvivesAtomicRename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, validConfig)
	_, reloads := startWatcher(t, path)

	// Editors often write a temp file and rename it over the original.
	tmp := filepath.Join(dir, "config.yaml.tmp")
	writeFile(t, tmp, validConfig+"port: 9200\n")
	if err := os.Rename(tmp, path); err != nil {
		t.Fatalf("rename: %v", err)
	}
	cfg := waitReload(t, reloads)
	if cfg.Port != 9200 {
		t.Errorf("reloaded port = %d, want 9200", cfg.Port)
	}
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	writeFile(t, path, validConfig)
	_, reloads := startWatcher(t, path)

	writeFile(t, filepath.Join(dir, "unrelated.yaml"), "whatever: true\n")
	expectNoReload(t, reloads)
}
