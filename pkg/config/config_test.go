package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestResolveDefaults(t *testing.T) {
	dir := t.TempDir()
	r, err := Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if r.Root != DefaultRoot {
		t.Errorf("Root = %q, want %q", r.Root, DefaultRoot)
	}
	if r.InitialPath != "/" {
		t.Errorf("InitialPath = %q, want %q", r.InitialPath, "/")
	}
	if r.HistorySize != 100 {
		t.Errorf("HistorySize = %d, want 100", r.HistorySize)
	}
	if r.DevtoolsPort != 3100 {
		t.Errorf("DevtoolsPort = %d, want 3100", r.DevtoolsPort)
	}
	if r.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", r.Timeout)
	}
	if r.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want %q", r.LogLevel, "info")
	}
	if r.AppName != filepath.Base(dir) {
		t.Errorf("AppName = %q, want %q", r.AppName, filepath.Base(dir))
	}
	if got, want := r.DevtoolsURL(), "ws://localhost:3100/ws"; got != want {
		t.Errorf("DevtoolsURL() = %q, want %q", got, want)
	}
}

func TestResolveFromFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
app:
  name: shop
  root: "#main"
  initialPath: /home
events:
  historySize: 0
devtools:
  host: 0.0.0.0
  port: 4000
  timeout: 2s
log:
  level: debug
`)
	r, err := Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if r.AppName != "shop" || r.Root != "#main" || r.InitialPath != "/home" {
		t.Errorf("app = %q %q %q", r.AppName, r.Root, r.InitialPath)
	}
	if r.HistorySize != 0 {
		t.Errorf("HistorySize = %d, want 0", r.HistorySize)
	}
	if got, want := r.DevtoolsAddr(), "0.0.0.0:4000"; got != want {
		t.Errorf("DevtoolsAddr() = %q, want %q", got, want)
	}
	if r.Timeout != 2*time.Second {
		t.Errorf("Timeout = %v, want 2s", r.Timeout)
	}
	if _, err := r.Logger(); err != nil {
		t.Errorf("Logger() error = %v", err)
	}
}

func TestResolveAppNameFromModule(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "go.mod", "module example.com/acme/storefront/v2\n\ngo 1.24\n")
	r, err := Resolve(dir)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if r.ModulePath != "example.com/acme/storefront/v2" {
		t.Errorf("ModulePath = %q", r.ModulePath)
	}
	if r.AppName != "storefront" {
		t.Errorf("AppName = %q, want %q", r.AppName, "storefront")
	}
}

func TestResolveRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"negative history", "events:\n  historySize: -1\n"},
		{"bad port", "devtools:\n  port: 70000\n"},
		{"bad level", "log:\n  level: loud\n"},
		{"bad yaml", "app: [\n"},
	}
	for _, tt := range tests {
		dir := t.TempDir()
		writeFile(t, dir, FileName, tt.yaml)
		if _, err := Resolve(dir); err == nil {
			t.Errorf("%s: Resolve() error = nil, want error", tt.name)
		}
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Load() of missing file should fail")
	}
	cfg, err := LoadOptional(t.TempDir())
	if err != nil || cfg == nil {
		t.Errorf("LoadOptional() = %v, %v", cfg, err)
	}
}
