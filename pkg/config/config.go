// Package config loads the optional vio.yaml file and resolves defaults.
//
//	app:
//	  name: counter
//	  root: "#app"
//	  initialPath: /
//	events:
//	  historySize: 100
//	devtools:
//	  port: 3100
//	  timeout: 5s
//	log:
//	  level: info
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up by LoadOptional.
const FileName = "vio.yaml"

// Defaults applied by Resolve.
const (
	DefaultRoot         = "#app"
	DefaultInitialPath  = "/"
	DefaultHistorySize  = 100
	DefaultDevtoolsPort = 3100
	DefaultTimeout      = 5 * time.Second
	DefaultLogLevel     = "info"
)

// Config mirrors vio.yaml.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Events   EventsConfig   `yaml:"events"`
	Devtools DevtoolsConfig `yaml:"devtools"`
	Log      LogConfig      `yaml:"log"`
}

// AppConfig contains application settings.
type AppConfig struct {
	Name        string `yaml:"name,omitempty"`
	Root        string `yaml:"root,omitempty"`
	InitialPath string `yaml:"initialPath,omitempty"`
}

// EventsConfig contains event bus settings.
type EventsConfig struct {
	// HistorySize is the bus history capacity. Zero disables history.
	HistorySize *int `yaml:"historySize,omitempty"`
}

// DevtoolsConfig contains remote-control bridge settings.
type DevtoolsConfig struct {
	Host    string        `yaml:"host,omitempty"`
	Port    int           `yaml:"port,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `yaml:"level,omitempty"`
}

// Resolved contains configuration values with defaults applied.
type Resolved struct {
	Dir          string
	ModulePath   string
	AppName      string
	Root         string
	InitialPath  string
	HistorySize  int
	DevtoolsHost string
	DevtoolsPort int
	Timeout      time.Duration
	LogLevel     string
}

// Load reads and parses the file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filepath.Base(path), err)
	}
	return Parse(data)
}

// Parse decodes vio.yaml content.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", FileName, err)
	}
	return &cfg, nil
}

// LoadOptional reads vio.yaml from dir if present.
func LoadOptional(dir string) (*Config, error) {
	cfg, err := Load(filepath.Join(dir, FileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}
	return cfg, nil
}

// Resolve loads vio.yaml from dir (if present) and applies defaults.
func Resolve(dir string) (*Resolved, error) {
	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}
	return cfg.Resolve(dir)
}

// Resolve applies defaults to cfg. dir locates go.mod for the default app
// name and may be empty.
func (cfg *Config) Resolve(dir string) (*Resolved, error) {
	modPath := ""
	if dir != "" {
		modPath = modulePath(dir)
	}

	r := &Resolved{
		Dir:          dir,
		ModulePath:   modPath,
		AppName:      strings.TrimSpace(cfg.App.Name),
		Root:         strings.TrimSpace(cfg.App.Root),
		InitialPath:  strings.TrimSpace(cfg.App.InitialPath),
		HistorySize:  DefaultHistorySize,
		DevtoolsHost: strings.TrimSpace(cfg.Devtools.Host),
		DevtoolsPort: cfg.Devtools.Port,
		Timeout:      cfg.Devtools.Timeout,
		LogLevel:     strings.TrimSpace(cfg.Log.Level),
	}
	if r.AppName == "" {
		r.AppName = defaultAppName(modPath, dir)
	}
	if r.Root == "" {
		r.Root = DefaultRoot
	}
	if r.InitialPath == "" {
		r.InitialPath = DefaultInitialPath
	}
	if cfg.Events.HistorySize != nil {
		if *cfg.Events.HistorySize < 0 {
			return nil, fmt.Errorf("events.historySize must not be negative, got %d", *cfg.Events.HistorySize)
		}
		r.HistorySize = *cfg.Events.HistorySize
	}
	if r.DevtoolsHost == "" {
		r.DevtoolsHost = "localhost"
	}
	if r.DevtoolsPort == 0 {
		r.DevtoolsPort = DefaultDevtoolsPort
	}
	if r.DevtoolsPort < 0 || r.DevtoolsPort > 65535 {
		return nil, fmt.Errorf("devtools.port out of range: %d", r.DevtoolsPort)
	}
	if r.Timeout <= 0 {
		r.Timeout = DefaultTimeout
	}
	if r.LogLevel == "" {
		r.LogLevel = DefaultLogLevel
	}
	if _, err := zap.ParseAtomicLevel(r.LogLevel); err != nil {
		return nil, fmt.Errorf("invalid log.level %q: %w", r.LogLevel, err)
	}
	return r, nil
}

// DevtoolsAddr returns the host:port the bridge listens on.
func (r *Resolved) DevtoolsAddr() string {
	return fmt.Sprintf("%s:%d", r.DevtoolsHost, r.DevtoolsPort)
}

// DevtoolsURL returns the WebSocket URL applications dial.
func (r *Resolved) DevtoolsURL() string {
	return fmt.Sprintf("ws://%s/ws", r.DevtoolsAddr())
}

// Logger builds a console zap logger at the configured level.
func (r *Resolved) Logger() (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(r.LogLevel)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = level
	cfg.DisableStacktrace = true
	return cfg.Build()
}

// FindProjectRoot walks up from the current directory to find go.mod.
func FindProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a Go module (no go.mod found)")
		}
		dir = parent
	}
}

// modulePath returns the module path declared in dir/go.mod, or "".
func modulePath(dir string) string {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return ""
	}
	return modfile.ModulePath(data)
}

func defaultAppName(modulePath, dir string) string {
	base := ""
	if dir != "" {
		base = filepath.Base(dir)
	}
	if modulePath != "" {
		if modName, _, ok := module.SplitPathVersion(modulePath); ok {
			parts := strings.Split(modName, "/")
			base = parts[len(parts)-1]
		}
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "vio_app"
	}
	return base
}
