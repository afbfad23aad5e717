// Package vio wires the runtime together and exposes the operations an
// application or an external controller drives it through.
//
//	doc := surface.NewDocument()
//	root := surface.NewElement("div")
//	root.SetAttribute("id", "app")
//	doc.Body().AppendChild(root)
//
//	app, err := vio.New(doc, vio.Config{
//	    Routes: []navigation.Route{{Path: "/", Component: home}},
//	    Store:  &vio.StoreConfig{State: store.State{"count": 0}, Actions: actions},
//	})
//	if err != nil { ... }
//	err = app.Mount("/")
//
// An App is not safe for concurrent use.
package vio

import (
	"github.com/benbjohnson/clock"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/go-drift/vio/pkg/config"
	"github.com/go-drift/vio/pkg/core"
	"github.com/go-drift/vio/pkg/errors"
	"github.com/go-drift/vio/pkg/events"
	"github.com/go-drift/vio/pkg/metrics"
	"github.com/go-drift/vio/pkg/navigation"
	"github.com/go-drift/vio/pkg/render"
	"github.com/go-drift/vio/pkg/store"
	"github.com/go-drift/vio/pkg/surface"
)

// StoreConfig configures the application store.
type StoreConfig struct {
	State   store.State
	Actions map[string]store.Reducer
}

// Config configures an App.
type Config struct {
	// Root selects the mount point in the document: "#id", ".class" or a
	// tag name. Defaults to "#app".
	Root string
	// Routes enables the router when non-nil.
	Routes []navigation.Route
	// Store enables the store when non-nil.
	Store *StoreConfig
	// Component is mounted by Mount when no routes are configured.
	Component *core.Definition
	// HistorySize is the event history capacity. Zero selects the default;
	// a negative value disables history.
	HistorySize int
	// RouteCacheSize bounds the router's parsed-path cache. Zero selects
	// navigation.DefaultCacheSize; a negative value disables the cache.
	RouteCacheSize int
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
	// Counter allocates instance ids. Defaults to render.DefaultCounter.
	Counter *render.Counter
	// Clock timestamps events. Defaults to the wall clock.
	Clock clock.Clock
}

// ConfigFrom returns a Config carrying the settings of a resolved vio.yaml.
func ConfigFrom(r *config.Resolved) Config {
	cfg := Config{Root: r.Root, HistorySize: r.HistorySize}
	if r.HistorySize == 0 {
		cfg.HistorySize = -1
	}
	return cfg
}

// App is a running vio application.
type App struct {
	doc       *surface.Document
	container *surface.Element
	bus       *events.Bus
	registry  *core.Registry
	renderer  *render.Renderer
	store     *store.Store
	router    *navigation.Router
	metrics   *metrics.Metrics
	logger    *zap.Logger
	fallback  *core.Definition

	rootID  string
	offs    []func()
	closers []func() error
	closed  bool
}

// New creates an App. It fails with errors.ErrNotFound when the root
// selector matches nothing in doc.
func New(doc *surface.Document, cfg Config) (*App, error) {
	selector := cfg.Root
	if selector == "" {
		selector = config.DefaultRoot
	}
	if doc == nil {
		return nil, errors.New("vio.New", errors.KindNotFound, "root element %q not found: nil document", selector)
	}
	container := doc.Query(selector)
	if container == nil {
		return nil, errors.New("vio.New", errors.KindNotFound, "root element %q not found", selector)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var busOpts []events.Option
	switch {
	case cfg.HistorySize > 0:
		busOpts = append(busOpts, events.WithHistorySize(cfg.HistorySize))
	case cfg.HistorySize < 0:
		busOpts = append(busOpts, events.WithHistorySize(0))
	}
	if cfg.Clock != nil {
		busOpts = append(busOpts, events.WithClock(cfg.Clock))
	}
	bus := events.New(busOpts...)
	m := metrics.New()

	a := &App{
		doc:       doc,
		container: container,
		bus:       bus,
		registry:  core.NewRegistry(),
		metrics:   m,
		logger:    logger,
		fallback:  cfg.Component,
	}
	a.offs = append(a.offs, bus.On(events.Wildcard, func(e events.Event) { m.ObserveEvent(e.Type) }))

	a.renderer = render.New(container, bus,
		render.WithLogger(logger.Named("render")),
		render.WithMetrics(m),
		render.WithCounter(cfg.Counter),
	)
	if cfg.Store != nil {
		a.store = store.New(cfg.Store.State, cfg.Store.Actions, bus)
	}
	if cfg.Routes != nil {
		var routerOpts []navigation.Option
		if cfg.RouteCacheSize != 0 {
			routerOpts = append(routerOpts, navigation.WithCacheSize(cfg.RouteCacheSize))
		}
		a.router = navigation.New(cfg.Routes, bus, routerOpts...)
		if a.store != nil {
			a.router.SetStoreGetter(a.store.State)
		}
	}
	return a, nil
}

// Mount mounts the initial view. With routes configured it navigates to
// initialPath ("/" when empty); otherwise it mounts Config.Component.
func (a *App) Mount(initialPath string) error {
	if a.router == nil {
		if a.fallback == nil {
			return nil
		}
		return a.mountRoot(a.fallback)
	}
	if initialPath == "" {
		initialPath = config.DefaultInitialPath
	}
	_, err := a.Navigate(initialPath)
	return err
}

func (a *App) mountRoot(def *core.Definition) error {
	if a.rootID != "" {
		a.renderer.Unmount(a.rootID)
		a.rootID = ""
	}
	inst, err := a.renderer.Mount(def, nil)
	if err != nil {
		return err
	}
	a.rootID = inst.ID
	return nil
}

// SetState merges partial into an instance's state.
func (a *App) SetState(id string, partial map[string]any) error {
	return a.renderer.SetState(id, partial)
}

// GetState returns a copy of an instance's state, or an empty map for an
// unknown id.
func (a *App) GetState(id string) map[string]any {
	if inst, ok := a.renderer.Instance(id); ok {
		return inst.State()
	}
	return map[string]any{}
}

// Dispatch runs a store action. It fails with
// errors.ErrMethodNotConfigured when no store is configured.
func (a *App) Dispatch(action string, payload any) error {
	if a.store == nil {
		return errors.New("vio.Dispatch", errors.KindMethodNotConfigured, "no store configured")
	}
	err := a.store.Dispatch(action, payload)
	a.metrics.ObserveDispatch(action, err)
	return err
}

// GetStore returns a copy of the store state, or an empty map without a
// store.
func (a *App) GetStore() map[string]any {
	if a.store == nil {
		return map[string]any{}
	}
	return a.store.State()
}

// Navigate routes to path and swaps the root component. It fails with
// errors.ErrMethodNotConfigured when no routes are configured and returns a
// nil match, changing nothing, when no route matches.
func (a *App) Navigate(path string) (*navigation.Match, error) {
	if a.router == nil {
		return nil, errors.New("vio.Navigate", errors.KindMethodNotConfigured, "no routes configured")
	}
	match := a.router.Navigate(path)
	a.metrics.ObserveNavigation(match != nil)
	if match == nil {
		a.logger.Debug("no route matched", zap.String("path", path))
		return nil, nil
	}
	if err := a.mountRoot(match.Component); err != nil {
		return match, err
	}
	return match, nil
}

// On subscribes to bus events.
func (a *App) On(eventType string, handler events.Handler) func() {
	return a.bus.On(eventType, handler)
}

// Emit publishes an event on the bus.
func (a *App) Emit(eventType string, payload map[string]any) {
	a.bus.Emit(eventType, payload)
}

// Register adds a component definition to the registry.
func (a *App) Register(def *core.Definition) error {
	return a.registry.Register(def)
}

// RegisteredComponents returns registered component names in registration
// order.
func (a *App) RegisteredComponents() []string {
	return a.registry.List()
}

// Component returns a registered definition by name.
func (a *App) Component(name string) (*core.Definition, bool) {
	return a.registry.Get(name)
}

// MountComponent mounts a registered component into parent, or as the root
// when parent is nil.
func (a *App) MountComponent(name string, parent *surface.Element) (string, error) {
	def, ok := a.registry.Get(name)
	if !ok {
		return "", errors.New("vio.MountComponent", errors.KindNotFound, "component %q is not registered", name)
	}
	if parent == nil {
		if err := a.mountRoot(def); err != nil {
			return "", err
		}
		return a.rootID, nil
	}
	inst, err := a.renderer.Mount(def, parent)
	if err != nil {
		return "", err
	}
	return inst.ID, nil
}

// RemoveComponent unmounts an instance. Unknown ids are ignored.
func (a *App) RemoveComponent(id string) {
	a.renderer.Unmount(id)
	if id == a.rootID {
		a.rootID = ""
	}
}

// EventHistory returns a copy of the bus history.
func (a *App) EventHistory() []events.Event {
	return a.bus.History()
}

// CurrentRoute returns the router's current match, or nil.
func (a *App) CurrentRoute() *navigation.Match {
	if a.router == nil {
		return nil
	}
	return a.router.Current()
}

// RootID returns the id of the root instance, or "".
func (a *App) RootID() string { return a.rootID }

// Container returns the mount point.
func (a *App) Container() *surface.Element { return a.container }

// Document returns the document the app was created on.
func (a *App) Document() *surface.Document { return a.doc }

// Bus returns the event bus.
func (a *App) Bus() *events.Bus { return a.bus }

// Metrics returns the app's collectors.
func (a *App) Metrics() *metrics.Metrics { return a.metrics }

// Logger returns the app's logger.
func (a *App) Logger() *zap.Logger { return a.logger }

// OnClose registers fn to run when the app is closed.
func (a *App) OnClose(fn func() error) {
	if fn != nil {
		a.closers = append(a.closers, fn)
	}
}

// Close unmounts every instance, detaches the renderer from the bus and
// runs the OnClose functions in reverse order. It is safe to call twice.
func (a *App) Close() error {
	if a.closed {
		return nil
	}
	a.closed = true

	for _, inst := range a.renderer.Instances() {
		a.renderer.Unmount(inst.ID)
	}
	a.rootID = ""
	a.renderer.Close()
	for _, off := range a.offs {
		off()
	}

	var err error
	for i := len(a.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, a.closers[i]())
	}
	return err
}
