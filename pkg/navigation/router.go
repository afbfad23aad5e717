// Package navigation provides path-based routing for vio applications.
//
// A Router holds an ordered route table. Resolve finds the first route whose
// pattern matches a path and whose guard allows it; Navigate additionally
// makes the match current and announces the transition on the event bus:
//
//	r := navigation.New([]navigation.Route{
//	    {Path: "/", Component: home},
//	    {Path: "/users/:id", Component: user},
//	    {Path: "/admin", Component: admin, Guard: isAdmin},
//	    {Path: "*", Component: notFound},
//	}, bus)
//	r.SetStoreGetter(st.State)
//	match := r.Navigate("/users/42?tab=posts")
//
// Navigation emits three events in order: "route:before", "route:change"
// and "route:after". A path that matches nothing leaves the router and the
// bus untouched.
package navigation

import (
	"maps"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/go-drift/vio/pkg/events"
)

// Bus events emitted by Navigate.
const (
	BeforeEvent = "route:before"
	ChangeEvent = "route:change"
	AfterEvent  = "route:after"
)

// DefaultCacheSize is the number of parsed paths a Router keeps.
const DefaultCacheSize = 128

// Option configures a Router.
type Option func(*Router)

// WithCacheSize sets how many parsed paths are cached. Zero or less
// disables the cache.
func WithCacheSize(n int) Option {
	return func(r *Router) { r.cacheSize = n }
}

// parsedPath is the cached split of a navigation path.
type parsedPath struct {
	pathname string
	parts    []string
	query    map[string]string
}

// Router matches paths against an ordered route table.
type Router struct {
	routes   []Route
	patterns [][]string
	bus      *events.Bus

	cacheSize int
	cache     *lru.Cache[string, parsedPath]

	mu          sync.Mutex
	current     *Match
	storeGetter func() map[string]any
}

// New creates a router over a copy of routes. bus may be nil.
func New(routes []Route, bus *events.Bus, opts ...Option) *Router {
	r := &Router{
		routes:    append([]Route(nil), routes...),
		bus:       bus,
		cacheSize: DefaultCacheSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.patterns = make([][]string, len(r.routes))
	for i, route := range r.routes {
		r.patterns[i] = segments(route.Path)
	}
	if r.cacheSize > 0 {
		// lru.New only fails for a non-positive size.
		r.cache, _ = lru.New[string, parsedPath](r.cacheSize)
	}
	return r
}

// SetStoreGetter wires the snapshot function guards are evaluated against.
// Until it is set, guards are not evaluated.
func (r *Router) SetStoreGetter(getter func() map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.storeGetter = getter
}

// Routes returns a copy of the route table.
func (r *Router) Routes() []Route {
	return append([]Route(nil), r.routes...)
}

// Resolve returns the first route that matches path and passes its guard,
// or nil.
func (r *Router) Resolve(path string) *Match {
	parsed := r.parse(path)

	r.mu.Lock()
	getter := r.storeGetter
	r.mu.Unlock()

	for i, route := range r.routes {
		var params map[string]string
		if route.Path == WildcardPath {
			params = map[string]string{}
		} else if params = matchSegments(r.patterns[i], parsed.parts); params == nil {
			continue
		}
		if route.Guard != nil && getter != nil && !route.Guard(getter()) {
			continue
		}
		return &Match{
			Component: route.Component,
			Params:    params,
			Path:      parsed.pathname,
			Query:     maps.Clone(parsed.query),
		}
	}
	return nil
}

// CachedPaths returns the number of parsed paths currently cached.
func (r *Router) CachedPaths() int {
	if r.cache == nil {
		return 0
	}
	return r.cache.Len()
}

func (r *Router) parse(path string) parsedPath {
	if r.cache != nil {
		if p, ok := r.cache.Get(path); ok {
			return p
		}
	}
	pathname, rawQuery := SplitPath(path)
	p := parsedPath{
		pathname: pathname,
		parts:    segments(pathname),
		query:    ParseQuery(rawQuery),
	}
	if r.cache != nil {
		r.cache.Add(path, p)
	}
	return p
}

// Navigate resolves path and, on a match, makes it current and emits the
// route events. It returns nil without side effects when nothing matches.
func (r *Router) Navigate(path string) *Match {
	match := r.Resolve(path)
	if match == nil {
		return nil
	}

	r.mu.Lock()
	prev := r.current
	r.mu.Unlock()

	var from any
	if prev != nil {
		from = prev.Path
	}

	r.emit(BeforeEvent, map[string]any{"from": from, "to": path})
	r.mu.Lock()
	r.current = match
	r.mu.Unlock()
	r.emit(ChangeEvent, map[string]any{"from": from, "to": path, "params": match.Params})
	r.emit(AfterEvent, map[string]any{"path": path, "params": match.Params})
	return match
}

// Current returns the current match, or nil before the first navigation.
func (r *Router) Current() *Match {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *Router) emit(eventType string, payload map[string]any) {
	if r.bus != nil {
		r.bus.Emit(eventType, payload)
	}
}
