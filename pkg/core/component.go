package core

import (
	"maps"

	"github.com/go-drift/vio/pkg/surface"
)

// State is the state mapping of a component instance or of the store.
type State map[string]any

// Clone returns a shallow copy of s. The result is never nil.
func (s State) Clone() State {
	out := make(State, len(s))
	maps.Copy(out, s)
	return out
}

// Merge returns a new state with partial shallowly merged over base.
func Merge(base, partial map[string]any) State {
	out := make(State, len(base)+len(partial))
	maps.Copy(out, base)
	maps.Copy(out, partial)
	return out
}

// Definition describes a component. Create definitions with Define and share
// them by pointer; a definition must not be modified after creation.
type Definition struct {
	// Name identifies the component. It must be unique within a Registry.
	Name string
	// State is the initial state copied into every new instance.
	State State
	// Render builds the component's view from its state.
	Render func(State) *Node
	// OnMount runs after the instance is attached. A non-nil return value
	// is kept as the instance's cleanup.
	OnMount func(ctx Context) func()
	// OnUpdate runs after each re-render with the state before the change.
	OnUpdate func(ctx Context, prev State)
	// OnUnmount runs after the cleanup and before the output is detached.
	OnUnmount func(ctx Context)
}

// Define returns a heap copy of def with its initial state copied, so later
// changes to the caller's map do not leak into instances.
func Define(def Definition) *Definition {
	out := def
	out.State = def.State.Clone()
	return &out
}

// InitialState returns a fresh copy of the definition's initial state.
func (d *Definition) InitialState() State {
	return d.State.Clone()
}

// Context is handed to lifecycle hooks and bound to one instance.
type Context interface {
	// ID returns the instance id.
	ID() string
	// SetState shallowly merges partial into the instance state and
	// re-renders it.
	SetState(partial State) error
	// GetState returns a copy of the instance state.
	GetState() State
	// Emit publishes an event on the runtime bus. Map payloads gain a
	// "component" entry with the instance id.
	Emit(event string, payload any)
	// Ref returns the materialized element carrying the given ref name,
	// or nil.
	Ref(name string) *surface.Element
	// OnDispose registers a cleanup run when the instance is unmounted.
	// Cleanups run in reverse registration order. The returned function
	// unregisters it.
	OnDispose(cleanup func()) func()
}
