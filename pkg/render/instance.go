package render

import (
	"maps"

	"github.com/go-drift/vio/pkg/core"
	"github.com/go-drift/vio/pkg/surface"
)

// Instance is one mounted occurrence of a component definition. Instances
// are owned by the Renderer; callers only read them.
type Instance struct {
	// ID is unique for the lifetime of the renderer's Counter.
	ID string
	// Definition is shared by every instance of the component.
	Definition *core.Definition

	state     core.State
	tree      *core.Node
	output    surface.Node
	parent    *surface.Element
	root      bool
	disposers []func()
}

// State returns a copy of the instance state.
func (i *Instance) State() core.State {
	return i.state.Clone()
}

// Tree returns the last resolved tree.
func (i *Instance) Tree() *core.Node {
	return i.tree
}

// Output returns the materialized output handle.
func (i *Instance) Output() surface.Node {
	return i.output
}

// IsRoot reports whether the instance was mounted into the container.
func (i *Instance) IsRoot() bool {
	return i.root
}

func (i *Instance) addDisposer(cleanup func()) func() {
	index := len(i.disposers)
	i.disposers = append(i.disposers, cleanup)
	return func() {
		if index < len(i.disposers) {
			i.disposers[index] = nil
		}
	}
}

// runDisposers executes registered cleanups in reverse order.
func (i *Instance) runDisposers() {
	for j := len(i.disposers) - 1; j >= 0; j-- {
		if i.disposers[j] != nil {
			i.disposers[j]()
		}
	}
	i.disposers = nil
}

// instanceContext is the core.Context bound to one instance id.
type instanceContext struct {
	r  *Renderer
	id string
}

func (c instanceContext) ID() string { return c.id }

func (c instanceContext) SetState(partial core.State) error {
	return c.r.SetState(c.id, partial)
}

func (c instanceContext) GetState() core.State {
	if inst, ok := c.r.instances[c.id]; ok {
		return inst.State()
	}
	return core.State{}
}

func (c instanceContext) Emit(event string, payload any) {
	data := map[string]any{"component": c.id}
	switch p := payload.(type) {
	case map[string]any:
		maps.Copy(data, p)
	case core.State:
		maps.Copy(data, p)
	case core.Props:
		maps.Copy(data, p)
	default:
		data["value"] = payload
	}
	c.r.bus.Emit(event, data)
}

func (c instanceContext) Ref(name string) *surface.Element {
	inst, ok := c.r.instances[c.id]
	if !ok || inst.output == nil || name == "" {
		return nil
	}
	el, ok := inst.output.(*surface.Element)
	if !ok {
		return nil
	}
	return el.Find(func(e *surface.Element) bool { return e.Ref() == name })
}

func (c instanceContext) OnDispose(cleanup func()) func() {
	inst, ok := c.r.instances[c.id]
	if !ok || cleanup == nil {
		return func() {}
	}
	return inst.addDisposer(cleanup)
}
