// Package render owns component instances and keeps the host surface in
// sync with their state.
//
// The Renderer resolves component trees into trees of literal elements,
// materializes them on first mount and afterwards applies the patches
// computed by the diff package. It is the only writer of the output it
// materializes.
//
//	r := render.New(container, bus)
//	inst, err := r.Mount(counter, nil)
//	err = r.SetState(inst.ID, core.State{"count": 5})
//	r.Unmount(inst.ID)
//
// Every "store:change" event on the bus re-renders every mounted instance.
//
// A Renderer is not safe for concurrent use; drive it from one goroutine.
package render

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/go-drift/vio/pkg/core"
	"github.com/go-drift/vio/pkg/diff"
	"github.com/go-drift/vio/pkg/errors"
	"github.com/go-drift/vio/pkg/events"
	"github.com/go-drift/vio/pkg/metrics"
	"github.com/go-drift/vio/pkg/surface"
)

// Bus events emitted by the renderer.
const (
	MountEvent   = "component:mount"
	UnmountEvent = "component:unmount"
	StateEvent   = "state:change"
)

// storeChangeEvent triggers a re-render of every mounted instance.
const storeChangeEvent = "store:change"

// maxDepth bounds component nesting during resolution.
const maxDepth = 512

// Renderer mounts, updates and unmounts component instances.
type Renderer struct {
	container *surface.Element
	bus       *events.Bus
	logger    *zap.Logger
	metrics   *metrics.Metrics
	counter   *Counter

	instances map[string]*Instance
	order     []string
	rootID    string
	off       func()
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithMetrics records renders and patch operations into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Renderer) { r.metrics = m }
}

// WithCounter sets the instance id counter. The default is DefaultCounter.
func WithCounter(c *Counter) Option {
	return func(r *Renderer) {
		if c != nil {
			r.counter = c
		}
	}
}

// New creates a renderer that mounts root components into container and
// subscribes to store changes on bus.
func New(container *surface.Element, bus *events.Bus, opts ...Option) *Renderer {
	if bus == nil {
		bus = events.New()
	}
	r := &Renderer{
		container: container,
		bus:       bus,
		logger:    zap.NewNop(),
		counter:   defaultCounter,
		instances: make(map[string]*Instance),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.off = bus.On(storeChangeEvent, func(events.Event) { r.rerenderAll() })
	return r
}

// Container returns the element root components are mounted into.
func (r *Renderer) Container() *surface.Element {
	return r.container
}

// Mount creates an instance of def. A nil parent mounts it as the root:
// the container is cleared and receives the output. Otherwise the output
// is appended to parent.
func (r *Renderer) Mount(def *core.Definition, parent *surface.Element) (*Instance, error) {
	if def == nil {
		return nil, errors.New("render.Mount", errors.KindNotFound, "nil component definition")
	}
	inst := &Instance{
		ID:         r.counter.Next(def.Name),
		Definition: def,
		state:      def.InitialState(),
		parent:     parent,
		root:       parent == nil,
	}

	tree, err := r.renderTree(inst)
	if err != nil {
		return nil, err
	}
	inst.tree = tree
	inst.output = diff.Materialize(tree)

	target := parent
	if inst.root {
		target = r.container
		if target != nil {
			target.RemoveChildren()
		}
		r.rootID = inst.ID
	}
	if target != nil {
		target.AppendChild(inst.output)
	}

	r.instances[inst.ID] = inst
	r.order = append(r.order, inst.ID)
	r.metrics.ObserveRender(def.Name, "mount")
	r.metrics.SetInstances(len(r.instances))
	r.logger.Debug("mounted component", zap.String("id", inst.ID), zap.Bool("root", inst.root))

	r.bus.Emit(MountEvent, map[string]any{
		"name":  def.Name,
		"id":    inst.ID,
		"state": inst.State(),
	})

	if def.OnMount != nil {
		if cleanup := def.OnMount(r.context(inst.ID)); cleanup != nil {
			inst.addDisposer(cleanup)
		}
	}
	return inst, nil
}

// SetState shallowly merges partial into the instance state and re-renders
// it. It fails with errors.ErrNotFound for an unknown id. When the render
// fails the previous state is restored, announced by a second
// "state:change", and the *errors.BuildError is returned.
func (r *Renderer) SetState(id string, partial core.State) error {
	inst, ok := r.instances[id]
	if !ok {
		return errors.New("render.SetState", errors.KindNotFound, "no instance with id %q", id)
	}

	prev := inst.state.Clone()
	inst.state = core.Merge(inst.state, partial)

	r.bus.Emit(StateEvent, map[string]any{
		"component": inst.Definition.Name,
		"id":        id,
		"prev":      prev,
		"next":      inst.State(),
	})

	if err := r.rerender(inst); err != nil {
		failed := inst.State()
		inst.state = prev
		r.bus.Emit(StateEvent, map[string]any{
			"component": inst.Definition.Name,
			"id":        id,
			"prev":      failed,
			"next":      inst.State(),
		})
		return err
	}

	if inst.Definition.OnUpdate != nil {
		inst.Definition.OnUpdate(r.context(id), prev)
	}
	return nil
}

// Unmount destroys an instance. Unknown ids are ignored.
func (r *Renderer) Unmount(id string) {
	inst, ok := r.instances[id]
	if !ok {
		return
	}

	inst.runDisposers()
	if inst.Definition.OnUnmount != nil {
		inst.Definition.OnUnmount(r.context(id))
	}
	if inst.output != nil {
		if p := inst.output.Parent(); p != nil {
			p.RemoveChild(inst.output)
		}
	}

	r.bus.Emit(UnmountEvent, map[string]any{"name": inst.Definition.Name, "id": id})

	delete(r.instances, id)
	for i, v := range r.order {
		if v == id {
			r.order = append(r.order[:i:i], r.order[i+1:]...)
			break
		}
	}
	if r.rootID == id {
		r.rootID = ""
	}
	r.metrics.SetInstances(len(r.instances))
	r.logger.Debug("unmounted component", zap.String("id", id))
}

// Instance returns the instance with the given id.
func (r *Renderer) Instance(id string) (*Instance, bool) {
	inst, ok := r.instances[id]
	return inst, ok
}

// Instances returns the mounted instances in mount order.
func (r *Renderer) Instances() []*Instance {
	out := make([]*Instance, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.instances[id])
	}
	return out
}

// Root returns the current root instance, if any.
func (r *Renderer) Root() *Instance {
	return r.instances[r.rootID]
}

// Close stops reacting to store changes. Mounted instances are left as is.
func (r *Renderer) Close() {
	if r.off != nil {
		r.off()
		r.off = nil
	}
}

func (r *Renderer) context(id string) core.Context {
	return instanceContext{r: r, id: id}
}

// rerenderAll re-renders every mounted instance. Instances unmounted by an
// earlier re-render in the same pass are skipped.
func (r *Renderer) rerenderAll() {
	ids := append([]string(nil), r.order...)
	for _, id := range ids {
		inst, ok := r.instances[id]
		if !ok {
			continue
		}
		if err := r.rerender(inst); err != nil {
			r.logger.Warn("re-render after store change failed", zap.String("id", id), zap.Error(err))
			if buildErr, ok := err.(*errors.BuildError); ok {
				errors.ReportBuildError(buildErr)
			}
		}
	}
}

func (r *Renderer) rerender(inst *Instance) error {
	next, err := r.renderTree(inst)
	if err != nil {
		return err
	}

	if inst.tree != nil && inst.output != nil {
		ops := diff.Diff(inst.tree, next)
		if len(ops) > 0 {
			inst.output = diff.Patch(inst.output, ops)
			for kind, n := range diff.Count(ops) {
				r.metrics.ObservePatchOps(kind.String(), n)
			}
		}
		r.metrics.ObserveRender(inst.Definition.Name, "patch")
	} else {
		out := diff.Materialize(next)
		if inst.output != nil {
			if p := inst.output.Parent(); p != nil {
				p.ReplaceChild(out, inst.output)
			}
		}
		inst.output = out
		r.metrics.ObserveRender(inst.Definition.Name, "replace")
	}
	inst.tree = next
	return nil
}

// renderTree calls the instance's Render and resolves the result. A panic in
// any render function comes back as a *errors.BuildError.
func (r *Renderer) renderTree(inst *Instance) (tree *core.Node, err error) {
	defer errors.RecoverBuild(inst.Definition.Name, inst.ID, &err)
	if inst.Definition.Render == nil {
		return nil, nil
	}
	return r.resolve(inst.Definition.Render(inst.state.Clone()), 0), nil
}

// resolve replaces component tags with their rendered output until only
// literal tags remain, dropping children that render as nothing.
func (r *Renderer) resolve(n *core.Node, depth int) *core.Node {
	if n == nil {
		return nil
	}
	if depth > maxDepth {
		panic(fmt.Sprintf("component nesting exceeds %d levels at %s", maxDepth, n.Tag))
	}
	if n.Tag.IsComponent() {
		def := n.Tag.Definition()
		if def == nil || def.Render == nil {
			return nil
		}
		return r.resolve(def.Render(core.Merge(def.State, n.Props)), depth+1)
	}
	if len(n.Children) == 0 {
		return n
	}

	children := make([]any, 0, len(n.Children))
	for _, child := range n.Children {
		if core.IsEmpty(child) {
			continue
		}
		if c, ok := child.(*core.Node); ok {
			resolved := r.resolve(c, depth+1)
			if resolved == nil {
				continue
			}
			children = append(children, resolved)
			continue
		}
		children = append(children, child)
	}
	return &core.Node{Tag: n.Tag, Props: n.Props, Children: children, Key: n.Key}
}
