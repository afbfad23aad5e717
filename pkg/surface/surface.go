// Package surface provides the in-memory host surface that the vio renderer
// materializes views into.
//
// A surface is a retained tree of elements and text nodes, close in shape to
// a browser DOM: elements carry a tag, attributes, a class string, a style
// map, named event handlers and an optional ref name. The renderer is the
// only writer of the nodes it materializes; hosts create the document and
// the mount point, and may read or serialize the tree at any time.
//
//	doc := surface.NewDocument()
//	root := surface.NewElement("div")
//	root.SetAttribute("id", "app")
//	doc.Body().AppendChild(root)
//
// Like the rest of the runtime, the surface is not safe for concurrent use.
package surface

import (
	"maps"
	"slices"
	"strings"
)

// Node is either an *Element or a *Text.
type Node interface {
	// Parent returns the element this node is attached to, or nil.
	Parent() *Element
	// TextContent returns the concatenated text of the node and its subtree.
	TextContent() string

	setParent(parent *Element)
}

// Handler receives events dispatched to an element.
type Handler func(Event)

// Event is delivered to handlers by Element.Dispatch.
type Event struct {
	// Type is the event name, e.g. "click".
	Type string
	// Target is the element the event was dispatched on.
	Target *Element
	// Data is an arbitrary payload supplied by the dispatcher.
	Data any
}

// Text is a leaf text node.
type Text struct {
	Data   string
	parent *Element
}

// NewText creates a detached text node.
func NewText(data string) *Text {
	return &Text{Data: data}
}

// Parent returns the element this node is attached to, or nil.
func (t *Text) Parent() *Element { return t.parent }

// TextContent returns the node's data.
func (t *Text) TextContent() string { return t.Data }

func (t *Text) setParent(parent *Element) { t.parent = parent }

// Element is a tagged node with attributes, handlers and ordered children.
type Element struct {
	Tag string

	parent   *Element
	children []Node
	attrs    map[string]string
	class    string
	style    map[string]string
	handlers map[string]Handler
	ref      string
}

// NewElement creates a detached element.
func NewElement(tag string) *Element {
	return &Element{Tag: tag}
}

// Parent returns the element this node is attached to, or nil.
func (e *Element) Parent() *Element { return e.parent }

func (e *Element) setParent(parent *Element) { e.parent = parent }

// TextContent returns the text of all descendant text nodes in order.
func (e *Element) TextContent() string {
	var sb strings.Builder
	for _, child := range e.children {
		sb.WriteString(child.TextContent())
	}
	return sb.String()
}

// Len returns the number of children.
func (e *Element) Len() int {
	return len(e.children)
}

// Children returns a copy of the child list.
func (e *Element) Children() []Node {
	return slices.Clone(e.children)
}

// ChildAt returns the child at index i, or nil when out of range.
func (e *Element) ChildAt(i int) Node {
	if i < 0 || i >= len(e.children) {
		return nil
	}
	return e.children[i]
}

// IndexOf returns the position of child, or -1.
func (e *Element) IndexOf(child Node) int {
	for i, c := range e.children {
		if c == child {
			return i
		}
	}
	return -1
}

// AppendChild attaches child as the last child, detaching it from any
// previous parent.
func (e *Element) AppendChild(child Node) {
	detach(child)
	child.setParent(e)
	e.children = append(e.children, child)
}

// InsertAt attaches child so that it ends up at index i. An index at or past
// the end appends.
func (e *Element) InsertAt(i int, child Node) {
	detach(child)
	if i < 0 {
		i = 0
	}
	if i >= len(e.children) {
		e.AppendChild(child)
		return
	}
	child.setParent(e)
	e.children = slices.Insert(e.children, i, child)
}

// InsertBefore attaches child immediately before ref. A nil or foreign ref
// appends.
func (e *Element) InsertBefore(child, ref Node) {
	if ref == nil {
		e.AppendChild(child)
		return
	}
	detach(child)
	i := e.IndexOf(ref)
	if i < 0 {
		e.AppendChild(child)
		return
	}
	child.setParent(e)
	e.children = slices.Insert(e.children, i, child)
}

// ReplaceChild substitutes next for old. It reports whether old was a child.
func (e *Element) ReplaceChild(next, old Node) bool {
	i := e.IndexOf(old)
	if i < 0 {
		return false
	}
	detach(next)
	// detaching next may have shifted old when both shared this parent
	i = e.IndexOf(old)
	old.setParent(nil)
	next.setParent(e)
	e.children[i] = next
	return true
}

// RemoveChild detaches child. It reports whether child was attached here.
func (e *Element) RemoveChild(child Node) bool {
	i := e.IndexOf(child)
	if i < 0 {
		return false
	}
	child.setParent(nil)
	e.children = slices.Delete(e.children, i, i+1)
	return true
}

// RemoveChildren detaches every child.
func (e *Element) RemoveChildren() {
	for _, child := range e.children {
		child.setParent(nil)
	}
	e.children = nil
}

func detach(n Node) {
	if p := n.Parent(); p != nil {
		p.RemoveChild(n)
	}
}

// Attribute returns the value of a generic attribute.
func (e *Element) Attribute(name string) (string, bool) {
	v, ok := e.attrs[name]
	return v, ok
}

// SetAttribute sets a generic attribute.
func (e *Element) SetAttribute(name, value string) {
	if e.attrs == nil {
		e.attrs = make(map[string]string)
	}
	e.attrs[name] = value
}

// RemoveAttribute clears a generic attribute.
func (e *Element) RemoveAttribute(name string) {
	delete(e.attrs, name)
}

// Attributes returns a copy of the attribute map.
func (e *Element) Attributes() map[string]string {
	return maps.Clone(e.attrs)
}

// Class returns the whole class attribute.
func (e *Element) Class() string { return e.class }

// SetClass replaces the whole class attribute.
func (e *Element) SetClass(class string) { e.class = class }

// HasClass reports whether name is one of the space-separated classes.
func (e *Element) HasClass(name string) bool {
	return slices.Contains(strings.Fields(e.class), name)
}

// Style returns a copy of the inline style map.
func (e *Element) Style() map[string]string {
	return maps.Clone(e.style)
}

// SetStyle replaces the inline style map.
func (e *Element) SetStyle(style map[string]string) {
	if len(style) == 0 {
		e.style = nil
		return
	}
	e.style = maps.Clone(style)
}

// Ref returns the ref name, if any.
func (e *Element) Ref() string { return e.ref }

// SetRef names the element for ref lookups. An empty name clears it.
func (e *Element) SetRef(name string) { e.ref = name }

// SetHandler binds h to the named event, replacing any previous handler.
func (e *Element) SetHandler(event string, h Handler) {
	if h == nil {
		e.RemoveHandler(event)
		return
	}
	if e.handlers == nil {
		e.handlers = make(map[string]Handler)
	}
	e.handlers[event] = h
}

// RemoveHandler unbinds the named event.
func (e *Element) RemoveHandler(event string) {
	delete(e.handlers, event)
}

// HasHandler reports whether a handler is bound for event.
func (e *Element) HasHandler(event string) bool {
	_, ok := e.handlers[event]
	return ok
}

// Events returns the sorted names of bound events.
func (e *Element) Events() []string {
	return slices.Sorted(maps.Keys(e.handlers))
}

// Dispatch invokes the handler bound to eventType. It reports whether a
// handler ran.
func (e *Element) Dispatch(eventType string, data any) bool {
	h, ok := e.handlers[eventType]
	if !ok {
		return false
	}
	h(Event{Type: eventType, Target: e, Data: data})
	return true
}

// Find returns the first element in e's subtree (e included, pre-order)
// matching pred.
func (e *Element) Find(pred func(*Element) bool) *Element {
	if pred(e) {
		return e
	}
	for _, child := range e.children {
		if el, ok := child.(*Element); ok {
			if found := el.Find(pred); found != nil {
				return found
			}
		}
	}
	return nil
}

// FindAll returns every element in e's subtree matching pred, pre-order.
func (e *Element) FindAll(pred func(*Element) bool) []*Element {
	var out []*Element
	Walk(e, func(n Node) bool {
		if el, ok := n.(*Element); ok && pred(el) {
			out = append(out, el)
		}
		return true
	})
	return out
}

// Walk visits n and its descendants in pre-order. Returning false from
// visit skips the node's children.
func Walk(n Node, visit func(Node) bool) {
	if !visit(n) {
		return
	}
	if el, ok := n.(*Element); ok {
		for _, child := range el.children {
			Walk(child, visit)
		}
	}
}

// Equal reports whether a and b are structurally equivalent: same node
// kinds, tags, attributes, class, style, ref, bound event names, text and
// children. Handler identity is not compared.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case *Text:
		bv, ok := b.(*Text)
		return ok && av.Data == bv.Data
	case *Element:
		bv, ok := b.(*Element)
		if !ok {
			return false
		}
		if av.Tag != bv.Tag || av.class != bv.class || av.ref != bv.ref {
			return false
		}
		if !maps.Equal(av.attrs, bv.attrs) || !maps.Equal(av.style, bv.style) {
			return false
		}
		if !slices.Equal(av.Events(), bv.Events()) {
			return false
		}
		if len(av.children) != len(bv.children) {
			return false
		}
		for i := range av.children {
			if !Equal(av.children[i], bv.children[i]) {
				return false
			}
		}
		return true
	}
	return false
}
