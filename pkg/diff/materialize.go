package diff

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-drift/vio/pkg/core"
	"github.com/go-drift/vio/pkg/surface"
)

// Materialize builds the host output for a resolved tree. A nil node or a
// node with a component tag materializes as an empty text placeholder.
func Materialize(n *core.Node) surface.Node {
	if n == nil || n.Tag.IsComponent() {
		return surface.NewText("")
	}
	el := surface.NewElement(n.Tag.Name())
	for k, v := range n.Props {
		setProp(el, k, v)
	}
	for _, child := range Compact(n.Children) {
		el.AppendChild(MaterializeChild(child))
	}
	return el
}

// MaterializeChild builds the host output for one child value.
func MaterializeChild(child any) surface.Node {
	if node, ok := child.(*core.Node); ok {
		return Materialize(node)
	}
	if core.IsEmpty(child) {
		return surface.NewText("")
	}
	return surface.NewText(core.Text(child))
}

// EventName returns the event bound by a handler prop key: "onClick" binds
// "click".
func EventName(key string) string {
	return strings.ToLower(strings.TrimPrefix(key, "on"))
}

func setProp(el *surface.Element, key string, value any) {
	if core.IsHandlerProp(key, value) {
		el.SetHandler(EventName(key), toHandler(value))
		return
	}
	if strings.HasPrefix(key, "on") {
		el.RemoveHandler(EventName(key))
	}
	switch key {
	case "class", "className":
		if absent(value) {
			el.SetClass("")
			return
		}
		el.SetClass(core.Text(value))
	case "style":
		el.SetStyle(toStyle(value))
	case "ref":
		if absent(value) {
			el.SetRef("")
			return
		}
		el.SetRef(core.Text(value))
	default:
		if absent(value) {
			el.RemoveAttribute(key)
			return
		}
		el.SetAttribute(key, core.Text(value))
	}
}

func clearProp(el *surface.Element, key string) {
	switch key {
	case "class", "className":
		el.SetClass("")
	case "style":
		el.SetStyle(nil)
	case "ref":
		el.SetRef("")
	default:
		if strings.HasPrefix(key, "on") {
			el.RemoveHandler(EventName(key))
		}
		el.RemoveAttribute(key)
	}
}

// absent reports whether a prop value is skipped when set.
func absent(v any) bool {
	if v == nil {
		return true
	}
	b, ok := v.(bool)
	return ok && !b
}

// toHandler adapts a handler prop to a surface.Handler. Besides the common
// shapes, any function is accepted: a surface.Event parameter receives the
// event, a parameter the event data is assignable to receives the data, and
// every other parameter gets its zero value. Results are discarded.
func toHandler(v any) surface.Handler {
	switch fn := v.(type) {
	case surface.Handler:
		return fn
	case func(surface.Event):
		return fn
	case func():
		return func(surface.Event) { fn() }
	case func(any):
		return func(e surface.Event) { fn(e.Data) }
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Func || rv.IsNil() {
		return nil
	}
	return func(e surface.Event) { rv.Call(handlerArgs(rv.Type(), e)) }
}

var eventType = reflect.TypeOf(surface.Event{})

func handlerArgs(t reflect.Type, e surface.Event) []reflect.Value {
	n := t.NumIn()
	if t.IsVariadic() {
		n--
	}
	args := make([]reflect.Value, n)
	for i := range n {
		in := t.In(i)
		switch {
		case in == eventType:
			args[i] = reflect.ValueOf(e)
		case i == 0 && e.Data != nil && reflect.TypeOf(e.Data).AssignableTo(in):
			args[i] = reflect.ValueOf(e.Data)
		default:
			args[i] = reflect.Zero(in)
		}
	}
	return args
}

func toStyle(v any) map[string]string {
	switch s := v.(type) {
	case map[string]string:
		return s
	case map[string]any:
		out := make(map[string]string, len(s))
		for k, val := range s {
			out[k] = fmt.Sprint(val)
		}
		return out
	case string:
		out := make(map[string]string)
		for _, decl := range strings.Split(s, ";") {
			k, val, ok := strings.Cut(decl, ":")
			if !ok {
				continue
			}
			if k = strings.TrimSpace(k); k != "" {
				out[k] = strings.TrimSpace(val)
			}
		}
		return out
	}
	return nil
}
