package core

import (
	"fmt"
	"reflect"
)

// TagKind distinguishes the two cases of a Tag.
type TagKind uint8

const (
	// TagLiteral names a primitive element such as "div".
	TagLiteral TagKind = iota
	// TagComponent references a component Definition.
	TagComponent
)

func (k TagKind) String() string {
	switch k {
	case TagLiteral:
		return "literal"
	case TagComponent:
		return "component"
	default:
		return "unknown"
	}
}

// Tag is the polymorphic tag of a Node: a literal element name or a component
// reference. The zero Tag is an empty literal.
type Tag struct {
	kind TagKind
	name string
	def  *Definition
}

// Literal returns a tag naming a primitive element.
func Literal(name string) Tag {
	return Tag{kind: TagLiteral, name: name}
}

// ComponentRef returns a tag referencing a component definition.
func ComponentRef(def *Definition) Tag {
	return Tag{kind: TagComponent, def: def}
}

// Kind reports which case the tag holds.
func (t Tag) Kind() TagKind { return t.kind }

// IsComponent reports whether the tag references a component.
func (t Tag) IsComponent() bool { return t.kind == TagComponent }

// Name returns the element name, or the definition name for component tags.
func (t Tag) Name() string {
	if t.kind == TagComponent {
		if t.def == nil {
			return ""
		}
		return t.def.Name
	}
	return t.name
}

// Definition returns the referenced definition, or nil for literal tags.
func (t Tag) Definition() *Definition {
	if t.kind != TagComponent {
		return nil
	}
	return t.def
}

// Equal reports whether two tags are the same. Literal tags compare by name,
// component tags by definition identity.
func (t Tag) Equal(other Tag) bool {
	if t.kind != other.kind {
		return false
	}
	if t.kind == TagComponent {
		return t.def == other.def
	}
	return t.name == other.name
}

func (t Tag) String() string {
	if t.kind == TagComponent {
		return "<" + t.Name() + ">"
	}
	return t.name
}

// Props holds the properties of a node. Keys beginning with "on" whose value
// is a function bind event handlers.
type Props map[string]any

// Node describes one view node.
type Node struct {
	Tag      Tag
	Props    Props
	Children []any
	// Key is accepted for forward compatibility; reconciliation is positional.
	Key any
}

// H builds a node with a literal tag.
func H(tag string, props Props, children ...any) *Node {
	return &Node{Tag: Literal(tag), Props: props, Children: children}
}

// C builds a node referencing a component definition. Props are merged over
// the component's state when it is resolved.
func C(def *Definition, props Props) *Node {
	return &Node{Tag: ComponentRef(def), Props: props}
}

// IsNode reports whether child is a non-nil *Node.
func IsNode(child any) bool {
	n, ok := child.(*Node)
	return ok && n != nil
}

// IsPrimitive reports whether child is a string, boolean or number.
func IsPrimitive(child any) bool {
	switch child.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64:
		return true
	}
	return false
}

// IsEmpty reports whether child renders as nothing: nil, a boolean, the empty
// string or a nil *Node.
func IsEmpty(child any) bool {
	switch v := child.(type) {
	case nil:
		return true
	case bool:
		return true
	case string:
		return v == ""
	case *Node:
		return v == nil
	}
	return false
}

// Text returns the string representation of a primitive child.
func Text(child any) string {
	switch v := child.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	return fmt.Sprint(child)
}

// Clone returns a deep copy of the node's structure. Prop values are copied
// by assignment.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{Tag: n.Tag, Key: n.Key}
	if n.Props != nil {
		out.Props = make(Props, len(n.Props))
		for k, v := range n.Props {
			out.Props[k] = v
		}
	}
	if n.Children != nil {
		out.Children = make([]any, len(n.Children))
		for i, child := range n.Children {
			if c, ok := child.(*Node); ok {
				out.Children[i] = c.Clone()
			} else {
				out.Children[i] = child
			}
		}
	}
	return out
}

// IsHandlerProp reports whether a prop binds an event handler.
func IsHandlerProp(key string, value any) bool {
	if len(key) < 3 || key[0] != 'o' || key[1] != 'n' {
		return false
	}
	return value != nil && reflect.TypeOf(value).Kind() == reflect.Func
}
