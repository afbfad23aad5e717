package diff

import "github.com/go-drift/vio/pkg/core"

// Kind identifies a patch or child operation.
type Kind int

const (
	// KindReplace replaces the whole subtree.
	KindReplace Kind = iota
	// KindProps updates properties in place.
	KindProps
	// KindChildren applies positional child operations.
	KindChildren
	// KindInsert inserts a child at an index.
	KindInsert
	// KindRemove removes the child at an index.
	KindRemove
	// KindReplaceChild replaces the child at an index.
	KindReplaceChild
	// KindPatch applies a nested patch list to the child at an index.
	KindPatch
)

func (k Kind) String() string {
	switch k {
	case KindReplace:
		return "REPLACE"
	case KindProps:
		return "PROPS"
	case KindChildren:
		return "CHILDREN"
	case KindInsert:
		return "INSERT"
	case KindRemove:
		return "REMOVE"
	case KindReplaceChild:
		return "REPLACE_CHILD"
	case KindPatch:
		return "PATCH"
	default:
		return "UNKNOWN"
	}
}

// Op is one patch operation on a node: Replace, Props or Children.
type Op interface {
	Kind() Kind
	isOp()
}

// Replace substitutes a freshly materialized Node for the current output.
type Replace struct {
	Node *core.Node
}

// Props sets the Added entries and clears the Removed keys.
type Props struct {
	Added   core.Props
	Removed []string
}

// Children applies Ops to the node's children.
type Children struct {
	Ops []ChildOp
}

func (Replace) Kind() Kind  { return KindReplace }
func (Props) Kind() Kind    { return KindProps }
func (Children) Kind() Kind { return KindChildren }

func (Replace) isOp()  {}
func (Props) isOp()    {}
func (Children) isOp() {}

// ChildOp is one positional child operation: Insert, Remove, ReplaceChild or
// PatchChild.
type ChildOp interface {
	Kind() Kind
	Index() int
	isChildOp()
}

// Insert materializes Child and inserts it at index At.
type Insert struct {
	At    int
	Child any
}

// Remove detaches the child at index At.
type Remove struct {
	At int
}

// ReplaceChild materializes Child and substitutes it for the child at At.
type ReplaceChild struct {
	At    int
	Child any
}

// PatchChild applies Ops to the child at At.
type PatchChild struct {
	At  int
	Ops []Op
}

func (Insert) Kind() Kind       { return KindInsert }
func (Remove) Kind() Kind       { return KindRemove }
func (ReplaceChild) Kind() Kind { return KindReplaceChild }
func (PatchChild) Kind() Kind   { return KindPatch }

func (o Insert) Index() int       { return o.At }
func (o Remove) Index() int       { return o.At }
func (o ReplaceChild) Index() int { return o.At }
func (o PatchChild) Index() int   { return o.At }

func (Insert) isChildOp()       {}
func (Remove) isChildOp()       {}
func (ReplaceChild) isChildOp() {}
func (PatchChild) isChildOp()   {}

// Count returns the number of operations in ops, nested child operations
// included, keyed by kind.
func Count(ops []Op) map[Kind]int {
	counts := make(map[Kind]int)
	var walk func([]Op)
	walk = func(ops []Op) {
		for _, op := range ops {
			counts[op.Kind()]++
			c, ok := op.(Children)
			if !ok {
				continue
			}
			for _, child := range c.Ops {
				counts[child.Kind()]++
				if p, ok := child.(PatchChild); ok {
					walk(p.Ops)
				}
			}
		}
	}
	walk(ops)
	return counts
}
