// Package diff computes and applies patches between node trees.
//
// Diff compares two resolved trees and returns the operations that turn the
// output of the first into the output of the second. Children are matched by
// position only; Node.Key is ignored. A tag change anywhere short-circuits
// into a whole-subtree Replace.
//
// Materialize builds host output for a tree and Patch applies a patch list to
// existing output:
//
//	out := diff.Materialize(oldTree)
//	out = diff.Patch(out, diff.Diff(oldTree, newTree))
//
// Children that render as nothing (nil, booleans, the empty string) are
// dropped before positional comparison, so indices in a patch always refer to
// materialized children.
package diff

import (
	"maps"
	"reflect"
	"slices"
	"unsafe"

	"github.com/go-drift/vio/pkg/core"
)

// Diff returns the patch list that transforms old into next.
func Diff(old, next *core.Node) []Op {
	if old == next {
		return nil
	}
	if old == nil || next == nil || !old.Tag.Equal(next.Tag) {
		return []Op{Replace{Node: next}}
	}

	var ops []Op
	if p, ok := diffProps(old.Props, next.Props); ok {
		ops = append(ops, p)
	}
	if childOps := diffChildren(Compact(old.Children), Compact(next.Children)); len(childOps) > 0 {
		ops = append(ops, Children{Ops: childOps})
	}
	return ops
}

func diffProps(old, next core.Props) (Props, bool) {
	var p Props
	for k, v := range next {
		ov, ok := old[k]
		if !ok || !propEqual(ov, v) {
			if p.Added == nil {
				p.Added = make(core.Props)
			}
			p.Added[k] = v
		}
	}
	for _, k := range slices.Sorted(maps.Keys(old)) {
		if _, ok := next[k]; !ok {
			p.Removed = append(p.Removed, k)
		}
	}
	return p, len(p.Added) > 0 || len(p.Removed) > 0
}

// propEqual compares prop values structurally. Function values compare by
// identity: the same closure value is equal, a fresh closure is not.
func propEqual(a, b any) bool {
	if isFunc(a) || isFunc(b) {
		return isFunc(a) && isFunc(b) &&
			reflect.TypeOf(a) == reflect.TypeOf(b) &&
			funcData(a) == funcData(b)
	}
	return reflect.DeepEqual(a, b)
}

// funcData returns the data word of an interface holding a func, which
// points at the closure object.
func funcData(v any) unsafe.Pointer {
	return (*[2]unsafe.Pointer)(unsafe.Pointer(&v))[1]
}

func isFunc(v any) bool {
	return v != nil && reflect.TypeOf(v).Kind() == reflect.Func
}

func diffChildren(old, next []any) []ChildOp {
	var ops []ChildOp
	for i := range max(len(old), len(next)) {
		switch {
		case i >= len(old):
			ops = append(ops, Insert{At: i, Child: next[i]})
		case i >= len(next):
			ops = append(ops, Remove{At: i})
		default:
			o, n := old[i], next[i]
			oPrim, nPrim := core.IsPrimitive(o), core.IsPrimitive(n)
			switch {
			case oPrim && nPrim:
				if core.Text(o) != core.Text(n) {
					ops = append(ops, ReplaceChild{At: i, Child: n})
				}
			case oPrim != nPrim:
				ops = append(ops, ReplaceChild{At: i, Child: n})
			case core.IsNode(o) && core.IsNode(n):
				if nested := Diff(o.(*core.Node), n.(*core.Node)); len(nested) > 0 {
					ops = append(ops, PatchChild{At: i, Ops: nested})
				}
			default:
				ops = append(ops, ReplaceChild{At: i, Child: n})
			}
		}
	}
	return ops
}

// Compact returns children without the entries that render as nothing.
// The input slice is returned unchanged when there is nothing to drop.
func Compact(children []any) []any {
	for i, c := range children {
		if core.IsEmpty(c) {
			out := make([]any, i, len(children))
			copy(out, children[:i])
			for _, c := range children[i+1:] {
				if !core.IsEmpty(c) {
					out = append(out, c)
				}
			}
			return out
		}
	}
	return children
}
