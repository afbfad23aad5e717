package diff

import (
	"cmp"
	"slices"

	"github.com/go-drift/vio/pkg/surface"
)

// Patch applies ops to target in order and returns the output handle, which
// differs from target when a Replace substituted it. A replaced target that
// is attached to a parent is swapped in place.
func Patch(target surface.Node, ops []Op) surface.Node {
	for _, op := range ops {
		switch o := op.(type) {
		case Replace:
			next := Materialize(o.Node)
			if parent := target.Parent(); parent != nil {
				parent.ReplaceChild(next, target)
			}
			target = next
		case Props:
			el, ok := target.(*surface.Element)
			if !ok {
				continue
			}
			for k, v := range o.Added {
				setProp(el, k, v)
			}
			for _, k := range o.Removed {
				clearProp(el, k)
			}
		case Children:
			if el, ok := target.(*surface.Element); ok {
				patchChildren(el, o.Ops)
			}
		}
	}
	return target
}

func patchChildren(parent *surface.Element, ops []ChildOp) {
	var removals []Remove
	for _, op := range ops {
		if r, ok := op.(Remove); ok {
			removals = append(removals, r)
		}
	}
	slices.SortFunc(removals, func(a, b Remove) int { return cmp.Compare(b.At, a.At) })
	for _, r := range removals {
		if child := parent.ChildAt(r.At); child != nil {
			parent.RemoveChild(child)
		}
	}

	for _, op := range ops {
		switch o := op.(type) {
		case Insert:
			parent.InsertAt(o.At, MaterializeChild(o.Child))
		case ReplaceChild:
			if old := parent.ChildAt(o.At); old != nil {
				parent.ReplaceChild(MaterializeChild(o.Child), old)
			}
		case PatchChild:
			if child := parent.ChildAt(o.At); child != nil {
				Patch(child, o.Ops)
			}
		}
	}
}
