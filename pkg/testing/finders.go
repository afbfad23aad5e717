package testing

import (
	"fmt"
	"strings"

	"github.com/go-drift/vio/pkg/surface"
)

// Finder locates elements in a surface tree.
type Finder interface {
	// Evaluate returns all matching elements under root (depth-first pre-order).
	Evaluate(root *surface.Element) []*surface.Element
	// Description returns a human-readable description for error messages.
	Description() string
}

// FinderResult wraps finder results with convenient accessors.
type FinderResult struct {
	elements []*surface.Element
	finder   Finder
}

// First returns the first match. Panics if no matches.
func (r FinderResult) First() *surface.Element {
	if len(r.elements) == 0 {
		panic(fmt.Sprintf("Finder found no elements: %s", r.describe()))
	}
	return r.elements[0]
}

// FirstOrNil returns the first match, or nil if none.
func (r FinderResult) FirstOrNil() *surface.Element {
	if len(r.elements) == 0 {
		return nil
	}
	return r.elements[0]
}

// At returns the match at index. Panics if out of range.
func (r FinderResult) At(index int) *surface.Element {
	if index < 0 || index >= len(r.elements) {
		panic(fmt.Sprintf("Finder index %d out of range (found %d): %s", index, len(r.elements), r.describe()))
	}
	return r.elements[index]
}

// All returns all matches in traversal order.
func (r FinderResult) All() []*surface.Element {
	return r.elements
}

// Count returns the number of matches.
func (r FinderResult) Count() int {
	return len(r.elements)
}

// Exists returns true if at least one match was found.
func (r FinderResult) Exists() bool {
	return len(r.elements) > 0
}

// Text returns the text content of the first match. Panics if no matches.
func (r FinderResult) Text() string {
	return r.First().TextContent()
}

func (r FinderResult) describe() string {
	if r.finder == nil {
		return "unknown"
	}
	return r.finder.Description()
}

// --- Concrete finders ---

// predicateFinder matches elements satisfying a predicate.
type predicateFinder struct {
	fn   func(*surface.Element) bool
	desc string
}

func (f *predicateFinder) Evaluate(root *surface.Element) []*surface.Element {
	if root == nil {
		return nil
	}
	return root.FindAll(f.fn)
}

func (f *predicateFinder) Description() string {
	return f.desc
}

// ByPredicate returns a finder that matches elements satisfying fn.
func ByPredicate(fn func(*surface.Element) bool) Finder {
	return &predicateFinder{fn: fn, desc: "ByPredicate(...)"}
}

// ByTag returns a finder that matches elements with the given tag.
func ByTag(tag string) Finder {
	return &predicateFinder{
		fn:   func(e *surface.Element) bool { return e.Tag == tag },
		desc: fmt.Sprintf("ByTag(%q)", tag),
	}
}

// ByID returns a finder that matches elements whose id attribute is id.
func ByID(id string) Finder {
	return ByAttribute("id", id)
}

// ByAttribute returns a finder that matches elements whose attribute name
// equals value.
func ByAttribute(name, value string) Finder {
	return &predicateFinder{
		fn: func(e *surface.Element) bool {
			v, ok := e.Attribute(name)
			return ok && v == value
		},
		desc: fmt.Sprintf("ByAttribute(%q, %q)", name, value),
	}
}

// ByClass returns a finder that matches elements carrying class.
func ByClass(class string) Finder {
	return &predicateFinder{
		fn:   func(e *surface.Element) bool { return e.HasClass(class) },
		desc: fmt.Sprintf("ByClass(%q)", class),
	}
}

// ByRef returns a finder that matches elements with the given ref name.
func ByRef(name string) Finder {
	return &predicateFinder{
		fn:   func(e *surface.Element) bool { return e.Ref() == name },
		desc: fmt.Sprintf("ByRef(%q)", name),
	}
}

// ByText returns a finder that matches elements whose direct text children
// concatenate to exactly text.
func ByText(text string) Finder {
	return &predicateFinder{
		fn:   func(e *surface.Element) bool { return ownText(e) == text },
		desc: fmt.Sprintf("ByText(%q)", text),
	}
}

// ByTextContaining returns a finder that matches elements whose direct text
// children contain substring.
func ByTextContaining(substring string) Finder {
	return &predicateFinder{
		fn: func(e *surface.Element) bool {
			text := ownText(e)
			return text != "" && strings.Contains(text, substring)
		},
		desc: fmt.Sprintf("ByTextContaining(%q)", substring),
	}
}

func ownText(e *surface.Element) string {
	var sb strings.Builder
	for _, child := range e.Children() {
		if t, ok := child.(*surface.Text); ok {
			sb.WriteString(t.Data)
		}
	}
	return sb.String()
}

// descendantFinder finds elements matching 'matching' that are descendants
// of elements matching 'of'.
type descendantFinder struct {
	of       Finder
	matching Finder
}

func (f *descendantFinder) Evaluate(root *surface.Element) []*surface.Element {
	var results []*surface.Element
	seen := make(map[*surface.Element]bool)
	for _, ancestor := range f.of.Evaluate(root) {
		// Search within each ancestor's subtree (skip the ancestor itself)
		for _, child := range ancestor.Children() {
			el, ok := child.(*surface.Element)
			if !ok {
				continue
			}
			for _, match := range f.matching.Evaluate(el) {
				if !seen[match] {
					seen[match] = true
					results = append(results, match)
				}
			}
		}
	}
	return results
}

func (f *descendantFinder) Description() string {
	return fmt.Sprintf("Descendant(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Descendant returns a finder that matches elements satisfying 'matching'
// that are descendants of elements matching 'of'.
func Descendant(of, matching Finder) Finder {
	return &descendantFinder{of: of, matching: matching}
}

// ancestorFinder finds elements matching 'matching' that are ancestors
// of elements matching 'of'.
type ancestorFinder struct {
	of       Finder
	matching Finder
}

func (f *ancestorFinder) Evaluate(root *surface.Element) []*surface.Element {
	descendants := f.of.Evaluate(root)
	if len(descendants) == 0 {
		return nil
	}
	var results []*surface.Element
	for _, candidate := range f.matching.Evaluate(root) {
		for _, desc := range descendants {
			if isAncestorOf(candidate, desc) {
				results = append(results, candidate)
				break
			}
		}
	}
	return results
}

func (f *ancestorFinder) Description() string {
	return fmt.Sprintf("Ancestor(of: %s, matching: %s)", f.of.Description(), f.matching.Description())
}

// Ancestor returns a finder that matches elements satisfying 'matching'
// that are ancestors of elements matching 'of'.
func Ancestor(of, matching Finder) Finder {
	return &ancestorFinder{of: of, matching: matching}
}

// isAncestorOf reports whether descendant sits strictly below ancestor.
func isAncestorOf(ancestor, descendant *surface.Element) bool {
	for p := descendant.Parent(); p != nil; p = p.Parent() {
		if p == ancestor {
			return true
		}
	}
	return false
}
