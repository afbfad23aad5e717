package surface

import "strings"

// Document owns the root of a surface and resolves mount points.
type Document struct {
	root *Element
	body *Element
}

// NewDocument creates a document with an empty html > body skeleton.
func NewDocument() *Document {
	root := NewElement("html")
	body := NewElement("body")
	root.AppendChild(body)
	return &Document{root: root, body: body}
}

// Root returns the <html> element.
func (d *Document) Root() *Element { return d.root }

// Body returns the <body> element.
func (d *Document) Body() *Element { return d.body }

// ElementByID returns the first element whose id attribute equals id.
func (d *Document) ElementByID(id string) *Element {
	return d.root.Find(func(e *Element) bool {
		v, ok := e.Attribute("id")
		return ok && v == id
	})
}

// Query resolves a minimal selector: "#id", ".class" or a tag name.
// It returns nil when nothing matches.
func (d *Document) Query(selector string) *Element {
	selector = strings.TrimSpace(selector)
	switch {
	case selector == "":
		return nil
	case strings.HasPrefix(selector, "#"):
		return d.ElementByID(selector[1:])
	case strings.HasPrefix(selector, "."):
		class := selector[1:]
		return d.root.Find(func(e *Element) bool { return e.HasClass(class) })
	default:
		return d.root.Find(func(e *Element) bool { return e.Tag == selector })
	}
}
