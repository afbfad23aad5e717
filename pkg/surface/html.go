package surface

import (
	"bytes"
	"io"
	"maps"
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// RenderHTML writes n as HTML. Attributes are emitted in sorted order after
// class and style; handlers and refs are not part of the markup.
func RenderHTML(w io.Writer, n Node) error {
	return html.Render(w, toHTML(n))
}

// HTML returns n rendered as an HTML string.
func HTML(n Node) string {
	var buf bytes.Buffer
	if err := RenderHTML(&buf, n); err != nil {
		return ""
	}
	return buf.String()
}

func toHTML(n Node) *html.Node {
	switch v := n.(type) {
	case *Text:
		return &html.Node{Type: html.TextNode, Data: v.Data}
	case *Element:
		out := &html.Node{Type: html.ElementNode, Data: v.Tag}
		if v.class != "" {
			out.Attr = append(out.Attr, html.Attribute{Key: "class", Val: v.class})
		}
		if len(v.style) > 0 {
			out.Attr = append(out.Attr, html.Attribute{Key: "style", Val: styleString(v.style)})
		}
		for _, k := range slices.Sorted(maps.Keys(v.attrs)) {
			out.Attr = append(out.Attr, html.Attribute{Key: k, Val: v.attrs[k]})
		}
		for _, child := range v.children {
			out.AppendChild(toHTML(child))
		}
		return out
	}
	return &html.Node{Type: html.TextNode}
}

func styleString(style map[string]string) string {
	keys := slices.Sorted(maps.Keys(style))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+style[k])
	}
	return strings.Join(parts, "; ")
}
