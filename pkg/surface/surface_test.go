package surface

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementChildOperations(t *testing.T) {
	parent := NewElement("ul")
	a, b, c := NewText("a"), NewText("b"), NewText("c")

	parent.AppendChild(a)
	parent.AppendChild(c)
	parent.InsertAt(1, b)
	assert.Equal(t, "abc", parent.TextContent())
	assert.Same(t, parent, b.Parent())

	assert.True(t, parent.RemoveChild(a))
	assert.Nil(t, a.Parent())
	assert.Equal(t, "bc", parent.TextContent())
	assert.False(t, parent.RemoveChild(a))

	d := NewText("d")
	assert.True(t, parent.ReplaceChild(d, c))
	assert.Equal(t, "bd", parent.TextContent())
	assert.Nil(t, c.Parent())

	parent.InsertBefore(a, b)
	assert.Equal(t, "abd", parent.TextContent())
	parent.InsertAt(99, c)
	assert.Equal(t, "abdc", parent.TextContent())
	assert.Nil(t, parent.ChildAt(10))
}

func TestAppendChildMovesNodeBetweenParents(t *testing.T) {
	first := NewElement("div")
	second := NewElement("div")
	child := NewElement("span")

	first.AppendChild(child)
	second.AppendChild(child)

	assert.Equal(t, 0, first.Len())
	assert.Equal(t, 1, second.Len())
	assert.Same(t, second, child.Parent())
}

func TestReplaceChildWithSibling(t *testing.T) {
	parent := NewElement("div")
	a, b, c := NewText("a"), NewText("b"), NewText("c")
	parent.AppendChild(a)
	parent.AppendChild(b)
	parent.AppendChild(c)

	require.True(t, parent.ReplaceChild(a, c))
	assert.Equal(t, "ba", parent.TextContent())
}

func TestAttributesClassStyleHandlers(t *testing.T) {
	el := NewElement("button")
	el.SetAttribute("type", "submit")
	el.SetClass("btn primary")
	el.SetStyle(map[string]string{"color": "red"})
	el.SetRef("submit")

	v, ok := el.Attribute("type")
	assert.True(t, ok)
	assert.Equal(t, "submit", v)
	assert.True(t, el.HasClass("primary"))
	assert.False(t, el.HasClass("prim"))
	assert.Equal(t, map[string]string{"color": "red"}, el.Style())
	assert.Equal(t, "submit", el.Ref())

	var got Event
	el.SetHandler("click", func(e Event) { got = e })
	assert.True(t, el.Dispatch("click", 42))
	assert.Equal(t, "click", got.Type)
	assert.Same(t, el, got.Target)
	assert.Equal(t, 42, got.Data)
	assert.Equal(t, []string{"click"}, el.Events())

	el.RemoveHandler("click")
	assert.False(t, el.Dispatch("click", nil))
	el.RemoveAttribute("type")
	_, ok = el.Attribute("type")
	assert.False(t, ok)
}

func TestDocumentQuery(t *testing.T) {
	doc := NewDocument()
	app := NewElement("div")
	app.SetAttribute("id", "app")
	app.SetClass("shell")
	doc.Body().AppendChild(app)
	nav := NewElement("nav")
	app.AppendChild(nav)

	assert.Same(t, app, doc.Query("#app"))
	assert.Same(t, app, doc.Query(".shell"))
	assert.Same(t, nav, doc.Query("nav"))
	assert.Same(t, doc.Body(), doc.Query("body"))
	assert.Nil(t, doc.Query("#missing"))
	assert.Nil(t, doc.Query(""))
}

func TestEqual(t *testing.T) {
	build := func(text string) *Element {
		el := NewElement("p")
		el.SetClass("x")
		el.SetHandler("click", func(Event) {})
		el.AppendChild(NewText(text))
		return el
	}
	assert.True(t, Equal(build("hi"), build("hi")))
	assert.False(t, Equal(build("hi"), build("ho")))
	assert.False(t, Equal(build("hi"), NewText("hi")))

	other := build("hi")
	other.RemoveHandler("click")
	assert.False(t, Equal(build("hi"), other))
	assert.True(t, Equal(nil, nil))
}

func TestHTML(t *testing.T) {
	el := NewElement("div")
	el.SetClass("card")
	el.SetAttribute("data-id", "7")
	el.SetStyle(map[string]string{"margin": "0", "color": "blue"})
	el.AppendChild(NewText("a < b"))

	assert.Equal(t, `<div class="card" style="color: blue; margin: 0" data-id="7">a &lt; b</div>`, HTML(el))
}

func TestFindAllAndWalk(t *testing.T) {
	root := NewElement("ul")
	for range 3 {
		li := NewElement("li")
		li.AppendChild(NewText("x"))
		root.AppendChild(li)
	}
	assert.Len(t, root.FindAll(func(e *Element) bool { return e.Tag == "li" }), 3)

	count := 0
	Walk(root, func(n Node) bool {
		count++
		return n == Node(root)
	})
	assert.Equal(t, 4, count)
}
