// Package core provides the node descriptors and component contracts of the
// vio runtime.
//
// This package defines the foundational data shapes for building views as
// pure functions of state: Node, Tag, Definition and Context. Nodes describe
// what the view should look like; the render package resolves them into a
// live surface and keeps it up to date.
//
// # Nodes
//
// A Node carries a Tag, a Props map, an ordered Children slice and an
// optional Key. Children may be *Node values, strings, numbers, booleans or
// nil; booleans, nil and the empty string render as nothing.
//
//	view := core.H("div", core.Props{"class": "card"},
//	    core.H("h1", nil, "Hello"),
//	    count,
//	)
//
// # Tags
//
// A Tag is either a literal element name or a reference to a component
// Definition:
//
//	core.Literal("button")
//	core.ComponentRef(counter)
//
// Code that inspects a tag switches on Tag.Kind rather than on dynamic types.
//
// # Components
//
// Definitions are created once with Define and shared by pointer:
//
//	counter := core.Define(core.Definition{
//	    Name:  "Counter",
//	    State: core.State{"count": 0},
//	    Render: func(s core.State) *core.Node {
//	        return core.H("span", nil, s["count"])
//	    },
//	})
//
// Lifecycle hooks receive a Context bound to the instance. OnMount may return
// a cleanup function that runs when the instance is unmounted.
//
// The Key field is accepted on nodes but child reconciliation is positional.
package core
