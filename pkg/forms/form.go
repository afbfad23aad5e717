// Package forms holds form state outside the component tree and renders it
// as a node descriptor.
//
// A Form tracks one value per declared field, runs per-field validators and
// calls an optional submit callback once every field validates:
//
//	f := forms.New([]forms.Field{
//	    {Name: "email", Label: "Email", Type: "email", Validator: required},
//	    {Name: "age", Initial: 18, Type: "number"},
//	}, func(values map[string]any) { ... })
//
//	f.SetValue("email", "ada@example.com")
//	ok := f.Submit()
//
// Node returns a "form" element with one "div.form-field" per field, in
// declaration order. A Form is not safe for concurrent use.
package forms

import (
	"maps"

	"github.com/go-drift/vio/pkg/core"
	"github.com/go-drift/vio/pkg/surface"
)

// DefaultInputType is used for fields without an explicit Type.
const DefaultInputType = "text"

// Field declares one form field.
type Field struct {
	// Name keys the field's value and becomes the input's name and id.
	Name string
	// Initial is the value the field starts with and returns to on Reset.
	Initial any
	// Label is rendered in a <label for=Name> when non-empty.
	Label string
	// Type is the input type. Defaults to "text".
	Type string
	// Validator returns an error message or empty string.
	Validator func(value any) string
}

// Form is the state of a set of fields.
type Form struct {
	fields   []Field
	index    map[string]int
	values   map[string]any
	errors   map[string]string
	onSubmit func(values map[string]any)
}

// New creates a form. A later field with the same name replaces an earlier
// one; fields without a name are ignored.
func New(fields []Field, onSubmit func(values map[string]any)) *Form {
	f := &Form{
		index:    make(map[string]int, len(fields)),
		values:   make(map[string]any, len(fields)),
		errors:   make(map[string]string),
		onSubmit: onSubmit,
	}
	for _, field := range fields {
		if field.Name == "" {
			continue
		}
		if i, ok := f.index[field.Name]; ok {
			f.fields[i] = field
		} else {
			f.index[field.Name] = len(f.fields)
			f.fields = append(f.fields, field)
		}
		f.values[field.Name] = field.Initial
	}
	return f
}

// Fields returns the field names in declaration order.
func (f *Form) Fields() []string {
	names := make([]string, len(f.fields))
	for i, field := range f.fields {
		names[i] = field.Name
	}
	return names
}

// Values returns a copy of the current values.
func (f *Form) Values() map[string]any {
	return maps.Clone(f.values)
}

// Value returns a field's current value.
func (f *Form) Value(name string) any {
	return f.values[name]
}

// SetValue sets a declared field. Unknown fields are ignored.
func (f *Form) SetValue(name string, value any) {
	if _, ok := f.index[name]; ok {
		f.values[name] = value
	}
}

// Validate runs every validator and returns the message per field, with
// "" for fields that pass or have no validator. The result is also kept for
// rendering until the next Validate or Reset.
func (f *Form) Validate() map[string]string {
	out := make(map[string]string, len(f.fields))
	for _, field := range f.fields {
		out[field.Name] = f.validate(field)
	}
	f.errors = maps.Clone(out)
	return out
}

// IsValid reports whether every validator passes. It does not change the
// messages rendered by Node.
func (f *Form) IsValid() bool {
	for _, field := range f.fields {
		if f.validate(field) != "" {
			return false
		}
	}
	return true
}

func (f *Form) validate(field Field) string {
	if field.Validator == nil {
		return ""
	}
	return field.Validator(f.values[field.Name])
}

// Reset restores every initial value and clears validation messages.
func (f *Form) Reset() {
	for _, field := range f.fields {
		f.values[field.Name] = field.Initial
	}
	clear(f.errors)
}

// Submit validates the form and, when every field passes, calls the submit
// callback with a copy of the values. It reports whether the form was valid.
func (f *Form) Submit() bool {
	for _, msg := range f.Validate() {
		if msg != "" {
			return false
		}
	}
	if f.onSubmit != nil {
		f.onSubmit(f.Values())
	}
	return true
}

// Node renders the form:
//
//	form
//	  div.form-field
//	    label[for=name]          (when Label is set)
//	    input[type name id value]
//	    span.form-error          (after a failed Validate)
//
// Inputs carry an "onInput" handler that stores string event data as the
// field value, and the form an "onSubmit" handler that calls Submit.
func (f *Form) Node() *core.Node {
	children := make([]any, 0, len(f.fields))
	for _, field := range f.fields {
		children = append(children, f.fieldNode(field))
	}
	return core.H("form", core.Props{
		"onSubmit": func() { f.Submit() },
	}, children...)
}

func (f *Form) fieldNode(field Field) *core.Node {
	name := field.Name
	var children []any
	if field.Label != "" {
		children = append(children, core.H("label", core.Props{"for": name}, field.Label))
	}

	inputType := field.Type
	if inputType == "" {
		inputType = DefaultInputType
	}
	children = append(children, core.H("input", core.Props{
		"type":  inputType,
		"name":  name,
		"id":    name,
		"value": core.Text(f.values[name]),
		"onInput": func(e surface.Event) {
			if s, ok := e.Data.(string); ok {
				f.SetValue(name, s)
			}
		},
	}))

	if msg := f.errors[name]; msg != "" {
		children = append(children, core.H("span", core.Props{"class": "form-error"}, msg))
	}
	return core.H("div", core.Props{"class": "form-field"}, children...)
}
