package testing

import (
	"errors"
	"fmt"
	"testing"

	"github.com/benbjohnson/clock"

	"github.com/go-drift/vio/pkg/render"
	"github.com/go-drift/vio/pkg/surface"
	"github.com/go-drift/vio/pkg/vio"
)

// RootID is the id of the mount point every tester creates.
const RootID = "app"

// ErrNoHandler is returned when an event is dispatched to an element that
// does not handle it.
var ErrNoHandler = errors.New("element has no handler for event")

// AppTester runs a vio app against a fresh in-memory document.
type AppTester struct {
	doc   *surface.Document
	root  *surface.Element
	clock *clock.Mock
	app   *vio.App
}

// NewAppTester creates a tester. The document gets a <div id="app"> mount
// point; cfg.Root is overridden to select it. cfg.Clock is replaced by a
// mock clock unless it already is one, and a nil cfg.Counter by a fresh
// counter. Call Cleanup when done, or use NewAppTesterWithT instead.
func NewAppTester(cfg vio.Config) (*AppTester, error) {
	doc := surface.NewDocument()
	root := surface.NewElement("div")
	root.SetAttribute("id", RootID)
	doc.Body().AppendChild(root)

	clk, ok := cfg.Clock.(*clock.Mock)
	if !ok || clk == nil {
		clk = NewClock()
	}
	cfg.Clock = clk
	cfg.Root = "#" + RootID
	if cfg.Counter == nil {
		cfg.Counter = render.NewCounter()
	}

	app, err := vio.New(doc, cfg)
	if err != nil {
		return nil, err
	}
	return &AppTester{doc: doc, root: root, clock: clk, app: app}, nil
}

// NewAppTesterWithT creates a tester that is cleaned up via t.Cleanup().
// This is the recommended constructor for tests.
func NewAppTesterWithT(t testing.TB, cfg vio.Config) *AppTester {
	t.Helper()
	tester, err := NewAppTester(cfg)
	if err != nil {
		t.Fatalf("NewAppTester: %v", err)
	}
	t.Cleanup(tester.Cleanup)
	return tester
}

// Cleanup closes the app.
func (t *AppTester) Cleanup() {
	_ = t.app.Close()
}

// App returns the app under test.
func (t *AppTester) App() *vio.App { return t.app }

// Clock returns the mock clock that timestamps events.
func (t *AppTester) Clock() *clock.Mock { return t.clock }

// Document returns the tester's document.
func (t *AppTester) Document() *surface.Document { return t.doc }

// Root returns the mount point.
func (t *AppTester) Root() *surface.Element { return t.root }

// Mount mounts the app's initial view at path.
func (t *AppTester) Mount(path string) error {
	return t.app.Mount(path)
}

// Find evaluates a finder against the mount point's subtree.
func (t *AppTester) Find(finder Finder) FinderResult {
	return FinderResult{
		elements: finder.Evaluate(t.root),
		finder:   finder,
	}
}

// Dispatch delivers event with data to the first element finder matches.
func (t *AppTester) Dispatch(finder Finder, event string, data any) error {
	el := t.Find(finder).FirstOrNil()
	if el == nil {
		return fmt.Errorf("%s found no elements", finder.Description())
	}
	if !el.Dispatch(event, data) {
		return fmt.Errorf("%w: %s on <%s> (%s)", ErrNoHandler, event, el.Tag, finder.Description())
	}
	return nil
}

// Tap dispatches a "click" event to the first match.
func (t *AppTester) Tap(finder Finder) error {
	return t.Dispatch(finder, "click", nil)
}

// Input dispatches an "input" event carrying value to the first match.
func (t *AppTester) Input(finder Finder, value string) error {
	return t.Dispatch(finder, "input", value)
}

// HTML returns the mount point's markup.
func (t *AppTester) HTML() string {
	return surface.HTML(t.root)
}

// Text returns the mount point's text content.
func (t *AppTester) Text() string {
	return t.root.TextContent()
}
