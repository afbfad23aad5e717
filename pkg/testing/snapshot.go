package testing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-drift/vio/pkg/surface"
	"github.com/go-drift/vio/pkg/vio"
)

// UpdateEnv is the environment variable that makes MatchesFile rewrite
// golden files instead of comparing against them.
const UpdateEnv = "VIO_UPDATE_SNAPSHOTS"

// TestingT is the subset of *testing.T used by MatchesFile, allowing
// test doubles to intercept failures.
type TestingT interface {
	Helper()
	Fatalf(format string, args ...any)
	Errorf(format string, args ...any)
	Name() string
}

// Snapshot captures the surface under the mount point together with the
// app's component tree and store.
type Snapshot struct {
	Surface    *SurfaceNode   `json:"surface"`
	Components *vio.TreeNode  `json:"components,omitempty"`
	Store      map[string]any `json:"store,omitempty"`
}

// SurfaceNode represents a node in the serialized surface.
type SurfaceNode struct {
	ID       string            `json:"id,omitempty"`
	Tag      string            `json:"tag,omitempty"`
	Text     *string           `json:"text,omitempty"`
	Class    string            `json:"class,omitempty"`
	Style    map[string]string `json:"style,omitempty"`
	Attrs    map[string]string `json:"attrs,omitempty"`
	Ref      string            `json:"ref,omitempty"`
	Events   []string          `json:"events,omitempty"`
	Children []*SurfaceNode    `json:"children,omitempty"`
}

// CaptureSnapshot captures the current surface, component tree and store.
func (t *AppTester) CaptureSnapshot() *Snapshot {
	tree := t.app.ComponentTree()
	snap := &Snapshot{
		Surface:    CaptureSurface(t.root),
		Components: &tree,
	}
	if store := t.app.GetStore(); len(store) > 0 {
		snap.Store = store
	}
	return snap
}

// CaptureSurface serializes the subtree under n. Elements get stable ids
// like "div#0", "div#1" in pre-order.
func CaptureSurface(n surface.Node) *SurfaceNode {
	return captureNode(n, &tagCounter{})
}

// MatchesFile compares this snapshot against a golden file. On mismatch it
// reports a diff and instructions for updating. When VIO_UPDATE_SNAPSHOTS=1
// is set, the file is silently updated instead.
func (s *Snapshot) MatchesFile(t TestingT, path string) {
	t.Helper()

	if os.Getenv(UpdateEnv) == "1" {
		if err := s.UpdateFile(path); err != nil {
			t.Fatalf("failed to update snapshot: %v", err)
		}
		return
	}

	expected, err := loadSnapshot(path)
	if err != nil {
		if os.IsNotExist(err) {
			t.Fatalf("snapshot file missing: %s\n\nTo create: %s=1 go test -run %s", path, UpdateEnv, t.Name())
			return
		}
		t.Fatalf("failed to load snapshot: %v", err)
		return
	}

	if diff := s.Diff(expected); diff != "" {
		t.Errorf("snapshot mismatch: %s\n%s\n\nTo update: %s=1 go test -run %s", path, diff, UpdateEnv, t.Name())
	}
}

// UpdateFile writes this snapshot to the given path, creating directories
// as needed.
func (s *Snapshot) UpdateFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := marshalSnapshot(s)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Diff returns a line diff between this snapshot and other. Returns
// empty string if equal.
func (s *Snapshot) Diff(other *Snapshot) string {
	a, _ := marshalSnapshot(s)
	b, _ := marshalSnapshot(other)
	if bytes.Equal(a, b) {
		return ""
	}
	return unifiedDiff(string(b), string(a))
}

// --- Internal ---

// tagCounter assigns stable IDs like "div#0", "div#1".
type tagCounter struct {
	counts map[string]int
}

func (c *tagCounter) next(tag string) string {
	if c.counts == nil {
		c.counts = make(map[string]int)
	}
	n := c.counts[tag]
	c.counts[tag] = n + 1
	return fmt.Sprintf("%s#%d", tag, n)
}

func captureNode(n surface.Node, counter *tagCounter) *SurfaceNode {
	switch v := n.(type) {
	case *surface.Text:
		text := v.Data
		return &SurfaceNode{Text: &text}
	case *surface.Element:
		node := &SurfaceNode{
			ID:    counter.next(v.Tag),
			Tag:   v.Tag,
			Class: v.Class(),
			Style: v.Style(),
			Attrs: v.Attributes(),
			Ref:   v.Ref(),
		}
		if len(node.Attrs) == 0 {
			node.Attrs = nil
		}
		if events := v.Events(); len(events) > 0 {
			node.Events = events
		}
		for _, child := range v.Children() {
			node.Children = append(node.Children, captureNode(child, counter))
		}
		return node
	}
	return nil
}

func loadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("invalid snapshot JSON: %w", err)
	}
	return &snap, nil
}

func marshalSnapshot(s *Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// unifiedDiff produces a simple line-oriented diff.
func unifiedDiff(expected, actual string) string {
	expectedLines := strings.Split(expected, "\n")
	actualLines := strings.Split(actual, "\n")

	var buf strings.Builder
	buf.WriteString("--- expected\n+++ actual\n")

	for i := range max(len(expectedLines), len(actualLines)) {
		var e, a string
		if i < len(expectedLines) {
			e = expectedLines[i]
		}
		if i < len(actualLines) {
			a = actualLines[i]
		}
		if e != a {
			if i < len(expectedLines) {
				fmt.Fprintf(&buf, "-%s\n", e)
			}
			if i < len(actualLines) {
				fmt.Fprintf(&buf, "+%s\n", a)
			}
		}
	}

	return buf.String()
}
