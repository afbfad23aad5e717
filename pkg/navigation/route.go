package navigation

import (
	"net/url"
	"strings"

	"github.com/go-drift/vio/pkg/core"
)

// WildcardPath is the route pattern that matches every pathname.
const WildcardPath = "*"

// Route defines one entry of the route table.
//
// Path patterns support:
//   - Static segments: "/products", "/users/list"
//   - Parameters: "/products/:id", "/users/:userId/posts/:postId"
//   - The single wildcard "*", matching any pathname
type Route struct {
	// Path is the pattern matched against the pathname.
	Path string
	// Component is mounted when the route is navigated to.
	Component *core.Definition
	// Guard vetoes the route when it returns false. It receives a snapshot
	// of the store state and only runs when a store getter is wired.
	Guard func(state map[string]any) bool
}

// Match is the result of resolving a path.
type Match struct {
	// Component is the matched route's component.
	Component *core.Definition
	// Params contains path parameters; "/users/:id" matching "/users/42"
	// yields {"id": "42"}. Values are the raw path segments.
	Params map[string]string
	// Path is the pathname without the query string.
	Path string
	// Query contains query string parameters. Values are percent-decoded;
	// the last occurrence of a key wins.
	Query map[string]string
}

// Param returns a path parameter value or empty string if not found.
func (m *Match) Param(key string) string {
	if m == nil || m.Params == nil {
		return ""
	}
	return m.Params[key]
}

// QueryValue returns a query parameter value or empty string if not found.
func (m *Match) QueryValue(key string) string {
	if m == nil || m.Query == nil {
		return ""
	}
	return m.Query[key]
}

// SplitPath separates a path into its pathname and raw query string.
func SplitPath(path string) (pathname, rawQuery string) {
	pathname, rawQuery, _ = strings.Cut(path, "?")
	return pathname, rawQuery
}

// ParseQuery parses "a=1&b=2" into a map. Keys without a value map to the
// empty string and empty keys are skipped.
func ParseQuery(rawQuery string) map[string]string {
	query := make(map[string]string)
	if rawQuery == "" {
		return query
	}
	for _, pair := range strings.Split(rawQuery, "&") {
		key, val, _ := strings.Cut(pair, "=")
		if key == "" {
			continue
		}
		query[decode(key)] = decode(val)
	}
	return query
}

// MatchPath matches pathname against a pattern and returns the bound
// parameters, or nil when it does not match. Empty segments are ignored on
// both sides, so "/a//b/" matches "/a/b".
func MatchPath(pattern, pathname string) map[string]string {
	return matchSegments(segments(pattern), segments(pathname))
}

func matchSegments(patternParts, pathParts []string) map[string]string {
	if len(patternParts) != len(pathParts) {
		return nil
	}

	params := make(map[string]string)
	for i, pat := range patternParts {
		val := pathParts[i]
		if name, ok := strings.CutPrefix(pat, ":"); ok {
			params[name] = val
		} else if pat != val {
			return nil
		}
	}
	return params
}

func segments(path string) []string {
	parts := strings.Split(path, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// decode percent-decodes s, returning it unchanged when it is malformed.
func decode(s string) string {
	if v, err := url.PathUnescape(s); err == nil {
		return v
	}
	return s
}
