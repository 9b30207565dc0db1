// Package routes declares a domain's HTTP surface as nested groups that are
// flattened onto a ServeMux.
package routes

import (
	"net/http"
	"slices"
)

// Group shares a path prefix across its routes and child groups. Child
// prefixes are appended to the parent's; an empty prefix only nests.
type Group struct {
	Prefix   string
	Routes   []Route
	Children []Group
}

// Walk calls fn with the full mux pattern of every route in the group.
func (g Group) Walk(fn func(pattern string, route Route)) {
	g.walk("", fn)
}

func (g Group) walk(parent string, fn func(string, Route)) {
	prefix := parent + g.Prefix
	for _, r := range g.Routes {
		fn(r.pattern(prefix), r)
	}
	for _, child := range g.Children {
		child.walk(prefix, fn)
	}
}

// Register adds every route in groups to mux. ServeMux panics on conflicting
// patterns, which surfaces overlapping groups at startup.
func Register(mux *http.ServeMux, groups ...Group) {
	for _, g := range groups {
		g.Walk(func(pattern string, r Route) {
			mux.HandleFunc(pattern, r.Handler)
		})
	}
}

// Patterns lists the sorted mux patterns groups would register.
func Patterns(groups ...Group) []string {
	var out []string
	for _, g := range groups {
		g.Walk(func(pattern string, _ Route) {
			out = append(out, pattern)
		})
	}
	slices.Sort(out)
	return out
}
