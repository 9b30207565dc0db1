// Package module mounts self-contained HTTP handlers under single-segment
// path prefixes, each with its own middleware chain.
package module

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/JaimeStill/estimator/pkg/middleware"
)

// Module serves everything below its prefix. The prefix is stripped before
// the request reaches the inner handler, so "/api/chat" arrives as "/chat".
type Module struct {
	prefix string
	inner  http.Handler
	chain  middleware.Chain

	once    sync.Once
	handler http.Handler
}

// New panics unless prefix is a single segment such as "/api".
func New(prefix string, inner http.Handler) *Module {
	if err := validatePrefix(prefix); err != nil {
		panic(err)
	}
	return &Module{prefix: prefix, inner: inner}
}

func (m *Module) Prefix() string {
	return m.prefix
}

// Use appends middleware. Calls after the first request are ignored since
// the wrapped handler is built once.
func (m *Module) Use(mw middleware.Func) {
	m.chain.Use(mw)
}

// Handler returns the inner handler wrapped in the module's middleware.
func (m *Module) Handler() http.Handler {
	m.once.Do(func() {
		m.handler = m.chain.Then(m.inner)
	})
	return m.handler
}

func (m *Module) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	rest, ok := strings.CutPrefix(req.URL.Path, m.prefix)
	if !ok || (rest != "" && rest[0] != '/') {
		http.NotFound(w, req)
		return
	}
	if rest == "" {
		rest = "/"
	}
	m.Handler().ServeHTTP(w, withPath(req, rest))
}

func withPath(req *http.Request, path string) *http.Request {
	u := *req.URL
	u.Path = path
	u.RawPath = ""

	out := req.Clone(req.Context())
	out.URL = &u
	return out
}

func validatePrefix(prefix string) error {
	switch {
	case prefix == "":
		return fmt.Errorf("module prefix cannot be empty")
	case prefix[0] != '/':
		return fmt.Errorf("module prefix must start with /: %s", prefix)
	case len(prefix) == 1 || strings.Contains(prefix[1:], "/"):
		return fmt.Errorf("module prefix must be a single path segment: %s", prefix)
	case prefix != (&url.URL{Path: prefix}).EscapedPath():
		return fmt.Errorf("module prefix must not need escaping: %s", prefix)
	}
	return nil
}
