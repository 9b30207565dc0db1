// Package middleware holds the HTTP middleware applied to the estimator API:
// panic recovery, CORS and request logging.
package middleware

import "net/http"

// Func wraps a handler with cross-cutting behavior.
type Func func(http.Handler) http.Handler

// Chain is an ordered middleware stack. The first middleware added is the
// outermost at request time.
type Chain struct {
	stack []Func
}

func (c *Chain) Use(mw Func) {
	c.stack = append(c.stack, mw)
}

// Len reports the number of middleware in the chain.
func (c *Chain) Len() int {
	return len(c.stack)
}

func (c *Chain) Then(h http.Handler) http.Handler {
	for i := len(c.stack) - 1; i >= 0; i-- {
		h = c.stack[i](h)
	}
	return h
}
