package workflow

import (
	"context"
	"fmt"
)

// Guard is the outcome label a node reports to select its outgoing edge.
type Guard string

type edge[N comparable] struct {
	from  N
	guard Guard
}

// Table is an explicit transition table (node, guard) -> next node.
type Table[N comparable] struct {
	name  string
	edges map[edge[N]]N
}

// NewTable creates an empty transition table.
func NewTable[N comparable](name string) *Table[N] {
	return &Table[N]{name: name, edges: make(map[edge[N]]N)}
}

// On registers an edge and returns the table for chaining.
func (t *Table[N]) On(from N, guard Guard, to N) *Table[N] {
	t.edges[edge[N]{from, guard}] = to
	return t
}

// Next returns the successor of from under guard.
func (t *Table[N]) Next(from N, guard Guard) (N, error) {
	to, ok := t.edges[edge[N]{from, guard}]
	if !ok {
		var zero N
		return zero, fmt.Errorf("%w: %s %v on %q", ErrNoTransition, t.name, from, guard)
	}
	return to, nil
}

type step func(ctx context.Context, st *State) (Guard, error)

// machine executes a subgraph: it runs the step bound to the current node,
// follows the table, and stops after running a terminal node.
type machine[N comparable] struct {
	table    *Table[N]
	steps    map[N]step
	terminal map[N]bool
	limit    int
}

func (m *machine[N]) run(ctx context.Context, st *State, start N) (N, error) {
	node := start
	for i := 0; i < m.limit; i++ {
		fn, ok := m.steps[node]
		if !ok {
			return node, fmt.Errorf("%w: %s has no step for %v", ErrNoTransition, m.table.name, node)
		}

		guard, err := fn(ctx, st)
		if err != nil {
			return node, err
		}
		if m.terminal[node] {
			return node, nil
		}

		next, err := m.table.Next(node, guard)
		if err != nil {
			return node, err
		}
		node = next
	}
	return node, fmt.Errorf("%w: %s after %d steps", ErrStepLimit, m.table.name, m.limit)
}

func terminals[N comparable](nodes ...N) map[N]bool {
	m := make(map[N]bool, len(nodes))
	for _, n := range nodes {
		m[n] = true
	}
	return m
}
