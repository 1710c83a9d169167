package resolver

import (
	"github.com/rdep/resolver/internal/constraint"
	"github.com/rdep/resolver/internal/metadata"
	"github.com/rdep/resolver/internal/pkgref"
)

// node is the resolver's working record for one package name: its fixed
// identity, the constraint accumulated from every depender seen so far,
// and (once fetched) the candidate list in try order. selected is nil
// until the search commits to a version for this name.
type node struct {
	ref        pkgref.Ref
	constraint constraint.Constraint
	fromRoot   bool

	candidates []metadata.Candidate
	tried      int

	selected *metadata.Candidate

	blame []Blame
}

func (n *node) clone() *node {
	c := *n
	c.blame = append([]Blame(nil), n.blame...)
	// candidates is never mutated in place once fetched, safe to share.
	return &c
}

// state is the full partial assignment at one point in the search: every
// name discovered so far, selected or still open. It is cloned wholesale
// at each choice point so that backtracking is a pointer swap rather than
// an incremental undo.
type state struct {
	nodes map[string]*node
}

func newState() *state {
	return &state{nodes: make(map[string]*node)}
}

func (s *state) clone() *state {
	ns := newState()
	for name, n := range s.nodes {
		ns.nodes[name] = n.clone()
	}
	return ns
}

// openNames returns the names with no selected candidate yet.
func (s *state) openNames() []string {
	var out []string
	for name, n := range s.nodes {
		if n.selected == nil {
			out = append(out, name)
		}
	}
	return out
}

