// Package resolver implements the backtracking constraint solver that
// reconciles a set of root Requirements into a single consistent
// Solution, per spec.md §4.4. The search is iterative: an explicit stack
// of choice-point snapshots stands in for call-stack recursion so that
// deep dependency graphs never risk a stack overflow (spec.md §9).
package resolver

import (
	"log"
	"sort"

	"github.com/rdep/resolver/internal/constraint"
	"github.com/rdep/resolver/internal/metadata"
	"github.com/rdep/resolver/internal/pkgref"
	"github.com/rdep/resolver/internal/version"
)

// Options configures one Solve call (spec.md §4.4 "options").
type Options struct {
	// CurrentR is the R version the caller is presently running, if
	// known. It does not bound the search; it only seeds the
	// downgrade/upgrade comparison in the resulting Solution and reorders
	// each name's candidates so that those whose r_floor does not exceed
	// it are tried before those that would raise the floor past it.
	CurrentR *version.Version

	// LockR, if set, is a hard ceiling: any candidate whose r_floor
	// exceeds it is inadmissible, and a Solve that cannot avoid one
	// fails with RLockUnsatisfiableError.
	LockR *version.Version

	// PreferBiocRelease is the Bioconductor release preferred for
	// requirements that do not pin an explicit release. The resolver only
	// records it in InputHash; it does not pass it to the provider, so the
	// preference takes effect only where the MetadataProvider was built
	// with the same release (as provider.New is).
	PreferBiocRelease string

	IncludeOptional bool

	Trace       bool
	TraceLogger *log.Logger

	// Cancel, if non-nil, is checked between search steps; a closed
	// channel aborts the search with CancelledError.
	Cancel <-chan struct{}
}

func (o Options) tracef(format string, args ...interface{}) {
	if !o.Trace || o.TraceLogger == nil {
		return
	}
	o.TraceLogger.Printf(format, args...)
}

func (o Options) cancelled() bool {
	if o.Cancel == nil {
		return false
	}
	select {
	case <-o.Cancel:
		return true
	default:
		return false
	}
}

// Resolver runs the backtracking search against a single MetadataProvider.
type Resolver struct {
	provider metadata.Provider
	options  Options
}

// New builds a Resolver. Trace requires a non-nil TraceLogger.
func New(provider metadata.Provider, options Options) *Resolver {
	if options.Trace && options.TraceLogger == nil {
		panic("resolver: Trace set without a TraceLogger")
	}
	return &Resolver{provider: provider, options: options}
}

// frame is a choice point: the state as it existed immediately before a
// candidate for name was tried, so that exhausting deeper search can
// restore it and move on to the next candidate.
type frame struct {
	name     string
	snapshot *state
}

// Solve reconciles reqs into a Solution, or returns one of the tagged
// errors from errors.go (or a provider error) describing why it could
// not.
func (r *Resolver) Solve(reqs []metadata.Requirement) (Solution, error) {
	st := newState()

	for _, req := range reqs {
		name := req.Ref.Name
		if existing, ok := st.nodes[name]; ok {
			if !existing.ref.Equal(req.Ref) {
				return Solution{}, &SourceConflictError{Name: name, A: existing.ref, B: req.Ref}
			}
			existing.constraint = constraint.Merge(existing.constraint, req.Constraint)
			existing.blame = append(existing.blame, Blame{C: req.Constraint})
			continue
		}
		st.nodes[name] = &node{
			ref:        req.Ref,
			constraint: req.Constraint,
			fromRoot:   true,
			blame:      []Blame{{C: req.Constraint}},
		}
	}

	var stack []frame
	var lastFailure error

	for {
		if r.options.cancelled() {
			return Solution{}, &CancelledError{}
		}

		name, found, err := r.pickNext(st)
		if err != nil {
			return Solution{}, err
		}
		if !found {
			return r.buildSolution(st), nil
		}

		n := st.nodes[name]
		committed := false
		var nameFailure error // most specific reason this name failed, if any

		for n.tried < len(n.candidates) {
			cand := n.candidates[n.tried]

			if !constraint.Satisfies(n.constraint, cand.Version) {
				n.tried++
				continue
			}
			if reason, blocked := r.lockBlocks(cand); blocked {
				n.tried++
				nameFailure = reason
				continue
			}

			// trial carries the tentative commit; st (and n.tried on it)
			// stays untouched so the pushed snapshot still points at
			// candidate index n.tried, ready to resume one past it on
			// backtrack.
			trial := st.clone()
			trial.nodes[name].tried++
			ok, failure := r.commit(trial, name, cand)
			if !ok {
				n.tried++
				nameFailure = failure
				continue
			}

			r.options.tracef("select %s", cand)
			stack = append(stack, frame{name: name, snapshot: st})
			st = trial
			committed = true
			break
		}

		if committed {
			continue
		}

		if nameFailure != nil {
			lastFailure = nameFailure
		} else {
			lastFailure = &VersionConflictError{Name: name, Constraint: n.constraint, Chain: n.blame}
		}
		r.options.tracef("exhausted %s, backtracking", name)

		ok := false
		for len(stack) > 0 {
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			st = top.snapshot
			tn := st.nodes[top.name]
			tn.tried++
			if tn.tried < len(tn.candidates) {
				ok = true
				break
			}
		}
		if !ok {
			if lastFailure == nil {
				lastFailure = &VersionConflictError{Name: name, Constraint: n.constraint, Chain: n.blame}
			}
			return Solution{}, lastFailure
		}
	}
}

// lockBlocks reports whether Options.LockR forbids cand, and if so
// returns the RLockUnsatisfiableError to surface as the eventual failure
// reason should no other candidate work out either.
func (r *Resolver) lockBlocks(cand metadata.Candidate) (error, bool) {
	if r.options.LockR == nil || !cand.HasRFloor() {
		return nil, false
	}
	if cand.RFloor.Greater(*r.options.LockR) {
		return &RLockUnsatisfiableError{Name: cand.Ref.Name, RFloor: cand.RFloor, LockR: *r.options.LockR}, true
	}
	return nil, false
}

// commit selects cand for name within st and expands its active edges,
// creating or merging nodes for each dependency target. It returns false
// with a reason if expansion finds an immediate contradiction (a
// dependency that is already selected but would no longer satisfy its
// new constraint).
func (r *Resolver) commit(st *state, name string, cand metadata.Candidate) (bool, error) {
	n := st.nodes[name]
	n.selected = &cand

	for _, edge := range cand.Depends {
		if !edge.Kind.Active(r.options.IncludeOptional) {
			continue
		}

		blame := Blame{Parent: name, Kind: edge.Kind, C: edge.Constraint}

		tn, exists := st.nodes[edge.Name]
		if !exists {
			st.nodes[edge.Name] = &node{
				ref:        resolveEdgeSource(cand, edge.Name),
				constraint: edge.Constraint,
				blame:      []Blame{blame},
			}
			continue
		}

		tn.constraint = constraint.Merge(tn.constraint, edge.Constraint)
		tn.blame = append(tn.blame, blame)

		if tn.selected != nil && !constraint.Satisfies(edge.Constraint, tn.selected.Version) {
			return false, &VersionConflictError{Name: edge.Name, Constraint: tn.constraint, Chain: tn.blame}
		}
	}

	return true, nil
}

// resolveEdgeSource decides which repository an undiscovered dependency
// edge should be looked up against: the parent's source when the parent
// is a Bioconductor candidate (carrying its release forward), CRAN
// otherwise. GitHub refs are never synthesized for an edge; they only
// enter via an explicit root Requirement.
func resolveEdgeSource(parent metadata.Candidate, targetName string) pkgref.Ref {
	if parent.Ref.Source == pkgref.Bioc {
		release := parent.BiocRelease
		if release == "" {
			release = parent.Ref.Locator
		}
		return pkgref.New(pkgref.Bioc, targetName, release)
	}
	return pkgref.New(pkgref.CRAN, targetName, "")
}

// pickNext selects the next open name to search, per the
// most-constrained-variable ordering: root requirements before
// transitively discovered names, fewer remaining candidates first,
// lexicographic name as a final tie-break. It returns found=false once
// every known name has a selection.
func (r *Resolver) pickNext(st *state) (string, bool, error) {
	names := st.openNames()
	if len(names) == 0 {
		return "", false, nil
	}

	for _, name := range names {
		n := st.nodes[name]
		if n.candidates != nil {
			continue
		}
		cands, err := r.provider.Candidates(n.ref)
		if err != nil {
			return "", false, err
		}
		if n.fromRoot && len(cands) == 0 {
			return "", false, &metadata.UnknownPackageError{Ref: n.ref}
		}
		n.candidates = reorderForCurrentR(cands, r.options.CurrentR)
	}

	sort.Slice(names, func(i, j int) bool {
		return lessOpen(st, names[i], names[j])
	})
	return names[0], true, nil
}

func lessOpen(st *state, a, b string) bool {
	na, nb := st.nodes[a], st.nodes[b]
	if na.fromRoot != nb.fromRoot {
		return na.fromRoot
	}
	if len(na.candidates) != len(nb.candidates) {
		return len(na.candidates) < len(nb.candidates)
	}
	return a < b
}

// reorderForCurrentR stably partitions cands so that, when a baseline R
// version is known, candidates whose r_floor does not exceed it are
// tried before ones that would raise it. Preference order within each
// partition is unchanged, so it still falls back to raising the floor
// when nothing else satisfies the accumulated constraint.
func reorderForCurrentR(cands []metadata.Candidate, currentR *version.Version) []metadata.Candidate {
	if currentR == nil {
		return cands
	}
	within := make([]metadata.Candidate, 0, len(cands))
	above := make([]metadata.Candidate, 0, len(cands))
	for _, c := range cands {
		if c.HasRFloor() && c.RFloor.Greater(*currentR) {
			above = append(above, c)
		} else {
			within = append(within, c)
		}
	}
	return append(within, above...)
}
