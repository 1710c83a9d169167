package resolver

import (
	"bytes"
	"fmt"

	"github.com/rdep/resolver/internal/constraint"
	"github.com/rdep/resolver/internal/metadata"
	"github.com/rdep/resolver/internal/pkgref"
	"github.com/rdep/resolver/internal/version"
)

// Blame records one link in the chain of dependers that contributed a
// constraint to a name during search, for use in ConflictReport/
// VersionConflictError (spec.md §7).
type Blame struct {
	// Parent is the depending package's name, or "" if the constraint came
	// directly from a root Requirement.
	Parent string
	Kind   metadata.EdgeKind
	C      constraint.Constraint
}

func (b Blame) String() string {
	if b.Parent == "" {
		return fmt.Sprintf("root requirement %s", b.C)
	}
	return fmt.Sprintf("%s (%s) requires %s", b.Parent, b.Kind, b.C)
}

// SourceConflictError reports that two root Requirements pinned the same
// package name to different PackageRefs (spec.md §7). Transitive edges
// never raise it: an edge reaching an already-known name reuses that
// name's existing ref.
type SourceConflictError struct {
	Name string
	A, B pkgref.Ref
}

func (e *SourceConflictError) Error() string {
	return fmt.Sprintf("package %q is required from both %s and %s", e.Name, e.A, e.B)
}

// VersionConflictError reports that no candidate satisfied the
// accumulated constraint for a name; it carries the full blaming chain
// (spec.md §7).
type VersionConflictError struct {
	Name       string
	Constraint constraint.Constraint
	Chain      []Blame
}

func (e *VersionConflictError) Error() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "no version of %q satisfies %s:", e.Name, e.Constraint)
	for _, b := range e.Chain {
		fmt.Fprintf(&buf, "\n\t%s", b)
	}
	return buf.String()
}

// RLockUnsatisfiableError reports that lock_r forbids a required r_floor
// (spec.md §7).
type RLockUnsatisfiableError struct {
	Name   string
	RFloor version.Version
	LockR  version.Version
}

func (e *RLockUnsatisfiableError) Error() string {
	return fmt.Sprintf("package %q requires R >= %s, which exceeds the locked R version %s", e.Name, e.RFloor, e.LockR)
}

// CancelledError reports that the cooperative cancellation check fired
// before the search completed (spec.md §7).
type CancelledError struct{}

func (e *CancelledError) Error() string {
	return "resolve cancelled"
}
