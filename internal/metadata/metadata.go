// Package metadata defines the unified package-metadata model — Candidate,
// Edge, Requirement, and the MetadataProvider oracle — that normalizes the
// three source-repository shapes described in spec.md §3/§4.3.
package metadata

import (
	"fmt"

	"github.com/rdep/resolver/internal/constraint"
	"github.com/rdep/resolver/internal/pkgref"
	"github.com/rdep/resolver/internal/version"
)

// EdgeKind is the declared relationship of a dependency Edge to its
// source Candidate.
type EdgeKind string

const (
	Depends   EdgeKind = "depends"
	Imports   EdgeKind = "imports"
	LinkingTo EdgeKind = "linking_to"
	Suggests  EdgeKind = "suggests"
)

// Active reports whether the edge kind participates in resolution by
// default. Suggests only participates when the manifest opts in (spec.md
// §3).
func (k EdgeKind) Active(includeSuggests bool) bool {
	if k == Suggests {
		return includeSuggests
	}
	return true
}

// Edge is a declared dependency from one Candidate on another package by
// name, with a Constraint restricting acceptable versions.
type Edge struct {
	Name       string
	Constraint constraint.Constraint
	Kind       EdgeKind
}

// Candidate is a concrete version of a package with its declared
// dependency edges and R floor, per spec.md §3.
type Candidate struct {
	Ref         pkgref.Ref
	Version     version.Version
	RFloor      version.Version // zero value means "no floor declared"
	Depends     []Edge
	BiocRelease string // only meaningful when Ref.Source == pkgref.Bioc
}

// HasRFloor reports whether the candidate declares a minimum R version.
func (c Candidate) HasRFloor() bool {
	return !c.RFloor.Zero()
}

func (c Candidate) String() string {
	return fmt.Sprintf("%s@%s", c.Ref, c.Version)
}

// Requirement is a root requirement produced from a manifest target
// (spec.md §3).
type Requirement struct {
	Ref        pkgref.Ref
	Constraint constraint.Constraint
	Optional   bool
}

// UnknownPackageError reports that a MetadataProvider returned no
// Candidates for a ref that was explicitly requested (spec.md §7).
type UnknownPackageError struct {
	Ref pkgref.Ref
}

func (e *UnknownPackageError) Error() string {
	return fmt.Sprintf("unknown package %s", e.Ref)
}

// MetadataUnavailableError reports that a source was unreachable and no
// cached data existed to fall back on (spec.md §7).
type MetadataUnavailableError struct {
	Ref   pkgref.Ref
	Cause error
}

func (e *MetadataUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("metadata unavailable for %s: %s", e.Ref, e.Cause)
	}
	return fmt.Sprintf("metadata unavailable for %s", e.Ref)
}

func (e *MetadataUnavailableError) Unwrap() error {
	return e.Cause
}

// Provider is the single oracle the Resolver consumes: given a PackageRef,
// yield the ordered list of Candidates for it, newest/highest-preference
// first (spec.md §4.3). Implementations live in internal/provider; this
// interface only describes the contract the core depends on.
type Provider interface {
	// Candidates returns the candidate list for ref in descending
	// preference order. An empty, nil-error result means "no such
	// package." MetadataUnavailableError indicates the source could not
	// be reached and no cached fallback existed.
	Candidates(ref pkgref.Ref) ([]Candidate, error)
}
