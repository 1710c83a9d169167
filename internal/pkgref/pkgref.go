// Package pkgref defines the canonical cross-repository identity of a
// package, per spec.md §3/§4.3.
package pkgref

import "fmt"

// Source is the repository a package is drawn from.
type Source string

const (
	CRAN   Source = "cran"
	Bioc   Source = "bioc"
	GitHub Source = "github"
)

// Ref is a tagged identity: {source, name, locator}. locator is the
// Bioconductor release string for Bioc refs, or "owner/repo[@ref]" for
// GitHub refs; it is empty for CRAN. Two Refs are equal iff all three
// fields are equal.
type Ref struct {
	Source  Source
	Name    string
	Locator string
}

// New constructs a Ref. Prefer this over a bare struct literal at call
// sites that branch on Source, to keep locator semantics centralized.
func New(source Source, name, locator string) Ref {
	return Ref{Source: source, Name: name, Locator: locator}
}

// Equal reports whether r and o name the same package identity.
func (r Ref) Equal(o Ref) bool {
	return r.Source == o.Source && r.Name == o.Name && r.Locator == o.Locator
}

// Less provides a total order for deterministic iteration (e.g. the
// resolver's lexicographic tie-break).
func (r Ref) Less(o Ref) bool {
	if r.Name != o.Name {
		return r.Name < o.Name
	}
	if r.Source != o.Source {
		return r.Source < o.Source
	}
	return r.Locator < o.Locator
}

// String renders a human-readable identity, e.g. "dplyr (cran)" or
// "DESeq2 (bioc@3.19)".
func (r Ref) String() string {
	switch r.Source {
	case Bioc:
		if r.Locator != "" {
			return fmt.Sprintf("%s (bioc@%s)", r.Name, r.Locator)
		}
		return fmt.Sprintf("%s (bioc)", r.Name)
	case GitHub:
		return fmt.Sprintf("%s (github:%s)", r.Name, r.Locator)
	default:
		return fmt.Sprintf("%s (cran)", r.Name)
	}
}
