package resolver

import (
	"sort"

	"github.com/mitchellh/hashstructure/v2"

	"github.com/rdep/resolver/internal/metadata"
	"github.com/rdep/resolver/internal/pkgref"
	"github.com/rdep/resolver/internal/version"
)

// DowngradeEntry is one line of the R-version change report produced
// alongside a Solution, per spec.md §4.5's `downgrades` field — despite
// the name, it carries both directions: a raised floor forced by a
// specific package (Name set, To > From) and a lowered one because
// nothing in the assignment needed the caller's current R (Name empty,
// To < From).
type DowngradeEntry struct {
	Name   string
	From   version.Version
	To     version.Version
	Reason string
}

// SourceSummary tallies the selected assignment by source repository.
type SourceSummary struct {
	CRAN, Bioc, GitHub int
}

// Solution is the immutable result of a successful Solve: one Candidate
// per requested name, the R version the set requires, and the analysis
// of how that R version relates to the caller's baseline (spec.md §4.5).
type Solution struct {
	Assignment    map[string]metadata.Candidate
	RVersion      version.Version
	Downgrades    []DowngradeEntry
	SourceSummary SourceSummary
}

func (r *Resolver) buildSolution(st *state) Solution {
	assignment := make(map[string]metadata.Candidate, len(st.nodes))
	var rVersion version.Version
	var sources SourceSummary

	for name, n := range st.nodes {
		cand := *n.selected
		assignment[name] = cand
		if cand.HasRFloor() {
			rVersion = version.Max(rVersion, cand.RFloor)
		}
		switch cand.Ref.Source {
		case pkgref.CRAN:
			sources.CRAN++
		case pkgref.Bioc:
			sources.Bioc++
		case pkgref.GitHub:
			sources.GitHub++
		}
	}

	if r.options.LockR != nil {
		rVersion = *r.options.LockR
	}

	sol := Solution{Assignment: assignment, RVersion: rVersion, SourceSummary: sources}

	if r.options.CurrentR != nil {
		currentR := *r.options.CurrentR
		switch version.Compare(rVersion, currentR) {
		case version.Less:
			sol.Downgrades = append(sol.Downgrades, DowngradeEntry{
				From:   currentR,
				To:     rVersion,
				Reason: "no selected package requires R above the resolved version",
			})
		case version.Greater:
			var names []string
			for name, cand := range assignment {
				if cand.HasRFloor() && cand.RFloor.Greater(currentR) {
					names = append(names, name)
				}
			}
			sort.Strings(names)
			for _, name := range names {
				sol.Downgrades = append(sol.Downgrades, DowngradeEntry{
					Name:   name,
					From:   currentR,
					To:     assignment[name].RFloor,
					Reason: "r_floor exceeds the current R version",
				})
			}
		}
	}

	return sol
}

// hashInputs is the canonical, exported-only projection of a Solve call's
// inputs that InputHash digests. Building it explicitly avoids relying on
// hashstructure's reflection over the unexported fields of version.Version
// and constraint.Constraint.
type hashInputs struct {
	Requirements []string
	CurrentR     string
	LockR        string
	PreferBioc   string
	IncludeOpt   bool
}

// InputHash computes a stable digest over reqs and opts, suitable for
// memoizing a Solve call the way a lockfile records the inputs that
// produced it.
func InputHash(reqs []metadata.Requirement, opts Options) (uint64, error) {
	in := hashInputs{
		PreferBioc: opts.PreferBiocRelease,
		IncludeOpt: opts.IncludeOptional,
	}
	if opts.CurrentR != nil {
		in.CurrentR = opts.CurrentR.String()
	}
	if opts.LockR != nil {
		in.LockR = opts.LockR.String()
	}

	reqStrs := make([]string, len(reqs))
	for i, req := range reqs {
		reqStrs[i] = req.Ref.String() + " " + req.Constraint.String()
	}
	sort.Strings(reqStrs)
	in.Requirements = reqStrs

	return hashstructure.Hash(in, hashstructure.FormatV2, nil)
}
