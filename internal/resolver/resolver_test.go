package resolver

import (
	"testing"

	"github.com/rdep/resolver/internal/constraint"
	"github.com/rdep/resolver/internal/metadata"
	"github.com/rdep/resolver/internal/pkgref"
	"github.com/rdep/resolver/internal/version"
)

// fakeProvider is an in-memory MetadataProvider keyed by pkgref.Ref,
// serving exactly the candidates it was seeded with in the order given.
type fakeProvider struct {
	byRef map[pkgref.Ref][]metadata.Candidate
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{byRef: make(map[pkgref.Ref][]metadata.Candidate)}
}

func (p *fakeProvider) add(ref pkgref.Ref, cands ...metadata.Candidate) {
	p.byRef[ref] = append(p.byRef[ref], cands...)
}

func (p *fakeProvider) Candidates(ref pkgref.Ref) ([]metadata.Candidate, error) {
	return p.byRef[ref], nil
}

func cran(name string) pkgref.Ref { return pkgref.New(pkgref.CRAN, name, "") }
func bioc(name, release string) pkgref.Ref { return pkgref.New(pkgref.Bioc, name, release) }

func v(s string) version.Version { return version.MustParse(s) }

func mustConstraint(s string) constraint.Constraint {
	c, err := constraint.Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

func cand(ref pkgref.Ref, ver string, rfloor string, edges ...metadata.Edge) metadata.Candidate {
	c := metadata.Candidate{Ref: ref, Version: v(ver), Depends: edges}
	if rfloor != "" {
		c.RFloor = v(rfloor)
	}
	if ref.Source == pkgref.Bioc {
		c.BiocRelease = ref.Locator
	}
	return c
}

func dep(name, constraintStr string) metadata.Edge {
	return metadata.Edge{Name: name, Constraint: mustConstraint(constraintStr), Kind: metadata.Depends}
}

func TestSolveSimpleChain(t *testing.T) {
	p := newFakeProvider()
	p.add(cran("dplyr"), cand(cran("dplyr"), "1.1.4", "3.5", dep("rlang", ">=1.0.0")))
	p.add(cran("rlang"), cand(cran("rlang"), "1.1.3", "3.4"))

	r := New(p, Options{})
	sol, err := r.Solve([]metadata.Requirement{
		{Ref: cran("dplyr"), Constraint: mustConstraint("")},
	})
	if err != nil {
		t.Fatalf("Solve failed: %s", err)
	}
	if len(sol.Assignment) != 2 {
		t.Fatalf("expected 2 packages in assignment, got %d", len(sol.Assignment))
	}
	if sol.Assignment["rlang"].Version.String() != "1.1.3" {
		t.Errorf("rlang = %s, want 1.1.3", sol.Assignment["rlang"].Version)
	}
	if !sol.RVersion.Equal(v("3.5")) {
		t.Errorf("RVersion = %s, want 3.5", sol.RVersion)
	}
}

func TestSolveBacktracksOnConflict(t *testing.T) {
	// root requires rlang >= 1.1.0 directly, and transitively via a
	// package whose newest candidate only accepts an older rlang. The
	// newest root-adjacent candidate must be rejected in favor of an
	// older one compatible with both constraints.
	p := newFakeProvider()
	p.add(cran("toolA"),
		cand(cran("toolA"), "2.0.0", "", dep("rlang", "<1.0.0")),
		cand(cran("toolA"), "1.0.0", "", dep("rlang", ">=1.0.0")),
	)
	p.add(cran("rlang"), cand(cran("rlang"), "1.1.3", ""))

	r := New(p, Options{})
	sol, err := r.Solve([]metadata.Requirement{
		{Ref: cran("toolA"), Constraint: mustConstraint("")},
		{Ref: cran("rlang"), Constraint: mustConstraint(">=1.1.0")},
	})
	if err != nil {
		t.Fatalf("Solve failed: %s", err)
	}
	if sol.Assignment["toolA"].Version.String() != "1.0.0" {
		t.Errorf("toolA = %s, want 1.0.0 (backtracked from 2.0.0)", sol.Assignment["toolA"].Version)
	}
}

func TestSolveUnsatisfiableReturnsVersionConflict(t *testing.T) {
	p := newFakeProvider()
	p.add(cran("pkgA"), cand(cran("pkgA"), "1.0.0", ""))

	r := New(p, Options{})
	_, err := r.Solve([]metadata.Requirement{
		{Ref: cran("pkgA"), Constraint: mustConstraint(">=2.0.0")},
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if _, ok := err.(*VersionConflictError); !ok {
		t.Fatalf("expected *VersionConflictError, got %T: %s", err, err)
	}
}

func TestSolveSourceConflictAcrossRoots(t *testing.T) {
	p := newFakeProvider()
	r := New(p, Options{})
	_, err := r.Solve([]metadata.Requirement{
		{Ref: cran("Biobase"), Constraint: mustConstraint("")},
		{Ref: bioc("Biobase", "3.19"), Constraint: mustConstraint("")},
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if _, ok := err.(*SourceConflictError); !ok {
		t.Fatalf("expected *SourceConflictError, got %T: %s", err, err)
	}
}

func TestSolveBiocEdgeInheritsParentRelease(t *testing.T) {
	p := newFakeProvider()
	p.add(bioc("DESeq2", "3.19"), cand(bioc("DESeq2", "3.19"), "1.42.0", "4.4", dep("Biobase", "")))
	p.add(bioc("Biobase", "3.19"), cand(bioc("Biobase", "3.19"), "2.62.0", "4.4"))

	r := New(p, Options{})
	sol, err := r.Solve([]metadata.Requirement{
		{Ref: bioc("DESeq2", "3.19"), Constraint: mustConstraint("")},
	})
	if err != nil {
		t.Fatalf("Solve failed: %s", err)
	}
	got := sol.Assignment["Biobase"].Ref
	want := bioc("Biobase", "3.19")
	if !got.Equal(want) {
		t.Errorf("Biobase resolved against %s, want %s", got, want)
	}
}

func TestSolveGitHubEdgeFallsBackToCRAN(t *testing.T) {
	gh := pkgref.New(pkgref.GitHub, "mypkg", "me/mypkg@main")
	p := newFakeProvider()
	p.add(gh, cand(gh, "0.1.0", "", dep("rlang", "")))
	p.add(cran("rlang"), cand(cran("rlang"), "1.1.3", ""))

	r := New(p, Options{})
	sol, err := r.Solve([]metadata.Requirement{
		{Ref: gh, Constraint: mustConstraint("")},
	})
	if err != nil {
		t.Fatalf("Solve failed: %s", err)
	}
	got := sol.Assignment["rlang"].Ref
	if got.Source != pkgref.CRAN {
		t.Errorf("rlang resolved against %s, want cran", got)
	}
}

func TestSolveCycleIsNotInfinite(t *testing.T) {
	p := newFakeProvider()
	p.add(cran("a"), cand(cran("a"), "1.0.0", "", dep("b", "")))
	p.add(cran("b"), cand(cran("b"), "1.0.0", "", dep("a", ">=1.0.0")))

	r := New(p, Options{})
	sol, err := r.Solve([]metadata.Requirement{
		{Ref: cran("a"), Constraint: mustConstraint("")},
	})
	if err != nil {
		t.Fatalf("Solve failed: %s", err)
	}
	if len(sol.Assignment) != 2 {
		t.Fatalf("expected 2 packages, got %d", len(sol.Assignment))
	}
}

func TestSolveUnknownRootPackage(t *testing.T) {
	p := newFakeProvider()
	r := New(p, Options{})
	_, err := r.Solve([]metadata.Requirement{
		{Ref: cran("doesnotexist"), Constraint: mustConstraint("")},
	})
	if _, ok := err.(*metadata.UnknownPackageError); !ok {
		t.Fatalf("expected *metadata.UnknownPackageError, got %T: %s", err, err)
	}
}

func TestSolveLockRRejectsHighFloor(t *testing.T) {
	p := newFakeProvider()
	p.add(cran("pkgA"), cand(cran("pkgA"), "1.0.0", "4.4"))

	lockR := v("4.2.0")
	r := New(p, Options{LockR: &lockR})
	_, err := r.Solve([]metadata.Requirement{
		{Ref: cran("pkgA"), Constraint: mustConstraint("")},
	})
	if err == nil {
		t.Fatal("expected an error")
	}
	if _, ok := err.(*RLockUnsatisfiableError); !ok {
		t.Fatalf("expected *RLockUnsatisfiableError, got %T: %s", err, err)
	}
}

func TestSolveReportsDowngradeWhenBelowCurrentR(t *testing.T) {
	p := newFakeProvider()
	p.add(cran("pkgA"), cand(cran("pkgA"), "1.0.0", "4.0"))

	currentR := v("4.2.2")
	r := New(p, Options{CurrentR: &currentR})
	sol, err := r.Solve([]metadata.Requirement{
		{Ref: cran("pkgA"), Constraint: mustConstraint("")},
	})
	if err != nil {
		t.Fatalf("Solve failed: %s", err)
	}
	if len(sol.Downgrades) != 1 || sol.Downgrades[0].Name != "" {
		t.Errorf("expected a single unnamed downgrade entry when required R (4.0) is below current R (4.2.2), got %+v", sol.Downgrades)
	}
}

func TestSolveReportsUpgradeWhenAboveCurrentR(t *testing.T) {
	p := newFakeProvider()
	p.add(bioc("DESeq2", "3.19"), cand(bioc("DESeq2", "3.19"), "1.42.0", "4.4"))

	currentR := v("4.2.2")
	r := New(p, Options{CurrentR: &currentR})
	sol, err := r.Solve([]metadata.Requirement{
		{Ref: bioc("DESeq2", "3.19"), Constraint: mustConstraint("")},
	})
	if err != nil {
		t.Fatalf("Solve failed: %s", err)
	}
	if sol.RVersion.Less(v("4.4")) {
		t.Errorf("RVersion = %s, want >= 4.4", sol.RVersion)
	}
	if len(sol.Downgrades) != 1 || sol.Downgrades[0].Name != "DESeq2" {
		t.Errorf("expected DESeq2 listed as forcing the upgrade, got %+v", sol.Downgrades)
	}
}

func TestInputHashStableAcrossOrdering(t *testing.T) {
	reqA := []metadata.Requirement{
		{Ref: cran("dplyr"), Constraint: mustConstraint("")},
		{Ref: cran("rlang"), Constraint: mustConstraint(">=1.0.0")},
	}
	reqB := []metadata.Requirement{
		{Ref: cran("rlang"), Constraint: mustConstraint(">=1.0.0")},
		{Ref: cran("dplyr"), Constraint: mustConstraint("")},
	}
	ha, err := InputHash(reqA, Options{})
	if err != nil {
		t.Fatalf("InputHash failed: %s", err)
	}
	hb, err := InputHash(reqB, Options{})
	if err != nil {
		t.Fatalf("InputHash failed: %s", err)
	}
	if ha != hb {
		t.Errorf("InputHash should not depend on requirement order: %d != %d", ha, hb)
	}
}
