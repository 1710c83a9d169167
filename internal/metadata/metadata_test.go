package metadata

import (
	"testing"

	"github.com/rdep/resolver/internal/pkgref"
	"github.com/rdep/resolver/internal/version"
)

func TestEdgeKindActive(t *testing.T) {
	cases := []struct {
		kind            EdgeKind
		includeSuggests bool
		want            bool
	}{
		{Depends, false, true},
		{Imports, false, true},
		{LinkingTo, false, true},
		{Suggests, false, false},
		{Suggests, true, true},
	}
	for _, c := range cases {
		if got := c.kind.Active(c.includeSuggests); got != c.want {
			t.Errorf("%s.Active(%v) = %v, want %v", c.kind, c.includeSuggests, got, c.want)
		}
	}
}

func TestCandidateHasRFloor(t *testing.T) {
	withFloor := Candidate{Ref: pkgref.New(pkgref.CRAN, "dplyr", ""), Version: version.MustParse("1.1.4"), RFloor: version.MustParse("3.5")}
	if !withFloor.HasRFloor() {
		t.Errorf("expected HasRFloor() true when RFloor is set")
	}

	noFloor := Candidate{Ref: pkgref.New(pkgref.CRAN, "dplyr", ""), Version: version.MustParse("1.1.4")}
	if noFloor.HasRFloor() {
		t.Errorf("expected HasRFloor() false on the zero Version")
	}
}

func TestUnknownPackageErrorMessage(t *testing.T) {
	err := &UnknownPackageError{Ref: pkgref.New(pkgref.CRAN, "doesnotexist", "")}
	if err.Error() == "" {
		t.Errorf("expected non-empty error message")
	}
}

func TestMetadataUnavailableErrorUnwrap(t *testing.T) {
	cause := &UnknownPackageError{Ref: pkgref.New(pkgref.CRAN, "x", "")}
	err := &MetadataUnavailableError{Ref: pkgref.New(pkgref.CRAN, "x", ""), Cause: cause}
	if err.Unwrap() != cause {
		t.Errorf("Unwrap() should return the wrapped cause")
	}
}
