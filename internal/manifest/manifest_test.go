package manifest

import (
	"strings"
	"testing"

	"github.com/rdep/resolver/internal/pkgref"
)

func TestReadValidManifest(t *testing.T) {
	src := `
project:
  name: myenv
options:
  current_r: "4.3.0"
  include_optional: false
targets:
  - package: dplyr
    source: cran
    constraint: ">=1.0.0"
  - package: DESeq2
    source: bioc
    bioc_release: "3.19"
  - package: mypkg
    source: github
    ref: main
    optional: true
`
	m, err := Read(strings.NewReader(src), "manifest.yaml")
	if err != nil {
		t.Fatalf("Read failed: %s", err)
	}
	if m.ProjectName != "myenv" {
		t.Errorf("ProjectName = %q, want myenv", m.ProjectName)
	}
	if len(m.Targets) != 3 {
		t.Fatalf("expected 3 targets, got %d", len(m.Targets))
	}
	if m.Targets[0].Source != pkgref.CRAN {
		t.Errorf("targets[0].Source = %s, want cran", m.Targets[0].Source)
	}
	if !m.Targets[2].Optional {
		t.Errorf("expected github target to be optional")
	}

	reqs := m.Requirements()
	if len(reqs) != 3 {
		t.Fatalf("expected 3 requirements, got %d", len(reqs))
	}
	if reqs[1].Ref.Locator != "3.19" {
		t.Errorf("bioc requirement locator = %q, want 3.19", reqs[1].Ref.Locator)
	}
	if reqs[2].Ref.Locator != "mypkg@main" {
		t.Errorf("github requirement locator = %q, want mypkg@main", reqs[2].Ref.Locator)
	}
}

func TestReadDerivesGitHubPackageNameFromRepoSegment(t *testing.T) {
	src := `
targets:
  - package: tidyverse/dplyr
    source: github
    ref: main
`
	m, err := Read(strings.NewReader(src), "manifest.yaml")
	if err != nil {
		t.Fatalf("Read failed: %s", err)
	}

	reqs := m.Requirements()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 requirement, got %d", len(reqs))
	}
	if reqs[0].Ref.Name != "dplyr" {
		t.Errorf("Ref.Name = %q, want %q (bare package name, not owner/repo)", reqs[0].Ref.Name, "dplyr")
	}
	if reqs[0].Ref.Locator != "tidyverse/dplyr@main" {
		t.Errorf("Ref.Locator = %q, want %q", reqs[0].Ref.Locator, "tidyverse/dplyr@main")
	}
}

func TestReadRejectsUnknownSource(t *testing.T) {
	src := `
targets:
  - package: dplyr
    source: npm
`
	if _, err := Read(strings.NewReader(src), "manifest.yaml"); err == nil {
		t.Error("expected an error for an unrecognized source")
	}
}

func TestReadRejectsBiocReleaseOnCran(t *testing.T) {
	src := `
targets:
  - package: dplyr
    source: cran
    bioc_release: "3.19"
`
	if _, err := Read(strings.NewReader(src), "manifest.yaml"); err == nil {
		t.Error("expected an error when bioc_release is set on a cran target")
	}
}

func TestReadRejectsMissingPackageName(t *testing.T) {
	src := `
targets:
  - source: cran
`
	if _, err := Read(strings.NewReader(src), "manifest.yaml"); err == nil {
		t.Error("expected an error for a target with no package name")
	}
}

func TestReadRejectsMalformedConstraint(t *testing.T) {
	src := `
targets:
  - package: dplyr
    source: cran
    constraint: "~>1.0"
`
	if _, err := Read(strings.NewReader(src), "manifest.yaml"); err == nil {
		t.Error("expected an error for a malformed constraint")
	}
}
