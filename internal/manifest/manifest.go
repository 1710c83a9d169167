// Package manifest loads the YAML project manifest — targets with source
// hints and constraints — into the root Requirements the resolver
// consumes, per spec.md §6.
package manifest

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/rdep/resolver/internal/constraint"
	"github.com/rdep/resolver/internal/metadata"
	"github.com/rdep/resolver/internal/pkgref"
)

// Options mirrors the manifest's top-level `options` block (spec.md §6).
type Options struct {
	CurrentR          string `yaml:"current_r,omitempty"`
	LockR             string `yaml:"lock_r,omitempty"`
	PreferBiocRelease string `yaml:"prefer_bioc_release,omitempty"`
	IncludeOptional   bool   `yaml:"include_optional,omitempty"`
}

// Target is one validated project target.
type Target struct {
	Package     string
	Source      pkgref.Source
	Constraint  constraint.Constraint
	BiocRelease string
	Ref         string
	Optional    bool
}

// Manifest is the typed, validated project manifest.
type Manifest struct {
	ProjectName string
	Options     Options
	Targets     []Target
}

// rawManifest is the direct YAML decode target, close to the wire
// format; rawTarget keeps source, constraint and the locator fields as
// plain strings so malformed combinations (e.g. a bioc_release on a
// source that can't take one) can be rejected in toTarget rather than
// silently coerced by the YAML decoder.
type rawManifest struct {
	Project struct {
		Name string `yaml:"name"`
	} `yaml:"project"`
	Options Options      `yaml:"options"`
	Targets []rawTarget `yaml:"targets"`
}

type rawTarget struct {
	Package     string `yaml:"package"`
	Source      string `yaml:"source"`
	Constraint  string `yaml:"constraint"`
	BiocRelease string `yaml:"bioc_release"`
	Ref         string `yaml:"ref"`
	Optional    bool   `yaml:"optional"`
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening manifest %s", path)
	}
	defer f.Close()
	return Read(f, path)
}

// Read decodes and validates a manifest from r. path is used only to
// annotate errors.
func Read(r io.Reader, path string) (*Manifest, error) {
	var rm rawManifest
	if err := yaml.NewDecoder(r).Decode(&rm); err != nil {
		return nil, errors.Wrapf(err, "parsing manifest %s", path)
	}

	m := &Manifest{ProjectName: rm.Project.Name, Options: rm.Options, Targets: make([]Target, 0, len(rm.Targets))}

	for _, rt := range rm.Targets {
		t, err := toTarget(rt)
		if err != nil {
			return nil, errors.Wrapf(err, "target %q in %s", rt.Package, path)
		}
		m.Targets = append(m.Targets, t)
	}

	return m, nil
}

// toTarget interprets one rawTarget, rejecting invalid field
// combinations the way golang-dep's toProps rejects a manifest entry
// that names both a branch and a version.
func toTarget(rt rawTarget) (Target, error) {
	if rt.Package == "" {
		return Target{}, errors.New("target requires a package name")
	}

	var source pkgref.Source
	switch rt.Source {
	case "cran":
		source = pkgref.CRAN
	case "bioc":
		source = pkgref.Bioc
	case "github":
		source = pkgref.GitHub
	default:
		return Target{}, errors.Errorf("unrecognized source %q (want cran, bioc, or github)", rt.Source)
	}

	if source != pkgref.Bioc && rt.BiocRelease != "" {
		return Target{}, errors.Errorf("bioc_release is only valid for source bioc, got %q", rt.Source)
	}
	if source != pkgref.GitHub && rt.Ref != "" {
		return Target{}, errors.Errorf("ref is only valid for source github, got %q", rt.Source)
	}

	c, err := constraint.Parse(rt.Constraint)
	if err != nil {
		return Target{}, err
	}

	return Target{
		Package:     rt.Package,
		Source:      source,
		Constraint:  c,
		BiocRelease: rt.BiocRelease,
		Ref:         rt.Ref,
		Optional:    rt.Optional,
	}, nil
}

// locator derives the PackageRef locator a Target resolves to: the
// Bioconductor release for bioc, "owner/repo[@ref]" for github, empty
// for cran.
func (t Target) locator() string {
	switch t.Source {
	case pkgref.Bioc:
		return t.BiocRelease
	case pkgref.GitHub:
		if t.Ref != "" {
			return t.Package + "@" + t.Ref
		}
		return t.Package
	default:
		return ""
	}
}

// packageName derives the package's own identity from Target.Package,
// distinct from the repo coordinates a github target's Package holds.
// For cran/bioc, Package already is the package name. For github,
// Package is "owner/repo" (spec.md §6) and the package name is the repo
// segment after the last "/" — the same name a CRAN/Bioc candidate for
// this package would carry, so a SourceConflict between e.g.
// tidyverse/dplyr@github and dplyr@cran can actually be detected.
func (t Target) packageName() string {
	if t.Source != pkgref.GitHub {
		return t.Package
	}
	if slash := strings.LastIndexByte(t.Package, '/'); slash >= 0 {
		return t.Package[slash+1:]
	}
	return t.Package
}

// PackageRef builds the PackageRef this target resolves to: the bare
// package name plus a source-specific locator carrying the repository
// coordinates (spec.md §3).
func (t Target) PackageRef() pkgref.Ref {
	return pkgref.New(t.Source, t.packageName(), t.locator())
}

// Requirements translates every target into a root Requirement, ready
// for Resolver.Solve. Probing whether an optional target is even
// offered by the provider (and dropping it if not) is the caller's job,
// not this package's — Requirements only encodes what the manifest says.
func (m *Manifest) Requirements() []metadata.Requirement {
	reqs := make([]metadata.Requirement, 0, len(m.Targets))
	for _, t := range m.Targets {
		reqs = append(reqs, metadata.Requirement{
			Ref:        t.PackageRef(),
			Constraint: t.Constraint,
			Optional:   t.Optional,
		})
	}
	return reqs
}
