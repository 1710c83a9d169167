package provider

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/rdep/resolver/internal/metadata"
	"github.com/rdep/resolver/internal/pkgref"
	"github.com/rdep/resolver/internal/version"
)

// BiocPackageRecord is one package's entry within a release manifest.
type BiocPackageRecord struct {
	Version   string `json:"version"`
	Depends   string `json:"depends"`
	Imports   string `json:"imports"`
	LinkingTo string `json:"linking_to"`
	Suggests  string `json:"suggests"`
}

// BiocManifest is the on-disk shape of cache/bioconductor/<release>.json
// (spec.md §6): the R version the release as a whole declares, plus
// every package it carries.
type BiocManifest struct {
	RVersion string                       `json:"r_version"`
	Packages map[string]BiocPackageRecord `json:"packages"`
}

// Bioc reads cache/bioconductor/<release>.json and serves exactly the
// one version present in the requested release, per spec.md §4.3 "bioc"
// source semantics. A ref's Locator selects the release; if empty,
// PreferredRelease is used instead (manifest's prefer_bioc_release).
type Bioc struct {
	Dir              string // cache/bioconductor
	PreferredRelease string
}

func (p Bioc) Candidates(ref pkgref.Ref) ([]metadata.Candidate, error) {
	release := ref.Locator
	if release == "" {
		release = p.PreferredRelease
	}
	if release == "" {
		return nil, nil
	}

	path := filepath.Join(p.Dir, release+".json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &metadata.MetadataUnavailableError{Ref: ref, Cause: err}
	}

	var man BiocManifest
	if err := json.Unmarshal(data, &man); err != nil {
		return nil, errors.Wrapf(err, "parsing bioconductor cache entry %s", path)
	}

	rec, ok := man.Packages[ref.Name]
	if !ok {
		return nil, nil
	}

	ver, err := version.Parse(rec.Version)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing version in %s", path)
	}
	releaseR, err := version.Parse(man.RVersion)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing r_version in %s", path)
	}

	var edges []metadata.Edge
	for _, f := range []struct {
		field string
		kind  metadata.EdgeKind
	}{
		{rec.Depends, metadata.Depends},
		{rec.Imports, metadata.Imports},
		{rec.LinkingTo, metadata.LinkingTo},
		{rec.Suggests, metadata.Suggests},
	} {
		fieldEdges, _, err := parseDependsField(f.field, f.kind)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s field in %s", f.kind, path)
		}
		edges = append(edges, fieldEdges...)
	}

	return []metadata.Candidate{{
		Ref:         pkgref.New(pkgref.Bioc, ref.Name, release),
		Version:     ver,
		RFloor:      releaseR,
		Depends:     edges,
		BiocRelease: release,
	}}, nil
}
