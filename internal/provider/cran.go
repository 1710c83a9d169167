// Package provider supplies the concrete MetadataProvider implementations
// the resolver consumes for each source — cran, bioc, and github — each
// reading from a pre-populated on-disk JSON cache rather than performing
// network I/O, per spec.md §1/§4.3/§6 (the HTTP fetchers themselves are
// out of scope; the cache is assumed warm, refreshed separately by
// internal/rcache's Refresh operation).
package provider

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"

	"github.com/rdep/resolver/internal/metadata"
	"github.com/rdep/resolver/internal/pkgref"
	"github.com/rdep/resolver/internal/version"
)

// CRANVersionRecord is one archived or current version of a package, the
// on-disk shape of an entry in cache/cran/<pkg>.json (spec.md §6).
type CRANVersionRecord struct {
	Version   string `json:"version"`
	Depends   string `json:"depends"`
	Imports   string `json:"imports"`
	LinkingTo string `json:"linking_to"`
	Suggests  string `json:"suggests"`
}

type CRANRecord struct {
	Versions []CRANVersionRecord `json:"versions"`
}

// CRAN reads cache/cran/<pkg>.json and serves every archived version,
// newest first, with edges extracted from the DESCRIPTION-style fields
// (spec.md §4.3 "cran" source semantics). Suggests edges are always
// extracted; whether they participate in a given solve is the
// resolver's Options.IncludeOptional call, not the provider's.
type CRAN struct {
	Dir string // cache/cran
}

func (p CRAN) Candidates(ref pkgref.Ref) ([]metadata.Candidate, error) {
	path := filepath.Join(p.Dir, ref.Name+".json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &metadata.MetadataUnavailableError{Ref: ref, Cause: err}
	}

	var rec CRANRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrapf(err, "parsing cran cache entry %s", path)
	}

	cands := make([]metadata.Candidate, 0, len(rec.Versions))
	for _, vr := range rec.Versions {
		ver, err := version.Parse(vr.Version)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing version in %s", path)
		}

		var edges []metadata.Edge
		var rFloor version.Version
		for _, f := range []struct {
			field string
			kind  metadata.EdgeKind
		}{
			{vr.Depends, metadata.Depends},
			{vr.Imports, metadata.Imports},
			{vr.LinkingTo, metadata.LinkingTo},
			{vr.Suggests, metadata.Suggests},
		} {
			fieldEdges, floor, err := parseDependsField(f.field, f.kind)
			if err != nil {
				return nil, errors.Wrapf(err, "parsing %s field in %s", f.kind, path)
			}
			edges = append(edges, fieldEdges...)
			if !floor.Zero() {
				rFloor = floor
			}
		}

		cands = append(cands, metadata.Candidate{
			Ref:     pkgref.New(pkgref.CRAN, ref.Name, ""),
			Version: ver,
			RFloor:  rFloor,
			Depends: edges,
		})
	}

	sort.Slice(cands, func(i, j int) bool {
		return cands[i].Version.Greater(cands[j].Version)
	})

	return cands, nil
}
