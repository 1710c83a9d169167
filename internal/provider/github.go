package provider

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/rdep/resolver/internal/metadata"
	"github.com/rdep/resolver/internal/pkgref"
	"github.com/rdep/resolver/internal/version"
)

// GitHubRecord is the DESCRIPTION shape fetched at a ref. It
// is not named in spec.md §6's cache layout (which only defines cran and
// bioconductor paths); cache/github/<owner>/<repo>/<ref>.json is this
// repo's own extension of that layout to cover the third source
// (see DESIGN.md).
type GitHubRecord struct {
	Version   string `json:"version"`
	Depends   string `json:"depends"`
	Imports   string `json:"imports"`
	LinkingTo string `json:"linking_to"`
	Suggests  string `json:"suggests"`
}

// GitHub reads cache/github/<owner>/<repo>/<ref>.json and serves exactly
// the one Candidate it describes, per spec.md §4.3 "github" source
// semantics.
type GitHub struct {
	Dir string // cache/github
}

func (p GitHub) Candidates(ref pkgref.Ref) ([]metadata.Candidate, error) {
	ownerRepo, gitRef := SplitLocator(ref.Locator)
	if ownerRepo == "" {
		return nil, nil
	}

	path := filepath.Join(p.Dir, filepath.FromSlash(ownerRepo), gitRef+".json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &metadata.MetadataUnavailableError{Ref: ref, Cause: err}
	}

	var rec GitHubRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, errors.Wrapf(err, "parsing github cache entry %s", path)
	}

	ver, err := version.Parse(rec.Version)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing version in %s", path)
	}

	var edges []metadata.Edge
	var rFloor version.Version
	for _, f := range []struct {
		field string
		kind  metadata.EdgeKind
	}{
		{rec.Depends, metadata.Depends},
		{rec.Imports, metadata.Imports},
		{rec.LinkingTo, metadata.LinkingTo},
		{rec.Suggests, metadata.Suggests},
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

	return []metadata.Candidate{{
		Ref:     ref,
		Version: ver,
		RFloor:  rFloor,
		Depends: edges,
	}}, nil
}

// SplitLocator splits "owner/repo[@ref]" into ("owner/repo", ref),
// defaulting ref to "HEAD" (the default branch) when absent. Exported for
// internal/rcache, which needs the same split to name a fetch target and
// its cache path.
func SplitLocator(locator string) (ownerRepo, ref string) {
	if locator == "" {
		return "", ""
	}
	if at := strings.LastIndexByte(locator, '@'); at >= 0 {
		return locator[:at], locator[at+1:]
	}
	return locator, "HEAD"
}
