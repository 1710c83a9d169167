// Package rcache populates the on-disk JSON cache internal/provider reads
// from, and is the home of the "update-cache" CLI operation (spec.md §6).
// The HTTP/VCS transport itself is out of scope (spec.md §1 Non-goals);
// Fetcher stands in for it, mirroring how golang-dep's SourceManager keeps
// the actual network client behind an interface and only owns the
// fetch-then-persist-to-disk flow around it.
package rcache

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/rdep/resolver/internal/metadata"
	"github.com/rdep/resolver/internal/pkgref"
	"github.com/rdep/resolver/internal/provider"
)

// Fetcher retrieves fresh records from the three upstream sources. Refresh
// calls it once per package/release it discovers; how it actually talks to
// CRAN, Bioconductor, or GitHub is outside this package.
type Fetcher interface {
	FetchCRAN(name string) (provider.CRANRecord, error)
	FetchBioc(release string) (provider.BiocManifest, error)
	FetchGitHub(ownerRepo, ref string) (provider.GitHubRecord, error)
}

// Cache writes to the same directory layout internal/provider reads:
// cache/cran/<pkg>.json, cache/bioconductor/<release>.json, and this
// repo's own extension cache/github/<owner>/<repo>/<ref>.json.
type Cache struct {
	Dir string
}

func (c Cache) cranPath(name string) string {
	return filepath.Join(c.Dir, "cran", name+".json")
}

func (c Cache) biocPath(release string) string {
	return filepath.Join(c.Dir, "bioconductor", release+".json")
}

func (c Cache) githubPath(ownerRepo, ref string) string {
	return filepath.Join(c.Dir, "github", filepath.FromSlash(ownerRepo), ref+".json")
}

func writeJSON(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "creating cache directory for %s", path)
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "encoding %s", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

// WriteCRAN persists rec as cache/cran/<name>.json.
func (c Cache) WriteCRAN(name string, rec provider.CRANRecord) error {
	return writeJSON(c.cranPath(name), rec)
}

// WriteBioc persists man as cache/bioconductor/<release>.json.
func (c Cache) WriteBioc(release string, man provider.BiocManifest) error {
	return writeJSON(c.biocPath(release), man)
}

// WriteGitHub persists rec as cache/github/<owner>/<repo>/<ref>.json.
func (c Cache) WriteGitHub(ownerRepo, ref string, rec provider.GitHubRecord) error {
	return writeJSON(c.githubPath(ownerRepo, ref), rec)
}

// edgeFields lists the four DESCRIPTION-style fields Refresh scans for
// further names to walk to, in the same order the providers parse them.
func edgeFields(depends, imports, linkingTo, suggests string) []string {
	var names []string
	for _, f := range []string{depends, imports, linkingTo, suggests} {
		names = append(names, provider.EdgeNames(f)...)
	}
	return names
}

// Refresh walks the transitive closure of roots, fetching and caching every
// package it reaches. It does not stop at the first failure: a package
// that can't be fetched is recorded and the walk continues, matching
// update-cache's job of refreshing as much of the cache as it can in one
// pass rather than leaving it untouched because one leaf 404s. The
// returned error, if non-nil, is a *multierror.Error aggregating every
// per-package failure.
//
// Edge targets follow the same source-fixing rule the resolver itself
// uses (spec.md §4.4, §9 Open Question): an edge discovered under a bioc
// root stays in that root's release, everything else resolves to CRAN.
// GitHub roots' edges are never synthesized as GitHub; only an explicit
// root Requirement can name a GitHub ref.
func Refresh(cache Cache, fetcher Fetcher, roots []metadata.Requirement, preferredBiocRelease string) error {
	var result *multierror.Error

	visited := make(map[pkgref.Ref]bool)
	var queue []pkgref.Ref
	for _, r := range roots {
		queue = append(queue, r.Ref)
	}

	for len(queue) > 0 {
		ref := queue[0]
		queue = queue[1:]
		if visited[ref] {
			continue
		}
		visited[ref] = true

		switch ref.Source {
		case pkgref.CRAN:
			rec, err := fetcher.FetchCRAN(ref.Name)
			if err != nil {
				result = multierror.Append(result, errors.Wrapf(err, "fetching cran package %s", ref.Name))
				continue
			}
			if err := cache.WriteCRAN(ref.Name, rec); err != nil {
				result = multierror.Append(result, err)
				continue
			}
			for _, vr := range rec.Versions {
				for _, name := range edgeFields(vr.Depends, vr.Imports, vr.LinkingTo, vr.Suggests) {
					queue = append(queue, pkgref.New(pkgref.CRAN, name, ""))
				}
			}

		case pkgref.Bioc:
			release := ref.Locator
			if release == "" {
				release = preferredBiocRelease
			}
			if release == "" {
				result = multierror.Append(result, errors.Errorf("bioc package %s has no release to fetch (no locator, no preferred release)", ref.Name))
				continue
			}
			man, err := fetcher.FetchBioc(release)
			if err != nil {
				result = multierror.Append(result, errors.Wrapf(err, "fetching bioconductor release %s", release))
				continue
			}
			if err := cache.WriteBioc(release, man); err != nil {
				result = multierror.Append(result, err)
				continue
			}
			// Walk edges from this root's own record only, not every
			// package the release manifest happens to carry — a bioc
			// root's transitive closure is its own dependency chain, the
			// same scope the resolver itself walks.
			if rec, ok := man.Packages[ref.Name]; ok {
				for _, name := range edgeFields(rec.Depends, rec.Imports, rec.LinkingTo, rec.Suggests) {
					queue = append(queue, pkgref.New(pkgref.Bioc, name, release))
				}
			}

		case pkgref.GitHub:
			ownerRepo, gitRef := provider.SplitLocator(ref.Locator)
			if ownerRepo == "" {
				result = multierror.Append(result, errors.Errorf("github ref %s has no owner/repo locator", ref))
				continue
			}
			rec, err := fetcher.FetchGitHub(ownerRepo, gitRef)
			if err != nil {
				result = multierror.Append(result, errors.Wrapf(err, "fetching github %s@%s", ownerRepo, gitRef))
				continue
			}
			if err := cache.WriteGitHub(ownerRepo, gitRef, rec); err != nil {
				result = multierror.Append(result, err)
				continue
			}
			for _, name := range edgeFields(rec.Depends, rec.Imports, rec.LinkingTo, rec.Suggests) {
				queue = append(queue, pkgref.New(pkgref.CRAN, name, ""))
			}

		default:
			result = multierror.Append(result, errors.Errorf("%s: unrecognized source %q", ref.Name, ref.Source))
		}
	}

	return result.ErrorOrNil()
}
