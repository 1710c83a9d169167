package provider

import (
	"fmt"
	"path/filepath"

	"github.com/rdep/resolver/internal/metadata"
	"github.com/rdep/resolver/internal/pkgref"
)

// Cached is the metadata.Provider the resolver is actually handed: it
// dispatches each ref to the CRAN, Bioc, or GitHub reader rooted at the
// same cache directory tree, per spec.md §6's layout.
type Cached struct {
	cran   CRAN
	bioc   Bioc
	github GitHub
}

// New builds a Cached provider rooted at dir (spec.md §6: dir/cran,
// dir/bioconductor, dir/github). preferredBiocRelease is the manifest's
// prefer_bioc_release option, used when a ref has no explicit release.
func New(dir, preferredBiocRelease string) *Cached {
	return &Cached{
		cran:   CRAN{Dir: filepath.Join(dir, "cran")},
		bioc:   Bioc{Dir: filepath.Join(dir, "bioconductor"), PreferredRelease: preferredBiocRelease},
		github: GitHub{Dir: filepath.Join(dir, "github")},
	}
}

func (c *Cached) Candidates(ref pkgref.Ref) ([]metadata.Candidate, error) {
	switch ref.Source {
	case pkgref.CRAN:
		return c.cran.Candidates(ref)
	case pkgref.Bioc:
		return c.bioc.Candidates(ref)
	case pkgref.GitHub:
		return c.github.Candidates(ref)
	default:
		return nil, fmt.Errorf("provider: unrecognized source %q", ref.Source)
	}
}

var _ metadata.Provider = (*Cached)(nil)
