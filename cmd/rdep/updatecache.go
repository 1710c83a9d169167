package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rdep/resolver/internal/manifest"
	"github.com/rdep/resolver/internal/provider"
	"github.com/rdep/resolver/internal/rcache"
)

// updateCacheCommand refreshes the on-disk metadata cache from a local
// mirror directory, per spec.md §6's `update-cache --config <path>`. The
// actual upstream HTTP fetch is out of scope (spec.md §1); mirrorFetcher
// below reads already-synced JSON records from --mirror instead, the way
// an operator would point rdep at a local CRAN/Bioconductor mirror rather
// than have the tool speak the network protocols itself.
type updateCacheCommand struct {
	config     string
	cacheDir   string
	mirrorDir  string
	preferBioc string
}

func (c *updateCacheCommand) Name() string      { return "update-cache" }
func (c *updateCacheCommand) Args() string      { return "--config <manifest>" }
func (c *updateCacheCommand) ShortHelp() string { return "refresh the metadata cache for a manifest's targets" }

func (c *updateCacheCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&c.config, "config", "", "manifest path naming the targets to refresh")
	fs.StringVar(&c.cacheDir, "cache", "cache", "metadata cache directory to write")
	fs.StringVar(&c.mirrorDir, "mirror", "mirror", "local mirror directory to read fresh records from")
	fs.StringVar(&c.preferBioc, "prefer-bioc", "", "preferred Bioconductor release, overriding the manifest")
}

func (c *updateCacheCommand) Run(cfg *Config, args []string) int {
	errLogger := func(format string, a ...interface{}) { fmt.Fprintf(cfg.Stderr, format+"\n", a...) }

	if c.config == "" {
		errLogger("update-cache requires --config <manifest>")
		return exitConfigError
	}

	m, err := manifest.Load(c.config)
	if err != nil {
		errLogger("%s", err)
		return exitConfigError
	}

	preferBioc := m.Options.PreferBiocRelease
	if c.preferBioc != "" {
		preferBioc = c.preferBioc
	}

	fetcher := mirrorFetcher{dir: c.mirrorDir}
	cache := rcache.Cache{Dir: c.cacheDir}

	if err := rcache.Refresh(cache, fetcher, m.Requirements(), preferBioc); err != nil {
		errLogger("update-cache completed with errors:\n%s", err)
		return exitMetadataFailure
	}

	fmt.Fprintln(cfg.Stdout, "cache refreshed")
	return exitOK
}

// mirrorFetcher implements rcache.Fetcher by reading the same JSON record
// shapes internal/provider serves, rooted at a separate "incoming" tree
// rather than the live cache — update-cache's job is to promote records
// from there into the cache, not to fabricate them.
type mirrorFetcher struct {
	dir string
}

func (f mirrorFetcher) FetchCRAN(name string) (provider.CRANRecord, error) {
	var rec provider.CRANRecord
	err := readJSON(filepath.Join(f.dir, "cran", name+".json"), &rec)
	return rec, err
}

func (f mirrorFetcher) FetchBioc(release string) (provider.BiocManifest, error) {
	var man provider.BiocManifest
	err := readJSON(filepath.Join(f.dir, "bioconductor", release+".json"), &man)
	return man, err
}

func (f mirrorFetcher) FetchGitHub(ownerRepo, ref string) (provider.GitHubRecord, error) {
	var rec provider.GitHubRecord
	err := readJSON(filepath.Join(f.dir, "github", filepath.FromSlash(ownerRepo), ref+".json"), &rec)
	return rec, err
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
