package main

import (
	"flag"
	"fmt"

	"github.com/rdep/resolver/internal/manifest"
	"github.com/rdep/resolver/internal/metadata"
	"github.com/rdep/resolver/internal/provider"
	"github.com/rdep/resolver/internal/report"
	"github.com/rdep/resolver/internal/resolver"
	"github.com/rdep/resolver/internal/version"
)

// solveCommand runs the resolver against a manifest, per spec.md §6:
// `solve <path> [--lock-r V] [--prefer-bioc X] [--format human|json]`.
type solveCommand struct {
	cacheDir   string
	lockR      string
	preferBioc string
	format     string
}

func (c *solveCommand) Name() string      { return "solve" }
func (c *solveCommand) Args() string      { return "<manifest> [flags]" }
func (c *solveCommand) ShortHelp() string { return "resolve a project manifest into a pinned environment" }

func (c *solveCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&c.cacheDir, "cache", "cache", "metadata cache directory")
	fs.StringVar(&c.lockR, "lock-r", "", "reject any package requiring an R version above this one")
	fs.StringVar(&c.preferBioc, "prefer-bioc", "", "preferred Bioconductor release, overriding the manifest")
	fs.StringVar(&c.format, "format", "human", "output format: human or json")
}

func (c *solveCommand) Run(cfg *Config, args []string) int {
	errLogger := func(format string, a ...interface{}) { fmt.Fprintf(cfg.Stderr, format+"\n", a...) }

	if len(args) != 1 {
		errLogger("solve requires exactly one manifest path argument")
		return exitConfigError
	}
	if c.format != "human" && c.format != "json" {
		errLogger("unrecognized --format %q (want human or json)", c.format)
		return exitConfigError
	}

	m, err := manifest.Load(args[0])
	if err != nil {
		errLogger("%s", err)
		return exitConfigError
	}

	opts := resolver.Options{IncludeOptional: m.Options.IncludeOptional}

	preferBioc := m.Options.PreferBiocRelease
	if c.preferBioc != "" {
		preferBioc = c.preferBioc
	}
	opts.PreferBiocRelease = preferBioc

	if m.Options.CurrentR != "" {
		v, err := version.Parse(m.Options.CurrentR)
		if err != nil {
			errLogger("manifest options.current_r: %s", err)
			return exitConfigError
		}
		opts.CurrentR = &v
	}

	lockR := m.Options.LockR
	if c.lockR != "" {
		lockR = c.lockR
	}
	if lockR != "" {
		v, err := version.Parse(lockR)
		if err != nil {
			errLogger("--lock-r: %s", err)
			return exitConfigError
		}
		opts.LockR = &v
	}

	prov := provider.New(c.cacheDir, preferBioc)
	reqs := rootRequirements(m, prov)

	res := resolver.New(prov, opts)
	sol, err := res.Solve(reqs)
	if err != nil {
		switch err.(type) {
		case *metadata.MetadataUnavailableError, *metadata.UnknownPackageError:
			errLogger("%s", err)
			return exitMetadataFailure
		default:
			writeReport(cfg, c.format, report.FromError(err))
			return exitConflict
		}
	}

	writeReport(cfg, c.format, report.FromSolution(sol))
	return exitOK
}

// rootRequirements translates a manifest into root Requirements, dropping
// any optional target the provider has nothing to offer for — the probing
// golang-dep/manifest.go-style validation step manifest.Requirements itself
// deliberately leaves to the caller.
func rootRequirements(m *manifest.Manifest, prov metadata.Provider) []metadata.Requirement {
	var out []metadata.Requirement
	for _, req := range m.Requirements() {
		if !req.Optional {
			out = append(out, req)
			continue
		}
		cands, err := prov.Candidates(req.Ref)
		if err != nil || len(cands) == 0 {
			continue // optional: a probe failure or empty result just means skip it
		}
		out = append(out, req)
	}
	return out
}

func writeReport(cfg *Config, format string, rep report.Report) {
	if format == "json" {
		report.WriteJSON(cfg.Stdout, rep)
		return
	}
	report.WriteHuman(cfg.Stdout, rep)
}
