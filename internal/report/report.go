// Package report renders a Solution (or a failed resolve) into the two
// external shapes spec.md §6 names: a machine-readable JSON document and a
// human-readable table.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/rdep/resolver/internal/resolver"
)

// Package is one resolved package entry in the JSON/human report.
type Package struct {
	Name      string   `json:"name"`
	Source    string   `json:"source"`
	Version   string   `json:"version"`
	DependsOn []string `json:"depends_on"`
}

// Downgrade mirrors resolver.DowngradeEntry for the wire format.
type Downgrade struct {
	Name   string `json:"name"`
	From   string `json:"from"`
	To     string `json:"to"`
	Reason string `json:"reason"`
}

// Conflict is a failed-resolve entry; populated only when Solve returned an
// error instead of a Solution.
type Conflict struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Report is the full document spec.md §6 describes:
// {r_version, packages, downgrades, conflicts}.
type Report struct {
	RVersion   string      `json:"r_version"`
	Packages   []Package   `json:"packages"`
	Downgrades []Downgrade `json:"downgrades"`
	Conflicts  []Conflict  `json:"conflicts"`
}

// FromSolution builds a successful report. Package and downgrade order is
// sorted by name so that two runs over the same Solution render identically
// regardless of map iteration order.
func FromSolution(sol resolver.Solution) Report {
	r := Report{RVersion: sol.RVersion.String()}

	names := make([]string, 0, len(sol.Assignment))
	for name := range sol.Assignment {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		cand := sol.Assignment[name]
		dependsOn := make([]string, 0, len(cand.Depends))
		seen := make(map[string]bool)
		for _, e := range cand.Depends {
			if seen[e.Name] {
				continue
			}
			seen[e.Name] = true
			dependsOn = append(dependsOn, e.Name)
		}
		sort.Strings(dependsOn)

		r.Packages = append(r.Packages, Package{
			Name:      name,
			Source:    string(cand.Ref.Source),
			Version:   cand.Version.String(),
			DependsOn: dependsOn,
		})
	}

	for _, d := range sol.Downgrades {
		r.Downgrades = append(r.Downgrades, Downgrade{
			Name:   d.Name,
			From:   d.From.String(),
			To:     d.To.String(),
			Reason: d.Reason,
		})
	}

	r.Conflicts = []Conflict{}
	if r.Packages == nil {
		r.Packages = []Package{}
	}
	if r.Downgrades == nil {
		r.Downgrades = []Downgrade{}
	}

	return r
}

// FromError builds a failed report: no packages, no r_version, a single
// conflict entry naming what went wrong. It does not try to recover a
// partial assignment — spec.md §4.4 treats a failed solve as producing a
// ConflictReport, not a best-effort Solution.
func FromError(err error) Report {
	name := ""
	switch e := err.(type) {
	case *resolver.VersionConflictError:
		name = e.Name
	case *resolver.SourceConflictError:
		name = e.Name
	case *resolver.RLockUnsatisfiableError:
		name = e.Name
	}
	return Report{
		Packages:   []Package{},
		Downgrades: []Downgrade{},
		Conflicts:  []Conflict{{Name: name, Message: err.Error()}},
	}
}

// WriteJSON encodes r the way golang-dep's Lock.MarshalJSON does: buffered,
// indented, with HTML-escaping disabled so package names containing '<' or
// '&' (rare, but the grammar doesn't forbid them in a github ref) render
// unescaped.
func WriteJSON(w io.Writer, r Report) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return err
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteHuman renders r as aligned columns, in the same tabwriter style
// cmd/dep's usage/help text uses.
func WriteHuman(w io.Writer, r Report) error {
	if len(r.Conflicts) > 0 {
		fmt.Fprintln(w, "resolution failed:")
		for _, c := range r.Conflicts {
			fmt.Fprintf(w, "  %s: %s\n", c.Name, c.Message)
		}
		return nil
	}

	fmt.Fprintf(w, "R %s\n\n", r.RVersion)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PACKAGE\tSOURCE\tVERSION\tDEPENDS ON")
	for _, p := range r.Packages {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.Name, p.Source, p.Version, joinOrDash(p.DependsOn))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(r.Downgrades) > 0 {
		fmt.Fprintln(w, "\nR version changes:")
		dtw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		fmt.Fprintln(dtw, "PACKAGE\tFROM\tTO\tREASON")
		for _, d := range r.Downgrades {
			name := d.Name
			if name == "" {
				name = "(R)"
			}
			fmt.Fprintf(dtw, "%s\t%s\t%s\t%s\n", name, d.From, d.To, d.Reason)
		}
		if err := dtw.Flush(); err != nil {
			return err
		}
	}

	return nil
}

func joinOrDash(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	out := names[0]
	for _, n := range names[1:] {
		out += ", " + n
	}
	return out
}
