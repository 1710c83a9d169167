package provider

import (
	"strings"

	"github.com/rdep/resolver/internal/constraint"
	"github.com/rdep/resolver/internal/metadata"
	"github.com/rdep/resolver/internal/version"
)

// parseDependsField parses one DESCRIPTION-style field value — a
// comma-separated list of "name" or "name (OP version)" entries — into
// Edges of the given kind. An entry named "R" never becomes an edge: its
// version predicate instead contributes to the candidate's r_floor,
// which the caller folds in separately (only meaningful when kind is
// metadata.Depends, same as a real DESCRIPTION's R floor).
func parseDependsField(field string, kind metadata.EdgeKind) (edges []metadata.Edge, rFloor version.Version, err error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil, version.Version{}, nil
	}

	for _, entry := range strings.Split(field, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name, constraintStr := splitNameAndConstraint(entry)
		c, perr := constraint.Parse(constraintStr)
		if perr != nil {
			return nil, version.Version{}, perr
		}

		if name == "R" {
			if floor := minVersionOf(constraintStr); !floor.Zero() {
				rFloor = floor
			}
			continue
		}

		edges = append(edges, metadata.Edge{Name: name, Constraint: c, Kind: kind})
	}

	return edges, rFloor, nil
}

// EdgeNames extracts just the package names referenced by a
// DESCRIPTION-style field, skipping "R" itself. internal/rcache uses this
// to discover which packages a freshly fetched record pulls in, without
// needing the full Edge/Constraint machinery the resolver cares about.
func EdgeNames(field string) []string {
	field = strings.TrimSpace(field)
	if field == "" {
		return nil
	}
	var names []string
	for _, entry := range strings.Split(field, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, _ := splitNameAndConstraint(entry)
		if name == "R" {
			continue
		}
		names = append(names, name)
	}
	return names
}

// splitNameAndConstraint splits "pkg (>= 1.2.3)" into ("pkg", ">= 1.2.3")
// and a bare "pkg" into ("pkg", "").
func splitNameAndConstraint(entry string) (name, constraintStr string) {
	open := strings.IndexByte(entry, '(')
	if open < 0 {
		return strings.TrimSpace(entry), ""
	}
	closeIdx := strings.LastIndexByte(entry, ')')
	if closeIdx < open {
		return strings.TrimSpace(entry), ""
	}
	name = strings.TrimSpace(entry[:open])
	constraintStr = strings.TrimSpace(entry[open+1 : closeIdx])
	return name, constraintStr
}

// minVersionOf extracts the version literal off a DESCRIPTION-style
// "R (>= 3.5.0)" predicate for use as an r_floor. Any operator is
// treated as establishing the floor version; this mirrors what R's own
// dependency resolution does with an R version predicate (only "(>=
// X)" appears in practice).
func minVersionOf(raw string) version.Version {
	raw = strings.TrimSpace(raw)
	for _, prefix := range []string{">=", ">", "<=", "<", "==", "!=", "="} {
		if strings.HasPrefix(raw, prefix) {
			raw = strings.TrimSpace(raw[len(prefix):])
			break
		}
	}
	v, err := version.Parse(raw)
	if err != nil {
		return version.Version{}
	}
	return v
}
