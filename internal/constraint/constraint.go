// Package constraint implements the conjunctive version-predicate language
// used to restrict which Versions of a package are acceptable, per spec.md
// §4.2. A Constraint is immutable once parsed; Merge composes two
// Constraints by conjunction.
package constraint

import (
	"fmt"
	"strings"

	"github.com/rdep/resolver/internal/version"
)

// Operator is one of the six comparison operators a predicate may use.
type Operator string

const (
	GE Operator = ">="
	GT Operator = ">"
	LE Operator = "<="
	LT Operator = "<"
	EQ Operator = "=="
	NE Operator = "!="
)

// predicate is a single atomic comparison against a Version.
type predicate struct {
	op Operator
	v  version.Version
}

func (p predicate) matches(v version.Version) bool {
	c := version.Compare(v, p.v)
	switch p.op {
	case GE:
		return c != version.Less
	case GT:
		return c == version.Greater
	case LE:
		return c != version.Greater
	case LT:
		return c == version.Less
	case EQ:
		return c == version.Equal
	case NE:
		return c != version.Equal
	default:
		return false
	}
}

func (p predicate) String() string {
	return fmt.Sprintf("%s%s", p.op, p.v)
}

// Constraint is a conjunction of atomic predicates over Version. The empty
// conjunction (zero value) is satisfied by every Version.
type Constraint struct {
	predicates []predicate
}

// MalformedConstraintError reports that a string could not be parsed as a
// Constraint.
type MalformedConstraintError struct {
	Input string
	Cause error
}

func (e *MalformedConstraintError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("malformed constraint %q: %s", e.Input, e.Cause)
	}
	return fmt.Sprintf("malformed constraint %q", e.Input)
}

func (e *MalformedConstraintError) Unwrap() error {
	return e.Cause
}

// Parse parses a comma-separated list of "OP VERSION" predicates. "=" is
// accepted as a synonym for "==". A bare version with no operator parses as
// ">= VERSION". Whitespace is ignored throughout. The empty string parses
// to the always-true constraint.
func Parse(s string) (Constraint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Constraint{}, nil
	}

	var preds []predicate
	for _, clause := range strings.Split(s, ",") {
		clause = strings.TrimSpace(strings.ReplaceAll(clause, " ", ""))
		if clause == "" {
			continue
		}

		op, rest := extractOperator(clause)
		v, err := version.Parse(rest)
		if err != nil {
			return Constraint{}, &MalformedConstraintError{Input: s, Cause: err}
		}
		preds = append(preds, predicate{op: op, v: v})
	}

	if len(preds) == 0 {
		return Constraint{}, &MalformedConstraintError{Input: s}
	}

	return Constraint{predicates: preds}, nil
}

// extractOperator splits a clause like ">=1.2.3" into its operator (EQ
// canonicalized from "=" if bare) and the remaining version text. A clause
// with no recognized operator prefix is treated as an implicit ">=".
func extractOperator(clause string) (Operator, string) {
	switch {
	case strings.HasPrefix(clause, "=="):
		return EQ, clause[2:]
	case strings.HasPrefix(clause, ">="):
		return GE, clause[2:]
	case strings.HasPrefix(clause, "<="):
		return LE, clause[2:]
	case strings.HasPrefix(clause, "!="):
		return NE, clause[2:]
	case strings.HasPrefix(clause, ">"):
		return GT, clause[1:]
	case strings.HasPrefix(clause, "<"):
		return LT, clause[1:]
	case strings.HasPrefix(clause, "="):
		return EQ, clause[1:]
	default:
		return GE, clause
	}
}

// Satisfies reports whether v satisfies every predicate in c.
func Satisfies(c Constraint, v version.Version) bool {
	for _, p := range c.predicates {
		if !p.matches(v) {
			return false
		}
	}
	return true
}

// Merge conjoins two Constraints: the result is satisfied by a Version iff
// both inputs are. Merge is commutative and associative.
func Merge(a, b Constraint) Constraint {
	out := make([]predicate, 0, len(a.predicates)+len(b.predicates))
	out = append(out, a.predicates...)
	out = append(out, b.predicates...)
	return Constraint{predicates: out}
}

// String renders c as a comma-separated predicate list, or "*" if c admits
// every version.
func (c Constraint) String() string {
	if len(c.predicates) == 0 {
		return "*"
	}
	parts := make([]string, len(c.predicates))
	for i, p := range c.predicates {
		parts[i] = p.String()
	}
	return strings.Join(parts, ", ")
}

// Any is the always-true constraint.
func Any() Constraint {
	return Constraint{}
}

// IsAny reports whether c admits every version.
func IsAny(c Constraint) bool {
	return len(c.predicates) == 0
}
