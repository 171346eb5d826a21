package models

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
)

// NamePolicy decides when two Food names collide. Stores index foods by
// Key(name) under a unique constraint, so every store and the service must be
// built with the same policy.
type NamePolicy string

const (
	// NameExact treats names as equal only when they match byte-for-byte
	// after trimming surrounding whitespace.
	NameExact NamePolicy = "exact"
	// NameCaseInsensitive compares Unicode case-folded names.
	NameCaseInsensitive NamePolicy = "case_insensitive"
)

// ParseNamePolicy accepts the configuration spelling of a policy. Empty input
// selects NameExact.
func ParseNamePolicy(s string) (NamePolicy, error) {
	switch p := NamePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return NameExact, nil
	case NameExact, NameCaseInsensitive:
		return p, nil
	default:
		return "", fmt.Errorf("unknown name matching policy %q", s)
	}
}

// Key is the uniqueness key stored alongside a name.
func (p NamePolicy) Key(name string) string {
	name = strings.TrimSpace(name)
	if p == NameCaseInsensitive {
		return cases.Fold().String(name)
	}
	return name
}

// Same reports whether a and b collide under p.
func (p NamePolicy) Same(a, b string) bool {
	return p.Key(a) == p.Key(b)
}
