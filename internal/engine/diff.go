package engine

import (
	"sort"
	"strings"
)

// Diff is the outcome of comparing two collections. Both slices are sorted
// deterministically; an empty diff means the mutation changed nothing and
// must produce neither an audit entry nor a notification.
type Diff struct {
	Added   []string `json:"added"`
	Removed []string `json:"removed"`
}

// Empty reports whether the two collections were equal after normalization.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0
}

// Describe renders the diff as joined "added X" / "removed Y" clauses.
// An empty diff renders as the empty string.
func (d Diff) Describe() string {
	clauses := make([]string, 0, len(d.Added)+len(d.Removed))
	for _, a := range d.Added {
		clauses = append(clauses, "added "+a)
	}
	for _, r := range d.Removed {
		clauses = append(clauses, "removed "+r)
	}
	return strings.Join(clauses, ", ")
}

// DiffCodes compares two collections of codes. Codes are normalized by
// trimming and lowercasing before comparison; results sort lexically.
func DiffCodes(previous, next []string) Diff {
	prev := normalizeCodes(previous)
	curr := normalizeCodes(next)

	d := Diff{Added: subtract(curr, prev), Removed: subtract(prev, curr)}
	sort.Strings(d.Added)
	sort.Strings(d.Removed)
	return d
}

func normalizeCodes(codes []string) map[string]bool {
	set := make(map[string]bool, len(codes))
	for _, c := range codes {
		c = strings.ToLower(strings.TrimSpace(c))
		if c != "" {
			set[c] = true
		}
	}
	return set
}

func subtract(from, other map[string]bool) []string {
	out := make([]string, 0)
	for k := range from {
		if !other[k] {
			out = append(out, k)
		}
	}
	return out
}
