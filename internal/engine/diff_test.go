package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiffCodes_Reflexive(t *testing.T) {
	sets := [][]string{
		nil,
		{},
		{"a"},
		{"run-1", "run-2", "run-3"},
	}
	for _, x := range sets {
		d := DiffCodes(x, x)
		assert.True(t, d.Empty(), "diff(x, x) must be empty for %v", x)
		assert.Empty(t, d.Added)
		assert.Empty(t, d.Removed)
	}
}

func TestDiffCodes_NormalizesBeforeComparing(t *testing.T) {
	d := DiffCodes([]string{"  ABS-01 ", "abs-02"}, []string{"abs-01", " Abs-02"})
	assert.True(t, d.Empty())
}

func TestDiffCodes_AddedAndRemovedSortedLexically(t *testing.T) {
	d := DiffCodes([]string{"zeta", "beta"}, []string{"beta", "alpha", "delta"})

	assert.Equal(t, []string{"alpha", "delta"}, d.Added)
	assert.Equal(t, []string{"zeta"}, d.Removed)
}

func TestDiffCodes_IgnoresEmptyEntries(t *testing.T) {
	d := DiffCodes([]string{"", "  "}, []string{""})
	assert.True(t, d.Empty())
}

func TestDescribe(t *testing.T) {
	d := DiffCodes([]string{"old-run"}, []string{"new-run"})
	assert.Equal(t, "added new-run, removed old-run", d.Describe())
}

func TestDescribe_EmptyDiffIsEmptyString(t *testing.T) {
	assert.Equal(t, "", DiffCodes(nil, nil).Describe())
}
