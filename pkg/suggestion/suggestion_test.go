package suggestion

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTiers_Grade(t *testing.T) {
	tiers := Tiers{1: SeverityMedium, 2: SeverityMajor}

	tests := []struct {
		value  float64
		want   Severity
		wantOK bool
	}{
		{0, 0, false},
		{0.5, 0, false},
		{1, SeverityMedium, true},
		{1.5, SeverityMedium, true},
		{2, SeverityMajor, true},
		{10, SeverityMajor, true},
	}

	for _, tt := range tests {
		got, ok := tiers.Grade(tt.value)
		assert.Equal(t, tt.wantOK, ok, "Grade(%v) ok", tt.value)
		assert.Equal(t, tt.want, got, "Grade(%v)", tt.value)
	}
}

func TestTiers_GradeEmpty(t *testing.T) {
	_, ok := Tiers{}.Grade(100)
	assert.False(t, ok)
}

func TestNewTiered(t *testing.T) {
	s := NewTiered(Tiered{
		Content: "use it",
		Why:     "1 window short",
		Tiers:   Tiers{1: SeverityMedium},
		Value:   1,
	})
	require.NotNil(t, s)
	assert.Equal(t, SeverityMedium, s.Severity)
	assert.Equal(t, float64(1), s.Value)

	assert.Nil(t, NewTiered(Tiered{Tiers: Tiers{1: SeverityMedium}, Value: 0}))
}

func TestParseSeverity(t *testing.T) {
	for _, name := range []string{"minor", "Medium", " MAJOR "} {
		_, err := ParseSeverity(name)
		assert.NoError(t, err, name)
	}

	_, err := ParseSeverity("critical")
	assert.Error(t, err)
}

func TestSeverity_String(t *testing.T) {
	assert.Equal(t, "major", SeverityMajor.String())
	assert.Equal(t, "severity(9)", Severity(9).String())
}

func TestCollector(t *testing.T) {
	c := NewCollector()
	c.Add(Suggestion{Content: "a"})
	c.Add(Suggestion{Content: "b"})

	all := c.All()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Content)
	assert.Equal(t, 2, c.Len())

	all[0].Content = "mutated"
	assert.Equal(t, "a", c.All()[0].Content)
}
