package holidays

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEaster(t *testing.T) {
	cases := map[int]string{
		2024: "2024-03-31",
		2025: "2025-04-20",
		2026: "2026-04-05",
		2038: "2038-04-25", // latest possible Easter this century
	}
	for year, want := range cases {
		assert.Equal(t, want, Easter(year).Format("2006-01-02"), "easter %d", year)
	}
}

func TestForYearMovableFeasts(t *testing.T) {
	byName := map[string]string{}
	for _, h := range ForYear(2024) {
		byName[h.Name] = h.Date
	}
	assert.Equal(t, "2024-02-13", byName["Carnaval"])
	assert.Equal(t, "2024-03-29", byName["Paixão de Cristo"])
	assert.Equal(t, "2024-05-30", byName["Corpus Christi"])
}

func TestForYearSortedAndComplete(t *testing.T) {
	list := ForYear(2025)
	require.Len(t, list, 15)
	for i := 1; i < len(list); i++ {
		assert.LessOrEqual(t, list[i-1].Date, list[i].Date)
	}
}

func TestLookup(t *testing.T) {
	h, ok := Lookup(time.Date(2024, 12, 25, 10, 0, 0, 0, time.UTC))
	require.True(t, ok)
	assert.Equal(t, "Natal", h.Name)
	assert.Equal(t, ScopeNational, h.Scope)

	_, ok = Lookup(time.Date(2024, 12, 26, 0, 0, 0, 0, time.UTC))
	assert.False(t, ok)
}
