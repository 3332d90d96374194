package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllStrategiesUniqueIDs(t *testing.T) {
	all := AllStrategies()
	require.Len(t, all, 29)

	seen := make(map[string]bool, len(all))
	for _, s := range all {
		id := s.ID()
		require.NotEmpty(t, id)
		assert.Falsef(t, seen[id], "duplicate strategy id %q", id)
		seen[id] = true
	}
}

func TestAllStrategiesDefaultParamsDoNotPanic(t *testing.T) {
	for _, s := range AllStrategies() {
		assert.NotPanics(t, func() {
			_ = s.DefaultParams()
			_ = s.RequiredIndicators()
		}, "strategy %s", s.ID())
	}
}

func TestRegistryRegistersEveryStrategy(t *testing.T) {
	r := NewRegistry()
	all := AllStrategies()
	require.Len(t, r.IDs(), len(all))

	for _, s := range all {
		got, ok := r.Get(s.ID())
		require.True(t, ok, "strategy %s missing from registry", s.ID())
		assert.Equal(t, s.ID(), got.ID())
		assert.True(t, r.IsKnown(s.ID()))
	}
	assert.False(t, r.IsKnown("not_a_real_strategy"))
}
