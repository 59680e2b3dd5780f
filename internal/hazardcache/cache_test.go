package hazardcache

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/j-gaspar/oq-engine/internal/hazard"
)

func TestNewCache_ZeroSizeConstructs(t *testing.T) {
	c, err := NewCache(0)
	require.NoError(t, err)
	_, hit := c.Get("anything")
	require.False(t, hit)
}

func TestCache_SetGetRoundtrip(t *testing.T) {
	c, err := NewCache(1 << 20)
	require.NoError(t, err)

	pm := hazard.NewProbabilityMap(1, 1)
	c.Set("key", &Entry{Pmap: pm})
	c.rc.Wait() // ristretto applies sets asynchronously

	got, hit := c.Get("key")
	require.True(t, hit)
	require.Same(t, pm, got.Pmap)
}

func TestCache_MissReturnsFalse(t *testing.T) {
	c, err := NewCache(1 << 20)
	require.NoError(t, err)
	_, hit := c.Get("never-set")
	require.False(t, hit)
}
