package hazardconfig

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuild_MaximumDistanceFallsBackToInfinity(t *testing.T) {
	p := Params{MaximumDistanceKm: map[string]float64{"active shallow crust": 200}}
	built := p.Build()
	require.Equal(t, 200.0, built.MaximumDistance("active shallow crust", 6))
	require.True(t, math.IsInf(built.MaximumDistance("stable continental", 6), 1))
}

func TestBuild_SortsIMTOrderWhenUnspecified(t *testing.T) {
	p := Params{IMTLs: map[string][]float64{"SA(0.2)": {0.1}, "PGA": {0.1, 0.2}}}
	built := p.Build()
	require.Equal(t, []string{"PGA", "SA(0.2)"}, built.IMTLs.Names())
	require.Equal(t, 3, built.IMTLs.Len())
}

func TestBuild_KeepsExplicitIMTOrder(t *testing.T) {
	p := Params{
		IMTLs:    map[string][]float64{"SA(0.2)": {0.1}, "PGA": {0.1}},
		IMTOrder: []string{"SA(0.2)", "PGA"},
	}
	built := p.Build()
	require.Equal(t, []string{"SA(0.2)", "PGA"}, built.IMTLs.Names())
}

func TestLoad_YamlFileThenEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hazard.yml")
	require.NoError(t, os.WriteFile(path, []byte(
		"truncation_level: 2\nmax_sites_disagg: 5\nfilter_distance: rjb\n",
	), 0644))

	t.Setenv("HAZARD_TRUNCATION_LEVEL", "3")

	p, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, p.TruncationLevel)
	require.InDelta(t, 3, *p.TruncationLevel, 1e-9) // env wins over the file
	require.Equal(t, 5, p.MaxSitesDisagg)
	require.Equal(t, "rjb", p.FilterDistance)
}

func TestLoad_MissingFileFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.Error(t, err)
}
