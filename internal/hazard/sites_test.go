package hazard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSiteCollection_FilterPreservesSidsAndParams(t *testing.T) {
	sites := []Site{
		{SID: 10, Lon: 0, Lat: 0, Params: map[string]float64{"vs30": 300}},
		{SID: 20, Lon: 1, Lat: 1, Params: map[string]float64{"vs30": 400}},
		{SID: 30, Lon: 2, Lat: 2, Params: map[string]float64{"vs30": 500}},
	}
	sc := NewSiteCollection(sites)
	filtered := sc.Filter([]bool{false, true, true})

	require.Equal(t, []int{20, 30}, filtered.Sids())
	require.Equal(t, []float64{400, 500}, filtered.Param("vs30"))
	require.Same(t, sc, filtered.Complete())
}

func TestSiteCollection_Param_MissingYieldsNaN(t *testing.T) {
	sc := NewSiteCollection([]Site{{SID: 1, Params: map[string]float64{}}})
	v := sc.Param("vs30")
	require.Len(t, v, 1)
	require.True(t, v[0] != v[0]) // NaN
}

func TestSiteCollection_Split_AllClose(t *testing.T) {
	sc := sitesAt(0, 0, 1, 2, 3)
	close, far := sc.Split(Location{Lon: 0, Lat: 0}, 1000)
	require.NotNil(t, close)
	require.Nil(t, far)
	require.Equal(t, []int{1, 2, 3}, close.Sids())
}

func TestSiteCollection_Split_AllFar(t *testing.T) {
	sites := []Site{{SID: 1, Lon: 50, Lat: 50}, {SID: 2, Lon: 60, Lat: 60}}
	sc := NewSiteCollection(sites)
	close, far := sc.Split(Location{Lon: 0, Lat: 0}, 10)
	require.Nil(t, close)
	require.NotNil(t, far)
	require.Equal(t, []int{1, 2}, far.Sids())
}

func TestSiteCollection_Split_Mixed(t *testing.T) {
	sites := []Site{
		{SID: 1, Lon: 0, Lat: 0},   // close
		{SID: 2, Lon: 80, Lat: 80}, // far
	}
	sc := NewSiteCollection(sites)
	close, far := sc.Split(Location{Lon: 0, Lat: 0}, 5)
	require.NotNil(t, close)
	require.NotNil(t, far)
	require.Equal(t, []int{1}, close.Sids())
	require.Equal(t, []int{2}, far.Sids())
}

func TestSiteCollection_CompletePreservedThroughSplit(t *testing.T) {
	sc := sitesAt(0, 0, 1, 2)
	close, _ := sc.Split(Location{Lon: 0, Lat: 0}, 1000)
	require.Same(t, sc, close.Complete())
}
