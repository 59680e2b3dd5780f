package hazard

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestGSIM(name string, weights map[string]float64) *fakeGSIM {
	return &fakeGSIM{
		name:     name,
		reqDist:  map[string]bool{"rrup": true},
		reqSites: map[string]bool{},
		reqRup:   map[string]bool{"mag": true},
		weights:  weights,
	}
}

func TestContextMaker_FilterDistanceDefaultsToRrup(t *testing.T) {
	gsim := newTestGSIM("G1", nil)
	cm := NewContextMaker("Active Shallow Crust", []GSIM{gsim}, ContextMakerParams{IMTLs: singleIMTLs(0.1)}, &fakeBank{})
	require.Equal(t, "rrup", cm.FilterDistance)
}

func TestContextMaker_Filter_FarAway(t *testing.T) {
	surf := &fakeSurface{minDistance: []float64{1000, 950}}
	rup := &fakeRupture{id: "rup-far", mag: 6, surface: surf, trt: "Active Shallow Crust"}
	sites := sitesAt(0, 0, 1, 2)

	mdist := 200.0
	gsim := newTestGSIM("G1", nil)
	cm := NewContextMaker("Active Shallow Crust", []GSIM{gsim}, ContextMakerParams{IMTLs: singleIMTLs(0.1)}, &fakeBank{})

	_, _, err := cm.Filter(sites, rup, &mdist)
	require.Error(t, err)
	require.Contains(t, err.Error(), "rup-far")
}

func TestContextMaker_Filter_Idempotent(t *testing.T) {
	surf := &fakeSurface{minDistance: []float64{10, 300, 20}}
	rup := &fakeRupture{id: "rup-1", mag: 6, surface: surf, trt: "Active Shallow Crust"}
	sites := sitesAt(0, 0, 1, 2, 3)
	mdist := 100.0

	gsim := newTestGSIM("G1", nil)
	cm := NewContextMaker("Active Shallow Crust", []GSIM{gsim}, ContextMakerParams{IMTLs: singleIMTLs(0.1)}, &fakeBank{})

	filtered1, _, err := cm.Filter(sites, rup, &mdist)
	require.NoError(t, err)

	surf2 := &fakeSurface{minDistance: []float64{10, 20}} // distances for the already-filtered sids
	rup2 := &fakeRupture{id: "rup-1", mag: 6, surface: surf2, trt: "Active Shallow Crust"}
	filtered2, _, err := cm.Filter(filtered1, rup2, &mdist)
	require.NoError(t, err)

	require.Equal(t, filtered1.Sids(), filtered2.Sids())
}

func TestContextMaker_MakeContexts_ReqvOverridesPlanarSurface(t *testing.T) {
	surf := &fakeSurface{minDistance: []float64{50}, planar: true}
	rup := &fakeRupture{id: "rup-1", mag: 6, surface: surf, trt: "Active Shallow Crust", hypo: Location{Depth: 8}}
	sites := sitesAt(0, 0, 1)

	gsim := &fakeGSIM{
		name:     "G1",
		reqDist:  map[string]bool{"rrup": true, "rjb": true, "repi": true},
		reqSites: map[string]bool{},
		reqRup:   map[string]bool{"mag": true},
	}
	reqv := &fakeReqv{forTRT: &fakeReqvForTRT{value: 30}}
	cm := NewContextMaker("Active Shallow Crust", []GSIM{gsim}, ContextMakerParams{
		IMTLs: singleIMTLs(0.1),
		Reqv:  reqv,
	}, &fakeBank{})

	_, dctx, _, err := cm.MakeContexts(sites, rup, nil)
	require.NoError(t, err)

	rjb, ok := dctx.Get("rjb")
	require.True(t, ok)
	require.InDelta(t, 30, rjb[0], 1e-9)

	rrup, ok := dctx.Get("rrup")
	require.True(t, ok)
	require.InDelta(t, math.Sqrt(30*30+8*8), rrup[0], 1e-9)
}

func TestContextMaker_AddRupParams_UnknownParameter(t *testing.T) {
	gsim := &fakeGSIM{
		name:    "G1",
		reqDist: map[string]bool{"rrup": true},
		reqRup:  map[string]bool{"bogus": true},
	}
	cm := NewContextMaker("Active Shallow Crust", []GSIM{gsim}, ContextMakerParams{IMTLs: singleIMTLs(0.1)}, &fakeBank{})
	rup := &fakeRupture{id: "rup-1", mag: 6, surface: &fakeSurface{minDistance: []float64{1}}}
	_, err := cm.AddRupParams(rup)
	require.Error(t, err)
	var unk *UnknownRuptureParameter
	require.True(t, errors.As(err, &unk))
}

func TestContextMaker_GetPmap_FarAwaySourceIsEmpty(t *testing.T) {
	surf := &fakeSurface{minDistance: []float64{1000, 1000}}
	rup := &fakeRupture{id: "rup-far", mag: 6, rate: 0.01, tom: PoissonTOM{TimeSpan: 1}, surface: surf, trt: "Active Shallow Crust"}
	src := &fakeSource{id: 1, sourceID: "src-1", groupIDs: []int{0}, ruptures: []Rupture{rup}}
	sites := sitesAt(0, 0, 1, 2)

	gsim := newTestGSIM("G1", nil)
	maxDist := 200.0
	cm := NewContextMaker("Active Shallow Crust", []GSIM{gsim}, ContextMakerParams{
		IMTLs:           singleIMTLs(0.1),
		MaximumDistance: func(trt string, mag float64) float64 { return maxDist },
	}, &fakeBank{poe: 0.5})

	pmap, err := cm.GetPmap(src, sites, true)
	require.NoError(t, err)
	require.Equal(t, 0, pmap.NRups)
	require.Equal(t, 0, pmap.NSites)
	require.True(t, pmap.Empty())
}

func TestContextMaker_GetPmap_SingleSiteSingleRupturePoisson(t *testing.T) {
	// Scenario 1 driven through the full pipeline.
	surf := &fakeSurface{minDistance: []float64{10}}
	rup := &fakeRupture{id: "rup-1", mag: 6, rate: 0.01, tom: PoissonTOM{TimeSpan: 1}, surface: surf, trt: "Active Shallow Crust"}
	src := &fakeSource{id: 1, sourceID: "src-1", groupIDs: []int{0}, ruptures: []Rupture{rup}}
	sites := sitesAt(0, 0, 42)

	gsim := newTestGSIM("G1", nil)
	cm := NewContextMaker("Active Shallow Crust", []GSIM{gsim}, ContextMakerParams{
		IMTLs:           singleIMTLs(0.1),
		MaximumDistance: InfiniteMaximumDistance,
	}, &fakeBank{poe: 0.5})

	pmap, err := cm.GetPmap(src, sites, true)
	require.NoError(t, err)
	require.Equal(t, 1, pmap.NRups)
	require.InDelta(t, math.Exp(-0.005), pmap.Array(42)[0][0], 1e-12)
}

func TestContextMaker_GetPmap_IndependentFoldIsOrderInsensitive(t *testing.T) {
	surf := &fakeSurface{minDistance: []float64{10}}
	rupA := &fakeRupture{id: "rup-a", mag: 6, rate: 0.01, tom: PoissonTOM{TimeSpan: 1}, surface: surf, trt: "Active Shallow Crust"}
	rupB := &fakeRupture{id: "rup-b", mag: 6, rate: 0.02, tom: PoissonTOM{TimeSpan: 1}, surface: surf, trt: "Active Shallow Crust"}
	sites := sitesAt(0, 0, 1)

	gsim := newTestGSIM("G1", nil)
	run := func(order []Rupture) float64 {
		src := &fakeSource{id: 1, sourceID: "src-1", groupIDs: []int{0}, ruptures: order}
		cm := NewContextMaker("Active Shallow Crust", []GSIM{gsim}, ContextMakerParams{
			IMTLs:           singleIMTLs(0.1),
			MaximumDistance: InfiniteMaximumDistance,
		}, &fakeBank{poe: 0.3})
		pmap, err := cm.GetPmap(src, sites, true)
		require.NoError(t, err)
		return pmap.Array(1)[0][0]
	}

	ab := run([]Rupture{rupA, rupB})
	ba := run([]Rupture{rupB, rupA})
	require.InDelta(t, ab, ba, 1e-12)
}

func TestContextMaker_GetPmap_ZeroWeightGsimStaysAtIdentity(t *testing.T) {
	surf := &fakeSurface{minDistance: []float64{10}}
	rup := &fakeRupture{id: "rup-1", mag: 6, rate: 0.01, tom: PoissonTOM{TimeSpan: 1}, surface: surf, trt: "Active Shallow Crust"}
	src := &fakeSource{id: 1, sourceID: "src-1", groupIDs: []int{0}, ruptures: []Rupture{rup}}
	sites := sitesAt(0, 0, 1)

	zeroed := newTestGSIM("G-zero", map[string]float64{"PGA": 0})
	cm := NewContextMaker("Active Shallow Crust", []GSIM{zeroed}, ContextMakerParams{
		IMTLs:           singleIMTLs(0.1),
		MaximumDistance: InfiniteMaximumDistance,
	}, &fakeBank{poe: 0.9})

	pmap, err := cm.GetPmap(src, sites, true)
	require.NoError(t, err)
	// poe forced to 0 -> pne = exp(0) = 1, the independent-regime identity.
	require.InDelta(t, 1.0, pmap.Array(1)[0][0], 1e-12)
}

func TestContextMaker_GenRupsSites_SimpleSourceSkipsCollapse(t *testing.T) {
	surf := &fakeSurface{minDistance: []float64{1}}
	rup := &fakeRupture{id: "rup-1", surface: surf}
	src := &fakeSource{
		id: 1, sourceID: "src-1", groupIDs: []int{0},
		loc: Location{Lon: 0, Lat: 0}, hasLoc: true, nphc: 1,
		magRuptures: []MagRuptures{{Mag: 6, Ruptures: []Rupture{rup}}},
		radius:      5,
	}
	manySites := make([]Site, 20)
	for i := range manySites {
		manySites[i] = Site{SID: i}
	}
	sites := NewSiteCollection(manySites)

	gsim := newTestGSIM("G1", nil)
	cm := NewContextMaker("Active Shallow Crust", []GSIM{gsim}, ContextMakerParams{
		IMTLs:           singleIMTLs(0.1),
		MaxSitesDisagg:  10,
		MaximumDistance: InfiniteMaximumDistance,
	}, &fakeBank{})

	groups := cm.genRupsSites(src, sites)
	require.Len(t, groups, 1)
	require.Len(t, groups[0].Ruptures, 1)
	require.Same(t, rup, groups[0].Ruptures[0])
}

func TestContextMaker_GenRupsSites_MixedSplitYieldsCollapsedAndClose(t *testing.T) {
	rups := []Rupture{
		&fakeRupture{id: "r1", rate: 0.001},
		&fakeRupture{id: "r2", rate: 0.001},
	}
	src := &fakeSource{
		id: 1, sourceID: "src-point", groupIDs: []int{0},
		loc: Location{Lon: 0, Lat: 0}, hasLoc: true, nphc: 4,
		hypoDist:    []WeightedDepth{{Weight: 1, Depth: 10}},
		radius:      5,
		magRuptures: []MagRuptures{{Mag: 6, Ruptures: rups}},
	}

	sites := make([]Site, 16)
	sites[0] = Site{SID: 0, Lon: 0, Lat: 0} // within the collapse radius
	for i := 1; i < len(sites); i++ {
		sites[i] = Site{SID: i, Lon: 1, Lat: 0} // ~111 km out
	}

	gsim := newTestGSIM("G1", nil)
	cm := NewContextMaker("Active Shallow Crust", []GSIM{gsim}, ContextMakerParams{
		IMTLs:           singleIMTLs(0.1),
		MaxSitesDisagg:  10,
		MaximumDistance: InfiniteMaximumDistance,
	}, &fakeBank{})

	groups := cm.genRupsSites(src, NewSiteCollection(sites))
	require.Len(t, groups, 2)
	require.Len(t, groups[0].Ruptures, 1) // collapsed far-field representative
	require.Equal(t, 15, groups[0].Sites.Len())
	require.Len(t, groups[1].Ruptures, 2) // near-field ruptures kept intact
	require.Equal(t, []int{0}, groups[1].Sites.Sids())
}

func TestContextMaker_GetPmap_CollapseMatchesPerRuptureFold(t *testing.T) {
	// Scenario 5 property: for far sites the collapsed representative with
	// summed rate must reproduce the per-rupture Poisson fold.
	const nSites = 12
	surf := &fakeSurface{minDistance: constDistances(nSites, 50)}
	rups := make([]Rupture, 5)
	for i := range rups {
		rups[i] = &fakeRupture{
			id: fmt.Sprintf("r%d", i), mag: 6, rate: 0.002,
			tom: PoissonTOM{TimeSpan: 1}, surface: surf, trt: "Active Shallow Crust",
		}
	}
	collapsing := &fakeSource{
		id: 1, sourceID: "src-point", groupIDs: []int{0},
		loc: Location{Lon: 0, Lat: 0}, hasLoc: true, nphc: 5,
		hypoDist:    []WeightedDepth{{Weight: 1, Depth: 10}},
		radius:      5,
		magRuptures: []MagRuptures{{Mag: 6, Ruptures: rups}},
	}
	// The same ruptures forced down the uncollapsed path: without a
	// location genRupsSites yields them untouched.
	plain := &fakeSource{id: 1, sourceID: "src-point", groupIDs: []int{0}, ruptures: rups}

	sites := make([]Site, nSites)
	for i := range sites {
		sites[i] = Site{SID: i, Lon: 1, Lat: 0} // ~111 km out, beyond the collapse radius
	}

	gsim := newTestGSIM("G1", nil)
	newCM := func() *ContextMaker {
		return NewContextMaker("Active Shallow Crust", []GSIM{gsim}, ContextMakerParams{
			IMTLs:           singleIMTLs(0.1),
			MaxSitesDisagg:  10,
			MaximumDistance: InfiniteMaximumDistance,
		}, &fakeBank{poe: 0.4})
	}

	collapsed, err := newCM().GetPmap(collapsing, NewSiteCollection(sites), true)
	require.NoError(t, err)
	perRupture, err := newCM().GetPmap(plain, NewSiteCollection(sites), true)
	require.NoError(t, err)

	for _, sid := range perRupture.Sids() {
		require.InDelta(t, perRupture.Array(sid)[0][0], collapsed.Array(sid)[0][0], 1e-12)
	}
	require.InDelta(t, math.Exp(-0.01*0.4), collapsed.Array(0)[0][0], 1e-12)
}

func TestContextMaker_GSIMByRlz(t *testing.T) {
	g1 := newTestGSIM("G1", nil)
	g2 := newTestGSIM("G2", nil)
	cm := NewContextMakerByRlz("Active Shallow Crust", map[GSIM][]int{g1: {0, 1}, g2: {2}},
		ContextMakerParams{IMTLs: singleIMTLs(0.1)}, &fakeBank{})

	got, ok := cm.GSIMByRlz(2)
	require.True(t, ok)
	require.Same(t, g2, got)

	_, ok = cm.GSIMByRlz(7)
	require.False(t, ok)
}

func TestCollapse_SumsOccurrenceRate(t *testing.T) {
	r1 := &fakeRupture{id: "r1", rate: 0.01}
	r2 := &fakeRupture{id: "r2", rate: 0.01}
	rep := collapse([]Rupture{r1, r2})
	require.InDelta(t, 0.02, rep.OccurrenceRate(), 1e-15)
	require.Equal(t, "r1", rep.RupID()) // other attributes inherited from rups[0]
}

type fakeReqvForTRT struct{ value float64 }

func (f *fakeReqvForTRT) Get(repi []float64, mag float64) []float64 {
	out := make([]float64, len(repi))
	for i := range out {
		out[i] = f.value
	}
	return out
}

type fakeReqv struct{ forTRT ReqvForTRT }

func (f *fakeReqv) Get(trt string) (ReqvForTRT, bool) { return f.forTRT, f.forTRT != nil }
