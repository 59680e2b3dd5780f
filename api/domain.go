// Package api is the HTTP surface for batch hazard submission: a thin
// front end that accepts one scenario, runs it synchronously through
// internal/hazard, and returns the resulting ProbabilityMap — no queue,
// no database, no auth, mirroring the teacher's Endpoint/handlers shape
// (api/endpoint.go) generalized from VDS cube requests to hazard
// scenarios.
package api

import (
	"math"
	"sort"

	"github.com/google/uuid"

	"github.com/j-gaspar/oq-engine/internal/hazard"
)

// pointSurface is a minimal Surface implementation treating a rupture as
// a point at its hypocenter: real surface-geometry computation is an
// external capability per the Non-goals, so the JSON scenario format
// ships this one trivial stand-in rather than reimplementing rupture
// geometry.
type pointSurface struct {
	lon, lat, depth    float64
	strike, dip, width float64
	planar             bool
}

func (s *pointSurface) epicentral(mesh hazard.Mesh) []float64 {
	lons, lats := mesh.Lons(), mesh.Lats()
	out := make([]float64, mesh.Len())
	for i := range out {
		out[i] = hazard.GreatCircleKm(s.lon, s.lat, lons[i], lats[i])
	}
	return out
}

func (s *pointSurface) MinDistance(mesh hazard.Mesh) []float64 { return s.epicentral(mesh) }
func (s *pointSurface) JoynerBoore(mesh hazard.Mesh) []float64 { return s.epicentral(mesh) }
func (s *pointSurface) Rx(mesh hazard.Mesh) []float64          { return make([]float64, mesh.Len()) }
func (s *pointSurface) Ry0(mesh hazard.Mesh) []float64         { return make([]float64, mesh.Len()) }

func (s *pointSurface) Azimuth(mesh hazard.Mesh) []float64 {
	lons, lats := mesh.Lons(), mesh.Lats()
	out := make([]float64, mesh.Len())
	for i := range out {
		out[i] = math.Atan2(lons[i]-s.lon, lats[i]-s.lat) * 180 / math.Pi
	}
	return out
}
func (s *pointSurface) AzimuthOfClosestPoint(mesh hazard.Mesh) []float64 { return s.Azimuth(mesh) }

func (s *pointSurface) ClosestPoints(mesh hazard.Mesh) ([]float64, []float64) {
	n := mesh.Len()
	lons := make([]float64, n)
	lats := make([]float64, n)
	for i := range lons {
		lons[i], lats[i] = s.lon, s.lat
	}
	return lons, lats
}

func (s *pointSurface) Strike() float64       { return s.strike }
func (s *pointSurface) Dip() float64          { return s.dip }
func (s *pointSurface) TopEdgeDepth() float64 { return s.depth }
func (s *pointSurface) Width() float64        { return s.width }
func (s *pointSurface) IsPlanar() bool        { return s.planar }

// jsonRupture adapts a RuptureDef into hazard.Rupture.
type jsonRupture struct {
	def     RuptureDef
	surface hazard.Surface
	tom     hazard.TemporalOccurrenceModel
}

func (r *jsonRupture) RupID() string        { return r.def.ID }
func (r *jsonRupture) Mag() float64         { return r.def.Mag }
func (r *jsonRupture) Rake() float64        { return r.def.Rake }
func (r *jsonRupture) Hypocenter() hazard.Location {
	return hazard.Location{Lon: r.def.Hypocenter.Lon, Lat: r.def.Hypocenter.Lat, Depth: r.def.Hypocenter.Depth}
}
func (r *jsonRupture) Surface() hazard.Surface { return r.surface }

func (r *jsonRupture) OccurrenceRate() float64 {
	if r.def.OccurrenceRate == nil {
		return math.NaN()
	}
	return *r.def.OccurrenceRate
}

func (r *jsonRupture) ProbsOccur() []float64 { return r.def.ProbsOccur }

func (r *jsonRupture) Weight() (float64, bool) {
	if r.def.Weight == nil {
		return 0, false
	}
	return *r.def.Weight, true
}

func (r *jsonRupture) TectonicRegionType() string          { return r.def.TRT }
func (r *jsonRupture) TOM() hazard.TemporalOccurrenceModel { return r.tom }
func (r *jsonRupture) CDPP(mesh hazard.Mesh) []float64     { return make([]float64, mesh.Len()) }

// jsonSource adapts a SourceDef into hazard.Source.
type jsonSource struct {
	def      SourceDef
	ruptures []hazard.Rupture
}

func (s *jsonSource) ID() int            { return s.def.ID }
func (s *jsonSource) SourceID() string   { return s.def.SourceID }
func (s *jsonSource) SrcGroupIDs() []int { return s.def.GroupIDs }

func (s *jsonSource) MutexWeight() (float64, bool) {
	if s.def.MutexWeight == nil {
		return 0, false
	}
	return *s.def.MutexWeight, true
}

func (s *jsonSource) Location() (hazard.Location, bool) {
	if s.def.Location == nil {
		return hazard.Location{}, false
	}
	return hazard.Location{Lon: s.def.Location.Lon, Lat: s.def.Location.Lat, Depth: s.def.Location.Depth}, true
}

func (s *jsonSource) TectonicRegionType() string { return s.def.TRT }
func (s *jsonSource) CountNPHC() int             { return s.def.CountNPHC }

func (s *jsonSource) HypocenterDistribution() []hazard.WeightedDepth {
	out := make([]hazard.WeightedDepth, len(s.def.HypocenterDistribution))
	for i, wd := range s.def.HypocenterDistribution {
		out[i] = hazard.WeightedDepth{Weight: wd.Weight, Depth: wd.Depth}
	}
	return out
}

func (s *jsonSource) MaxRuptureProjectionRadius(float64) float64 { return s.def.MaxRadius }
func (s *jsonSource) IterRuptures() []hazard.Rupture             { return s.ruptures }

func (s *jsonSource) GenMagRuptures() []hazard.MagRuptures {
	byMag := make(map[float64][]hazard.Rupture)
	var order []float64
	for _, r := range s.ruptures {
		if _, seen := byMag[r.Mag()]; !seen {
			order = append(order, r.Mag())
		}
		byMag[r.Mag()] = append(byMag[r.Mag()], r)
	}
	out := make([]hazard.MagRuptures, len(order))
	for i, mag := range order {
		out[i] = hazard.MagRuptures{Mag: mag, Ruptures: byMag[mag]}
	}
	return out
}

// jsonGSIM adapts a GSIMDef into hazard.GSIM.
type jsonGSIM struct {
	def GSIMDef
}

func (g *jsonGSIM) Name() string                              { return g.def.Name }
func (g *jsonGSIM) RequiresDistances() map[string]bool         { return toSet(g.def.RequiresDistances) }
func (g *jsonGSIM) RequiresSitesParameters() map[string]bool   { return toSet(g.def.RequiresSitesParameters) }
func (g *jsonGSIM) RequiresRuptureParameters() map[string]bool { return toSet(g.def.RequiresRuptureParameters) }

func (g *jsonGSIM) Weight(imt string) (float64, bool) {
	if g.def.Weights == nil {
		return 1, false
	}
	w, ok := g.def.Weights[imt]
	if !ok {
		return 1, false
	}
	return w, true
}

func toSet(names []string) map[string]bool {
	out := make(map[string]bool, len(names))
	for _, n := range names {
		out[n] = true
	}
	return out
}

// Build translates a ScenarioRequest into the concrete domain objects
// GetPmapByGrp needs: sources, the site collection, GSIMs and a
// ContextMakerParams.
func (req ScenarioRequest) Build() ([]hazard.Source, *hazard.SiteCollection, []hazard.GSIM, hazard.ContextMakerParams, error) {
	sites := make([]hazard.Site, len(req.Sites))
	for i, s := range req.Sites {
		sites[i] = hazard.Site{SID: s.Sid, Lon: s.Lon, Lat: s.Lat, Params: s.Params}
	}
	sc := hazard.NewSiteCollection(sites)

	gsims := make([]hazard.GSIM, len(req.GSIMs))
	for i, g := range req.GSIMs {
		gsims[i] = &jsonGSIM{def: g}
	}

	sources := make([]hazard.Source, len(req.Sources))
	for i, srcDef := range req.Sources {
		ruptures := make([]hazard.Rupture, len(srcDef.Ruptures))
		for j, rdef := range srcDef.Ruptures {
			if rdef.ID == "" {
				// Scenario submissions may omit per-rupture ids (they only
				// matter for FarAwayRupture diagnostics and RupData rows);
				// assign a synthetic one so those stay distinguishable.
				rdef.ID = uuid.NewString()
			}
			surf := &pointSurface{
				lon: rdef.Hypocenter.Lon, lat: rdef.Hypocenter.Lat, depth: rdef.Hypocenter.Depth,
				strike: rdef.Surface.Strike, dip: rdef.Surface.Dip, width: rdef.Surface.Width,
				planar: rdef.Surface.Planar,
			}
			var tom hazard.TemporalOccurrenceModel = hazard.PoissonTOM{TimeSpan: req.TimeSpanYears}
			ruptures[j] = &jsonRupture{def: rdef, surface: surf, tom: tom}
		}
		sources[i] = &jsonSource{def: srcDef, ruptures: ruptures}
	}

	order := req.IMTOrder
	if len(order) == 0 {
		for imt := range req.IMTLs {
			order = append(order, imt)
		}
		// keep the flattened (L) layout reproducible across runs when the
		// request gives no explicit order
		sort.Strings(order)
	}

	var maxDist hazard.MaximumDistance
	if len(req.MaximumDistance) > 0 {
		table := req.MaximumDistance
		maxDist = func(trt string, mag float64) float64 {
			if v, ok := table[trt]; ok {
				return v
			}
			return math.Inf(1)
		}
	}

	params := hazard.ContextMakerParams{
		MaximumDistance:     maxDist,
		TruncationLevel:     req.TruncationLevel,
		MaxSitesDisagg:      req.MaxSitesDisagg,
		CollapseFactor:      req.CollapseFactor,
		PointSourceDistance: req.PointSourceDistance,
		MaxRadius:           req.MaxRadius,
		FilterDistance:      req.FilterDistance,
		IMTLs:               hazard.NewIMTLSet(order, req.IMTLs),
	}

	return sources, sc, gsims, params, nil
}
