package hazard

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/j-gaspar/oq-engine/internal/hazardlog"
	"github.com/j-gaspar/oq-engine/internal/hazardmetrics"
)

// MaximumDistance is the integration-distance capability: callable
// (trt, mag) -> km, returning +Inf outside configured regions (§6).
type MaximumDistance func(trt string, mag float64) float64

// InfiniteMaximumDistance is the default when no maximum_distance table
// is configured: every rupture passes the distance filter.
func InfiniteMaximumDistance(trt string, mag float64) float64 { return math.Inf(1) }

// ReqvForTRT provides the equivalent distance for planar surfaces within
// one tectonic region type (§3 Contexts, §4.2 step 3).
type ReqvForTRT interface {
	Get(repi []float64, mag float64) []float64
}

// Reqv maps a tectonic region type to its ReqvForTRT object.
type Reqv interface {
	Get(trt string) (ReqvForTRT, bool)
}

// ContextMakerParams bundles the recognized ContextMaker construction
// options (§4.2).
type ContextMakerParams struct {
	MaximumDistance     MaximumDistance
	TruncationLevel     *float64
	MaxSitesDisagg      int     // 0 means "use the default of 10"
	CollapseFactor      float64 // 0 means "use the default of 3"
	PointSourceDistance *float64
	MaxRadius           *float64
	FilterDistance      string // "" triggers the rrup/rjb default resolution
	IMTLs               IMTLSet
	Reqv                Reqv
}

// ContextMaker manages the creation of contexts for distances, sites and
// ruptures, and orchestrates rupture iteration, point-source collapse and
// GSIM evaluation (§4.2).
type ContextMaker struct {
	TRT   string
	GSIMs []GSIM
	Bank  Bank

	// Log and Metrics are the engine's diagnostic sinks, attached the way
	// the original attaches its monitors to the cmaker. Both zero values
	// are usable no-ops, so library callers may leave them unset.
	Log     hazardlog.Logger
	Metrics *hazardmetrics.Metrics

	gsimByRlz map[int]GSIM

	RequiresDistances         map[string]bool
	RequiresSitesParameters   map[string]bool
	RequiresRuptureParameters map[string]bool

	FilterDistance string
	Params         ContextMakerParams
	LogLevels      LogLevels
}

func unionRequirements(gsims []GSIM) (dist, sites, rup map[string]bool) {
	dist, sites, rup = map[string]bool{}, map[string]bool{}, map[string]bool{}
	for _, g := range gsims {
		for k := range g.RequiresDistances() {
			dist[k] = true
		}
		for k := range g.RequiresSitesParameters() {
			sites[k] = true
		}
		for k := range g.RequiresRuptureParameters() {
			rup[k] = true
		}
	}
	return
}

func resolveFilterDistance(requested string, requiresDistances map[string]bool) string {
	if requested != "" {
		return requested
	}
	if requiresDistances["rrup"] {
		return "rrup"
	}
	if requiresDistances["rjb"] {
		return "rjb"
	}
	return "rrup"
}

// NewContextMaker builds a ContextMaker for a flat list of GSIMs sharing
// one tectonic region type (§4.2 construction).
func NewContextMaker(trt string, gsims []GSIM, params ContextMakerParams, bank Bank) *ContextMaker {
	cm := newContextMakerBase(trt, gsims, params, bank)
	return cm
}

// NewContextMakerByRlz builds a ContextMaker from a realization-weighted
// GSIM assignment (rlzs_by_gsim in the original), also populating
// GSIMByRlz.
func NewContextMakerByRlz(trt string, gsimsByRlz map[GSIM][]int, params ContextMakerParams, bank Bank) *ContextMaker {
	gsims := make([]GSIM, 0, len(gsimsByRlz))
	for g := range gsimsByRlz {
		gsims = append(gsims, g)
	}
	// the G axis layout must not depend on map iteration order
	sort.Slice(gsims, func(i, j int) bool { return gsims[i].Name() < gsims[j].Name() })
	cm := newContextMakerBase(trt, gsims, params, bank)
	cm.gsimByRlz = make(map[int]GSIM)
	for g, rlzis := range gsimsByRlz {
		for _, rlzi := range rlzis {
			cm.gsimByRlz[rlzi] = g
		}
	}
	return cm
}

func newContextMakerBase(trt string, gsims []GSIM, params ContextMakerParams, bank Bank) *ContextMaker {
	dist, sitesReq, rupReq := unionRequirements(gsims)

	if params.MaxSitesDisagg == 0 {
		params.MaxSitesDisagg = 10
	}
	if params.CollapseFactor == 0 {
		params.CollapseFactor = 3
	}
	if params.MaximumDistance == nil {
		params.MaximumDistance = InfiniteMaximumDistance
	}

	filterDistance := resolveFilterDistance(params.FilterDistance, dist)
	dist[filterDistance] = true
	if params.Reqv != nil {
		dist["repi"] = true
	}
	params.FilterDistance = filterDistance

	return &ContextMaker{
		TRT:                       trt,
		GSIMs:                     gsims,
		Bank:                      bank,
		RequiresDistances:         dist,
		RequiresSitesParameters:   sitesReq,
		RequiresRuptureParameters: rupReq,
		FilterDistance:            filterDistance,
		Params:                    params,
		LogLevels:                 NewLogLevels(params.IMTLs),
	}
}

// GSIMByRlz returns the GSIM assigned to realization rlz, when the
// ContextMaker was built with NewContextMakerByRlz.
func (cm *ContextMaker) GSIMByRlz(rlz int) (GSIM, bool) {
	g, ok := cm.gsimByRlz[rlz]
	return g, ok
}

func minFloat(xs []float64) float64 {
	if len(xs) == 0 {
		return math.Inf(1)
	}
	return floats.Min(xs)
}

// Filter filters the site collection against the rupture by the
// configured filter distance, returning FarAwayRupture-wrapped error when
// every site lies beyond the maximum distance (§4.2 filter).
func (cm *ContextMaker) Filter(sites *SiteCollection, rupture Rupture, mdist *float64) (*SiteCollection, DistancesContext, error) {
	d, err := GetDistances(rupture, sites, cm.FilterDistance)
	if err != nil {
		return nil, DistancesContext{}, err
	}
	values := d.Values()

	max := 0.0
	if mdist != nil {
		max = *mdist
	} else {
		max = cm.Params.MaximumDistance(rupture.TectonicRegionType(), rupture.Mag())
	}

	mask := make([]bool, len(values))
	any := false
	for i, v := range values {
		if v <= max {
			mask[i] = true
			any = true
		}
	}
	if !any {
		return nil, DistancesContext{}, newFarAwayRupture(rupture.RupID(), minFloat(values))
	}

	filteredSites := sites.Filter(mask)
	var filteredValues []float64
	for i, keep := range mask {
		if keep {
			filteredValues = append(filteredValues, values[i])
		}
	}
	return filteredSites, NewDistancesContext(cm.FilterDistance, newDistArray(filteredValues)), nil
}

// AddRupParams materialises exactly the subset of rupture parameters any
// GSIM requires (§4.2.1), returning an UnknownRuptureParameter error for
// anything outside the fixed vocabulary.
func (cm *ContextMaker) AddRupParams(rupture Rupture) (RuptureContext, error) {
	params := make(map[string]float64, len(cm.RequiresRuptureParameters))
	for name := range cm.RequiresRuptureParameters {
		switch name {
		case "mag":
			params[name] = rupture.Mag()
		case "strike":
			params[name] = rupture.Surface().Strike()
		case "dip":
			params[name] = rupture.Surface().Dip()
		case "rake":
			params[name] = rupture.Rake()
		case "ztor":
			params[name] = rupture.Surface().TopEdgeDepth()
		case "hypo_lon":
			params[name] = rupture.Hypocenter().Lon
		case "hypo_lat":
			params[name] = rupture.Hypocenter().Lat
		case "hypo_depth":
			params[name] = rupture.Hypocenter().Depth
		case "width":
			params[name] = rupture.Surface().Width()
		default:
			return RuptureContext{}, &UnknownRuptureParameter{Param: name}
		}
	}
	return RuptureContext{
		Params:         params,
		OccurrenceRate: rupture.OccurrenceRate(),
		ProbsOccur:     rupture.ProbsOccur(),
		TOM:            rupture.TOM(),
	}, nil
}

// MakeContexts filters the site collection against the rupture and
// materialises the distances and rupture-parameter contexts required by
// the GSIM bank (§4.2 make_contexts).
func (cm *ContextMaker) MakeContexts(sites *SiteCollection, rupture Rupture, mdist *float64) (*SiteCollection, DistancesContext, RuptureContext, error) {
	filteredSites, dctx, err := cm.Filter(sites, rupture, mdist)
	if err != nil {
		return nil, DistancesContext{}, RuptureContext{}, err
	}

	for metric := range cm.RequiresDistances {
		if metric == cm.FilterDistance {
			continue
		}
		d, err := GetDistances(rupture, filteredSites, metric)
		if err != nil {
			return nil, DistancesContext{}, RuptureContext{}, err
		}
		dctx.Set(metric, d.Values())
	}

	if cm.Params.Reqv != nil {
		if reqvForTRT, ok := cm.Params.Reqv.Get(rupture.TectonicRegionType()); ok && rupture.Surface().IsPlanar() {
			repi, ok := dctx.Get("repi")
			if ok {
				reqv := reqvForTRT.Get(repi, rupture.Mag())
				if cm.RequiresDistances["rjb"] {
					dctx.Set("rjb", reqv)
				}
				if cm.RequiresDistances["rrup"] {
					hypoDepth := rupture.Hypocenter().Depth
					rrup := make([]float64, len(reqv))
					for i, v := range reqv {
						rrup[i] = math.Sqrt(v*v + hypoDepth*hypoDepth)
					}
					dctx.Set("rrup", rrup)
				}
			}
		}
	}

	rctx, err := cm.AddRupParams(rupture)
	if err != nil {
		return nil, DistancesContext{}, RuptureContext{}, err
	}
	return filteredSites, dctx, rctx, nil
}

// collapsedRupture wraps a representative rupture with a summed
// occurrence rate, sharing (not owning) every other attribute — the Go
// expression of the original's shallow copy (Design Note §9).
type collapsedRupture struct {
	Rupture
	rate float64
}

func (c *collapsedRupture) OccurrenceRate() float64 { return c.rate }

func collapse(rups []Rupture) Rupture {
	return &collapsedRupture{Rupture: rups[0], rate: rups[0].OccurrenceRate() * float64(len(rups))}
}

func weightedAverageDepth(depths []WeightedDepth) float64 {
	if len(depths) == 0 {
		return 0
	}
	ds := make([]float64, len(depths))
	ws := make([]float64, len(depths))
	var sumW float64
	for i, wd := range depths {
		ds[i], ws[i] = wd.Depth, wd.Weight
		sumW += wd.Weight
	}
	if sumW == 0 {
		return 0
	}
	return stat.Mean(ds, ws)
}

// rupsSitesGroup is one (ruptures, sites, maximum-distance) triple
// yielded while iterating a source (§4.2.1 _gen_rups_sites).
type rupsSitesGroup struct {
	Ruptures []Rupture
	Sites    *SiteCollection
	MDist    *float64
}

// genRupsSites implements the point-source collapse optimisation
// (§4.2.1): for small site sets or non-point sources, ruptures are
// yielded untouched (collapse is disabled so rupture-level diagnostics
// stay faithful); otherwise ruptures are grouped by magnitude and, for
// point sources with more than one nodal-plane/hypocenter combination,
// split into a collapsed far-field representative and an uncollapsed
// near-field group.
func (cm *ContextMaker) genRupsSites(src Source, sites *SiteCollection) []rupsSitesGroup {
	loc, hasLoc := src.Location()
	trt := src.TectonicRegionType()
	simple := hasLoc && src.CountNPHC() == 1

	if !hasLoc || sites.Len() <= cm.Params.MaxSitesDisagg {
		return []rupsSitesGroup{{Ruptures: src.IterRuptures(), Sites: sites, MDist: nil}}
	}

	var out []rupsSitesGroup
	for _, mr := range src.GenMagRuptures() {
		mag, rups := mr.Mag, mr.Ruptures

		curLoc := loc
		if !simple {
			curLoc.Depth = weightedAverageDepth(src.HypocenterDistribution())
		}

		mdist := cm.Params.MaximumDistance(trt, mag)
		radius := src.MaxRuptureProjectionRadius(mag)
		if cm.Params.MaxRadius != nil {
			mdist = math.Min(*cm.Params.MaxRadius*radius, mdist)
		}
		m := mdist

		if simple {
			// there is nothing to collapse
			out = append(out, rupsSitesGroup{Ruptures: rups, Sites: sites, MDist: &m})
			continue
		}

		var cdist float64
		if cm.Params.PointSourceDistance != nil {
			cdist = math.Min(*cm.Params.PointSourceDistance, mdist) // legacy approach
		} else {
			cdist = math.Min(cm.Params.CollapseFactor*radius, mdist)
		}

		closeSites, farSites := sites.Split(curLoc, cdist)
		switch {
		case closeSites == nil: // all far
			out = append(out, rupsSitesGroup{Ruptures: []Rupture{collapse(rups)}, Sites: farSites, MDist: &m})
		case farSites == nil: // all close
			out = append(out, rupsSitesGroup{Ruptures: rups, Sites: closeSites, MDist: &m})
		default: // mixed
			out = append(out, rupsSitesGroup{Ruptures: []Rupture{collapse(rups)}, Sites: farSites, MDist: &m})
			out = append(out, rupsSitesGroup{Ruptures: rups, Sites: closeSites, MDist: &m})
		}
	}
	return out
}
