package hazard

import "math"

// RupData collects per-rupture diagnostic rows into column-oriented
// arrays (§4.6). Scalar columns become contiguous arrays on read; sid,
// distance, lon/lat columns remain ragged (one slice per rupture) since
// each rupture survives for a different number of sites.
type RupData struct {
	requiredDistances map[string]bool
	requiredRupParams map[string]bool

	srcIdx         []int
	occurrenceRate []float64
	weight         []float64
	probsOccur     [][]float64
	ruptureParams  map[string][]float64
	sids           [][]int
	distances      map[string][][]float64
	lons           [][]float64
	lats           [][]float64
}

// NewRupData builds an accumulator for the given required distance and
// rupture-parameter sets (mirrors ContextMaker.REQUIRES_DISTANCES /
// REQUIRES_RUPTURE_PARAMETERS, which RupData reads from its cmaker in the
// original).
func NewRupData(requiredDistances, requiredRupParams map[string]bool) *RupData {
	return &RupData{
		requiredDistances: requiredDistances,
		requiredRupParams: requiredRupParams,
		ruptureParams:     make(map[string][]float64),
		distances:         make(map[string][][]float64),
	}
}

// Add appends one surviving rupture's diagnostic row: source index,
// occurrence rate, weight (NaN if absent), probs_occur, each required
// rupture parameter, the sid vector, each required distance array, and
// the closest-point lon/lat arrays (§4.6).
func (r *RupData) Add(rupture Rupture, srcID int, sites *SiteCollection, dctx DistancesContext, rctx RuptureContext) {
	r.srcIdx = append(r.srcIdx, srcID)
	r.occurrenceRate = append(r.occurrenceRate, rupture.OccurrenceRate())

	w, ok := rupture.Weight()
	if !ok {
		w = math.NaN()
	}
	r.weight = append(r.weight, w)

	if math.IsNaN(rupture.OccurrenceRate()) {
		r.probsOccur = append(r.probsOccur, append([]float64(nil), rupture.ProbsOccur()...))
	} else {
		r.probsOccur = append(r.probsOccur, nil)
	}

	for param := range r.requiredRupParams {
		v, _ := rctx.Get(param)
		r.ruptureParams[param] = append(r.ruptureParams[param], v)
	}

	r.sids = append(r.sids, append([]int(nil), sites.Sids()...))

	for metric := range r.requiredDistances {
		values, ok := dctx.Get(metric)
		if !ok {
			arr, _ := GetDistances(rupture, sites, metric)
			values = arr.Values()
		}
		r.distances[metric] = append(r.distances[metric], append([]float64(nil), values...))
	}

	lons, lats := rupture.Surface().ClosestPoints(sites)
	r.lons = append(r.lons, lons)
	r.lats = append(r.lats, lats)
}

// RupDataColumns is the finalised, contiguous-where-possible view of a
// RupData accumulator (§4.6: "on finalisation, columns become contiguous
// arrays; variable-length rows remain ragged").
type RupDataColumns struct {
	SrcIdx         []int
	GrpID          []int
	OccurrenceRate []float64
	Weight         []float64
	ProbsOccur     [][]float64
	RuptureParams  map[string][]float64
	Sids           [][]int
	Distances      map[string][][]float64
	Lons           [][]float64
	Lats           [][]float64
}

// Len returns the number of accumulated rows.
func (c *RupDataColumns) Len() int {
	if c == nil {
		return 0
	}
	return len(c.SrcIdx)
}

// Columns finalises the accumulator into RupDataColumns.
func (r *RupData) Columns() *RupDataColumns {
	return &RupDataColumns{
		SrcIdx:         r.srcIdx,
		OccurrenceRate: r.occurrenceRate,
		Weight:         r.weight,
		ProbsOccur:     r.probsOccur,
		RuptureParams:  r.ruptureParams,
		Sids:           r.sids,
		Distances:      r.distances,
		Lons:           r.lons,
		Lats:           r.lats,
	}
}

// Extend appends other's rows onto c in place (used by GetPmapByGrp to
// fold per-source rupdata into the per-group accumulation, §4.4). grpID
// is stamped onto every row other contributes, synthesising the grp_id
// column the original assembles in get_pmap_by_grp (contexts.py:424-430).
func (c *RupDataColumns) Extend(other *RupDataColumns, grpID int) {
	if other == nil {
		return
	}
	for range other.SrcIdx {
		c.GrpID = append(c.GrpID, grpID)
	}
	c.SrcIdx = append(c.SrcIdx, other.SrcIdx...)
	c.OccurrenceRate = append(c.OccurrenceRate, other.OccurrenceRate...)
	c.Weight = append(c.Weight, other.Weight...)
	c.ProbsOccur = append(c.ProbsOccur, other.ProbsOccur...)
	c.Sids = append(c.Sids, other.Sids...)
	c.Lons = append(c.Lons, other.Lons...)
	c.Lats = append(c.Lats, other.Lats...)
	if c.RuptureParams == nil {
		c.RuptureParams = make(map[string][]float64)
	}
	for k, v := range other.RuptureParams {
		c.RuptureParams[k] = append(c.RuptureParams[k], v...)
	}
	if c.Distances == nil {
		c.Distances = make(map[string][][]float64)
	}
	for k, v := range other.Distances {
		c.Distances[k] = append(c.Distances[k], v...)
	}
}

// FromSources drives a RupData accumulation directly from a list of
// sources, without computing any ProbabilityMap, point-source collapse,
// or distance-based filtering (supplemented feature: original
// RupData.from_srcs, contexts.py lines 108-116, which iterates
// src.iter_ruptures() against the full, unfiltered site collection). Used
// by the disaggregation dump entry point.
func (cm *ContextMaker) FromSources(srcs []Source, sites *SiteCollection) (*RupDataColumns, error) {
	rupdata := NewRupData(cm.RequiresDistances, cm.RequiresRuptureParameters)

	for _, src := range srcs {
		for _, rup := range src.IterRuptures() {
			rctx, err := cm.AddRupParams(rup)
			if err != nil {
				return nil, WrapSourceError(err, src.SourceID())
			}
			rupdata.Add(rup, src.ID(), sites, DistancesContext{}, rctx)
		}
	}
	return rupdata.Columns(), nil
}
