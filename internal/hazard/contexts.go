package hazard

// SitesContext holds per-site predictor arrays, populated only for the
// parameters the current GSIM batch actually requires (§3 Contexts,
// Design Note §9 — an explicit record plus a presence set rather than
// dynamic attribute injection).
type SitesContext struct {
	Sids   []int
	Params map[string][]float64
}

// NewSitesContext builds a SitesContext for the given sites, populating
// exactly the requested parameters.
func NewSitesContext(sites *SiteCollection, required map[string]bool) SitesContext {
	params := make(map[string][]float64, len(required))
	for name := range required {
		params[name] = sites.Param(name)
	}
	return SitesContext{Sids: sites.Sids(), Params: params}
}

// Has reports whether a sites parameter was populated for this batch.
func (c SitesContext) Has(name string) bool {
	_, ok := c.Params[name]
	return ok
}

// Equal reports structural equality: the sids and every populated
// parameter must match, and both sides must have populated the same set
// of parameters (supplemented feature: original BaseContext.__eq__,
// contexts.py lines 441-469).
func (c SitesContext) Equal(other SitesContext) bool {
	if len(c.Sids) != len(other.Sids) {
		return false
	}
	for i, sid := range c.Sids {
		if other.Sids[i] != sid {
			return false
		}
	}
	if len(c.Params) != len(other.Params) {
		return false
	}
	for name, vals := range c.Params {
		ovals, ok := other.Params[name]
		if !ok || len(ovals) != len(vals) {
			return false
		}
		for i, v := range vals {
			if ovals[i] != v {
				return false
			}
		}
	}
	return true
}

// DistancesContext holds one array per required distance metric, aligned
// with the surviving sids (§3 Contexts).
type DistancesContext struct {
	distances map[string]distArray
}

// NewDistancesContext seeds a DistancesContext with one metric already
// computed (the filter_distance, per §4.2 filter step 4).
func NewDistancesContext(metric string, values distArray) DistancesContext {
	return DistancesContext{distances: map[string]distArray{metric: values}}
}

// Set attaches a distance array for metric, overwriting any prior value
// (used by the reqv override in §4.2 step 3).
func (d *DistancesContext) Set(metric string, values []float64) {
	if d.distances == nil {
		d.distances = make(map[string]distArray)
	}
	d.distances[metric] = newDistArray(values)
}

// Get returns the array for metric and whether it was populated.
func (d DistancesContext) Get(metric string) ([]float64, bool) {
	v, ok := d.distances[metric]
	if !ok {
		return nil, false
	}
	return v.Values(), true
}

// Has reports whether metric was populated for this batch.
func (d DistancesContext) Has(metric string) bool {
	_, ok := d.distances[metric]
	return ok
}

// Metrics lists the populated distance metrics.
func (d DistancesContext) Metrics() []string {
	out := make([]string, 0, len(d.distances))
	for k := range d.distances {
		out = append(out, k)
	}
	return out
}

// Equal reports structural equality over the populated metrics only
// (supplemented feature: original BaseContext.__eq__).
func (d DistancesContext) Equal(other DistancesContext) bool {
	if len(d.distances) != len(other.distances) {
		return false
	}
	for metric, arr := range d.distances {
		oarr, ok := other.distances[metric]
		if !ok {
			return false
		}
		v, ov := arr.Values(), oarr.Values()
		if len(v) != len(ov) {
			return false
		}
		for i := range v {
			if v[i] != ov[i] {
				return false
			}
		}
	}
	return true
}

// Roundup returns a copy of the DistancesContext with every distance
// below minimum clamped up to minimum. If minimum is zero the original,
// unchanged instance is returned (§3 Contexts invariant) — arrays are
// copied before being mutated, never the shared original.
func (d DistancesContext) Roundup(minimum float64) DistancesContext {
	if minimum == 0 {
		return d
	}
	out := DistancesContext{distances: make(map[string]distArray, len(d.distances))}
	for metric, arr := range d.distances {
		values := arr.Values()
		copied := append([]float64(nil), values...)
		changed := false
		for i, v := range copied {
			if v < minimum {
				copied[i] = minimum
				changed = true
			}
		}
		if changed {
			out.distances[metric] = newDistArray(copied)
		} else {
			out.distances[metric] = arr
		}
	}
	return out
}

// ruptureParamNames is the fixed vocabulary add_rup_params may populate
// (§4.2.1).
var ruptureParamNames = map[string]bool{
	"mag": true, "strike": true, "dip": true, "rake": true, "ztor": true,
	"hypo_lon": true, "hypo_lat": true, "hypo_depth": true, "width": true,
}

// RuptureContext holds the scalar fields a GSIM needs from a single
// rupture, plus its occurrence description (§3 Contexts).
type RuptureContext struct {
	Params         map[string]float64
	OccurrenceRate float64
	ProbsOccur     []float64
	TOM            TemporalOccurrenceModel
}

// Get returns a populated rupture parameter and whether it was set.
func (c RuptureContext) Get(name string) (float64, bool) {
	v, ok := c.Params[name]
	return v, ok
}

// Equal reports structural equality over the populated rupture parameters
// and occurrence description (supplemented feature: original
// BaseContext.__eq__).
func (c RuptureContext) Equal(other RuptureContext) bool {
	if len(c.Params) != len(other.Params) {
		return false
	}
	for name, v := range c.Params {
		ov, ok := other.Params[name]
		if !ok || ov != v {
			return false
		}
	}
	selfNaN, otherNaN := c.OccurrenceRate != c.OccurrenceRate, other.OccurrenceRate != other.OccurrenceRate
	if selfNaN != otherNaN {
		return false
	}
	if !selfNaN && c.OccurrenceRate != other.OccurrenceRate {
		return false
	}
	if len(c.ProbsOccur) != len(other.ProbsOccur) {
		return false
	}
	for i, v := range c.ProbsOccur {
		if other.ProbsOccur[i] != v {
			return false
		}
	}
	return true
}
