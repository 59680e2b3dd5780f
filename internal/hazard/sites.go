package hazard

import "math"

// Site is one entry of a SiteCollection: a stable sid, coordinates, and a
// bag of named parameters such as vs30 (§3 Site collection).
type Site struct {
	SID    int
	Lon    float64
	Lat    float64
	Params map[string]float64
}

// SiteCollection is an ordered sequence of sites supporting boolean-mask
// filtering that preserves sids and parameter values (§3 Site collection
// invariant).
type SiteCollection struct {
	sites    []Site
	complete *SiteCollection
}

// NewSiteCollection builds a site collection that is its own complete
// backing collection.
func NewSiteCollection(sites []Site) *SiteCollection {
	sc := &SiteCollection{sites: append([]Site(nil), sites...)}
	sc.complete = sc
	return sc
}

// Complete returns the full backing collection this one was filtered
// from (itself, if it was never filtered).
func (s *SiteCollection) Complete() *SiteCollection { return s.complete }

// Len returns the number of sites currently in the collection.
func (s *SiteCollection) Len() int { return len(s.sites) }

// Sids returns the stable site identifiers, in order.
func (s *SiteCollection) Sids() []int {
	out := make([]int, len(s.sites))
	for i, site := range s.sites {
		out[i] = site.SID
	}
	return out
}

// Lons implements Mesh.
func (s *SiteCollection) Lons() []float64 {
	out := make([]float64, len(s.sites))
	for i, site := range s.sites {
		out[i] = site.Lon
	}
	return out
}

// Lats implements Mesh.
func (s *SiteCollection) Lats() []float64 {
	out := make([]float64, len(s.sites))
	for i, site := range s.sites {
		out[i] = site.Lat
	}
	return out
}

// Param returns the named parameter for every site, in order. Sites
// missing the parameter contribute math.NaN().
func (s *SiteCollection) Param(name string) []float64 {
	out := make([]float64, len(s.sites))
	for i, site := range s.sites {
		if v, ok := site.Params[name]; ok {
			out[i] = v
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// Filter returns a narrower collection keeping only the sites where mask
// is true, preserving sids and parameter values and the link to Complete.
func (s *SiteCollection) Filter(mask []bool) *SiteCollection {
	kept := make([]Site, 0, len(s.sites))
	for i, keep := range mask {
		if keep {
			kept = append(kept, s.sites[i])
		}
	}
	return &SiteCollection{sites: kept, complete: s.complete}
}

// haversineKm is the great-circle distance between two lon/lat points, in
// kilometres. Point-source collapse splitting only needs a 2-D epicentral
// estimate, not the full 3-D surface-geometry machinery that Surface
// exposes (that remains an external capability per the Non-goals).
func haversineKm(lon1, lat1, lon2, lat2 float64) float64 {
	const earthRadiusKm = 6371.0
	rad := math.Pi / 180.0
	dLat := (lat2 - lat1) * rad
	dLon := (lon2 - lon1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// GreatCircleKm exports haversineKm for callers outside this package that
// need the same 2-D epicentral estimate (e.g. a minimal Surface
// implementation driving the HTTP/CLI surfaces from scenario JSON).
func GreatCircleKm(lon1, lat1, lon2, lat2 float64) float64 {
	return haversineKm(lon1, lat1, lon2, lat2)
}

// Split partitions the collection into sites within cdist of loc (close)
// and the rest (far). Either return value is nil when empty, matching the
// original's "either side may be null" contract so callers can test for
// the all-close / all-far / mixed cases cheaply.
func (s *SiteCollection) Split(loc Location, cdist float64) (close, far *SiteCollection) {
	var closeSites, farSites []Site
	for _, site := range s.sites {
		if haversineKm(loc.Lon, loc.Lat, site.Lon, site.Lat) <= cdist {
			closeSites = append(closeSites, site)
		} else {
			farSites = append(farSites, site)
		}
	}
	if len(closeSites) > 0 {
		close = &SiteCollection{sites: closeSites, complete: s.complete}
	}
	if len(farSites) > 0 {
		far = &SiteCollection{sites: farSites, complete: s.complete}
	}
	return close, far
}
