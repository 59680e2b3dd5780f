package api

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// LocationDef is the JSON form of hazard.Location.
type LocationDef struct {
	Lon   float64 `json:"lon"`
	Lat   float64 `json:"lat"`
	Depth float64 `json:"depth"`
}

// SiteDef is the JSON form of one hazard.Site.
type SiteDef struct {
	Sid    int                `json:"sid"`
	Lon    float64            `json:"lon"`
	Lat    float64            `json:"lat"`
	Params map[string]float64 `json:"params,omitempty"`
}

// SurfaceDef configures the minimal pointSurface stand-in a scenario's
// ruptures evaluate against (see domain.go).
type SurfaceDef struct {
	Strike float64 `json:"strike"`
	Dip    float64 `json:"dip"`
	Width  float64 `json:"width"`
	Planar bool    `json:"planar"`
}

// WeightedDepthDef is the JSON form of hazard.WeightedDepth.
type WeightedDepthDef struct {
	Weight float64 `json:"weight"`
	Depth  float64 `json:"depth"`
}

// RuptureDef is the JSON form of one hazard.Rupture.
type RuptureDef struct {
	ID             string      `json:"id"`
	Mag            float64     `json:"mag"`
	Rake           float64     `json:"rake"`
	TRT            string      `json:"trt"`
	Hypocenter     LocationDef `json:"hypocenter"`
	Surface        SurfaceDef  `json:"surface"`
	OccurrenceRate *float64    `json:"occurrence_rate,omitempty"` // nil selects the nonparametric regime
	ProbsOccur     []float64   `json:"probs_occur,omitempty"`
	Weight         *float64    `json:"weight,omitempty"`
}

// SourceDef is the JSON form of one hazard.Source.
type SourceDef struct {
	ID                     int                `json:"id"`
	SourceID               string             `json:"source_id"`
	GroupIDs               []int              `json:"src_group_ids"`
	MutexWeight            *float64           `json:"mutex_weight,omitempty"`
	Location               *LocationDef       `json:"location,omitempty"`
	TRT                    string             `json:"trt"`
	CountNPHC              int                `json:"count_nphc"`
	HypocenterDistribution []WeightedDepthDef `json:"hypocenter_distribution,omitempty"`
	MaxRadius              float64            `json:"max_rupture_projection_radius"`
	Ruptures               []RuptureDef       `json:"ruptures"`
}

// GSIMDef is the JSON form of one hazard.GSIM, evaluated by a SimpleBank
// per the DemoCoeffs keyed by Name.
type GSIMDef struct {
	Name                      string             `json:"name"`
	RequiresDistances         []string           `json:"requires_distances"`
	RequiresSitesParameters   []string           `json:"requires_sites_parameters"`
	RequiresRuptureParameters []string           `json:"requires_rupture_parameters"`
	Weights                   map[string]float64 `json:"weights,omitempty"`
}

// ScenarioRequest is the full POST /pmap request body: a source group, a
// site collection, a GSIM set and the ContextMaker configuration needed
// to compute one ProbabilityMap (§4.3).
type ScenarioRequest struct {
	Sites   []SiteDef   `json:"sites"`
	Sources []SourceDef `json:"sources"`
	GSIMs   []GSIMDef   `json:"gsims"`

	TimeSpanYears float64 `json:"time_span_years"`

	RupIndep bool `json:"rup_indep"`
	SrcMutex bool `json:"src_mutex"`

	MaximumDistance     map[string]float64   `json:"maximum_distance"`
	TruncationLevel     *float64             `json:"truncation_level,omitempty"`
	MaxSitesDisagg      int                  `json:"max_sites_disagg"`
	CollapseFactor      float64              `json:"collapse_factor"`
	PointSourceDistance *float64             `json:"pointsource_distance,omitempty"`
	MaxRadius           *float64             `json:"max_radius,omitempty"`
	FilterDistance      string               `json:"filter_distance,omitempty"`
	IMTLs               map[string][]float64 `json:"imtls"`
	IMTOrder            []string             `json:"imtl_order,omitempty"`
}

// Hash returns a stable cache key for this scenario, the JSON-batch
// analogue of the teacher's per-request SliceRequest.Hash().
func (req ScenarioRequest) Hash() (string, error) {
	buf, err := json.Marshal(req)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(buf)
	return hex.EncodeToString(sum[:]), nil
}

// GroupScenarioRequest is the POST /pmap/group request body: the same
// scenario shape, evaluated through GetPmapByGrp instead of GetPmap so
// the caller gets one ProbabilityMap per source group (§4.4).
type GroupScenarioRequest struct {
	ScenarioRequest
}
