// Package hazard implements the context maker and probability-map engine:
// it filters sites against ruptures by distance, materialises the
// predictor contexts GSIMs need, folds per-rupture exceedance
// probabilities into a ProbabilityMap, and applies the point-source
// collapse optimisation.
package hazard

import "math"

// Location is a point in geographic space, used for hypocenters and
// point-source collapse splitting.
type Location struct {
	Lon   float64
	Lat   float64
	Depth float64
}

// Mesh is anything get_distances can measure a rupture against: a site
// collection or a bare point mesh.
type Mesh interface {
	Lons() []float64
	Lats() []float64
	Len() int
}

// Surface is the external rupture-surface geometry capability. Distance
// and closest-point queries are treated as a black box provided by a
// geometry library; this engine only consumes the contract.
type Surface interface {
	MinDistance(mesh Mesh) []float64
	JoynerBoore(mesh Mesh) []float64
	Rx(mesh Mesh) []float64
	Ry0(mesh Mesh) []float64
	Azimuth(mesh Mesh) []float64
	AzimuthOfClosestPoint(mesh Mesh) []float64
	ClosestPoints(mesh Mesh) (lons, lats []float64)
	Strike() float64
	Dip() float64
	TopEdgeDepth() float64
	Width() float64
	IsPlanar() bool
}

// TemporalOccurrenceModel translates an occurrence rate and a batch of
// exceedance probabilities into non-exceedance probabilities (§4.5).
type TemporalOccurrenceModel interface {
	GetProbabilityNoExceedance(rate float64, poes []float64) []float64
}

// PoissonTOM is the standard Poisson temporal occurrence model:
// pne = exp(-rate * T * poe).
type PoissonTOM struct {
	TimeSpan float64
}

func (t PoissonTOM) GetProbabilityNoExceedance(rate float64, poes []float64) []float64 {
	out := make([]float64, len(poes))
	for i, p := range poes {
		out[i] = math.Exp(-rate * t.TimeSpan * p)
	}
	return out
}

// Rupture is a single earthquake scenario (§3 Rupture).
type Rupture interface {
	RupID() string
	Mag() float64
	Rake() float64
	Hypocenter() Location
	Surface() Surface
	// OccurrenceRate returns math.NaN() for nonparametric ruptures.
	OccurrenceRate() float64
	ProbsOccur() []float64
	// Weight returns (w, true) if a weight is set, (0, false) otherwise.
	Weight() (float64, bool)
	TectonicRegionType() string
	TOM() TemporalOccurrenceModel
	CDPP(mesh Mesh) []float64
}

// WeightedDepth is one entry of a source's hypocenter_distribution.
type WeightedDepth struct {
	Weight float64
	Depth  float64
}

// MagRuptures groups ruptures of a single magnitude, as produced by
// Source.GenMagRuptures.
type MagRuptures struct {
	Mag      float64
	Ruptures []Rupture
}

// Source produces ruptures lazily (conceptually; here as slices, since Go
// has no free lunch for Python generators) and knows enough about its own
// geometry to drive the point-source collapse optimisation (§3 Source).
type Source interface {
	ID() int
	SourceID() string
	SrcGroupIDs() []int
	MutexWeight() (float64, bool)
	// Location returns (loc, true) for point-shaped sources.
	Location() (Location, bool)
	TectonicRegionType() string
	CountNPHC() int
	HypocenterDistribution() []WeightedDepth
	MaxRuptureProjectionRadius(mag float64) float64
	IterRuptures() []Rupture
	GenMagRuptures() []MagRuptures
}

// GSIM is a ground-shaking intensity model capability (§3 GSIM). Its
// evaluation logic is a black box; only its requirement sets and optional
// per-IMT logic-tree weight are consumed here.
type GSIM interface {
	Name() string
	RequiresDistances() map[string]bool
	RequiresSitesParameters() map[string]bool
	RequiresRuptureParameters() map[string]bool
	// Weight returns the logic-tree weight for imt, or (1, false) if the
	// GSIM carries no explicit per-IMT weighting.
	Weight(imt string) (float64, bool)
}

// IMTLSet is the ordered mapping from IMT name to its intensity measure
// levels (§3 IMTL set).
type IMTLSet struct {
	names  []string
	levels map[string][]float64
}

// NewIMTLSet builds an IMTLSet preserving the given IMT order.
func NewIMTLSet(order []string, levels map[string][]float64) IMTLSet {
	names := make([]string, len(order))
	copy(names, order)
	lv := make(map[string][]float64, len(levels))
	for k, v := range levels {
		cp := make([]float64, len(v))
		copy(cp, v)
		lv[k] = cp
	}
	return IMTLSet{names: names, levels: lv}
}

// Names returns the IMTs in declaration order.
func (s IMTLSet) Names() []string { return s.names }

// Array flattens all IMT levels, in IMT order, into one slice of length L.
func (s IMTLSet) Array() []float64 {
	var out []float64
	for _, imt := range s.names {
		out = append(out, s.levels[imt]...)
	}
	return out
}

// Levels returns the levels for a single IMT.
func (s IMTLSet) Levels(imt string) []float64 { return s.levels[imt] }

// LL returns the [start, end) slice indices of imt within Array().
func (s IMTLSet) LL(imt string) (int, int) {
	start := 0
	for _, name := range s.names {
		n := len(s.levels[name])
		if name == imt {
			return start, start + n
		}
		start += n
	}
	return -1, -1
}

// Len returns L, the total number of flattened intensity measure levels.
func (s IMTLSet) Len() int {
	n := 0
	for _, name := range s.names {
		n += len(s.levels[name])
	}
	return n
}

// LogLevels precomputes log(imls) per IMT, suppressing divide-by-zero the
// way the original suppresses the numpy RuntimeWarning (§4.2).
type LogLevels struct {
	imtls IMTLSet
	logs  map[string][]float64
}

// NewLogLevels precomputes natural logs of every IMT's levels. A level of
// zero yields -Inf, matching numpy.log(0); no panic, no warning.
func NewLogLevels(imtls IMTLSet) LogLevels {
	logs := make(map[string][]float64, len(imtls.names))
	for _, imt := range imtls.names {
		levels := imtls.Levels(imt)
		out := make([]float64, len(levels))
		for i, v := range levels {
			out[i] = math.Log(v)
		}
		logs[imt] = out
	}
	return LogLevels{imtls: imtls, logs: logs}
}

func (l LogLevels) IMTLs() IMTLSet            { return l.imtls }
func (l LogLevels) Get(imt string) []float64  { return l.logs[imt] }
