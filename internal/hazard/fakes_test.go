package hazard

// fakeSurface is a configurable Surface double: every distance query
// returns a pre-set slice, ignoring the mesh argument, the way the
// teacher's core_test.go fixtures stub geometry (samples10Surface).
type fakeSurface struct {
	minDistance []float64
	jb          []float64
	rx          []float64
	ry0         []float64
	azimuth     []float64
	azimuthCP   []float64
	strike      float64
	dip         float64
	ztor        float64
	width       float64
	planar      bool
	closestLons []float64
	closestLats []float64
}

func (s *fakeSurface) MinDistance(Mesh) []float64            { return s.minDistance }
func (s *fakeSurface) JoynerBoore(Mesh) []float64            { return s.jb }
func (s *fakeSurface) Rx(Mesh) []float64                     { return s.rx }
func (s *fakeSurface) Ry0(Mesh) []float64                    { return s.ry0 }
func (s *fakeSurface) Azimuth(Mesh) []float64                { return s.azimuth }
func (s *fakeSurface) AzimuthOfClosestPoint(Mesh) []float64  { return s.azimuthCP }
func (s *fakeSurface) ClosestPoints(Mesh) ([]float64, []float64) {
	return s.closestLons, s.closestLats
}
func (s *fakeSurface) Strike() float64       { return s.strike }
func (s *fakeSurface) Dip() float64          { return s.dip }
func (s *fakeSurface) TopEdgeDepth() float64 { return s.ztor }
func (s *fakeSurface) Width() float64        { return s.width }
func (s *fakeSurface) IsPlanar() bool        { return s.planar }

// fakeRupture is a configurable Rupture double.
type fakeRupture struct {
	id         string
	mag        float64
	rake       float64
	hypo       Location
	surface    Surface
	rate       float64 // math.NaN() selects the nonparametric regime
	probsOccur []float64
	weight     float64
	hasWeight  bool
	trt        string
	tom        TemporalOccurrenceModel
	cdpp       []float64
}

func (r *fakeRupture) RupID() string                  { return r.id }
func (r *fakeRupture) Mag() float64                   { return r.mag }
func (r *fakeRupture) Rake() float64                  { return r.rake }
func (r *fakeRupture) Hypocenter() Location           { return r.hypo }
func (r *fakeRupture) Surface() Surface               { return r.surface }
func (r *fakeRupture) OccurrenceRate() float64        { return r.rate }
func (r *fakeRupture) ProbsOccur() []float64          { return r.probsOccur }
func (r *fakeRupture) Weight() (float64, bool)        { return r.weight, r.hasWeight }
func (r *fakeRupture) TectonicRegionType() string     { return r.trt }
func (r *fakeRupture) TOM() TemporalOccurrenceModel   { return r.tom }
func (r *fakeRupture) CDPP(Mesh) []float64            { return r.cdpp }

// fakeSource is a configurable Source double.
type fakeSource struct {
	id          int
	sourceID    string
	groupIDs    []int
	mutexWeight float64
	hasMutex    bool
	loc         Location
	hasLoc      bool
	trt         string
	nphc        int
	hypoDist    []WeightedDepth
	radius      float64
	ruptures    []Rupture
	magRuptures []MagRuptures
}

func (s *fakeSource) ID() int                              { return s.id }
func (s *fakeSource) SourceID() string                     { return s.sourceID }
func (s *fakeSource) SrcGroupIDs() []int                   { return s.groupIDs }
func (s *fakeSource) MutexWeight() (float64, bool)         { return s.mutexWeight, s.hasMutex }
func (s *fakeSource) Location() (Location, bool)           { return s.loc, s.hasLoc }
func (s *fakeSource) TectonicRegionType() string           { return s.trt }
func (s *fakeSource) CountNPHC() int                       { return s.nphc }
func (s *fakeSource) HypocenterDistribution() []WeightedDepth { return s.hypoDist }
func (s *fakeSource) MaxRuptureProjectionRadius(float64) float64 { return s.radius }
func (s *fakeSource) IterRuptures() []Rupture              { return s.ruptures }
func (s *fakeSource) GenMagRuptures() []MagRuptures        { return s.magRuptures }

// fakeGSIM is a configurable GSIM double.
type fakeGSIM struct {
	name     string
	reqDist  map[string]bool
	reqSites map[string]bool
	reqRup   map[string]bool
	weights  map[string]float64
}

func (g *fakeGSIM) Name() string                            { return g.name }
func (g *fakeGSIM) RequiresDistances() map[string]bool      { return g.reqDist }
func (g *fakeGSIM) RequiresSitesParameters() map[string]bool { return g.reqSites }
func (g *fakeGSIM) RequiresRuptureParameters() map[string]bool { return g.reqRup }
func (g *fakeGSIM) Weight(imt string) (float64, bool) {
	if g.weights == nil {
		return 1, false
	}
	w, ok := g.weights[imt]
	if !ok {
		return 1, false
	}
	return w, true
}

// fakeBank is a configurable Bank double returning a constant
// exceedance probability for every (site, imt, gsim) cell, ignoring the
// mean/std it was handed — enough to drive the non-exceedance fold and
// ProbabilityMap combination logic under test without a real GSIM.
type fakeBank struct {
	poe float64
}

func (b *fakeBank) GetMeanStd(batch []BatchItem, imtls IMTLSet, gsims []GSIM) (*MeanStd, error) {
	n := 0
	for _, item := range batch {
		n += item.Sites.Len()
	}
	l, g := 1, len(gsims)
	mean := make([][][]float64, n)
	std := make([][][]float64, n)
	for i := range mean {
		mean[i] = make([][]float64, l)
		std[i] = make([][]float64, l)
		for j := range mean[i] {
			mean[i][j] = make([]float64, g)
			std[i][j] = make([]float64, g)
		}
	}
	return &MeanStd{Mean: mean, StdDev: std}, nil
}

func (b *fakeBank) GetPoes(meanStd *MeanStd, loglevels LogLevels, truncationLevel *float64, gsims []GSIM) ([][][]float64, error) {
	n := len(meanStd.Mean)
	l := loglevels.IMTLs().Len()
	g := len(gsims)
	out := make([][][]float64, n)
	for i := range out {
		out[i] = make([][]float64, l)
		for j := range out[i] {
			out[i][j] = make([]float64, g)
			for k := range out[i][j] {
				out[i][j][k] = b.poe
			}
		}
	}
	return out, nil
}

func singleIMTLs(levels ...float64) IMTLSet {
	return NewIMTLSet([]string{"PGA"}, map[string][]float64{"PGA": levels})
}

func sitesAt(lon, lat float64, sids ...int) *SiteCollection {
	sites := make([]Site, len(sids))
	for i, sid := range sids {
		sites[i] = Site{SID: sid, Lon: lon, Lat: lat}
	}
	return NewSiteCollection(sites)
}

func constDistances(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
