package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/j-gaspar/oq-engine/internal/hazard"
	"github.com/j-gaspar/oq-engine/internal/hazardcache"
	"github.com/j-gaspar/oq-engine/internal/hazardlog"
	"github.com/j-gaspar/oq-engine/internal/hazardmetrics"
)

func httpStatusCode(err error) int {
	switch err.(type) {
	case *hazard.InvalidDistanceMetric:
		return http.StatusBadRequest
	case *hazard.UnknownRuptureParameter:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// abortOnError mirrors the teacher's one-line error handling
// (api/endpoint.go): on a non-nil err, map it to an HTTP status and abort
// the context, returning true so the caller can early-return.
func abortOnError(ctx *gin.Context, err error) bool {
	if err == nil {
		return false
	}
	ctx.AbortWithError(httpStatusCode(err), err)
	return true
}

// Endpoint bundles the collaborators a batch hazard request needs: the
// GSIM bank, the result cache and the metrics/log sinks, the same
// grouping the teacher's Endpoint struct uses for MakeVdsConnection/Cache.
// Defaults carries the operator-wide ContextMakerParams loaded from
// hazardconfig at startup; a scenario that omits maximum_distance or
// imtls falls back to it instead of failing closed.
type Endpoint struct {
	Bank     hazard.Bank
	Cache    *hazardcache.Cache
	Metrics  *hazardmetrics.Metrics
	Log      hazardlog.Logger
	Defaults hazard.ContextMakerParams
}

// withDefaults overlays a request's ContextMakerParams on top of the
// endpoint's configured defaults wherever the request left a field at its
// zero value.
func withDefaults(params hazard.ContextMakerParams, defaults hazard.ContextMakerParams) hazard.ContextMakerParams {
	if params.MaximumDistance == nil && defaults.MaximumDistance != nil {
		params.MaximumDistance = defaults.MaximumDistance
	}
	if len(params.IMTLs.Names()) == 0 {
		params.IMTLs = defaults.IMTLs
	}
	if params.TruncationLevel == nil {
		params.TruncationLevel = defaults.TruncationLevel
	}
	if params.FilterDistance == "" {
		params.FilterDistance = defaults.FilterDistance
	}
	if params.MaxSitesDisagg == 0 {
		params.MaxSitesDisagg = defaults.MaxSitesDisagg
	}
	if params.CollapseFactor == 0 {
		params.CollapseFactor = defaults.CollapseFactor
	}
	if params.PointSourceDistance == nil {
		params.PointSourceDistance = defaults.PointSourceDistance
	}
	if params.MaxRadius == nil {
		params.MaxRadius = defaults.MaxRadius
	}
	return params
}

// PmapResponse is the JSON response body for both batch endpoints.
type PmapResponse struct {
	Values  map[int][][]float64 `json:"values"`
	NRups   int                 `json:"nrups"`
	NSites  int                 `json:"nsites"`
	MaxDist *float64            `json:"maxdist,omitempty"`
}

func (e *Endpoint) contextMakerFor(sources []hazard.Source, gsims []hazard.GSIM, params hazard.ContextMakerParams, bank hazard.Bank) *hazard.ContextMaker {
	trt := ""
	if len(sources) > 0 {
		trt = sources[0].TectonicRegionType()
	}
	cm := hazard.NewContextMaker(trt, gsims, params, bank)
	cm.Log = e.Log
	if e.Metrics != nil {
		cm.Metrics = e.Metrics
		e.Metrics.RequiredDistances.Set(float64(hazard.NumDistances(gsims)))
	}
	return cm
}

// Health reports liveness, matching the teacher's bare GET "/" health
// check.
func (e *Endpoint) Health(ctx *gin.Context) {
	ctx.Status(http.StatusOK)
}

// Pmap handles POST /pmap: one source's ProbabilityMap (§4.3).
//
// @Summary     Compute a ProbabilityMap for a single source
// @Accept      json
// @Produce     json
// @Param       scenario body ScenarioRequest true "scenario"
// @Success     200 {object} PmapResponse
// @Router      /pmap [post]
func (e *Endpoint) Pmap(ctx *gin.Context) {
	var req ScenarioRequest
	if err := ctx.ShouldBindJSON(&req); abortOnError(ctx, err) {
		return
	}
	if len(req.Sources) != 1 {
		ctx.AbortWithError(http.StatusBadRequest, fmt.Errorf("POST /pmap expects exactly one source, got %d", len(req.Sources)))
		return
	}

	cacheKey, err := req.Hash()
	if abortOnError(ctx, err) {
		return
	}
	if entry, hit := e.Cache.Get(cacheKey); hit {
		ctx.Set("cache-hit", true)
		writePmap(ctx, entry.Pmap)
		return
	}

	sources, sites, gsims, params, err := req.Build()
	if abortOnError(ctx, err) {
		return
	}
	params = withDefaults(params, e.Defaults)

	bank := e.Bank
	if bank == nil {
		bank = &hazard.SimpleBank{}
	}
	cm := e.contextMakerFor(sources, gsims, params, bank)

	start := time.Now()
	pmap, err := cm.GetPmap(sources[0], sites, req.RupIndep)
	if abortOnError(ctx, err) {
		return
	}

	e.Cache.Set(cacheKey, &hazardcache.Entry{Pmap: pmap})
	if e.Metrics != nil {
		e.Metrics.ObserveCalcTimes(pmap.NRups, pmap.NSites, time.Since(start).Seconds())
	}
	writePmap(ctx, pmap)
}

// PmapGroup handles POST /pmap/group: per-source-group composition
// across many sources (§4.4).
//
// @Summary     Compute per-group ProbabilityMaps across many sources
// @Accept      json
// @Produce     json
// @Param       scenario body GroupScenarioRequest true "scenario"
// @Success     200 {object} map[int]PmapResponse
// @Router      /pmap/group [post]
func (e *Endpoint) PmapGroup(ctx *gin.Context) {
	var req GroupScenarioRequest
	if err := ctx.ShouldBindJSON(&req); abortOnError(ctx, err) {
		return
	}

	sources, sites, gsims, params, err := req.Build()
	if abortOnError(ctx, err) {
		return
	}
	params = withDefaults(params, e.Defaults)

	bank := e.Bank
	if bank == nil {
		bank = &hazard.SimpleBank{}
	}
	cm := e.contextMakerFor(sources, gsims, params, bank)

	byGrp, times, err := cm.GetPmapByGrp(sources, sites, req.RupIndep, req.SrcMutex)
	if abortOnError(ctx, err) {
		return
	}

	out := make(map[int]PmapResponse, len(byGrp))
	for grp, pm := range byGrp {
		out[grp] = PmapResponse{Values: pm.AsMap(), NRups: pm.NRups, NSites: pm.NSites, MaxDist: pm.MaxDist}
	}

	for sourceID, t := range times {
		e.Log.CalcTimes(sourceID, t.NRups, t.NSites, t.Seconds)
		if e.Metrics != nil {
			e.Metrics.ObserveCalcTimes(t.NRups, t.NSites, t.Seconds)
		}
	}

	ctx.JSON(http.StatusOK, out)
}

func writePmap(ctx *gin.Context, pmap *hazard.ProbabilityMap) {
	ctx.JSON(http.StatusOK, PmapResponse{
		Values:  pmap.AsMap(),
		NRups:   pmap.NRups,
		NSites:  pmap.NSites,
		MaxDist: pmap.MaxDist,
	})
}
