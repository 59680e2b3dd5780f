package hazard

// BatchItem is one surviving (rupture, filtered sites, distances context)
// triple accumulated while iterating a source's ruptures (§4.3 step 3a).
type BatchItem struct {
	Rupture Rupture
	Sites   *SiteCollection
	Dctx    DistancesContext
	Sctx    SitesContext
	Rctx    RuptureContext
}

// MeanStd is the GSIM bank's mean/stddev batch output, shape
// (N_total, L, G) per array (§4.3 step 3c — the original's 2-row leading
// axis becomes two named fields here).
type MeanStd struct {
	Mean   [][][]float64 // [n][l][g]
	StdDev [][][]float64 // [n][l][g]
}

// Bank is the GSIM evaluation capability: a black box per the Non-goals
// that, given a batch of contexts and a list of IMTs, returns mean/stddev
// and then converts those into probabilities of exceedance (§6 External
// Interfaces).
type Bank interface {
	// GetMeanStd evaluates every gsim over the batch for the given IMTs,
	// broadcasting each IMT's single mean/std value across that IMT's
	// levels (imtls carries the per-IMT level counts the flattened L
	// dimension needs).
	GetMeanStd(batch []BatchItem, imtls IMTLSet, gsims []GSIM) (*MeanStd, error)
	// GetPoes turns a mean/stddev batch into probabilities of exceedance,
	// shape (N, L, G), values in [0, 1].
	GetPoes(meanStd *MeanStd, loglevels LogLevels, truncationLevel *float64, gsims []GSIM) ([][][]float64, error)
}

// NumDistances returns the number of distinct distance metrics required
// across all given GSIMs (supplemented feature: original get_num_distances,
// contexts.py lines 90-97). Reported through the hazard_required_distances
// gauge in internal/hazardmetrics.
func NumDistances(gsims []GSIM) int {
	seen := make(map[string]bool)
	for _, g := range gsims {
		for d := range g.RequiresDistances() {
			seen[d] = true
		}
	}
	return len(seen)
}

// applyZeroWeightMask forces poes[:, ll(imt), g] to zero for every GSIM
// carrying an explicit per-IMT weight of zero, encoding a logic-tree
// branch that exists structurally but carries no probability mass
// (§4.3 step e). The masked columns are zeroed in place in poes after the
// bank has evaluated it. Returns the number of (imt, gsim) columns masked.
func applyZeroWeightMask(poes [][][]float64, loglevels LogLevels, gsims []GSIM) int {
	masked := 0
	imtls := loglevels.IMTLs()
	for g, gsim := range gsims {
		for _, imt := range imtls.Names() {
			w, ok := gsim.Weight(imt)
			if !ok || w != 0 {
				continue
			}
			masked++
			start, end := imtls.LL(imt)
			for n := range poes {
				for l := start; l < end; l++ {
					poes[n][l][g] = 0
				}
			}
		}
	}
	return masked
}
