package hazard

import (
	"errors"
	"time"
)

func flatten3to2(x [][][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for n, row := range x {
		flat := make([]float64, 0, len(row)*len(row[0]))
		for _, l := range row {
			flat = append(flat, l...)
		}
		out[n] = flat
	}
	return out
}

func unflatten2to3(x [][]float64, l, g int) [][][]float64 {
	out := make([][][]float64, len(x))
	for n, flat := range x {
		row := make([][]float64, l)
		for i := 0; i < l; i++ {
			row[i] = flat[i*g : (i+1)*g]
		}
		out[n] = row
	}
	return out
}

func meanMDist(sum float64, count int) *float64 {
	if count == 0 {
		return nil
	}
	m := sum / float64(count)
	return &m
}

// survivor is one rupture that passed filtering for the (ruptures, sites,
// mdist) group it belongs to, together with the contexts computed for it.
type survivor struct {
	rupture Rupture
	sites   *SiteCollection
	dctx    DistancesContext
	rctx    RuptureContext
	sctx    SitesContext
}

// GetPmap assembles the ProbabilityMap for one source against its
// pre-filtered candidate sites, under the given rup_indep regime (§4.3).
//
// GSIM evaluation is batched once per (ruptures, sites, mdist) group
// yielded by the point-source collapse generator — not once per rupture —
// matching "mean_std over the batch" in the original; the non-exceedance
// fold below then re-threads each row back to the rupture it came from
// (Open Question OQ2 resolution), never relying on a single closed-over
// rupture.
func (cm *ContextMaker) GetPmap(src Source, sites *SiteCollection, rupIndep bool) (*ProbabilityMap, error) {
	fewsites := sites.Complete().Len() <= cm.Params.MaxSitesDisagg

	l := cm.Params.IMTLs.Len()
	g := len(cm.GSIMs)
	pmap := NewProbabilityMap(l, g)

	var rupdata *RupData
	if fewsites {
		rupdata = NewRupData(cm.RequiresDistances, cm.RequiresRuptureParameters)
	}

	nrups := 0
	nsites := 0
	var mdistSum float64
	var mdistCount int

	for _, grp := range cm.genRupsSites(src, sites) {
		// The original appends one magdist sample per group unconditionally,
		// before checking whether any rupture in the group survives
		// (contexts.py:352-353) — so this happens for every yielded group
		// that carries a maximum distance, including ones where every
		// rupture turns out to be FarAway. Groups yielded without one (the
		// uncollapsed path, MDist nil) add no sample.
		if grp.MDist != nil {
			mdistSum += *grp.MDist
			mdistCount++
		}

		ctxStart := time.Now()
		var survivors []survivor
		for _, rup := range grp.Ruptures {
			filteredSites, dctx, rctx, err := cm.MakeContexts(grp.Sites, rup, grp.MDist)
			if err != nil {
				var fa *farAwayRupture
				if errors.As(err, &fa) {
					cm.Log.FarAway(src.SourceID(), fa.RupID, fa.MinDist)
					if cm.Metrics != nil {
						cm.Metrics.FarAwaySkips.Inc()
					}
					continue
				}
				return nil, err
			}
			sctx := NewSitesContext(filteredSites, cm.RequiresSitesParameters)
			survivors = append(survivors, survivor{rup, filteredSites, dctx, rctx, sctx})
		}
		if cm.Metrics != nil {
			cm.Metrics.FilterSeconds.Observe(time.Since(ctxStart).Seconds())
		}
		if len(survivors) == 0 {
			continue
		}
		// The original counts every rupture attempted in the group once the
		// group yields at least one surviving sid (contexts.py:332, "nrups
		// += len(rups)"), not just the ones that individually survived
		// per-rupture FarAwayRupture filtering.
		nrups += len(grp.Ruptures)

		batch := make([]BatchItem, len(survivors))
		for i, s := range survivors {
			batch[i] = BatchItem{Rupture: s.rupture, Sites: s.sites, Dctx: s.dctx, Sctx: s.sctx, Rctx: s.rctx}
		}

		poeStart := time.Now()
		meanStd, err := cm.Bank.GetMeanStd(batch, cm.Params.IMTLs, cm.GSIMs)
		if err != nil {
			return nil, err
		}
		poes, err := cm.Bank.GetPoes(meanStd, cm.LogLevels, cm.Params.TruncationLevel, cm.GSIMs)
		if err != nil {
			return nil, err
		}
		masked := applyZeroWeightMask(poes, cm.LogLevels, cm.GSIMs)
		if cm.Metrics != nil {
			cm.Metrics.PoeSeconds.Observe(time.Since(poeStart).Seconds())
			cm.Metrics.ZeroWeightMasks.Add(float64(masked))
		}

		pneStart := time.Now()
		row := 0
		for _, s := range survivors {
			n := s.sites.Len()
			subPoes := poes[row : row+n]
			row += n

			pne := unflatten2to3(GetProbabilityNoExceedance(s.rupture, flatten3to2(subPoes)), l, g)
			sids := s.sites.Sids()
			w, _ := s.rupture.Weight()

			// Cumulative count of surviving (rupture, sid) pairs, matching
			// the original's "nsites += len(sids)" (contexts.py:333) — the
			// same sid is counted again for every rupture that reaches it,
			// not deduplicated into the final map's unique sid count.
			nsites += len(sids)

			for i, sid := range sids {
				entry := pmap.Setdefault(sid, rupIndep)
				for li := range entry.Array {
					for gi := range entry.Array[li] {
						if rupIndep {
							entry.Array[li][gi] *= pne[i][li][gi]
						} else {
							entry.Array[li][gi] += (1 - pne[i][li][gi]) * w
						}
					}
				}
			}

			if fewsites {
				rupdata.Add(s.rupture, src.ID(), s.sites, s.dctx, s.rctx)
			}
		}
		if cm.Metrics != nil {
			cm.Metrics.PneSeconds.Observe(time.Since(pneStart).Seconds())
		}
	}

	pmap.NRups = nrups
	pmap.NSites = nsites
	pmap.MaxDist = meanMDist(mdistSum, mdistCount)
	if fewsites {
		pmap.Data = rupdata.Columns()
	}
	return pmap, nil
}
