package hazard

import "time"

// CalcTimes is the per-source (nrups, nsites, seconds) accumulation §4.4
// requires for diagnostics.
type CalcTimes struct {
	NRups   int
	NSites  int
	Seconds float64
}

// GetPmapByGrp iterates (source, sites) pairs under one rup_indep/src_mutex
// regime, folding each source's ProbabilityMap into the per-group maps it
// belongs to (§4.4). A source may contribute to more than one group via
// src.SrcGroupIDs().
//
// rup_indep governs get_pmap's own fold (product vs weighted-sum) and
// whether the result is complemented before merging; src_mutex governs
// whether sources merge via the mutex-sum (scaled by mutex_weight) or the
// independent-union combinator. The two flags are orthogonal inputs, not a
// single derived bit — see Open Question OQ1 in SPEC_FULL.md.
func (cm *ContextMaker) GetPmapByGrp(sources []Source, sites *SiteCollection, rupIndep, srcMutex bool) (map[int]*ProbabilityMap, map[string]CalcTimes, error) {
	byGrp := make(map[int]*ProbabilityMap)
	times := make(map[string]CalcTimes)

	for _, src := range sources {
		start := time.Now()

		pm, err := cm.GetPmap(src, sites, rupIndep)
		if err != nil {
			return nil, nil, WrapSourceError(err, src.SourceID())
		}

		if rupIndep {
			pm = pm.Complement()
		}
		if srcMutex {
			w, _ := src.MutexWeight()
			pm.ScaleBy(w)
		}

		for _, grp := range src.SrcGroupIDs() {
			target, ok := byGrp[grp]
			if !ok {
				target = NewProbabilityMap(pm.L, pm.G)
				target.Data = &RupDataColumns{}
				byGrp[grp] = target
			}
			if srcMutex {
				err = target.AddUpdate(pm)
			} else {
				err = target.OrUpdate(pm)
			}
			if err != nil {
				return nil, nil, WrapSourceError(err, src.SourceID())
			}
			target.Data.Extend(pm.Data, grp)
		}

		times[src.SourceID()] = CalcTimes{
			NRups:   pm.NRups,
			NSites:  pm.NSites,
			Seconds: time.Since(start).Seconds(),
		}
	}

	for grp, pm := range byGrp {
		cm.Log.Group(grp).Debug().
			Int("nsids", len(pm.Sids())).
			Int("rupdata_rows", pm.Data.Len()).
			Msg("group composed")
	}

	return byGrp, times, nil
}
