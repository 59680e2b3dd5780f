package hazard

import "math"

// DemoCoeffs are the linear, log-distance attenuation coefficients a
// SimpleBank uses for one GSIM: ln(median ground motion) = C0 + C1*mag -
// C2*ln(rrup+1), with a magnitude- and distance-independent lognormal
// standard deviation Sigma.
//
// This is a stand-in, not a validated ground-motion model: GSIM internals
// are an external capability per the Non-goals. SimpleBank exists so the
// HTTP/CLI surfaces have a concrete, runnable Bank without pretending to
// implement real seismology.
type DemoCoeffs struct {
	C0, C1, C2, Sigma float64
}

// SimpleBank is a Bank implementation driven by a small table of
// DemoCoeffs keyed by GSIM name.
type SimpleBank struct {
	Coeffs map[string]DemoCoeffs
}

func (b *SimpleBank) coeffsFor(name string) DemoCoeffs {
	if c, ok := b.Coeffs[name]; ok {
		return c
	}
	return DemoCoeffs{C0: 0, C1: 1, C2: 1, Sigma: 0.6}
}

// GetMeanStd evaluates the configured attenuation for every gsim across
// the batch, broadcasting each (rupture, site, gsim, imt) mean/std value
// across that imt's levels.
func (b *SimpleBank) GetMeanStd(batch []BatchItem, imtls IMTLSet, gsims []GSIM) (*MeanStd, error) {
	l := imtls.Len()
	n := 0
	for _, item := range batch {
		n += item.Sites.Len()
	}

	mean := make([][][]float64, n)
	std := make([][][]float64, n)
	for i := range mean {
		mean[i] = make([][]float64, l)
		std[i] = make([][]float64, l)
		for j := range mean[i] {
			mean[i][j] = make([]float64, len(gsims))
			std[i][j] = make([]float64, len(gsims))
		}
	}

	row := 0
	for _, item := range batch {
		mag, _ := item.Rctx.Get("mag")
		dist, ok := item.Dctx.Get("rrup")
		if !ok {
			dist, _ = item.Dctx.Get("rjb")
		}
		n := item.Sites.Len()
		for i := 0; i < n; i++ {
			d := 0.0
			if i < len(dist) {
				d = dist[i]
			}
			for gi, gsim := range gsims {
				c := b.coeffsFor(gsim.Name())
				lnMean := c.C0 + c.C1*mag - c.C2*math.Log(d+1)
				start := 0
				for _, imt := range imtls.Names() {
					levels := imtls.Levels(imt)
					for li := range levels {
						mean[row+i][start+li][gi] = lnMean
						std[row+i][start+li][gi] = c.Sigma
					}
					start += len(levels)
				}
			}
		}
		row += n
	}

	return &MeanStd{Mean: mean, StdDev: std}, nil
}

// stdNormalSurvival is 1 - Phi(x), the probability a standard normal
// variable exceeds x, via the complementary error function.
func stdNormalSurvival(x float64) float64 {
	return 0.5 * math.Erfc(x/math.Sqrt2)
}

// GetPoes converts mean/std into probabilities of exceedance at every
// configured intensity level. With a truncationLevel, the standardised
// level is clamped to [-truncationLevel, truncationLevel], so a level
// beyond the truncation gets the survival value at the bound (e.g.
// 1-Phi(-3) for truncationLevel 3) rather than the unclipped tail; it is
// not forced to exactly zero or one.
func (b *SimpleBank) GetPoes(meanStd *MeanStd, loglevels LogLevels, truncationLevel *float64, gsims []GSIM) ([][][]float64, error) {
	imtls := loglevels.IMTLs()
	n := len(meanStd.Mean)
	l := imtls.Len()
	out := make([][][]float64, n)

	for row := 0; row < n; row++ {
		out[row] = make([][]float64, l)
		start := 0
		for _, imt := range imtls.Names() {
			logLevels := loglevels.Get(imt)
			for li, ll := range logLevels {
				out[row][start+li] = make([]float64, len(gsims))
				for gi := range gsims {
					mean := meanStd.Mean[row][start+li][gi]
					std := meanStd.StdDev[row][start+li][gi]
					if std <= 0 {
						if ll > mean {
							out[row][start+li][gi] = 0
						} else {
							out[row][start+li][gi] = 1
						}
						continue
					}
					x := (ll - mean) / std
					if truncationLevel != nil {
						if x > *truncationLevel {
							x = *truncationLevel
						}
						if x < -*truncationLevel {
							x = -*truncationLevel
						}
					}
					out[row][start+li][gi] = stdNormalSurvival(x)
				}
			}
			start += len(logLevels)
		}
	}
	return out, nil
}
