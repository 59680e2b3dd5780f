package hazard

import "math"

// GetProbabilityNoExceedance computes, for each (site, iml*gsim) cell of
// poes, the probability that the rupture never exceeds that ground
// motion level over its occurrence. poes has shape (N, M) with values in
// [0, 1] (§4.5).
//
// Parametric ruptures (finite occurrence_rate) delegate to the rupture's
// temporal occurrence model. Nonparametric ruptures (occurrence_rate is
// NaN) use the explicit probs_occur sum. The rupture is threaded through
// explicitly rather than captured from an enclosing scope (Open Question
// OQ2 in SPEC_FULL.md).
func GetProbabilityNoExceedance(rupture Rupture, poes [][]float64) [][]float64 {
	rate := rupture.OccurrenceRate()
	if math.IsNaN(rate) {
		return nonparametricPNE(rupture.ProbsOccur(), poes)
	}
	n := len(poes)
	if n == 0 {
		return poes
	}
	m := len(poes[0])
	flat := make([]float64, 0, n*m)
	for _, row := range poes {
		flat = append(flat, row...)
	}
	pne := rupture.TOM().GetProbabilityNoExceedance(rate, flat)
	out := make([][]float64, n)
	for i := 0; i < n; i++ {
		out[i] = pne[i*m : (i+1)*m]
	}
	return out
}

// nonparametricPNE implements pne = sum_k p_k * (1-poe)^k, clamping
// overshoot above 1 and patching the 0^0 ambiguity at poe==0 to 1 (§4.5).
func nonparametricPNE(probsOccur []float64, poes [][]float64) [][]float64 {
	out := make([][]float64, len(poes))
	for i, row := range poes {
		outRow := make([]float64, len(row))
		for j, poe := range row {
			sum := 0.0
			pow := 1.0 // (1-poe)^0
			for k, pk := range probsOccur {
				if k > 0 {
					pow *= (1 - poe)
				}
				sum += pk * pow
			}
			if sum > 1 {
				sum = 1
			}
			if poe == 0 {
				sum = 1
			}
			outRow[j] = sum
		}
		out[i] = outRow
	}
	return out
}
