package hazard

import "math"

// knownDistances is the fixed catalogue of distance metrics §4.1 allows.
var knownDistances = map[string]bool{
	"rrup": true, "rx": true, "ry0": true, "rjb": true, "rhypo": true,
	"repi": true, "rcdpp": true, "azimuth": true, "azimuth_cp": true,
	"rvolc": true,
}

// IsKnownDistance reports whether metric is in the §4.1 catalogue.
func IsKnownDistance(metric string) bool { return knownDistances[metric] }

// distArray wraps a distance array with the read-only flag §3/§5 require:
// once returned from GetDistances, it must be treated as immutable.
type distArray struct {
	values   []float64
	readOnly bool
}

func newDistArray(values []float64) distArray {
	return distArray{values: values, readOnly: true}
}

// Values returns the underlying slice. Callers must not mutate it; Go has
// no frozen-array primitive, so the readOnly flag is advisory and any
// mutating helper (roundup) is required to copy first (enforced there).
func (d distArray) Values() []float64 { return d.values }

func hypocenterDistanceToMesh(hypo Location, mesh Mesh, withDepth bool) []float64 {
	lons, lats := mesh.Lons(), mesh.Lats()
	out := make([]float64, mesh.Len())
	for i := range out {
		surfaceKm := haversineKm(hypo.Lon, hypo.Lat, lons[i], lats[i])
		if !withDepth {
			out[i] = surfaceKm
			continue
		}
		out[i] = math.Hypot(surfaceKm, hypo.Depth)
	}
	return out
}

// GetDistances dispatches to the rupture surface (or hypocenter) to
// compute one of the fixed catalogue of distance metrics between the
// rupture and a point mesh (§4.1). The returned array is immutable.
func GetDistances(rupture Rupture, mesh Mesh, metric string) (distArray, error) {
	switch metric {
	case "rrup":
		return newDistArray(rupture.Surface().MinDistance(mesh)), nil
	case "rjb":
		return newDistArray(rupture.Surface().JoynerBoore(mesh)), nil
	case "rx":
		return newDistArray(rupture.Surface().Rx(mesh)), nil
	case "ry0":
		return newDistArray(rupture.Surface().Ry0(mesh)), nil
	case "rhypo":
		return newDistArray(hypocenterDistanceToMesh(rupture.Hypocenter(), mesh, true)), nil
	case "repi":
		return newDistArray(hypocenterDistanceToMesh(rupture.Hypocenter(), mesh, false)), nil
	case "rcdpp":
		return newDistArray(rupture.CDPP(mesh)), nil
	case "azimuth":
		return newDistArray(rupture.Surface().Azimuth(mesh)), nil
	case "azimuth_cp":
		return newDistArray(rupture.Surface().AzimuthOfClosestPoint(mesh)), nil
	case "rvolc":
		return newDistArray(make([]float64, mesh.Len())), nil
	default:
		return distArray{}, &InvalidDistanceMetric{Metric: metric}
	}
}
