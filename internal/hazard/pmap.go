package hazard

import "fmt"

// regime is the per-sid combination algebra: product-of-non-exceedance
// (independent) or weighted-sum-of-exceedance (mutex). Fixed at first
// insertion for each sid and immutable thereafter (§3 ProbabilityMap).
type regime int

const (
	regimeIndependent regime = iota
	regimeMutex
)

// pmEntry is the (L, G) array stored for one sid, tagged with the regime
// it was created under.
type pmEntry struct {
	Array  [][]float64 // L x G
	regime regime
}

func newEntry(l, g int, r regime) *pmEntry {
	arr := make([][]float64, l)
	identity := 1.0
	if r == regimeMutex {
		identity = 0.0
	}
	for i := range arr {
		row := make([]float64, g)
		for j := range row {
			row[j] = identity
		}
		arr[i] = row
	}
	return &pmEntry{Array: arr, regime: r}
}

// ProbabilityMap is a sparse sid -> (L, G) array, combined under either
// the independent or mutex regime (§3 ProbabilityMap).
type ProbabilityMap struct {
	L, G    int
	entries map[int]*pmEntry
	order   []int

	NRups   int
	NSites  int
	MaxDist *float64
	Data    *RupDataColumns
}

// NewProbabilityMap allocates an empty map of shape (L, G).
func NewProbabilityMap(l, g int) *ProbabilityMap {
	return &ProbabilityMap{L: l, G: g, entries: make(map[int]*pmEntry)}
}

// Sids returns the sids present, in insertion order (§3: "sids strictly
// increase by insertion identity" — i.e. identity is assigned by
// insertion order, reproducible regardless of numeric sid value).
func (p *ProbabilityMap) Sids() []int {
	out := make([]int, len(p.order))
	copy(out, p.order)
	return out
}

// Setdefault returns the entry for sid, creating it under rupIndep's
// regime (product identity = 1, sum identity = 0) if absent. The regime
// of an existing entry is never changed by a later call (§3 invariant).
func (p *ProbabilityMap) Setdefault(sid int, rupIndep bool) *pmEntry {
	if e, ok := p.entries[sid]; ok {
		return e
	}
	r := regimeIndependent
	if !rupIndep {
		r = regimeMutex
	}
	e := newEntry(p.L, p.G, r)
	p.entries[sid] = e
	p.order = append(p.order, sid)
	return e
}

// Get returns the entry for sid and whether it exists.
func (p *ProbabilityMap) Get(sid int) (*pmEntry, bool) {
	e, ok := p.entries[sid]
	return e, ok
}

// Array returns the (L, G) array for sid, or nil if absent.
func (p *ProbabilityMap) Array(sid int) [][]float64 {
	e, ok := p.entries[sid]
	if !ok {
		return nil
	}
	return e.Array
}

func (p *ProbabilityMap) dims(other *ProbabilityMap) error {
	if p.L != other.L || p.G != other.G {
		return fmt.Errorf("probability map shape mismatch: (%d,%d) vs (%d,%d)", p.L, p.G, other.L, other.G)
	}
	return nil
}

// OrUpdate implements pmap |= other: the independent-union combinator,
// per-sid a <- 1 - (1-a)(1-b) (§3). A sid seen for the first time has no
// prior exceedance, so it is seeded from b directly rather than through
// Setdefault's product identity (which combines to 1 regardless of b).
func (p *ProbabilityMap) OrUpdate(other *ProbabilityMap) error {
	if err := p.dims(other); err != nil {
		return err
	}
	for _, sid := range other.order {
		b := other.entries[sid]
		if a, ok := p.entries[sid]; ok {
			for i := range a.Array {
				for j := range a.Array[i] {
					a.Array[i][j] = 1 - (1-a.Array[i][j])*(1-b.Array[i][j])
				}
			}
			continue
		}
		ne := newEntry(p.L, p.G, regimeIndependent)
		for i := range b.Array {
			copy(ne.Array[i], b.Array[i])
		}
		p.entries[sid] = ne
		p.order = append(p.order, sid)
	}
	return nil
}

// AddUpdate implements pmap += other: the mutex-sum combinator, per-sid
// a <- a + b (§3).
func (p *ProbabilityMap) AddUpdate(other *ProbabilityMap) error {
	if err := p.dims(other); err != nil {
		return err
	}
	for _, sid := range other.order {
		b := other.entries[sid]
		a := p.Setdefault(sid, false)
		for i := range a.Array {
			for j := range a.Array[i] {
				a.Array[i][j] += b.Array[i][j]
			}
		}
	}
	return nil
}

// ScaleBy implements pmap *= w: scale every array by a scalar weight
// (§3, used by the mutex-weight combination in §4.4).
func (p *ProbabilityMap) ScaleBy(w float64) {
	for _, e := range p.entries {
		for i := range e.Array {
			for j := range e.Array[i] {
				e.Array[i][j] *= w
			}
		}
	}
}

// Complement implements unary ~p: a <- 1 - a, converting non-exceedance
// storage to exceedance storage (§3). Returns a new map; metadata
// (NRups, NSites, MaxDist, Data) is carried over unchanged.
func (p *ProbabilityMap) Complement() *ProbabilityMap {
	out := NewProbabilityMap(p.L, p.G)
	for _, sid := range p.order {
		e := p.entries[sid]
		ne := newEntry(p.L, p.G, e.regime)
		for i := range e.Array {
			for j := range e.Array[i] {
				ne.Array[i][j] = 1 - e.Array[i][j]
			}
		}
		out.entries[sid] = ne
		out.order = append(out.order, sid)
	}
	out.NRups, out.NSites, out.MaxDist, out.Data = p.NRups, p.NSites, p.MaxDist, p.Data
	return out
}

// Empty reports whether the map has no sids at all (the Python "not pm"
// check in _update, §4.4).
func (p *ProbabilityMap) Empty() bool { return len(p.order) == 0 }

// AsMap copies the map into a plain sid -> (L, G) array, for API
// serialization. The pmEntry regime tag is not exposed: callers outside
// this package only ever need the values.
func (p *ProbabilityMap) AsMap() map[int][][]float64 {
	out := make(map[int][][]float64, len(p.order))
	for _, sid := range p.order {
		e := p.entries[sid]
		arr := make([][]float64, len(e.Array))
		for i, row := range e.Array {
			arr[i] = append([]float64(nil), row...)
		}
		out[sid] = arr
	}
	return out
}
