// Package hazardconfig loads ContextMaker configuration from a layered
// source: a YAML file overridable by HAZARD_* environment variables,
// generalizing the teacher's getopt/os.Getenv CLI flags into a real
// layered-config stack.
package hazardconfig

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/j-gaspar/oq-engine/internal/hazard"
)

// Params is the YAML/env-serializable view of hazard.ContextMakerParams
// (§4.2 construction options). Function-valued fields of the real
// ContextMakerParams (maximum_distance, reqv) are not serializable, so
// Params carries their flat data and Build turns them into closures.
type Params struct {
	MaximumDistanceKm   map[string]float64   `koanf:"maximum_distance"`
	TruncationLevel     *float64             `koanf:"truncation_level"`
	MaxSitesDisagg      int                  `koanf:"max_sites_disagg"`
	CollapseFactor      float64              `koanf:"collapse_factor"`
	PointSourceDistance *float64             `koanf:"pointsource_distance"`
	MaxRadius           *float64             `koanf:"max_radius"`
	FilterDistance      string               `koanf:"filter_distance"`
	IMTLs               map[string][]float64 `koanf:"imtls"`
	IMTOrder            []string             `koanf:"imtl_order"`
}

// Load reads Params from path (YAML), then overlays any HAZARD_*
// environment variable, the same two layers the teacher reads directly in
// cmd/query/main.go's parseopts, now expressed as koanf providers. The
// config is a single flat level whose keys themselves contain
// underscores (truncation_level, max_radius, ...), so the env transform
// only strips the prefix and lowercases — no underscore-to-delimiter
// rewrite, or HAZARD_TRUNCATION_LEVEL would land on the nested key
// truncation.level and never reach the struct.
func Load(path string) (Params, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Params{}, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	err := k.Load(env.Provider("HAZARD_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "HAZARD_"))
	}), nil)
	if err != nil {
		return Params{}, fmt.Errorf("loading HAZARD_* environment overrides: %w", err)
	}

	var p Params
	if err := k.Unmarshal("", &p); err != nil {
		return Params{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	return p, nil
}

// Build converts Params into a hazard.ContextMakerParams, compiling the
// flat per-trt maximum-distance table into a hazard.MaximumDistance
// closure that returns +Inf for any trt absent from the table.
func (p Params) Build() hazard.ContextMakerParams {
	table := p.MaximumDistanceKm
	maxDist := func(trt string, mag float64) float64 {
		if v, ok := table[trt]; ok {
			return v
		}
		return math.Inf(1)
	}

	order := p.IMTOrder
	if len(order) == 0 {
		for imt := range p.IMTLs {
			order = append(order, imt)
		}
		sort.Strings(order)
	}

	return hazard.ContextMakerParams{
		MaximumDistance:     maxDist,
		TruncationLevel:     p.TruncationLevel,
		MaxSitesDisagg:      p.MaxSitesDisagg,
		CollapseFactor:      p.CollapseFactor,
		PointSourceDistance: p.PointSourceDistance,
		MaxRadius:           p.MaxRadius,
		FilterDistance:      p.FilterDistance,
		IMTLs:               hazard.NewIMTLSet(order, p.IMTLs),
	}
}
