// Command hazard is a one-shot CLI companion to hazardd: it reads a
// scenario JSON definition (a local file, or an Azure blob URL with an
// optional SAS token) and either computes its ProbabilityMap or dumps the
// raw RupData columns feeding disaggregation, printing the result as JSON
// to stdout. Mirrors the teacher's single-binary-per-concern cmd/ layout
// (cmd/query is the daemon; this is its batch/offline counterpart).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pborman/getopt/v2"

	"github.com/j-gaspar/oq-engine/api"
	"github.com/j-gaspar/oq-engine/internal/hazard"
	"github.com/j-gaspar/oq-engine/internal/hazardio"
)

type opts struct {
	scenario    string
	sas         string
	dumpRupData bool
	rupIndep    bool
}

func parseopts() opts {
	help := getopt.BoolLong("help", 0, "print this help text")

	o := opts{rupIndep: true}
	getopt.FlagLong(&o.scenario, "scenario", 0,
		"Path to a scenario JSON file, or an https:// Azure blob URL (required)", "string")
	getopt.FlagLong(&o.sas, "sas", 0,
		"SAS token authorizing reads of an https:// scenario URL; unused for local files", "string")
	getopt.FlagLong(&o.dumpRupData, "dump-rupdata", 0,
		"Dump the raw RupData columns (disaggregation input) instead of computing a ProbabilityMap")
	getopt.FlagLong(&o.rupIndep, "rup-indep", 0, "Fold non-exceedance independently (default true)")

	getopt.Parse()
	if *help {
		getopt.Usage()
		os.Exit(0)
	}
	if o.scenario == "" {
		fmt.Fprintln(os.Stderr, "missing required --scenario flag")
		getopt.Usage()
		os.Exit(1)
	}
	return o
}

func loadScenario(resource, sas string) (api.ScenarioRequest, error) {
	maker := hazardio.MakeFileConnection
	if strings.HasPrefix(resource, "https://") {
		maker = hazardio.MakeAzureConnection(nil)
	}
	conn, err := maker(resource, sas)
	if err != nil {
		return api.ScenarioRequest{}, err
	}
	buf, err := conn.Read(context.Background())
	if err != nil {
		return api.ScenarioRequest{}, fmt.Errorf("reading scenario %s: %w", conn.Url(), err)
	}
	var req api.ScenarioRequest
	if err := json.Unmarshal(buf, &req); err != nil {
		return api.ScenarioRequest{}, fmt.Errorf("parsing scenario %s: %w", conn.Url(), err)
	}
	return req, nil
}

func main() {
	o := parseopts()

	req, err := loadScenario(o.scenario, o.sas)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	sources, sites, gsims, params, err := req.Build()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	trt := ""
	if len(sources) > 0 {
		trt = sources[0].TectonicRegionType()
	}
	cm := hazard.NewContextMaker(trt, gsims, params, &hazard.SimpleBank{})

	var out any
	if o.dumpRupData {
		cols, err := cm.FromSources(sources, sites)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		out = cols
	} else {
		byGrp, _, err := cm.GetPmapByGrp(sources, sites, o.rupIndep, req.SrcMutex)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		flat := make(map[int]map[int][][]float64, len(byGrp))
		for grp, pm := range byGrp {
			flat[grp] = pm.AsMap()
		}
		out = flat
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
