// Command hazardd serves the batch hazard HTTP API: POST /pmap for a
// single source's ProbabilityMap and POST /pmap/group for per-group
// composition across many sources, mirroring the teacher's cmd/query
// daemon shape (getopt flags with HAZARD_* environment fallbacks, a
// gzip-compressed Gin engine, metrics on a separate port).
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/pborman/getopt/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/j-gaspar/oq-engine/api"
	_ "github.com/j-gaspar/oq-engine/docs"
	"github.com/j-gaspar/oq-engine/internal/hazard"
	"github.com/j-gaspar/oq-engine/internal/hazardcache"
	"github.com/j-gaspar/oq-engine/internal/hazardconfig"
	"github.com/j-gaspar/oq-engine/internal/hazardlog"
	"github.com/j-gaspar/oq-engine/internal/hazardmetrics"
)

type opts struct {
	configFile  string
	port        uint32
	cacheSizeMB uint64
	metrics     bool
	metricsPort uint32
}

func parseAsUint32(fallback uint32, value string) uint32 {
	if len(value) == 0 {
		return fallback
	}
	out, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		panic(err)
	}
	return uint32(out)
}

func parseAsUint64(fallback uint64, value string) uint64 {
	if len(value) == 0 {
		return fallback
	}
	out, err := strconv.ParseUint(value, 10, 64)
	if err != nil {
		panic(err)
	}
	return out
}

func parseAsString(fallback string, value string) string {
	if len(value) == 0 {
		return fallback
	}
	return value
}

func parseAsBool(fallback bool, value string) bool {
	v, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return v
}

func parseopts() opts {
	help := getopt.BoolLong("help", 0, "print this help text")

	o := opts{
		configFile:  parseAsString("", os.Getenv("HAZARD_CONFIG_FILE")),
		port:        parseAsUint32(8080, os.Getenv("HAZARD_PORT")),
		cacheSizeMB: parseAsUint64(0, os.Getenv("HAZARD_CACHE_SIZE")),
		metrics:     parseAsBool(false, os.Getenv("HAZARD_METRICS")),
		metricsPort: parseAsUint32(8081, os.Getenv("HAZARD_METRICS_PORT")),
	}

	getopt.FlagLong(
		&o.configFile,
		"config-file",
		0,
		"Path to a YAML file carrying the ContextMaker defaults (maximum_distance,\n"+
			"truncation_level, imtls, ...). Every key may also be overridden by an\n"+
			"HAZARD_* environment variable.\n"+
			"Can also be set by environment variable 'HAZARD_CONFIG_FILE'",
		"string",
	)
	getopt.FlagLong(
		&o.port,
		"port",
		0,
		"Port to start server on. Defaults to 8080.\n"+
			"Can also be set by environment variable 'HAZARD_PORT'",
		"int",
	)
	getopt.FlagLong(
		&o.cacheSizeMB,
		"cache-size",
		0,
		"Max size of the ProbabilityMap cache, in megabytes. A value of zero\n"+
			"effectively disables caching. Defaults to 0.\n"+
			"Can also be set by environment variable 'HAZARD_CACHE_SIZE'",
		"int",
	)
	getopt.FlagLong(
		&o.metrics,
		"metrics",
		0,
		"Turn on server metrics. Metrics are posted to /metrics using the\n"+
			"prometheus data model. Off by default.\n"+
			"Can also be set by environment variable 'HAZARD_METRICS'",
	)
	getopt.FlagLong(
		&o.metricsPort,
		"metrics-port",
		0,
		"Port to host the /metrics endpoint on, always separate from the main\n"+
			"server port. Defaults to 8081. Ignored unless --metrics is set.\n"+
			"Can also be set by environment variable 'HAZARD_METRICS_PORT'",
		"int",
	)

	getopt.Parse()
	if *help {
		getopt.Usage()
		os.Exit(0)
	}
	return o
}

func setupApp(app *gin.Engine, endpoint *api.Endpoint) {
	app.Use(gin.Recovery())
	app.Use(gzip.Gzip(gzip.BestSpeed))

	app.GET("/", endpoint.Health)
	app.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	app.POST("/pmap", endpoint.Pmap)
	app.POST("/pmap/group", endpoint.PmapGroup)
}

// @title        hazard API
// @version      0.0
// @description  Computes probabilistic seismic hazard ProbabilityMaps from scenario submissions.
// @schemes      http
func main() {
	o := parseopts()

	cfg, err := hazardconfig.Load(o.configFile)
	if err != nil {
		panic(err)
	}
	if cfg.FilterDistance != "" && !hazard.IsKnownDistance(cfg.FilterDistance) {
		panic(fmt.Sprintf("config filter_distance %q is not a known distance metric", cfg.FilterDistance))
	}

	cache, err := hazardcache.NewCache(int64(o.cacheSizeMB) * 1e6)
	if err != nil {
		panic(err)
	}

	var bank hazard.Bank = &hazard.SimpleBank{}

	endpoint := api.Endpoint{
		Bank:     bank,
		Cache:    cache,
		Log:      hazardlog.Default(),
		Defaults: cfg.Build(),
	}

	app := gin.New()

	var metric *hazardmetrics.Metrics
	if o.metrics {
		metric = hazardmetrics.NewMetrics()

		metricsApp := gin.New()
		metricsApp.Use(gin.Recovery())
		metricsApp.GET("/metrics", gin.WrapH(promhttp.Handler()))

		go func() {
			_ = metricsApp.Run(fmt.Sprintf(":%d", o.metricsPort))
		}()
	}
	endpoint.Metrics = metric

	setupApp(app, &endpoint)
	_ = app.Run(fmt.Sprintf(":%d", o.port))
}
