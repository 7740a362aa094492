// Package config loads server and engine settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"fiber_router/pkg/bridge"
	"fiber_router/pkg/ingest"
	"fiber_router/pkg/observability"
	"fiber_router/pkg/routing"
	"fiber_router/pkg/upstream"
)

// Config holds every tunable of the fiberroute binary.
type Config struct {
	Addr string

	ITUURL         string
	ITUTypeName    string
	ITUMaxFeatures int
	CableURL       string
	LandingURL     string
	FetchTimeout   time.Duration

	BBoxPadDeg          float64
	SubmarinePadDeg     float64
	SubmarineFilter     string
	SubmarineCostFactor float64
	LandRadiusDeg       float64
	SubRadiusDeg        float64
	LandNeighbours      int

	RefreshSchedule string
	SnapshotDB      string

	LogLevel  string
	LogFormat string

	Tracing observability.TracingConfig
}

// Default returns the settings of the public deployment.
func Default() Config {
	p := routing.DefaultParams()
	b := bridge.DefaultOptions()
	return Config{
		Addr:                "127.0.0.1:8000",
		ITUURL:              upstream.ITUWFSURL,
		ITUTypeName:         upstream.DefaultTypeName,
		ITUMaxFeatures:      upstream.DefaultMaxFeatures,
		CableURL:            upstream.CableGeoURL,
		LandingURL:          upstream.LandingGeoURL,
		FetchTimeout:        upstream.DefaultTimeout,
		BBoxPadDeg:          routing.DefaultBBoxPad,
		SubmarinePadDeg:     p.SubmarinePad,
		SubmarineFilter:     string(p.SubmarineFilter),
		SubmarineCostFactor: p.SubmarineCost,
		LandRadiusDeg:       b.LandRadius,
		SubRadiusDeg:        b.SubRadius,
		LandNeighbours:      b.LandNeighbours,
		RefreshSchedule:     "@every 6h",
		LogLevel:            "info",
		LogFormat:           "text",
		Tracing: observability.TracingConfig{
			ServiceName: "fiberroute",
			Exporter:    "stdout",
			SampleRatio: 1,
		},
	}
}

// Load reads envFile (when non-empty and present) into the process
// environment without overriding variables already set, then builds a Config
// from FIBER_* variables over the defaults.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup over the defaults.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Default()
	e := env{lookup: lookup}

	e.stringVar("FIBER_ADDR", &cfg.Addr)
	e.stringVar("FIBER_ITU_WFS_URL", &cfg.ITUURL)
	e.stringVar("FIBER_ITU_TYPENAME", &cfg.ITUTypeName)
	e.intVar("FIBER_ITU_MAX_FEATURES", &cfg.ITUMaxFeatures)
	e.stringVar("FIBER_SCM_CABLE_URL", &cfg.CableURL)
	e.stringVar("FIBER_SCM_LANDING_URL", &cfg.LandingURL)
	e.durationVar("FIBER_FETCH_TIMEOUT", &cfg.FetchTimeout)

	e.floatVar("FIBER_BBOX_PAD", &cfg.BBoxPadDeg)
	e.floatVar("FIBER_SUBMARINE_PAD", &cfg.SubmarinePadDeg)
	e.stringVar("FIBER_SUBMARINE_FILTER", &cfg.SubmarineFilter)
	e.floatVar("FIBER_SUBMARINE_COST", &cfg.SubmarineCostFactor)
	e.floatVar("FIBER_LAND_RADIUS", &cfg.LandRadiusDeg)
	e.floatVar("FIBER_SUB_RADIUS", &cfg.SubRadiusDeg)
	e.intVar("FIBER_LAND_NEIGHBOURS", &cfg.LandNeighbours)

	e.stringOrEmpty("FIBER_REFRESH_SCHEDULE", &cfg.RefreshSchedule)
	e.stringVar("FIBER_SNAPSHOT_DB", &cfg.SnapshotDB)

	e.stringVar("LOG_LEVEL", &cfg.LogLevel)
	e.stringVar("LOG_FORMAT", &cfg.LogFormat)

	e.boolVar("FIBER_TRACING_ENABLED", &cfg.Tracing.Enabled)
	e.stringVar("FIBER_TRACING_EXPORTER", &cfg.Tracing.Exporter)
	e.stringVar("FIBER_OTLP_ENDPOINT", &cfg.Tracing.Endpoint)
	e.floatVar("FIBER_TRACING_SAMPLE_RATIO", &cfg.Tracing.SampleRatio)

	if err := errors.Join(e.errs...); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	var errs []error
	if c.LandRadiusDeg <= 0 {
		errs = append(errs, fmt.Errorf("land radius must be positive, got %v", c.LandRadiusDeg))
	}
	if c.SubRadiusDeg <= 0 {
		errs = append(errs, fmt.Errorf("submarine radius must be positive, got %v", c.SubRadiusDeg))
	}
	if c.SubmarineCostFactor <= 0 || c.SubmarineCostFactor > 1 {
		errs = append(errs, fmt.Errorf("submarine cost factor must be in (0, 1], got %v", c.SubmarineCostFactor))
	}
	if c.LandNeighbours <= 0 {
		errs = append(errs, fmt.Errorf("land neighbours must be at least 1, got %d", c.LandNeighbours))
	}
	if c.BBoxPadDeg < 0 || c.SubmarinePadDeg < 0 {
		errs = append(errs, errors.New("padding must not be negative"))
	}
	if _, err := ingest.ParseFilterMode(c.SubmarineFilter); err != nil {
		errs = append(errs, err)
	}
	if c.FetchTimeout <= 0 {
		errs = append(errs, fmt.Errorf("fetch timeout must be positive, got %v", c.FetchTimeout))
	}
	if c.Tracing.SampleRatio < 0 || c.Tracing.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("tracing sample ratio must be in [0, 1], got %v", c.Tracing.SampleRatio))
	}
	return errors.Join(errs...)
}

// Params converts the engine settings.
func (c Config) Params() routing.Params {
	p := routing.DefaultParams()
	mode, _ := ingest.ParseFilterMode(c.SubmarineFilter)
	p.SubmarineFilter = mode
	p.SubmarinePad = c.SubmarinePadDeg
	p.SubmarineCost = c.SubmarineCostFactor
	p.Bridge = bridge.Options{
		LandRadius:     c.LandRadiusDeg,
		SubRadius:      c.SubRadiusDeg,
		LandNeighbours: c.LandNeighbours,
	}
	return p
}

// Client converts the upstream settings.
func (c Config) Client(metrics upstream.FetchRecorder) upstream.ClientConfig {
	return upstream.ClientConfig{
		ITUURL:      c.ITUURL,
		CablesURL:   c.CableURL,
		LandingsURL: c.LandingURL,
		TypeName:    c.ITUTypeName,
		MaxFeatures: c.ITUMaxFeatures,
		Timeout:     c.FetchTimeout,
		Metrics:     metrics,
	}
}

type env struct {
	lookup func(string) (string, bool)
	errs   []error
}

func (e *env) get(key string) (string, bool) {
	v, ok := e.lookup(key)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func (e *env) stringVar(key string, dst *string) {
	if v, ok := e.get(key); ok {
		*dst = v
	}
}

// stringOrEmpty lets an explicitly empty variable clear the default.
func (e *env) stringOrEmpty(key string, dst *string) {
	if v, ok := e.lookup(key); ok {
		*dst = strings.TrimSpace(v)
	}
}

func (e *env) intVar(key string, dst *int) {
	if v, ok := e.get(key); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = n
	}
}

func (e *env) floatVar(key string, dst *float64) {
	if v, ok := e.get(key); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = f
	}
}

func (e *env) boolVar(key string, dst *bool) {
	if v, ok := e.get(key); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = b
	}
}

func (e *env) durationVar(key string, dst *time.Duration) {
	if v, ok := e.get(key); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
			return
		}
		*dst = d
	}
}
