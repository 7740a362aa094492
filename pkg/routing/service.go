package routing

import (
	"context"
	"fmt"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"fiber_router/pkg/geo"
	"fiber_router/pkg/logging"
)

// DefaultBBoxPad is the margin, in degrees, around the query endpoints used
// to request terrestrial geometry.
const DefaultBBoxPad = 15.0

// GeometrySource supplies the raw geometry for one route computation.
// Implementations decide what, if anything, is cached.
type GeometrySource interface {
	Terrestrial(ctx context.Context, bbox orb.Bound) (*geojson.FeatureCollection, error)
	SubmarineCables(ctx context.Context) (*geojson.FeatureCollection, error)
	LandingPoints(ctx context.Context) (*geojson.FeatureCollection, error)
}

// Recorder receives one observation per routed request.
type Recorder interface {
	ObserveRoute(status string, elapsed time.Duration, nodes, edges uint32)
}

// ServiceOptions configures a Service. Zero values select defaults.
type ServiceOptions struct {
	BBoxPad float64
	Metrics Recorder
	Logger  logging.Logger
}

// Service answers route queries by fetching geometry from a source and
// handing it to the engine.
type Service struct {
	engine  *Engine
	source  GeometrySource
	bboxPad float64
	metrics Recorder
	log     logging.Logger
}

// NewService wires engine to source.
func NewService(engine *Engine, source GeometrySource, opts ServiceOptions) *Service {
	s := &Service{
		engine:  engine,
		source:  source,
		bboxPad: opts.BBoxPad,
		metrics: opts.Metrics,
		log:     opts.Logger,
	}
	if s.bboxPad <= 0 {
		s.bboxPad = DefaultBBoxPad
	}
	if s.log == nil {
		s.log = logging.Noop()
	}
	return s
}

// Route implements Router.
func (s *Service) Route(ctx context.Context, start, end LatLng) (*RouteResult, error) {
	began := time.Now()
	res, err := s.route(ctx, start, end)

	status := "success"
	var nodes, edges uint32
	if err != nil {
		status = string(KindOf(err))
		s.log.Warn(ctx, "route failed",
			logging.String("kind", status),
			logging.Err(err),
		)
	} else {
		nodes, edges = res.Stats.Nodes, res.Stats.Edges
		s.log.Info(ctx, "route computed",
			logging.Float("total_km", res.Summary.TotalKm),
			logging.Int("segments", len(res.Segments)),
			logging.Duration("elapsed", time.Since(began)),
		)
	}
	if s.metrics != nil {
		s.metrics.ObserveRoute(status, time.Since(began), nodes, edges)
	}
	return res, err
}

func (s *Service) route(ctx context.Context, start, end LatLng) (*RouteResult, error) {
	if err := start.Validate(); err != nil {
		return nil, &RouteError{Kind: KindInvalidInput, Message: "start: " + err.Error(), Err: err}
	}
	if err := end.Validate(); err != nil {
		return nil, &RouteError{Kind: KindInvalidInput, Message: "end: " + err.Error(), Err: err}
	}

	geom, err := s.fetch(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return s.engine.Compute(ctx, start, end, geom)
}

func (s *Service) fetch(ctx context.Context, start, end LatLng) (Geometry, error) {
	bbox := geo.PadBound(s.bboxPad, start.Point(), end.Point())

	land, err := s.source.Terrestrial(ctx, bbox)
	if err != nil {
		return Geometry{}, fetchError("terrestrial geometry", err)
	}
	cables, err := s.source.SubmarineCables(ctx)
	if err != nil {
		return Geometry{}, fetchError("submarine cables", err)
	}
	landings, err := s.source.LandingPoints(ctx)
	if err != nil {
		return Geometry{}, fetchError("landing points", err)
	}
	return Geometry{Terrestrial: land, Submarine: cables, Landings: landings}, nil
}

func fetchError(what string, err error) *RouteError {
	return &RouteError{
		Kind:    KindUpstreamFetch,
		Message: fmt.Sprintf("fetch %s: %v", what, err),
		Err:     err,
	}
}
