package routing

import (
	"context"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"fiber_router/pkg/bridge"
	"fiber_router/pkg/graph"
	"fiber_router/pkg/index"
	"fiber_router/pkg/ingest"
	"fiber_router/pkg/logging"
)

const tracerName = "fiber_router/pkg/routing"

// LatLng represents a geographic coordinate.
type LatLng struct {
	Lat float64
	Lng float64
}

// Point converts to a lon/lat orb.Point.
func (ll LatLng) Point() orb.Point { return orb.Point{ll.Lng, ll.Lat} }

// Validate rejects non-finite and out-of-range coordinates.
func (ll LatLng) Validate() error {
	if math.IsNaN(ll.Lat) || math.IsNaN(ll.Lng) || math.IsInf(ll.Lat, 0) || math.IsInf(ll.Lng, 0) {
		return fmt.Errorf("coordinates must be finite numbers")
	}
	if ll.Lat < -90 || ll.Lat > 90 || ll.Lng < -180 || ll.Lng > 180 {
		return fmt.Errorf("coordinates out of range")
	}
	return nil
}

// Router is the interface for route queries.
type Router interface {
	Route(ctx context.Context, start, end LatLng) (*RouteResult, error)
}

// Geometry is the raw input of one route computation.
type Geometry struct {
	Terrestrial *geojson.FeatureCollection
	Submarine   *geojson.FeatureCollection
	Landings    *geojson.FeatureCollection
}

// Params tunes graph assembly.
type Params struct {
	LandOwnerField    string
	LandFallbackOwner string
	SubOwnerField     string
	SubFallbackOwner  string
	SubmarineCost     float64 // weight multiplier for submarine edges
	SubmarineFilter   ingest.FilterMode
	SubmarinePad      float64 // degrees around the endpoints
	Bridge            bridge.Options
}

// DefaultParams matches the ITU terrestrial and submarinecablemap.com
// feature schemas.
func DefaultParams() Params {
	return Params{
		LandOwnerField:    "operator_l",
		LandFallbackOwner: "Terrestrial Backbone",
		SubOwnerField:     "name",
		SubFallbackOwner:  "Submarine Cable",
		SubmarineCost:     0.7,
		SubmarineFilter:   ingest.FilterLongitude,
		SubmarinePad:      25,
		Bridge:            bridge.DefaultOptions(),
	}
}

// Engine assembles a fresh route graph for every computation. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	params Params
	log    logging.Logger
}

// NewEngine creates a routing engine.
func NewEngine(params Params, log logging.Logger) *Engine {
	if log == nil {
		log = logging.Noop()
	}
	return &Engine{params: params, log: log}
}

// Params returns the engine's tuning parameters.
func (e *Engine) Params() Params { return e.params }

// Compute builds the route graph from geom and returns the cheapest path
// between the nodes nearest start and end. Every failure is a *RouteError.
func (e *Engine) Compute(ctx context.Context, start, end LatLng, geom Geometry) (*RouteResult, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "routing.Compute")
	defer span.End()

	res, err := e.compute(ctx, start, end, geom)
	if err != nil {
		span.RecordError(err)
		return nil, asRouteError(err)
	}
	return res, nil
}

func (e *Engine) compute(ctx context.Context, start, end LatLng, geom Geometry) (*RouteResult, error) {
	if err := start.Validate(); err != nil {
		return nil, &RouteError{Kind: KindInvalidInput, Message: "start: " + err.Error(), Err: err}
	}
	if err := end.Validate(); err != nil {
		return nil, &RouteError{Kind: KindInvalidInput, Message: "end: " + err.Error(), Err: err}
	}
	startPt, endPt := start.Point(), end.Point()
	tracer := otel.Tracer(tracerName)

	// Step 1: Ingest both networks.
	_, span := tracer.Start(ctx, "routing.ingest")
	land := ingest.Ingest(geom.Terrestrial, ingest.Options{
		OwnerField:    e.params.LandOwnerField,
		FallbackOwner: e.params.LandFallbackOwner,
		CostFactor:    1,
		Type:          graph.Land,
	})
	sub := ingest.Ingest(geom.Submarine, ingest.Options{
		OwnerField:    e.params.SubOwnerField,
		FallbackOwner: e.params.SubFallbackOwner,
		CostFactor:    e.params.SubmarineCost,
		Type:          graph.Submarine,
		Filter:        ingest.EndpointFilter(e.params.SubmarineFilter, startPt, endPt, e.params.SubmarinePad),
	})
	span.SetAttributes(
		attribute.Int("land.edges", len(land.Edges)),
		attribute.Int("submarine.edges", len(sub.Edges)),
		attribute.Int("submarine.filtered", sub.Skipped),
	)
	span.End()

	// Step 2: Bridge at landing points. Either network being empty leaves
	// nothing to splice.
	landings := ingest.Points(geom.Landings)
	bridged, err := e.bridge(ctx, land.Nodes, sub.Nodes, landings)
	if err != nil {
		return nil, err
	}

	// Step 3: Assemble and search.
	g, err := graph.Build(land.Edges, sub.Edges, bridged.Edges)
	if err != nil {
		return nil, err
	}

	stats := BuildStats{
		LandEdges:       len(land.Edges),
		SubmarineEdges:  len(sub.Edges),
		BridgeEdges:     len(bridged.Edges),
		Landings:        len(landings),
		BridgedLandings: bridged.Connected,
		Nodes:           g.NumNodes,
		Edges:           g.NumEdges,
		Components:      g.NumComponents(),
	}
	e.log.Debug(ctx, "route graph built",
		logging.Int("land_edges", stats.LandEdges),
		logging.Int("submarine_edges", stats.SubmarineEdges),
		logging.Int("bridge_edges", stats.BridgeEdges),
		logging.Int("bridged_landings", stats.BridgedLandings),
		logging.Int("nodes", int(stats.Nodes)),
		logging.Int("components", int(stats.Components)),
		logging.Int("largest_component", int(g.LargestComponentSize())),
	)

	_, span = tracer.Start(ctx, "routing.search", trace.WithAttributes(
		attribute.Int("graph.nodes", int(g.NumNodes)),
		attribute.Int("graph.edges", int(g.NumEdges)),
	))
	defer span.End()

	from := g.Snap(startPt)
	to := g.Snap(endPt)
	path, err := ShortestPath(g, from.Node, to.Node)
	if err != nil {
		return nil, &RouteError{
			Kind:    KindNoPath,
			Message: fmt.Sprintf("no path between %v and %v: networks are not connected", from.Point, to.Point),
			Err:     err,
		}
	}

	res := Format(g, path)
	res.Stats = stats
	return res, nil
}

func (e *Engine) bridge(ctx context.Context, landNodes, subNodes, landings []orb.Point) (*bridge.Result, error) {
	if len(landNodes) == 0 || len(subNodes) == 0 {
		return &bridge.Result{}, nil
	}
	_, span := otel.Tracer(tracerName).Start(ctx, "routing.bridge")
	defer span.End()

	landIdx, err := index.Build(landNodes)
	if err != nil {
		return nil, fmt.Errorf("index land nodes: %w", err)
	}
	subIdx, err := index.Build(subNodes)
	if err != nil {
		return nil, fmt.Errorf("index submarine nodes: %w", err)
	}
	res := bridge.Bridge(landIdx, subIdx, landings, e.params.Bridge)
	span.SetAttributes(
		attribute.Int("landings", len(landings)),
		attribute.Int("bridge.edges", len(res.Edges)),
	)
	return res, nil
}
