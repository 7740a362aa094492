package observability

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the Prometheus metrics of the route service. A nil
// *Collector is valid and records nothing.
type Collector struct {
	gatherer prometheus.Gatherer

	RouteRequests  *prometheus.CounterVec
	RouteDurations prometheus.Histogram
	GraphNodes     prometheus.Histogram
	GraphEdges     prometheus.Histogram
	UpstreamFetch  *prometheus.CounterVec
}

// NewCollector registers the route metrics against reg, defaulting to the
// global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	requests, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fiber_route_requests_total",
		Help: "Route computations, labeled by outcome (success or error kind).",
	}, []string{"status"}))
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fiber_route_duration_seconds",
		Help:    "Wall time of a route computation including upstream fetches.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
	}))
	if err != nil {
		return nil, err
	}

	nodes, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fiber_graph_nodes",
		Help:    "Node count of each assembled route graph.",
		Buckets: prometheus.ExponentialBuckets(10, 4, 10),
	}))
	if err != nil {
		return nil, err
	}

	edges, err := registerHistogram(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fiber_graph_edges",
		Help:    "Edge count of each assembled route graph.",
		Buckets: prometheus.ExponentialBuckets(10, 4, 10),
	}))
	if err != nil {
		return nil, err
	}

	fetch, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fiber_upstream_fetch_total",
		Help: "Upstream geometry fetches, labeled by source and status.",
	}, []string{"source", "status"}))
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:       gatherer,
		RouteRequests:  requests,
		RouteDurations: durations,
		GraphNodes:     nodes,
		GraphEdges:     edges,
		UpstreamFetch:  fetch,
	}, nil
}

// ObserveRoute records one route computation.
func (c *Collector) ObserveRoute(status string, elapsed time.Duration, nodes, edges uint32) {
	if c == nil {
		return
	}
	c.RouteRequests.WithLabelValues(status).Inc()
	c.RouteDurations.Observe(elapsed.Seconds())
	if nodes > 0 {
		c.GraphNodes.Observe(float64(nodes))
		c.GraphEdges.Observe(float64(edges))
	}
}

// ObserveFetch records one upstream fetch.
func (c *Collector) ObserveFetch(source string, err error) {
	if c == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.UpstreamFetch.WithLabelValues(source, status).Inc()
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	if c == nil || c.gatherer == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

func registerCounterVec(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}

func registerHistogram(reg prometheus.Registerer, h prometheus.Histogram) (prometheus.Histogram, error) {
	if err := reg.Register(h); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(prometheus.Histogram); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return h, nil
}
