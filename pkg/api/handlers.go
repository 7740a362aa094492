package api

import (
	"context"
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"strconv"

	"fiber_router/pkg/routing"
)

// Handlers holds the HTTP handlers and their dependencies.
type Handlers struct {
	router routing.Router
	stats  func() StatsResponse
}

// NewHandlers creates handlers with the given router. stats is called on
// every stats request and may be nil.
func NewHandlers(router routing.Router, stats func() StatsResponse) *Handlers {
	if stats == nil {
		stats = func() StatsResponse { return StatsResponse{} }
	}
	return &Handlers{
		router: router,
		stats:  stats,
	}
}

// HandleCalculate handles GET /calculate?start_lat=&start_lon=&end_lat=&end_lon=.
func (h *Handlers) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var coords [4]float64
	for i, name := range []string{"start_lat", "start_lon", "end_lat", "end_lon"} {
		v, err := strconv.ParseFloat(q.Get(name), 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, routing.KindInvalidInput, "missing or malformed query parameter", name)
			return
		}
		coords[i] = v
	}

	h.route(w, r,
		routing.LatLng{Lat: coords[0], Lng: coords[1]},
		routing.LatLng{Lat: coords[2], Lng: coords[3]},
	)
}

// HandleRoute handles POST /api/v1/route.
func (h *Handlers) HandleRoute(w http.ResponseWriter, r *http.Request) {
	// Enforce Content-Type.
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "application/json" {
		writeError(w, http.StatusBadRequest, routing.KindInvalidInput, "content type must be application/json", "")
		return
	}

	// Parse request.
	var req RouteRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1024)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, routing.KindInvalidInput, "malformed request body", "")
		return
	}

	h.route(w, r,
		routing.LatLng{Lat: req.Start.Lat, Lng: req.Start.Lng},
		routing.LatLng{Lat: req.End.Lat, Lng: req.End.Lng},
	)
}

func (h *Handlers) route(w http.ResponseWriter, r *http.Request, start, end routing.LatLng) {
	// Validate coordinates.
	if err := start.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, routing.KindInvalidInput, err.Error(), "start")
		return
	}
	if err := end.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, routing.KindInvalidInput, err.Error(), "end")
		return
	}

	result, err := h.router.Route(r.Context(), start, end)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			writeError(w, http.StatusServiceUnavailable, routing.KindOf(err), "request timed out", "")
			return
		}
		kind := routing.KindOf(err)
		msg := err.Error()
		if kind == routing.KindInternal {
			msg = "internal error"
		}
		writeError(w, statusFor(kind), kind, msg, "")
		return
	}

	writeJSON(w, http.StatusOK, RouteResponse{
		Status:   "success",
		Summary:  result.Summary,
		Segments: result.Segments,
		Partners: result.Partners,
	})
}

// HandleHealth handles GET /api/v1/health.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

// HandleStats handles GET /api/v1/stats.
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.stats())
}

func statusFor(kind routing.ErrorKind) int {
	switch kind {
	case routing.KindInvalidInput:
		return http.StatusBadRequest
	case routing.KindNoPath:
		return http.StatusNotFound
	case routing.KindEmptyGraph, routing.KindEmptyIndex:
		return http.StatusUnprocessableEntity
	case routing.KindUpstreamFetch:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, kind routing.ErrorKind, message, field string) {
	writeJSON(w, status, ErrorResponse{
		Status:  "error",
		Message: message,
		Kind:    string(kind),
		Field:   field,
	})
}
