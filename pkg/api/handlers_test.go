package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fiber_router/pkg/graph"
	"fiber_router/pkg/routing"
)

// mockRouter implements routing.Router for testing.
type mockRouter struct {
	result *routing.RouteResult
	err    error

	gotStart, gotEnd routing.LatLng
	calls            int
}

func (m *mockRouter) Route(ctx context.Context, start, end routing.LatLng) (*routing.RouteResult, error) {
	m.calls++
	m.gotStart, m.gotEnd = start, end
	return m.result, m.err
}

func sampleResult() *routing.RouteResult {
	return &routing.RouteResult{
		Summary: routing.Summary{TotalKm: 1234.5, RTT: 12.35},
		Segments: []routing.Segment{
			{
				Coords: [2]routing.LatLon{{43.3, 5.37}, {31.2, 29.9}},
				Owner:  "SEA-ME-WE 6",
				Type:   "submarine",
				Dist:   1234.5,
			},
		},
		Partners: []string{"SEA-ME-WE 6"},
	}
}

func TestHandleCalculate_Success(t *testing.T) {
	mock := &mockRouter{result: sampleResult()}
	h := NewHandlers(mock, nil)

	req := httptest.NewRequest("GET", "/calculate?start_lat=43.3&start_lon=5.37&end_lat=31.2&end_lon=29.9", nil)
	w := httptest.NewRecorder()

	h.HandleCalculate(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200. body: %s", w.Code, w.Body.String())
	}

	var resp RouteResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "success" {
		t.Errorf("status = %q, want success", resp.Status)
	}
	if resp.Summary.TotalKm != 1234.5 || resp.Summary.RTT != 12.35 {
		t.Errorf("summary = %+v", resp.Summary)
	}
	if len(resp.Segments) != 1 || resp.Segments[0].Coords[0] != (routing.LatLon{43.3, 5.37}) {
		t.Errorf("segments = %+v", resp.Segments)
	}
	if mock.gotStart != (routing.LatLng{Lat: 43.3, Lng: 5.37}) || mock.gotEnd != (routing.LatLng{Lat: 31.2, Lng: 29.9}) {
		t.Errorf("router got %v -> %v", mock.gotStart, mock.gotEnd)
	}
}

func TestHandleCalculate_BadParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
		field string
	}{
		{"missing", "start_lat=1&start_lon=2&end_lat=3", "end_lon"},
		{"malformed", "start_lat=abc&start_lon=2&end_lat=3&end_lon=4", "start_lat"},
		{"out of range", "start_lat=1&start_lon=2&end_lat=95&end_lon=4", "end"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockRouter{}
			h := NewHandlers(mock, nil)
			w := httptest.NewRecorder()
			h.HandleCalculate(w, httptest.NewRequest("GET", "/calculate?"+tt.query, nil))

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != "error" || resp.Field != tt.field || resp.Kind != "invalid_input" {
				t.Errorf("error = %+v, want field %q", resp, tt.field)
			}
			if mock.calls != 0 {
				t.Error("router should not be called for invalid input")
			}
		})
	}
}

func TestHandleCalculate_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"no path", &routing.RouteError{Kind: routing.KindNoPath, Message: "networks are not connected"}, http.StatusNotFound, "no_path"},
		{"bare sentinel", routing.ErrNoRoute, http.StatusNotFound, "no_path"},
		{"empty graph", routing.NewError(routing.KindEmptyGraph, graph.ErrEmptyGraph), http.StatusUnprocessableEntity, "empty_graph"},
		{"upstream", &routing.RouteError{Kind: routing.KindUpstreamFetch, Message: "fetch landing points: 503"}, http.StatusBadGateway, "upstream_fetch"},
		{"timeout", routing.NewError(routing.KindUpstreamFetch, context.DeadlineExceeded), http.StatusServiceUnavailable, "upstream_fetch"},
		{"internal", errors.New("secret detail"), http.StatusInternalServerError, "internal"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandlers(&mockRouter{err: tt.err}, nil)
			w := httptest.NewRecorder()
			h.HandleCalculate(w, httptest.NewRequest("GET", "/calculate?start_lat=0&start_lon=0&end_lat=1&end_lon=1", nil))

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			var resp ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != "error" || resp.Kind != tt.kind || resp.Message == "" {
				t.Errorf("error = %+v, want kind %q", resp, tt.kind)
			}
			if strings.Contains(resp.Message, "secret") {
				t.Errorf("internal error leaked: %q", resp.Message)
			}
		})
	}
}

func TestHandleRoute_Success(t *testing.T) {
	h := NewHandlers(&mockRouter{result: sampleResult()}, nil)

	body := `{"start":{"lat":43.3,"lng":5.37},"end":{"lat":31.2,"lng":29.9}}`
	req := httptest.NewRequest("POST", "/api/v1/route", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.HandleRoute(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200. body: %s", w.Code, w.Body.String())
	}
	var resp RouteResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Partners) != 1 {
		t.Errorf("partners = %v", resp.Partners)
	}
}

func TestHandleRoute_InvalidJSON(t *testing.T) {
	h := NewHandlers(&mockRouter{}, nil)

	req := httptest.NewRequest("POST", "/api/v1/route", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.HandleRoute(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleRoute_MissingContentType(t *testing.T) {
	h := NewHandlers(&mockRouter{}, nil)

	body := `{"start":{"lat":1.3,"lng":103.8},"end":{"lat":1.35,"lng":103.85}}`
	req := httptest.NewRequest("POST", "/api/v1/route", strings.NewReader(body))
	w := httptest.NewRecorder()

	h.HandleRoute(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleRoute_OutOfBounds(t *testing.T) {
	h := NewHandlers(&mockRouter{}, nil)

	// Latitude out of valid range (-90 to 90).
	body := `{"start":{"lat":91.0,"lng":103.8},"end":{"lat":1.35,"lng":103.85}}`
	req := httptest.NewRequest("POST", "/api/v1/route", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.HandleRoute(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestHandleHealth(t *testing.T) {
	h := NewHandlers(&mockRouter{}, nil)

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()

	h.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	var resp HealthResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Status != "ok" {
		t.Errorf("status = %q, want 'ok'", resp.Status)
	}
}

func TestHandleStats(t *testing.T) {
	at := time.Unix(1_700_000_000, 0).UTC()
	h := NewHandlers(&mockRouter{}, func() StatsResponse {
		return StatsResponse{
			SubmarineFilter: "longitude",
			SubmarineCost:   0.7,
			Datasets:        []DatasetStats{{Source: "scm_cables", Features: 650, FetchedAt: at}},
		}
	})

	req := httptest.NewRequest("GET", "/api/v1/stats", nil)
	w := httptest.NewRecorder()

	h.HandleStats(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	var resp StatsResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.SubmarineFilter != "longitude" || len(resp.Datasets) != 1 || resp.Datasets[0].Features != 650 {
		t.Errorf("stats = %+v", resp)
	}
}
