// Package upstream fetches terrestrial and submarine fiber geometry from the
// public ITU and submarinecablemap.com endpoints.
package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// ErrFetch wraps every failed upstream request.
var ErrFetch = errors.New("upstream fetch failed")

const (
	ITUWFSURL     = "https://bbmaps.itu.int/geoserver/ows"
	CableGeoURL   = "https://www.submarinecablemap.com/api/v3/cable/cable-geo.json"
	LandingGeoURL = "https://www.submarinecablemap.com/api/v3/landing-point/landing-point-geo.json"

	DefaultTypeName    = "ITU:trx_public_2"
	DefaultMaxFeatures = 40000
	DefaultTimeout     = 40 * time.Second

	userAgent = "fiberroute/1.0"
)

// Source names one upstream dataset.
type Source string

const (
	SourceITU      Source = "itu"
	SourceCables   Source = "scm_cables"
	SourceLandings Source = "scm_landings"
)

// FetchRecorder receives one observation per upstream request.
type FetchRecorder interface {
	ObserveFetch(source string, err error)
}

// ClientConfig configures a Client. Zero values select the public endpoints
// and defaults above.
type ClientConfig struct {
	ITUURL      string
	CablesURL   string
	LandingsURL string
	TypeName    string
	MaxFeatures int
	Timeout     time.Duration
	Metrics     FetchRecorder
}

// Client talks to the upstream geometry services.
type Client struct {
	http *http.Client
	cfg  ClientConfig
}

// NewClient returns a client with a bounded per-request timeout.
func NewClient(cfg ClientConfig) *Client {
	if cfg.ITUURL == "" {
		cfg.ITUURL = ITUWFSURL
	}
	if cfg.CablesURL == "" {
		cfg.CablesURL = CableGeoURL
	}
	if cfg.LandingsURL == "" {
		cfg.LandingsURL = LandingGeoURL
	}
	if cfg.TypeName == "" {
		cfg.TypeName = DefaultTypeName
	}
	if cfg.MaxFeatures <= 0 {
		cfg.MaxFeatures = DefaultMaxFeatures
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &Client{
		http: &http.Client{Timeout: cfg.Timeout},
		cfg:  cfg,
	}
}

// Terrestrial queries the ITU WFS for terrestrial transmission links inside
// bbox.
func (c *Client) Terrestrial(ctx context.Context, bbox orb.Bound) (*geojson.FeatureCollection, error) {
	q := url.Values{}
	q.Set("service", "WFS")
	q.Set("version", "1.0.0")
	q.Set("request", "GetFeature")
	q.Set("typeName", c.cfg.TypeName)
	q.Set("outputFormat", "application/json")
	q.Set("maxFeatures", strconv.Itoa(c.cfg.MaxFeatures))
	q.Set("bbox", FormatBBox(bbox))

	body, err := c.get(ctx, SourceITU, c.cfg.ITUURL+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	return decode(SourceITU, body)
}

// Global downloads the raw body of a global dataset.
func (c *Client) Global(ctx context.Context, src Source) ([]byte, error) {
	switch src {
	case SourceCables:
		return c.get(ctx, src, c.cfg.CablesURL)
	case SourceLandings:
		return c.get(ctx, src, c.cfg.LandingsURL)
	}
	return nil, fmt.Errorf("%w: unknown global source %q", ErrFetch, src)
}

func (c *Client) get(ctx context.Context, src Source, rawURL string) ([]byte, error) {
	ctx, span := otel.Tracer("fiber_router/pkg/upstream").Start(ctx, "upstream.fetch")
	defer span.End()
	span.SetAttributes(attribute.String("upstream.source", string(src)))

	body, err := c.do(ctx, rawURL)
	if err != nil {
		span.RecordError(err)
	} else {
		span.SetAttributes(attribute.Int("upstream.bytes", len(body)))
	}
	if c.cfg.Metrics != nil {
		c.cfg.Metrics.ObserveFetch(string(src), err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrFetch, src, err)
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// FormatBBox renders b as the WFS "minLon,minLat,maxLon,maxLat" parameter.
func FormatBBox(b orb.Bound) string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return f(b.Min.Lon()) + "," + f(b.Min.Lat()) + "," + f(b.Max.Lon()) + "," + f(b.Max.Lat())
}

func decode(src Source, body []byte) (*geojson.FeatureCollection, error) {
	fc, err := geojson.UnmarshalFeatureCollection(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: decode geojson: %v", ErrFetch, src, err)
	}
	return fc, nil
}
