package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/paulmach/orb/geojson"
	"github.com/spf13/cobra"

	"fiber_router/pkg/api"
	"fiber_router/pkg/geo"
	"fiber_router/pkg/logging"
	"fiber_router/pkg/osm"
	"fiber_router/pkg/routing"
	"fiber_router/pkg/upstream"
)

type routeOptions struct {
	start, end  string
	terrestrial string
	cables      string
	landings    string
	osmFile     string
	filter      string
	live        bool
}

func newRouteCmd(a *app) *cobra.Command {
	var opts routeOptions
	cmd := &cobra.Command{
		Use:   "route",
		Short: "Compute one route and print it as JSON",
		Long: `Compute the cheapest fibre route between two points.

Geometry comes from local GeoJSON files (--terrestrial, --cables, --landings)
and optionally an OSM extract (--osm), or from the live upstream services
with --live.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("submarine-filter") {
				a.cfg.SubmarineFilter = opts.filter
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return runRoute(cmd, a, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.start, "start", "", "Start point as lat,lon")
	f.StringVar(&opts.end, "end", "", "End point as lat,lon")
	f.StringVar(&opts.terrestrial, "terrestrial", "", "GeoJSON file of terrestrial cable lines")
	f.StringVar(&opts.cables, "cables", "", "GeoJSON file of submarine cable lines")
	f.StringVar(&opts.landings, "landings", "", "GeoJSON file of landing points")
	f.StringVar(&opts.osmFile, "osm", "", "OSM extract (.osm.pbf or .osm) merged into the terrestrial network")
	f.StringVar(&opts.filter, "submarine-filter", "", "Submarine filter policy: longitude, bbox, none")
	f.BoolVar(&opts.live, "live", false, "Fetch geometry from the upstream services")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func runRoute(cmd *cobra.Command, a *app, opts routeOptions) error {
	ctx := cmd.Context()
	start, err := parseLatLng(opts.start)
	if err != nil {
		return fmt.Errorf("--start: %w", err)
	}
	end, err := parseLatLng(opts.end)
	if err != nil {
		return fmt.Errorf("--end: %w", err)
	}

	var source routing.GeometrySource
	if opts.live {
		source = upstream.NewCache(upstream.NewClient(a.cfg.Client(nil)), nil, a.log)
	} else {
		source, err = fileSource(cmd, a, opts, start, end)
		if err != nil {
			return err
		}
	}

	svc := routing.NewService(routing.NewEngine(a.cfg.Params(), a.log), source, routing.ServiceOptions{
		BBoxPad: a.cfg.BBoxPadDeg,
		Logger:  a.log,
	})
	res, err := svc.Route(ctx, start, end)
	if err != nil {
		kind := routing.KindOf(err)
		if werr := writeIndented(cmd.OutOrStdout(), api.ErrorResponse{
			Status:  "error",
			Message: err.Error(),
			Kind:    string(kind),
		}); werr != nil {
			return werr
		}
		return fmt.Errorf("route failed: %s", kind)
	}
	return writeIndented(cmd.OutOrStdout(), api.RouteResponse{
		Status:   "success",
		Summary:  res.Summary,
		Segments: res.Segments,
		Partners: res.Partners,
	})
}

// fileSource loads the local GeoJSON files and appends the fibre ways of an
// optional OSM extract, clipped to the request's padded box.
func fileSource(cmd *cobra.Command, a *app, opts routeOptions, start, end routing.LatLng) (*upstream.FileSource, error) {
	land, err := upstream.ReadCollection(opts.terrestrial)
	if err != nil {
		return nil, err
	}
	cables, err := upstream.ReadCollection(opts.cables)
	if err != nil {
		return nil, err
	}
	landings, err := upstream.ReadCollection(opts.landings)
	if err != nil {
		return nil, err
	}

	if opts.osmFile != "" {
		extra, err := parseOSM(cmd, a, opts.osmFile, start, end)
		if err != nil {
			return nil, err
		}
		land.Features = append(land.Features, extra.Features...)
	}
	return upstream.NewFileSource(land, cables, landings), nil
}

func parseOSM(cmd *cobra.Command, a *app, path string, start, end routing.LatLng) (*geojson.FeatureCollection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	fc, err := osm.Parse(cmd.Context(), f, osm.FormatOf(path), osm.ParseOptions{
		BBox:       geo.PadBound(a.cfg.BBoxPadDeg, start.Point(), end.Point()),
		OwnerField: a.cfg.Params().LandOwnerField,
		Logger:     a.log,
	})
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	a.log.Info(cmd.Context(), "loaded OSM extract",
		logging.String("path", path),
		logging.Int("features", len(fc.Features)),
	)
	return fc, nil
}

// parseLatLng parses "lat,lon".
func parseLatLng(s string) (routing.LatLng, error) {
	latStr, lonStr, ok := strings.Cut(s, ",")
	if !ok {
		return routing.LatLng{}, fmt.Errorf("want lat,lon, got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return routing.LatLng{}, fmt.Errorf("latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return routing.LatLng{}, fmt.Errorf("longitude: %w", err)
	}
	return routing.LatLng{Lat: lat, Lng: lon}, nil
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
