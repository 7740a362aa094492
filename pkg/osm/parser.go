// Package osm extracts terrestrial fibre cable ways from OpenStreetMap
// extracts as GeoJSON line features.
package osm

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"

	"fiber_router/pkg/logging"
)

// DefaultOwnerField matches the owner property of ITU terrestrial features,
// so parsed ways can be merged into the same collection.
const DefaultOwnerField = "operator_l"

// cableValues are the telecom/communication tag values of a physical line.
var cableValues = map[string]bool{
	"line":  true,
	"cable": true,
}

// fibreMedia are accepted values of an explicit medium tag.
var fibreMedia = map[string]bool{
	"fibre":   true,
	"fiber":   true,
	"optical": true,
}

// isFiberCable returns true if the way is an in-service terrestrial
// telecom line that is not known to use a non-optical medium.
func isFiberCable(tags osm.Tags) bool {
	kind := tags.Find("telecom")
	medium := tags.Find("telecom:medium")
	if kind == "" {
		kind = tags.Find("communication")
		medium = tags.Find("communication:medium")
	}
	if !cableValues[kind] {
		return false
	}

	if medium != "" && !fibreMedia[strings.ToLower(medium)] {
		return false
	}

	// Submarine segments come from the cable map, not OSM.
	if tags.Find("submarine") == "yes" || tags.Find("location") == "underwater" {
		return false
	}

	// Skip lifecycle states.
	if tags.Find("disused") == "yes" || tags.Find("abandoned") == "yes" {
		return false
	}
	if tags.Find("construction") != "" || tags.Find("proposed") != "" {
		return false
	}

	return true
}

// ownerOf prefers operator over owner. Empty means unknown.
func ownerOf(tags osm.Tags) string {
	if op := tags.Find("operator"); op != "" {
		return op
	}
	return tags.Find("owner")
}

// wayInfo holds parsed way data collected during pass 1.
type wayInfo struct {
	ID      osm.WayID
	NodeIDs []osm.NodeID
	Owner   string
}

// ParseOptions configures the OSM parser.
type ParseOptions struct {
	// BBox, if set, drops segments with an endpoint outside it.
	BBox       orb.Bound
	OwnerField string
	Logger     logging.Logger
}

// Format is the encoding of an OSM extract.
type Format int

const (
	PBF Format = iota
	XML
)

// FormatOf guesses the encoding from a file name.
func FormatOf(name string) Format {
	if strings.HasSuffix(strings.ToLower(name), ".osm") {
		return XML
	}
	return PBF
}

// Parse reads an OSM extract and returns one LineString feature per
// contiguous run of a fibre way's resolvable nodes.
// The reader is consumed twice (seeks back to start for the second pass),
// so it must implement io.ReadSeeker.
func Parse(ctx context.Context, rs io.ReadSeeker, format Format, opts ParseOptions) (*geojson.FeatureCollection, error) {
	if opts.OwnerField == "" {
		opts.OwnerField = DefaultOwnerField
	}
	log := opts.Logger
	if log == nil {
		log = logging.Noop()
	}
	useBBox := opts.BBox != (orb.Bound{})

	// Pass 1: Scan ways to collect referenced node IDs and way info.
	referencedNodes := make(map[osm.NodeID]struct{})
	var ways []wayInfo

	scanner := newScanner(ctx, rs, format, true)
	for scanner.Scan() {
		w, ok := scanner.Object().(*osm.Way)
		if !ok {
			continue
		}
		if !isFiberCable(w.Tags) || len(w.Nodes) < 2 {
			continue
		}

		nodeIDs := make([]osm.NodeID, len(w.Nodes))
		for i, wn := range w.Nodes {
			nodeIDs[i] = wn.ID
			referencedNodes[wn.ID] = struct{}{}
		}
		ways = append(ways, wayInfo{ID: w.ID, NodeIDs: nodeIDs, Owner: ownerOf(w.Tags)})
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 1 (ways): %w", err)
	}
	scanner.Close()

	log.Debug(ctx, "osm pass 1 complete",
		logging.Int("ways", len(ways)),
		logging.Int("referenced_nodes", len(referencedNodes)),
	)

	// Pass 2: Scan nodes to collect coordinates for referenced nodes only.
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek for pass 2: %w", err)
	}

	coords := make(map[osm.NodeID]orb.Point, len(referencedNodes))
	scanner = newScanner(ctx, rs, format, false)
	for scanner.Scan() {
		n, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		if _, needed := referencedNodes[n.ID]; !needed {
			continue
		}
		coords[n.ID] = orb.Point{n.Lon, n.Lat}
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, fmt.Errorf("pass 2 (nodes): %w", err)
	}
	scanner.Close()

	// Build features from ways, splitting wherever a node is missing or a
	// segment leaves the bbox.
	fc := geojson.NewFeatureCollection()
	var skipped, bboxFiltered int

	for _, w := range ways {
		var run orb.LineString
		flush := func() {
			if len(run) >= 2 {
				f := geojson.NewFeature(run)
				f.ID = int64(w.ID)
				if w.Owner != "" {
					f.Properties[opts.OwnerField] = w.Owner
				}
				fc.Append(f)
			}
			run = nil
		}

		for i := 0; i < len(w.NodeIDs)-1; i++ {
			from, fromOk := coords[w.NodeIDs[i]]
			to, toOk := coords[w.NodeIDs[i+1]]
			if !fromOk || !toOk {
				skipped++
				flush()
				continue
			}
			if useBBox && (!opts.BBox.Contains(from) || !opts.BBox.Contains(to)) {
				bboxFiltered++
				flush()
				continue
			}
			if len(run) == 0 {
				run = append(run, from)
			}
			run = append(run, to)
		}
		flush()
	}

	if skipped > 0 {
		log.Warn(ctx, "skipped osm segments with missing node coordinates", logging.Int("segments", skipped))
	}
	if bboxFiltered > 0 {
		log.Debug(ctx, "filtered osm segments outside bounding box", logging.Int("segments", bboxFiltered))
	}
	log.Info(ctx, "osm fibre ways parsed",
		logging.Int("ways", len(ways)),
		logging.Int("features", len(fc.Features)),
	)
	return fc, nil
}

// newScanner opens a scanner for one pass. The PBF scanner can skip the
// object types a pass does not need.
func newScanner(ctx context.Context, r io.Reader, format Format, waysOnly bool) osm.Scanner {
	if format == XML {
		return osmxml.New(ctx, r)
	}
	s := osmpbf.New(ctx, r, 1)
	s.SkipRelations = true
	if waysOnly {
		s.SkipNodes = true
	} else {
		s.SkipWays = true
	}
	return s
}
