package upstream

import (
	"context"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// FileSource serves geometry from collections loaded from local files.
type FileSource struct {
	terrestrial *geojson.FeatureCollection
	cables      *geojson.FeatureCollection
	landings    *geojson.FeatureCollection
}

// NewFileSource wraps already decoded collections.
func NewFileSource(terrestrial, cables, landings *geojson.FeatureCollection) *FileSource {
	return &FileSource{terrestrial: orEmpty(terrestrial), cables: orEmpty(cables), landings: orEmpty(landings)}
}

// Terrestrial returns the features whose bounds intersect bbox.
func (f *FileSource) Terrestrial(_ context.Context, bbox orb.Bound) (*geojson.FeatureCollection, error) {
	out := geojson.NewFeatureCollection()
	for _, feat := range f.terrestrial.Features {
		if feat == nil || feat.Geometry == nil {
			continue
		}
		if feat.Geometry.Bound().Intersects(bbox) {
			out.Append(feat)
		}
	}
	return out, nil
}

func (f *FileSource) SubmarineCables(context.Context) (*geojson.FeatureCollection, error) {
	return f.cables, nil
}

func (f *FileSource) LandingPoints(context.Context) (*geojson.FeatureCollection, error) {
	return f.landings, nil
}

// ReadCollection decodes a GeoJSON FeatureCollection file. An empty path
// yields an empty collection.
func ReadCollection(path string) (*geojson.FeatureCollection, error) {
	if path == "" {
		return geojson.NewFeatureCollection(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return fc, nil
}

func orEmpty(fc *geojson.FeatureCollection) *geojson.FeatureCollection {
	if fc == nil {
		return geojson.NewFeatureCollection()
	}
	return fc
}
