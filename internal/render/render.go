// Package render turns a geocoded location table into a standalone Leaflet
// map: color-coded markers, an optional heat layer, clustering, a title and a
// legend with per-category counts.
package render

import (
	"encoding/json"
	"fmt"
	"html"
	"math"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/sells-group/geomap-cli/internal/model"
)

// Tile layer names.
const (
	TilesOpenStreetMap   = "openstreetmap"
	TilesCartoDBPositron = "cartodb-positron"
)

// Marker styles.
const (
	StylePin    = "pin"
	StyleCircle = "circle"
)

// DefaultTitle is the heading used by the Hubli/Dharwad map.
const DefaultTitle = "ITI VS MSMEs Hubli/Dharwad"

type tileLayer struct {
	URL         string
	Attribution string
}

var tileLayers = map[string]tileLayer{
	TilesOpenStreetMap: {
		URL:         "https://tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`,
	},
	TilesCartoDBPositron: {
		URL:         "https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png",
		Attribution: `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors &copy; <a href="https://carto.com/attributions">CARTO</a>`,
	},
}

// Options controls map composition.
type Options struct {
	CenterLat    float64
	CenterLon    float64
	Zoom         int
	Tiles        string
	MarkerStyle  string
	Cluster      bool
	Heatmap      bool
	HeatRadius   int
	HeatBlur     int
	LayerControl bool
	Title        string
	Legend       bool
	Palette      Palette
}

// DefaultOptions returns the pins-plus-heatmap layout centered on Hubli/Dharwad.
func DefaultOptions() Options {
	return Options{
		CenterLat:   15.40,
		CenterLon:   75.05,
		Zoom:        11,
		Tiles:       TilesOpenStreetMap,
		MarkerStyle: StylePin,
		Heatmap:     true,
		HeatRadius:  15,
		HeatBlur:    10,
		Title:       DefaultTitle,
		Legend:      true,
		Palette:     DefaultPalette(),
	}
}

// Validate checks option values.
func (o Options) Validate() error {
	if _, ok := tileLayers[o.Tiles]; !ok {
		return eris.Errorf("render: unknown tiles %q", o.Tiles)
	}
	if o.MarkerStyle != StylePin && o.MarkerStyle != StyleCircle {
		return eris.Errorf("render: unknown marker style %q", o.MarkerStyle)
	}
	if o.Zoom < 0 || o.Zoom > 19 {
		return eris.Errorf("render: zoom %d out of range 0-19", o.Zoom)
	}
	if o.CenterLat < -90 || o.CenterLat > 90 || o.CenterLon < -180 || o.CenterLon > 180 {
		return eris.Errorf("render: invalid center %f,%f", o.CenterLat, o.CenterLon)
	}
	return nil
}

// Marker is one plotted record.
type Marker struct {
	Name      string
	Category  model.Category
	Color     string
	Popup     string
	Latitude  float64
	Longitude float64
}

// CategoryCount is one legend entry.
type CategoryCount struct {
	Category model.Category
	Color    string
	Count    int
}

// Map is a fully composed map ready for a Sink.
type Map struct {
	Options Options
	Markers []Marker
	Counts  []CategoryCount
	// Dropped counts records skipped for lacking coordinates.
	Dropped int
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Build composes a Map from records. Records without finite coordinates are
// dropped.
func Build(records []model.LocationRecord, opts Options) (*Map, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	m := &Map{Options: opts}
	counts := map[model.Category]int{}
	warned := map[model.Category]bool{}

	for _, r := range records {
		if r.Coordinates == nil || !finite(r.Coordinates.Latitude) || !finite(r.Coordinates.Longitude) {
			m.Dropped++
			continue
		}
		color, known := opts.Palette.Color(r.Category)
		if !known && !warned[r.Category] {
			warned[r.Category] = true
			zap.L().Warn("render: category has no palette entry, using fallback color",
				zap.String("category", string(r.Category)),
				zap.String("color", color),
			)
		}
		m.Markers = append(m.Markers, Marker{
			Name:      r.Name,
			Category:  r.Category,
			Color:     color,
			Popup:     fmt.Sprintf("<b>%s</b><br>Type: %s", html.EscapeString(r.Name), html.EscapeString(string(r.Category))),
			Latitude:  r.Coordinates.Latitude,
			Longitude: r.Coordinates.Longitude,
		})
		counts[r.Category]++
	}

	for cat, n := range counts {
		color, _ := opts.Palette.Color(cat)
		m.Counts = append(m.Counts, CategoryCount{Category: cat, Color: color, Count: n})
	}
	sort.Slice(m.Counts, func(i, j int) bool { return m.Counts[i].Category < m.Counts[j].Category })

	zap.L().Debug("render: map composed",
		zap.Int("markers", len(m.Markers)),
		zap.Int("dropped", m.Dropped),
	)
	return m, nil
}

// HeatPoints returns [lat, lon] pairs for every marker.
func (m *Map) HeatPoints() [][2]float64 {
	pts := make([][2]float64, len(m.Markers))
	for i, mk := range m.Markers {
		pts[i] = [2]float64{mk.Latitude, mk.Longitude}
	}
	return pts
}

// GeoJSON encodes the markers as a FeatureCollection of points. Coordinates
// follow GeoJSON order (lon, lat).
func (m *Map) GeoJSON() ([]byte, error) {
	fc := geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(m.Markers))}
	for i, mk := range m.Markers {
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       fmt.Sprintf("%d", i+1),
			Geometry: geom.NewPointFlat(geom.XY, []float64{mk.Longitude, mk.Latitude}),
			Properties: map[string]interface{}{
				"name":     mk.Name,
				"category": string(mk.Category),
				"color":    mk.Color,
				"popup":    mk.Popup,
			},
		})
	}
	data, err := json.Marshal(&fc)
	if err != nil {
		return nil, eris.Wrap(err, "render: encode geojson")
	}
	return data, nil
}
