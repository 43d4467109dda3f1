package render

import (
	"bufio"
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

//go:embed templates/map.html.tmpl
var templateFS embed.FS

var mapTemplate = template.Must(template.ParseFS(templateFS, "templates/map.html.tmpl"))

// Sink receives a composed Map.
type Sink interface {
	Write(ctx context.Context, m *Map) error
}

// FileSink writes the map as a standalone HTML document.
type FileSink struct {
	Path string
}

// Write implements Sink. Parent directories are created as needed.
func (s FileSink) Write(ctx context.Context, m *Map) error {
	if err := ctx.Err(); err != nil {
		return eris.Wrap(err, "render: write cancelled")
	}
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "render: create directory %s", dir)
		}
	}

	f, err := os.Create(s.Path)
	if err != nil {
		return eris.Wrapf(err, "render: create %s", s.Path)
	}
	bw := bufio.NewWriter(f)
	if err := HTML(bw, m); err != nil {
		_ = f.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		return eris.Wrapf(err, "render: flush %s", s.Path)
	}
	if err := f.Close(); err != nil {
		return eris.Wrapf(err, "render: close %s", s.Path)
	}

	zap.L().Info("render: map saved", zap.String("path", s.Path), zap.Int("markers", len(m.Markers)))
	return nil
}

// WriterSink renders to an arbitrary writer.
type WriterSink struct {
	W io.Writer
}

// Write implements Sink.
func (s WriterSink) Write(_ context.Context, m *Map) error {
	return HTML(s.W, m)
}

type templateData struct {
	Title           string
	Legend          bool
	Counts          []CategoryCount
	Total           int
	CenterLat       float64
	CenterLon       float64
	Zoom            int
	TileURL         string
	TileAttribution string
	Style           string
	Cluster         bool
	Heatmap         bool
	HeatRadius      int
	HeatBlur        int
	LayerControl    bool
	Features        template.JS
	Heat            template.JS
}

// HTML renders m as a standalone HTML document.
func HTML(w io.Writer, m *Map) error {
	features, err := m.GeoJSON()
	if err != nil {
		return err
	}
	heat, err := json.Marshal(m.HeatPoints())
	if err != nil {
		return eris.Wrap(err, "render: encode heat points")
	}

	o := m.Options
	tiles := tileLayers[o.Tiles]
	data := templateData{
		Title:           o.Title,
		Legend:          o.Legend,
		Counts:          m.Counts,
		Total:           len(m.Markers),
		CenterLat:       o.CenterLat,
		CenterLon:       o.CenterLon,
		Zoom:            o.Zoom,
		TileURL:         tiles.URL,
		TileAttribution: tiles.Attribution,
		Style:           o.MarkerStyle,
		Cluster:         o.Cluster,
		Heatmap:         o.Heatmap,
		HeatRadius:      o.HeatRadius,
		HeatBlur:        o.HeatBlur,
		LayerControl:    o.LayerControl,
		Features:        template.JS(features), //nolint:gosec // json.Marshal output, HTML-escaped
		Heat:            template.JS(heat),     //nolint:gosec // numeric array
	}
	if err := mapTemplate.Execute(w, data); err != nil {
		return eris.Wrap(err, "render: execute template")
	}
	return nil
}
