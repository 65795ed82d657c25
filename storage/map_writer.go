package storage

import (
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"

	"perumahan-scraper/models"
)

// MapOptions controls how a Leaflet map page is rendered.
type MapOptions struct {
	Title     string
	CenterLat float64
	CenterLon float64
	Zoom      int
	Heatmap   bool
}

// NationalMap frames the whole archipelago, as in the static export.
func NationalMap() MapOptions {
	return MapOptions{Title: "Peta Persebaran Perumahan Indonesia", CenterLat: -2.5, CenterLon: 118.0, Zoom: 5, Heatmap: true}
}

// CenteredMap frames the mean coordinate of records, as the dashboard does.
func CenteredMap(records []*models.HousingRecord) MapOptions {
	opts := MapOptions{Title: "Peta Persebaran Lokasi", CenterLat: -2.5, CenterLon: 118.0, Zoom: 10}
	if len(records) == 0 {
		opts.Zoom = 5
		return opts
	}
	var sumLat, sumLon float64
	for _, r := range records {
		sumLat += r.Latitude
		sumLon += r.Longitude
	}
	opts.CenterLat = sumLat / float64(len(records))
	opts.CenterLon = sumLon / float64(len(records))
	return opts
}

type mapPoint struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Name     string  `json:"name"`
	City     string  `json:"city"`
	Category string  `json:"category"`
	Color    string  `json:"color"`
}

type mapPage struct {
	MapOptions
	Points []mapPoint
}

// MarkerColor is green for subsidized estates and red for everything else.
func MarkerColor(c models.Category) string {
	if c == models.CategorySubsidi {
		return "green"
	}
	return "red"
}

// MapWriter exports the dataset as a standalone HTML map.
type MapWriter struct {
	path string
	opts MapOptions
}

func NewMapWriter(path string, opts MapOptions) *MapWriter {
	return &MapWriter{path: path, opts: opts}
}

func (m *MapWriter) Path() string {
	return m.path
}

// Write renders records to the HTML file, creating parent directories.
func (m *MapWriter) Write(records []*models.HousingRecord) error {
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("map: create output dir: %w", err)
	}

	f, err := os.Create(m.path)
	if err != nil {
		return fmt.Errorf("map: create file %q: %w", m.path, err)
	}

	if err := RenderMap(f, records, m.opts); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// RenderMap writes a Leaflet page with clustered circle markers and, when
// requested, a heat layer over the same points.
func RenderMap(w io.Writer, records []*models.HousingRecord, opts MapOptions) error {
	page := mapPage{MapOptions: opts, Points: make([]mapPoint, 0, len(records))}
	for _, r := range records {
		page.Points = append(page.Points, mapPoint{
			Lat:      r.Latitude,
			Lon:      r.Longitude,
			Name:     r.Name,
			City:     r.City,
			Category: string(r.Category),
			Color:    MarkerColor(r.Category),
		})
	}

	if err := mapTemplate.Execute(w, page); err != nil {
		return fmt.Errorf("map: render: %w", err)
	}
	return nil
}

var mapTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<link rel="stylesheet" href="https://unpkg.com/leaflet.markercluster@1.5.3/dist/MarkerCluster.css">
<link rel="stylesheet" href="https://unpkg.com/leaflet.markercluster@1.5.3/dist/MarkerCluster.Default.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<script src="https://unpkg.com/leaflet.markercluster@1.5.3/dist/leaflet.markercluster.js"></script>
{{if .Heatmap}}<script src="https://unpkg.com/leaflet.heat@0.2.0/dist/leaflet-heat.js"></script>{{end}}
<style>html, body, #map { height: 100%; margin: 0; }</style>
</head>
<body>
<div id="map"></div>
<script>
var points = {{.Points}};
var map = L.map("map").setView([{{.CenterLat}}, {{.CenterLon}}], {{.Zoom}});
L.tileLayer("https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png", {
  attribution: "&copy; OpenStreetMap contributors &copy; CARTO"
}).addTo(map);

function esc(s) {
  var d = document.createElement("div");
  d.textContent = s;
  return d.innerHTML;
}

var cluster = L.markerClusterGroup().addTo(map);
points.forEach(function (p) {
  L.circleMarker([p.lat, p.lon], {
    radius: 4, color: p.color, fill: true, fillColor: p.color, fillOpacity: 0.8
  }).bindPopup("<b>" + esc(p.name) + "</b><br>Lokasi: " + esc(p.city) + "<br>Tipe: " + esc(p.category), {maxWidth: 200})
    .addTo(cluster);
});
var overlays = {"Titik Perumahan": cluster};
{{if .Heatmap}}
var heat = L.heatLayer(points.map(function (p) { return [p.lat, p.lon]; }), {radius: 10, blur: 15}).addTo(map);
overlays["Heatmap Pembangunan"] = heat;
{{end}}
L.control.layers(null, overlays).addTo(map);
</script>
</body>
</html>
`))
