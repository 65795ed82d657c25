package dashboard

import (
	"html/template"
	"net/http"
	"net/url"
	"sort"

	"perumahan-scraper/models"
	"perumahan-scraper/services"
)

type option struct {
	Value   string
	Checked bool
}

type cityRow struct {
	City    string
	Subsidi int
	Elite   int
}

// selectionLinks are the per-list Select All / Clear All shortcuts. Each one
// keeps the other list's current selection.
type selectionLinks struct {
	AllCities     template.URL
	NoCities      template.URL
	AllCategories template.URL
	NoCategories  template.URL
}

type indexPage struct {
	Cities     []option
	Categories []option
	Links      selectionLinks
	Summary    *models.Summary
	Rows       []cityRow
	Listings   []*models.HousingRecord
	Warning    string
	Query      template.URL
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	records, cfg := s.filtered(r)
	summary := s.insights.Generate(records)

	page := indexPage{
		Cities:     options(services.UniqueCities(s.dataset), cfg.SelectedCities()),
		Categories: options(services.UniqueCategories(s.dataset), cfg.SelectedCategories()),
		Links: selectionLinks{
			AllCities:     configQuery(cfg.WithAllCities()),
			NoCities:      configQuery(cfg.WithoutCities()),
			AllCategories: configQuery(cfg.WithAllCategories()),
			NoCategories:  configQuery(cfg.WithoutCategories()),
		},
		Summary:  summary,
		Listings: records,
		Query:    filterQuery(r.URL.Query()),
	}
	if cfg.Empty() {
		page.Warning = EmptySelectionWarning
	}
	for city, counts := range summary.ByCity {
		page.Rows = append(page.Rows, cityRow{
			City:    city,
			Subsidi: counts[string(models.CategorySubsidi)],
			Elite:   counts[string(models.CategoryElite)],
		})
	}
	sort.Slice(page.Rows, func(i, j int) bool { return page.Rows[i].City < page.Rows[j].City })

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, page); err != nil {
		s.logger.Error("failed to render index", "error", err)
	}
}

// filterQuery keeps only the filter parameters so the map and download links
// carry the same selection as the page.
func filterQuery(q url.Values) template.URL {
	kept := url.Values{}
	for _, key := range []string{"filtered", "city", "category"} {
		if vs, ok := q[key]; ok {
			kept[key] = vs
		}
	}
	return template.URL(kept.Encode())
}

// configQuery encodes cfg as the query string FilterFromQuery reads back.
func configQuery(cfg services.FilterConfig) template.URL {
	q := url.Values{"filtered": {"1"}}
	for _, c := range cfg.SelectedCities() {
		q.Add("city", c)
	}
	for _, c := range cfg.SelectedCategories() {
		q.Add("category", c)
	}
	return template.URL(q.Encode())
}

func options(all, selected []string) []option {
	chosen := make(map[string]struct{}, len(selected))
	for _, v := range selected {
		chosen[v] = struct{}{}
	}
	out := make([]option, 0, len(all))
	for _, v := range all {
		_, ok := chosen[v]
		out = append(out, option{Value: v, Checked: ok})
	}
	return out
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Dashboard Persebaran Perumahan</title>
<style>
body { font-family: sans-serif; margin: 0; display: flex; }
aside { width: 260px; padding: 1em; background: #f4f4f4; min-height: 100vh; }
main { flex: 1; padding: 1em; }
.metrics { display: flex; gap: 2em; }
.metric b { display: block; font-size: 1.6em; }
.warning { background: #fff3cd; padding: .5em; }
table { border-collapse: collapse; }
td, th { padding: .2em .8em; border-bottom: 1px solid #ddd; }
iframe { width: 100%; height: 500px; border: 0; }
</style>
</head>
<body>
<aside>
<h2>Filter Data</h2>
<form method="get" action="/">
<input type="hidden" name="filtered" value="1">
<h3>Lokasi</h3>
<p><a href="/?{{.Links.AllCities}}">Select All</a> | <a href="/?{{.Links.NoCities}}">Clear All</a></p>
{{range .Cities}}<label><input type="checkbox" name="city" value="{{.Value}}"{{if .Checked}} checked{{end}}> {{.Value}}</label><br>
{{end}}
<h3>Kategori</h3>
<p><a href="/?{{.Links.AllCategories}}">Select All</a> | <a href="/?{{.Links.NoCategories}}">Clear All</a></p>
{{range .Categories}}<label><input type="checkbox" name="category" value="{{.Value}}"{{if .Checked}} checked{{end}}> {{.Value}}</label><br>
{{end}}
<p><button type="submit">Terapkan</button></p>
</form>
</aside>
<main>
<h1>Housing Market Tracker</h1>
<p>Data perumahan subsidi &amp; elite di Indonesia.</p>
{{if .Warning}}<p class="warning">{{.Warning}}</p>{{end}}
<div class="metrics">
<div class="metric">Total Data Perumahan<b>{{.Summary.Total}} Unit</b></div>
<div class="metric">Jumlah Kota Terpantau<b>{{.Summary.Cities}} Kota</b></div>
<div class="metric">Kategori Terbanyak<b>{{.Summary.TopCategory}}</b></div>
</div>
<h2>Proporsi Kategori</h2>
<table class="shares">
<tr><th>Kategori</th><th>Persentase</th></tr>
{{range $cat, $share := .Summary.CategoryShares}}<tr><td>{{$cat}}</td><td>{{printf "%.1f" $share}}%</td></tr>
{{end}}
</table>
<h2>Distribusi Perumahan per Kota</h2>
<table>
<tr><th>Kota</th><th>Subsidi</th><th>Elite</th></tr>
{{range .Rows}}<tr><td>{{.City}}</td><td>{{.Subsidi}}</td><td>{{.Elite}}</td></tr>
{{end}}
</table>
<h2>Peta Persebaran Lokasi</h2>
<iframe src="/map?{{.Query}}"></iframe>
<h2>Data Detail</h2>
<table class="listings">
<tr><th>Kota</th><th>Kategori</th><th>Nama Perumahan</th><th>Latitude</th><th>Longitude</th><th>Link</th></tr>
{{range .Listings}}<tr><td>{{.City}}</td><td>{{.Category}}</td><td>{{.Name}}</td><td>{{.Latitude}}</td><td>{{.Longitude}}</td><td><a href="{{.Link}}" target="_blank">Buka</a></td></tr>
{{end}}
</table>
<p><a href="/download.csv?{{.Query}}">Download CSV</a></p>
</main>
</body>
</html>
`))
