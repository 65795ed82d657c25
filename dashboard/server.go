// Package dashboard serves the housing dataset over HTTP: filterable rows,
// summary figures, a filtered CSV download and a Leaflet map.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"perumahan-scraper/metrics"
	"perumahan-scraper/models"
	"perumahan-scraper/services"
	"perumahan-scraper/storage"
	"perumahan-scraper/utils"
)

// EmptySelectionWarning is shown when either filter list has been cleared.
const EmptySelectionWarning = "Mohon pilih setidaknya satu Kota dan Kategori."

// Server holds one immutable snapshot of the dataset per process.
type Server struct {
	dataset  []*models.HousingRecord
	loadErr  error
	base     services.FilterConfig
	insights *services.InsightService
	logger   *utils.Logger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
}

// New builds a Server. loadErr is whatever loading the dataset returned; when
// it is non-nil every data route answers 503 with that error.
func New(dataset []*models.HousingRecord, loadErr error, logger *utils.Logger, m *metrics.Metrics, g prometheus.Gatherer) *Server {
	if m != nil {
		m.DatasetSize.Set(float64(len(dataset)))
	}
	return &Server{
		dataset:  dataset,
		loadErr:  loadErr,
		base:     services.NewFilterConfig(dataset),
		insights: services.NewInsightService(logger),
		logger:   logger.With("component", "dashboard"),
		metrics:  m,
		gatherer: g,
	}
}

// Handler wires every route.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.route(mux, "/", s.handleIndex)
	s.route(mux, "/api/listings", s.handleListings)
	s.route(mux, "/api/summary", s.handleSummary)
	s.route(mux, "/api/filters", s.handleFilters)
	s.route(mux, "/download.csv", s.handleDownload)
	s.route(mux, "/map", s.handleMap)
	s.route(mux, "/healthz", s.handleHealth)
	mux.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	return mux
}

func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	var handler http.Handler = s.requireDataset(h)
	if s.metrics != nil {
		counter := s.metrics.DashboardRequests.MustCurryWith(prometheus.Labels{"route": pattern})
		handler = promhttp.InstrumentHandlerCounter(counter, handler)
	}
	mux.Handle(pattern, handler)
}

// requireDataset blocks every data route when the table could not be loaded.
func (s *Server) requireDataset(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.loadErr != nil {
			msg := "dataset unavailable: " + s.loadErr.Error()
			if errors.Is(s.loadErr, storage.ErrDatasetNotFound) {
				msg = "File data perumahan tidak ditemukan: " + s.loadErr.Error()
			}
			http.Error(w, msg, http.StatusServiceUnavailable)
			return
		}
		next(w, r)
	}
}

// FilterFromQuery reads the selection from query parameters. Without
// filtered=1 everything is selected. With it, only the listed city and
// category values are, so a form with every box unticked selects nothing.
func FilterFromQuery(q url.Values, base services.FilterConfig) services.FilterConfig {
	if q.Get("filtered") == "" {
		return base
	}
	return base.WithCities(q["city"]...).WithCategories(q["category"]...)
}

type listingRow struct {
	City      string  `json:"pulau_kota"`
	Category  string  `json:"kategori"`
	Name      string  `json:"nama_perumahan"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Link      string  `json:"link_gmaps"`
}

type listingsResponse struct {
	Warning  string       `json:"warning,omitempty"`
	Count    int          `json:"count"`
	Listings []listingRow `json:"listings"`
}

func (s *Server) filtered(r *http.Request) ([]*models.HousingRecord, services.FilterConfig) {
	cfg := FilterFromQuery(r.URL.Query(), s.base)
	return services.Filter(s.dataset, cfg), cfg
}

func (s *Server) handleListings(w http.ResponseWriter, r *http.Request) {
	records, cfg := s.filtered(r)

	resp := listingsResponse{Count: len(records), Listings: make([]listingRow, 0, len(records))}
	if cfg.Empty() {
		resp.Warning = EmptySelectionWarning
	}
	for _, rec := range records {
		resp.Listings = append(resp.Listings, listingRow{
			City:      rec.City,
			Category:  string(rec.Category),
			Name:      rec.Name,
			Latitude:  rec.Latitude,
			Longitude: rec.Longitude,
			Link:      rec.Link,
		})
	}
	s.writeJSON(w, resp)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	records, _ := s.filtered(r)
	s.writeJSON(w, s.insights.Generate(records))
}

func (s *Server) handleFilters(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, map[string][]string{
		"cities":     services.UniqueCities(s.dataset),
		"categories": services.UniqueCategories(s.dataset),
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	records, _ := s.filtered(r)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="data_filtered.csv"`)
	if err := storage.WriteCSV(w, records); err != nil {
		s.logger.Error("failed to write csv download", "error", err)
	}
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	records, _ := s.filtered(r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := storage.RenderMap(w, records, storage.CenteredMap(records)); err != nil {
		s.logger.Error("failed to render map", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		s.logger.Error("failed to write reply", "error", err)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// Run serves handler on addr until ctx is cancelled, then shuts down
// gracefully.
func Run(ctx context.Context, addr string, handler http.Handler, logger *utils.Logger) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting dashboard server", "addr", addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("dashboard: listen: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("dashboard: shutdown: %w", err)
	}
	logger.Info("dashboard server stopped")
	return nil
}
