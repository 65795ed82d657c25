package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Searches          *prometheus.CounterVec
	LinksSeen         *prometheus.CounterVec
	RecordsAdmitted   *prometheus.CounterVec
	DuplicatesDropped prometheus.Counter
	DatasetSize       prometheus.Gauge
	SearchSeconds     prometheus.Histogram
	DashboardRequests *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		Searches: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "perumahan_searches_total",
			Help: "Total number of city/keyword searches, by outcome.",
		}, []string{"status"}),
		LinksSeen: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "perumahan_links_seen_total",
			Help: "Place links found on result feeds.",
		}, []string{"city", "category"}),
		RecordsAdmitted: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "perumahan_records_admitted_total",
			Help: "Records whose link carried a usable coordinate.",
		}, []string{"city", "category"}),
		DuplicatesDropped: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "perumahan_duplicates_dropped_total",
			Help: "Records removed because an earlier record had the same coordinates.",
		}),
		DatasetSize: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "perumahan_dataset_records",
			Help: "Number of records in the current dataset.",
		}),
		SearchSeconds: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "perumahan_search_duration_seconds",
			Help:    "Duration of a single city/keyword search including scrolling.",
			Buckets: []float64{5, 10, 20, 30, 45, 60, 90, 120},
		}),
		DashboardRequests: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "perumahan_dashboard_requests_total",
			Help: "Dashboard HTTP requests, by route and status code.",
		}, []string{"route", "code"}),
	}
}

// WriteTextfile dumps everything gathered by g to path in the text exposition
// format, for node_exporter's textfile collector.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
