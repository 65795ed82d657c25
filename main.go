package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"perumahan-scraper/config"
	"perumahan-scraper/dashboard"
	"perumahan-scraper/metrics"
	"perumahan-scraper/models"
	"perumahan-scraper/scraper/gmaps"
	"perumahan-scraper/services"
	"perumahan-scraper/storage"
	"perumahan-scraper/utils"
)

func main() {
	mode := flag.String("mode", "scrape", "Run mode: 'scrape' or 'serve'")
	targetsFile := flag.String("targets", "", "YAML file with cities and keywords (overrides TARGETS_FILE)")
	csvPath := flag.String("csv", "", "CSV path to write (scrape) or read (serve)")
	flag.Parse()

	cfg := config.Load()
	if *targetsFile != "" {
		cfg.TargetsFile = *targetsFile
	}
	if *csvPath != "" {
		cfg.CSVOutputPath = *csvPath
		cfg.DashboardCSVPath = *csvPath
	}

	logger := utils.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	appMetrics := metrics.NewMetrics(reg)

	var code int
	switch *mode {
	case "scrape":
		code = runScrape(ctx, cfg, logger, appMetrics, reg)
	case "serve":
		reg.MustRegister(collectors.NewGoCollector())
		reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		code = runServe(ctx, cfg, logger, appMetrics, reg)
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q\n", *mode)
		flag.PrintDefaults()
		code = 2
	}

	stop()
	os.Exit(code)
}

func runScrape(ctx context.Context, cfg *config.Config, logger *utils.Logger, m *metrics.Metrics, reg *prometheus.Registry) int {
	targets, err := config.LoadTargets(cfg.TargetsFile)
	if err != nil {
		logger.Error("failed to load targets", "error", err)
		return 1
	}

	logger.Info("=== Housing scraper starting ===",
		"cities", len(targets.Cities),
		"keywords", len(targets.Keywords),
		"target_total", cfg.TargetTotal,
		"rate_limit_ms", cfg.RateLimitMs)

	scraper := gmaps.New(cfg, targets, logger, m)
	collected, results, err := scraper.Scrape(ctx)
	if err != nil {
		logger.Error("crawl failed", "error", err)
		return 1
	}

	insightSvc := services.NewInsightService(logger)
	insightSvc.PrintCrawl(os.Stdout, results)

	if len(collected) == 0 {
		logger.Error("no housing records were collected, nothing written")
		return 1
	}

	cleaner := services.NewCleaner(logger)
	dataset := cleaner.Clean(collected)
	m.DuplicatesDropped.Add(float64(len(collected) - len(dataset)))
	m.DatasetSize.Set(float64(len(dataset)))

	writers := []storage.DatasetWriter{
		storage.NewCSVWriter(cfg.CSVOutputPath),
		storage.NewMapWriter(cfg.MapOutputPath(), storage.NationalMap()),
	}
	for _, w := range writers {
		if err := w.Write(dataset); err != nil {
			logger.Error("write failed", "error", err)
			return 1
		}
	}
	logger.Info("dataset saved", "csv", cfg.CSVOutputPath, "map", cfg.MapOutputPath(), "records", len(dataset))

	report := dataset
	if cfg.PostgresEnabled {
		report = mirrorToPostgres(cfg, logger, dataset)
	}

	insightSvc.Print(os.Stdout, insightSvc.Generate(report))

	if cfg.MetricsTextfile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsTextfile, reg); err != nil {
			logger.Warn("failed to write metrics textfile", "path", cfg.MetricsTextfile, "error", err)
		}
	}
	return 0
}

// mirrorToPostgres stores the dataset in PostgreSQL and returns what the
// database holds afterwards, falling back to dataset on any failure.
func mirrorToPostgres(cfg *config.Config, logger *utils.Logger, dataset []*models.HousingRecord) []*models.HousingRecord {
	pgWriter, err := storage.NewPostgresWriter(cfg.DSN())
	if err != nil {
		logger.Error("failed to connect to PostgreSQL", "error", err)
		return dataset
	}
	defer pgWriter.Close()

	if err := pgWriter.Write(dataset); err != nil {
		logger.Error("PostgreSQL write failed", "error", err)
		return dataset
	}
	logger.Info("dataset mirrored to PostgreSQL", "table", "housing_listings")

	stored, err := pgWriter.FetchAll()
	if err != nil {
		logger.Error("failed to fetch rows from PostgreSQL", "error", err)
		return dataset
	}
	return stored
}

func runServe(ctx context.Context, cfg *config.Config, logger *utils.Logger, m *metrics.Metrics, reg *prometheus.Registry) int {
	dataset, loadErr := storage.LoadCSV(cfg.DashboardCSVPath)
	if loadErr != nil {
		logger.Error("dataset could not be loaded, dashboard will report it", "path", cfg.DashboardCSVPath, "error", loadErr)
	} else {
		logger.Info("dataset loaded", "path", cfg.DashboardCSVPath, "records", len(dataset))
	}

	srv := dashboard.New(dataset, loadErr, logger, m, reg)
	if err := dashboard.Run(ctx, cfg.DashboardAddr, srv.Handler(), logger); err != nil {
		logger.Error("dashboard server failed", "error", err)
		return 1
	}
	return 0
}
