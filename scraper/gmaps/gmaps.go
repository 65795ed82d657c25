package gmaps

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"perumahan-scraper/config"
	"perumahan-scraper/metrics"
	"perumahan-scraper/models"
	"perumahan-scraper/services"
	"perumahan-scraper/utils"
)

const (
	searchBaseURL     = "https://www.google.com/maps/search/"
	feedSelector      = `div[role='feed']`
	placeLinkSelector = `a[href*='/maps/place/']`
	userAgent         = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Scraper walks Google Maps search results city by city and keyword by
// keyword, one search at a time.
type Scraper struct {
	cfg      *config.Config
	targets  config.Targets
	logger   *utils.Logger
	metrics  *metrics.Metrics
	throttle *utils.Throttle
	retry    *utils.RetryConfig
	scroll   utils.Backoff

	records []*models.HousingRecord
}

// linkFetcher loads one search results page and returns its place anchors.
type linkFetcher func(url string) ([]placeLink, error)

// placeLink is one result anchor as read from the feed.
type placeLink struct {
	Href string `json:"href"`
	Name string `json:"name"`
}

// New creates a ready-to-use Google Maps Scraper.
func New(cfg *config.Config, targets config.Targets, logger *utils.Logger, m *metrics.Metrics) *Scraper {
	logger = logger.With("component", "gmaps")
	return &Scraper{
		cfg:      cfg,
		targets:  targets,
		logger:   logger,
		metrics:  m,
		throttle: utils.NewThrottle(cfg.RateLimitMs),
		retry: &utils.RetryConfig{
			MaxAttempts: max(cfg.MaxRetries, 1),
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
		scroll:  scrollBackoff,
		records: make([]*models.HousingRecord, 0),
	}
}

// SearchURL builds the results URL for "<keyword> di <city>".
func SearchURL(keyword, city string) string {
	query := keyword + " di " + city
	return searchBaseURL + strings.ReplaceAll(query, " ", "+")
}

// Scrape runs every city/keyword search until the targets are exhausted or
// TargetTotal records have been admitted. A failing search is logged and
// skipped; only a browser that cannot start aborts the run.
func (s *Scraper) Scrape(ctx context.Context) ([]*models.HousingRecord, []models.CityResult, error) {
	s.logger.Info("starting crawl",
		"cities", len(s.targets.Cities),
		"keywords", len(s.targets.Keywords),
		"target_total", s.cfg.TargetTotal)

	chromeBin := findChromeBinary(s.cfg.ChromeBin)
	s.logger.Info("using browser binary", "path", chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", s.cfg.Headless),
		chromedp.Flag("lang", "id"),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1920, 1080),
		chromedp.UserAgent(userAgent),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	if err := chromedp.Run(browserCtx); err != nil {
		return nil, nil, fmt.Errorf("start browser: %w", err)
	}

	results := s.crawl(ctx, func(url string) ([]placeLink, error) {
		return s.fetchLinks(browserCtx, url)
	})

	s.logger.Info("crawl complete", "records", len(s.records), "searches", len(results))
	return s.records, results, nil
}

// crawl runs the searches in target order. The record cap and ctx are checked
// before every search; a failed search is recorded and the next one runs.
func (s *Scraper) crawl(ctx context.Context, fetch linkFetcher) []models.CityResult {
	var results []models.CityResult

crawl:
	for _, city := range s.targets.Cities {
		for _, keyword := range s.targets.Keywords {
			if s.reachedTarget() {
				s.logger.Info("target reached, stopping crawl", "records", len(s.records))
				break crawl
			}
			if ctx.Err() != nil {
				s.logger.Warn("crawl interrupted", "error", ctx.Err())
				break crawl
			}

			res := s.search(ctx, fetch, city, keyword)
			results = append(results, res)
		}
	}
	return results
}

func (s *Scraper) reachedTarget() bool {
	return s.cfg.TargetTotal > 0 && len(s.records) >= s.cfg.TargetTotal
}

// search runs one city/keyword pair and folds its admitted records into the
// dataset.
func (s *Scraper) search(ctx context.Context, fetch linkFetcher, city, keyword string) models.CityResult {
	res := models.CityResult{City: city, Keyword: keyword}
	log := s.logger.With("city", city, "keyword", keyword)
	url := SearchURL(keyword, city)

	start := time.Now()
	defer func() { s.metrics.SearchSeconds.Observe(time.Since(start).Seconds()) }()

	if err := s.throttle.Wait(ctx); err != nil {
		res.Err = err
		s.metrics.Searches.WithLabelValues("failed").Inc()
		return res
	}

	log.Info("searching", "url", url)

	var links []placeLink
	err := s.retry.Do(ctx, "search "+keyword+" di "+city, func() error {
		var err error
		links, err = fetch(url)
		return err
	})
	if err != nil {
		log.Warn("search failed, skipping", "error", err)
		res.Err = err
		s.metrics.Searches.WithLabelValues("failed").Inc()
		return res
	}

	s.collect(&res, links)
	s.metrics.Searches.WithLabelValues("ok").Inc()
	log.Info("search done", "links", res.Links, "admitted", res.Admitted, "total", len(s.records))
	return res
}

// collect turns result anchors into records. Anchors missing a link or a
// label are skipped, and links without a usable coordinate never make it in.
func (s *Scraper) collect(res *models.CityResult, links []placeLink) {
	category := string(models.CategoryFromKeyword(res.Keyword))
	for _, l := range links {
		if l.Href == "" || l.Name == "" {
			continue
		}
		res.Links++
		s.metrics.LinksSeen.WithLabelValues(res.City, category).Inc()

		rec := services.NewRecord(res.City, res.Keyword, l.Name, l.Href)
		if rec == nil {
			s.logger.Debug("no coordinate in link", "name", l.Name, "link", l.Href)
			continue
		}
		s.records = append(s.records, rec)
		res.Admitted++
		s.metrics.RecordsAdmitted.WithLabelValues(res.City, category).Inc()
	}
}

// fetchLinks opens url in a fresh tab, waits for the results feed, scrolls it
// until it stops growing and returns every place anchor on the page.
func (s *Scraper) fetchLinks(browserCtx context.Context, url string) ([]placeLink, error) {
	tabCtx, cancel := chromedp.NewContext(browserCtx)
	defer cancel()

	feedTimeout := time.Duration(s.cfg.FeedTimeoutSec) * time.Second
	budget := feedTimeout + time.Duration(s.cfg.MaxScrolls)*s.scroll.Max + 30*time.Second
	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, budget)
	defer cancelTimeout()

	if err := chromedp.Run(tabCtx, chromedp.Navigate(url)); err != nil {
		return nil, fmt.Errorf("chromedp navigate: %w", err)
	}

	waitCtx, cancelWait := context.WithTimeout(tabCtx, feedTimeout)
	err := chromedp.Run(waitCtx, chromedp.WaitReady(feedSelector, chromedp.ByQuery))
	cancelWait()
	if err != nil {
		return nil, fmt.Errorf("results feed not found: %w", err)
	}

	if err := s.scrollFeed(tabCtx, scrollAndCount); err != nil {
		return nil, err
	}

	var links []placeLink
	if err := chromedp.Run(tabCtx, chromedp.Evaluate(extractLinksJS, &links)); err != nil {
		return nil, fmt.Errorf("chromedp extract links: %w", err)
	}
	return links, nil
}

var scrollBackoff = utils.Backoff{
	Initial:    500 * time.Millisecond,
	Max:        3 * time.Second,
	Multiplier: 1.5,
}

// scrollAndCount scrolls the feed to its bottom once and returns how many
// place anchors are loaded.
func scrollAndCount(ctx context.Context) (int, error) {
	var count int
	if err := chromedp.Run(ctx,
		chromedp.Evaluate(scrollFeedJS, nil),
		chromedp.Evaluate(countLinksJS, &count),
	); err != nil {
		return 0, fmt.Errorf("chromedp scroll: %w", err)
	}
	return count, nil
}

// scrollFeed scrolls the results feed and polls the anchor count until it has
// stayed the same for ScrollStablePolls rounds or MaxScrolls is spent.
func (s *Scraper) scrollFeed(ctx context.Context, scrollOnce func(context.Context) (int, error)) error {
	b := s.scroll
	b.MaxAttempts = s.cfg.MaxScrolls

	last, stable := -1, 0
	err := utils.Poll(ctx, b, func(attempt int) (bool, error) {
		count, err := scrollOnce(ctx)
		if err != nil {
			return false, err
		}
		if count == last {
			stable++
		} else {
			last, stable = count, 0
		}
		s.logger.Debug("scrolled feed", "attempt", attempt, "links", count, "stable", stable)
		return stable >= s.cfg.ScrollStablePolls, nil
	})
	if errors.Is(err, utils.ErrPollExhausted) {
		return nil
	}
	return err
}

var (
	scrollFeedJS = `(function() {
		var feed = document.querySelector("` + feedSelector + `");
		if (feed) { feed.scrollTop = feed.scrollHeight; }
		return true;
	})()`

	countLinksJS = `document.querySelectorAll("` + placeLinkSelector + `").length`

	extractLinksJS = `(function() {
		var out = [];
		var anchors = document.querySelectorAll("` + placeLinkSelector + `");
		for (var i = 0; i < anchors.length; i++) {
			out.push({
				href: anchors[i].href || '',
				name: anchors[i].getAttribute('aria-label') || ''
			});
		}
		return out;
	})()`
)

// findChromeBinary locates Chrome/Chromium binary.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
