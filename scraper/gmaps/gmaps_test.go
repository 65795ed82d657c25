package gmaps

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perumahan-scraper/config"
	"perumahan-scraper/metrics"
	"perumahan-scraper/models"
	"perumahan-scraper/utils"
)

func newTestScraper(t *testing.T, target int) (*Scraper, *metrics.Metrics) {
	t.Helper()
	return newScraperFor(t, target, config.DefaultTargets())
}

func newScraperFor(t *testing.T, target int, targets config.Targets) (*Scraper, *metrics.Metrics) {
	t.Helper()
	m := metrics.NewMetrics(prometheus.NewRegistry())
	cfg := &config.Config{TargetTotal: target, MaxScrolls: 10, ScrollStablePolls: 2}
	s := New(cfg, targets, utils.NopLogger(), m)
	s.scroll = utils.Backoff{Initial: time.Millisecond, Max: 2 * time.Millisecond, Multiplier: 2}
	return s, m
}

func threeCities() config.Targets {
	return config.Targets{
		Cities:   []string{"Medan", "Batam", "Bogor"},
		Keywords: []string{"Perumahan Subsidi"},
	}
}

// cityLinks answers every search with one admitted place per city.
func cityLinks(calls *[]string) linkFetcher {
	coords := map[string]string{
		"Medan": "!3d3.59!4d98.67",
		"Batam": "!3d1.05!4d104.03",
		"Bogor": "!3d-6.59!4d106.8",
	}
	return func(url string) ([]placeLink, error) {
		*calls = append(*calls, url)
		for city, c := range coords {
			if strings.HasSuffix(url, "+"+city) {
				return []placeLink{{Href: "https://www.google.com/maps/place/" + city + "/data=" + c, Name: "Griya " + city}}, nil
			}
		}
		return nil, nil
	}
}

func TestSearchURL(t *testing.T) {
	assert.Equal(t,
		"https://www.google.com/maps/search/Perumahan+Subsidi+di+Bandar+Lampung",
		SearchURL("Perumahan Subsidi", "Bandar Lampung"))
}

func TestCollect(t *testing.T) {
	s, m := newTestScraper(t, 3000)
	res := models.CityResult{City: "Surabaya", Keyword: "Perumahan Subsidi"}

	s.collect(&res, []placeLink{
		{Href: "https://www.google.com/maps/place/A/data=!3d-7.25!4d112.75", Name: "Griya A"},
		{Href: "https://www.google.com/maps/place/B", Name: "Griya B"},
		{Href: "", Name: "No link"},
		{Href: "https://www.google.com/maps/place/C/data=!3d-7.3!4d112.7", Name: ""},
		{Href: "https://www.google.com/maps/place/D/@-7.31,112.71,17z", Name: "Griya D"},
	})

	assert.Equal(t, 3, res.Links)
	assert.Equal(t, 2, res.Admitted)
	require.Len(t, s.records, 2)
	assert.Equal(t, "Griya A", s.records[0].Name)
	assert.Equal(t, models.CategorySubsidi, s.records[0].Category)
	assert.Equal(t, "Surabaya", s.records[1].City)

	assert.InDelta(t, 3, testutil.ToFloat64(m.LinksSeen.WithLabelValues("Surabaya", "Subsidi")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.RecordsAdmitted.WithLabelValues("Surabaya", "Subsidi")), 0)
}

func TestCollectKeepsDuplicatesForLaterDedupe(t *testing.T) {
	s, _ := newTestScraper(t, 3000)
	res := models.CityResult{City: "Bogor", Keyword: "Perumahan Elite"}

	link := "https://www.google.com/maps/place/X/data=!3d-6.6!4d106.8"
	s.collect(&res, []placeLink{{Href: link, Name: "X"}, {Href: link, Name: "X"}})

	assert.Equal(t, 2, res.Admitted)
	assert.Len(t, s.records, 2)
}

func TestReachedTarget(t *testing.T) {
	s, _ := newTestScraper(t, 1)
	assert.False(t, s.reachedTarget())

	res := models.CityResult{City: "Medan", Keyword: "Perumahan Elite"}
	s.collect(&res, []placeLink{{Href: "https://www.google.com/maps/@3.59,98.67,15z", Name: "X"}})
	assert.True(t, s.reachedTarget())

	unlimited, _ := newTestScraper(t, 0)
	assert.False(t, unlimited.reachedTarget())
}

func TestFindChromeBinaryPrefersConfigured(t *testing.T) {
	assert.Equal(t, "/opt/chrome", findChromeBinary("/opt/chrome"))
}

func TestCrawlSkipsFailedSearch(t *testing.T) {
	s, m := newScraperFor(t, 3000, threeCities())
	errFeed := errors.New("results feed not found")

	var calls []string
	ok := cityLinks(&calls)
	results := s.crawl(testContext(t), func(url string) ([]placeLink, error) {
		if strings.HasSuffix(url, "+Batam") {
			calls = append(calls, url)
			return nil, errFeed
		}
		return ok(url)
	})

	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, errFeed)
	assert.Equal(t, "Batam", results[1].City)
	assert.Zero(t, results[1].Admitted)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, "Bogor", results[2].City)
	assert.Equal(t, 1, results[2].Admitted)

	assert.Len(t, calls, 3)
	require.Len(t, s.records, 2)
	assert.Equal(t, "Griya Medan", s.records[0].Name)
	assert.Equal(t, "Griya Bogor", s.records[1].Name)

	assert.InDelta(t, 1, testutil.ToFloat64(m.Searches.WithLabelValues("failed")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.Searches.WithLabelValues("ok")), 0)
}

func TestCrawlStopsAtTargetBetweenSearches(t *testing.T) {
	s, _ := newScraperFor(t, 2, threeCities())

	var calls []string
	results := s.crawl(testContext(t), cityLinks(&calls))

	assert.Len(t, results, 2)
	assert.Len(t, calls, 2)
	assert.Len(t, s.records, 2)
}

func TestCrawlKeepsWholeSearchPastTarget(t *testing.T) {
	s, _ := newScraperFor(t, 2, threeCities())

	calls := 0
	results := s.crawl(testContext(t), func(string) ([]placeLink, error) {
		calls++
		return []placeLink{
			{Href: "https://www.google.com/maps/place/a/data=!3d3.1!4d98.1", Name: "A"},
			{Href: "https://www.google.com/maps/place/b/data=!3d3.2!4d98.2", Name: "B"},
			{Href: "https://www.google.com/maps/place/c/data=!3d3.3!4d98.3", Name: "C"},
		}, nil
	})

	assert.Equal(t, 1, calls)
	require.Len(t, results, 1)
	assert.Len(t, s.records, 3)
}

func TestCrawlCancelled(t *testing.T) {
	s, _ := newScraperFor(t, 3000, threeCities())
	ctx, cancel := context.WithCancel(testContext(t))
	cancel()

	var calls []string
	results := s.crawl(ctx, cityLinks(&calls))

	assert.Empty(t, results)
	assert.Empty(t, calls)
}

func TestScrollFeedStopsWhenCountIsStable(t *testing.T) {
	s, _ := newScraperFor(t, 3000, threeCities())

	counts := []int{5, 10, 10, 10, 10, 10, 10}
	calls := 0
	err := s.scrollFeed(testContext(t), func(context.Context) (int, error) {
		n := counts[calls]
		calls++
		return n, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 4, calls, "two unchanged counts after the first 10")
}

func TestScrollFeedStopsAtMaxScrolls(t *testing.T) {
	s, _ := newScraperFor(t, 3000, threeCities())
	s.cfg.MaxScrolls = 3

	calls := 0
	err := s.scrollFeed(testContext(t), func(context.Context) (int, error) {
		calls++
		return calls * 10, nil
	})

	require.NoError(t, err, "a feed that keeps growing is not an error")
	assert.Equal(t, 3, calls)
}

func TestScrollFeedPropagatesError(t *testing.T) {
	s, _ := newScraperFor(t, 3000, threeCities())
	errScroll := errors.New("tab crashed")

	err := s.scrollFeed(testContext(t), func(context.Context) (int, error) { return 0, errScroll })
	require.ErrorIs(t, err, errScroll)
}
