package services

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/mattn/go-runewidth"

	"perumahan-scraper/models"
	"perumahan-scraper/utils"
)

type InsightService struct {
	logger *utils.Logger
}

func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger.With("component", "insights")}
}

func (s *InsightService) Generate(records []*models.HousingRecord) *models.Summary {
	summary := &models.Summary{
		TopCategory:    "-",
		ByCity:         make(map[string]map[string]int),
		CategoryShares: make(map[string]float64),
	}

	if len(records) == 0 {
		return summary
	}

	summary.Total = len(records)

	byCategory := make(map[string]int)
	for _, r := range records {
		cat := string(r.Category)
		if summary.ByCity[r.City] == nil {
			summary.ByCity[r.City] = make(map[string]int)
		}
		summary.ByCity[r.City][cat]++
		byCategory[cat]++
	}
	summary.Cities = len(summary.ByCity)

	// Mode, ties going to the alphabetically first category.
	best := -1
	for _, cat := range sortedCounts(byCategory) {
		if n := byCategory[cat]; n > best {
			best = n
			summary.TopCategory = cat
		}
	}

	for cat, n := range byCategory {
		summary.CategoryShares[cat] = round1(float64(n) * 100 / float64(summary.Total))
	}

	s.logger.Debug("summary generated", "total", summary.Total, "cities", summary.Cities)
	return summary
}

func (s *InsightService) Print(w io.Writer, r *models.Summary) {
	sep := strings.Repeat("═", 54)
	thin := strings.Repeat("─", 54)

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  🏠 HOUSING MARKET TRACKER\033[0m\n")
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	// Overview
	fmt.Fprintf(w, "\033[1;33m  Overview\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	fmt.Fprintf(w, "  Total housing estates : \033[1m%d\033[0m\n", r.Total)
	fmt.Fprintf(w, "  Cities covered        : \033[1m%d\033[0m\n", r.Cities)
	fmt.Fprintf(w, "  Top category          : \033[1m%s\033[0m\n", r.TopCategory)
	fmt.Fprintln(w)

	// Category share
	fmt.Fprintf(w, "\033[1;33m  Category Share\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.CategoryShares) == 0 {
		fmt.Fprintf(w, "  No data\n")
	} else {
		cats := make([]string, 0, len(r.CategoryShares))
		for cat := range r.CategoryShares {
			cats = append(cats, cat)
		}
		sort.Strings(cats)
		for _, cat := range cats {
			fmt.Fprintf(w, "  %s %5.1f%%\n", runewidth.FillRight(cat, 12), r.CategoryShares[cat])
		}
	}
	fmt.Fprintln(w)

	// Estates per city
	fmt.Fprintf(w, "\033[1;33m  Estates per City\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	if len(r.ByCity) == 0 {
		fmt.Fprintf(w, "  No location data\n")
	} else {
		type cityCount struct {
			city   string
			counts map[string]int
			total  int
		}
		var cities []cityCount
		for city, counts := range r.ByCity {
			total := 0
			for _, n := range counts {
				total += n
			}
			cities = append(cities, cityCount{city, counts, total})
		}
		sort.Slice(cities, func(i, j int) bool {
			if cities[i].total != cities[j].total {
				return cities[i].total > cities[j].total
			}
			return cities[i].city < cities[j].city
		})
		for _, cc := range cities {
			name := runewidth.FillRight(runewidth.Truncate(cc.city, 20, "..."), 20)
			fmt.Fprintf(w, "  %s \033[32m%4d Subsidi\033[0m  \033[31m%4d Elite\033[0m\n",
				name, cc.counts[string(models.CategorySubsidi)], cc.counts[string(models.CategoryElite)])
		}
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

// PrintCrawl reports per-search outcomes, failures included.
func (s *InsightService) PrintCrawl(w io.Writer, results []models.CityResult) {
	thin := strings.Repeat("─", 54)
	fmt.Fprintf(w, "\033[1;33m  Crawl Results\033[0m\n")
	fmt.Fprintf(w, "  %s\n", thin)
	for _, res := range results {
		label := runewidth.FillRight(runewidth.Truncate(res.City+" / "+res.Keyword, 36, "..."), 36)
		if res.Err != nil {
			fmt.Fprintf(w, "  %s \033[31mfailed\033[0m\n", label)
			continue
		}
		fmt.Fprintf(w, "  %s %4d/%-4d admitted\n", label, res.Admitted, res.Links)
	}
	fmt.Fprintln(w)
}

func sortedCounts(counts map[string]int) []string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func round1(f float64) float64 {
	return math.Round(f*10) / 10
}
