package services

import (
	"sort"

	"perumahan-scraper/models"
)

// FilterConfig is the dashboard's city/category selection. It is a value:
// every setter returns a new config and leaves the receiver untouched.
type FilterConfig struct {
	cities     map[string]struct{}
	categories map[string]struct{}
	allCities  []string
	allCats    []string
}

// NewFilterConfig selects every city and category present in dataset,
// which is what the dashboard shows on first load.
func NewFilterConfig(dataset []*models.HousingRecord) FilterConfig {
	cities := UniqueCities(dataset)
	cats := UniqueCategories(dataset)
	return FilterConfig{
		cities:     toSet(cities),
		categories: toSet(cats),
		allCities:  cities,
		allCats:    cats,
	}
}

func (f FilterConfig) WithCities(cities ...string) FilterConfig {
	f.cities = toSet(cities)
	return f
}

func (f FilterConfig) WithCategories(categories ...string) FilterConfig {
	f.categories = toSet(categories)
	return f
}

// WithAllCities is the "Select All" button of the city list.
func (f FilterConfig) WithAllCities() FilterConfig {
	return f.WithCities(f.allCities...)
}

// WithoutCities is the "Clear All" button of the city list.
func (f FilterConfig) WithoutCities() FilterConfig {
	return f.WithCities()
}

func (f FilterConfig) WithAllCategories() FilterConfig {
	return f.WithCategories(f.allCats...)
}

func (f FilterConfig) WithoutCategories() FilterConfig {
	return f.WithCategories()
}

// SelectedCities returns the selected cities in sorted order.
func (f FilterConfig) SelectedCities() []string {
	return sortedKeys(f.cities)
}

// SelectedCategories returns the selected categories in sorted order.
func (f FilterConfig) SelectedCategories() []string {
	return sortedKeys(f.categories)
}

// Empty reports whether either selection is cleared, in which case nothing
// can match.
func (f FilterConfig) Empty() bool {
	return len(f.cities) == 0 || len(f.categories) == 0
}

// Filter keeps the records whose city and category are both selected.
func Filter(dataset []*models.HousingRecord, cfg FilterConfig) []*models.HousingRecord {
	result := make([]*models.HousingRecord, 0, len(dataset))
	if cfg.Empty() {
		return result
	}
	for _, r := range dataset {
		if _, ok := cfg.cities[r.City]; !ok {
			continue
		}
		if _, ok := cfg.categories[string(r.Category)]; !ok {
			continue
		}
		result = append(result, r)
	}
	return result
}

// UniqueCities lists the distinct cities in dataset, sorted.
func UniqueCities(dataset []*models.HousingRecord) []string {
	set := make(map[string]struct{})
	for _, r := range dataset {
		set[r.City] = struct{}{}
	}
	return sortedKeys(set)
}

// UniqueCategories lists the distinct categories in dataset, sorted.
func UniqueCategories(dataset []*models.HousingRecord) []string {
	set := make(map[string]struct{})
	for _, r := range dataset {
		set[string(r.Category)] = struct{}{}
	}
	return sortedKeys(set)
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
