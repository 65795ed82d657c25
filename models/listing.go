package models

import "strings"

// Category distinguishes subsidized housing estates from elite ones.
// The string value is what gets persisted in the kategori column.
type Category string

const (
	CategorySubsidi Category = "Subsidi"
	CategoryElite   Category = "Elite"
)

// CategoryFromKeyword classifies a search keyword. Any keyword containing
// "Subsidi" (case-sensitive) is subsidized, everything else is elite.
func CategoryFromKeyword(keyword string) Category {
	if strings.Contains(keyword, "Subsidi") {
		return CategorySubsidi
	}
	return CategoryElite
}

// HousingRecord is one housing estate observed on a Google Maps results feed.
// Latitude/Longitude of 0.0 mean the coordinate could not be extracted.
type HousingRecord struct {
	City      string
	Category  Category
	Name      string
	Latitude  float64
	Longitude float64
	Link      string
}

// CityResult is the outcome of a single city/keyword search.
type CityResult struct {
	City     string
	Keyword  string
	Links    int
	Admitted int
	Err      error
}

// Summary holds the computed figures the dashboard and console report show.
type Summary struct {
	Total          int                       `json:"total"`
	Cities         int                       `json:"cities"`
	TopCategory    string                    `json:"top_category"`
	ByCity         map[string]map[string]int `json:"by_city"`
	CategoryShares map[string]float64        `json:"category_shares"`
}
