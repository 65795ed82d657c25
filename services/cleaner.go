package services

import (
	"math"

	"perumahan-scraper/models"
	"perumahan-scraper/utils"
)

// Cleaner turns the collected records into the dataset that gets persisted
// and rendered.
type Cleaner struct {
	logger *utils.Logger
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger.With("component", "cleaner")}
}

// Clean drops exact coordinate duplicates, keeping the first occurrence.
func (c *Cleaner) Clean(records []*models.HousingRecord) []*models.HousingRecord {
	result := Dedupe(records)

	c.logger.Info("deduplicated dataset",
		"before", len(records),
		"after", len(result),
		"dropped", len(records)-len(result))
	return result
}

type coordKey struct {
	lat, lon uint64
}

// Dedupe removes every record whose (latitude, longitude) pair is bit-for-bit
// equal to an earlier kept record. Order of the kept records is preserved.
func Dedupe(records []*models.HousingRecord) []*models.HousingRecord {
	seen := make(map[coordKey]struct{}, len(records))
	result := make([]*models.HousingRecord, 0, len(records))

	for _, r := range records {
		key := coordKey{lat: math.Float64bits(r.Latitude), lon: math.Float64bits(r.Longitude)}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, r)
	}
	return result
}

// NewRecord builds a record from one scraped result link. It returns nil when
// the link carries no usable coordinate, so rejected links never enter the
// dataset. name is stored exactly as scraped.
func NewRecord(city, keyword, name, link string) *models.HousingRecord {
	lat, lon := ExtractCoordinates(link)
	if !Admit(lat, lon) {
		return nil
	}
	return &models.HousingRecord{
		City:      city,
		Category:  models.CategoryFromKeyword(keyword),
		Name:      name,
		Latitude:  lat,
		Longitude: lon,
		Link:      link,
	}
}
