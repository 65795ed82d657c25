package storage

import "perumahan-scraper/models"

// DatasetWriter is the interface any storage backend must satisfy.
type DatasetWriter interface {
	Write(records []*models.HousingRecord) error
}
