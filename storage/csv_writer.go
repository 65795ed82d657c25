package storage

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"perumahan-scraper/models"
)

// Header is the column layout shared by the scraper and the dashboard.
var Header = []string{"pulau_kota", "kategori", "nama_perumahan", "latitude", "longitude", "link_gmaps"}

// CSVWriter writes the final housing dataset to a CSV file.
type CSVWriter struct {
	path string
}

// NewCSVWriter returns a writer targeting path. Nothing touches the disk until
// Write is called, so an empty crawl leaves no file behind.
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

// Path returns the output file path.
func (c *CSVWriter) Path() string {
	return c.path
}

// Write creates (or truncates) the CSV file and writes the header plus one row
// per record. Intermediate directories are created automatically.
func (c *CSVWriter) Write(records []*models.HousingRecord) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(c.path)
	if err != nil {
		return fmt.Errorf("csv: create file %q: %w", c.path, err)
	}

	if err := WriteCSV(f, records); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// WriteCSV encodes records in the shared six-column layout.
func WriteCSV(w io.Writer, records []*models.HousingRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("csv: write header: %w", err)
	}

	for _, r := range records {
		row := []string{
			r.City,
			string(r.Category),
			r.Name,
			strconv.FormatFloat(r.Latitude, 'f', -1, 64),
			strconv.FormatFloat(r.Longitude, 'f', -1, 64),
			r.Link,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}
