package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"

	"perumahan-scraper/models"
)

var (
	// ErrDatasetNotFound is returned when the persisted table does not exist.
	ErrDatasetNotFound = errors.New("csv: dataset file not found")
	// ErrBadHeader is returned when the first row is not the expected column set.
	ErrBadHeader = errors.New("csv: unexpected header")
)

// LoadCSV reads a dataset written by CSVWriter.
func LoadCSV(path string) ([]*models.HousingRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, path)
		}
		return nil, fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV decodes the six-column layout. Columns are matched by name, so
// their order in the file does not matter.
func ReadCSV(r io.Reader) ([]*models.HousingRecord, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty file", ErrBadHeader)
		}
		return nil, fmt.Errorf("csv: read header: %w", err)
	}

	idx, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	var records []*models.HousingRecord
	line := 1
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("csv: read line %d: %w", line, err)
		}

		lat, err := strconv.ParseFloat(row[idx["latitude"]], 64)
		if err != nil {
			return nil, fmt.Errorf("csv: line %d: latitude: %w", line, err)
		}
		lon, err := strconv.ParseFloat(row[idx["longitude"]], 64)
		if err != nil {
			return nil, fmt.Errorf("csv: line %d: longitude: %w", line, err)
		}

		records = append(records, &models.HousingRecord{
			City:      row[idx["pulau_kota"]],
			Category:  models.Category(row[idx["kategori"]]),
			Name:      row[idx["nama_perumahan"]],
			Latitude:  lat,
			Longitude: lon,
			Link:      row[idx["link_gmaps"]],
		})
	}

	return records, nil
}

func columnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, want := range Header {
		if _, ok := idx[want]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrBadHeader, want)
		}
	}
	return idx, nil
}
