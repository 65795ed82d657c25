package storage

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"perumahan-scraper/models"
)

const insertColumns = 6

// PostgresWriter mirrors the housing dataset into PostgreSQL.
type PostgresWriter struct {
	db *sql.DB
}

// NewPostgresWriter opens a connection to PostgreSQL, runs schema migrations,
// and returns a ready-to-use PostgresWriter.
func NewPostgresWriter(dsn string) (*PostgresWriter, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	for i := 0; i < 10; i++ {
		if err = db.Ping(); err == nil {
			break
		}
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: ping failed after retries: %w", err)
	}

	pw := &PostgresWriter{db: db}
	if err := pw.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return pw, nil
}

func (pw *PostgresWriter) migrate() error {
	_, err := pw.db.Exec(`
		CREATE TABLE IF NOT EXISTS housing_listings (
			id             SERIAL PRIMARY KEY,
			pulau_kota     VARCHAR(100)     NOT NULL,
			kategori       VARCHAR(20)      NOT NULL,
			nama_perumahan TEXT             NOT NULL,
			latitude       DOUBLE PRECISION NOT NULL,
			longitude      DOUBLE PRECISION NOT NULL,
			link_gmaps     TEXT             NOT NULL DEFAULT '',
			created_at     TIMESTAMPTZ      NOT NULL DEFAULT NOW(),
			UNIQUE (latitude, longitude)
		);

		CREATE INDEX IF NOT EXISTS idx_housing_city     ON housing_listings(pulau_kota);
		CREATE INDEX IF NOT EXISTS idx_housing_category ON housing_listings(kategori);
	`)
	return err
}

// Clear deletes all existing rows from the table.
func (pw *PostgresWriter) Clear() error {
	_, err := pw.db.Exec("DELETE FROM housing_listings")
	if err != nil {
		return fmt.Errorf("postgres: clear: %w", err)
	}
	return nil
}

// Write batch-inserts the whole dataset, clearing old data first.
func (pw *PostgresWriter) Write(records []*models.HousingRecord) error {
	if len(records) == 0 {
		return nil
	}

	if err := pw.Clear(); err != nil {
		return err
	}

	const batchSize = 50
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := pw.insertBatch(records[i:end]); err != nil {
			return fmt.Errorf("postgres: insert batch at %d: %w", i, err)
		}
	}
	return nil
}

func (pw *PostgresWriter) insertBatch(batch []*models.HousingRecord) error {
	query, args := buildInsert(batch)
	_, err := pw.db.Exec(query, args...)
	return err
}

// buildInsert renders a multi-row INSERT for batch. Rows colliding on the
// coordinate pair are skipped by the database.
func buildInsert(batch []*models.HousingRecord) (string, []any) {
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]any, 0, len(batch)*insertColumns)

	for idx, r := range batch {
		base := idx * insertColumns
		valueStrings = append(valueStrings,
			fmt.Sprintf("($%d,$%d,$%d,$%d,$%d,$%d)",
				base+1, base+2, base+3, base+4, base+5, base+6))
		valueArgs = append(valueArgs,
			r.City, string(r.Category), r.Name, r.Latitude, r.Longitude, r.Link)
	}

	query := fmt.Sprintf(`
		INSERT INTO housing_listings (pulau_kota, kategori, nama_perumahan, latitude, longitude, link_gmaps)
		VALUES %s
		ON CONFLICT (latitude, longitude) DO NOTHING
	`, strings.Join(valueStrings, ","))

	return query, valueArgs
}

func (pw *PostgresWriter) Close() error {
	return pw.db.Close()
}

// FetchAll retrieves all stored rows in insertion order.
func (pw *PostgresWriter) FetchAll() ([]*models.HousingRecord, error) {
	rows, err := pw.db.Query(`
		SELECT pulau_kota, kategori, nama_perumahan, latitude, longitude, link_gmaps
		FROM housing_listings
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("postgres: fetch all: %w", err)
	}
	defer rows.Close()

	var records []*models.HousingRecord
	for rows.Next() {
		r := &models.HousingRecord{}
		var category string
		if err := rows.Scan(&r.City, &category, &r.Name, &r.Latitude, &r.Longitude, &r.Link); err != nil {
			return nil, fmt.Errorf("postgres: scan row: %w", err)
		}
		r.Category = models.Category(category)
		records = append(records, r)
	}
	return records, rows.Err()
}
