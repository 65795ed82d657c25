package storage_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Flaque/filet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"perumahan-scraper/models"
	"perumahan-scraper/services"
	"perumahan-scraper/storage"
)

func sample() []*models.HousingRecord {
	return []*models.HousingRecord{
		{City: "Medan", Category: models.CategorySubsidi, Name: "Griya, \"Asri\"", Latitude: 3.5952, Longitude: 98.6722, Link: "https://www.google.com/maps/place/a"},
		{City: "Bandar Lampung", Category: models.CategoryElite, Name: "Citra Garden", Latitude: -5.45, Longitude: 0, Link: "https://www.google.com/maps/place/b"},
	}
}

func TestCSVRoundTrip(t *testing.T) {
	defer filet.CleanUp(t)
	dir := filet.TmpDir(t, "")
	path := filepath.Join(dir, "nested", "data.csv")

	w := storage.NewCSVWriter(path)
	require.NoError(t, w.Write(sample()))

	got, err := storage.LoadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, sample(), got)
}

func TestCSVHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, storage.WriteCSV(&buf, sample()[:1]))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "pulau_kota,kategori,nama_perumahan,latitude,longitude,link_gmaps", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "Medan,Subsidi,"))
	assert.Contains(t, lines[1], ",3.5952,98.6722,")
}

func TestLoadCSVMissingFile(t *testing.T) {
	_, err := storage.LoadCSV(filepath.Join(t.TempDir(), "absent.csv"))
	require.ErrorIs(t, err, storage.ErrDatasetNotFound)
}

func TestReadCSVBadHeader(t *testing.T) {
	_, err := storage.ReadCSV(strings.NewReader("city,category\nMedan,Elite\n"))
	require.ErrorIs(t, err, storage.ErrBadHeader)

	_, err = storage.ReadCSV(strings.NewReader(""))
	require.ErrorIs(t, err, storage.ErrBadHeader)
}

func TestReadCSVReorderedColumns(t *testing.T) {
	in := "link_gmaps,latitude,longitude,pulau_kota,kategori,nama_perumahan\nhttps://x,-6.2,106.8,Bekasi,Elite,Summarecon\n"
	got, err := storage.ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Bekasi", got[0].City)
	assert.Equal(t, -6.2, got[0].Latitude)
	assert.Equal(t, 106.8, got[0].Longitude)
}

func TestReadCSVBadCoordinate(t *testing.T) {
	in := "pulau_kota,kategori,nama_perumahan,latitude,longitude,link_gmaps\nMedan,Elite,X,north,98.6,https://x\n"
	_, err := storage.ReadCSV(strings.NewReader(in))
	require.Error(t, err)
	assert.ErrorContains(t, err, "line 2: latitude")
}

// Two results share a coordinate pair and one carries no coordinate at all:
// only the first of the pair survives into the persisted table.
func TestScrapedResultsToPersistedTable(t *testing.T) {
	raw := []struct{ name, link string }{
		{"Griya Permata", "https://www.google.com/maps/place/Griya/data=!3d-6.2!4d106.8"},
		{"Griya Permata 2", "https://www.google.com/maps/search/x/@-6.2,106.8,15z"},
		{"Tanpa Lokasi", "https://www.google.com/maps/place/Tanpa"},
	}

	var collected []*models.HousingRecord
	for _, r := range raw {
		if rec := services.NewRecord("Bekasi", "Perumahan Subsidi", r.name, r.link); rec != nil {
			collected = append(collected, rec)
		}
	}
	require.Len(t, collected, 2)

	dataset := services.Dedupe(collected)

	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, storage.NewCSVWriter(path).Write(dataset))

	got, err := storage.LoadCSV(path)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Griya Permata", got[0].Name)
	assert.Equal(t, models.CategorySubsidi, got[0].Category)
}

func TestMapWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "data.html")
	mw := storage.NewMapWriter(path, storage.NationalMap())
	require.NoError(t, mw.Write(sample()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	html := string(data)

	assert.Contains(t, html, "leaflet.markercluster")
	assert.Contains(t, html, "L.heatLayer")
	assert.Contains(t, html, "Citra Garden")
	assert.Contains(t, html, `"green"`)
	assert.Contains(t, html, `"red"`)
}

func TestRenderMapWithoutHeat(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, storage.RenderMap(&buf, sample(), storage.CenteredMap(sample())))
	assert.NotContains(t, buf.String(), "L.heatLayer")
}

func TestCenteredMap(t *testing.T) {
	opts := storage.CenteredMap(sample())
	assert.InDelta(t, (3.5952-5.45)/2, opts.CenterLat, 1e-9)
	assert.InDelta(t, 98.6722/2, opts.CenterLon, 1e-9)
	assert.Equal(t, 10, opts.Zoom)

	empty := storage.CenteredMap(nil)
	assert.Equal(t, 5, empty.Zoom)
}

func TestMarkerColor(t *testing.T) {
	assert.Equal(t, "green", storage.MarkerColor(models.CategorySubsidi))
	assert.Equal(t, "red", storage.MarkerColor(models.CategoryElite))
}
