package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	ErrNoCities   = errors.New("targets: at least one city is required")
	ErrNoKeywords = errors.New("targets: at least one keyword is required")
)

// Targets lists what gets searched: every keyword is run against every city,
// cities in order.
type Targets struct {
	Cities   []string `yaml:"cities"`
	Keywords []string `yaml:"keywords"`
}

// DefaultTargets covers the major cities from Sumatra to Sulawesi.
func DefaultTargets() Targets {
	return Targets{
		Cities: []string{
			// Sumatera
			"Medan", "Pekanbaru", "Palembang", "Bandar Lampung", "Batam",
			// Jawa
			"Tangerang", "Bekasi", "Bogor", "Karawang", "Bandung",
			"Cirebon", "Semarang", "Solo", "Yogyakarta", "Surabaya", "Malang",
			// Bali & Nusa Tenggara
			"Denpasar", "Mataram",
			// Kalimantan
			"Pontianak", "Balikpapan", "Samarinda", "Banjarmasin",
			// Sulawesi
			"Makassar", "Manado",
		},
		Keywords: []string{"Perumahan Subsidi", "Perumahan Elite"},
	}
}

// LoadTargets reads a YAML targets file. An empty path yields DefaultTargets.
func LoadTargets(path string) (Targets, error) {
	if path == "" {
		return DefaultTargets(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Targets{}, fmt.Errorf("targets: read %q: %w", path, err)
	}

	var t Targets
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Targets{}, fmt.Errorf("targets: parse %q: %w", path, err)
	}

	if err := t.Validate(); err != nil {
		return Targets{}, err
	}
	return t, nil
}

// Validate checks that there is something to search.
func (t Targets) Validate() error {
	if len(t.Cities) == 0 {
		return ErrNoCities
	}
	if len(t.Keywords) == 0 {
		return ErrNoKeywords
	}
	return nil
}
