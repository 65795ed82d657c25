package services

import (
	"regexp"
	"strconv"
)

var (
	// centerRegexp matches a map-center URL: ".../@-6.2,106.8,15z"
	centerRegexp = regexp.MustCompile(`@([-0-9.]+),([-0-9.]+)`)
	// placeLatRegexp and placeLonRegexp match the tagged fields of a
	// place-detail URL: "...!3d-7.5!4d112.6..."
	placeLatRegexp = regexp.MustCompile(`!3d([-0-9.]+)`)
	placeLonRegexp = regexp.MustCompile(`!4d([-0-9.]+)`)
)

// ExtractCoordinates pulls a latitude/longitude pair out of a Google Maps URL.
// The map-center form wins over the place-detail form. When neither matches,
// or the matched text is not a number, it returns the sentinel (0, 0).
func ExtractCoordinates(url string) (lat, lon float64) {
	if m := centerRegexp.FindStringSubmatch(url); m != nil {
		return parsePair(m[1], m[2])
	}

	latMatch := placeLatRegexp.FindStringSubmatch(url)
	lonMatch := placeLonRegexp.FindStringSubmatch(url)
	if latMatch != nil && lonMatch != nil {
		return parsePair(latMatch[1], lonMatch[1])
	}

	return 0, 0
}

func parsePair(rawLat, rawLon string) (float64, float64) {
	lat, err := strconv.ParseFloat(rawLat, 64)
	if err != nil {
		return 0, 0
	}
	lon, err := strconv.ParseFloat(rawLon, 64)
	if err != nil {
		return 0, 0
	}
	return lat, lon
}

// Admit reports whether an extracted coordinate may enter the dataset.
// Only the latitude is checked; a zero longitude is let through.
func Admit(lat, _ float64) bool {
	return lat != 0.0
}
