// Package geo resolves postal codes to coordinates and measures distances between them.
package geo

import (
	"context"
	"errors"
	"math"
	"strings"
	"unicode"
)

const earthRadiusKm = 6371.0

var (
	ErrInvalidPostalCode = errors.New("geo: invalid postal code")
	ErrNotFound          = errors.New("geo: location not found")
)

type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Geocoder turns a postal code into coordinates.
type Geocoder interface {
	Locate(ctx context.Context, postalCode string) (Coordinates, error)
}

// GeocoderFunc adapts a function to Geocoder.
type GeocoderFunc func(ctx context.Context, postalCode string) (Coordinates, error)

func (f GeocoderFunc) Locate(ctx context.Context, postalCode string) (Coordinates, error) {
	return f(ctx, postalCode)
}

// DistanceKm is the great-circle distance between a and b (haversine).
func DistanceKm(a, b Coordinates) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

// NormalizePostalCode strips punctuation from a CEP and checks it has eight digits.
func NormalizePostalCode(code string) (string, error) {
	var b strings.Builder
	for _, r := range code {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '-' || r == '.' || unicode.IsSpace(r):
		default:
			return "", ErrInvalidPostalCode
		}
	}
	if b.Len() != 8 {
		return "", ErrInvalidPostalCode
	}
	return b.String(), nil
}
