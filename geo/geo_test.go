package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistanceKm(t *testing.T) {
	// Praça da Sé to Avenida Paulista (MASP), about 2.5 km apart.
	se := Coordinates{Lat: -23.5503, Lon: -46.6339}
	masp := Coordinates{Lat: -23.5614, Lon: -46.6559}

	d := DistanceKm(se, masp)
	assert.InDelta(t, 2.56, d, 0.1)
	assert.InDelta(t, d, DistanceKm(masp, se), 1e-9)
	assert.Zero(t, DistanceKm(se, se))
}

func TestDistanceKmOneDegreeOfLatitude(t *testing.T) {
	d := DistanceKm(Coordinates{Lat: 0, Lon: 0}, Coordinates{Lat: 1, Lon: 0})
	assert.InDelta(t, 111.19, d, 0.01)
}

func TestNormalizePostalCode(t *testing.T) {
	cases := map[string]string{
		"01310-100":   "01310100",
		"01310100":    "01310100",
		" 01.310-100": "01310100",
	}
	for in, want := range cases {
		got, err := NormalizePostalCode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	for _, bad := range []string{"", "1234567", "013101000", "0131A100"} {
		_, err := NormalizePostalCode(bad)
		assert.ErrorIs(t, err, ErrInvalidPostalCode, bad)
	}
}
