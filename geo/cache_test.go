package geo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCachedGeocoderStoresLookups(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	calls := 0
	next := GeocoderFunc(func(ctx context.Context, postalCode string) (Coordinates, error) {
		calls++
		assert.Equal(t, "01310100", postalCode)
		return Coordinates{Lat: -23.56, Lon: -46.65}, nil
	})
	g := NewCachedGeocoder(next, client, time.Hour)

	for i := 0; i < 3; i++ {
		coords, err := g.Locate(context.Background(), "01310-100")
		require.NoError(t, err)
		assert.Equal(t, Coordinates{Lat: -23.56, Lon: -46.65}, coords)
	}
	assert.Equal(t, 1, calls)
	assert.True(t, mr.Exists("menuly:geocode:01310100"))
	assert.Equal(t, time.Hour, mr.TTL("menuly:geocode:01310100"))
}

func TestCachedGeocoderDoesNotCacheFailures(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	boom := errors.New("upstream down")
	g := NewCachedGeocoder(GeocoderFunc(func(context.Context, string) (Coordinates, error) {
		return Coordinates{}, boom
	}), client, time.Hour)

	_, err := g.Locate(context.Background(), "01310100")
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("menuly:geocode:01310100"))
}

func TestCachedGeocoderSurvivesRedisOutage(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mr.Close()

	g := NewCachedGeocoder(GeocoderFunc(func(context.Context, string) (Coordinates, error) {
		return Coordinates{Lat: 1, Lon: 2}, nil
	}), client, time.Hour)

	coords, err := g.Locate(context.Background(), "01310100")
	require.NoError(t, err)
	assert.Equal(t, Coordinates{Lat: 1, Lon: 2}, coords)
}
