package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// CachedGeocoder keeps resolved postal codes in redis. Cache failures are logged
// and the lookup goes straight to the wrapped geocoder.
type CachedGeocoder struct {
	next   Geocoder
	client *redis.Client
	ttl    time.Duration
	prefix string
}

func NewCachedGeocoder(next Geocoder, client *redis.Client, ttl time.Duration) *CachedGeocoder {
	return &CachedGeocoder{
		next:   next,
		client: client,
		ttl:    ttl,
		prefix: "menuly",
	}
}

func (g *CachedGeocoder) key(cep string) string {
	return fmt.Sprintf("%s:geocode:%s", g.prefix, cep)
}

func (g *CachedGeocoder) Locate(ctx context.Context, postalCode string) (Coordinates, error) {
	cep, err := NormalizePostalCode(postalCode)
	if err != nil {
		return Coordinates{}, err
	}

	raw, err := g.client.Get(ctx, g.key(cep)).Result()
	switch {
	case err == nil:
		var coords Coordinates
		if err := json.Unmarshal([]byte(raw), &coords); err == nil {
			return coords, nil
		}
		slog.WarnContext(ctx, "discarding corrupt geocode cache entry", "postal_code", cep)
	case !errors.Is(err, redis.Nil):
		slog.WarnContext(ctx, "geocode cache read failed", "postal_code", cep, "error", err)
	}

	coords, err := g.next.Locate(ctx, cep)
	if err != nil {
		return Coordinates{}, err
	}

	data, _ := json.Marshal(coords)
	if err := g.client.Set(ctx, g.key(cep), data, g.ttl).Err(); err != nil {
		slog.WarnContext(ctx, "geocode cache write failed", "postal_code", cep, "error", err)
	}
	return coords, nil
}
