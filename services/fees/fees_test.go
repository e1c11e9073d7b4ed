package fees

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ronwsv/menuly-delivery/apperr"
	"github.com/ronwsv/menuly-delivery/geo"
	"github.com/ronwsv/menuly-delivery/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	restaurantCEP = "01310100"
	customerCEP   = "04538133"
)

// kmNorth returns the point km kilometres north of the equator origin.
func kmNorth(km float64) geo.Coordinates {
	return geo.Coordinates{Lat: km / (2 * math.Pi * 6371 / 360)}
}

func fixedGeocoder(distanceKm float64) geo.Geocoder {
	return geo.GeocoderFunc(func(_ context.Context, cep string) (geo.Coordinates, error) {
		cep, _ = geo.NormalizePostalCode(cep)
		if cep == restaurantCEP {
			return geo.Coordinates{}, nil
		}
		return kmNorth(distanceKm), nil
	})
}

func distanceRestaurant() models.Restaurant {
	return models.Restaurant{
		ID:                 1,
		Address:            models.Address{PostalCode: restaurantCEP},
		DeliveryBaseFee:    decimal.RequireFromString("5.00"),
		DeliveryFeePerKm:   decimal.RequireFromString("1.00"),
		DeliveryIncludedKm: 5,
	}
}

func TestQuoteDistanceSurcharge(t *testing.T) {
	calc := NewCalculator(fixedGeocoder(8), time.Second)

	q, err := calc.Quote(context.Background(), distanceRestaurant(), customerCEP)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("8.00").Equal(q.Fee), "fee %s", q.Fee)
	assert.InDelta(t, 8, q.DistanceKm, 0.01)
	assert.False(t, q.Fallback)
}

func TestQuoteInsideIncludedRadiusChargesBase(t *testing.T) {
	calc := NewCalculator(fixedGeocoder(3), time.Second)

	q, err := calc.Quote(context.Background(), distanceRestaurant(), customerCEP)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("5.00").Equal(q.Fee))
}

func TestQuoteFlatFeeIgnoresDestination(t *testing.T) {
	called := false
	calc := NewCalculator(geo.GeocoderFunc(func(context.Context, string) (geo.Coordinates, error) {
		called = true
		return geo.Coordinates{}, nil
	}), time.Second)

	r := distanceRestaurant()
	flat := decimal.RequireFromString("7.00")
	r.DeliveryFlatFee = &flat
	r.DeliveryMaxKm = 1

	for _, cep := range []string{customerCEP, "99999999", "not-a-cep"} {
		q, err := calc.Quote(context.Background(), r, cep)
		require.NoError(t, err)
		assert.True(t, flat.Equal(q.Fee))
	}
	assert.False(t, called)
}

func TestQuoteLookupFailureFallsBackToBaseFee(t *testing.T) {
	calc := NewCalculator(geo.GeocoderFunc(func(context.Context, string) (geo.Coordinates, error) {
		return geo.Coordinates{}, errors.New("geocoding service exploded")
	}), time.Second)

	q, err := calc.Quote(context.Background(), distanceRestaurant(), customerCEP)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("5.00").Equal(q.Fee))
	assert.True(t, q.Fallback)
}

func TestQuoteLookupTimeoutFallsBackToBaseFee(t *testing.T) {
	calc := NewCalculator(geo.GeocoderFunc(func(ctx context.Context, _ string) (geo.Coordinates, error) {
		<-ctx.Done()
		return geo.Coordinates{}, ctx.Err()
	}), 20*time.Millisecond)

	start := time.Now()
	q, err := calc.Quote(context.Background(), distanceRestaurant(), customerCEP)
	require.NoError(t, err)
	assert.True(t, q.Fallback)
	assert.Less(t, time.Since(start), time.Second)
}

func TestQuoteBeyondMaximumRadius(t *testing.T) {
	calc := NewCalculator(fixedGeocoder(12), time.Second)
	r := distanceRestaurant()
	r.DeliveryMaxKm = 10

	_, err := calc.Quote(context.Background(), r, customerCEP)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))
}

func TestQuoteWithoutReferencePostalCode(t *testing.T) {
	r := distanceRestaurant()
	r.Address.PostalCode = ""

	q, err := NewCalculator(fixedGeocoder(40), time.Second).Quote(context.Background(), r, customerCEP)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("5.00").Equal(q.Fee))
	assert.Zero(t, q.DistanceKm)
}

func TestQuoteRejectsMalformedDestination(t *testing.T) {
	_, err := NewCalculator(fixedGeocoder(1), time.Second).Quote(context.Background(), distanceRestaurant(), "12ab")
	assert.ErrorIs(t, err, ErrInvalidPostalCode)
}
