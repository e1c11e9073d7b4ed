// Package fees computes the delivery charge for a destination postal code.
package fees

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ronwsv/menuly-delivery/apperr"
	"github.com/ronwsv/menuly-delivery/geo"
	"github.com/ronwsv/menuly-delivery/models"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

var (
	ErrOutOfRange        = apperr.Validation("Address is outside the restaurant delivery area")
	ErrInvalidPostalCode = apperr.Validation("Invalid postal code")
)

// Quote is the outcome of a fee calculation. Fallback is set when the distance
// could not be resolved and the base fee was charged instead.
type Quote struct {
	Fee        decimal.Decimal `json:"fee"`
	DistanceKm float64         `json:"distance_km"`
	Fallback   bool            `json:"fallback"`
}

type Calculator struct {
	geocoder geo.Geocoder
	timeout  time.Duration
}

// NewCalculator returns a calculator resolving postal codes through g. Each
// calculation spends at most timeout on lookups.
func NewCalculator(g geo.Geocoder, timeout time.Duration) *Calculator {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Calculator{geocoder: g, timeout: timeout}
}

// Quote prices a delivery from restaurant r to destPostalCode.
//
// A flat fee is returned as is. Otherwise the base fee applies, plus the per-km
// surcharge for the distance beyond the included radius when the restaurant has a
// reference postal code. Lookup failures degrade to the base fee; exceeding the
// maximum radius is an error.
func (c *Calculator) Quote(ctx context.Context, r models.Restaurant, destPostalCode string) (Quote, error) {
	if r.DeliveryFlatFee != nil {
		return Quote{Fee: r.DeliveryFlatFee.Round(2)}, nil
	}

	base := r.DeliveryBaseFee.Round(2)
	needsDistance := r.Address.PostalCode != "" &&
		(r.DeliveryFeePerKm.IsPositive() || r.DeliveryMaxKm > 0)
	if !needsDistance || c.geocoder == nil {
		return Quote{Fee: base}, nil
	}

	if _, err := geo.NormalizePostalCode(destPostalCode); err != nil {
		return Quote{}, ErrInvalidPostalCode
	}

	distance, err := c.distance(ctx, r.Address.PostalCode, destPostalCode)
	if err != nil {
		slog.WarnContext(ctx, "delivery distance unavailable, charging base fee",
			"restaurant_id", r.ID, "postal_code", destPostalCode, "error", err)
		return Quote{Fee: base, Fallback: true}, nil
	}

	if r.DeliveryMaxKm > 0 && distance > r.DeliveryMaxKm {
		return Quote{}, apperr.Wrap(ErrOutOfRange,
			fmt.Errorf("%.1f km exceeds the %.1f km limit", distance, r.DeliveryMaxKm))
	}

	fee := base
	if extra := distance - r.DeliveryIncludedKm; extra > 0 && r.DeliveryFeePerKm.IsPositive() {
		fee = fee.Add(r.DeliveryFeePerKm.Mul(decimal.NewFromFloat(extra)))
	}
	return Quote{Fee: fee.Round(2), DistanceKm: roundKm(distance)}, nil
}

// distance resolves both postal codes concurrently under the calculator timeout.
func (c *Calculator) distance(ctx context.Context, from, to string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var origin, dest geo.Coordinates
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		origin, err = c.geocoder.Locate(gctx, from)
		return err
	})
	g.Go(func() (err error) {
		dest, err = c.geocoder.Locate(gctx, to)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return 0, fmt.Errorf("geocoding timed out after %s: %w", c.timeout, err)
		}
		return 0, err
	}
	return geo.DistanceKm(origin, dest), nil
}

func roundKm(km float64) float64 {
	f, _ := decimal.NewFromFloat(km).Round(2).Float64()
	return f
}
