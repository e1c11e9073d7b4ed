package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/ronwsv/menuly-delivery/actor"
	"github.com/ronwsv/menuly-delivery/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var seq atomic.Int64

// Money parses a decimal literal and panics on malformed input.
func Money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Restaurant inserts an active, open restaurant with no delivery fee.
func Restaurant(t *testing.T, db *gorm.DB, mutate ...func(*models.Restaurant)) models.Restaurant {
	t.Helper()
	n := seq.Add(1)
	r := models.Restaurant{
		Name:    fmt.Sprintf("Restaurant %d", n),
		Slug:    fmt.Sprintf("restaurant-%d", n),
		Active:  true,
		Open:    true,
		Address: models.Address{Street: "Rua A", Number: "1", City: "São Paulo", State: "SP", PostalCode: "01310100"},
	}
	for _, m := range mutate {
		m(&r)
	}
	require.NoError(t, db.Create(&r).Error)
	return r
}

func Category(t *testing.T, db *gorm.DB, restaurantID uint, mutate ...func(*models.Category)) models.Category {
	t.Helper()
	c := models.Category{
		RestaurantID: restaurantID,
		Name:         fmt.Sprintf("Category %d", seq.Add(1)),
		Active:       true,
	}
	for _, m := range mutate {
		m(&c)
	}
	require.NoError(t, db.Create(&c).Error)
	return c
}

// Product inserts an available product priced at price.
func Product(t *testing.T, db *gorm.DB, cat models.Category, price string, mutate ...func(*models.Product)) models.Product {
	t.Helper()
	p := models.Product{
		RestaurantID: cat.RestaurantID,
		CategoryID:   cat.ID,
		Name:         fmt.Sprintf("Product %d", seq.Add(1)),
		Price:        Money(price),
		Available:    true,
	}
	for _, m := range mutate {
		m(&p)
	}
	require.NoError(t, db.Create(&p).Error)
	return p
}

// Group inserts a customization group with one available option per price delta.
func Group(t *testing.T, db *gorm.DB, productID uint, min, max int, deltas ...string) models.CustomizationGroup {
	t.Helper()
	g := models.CustomizationGroup{
		ProductID: productID,
		Name:      fmt.Sprintf("Group %d", seq.Add(1)),
		MinSelect: min,
		MaxSelect: max,
	}
	for i, d := range deltas {
		g.Options = append(g.Options, models.CustomizationOption{
			Name:       fmt.Sprintf("Option %d", i+1),
			PriceDelta: Money(d),
			Available:  true,
			Position:   i,
		})
	}
	require.NoError(t, db.Create(&g).Error)
	return g
}

// Courier inserts an available, unpaused courier.
func Courier(t *testing.T, db *gorm.DB) models.Courier {
	t.Helper()
	n := seq.Add(1)
	c := models.Courier{
		UserID:    fmt.Sprintf("courier-uid-%d", n),
		Email:     fmt.Sprintf("courier%d@example.com", n),
		Name:      fmt.Sprintf("Courier %d", n),
		Available: true,
	}
	require.NoError(t, db.Create(&c).Error)
	return c
}

// Order inserts an order in the given status with a single line of total.
func Order(t *testing.T, db *gorm.DB, restaurantID uint, status models.OrderStatus) models.Order {
	t.Helper()
	customer := "customer-1"
	o := models.Order{
		Reference:     fmt.Sprintf("ref-%d", seq.Add(1)),
		RestaurantID:  restaurantID,
		CustomerID:    &customer,
		CustomerName:  "Ana",
		Status:        status,
		PaymentMethod: models.PaymentMethodCash,
		PaymentStatus: models.PaymentStatusPending,
		Subtotal:      Money("20.00"),
		Total:         Money("20.00"),
		Items: []models.OrderItem{{
			ProductName: "Pizza",
			UnitPrice:   Money("20.00"),
			Quantity:    1,
			LineTotal:   Money("20.00"),
		}},
	}
	require.NoError(t, db.Create(&o).Error)
	return o
}

func CustomerCtx(id string) context.Context {
	return actor.With(context.Background(), actor.Actor{ID: id, Role: actor.RoleCustomer})
}

func GuestCtx(sessionID string) context.Context {
	return actor.With(context.Background(), actor.Actor{ID: sessionID, Role: actor.RoleGuest})
}

func MerchantCtx(restaurantID uint) context.Context {
	return actor.With(context.Background(), actor.Actor{
		ID: fmt.Sprintf("staff-%d", restaurantID), Role: actor.RoleMerchant, RestaurantID: restaurantID,
	})
}

func CourierCtx(c models.Courier) context.Context {
	return actor.With(context.Background(), actor.Actor{ID: c.UserID, Role: actor.RoleCourier, CourierID: c.ID})
}

func AdminCtx() context.Context {
	return actor.With(context.Background(), actor.Actor{ID: "root", Role: actor.RoleSuperadmin})
}
