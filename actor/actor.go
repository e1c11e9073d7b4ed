// Package actor carries the authenticated caller through context.Context so
// services never read request-scoped globals.
package actor

import (
	"context"
	"strconv"
)

type Role string

const (
	RoleCustomer   Role = "customer"
	RoleGuest      Role = "guest"
	RoleMerchant   Role = "merchant"
	RoleCourier    Role = "courier"
	RoleSuperadmin Role = "superadmin"
	RoleSystem     Role = "system"
)

// Actor is whoever performs an operation.
// RestaurantID is set for merchant staff, CourierID for couriers.
type Actor struct {
	ID           string
	Role         Role
	Email        string
	RestaurantID uint
	CourierID    uint
}

// System is used for operations not triggered by a person.
var System = Actor{ID: "system", Role: RoleSystem}

type ctxKey struct{}

func With(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, ctxKey{}, a)
}

// From returns the actor stored in ctx, or false when the request is anonymous.
func From(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(ctxKey{}).(Actor)
	return a, ok
}

func (a Actor) Is(roles ...Role) bool {
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

// CanManageRestaurant reports whether the actor may act as back-office for the restaurant.
func (a Actor) CanManageRestaurant(restaurantID uint) bool {
	switch a.Role {
	case RoleSuperadmin, RoleSystem:
		return true
	case RoleMerchant:
		return a.RestaurantID == restaurantID
	}
	return false
}

func (a Actor) String() string {
	if a.Role == RoleCourier && a.ID == "" {
		return "courier:" + strconv.FormatUint(uint64(a.CourierID), 10)
	}
	return string(a.Role) + ":" + a.ID
}
