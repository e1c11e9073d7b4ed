package orders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ronwsv/menuly-delivery/apperr"
	"github.com/ronwsv/menuly-delivery/geo"
	"github.com/ronwsv/menuly-delivery/models"
	"github.com/ronwsv/menuly-delivery/notify"
	"github.com/ronwsv/menuly-delivery/services/cart"
	"github.com/ronwsv/menuly-delivery/services/fees"
	"github.com/ronwsv/menuly-delivery/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db         *gorm.DB
	svc        *Service
	carts      *cart.Service
	events     *notify.Recorder
	restaurant models.Restaurant
	category   models.Category
}

func setup(t *testing.T) fixture {
	db := testutil.NewDB(t)
	r := testutil.Restaurant(t, db, func(r *models.Restaurant) {
		r.DeliveryBaseFee = testutil.Money("5.00")
		r.MinimumOrder = testutil.Money("15.00")
	})
	events := &notify.Recorder{}
	failing := geo.GeocoderFunc(func(context.Context, string) (geo.Coordinates, error) {
		return geo.Coordinates{}, errors.New("offline")
	})
	return fixture{
		db:         db,
		svc:        NewService(db, fees.NewCalculator(failing, time.Second), events),
		carts:      cart.NewService(db),
		events:     events,
		restaurant: r,
		category:   testutil.Category(t, db, r.ID),
	}
}

func checkoutInput() CheckoutInput {
	return CheckoutInput{
		CustomerName:  "Ana",
		CustomerPhone: "11999990000",
		Address: models.Address{
			Street: "Av. Paulista", Number: "1000", City: "São Paulo", State: "SP", PostalCode: "01310-100",
		},
		PaymentMethod: "pix",
	}
}

func assertMoney(t *testing.T, want string, got interface{ String() string }) {
	t.Helper()
	assert.True(t, testutil.Money(want).Equal(testutil.Money(got.String())), "want %s, got %s", want, got)
}

func (f fixture) fill(t *testing.T, ctx context.Context, lines map[uint]int) {
	t.Helper()
	for productID, qty := range lines {
		_, err := f.carts.Add(ctx, f.restaurant.ID, cart.AddInput{ProductID: productID, Quantity: qty})
		require.NoError(t, err)
	}
}

func TestCheckoutCreatesOrderAndClearsCart(t *testing.T) {
	f := setup(t)
	ctx := testutil.CustomerCtx("cust-1")
	pizza := testutil.Product(t, f.db, f.category, "30.00", func(p *models.Product) {
		p.TrackStock = true
		p.Stock = 5
	})
	soda := testutil.Product(t, f.db, f.category, "6.50")
	f.fill(t, ctx, map[uint]int{pizza.ID: 2, soda.ID: 1})

	order, err := f.svc.Checkout(ctx, f.restaurant.ID, checkoutInput())
	require.NoError(t, err)

	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Equal(t, models.PaymentMethodPix, order.PaymentMethod)
	require.NotNil(t, order.CustomerID)
	assert.Equal(t, "cust-1", *order.CustomerID)
	assert.NotEmpty(t, order.Reference)
	assertMoney(t, "66.50", order.Subtotal)
	assertMoney(t, "5.00", order.DeliveryFee)
	assertMoney(t, "71.50", order.Total)
	assert.Len(t, order.Items, 2)

	var stored models.Product
	require.NoError(t, f.db.First(&stored, pizza.ID).Error)
	assert.Equal(t, 3, stored.Stock)

	v, err := f.carts.Get(ctx, f.restaurant.ID)
	require.NoError(t, err)
	assert.Empty(t, v.Items)

	history, err := f.svc.History(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.OrderStatus(""), history[0].FromStatus)
	assert.Equal(t, models.OrderStatusPending, history[0].ToStatus)

	assert.Equal(t, []notify.EventType{notify.EventOrderCreated}, f.events.Types())
}

func TestCheckoutChargesBaseFeeWhenGeocodingFails(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.db.Model(&f.restaurant).Updates(map[string]any{
		"delivery_fee_per_km":  testutil.Money("1.50"),
		"delivery_included_km": 2.0,
	}).Error)
	ctx := testutil.CustomerCtx("cust-1")
	pizza := testutil.Product(t, f.db, f.category, "30.00")
	f.fill(t, ctx, map[uint]int{pizza.ID: 1})

	order, err := f.svc.Checkout(ctx, f.restaurant.ID, checkoutInput())
	require.NoError(t, err)

	assert.True(t, order.FeeFallback)
	assertMoney(t, "30.00", order.Subtotal)
	assertMoney(t, "5.00", order.DeliveryFee)
	assertMoney(t, "35.00", order.Total)

	var stored models.Order
	require.NoError(t, f.db.First(&stored, order.ID).Error)
	assert.True(t, stored.FeeFallback)
	assertMoney(t, "35.00", stored.Total)
}

func TestCheckoutSnapshotsCustomizations(t *testing.T) {
	f := setup(t)
	ctx := testutil.GuestCtx("guest_1")
	pizza := testutil.Product(t, f.db, f.category, "30.00")
	size := testutil.Group(t, f.db, pizza.ID, 1, 1, "0.00", "8.00")

	_, err := f.carts.Add(ctx, f.restaurant.ID, cart.AddInput{ProductID: pizza.ID, Quantity: 1, OptionIDs: []uint{size.Options[1].ID}})
	require.NoError(t, err)

	order, err := f.svc.Checkout(ctx, f.restaurant.ID, checkoutInput())
	require.NoError(t, err)
	assert.Nil(t, order.CustomerID)
	assert.Equal(t, "guest_1", order.SessionID)

	// Later catalog changes do not touch the order.
	require.NoError(t, f.db.Model(&pizza).Update("price", testutil.Money("99.00")).Error)

	got, err := f.svc.Get(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assertMoney(t, "38.00", got.Items[0].UnitPrice)
	require.Len(t, got.Items[0].Customizations, 1)
	assert.Equal(t, size.Name, got.Items[0].Customizations[0].GroupName)
	assertMoney(t, "43.00", got.Total)
}

func TestCheckoutValidation(t *testing.T) {
	f := setup(t)
	ctx := testutil.CustomerCtx("cust-1")
	cheap := testutil.Product(t, f.db, f.category, "4.00")

	_, err := f.svc.Checkout(ctx, f.restaurant.ID, checkoutInput())
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err))

	f.fill(t, ctx, map[uint]int{cheap.ID: 1})
	_, err = f.svc.Checkout(ctx, f.restaurant.ID, checkoutInput())
	assert.Equal(t, apperr.KindValidation, apperr.KindOf(err), "below minimum order")

	f.fill(t, ctx, map[uint]int{cheap.ID: 3})

	in := checkoutInput()
	in.Address.PostalCode = ""
	_, err = f.svc.Checkout(ctx, f.restaurant.ID, in)
	assert.ErrorIs(t, err, ErrAddressRequired)

	// Base-fee restaurants never geocode, the postal code is still checked.
	in = checkoutInput()
	in.Address.PostalCode = "0131-ABC"
	_, err = f.svc.Checkout(ctx, f.restaurant.ID, in)
	assert.ErrorIs(t, err, fees.ErrInvalidPostalCode)

	in = checkoutInput()
	in.PaymentMethod = "bitcoin"
	_, err = f.svc.Checkout(ctx, f.restaurant.ID, in)
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)

	in = checkoutInput()
	in.CouponCode = "NOPE"
	_, err = f.svc.Checkout(ctx, f.restaurant.ID, in)
	assert.ErrorIs(t, err, ErrInvalidCoupon)

	require.NoError(t, f.db.Model(&f.restaurant).Update("open", false).Error)
	_, err = f.svc.Checkout(ctx, f.restaurant.ID, checkoutInput())
	assert.ErrorIs(t, err, ErrRestaurantClosed)

	// Nothing was consumed by the failed attempts.
	v, err := f.carts.Get(ctx, f.restaurant.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, v.ItemCount)
	var orders int64
	f.db.Model(&models.Order{}).Count(&orders)
	assert.Zero(t, orders)
}

func TestCheckoutAppliesCoupon(t *testing.T) {
	f := setup(t)
	ctx := testutil.CustomerCtx("cust-1")
	pizza := testutil.Product(t, f.db, f.category, "40.00")
	require.NoError(t, f.db.Create(&models.Coupon{
		RestaurantID: f.restaurant.ID, Code: "WELCOME10", Kind: models.CouponPercent,
		Value: testutil.Money("10"), Active: true,
	}).Error)
	f.fill(t, ctx, map[uint]int{pizza.ID: 1})

	in := checkoutInput()
	in.CouponCode = "welcome10"
	order, err := f.svc.Checkout(ctx, f.restaurant.ID, in)
	require.NoError(t, err)
	assertMoney(t, "4.00", order.Discount)
	assertMoney(t, "41.00", order.Total)
	assert.Equal(t, "WELCOME10", order.CouponCode)
}

func TestCheckoutRollsBackOnInsufficientStock(t *testing.T) {
	f := setup(t)
	ctx := testutil.CustomerCtx("cust-1")
	pizza := testutil.Product(t, f.db, f.category, "30.00", func(p *models.Product) {
		p.TrackStock = true
		p.Stock = 2
	})
	f.fill(t, ctx, map[uint]int{pizza.ID: 2})

	// Someone else bought the last unit in the meantime.
	require.NoError(t, f.db.Model(&pizza).Update("stock", 1).Error)

	_, err := f.svc.Checkout(ctx, f.restaurant.ID, checkoutInput())
	assert.ErrorIs(t, err, ErrInsufficientStock)

	var stored models.Product
	require.NoError(t, f.db.First(&stored, pizza.ID).Error)
	assert.Equal(t, 1, stored.Stock)
	v, err := f.carts.Get(ctx, f.restaurant.ID)
	require.NoError(t, err)
	assert.Len(t, v.Items, 1)
	assert.Empty(t, f.events.Events)
}

func TestTransitionFollowsLifecycle(t *testing.T) {
	f := setup(t)
	order := testutil.Order(t, f.db, f.restaurant.ID, models.OrderStatusPending)
	merchant := testutil.MerchantCtx(f.restaurant.ID)

	got, err := f.svc.Transition(merchant, order.ID, models.OrderStatusConfirmed, "")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusConfirmed, got.Status)
	require.NotNil(t, got.ConfirmedAt)

	_, err = f.svc.Transition(merchant, order.ID, models.OrderStatusReady, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	for _, s := range []models.OrderStatus{models.OrderStatusPreparing, models.OrderStatusReady, models.OrderStatusAwaitingCourier} {
		_, err = f.svc.Transition(merchant, order.ID, s, "")
		require.NoError(t, err, s)
	}

	_, err = f.svc.Transition(merchant, order.ID, models.OrderStatusOutForDelivery, "")
	assert.ErrorIs(t, err, ErrCourierRequired)

	history, err := f.svc.History(merchant, order.ID)
	require.NoError(t, err)
	require.Len(t, history, 4)
	assert.Equal(t, models.OrderStatusReady, history[3].FromStatus)
	assert.Equal(t, models.OrderStatusAwaitingCourier, history[3].ToStatus)
	assert.Equal(t, "merchant", history[3].ActorRole)

	require.Len(t, f.events.Events, 4)
	assert.Equal(t, "order.awaiting_courier", f.events.Events[3].RoutingKey())
	assert.Equal(t, models.OrderStatusReady, f.events.Events[3].FromStatus)
}

func TestTransitionEveryStatusPair(t *testing.T) {
	allowed := map[[2]models.OrderStatus]bool{
		{models.OrderStatusPending, models.OrderStatusConfirmed}:              true,
		{models.OrderStatusPending, models.OrderStatusCancelled}:              true,
		{models.OrderStatusConfirmed, models.OrderStatusPreparing}:            true,
		{models.OrderStatusConfirmed, models.OrderStatusCancelled}:            true,
		{models.OrderStatusPreparing, models.OrderStatusReady}:                true,
		{models.OrderStatusPreparing, models.OrderStatusCancelled}:            true,
		{models.OrderStatusReady, models.OrderStatusAwaitingCourier}:          true,
		{models.OrderStatusReady, models.OrderStatusCancelled}:                true,
		{models.OrderStatusAwaitingCourier, models.OrderStatusOutForDelivery}: true,
		{models.OrderStatusAwaitingCourier, models.OrderStatusCancelled}:      true,
		{models.OrderStatusOutForDelivery, models.OrderStatusDelivered}:       true,
	}

	f := setup(t)
	courier := testutil.Courier(t, f.db)
	admin := testutil.AdminCtx()

	for _, from := range models.OrderStatuses() {
		for _, to := range models.OrderStatuses() {
			t.Run(string(from)+"->"+string(to), func(t *testing.T) {
				order := testutil.Order(t, f.db, f.restaurant.ID, from)
				// A courier is attached so out_for_delivery is reachable.
				require.NoError(t, f.db.Model(&order).Update("courier_id", courier.ID).Error)

				_, err := f.svc.Transition(admin, order.ID, to, "")

				var entries int64
				require.NoError(t, f.db.Model(&models.StatusHistoryEntry{}).Where("order_id = ?", order.ID).Count(&entries).Error)
				var stored models.Order
				require.NoError(t, f.db.First(&stored, order.ID).Error)

				if allowed[[2]models.OrderStatus{from, to}] {
					require.NoError(t, err)
					assert.Equal(t, to, stored.Status)
					assert.EqualValues(t, 1, entries)
					return
				}
				assert.ErrorIs(t, err, ErrInvalidTransition)
				assert.Equal(t, from, stored.Status)
				assert.Zero(t, entries)
			})
		}
	}
	assert.Len(t, allowed, 11)
}

func TestTransitionPermissions(t *testing.T) {
	f := setup(t)
	order := testutil.Order(t, f.db, f.restaurant.ID, models.OrderStatusPending)
	other := testutil.Restaurant(t, f.db)

	_, err := f.svc.Transition(testutil.MerchantCtx(other.ID), order.ID, models.OrderStatusConfirmed, "")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = f.svc.Transition(testutil.CustomerCtx("customer-1"), order.ID, models.OrderStatusConfirmed, "")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Transition(context.Background(), order.ID, models.OrderStatusConfirmed, "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
	assert.Equal(t, apperr.KindUnauthorized, apperr.KindOf(err))

	_, err = f.svc.Transition(testutil.AdminCtx(), order.ID, "shipped", "")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	// The customer may cancel while the order is still pending.
	got, err := f.svc.Cancel(testutil.CustomerCtx("customer-1"), order.ID, "changed my mind")
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, got.Status)
	require.NotNil(t, got.CancelledAt)

	_, err = f.svc.Transition(testutil.AdminCtx(), order.ID, models.OrderStatusConfirmed, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancelRestoresTrackedStock(t *testing.T) {
	f := setup(t)
	ctx := testutil.CustomerCtx("cust-1")
	pizza := testutil.Product(t, f.db, f.category, "30.00", func(p *models.Product) {
		p.TrackStock = true
		p.Stock = 4
	})
	f.fill(t, ctx, map[uint]int{pizza.ID: 3})

	order, err := f.svc.Checkout(ctx, f.restaurant.ID, checkoutInput())
	require.NoError(t, err)

	merchant := testutil.MerchantCtx(f.restaurant.ID)
	_, err = f.svc.Transition(merchant, order.ID, models.OrderStatusConfirmed, "")
	require.NoError(t, err)
	_, err = f.svc.Cancel(merchant, order.ID, "out of dough")
	require.NoError(t, err)

	var stored models.Product
	require.NoError(t, f.db.First(&stored, pizza.ID).Error)
	assert.Equal(t, 4, stored.Stock)
}

func TestDeliveredCountsForCourierAndCanBeRated(t *testing.T) {
	f := setup(t)
	courier := testutil.Courier(t, f.db)
	order := testutil.Order(t, f.db, f.restaurant.ID, models.OrderStatusOutForDelivery)
	require.NoError(t, f.db.Model(&order).Update("courier_id", courier.ID).Error)

	customer := testutil.CustomerCtx("customer-1")
	_, err := f.svc.RateCourier(customer, order.ID, 5)
	assert.ErrorIs(t, err, ErrNotDelivered)

	// Another courier cannot close the delivery.
	_, err = f.svc.Transition(testutil.CourierCtx(testutil.Courier(t, f.db)), order.ID, models.OrderStatusDelivered, "")
	assert.ErrorIs(t, err, ErrOrderNotFound)

	got, err := f.svc.Transition(testutil.CourierCtx(courier), order.ID, models.OrderStatusDelivered, "")
	require.NoError(t, err)
	assert.NotNil(t, got.DeliveredAt)

	_, err = f.svc.RateCourier(customer, order.ID, 6)
	assert.ErrorIs(t, err, ErrInvalidRating)
	got, err = f.svc.RateCourier(customer, order.ID, 4)
	require.NoError(t, err)
	require.NotNil(t, got.CourierRating)
	assert.Equal(t, 4, *got.CourierRating)
	_, err = f.svc.RateCourier(customer, order.ID, 5)
	assert.ErrorIs(t, err, ErrAlreadyRated)

	var stored models.Courier
	require.NoError(t, f.db.First(&stored, courier.ID).Error)
	assert.Equal(t, 1, stored.DeliveriesCompleted)
	assert.Equal(t, 1, stored.RatingCount)
	assert.InDelta(t, 4.0, stored.Rating(), 0.001)
}

func TestConcurrentTransitionsApplyOnce(t *testing.T) {
	f := setup(t)
	order := testutil.Order(t, f.db, f.restaurant.ID, models.OrderStatusPending)
	merchant := testutil.MerchantCtx(f.restaurant.ID)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Transition(merchant, order.ID, models.OrderStatusConfirmed, "")
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, ErrInvalidTransition)
		}
	}
	assert.Equal(t, 1, ok)

	var entries int64
	f.db.Model(&models.StatusHistoryEntry{}).Where("order_id = ?", order.ID).Count(&entries)
	assert.Equal(t, int64(1), entries)
}

func TestPaymentStatusAndListing(t *testing.T) {
	f := setup(t)
	mine := testutil.Order(t, f.db, f.restaurant.ID, models.OrderStatusPending)
	other := testutil.Restaurant(t, f.db)
	testutil.Order(t, f.db, other.ID, models.OrderStatusPending)

	merchant := testutil.MerchantCtx(f.restaurant.ID)
	got, err := f.svc.UpdatePaymentStatus(merchant, mine.ID, "PAID")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, got.PaymentStatus)

	_, err = f.svc.UpdatePaymentStatus(merchant, mine.ID, "maybe")
	assert.ErrorIs(t, err, ErrInvalidPaymentStatus)
	_, err = f.svc.UpdatePaymentStatus(testutil.MerchantCtx(other.ID), mine.ID, "paid")
	assert.ErrorIs(t, err, ErrForbidden)

	list, err := f.svc.List(merchant, ListFilter{RestaurantID: other.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	all, err := f.svc.List(testutil.AdminCtx(), ListFilter{Statuses: []models.OrderStatus{models.OrderStatusPending}})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byRef, err := f.svc.Lookup(merchant, mine.Reference)
	require.NoError(t, err)
	assert.Equal(t, mine.ID, byRef.ID)

	_, err = f.svc.List(testutil.CourierCtx(testutil.Courier(t, f.db)), ListFilter{})
	assert.ErrorIs(t, err, ErrForbidden)
}
