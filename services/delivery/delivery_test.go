package delivery

import (
	"context"
	"sync"
	"testing"

	"github.com/ronwsv/menuly-delivery/models"
	"github.com/ronwsv/menuly-delivery/notify"
	"github.com/ronwsv/menuly-delivery/services/orders"
	"github.com/ronwsv/menuly-delivery/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db         *gorm.DB
	svc        *Service
	events     *notify.Recorder
	restaurant models.Restaurant
}

func setup(t *testing.T) fixture {
	db := testutil.NewDB(t)
	events := &notify.Recorder{}
	return fixture{
		db:         db,
		svc:        NewService(db, orders.NewService(db, nil, events), events),
		events:     events,
		restaurant: testutil.Restaurant(t, db),
	}
}

func countRows(t *testing.T, db *gorm.DB, model any, where string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Where(where, args...).Count(&n).Error)
	return n
}

func TestAcceptMovesOrderOutForDelivery(t *testing.T) {
	f := setup(t)
	courier := testutil.Courier(t, f.db)
	order := testutil.Order(t, f.db, f.restaurant.ID, models.OrderStatusAwaitingCourier)
	ctx := testutil.CourierCtx(courier)

	available, err := f.svc.ListAvailable(ctx)
	require.NoError(t, err)
	require.Len(t, available, 1)

	got, err := f.svc.Accept(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusOutForDelivery, got.Status)
	require.NotNil(t, got.CourierID)
	assert.Equal(t, courier.ID, *got.CourierID)

	available, err = f.svc.ListAvailable(ctx)
	require.NoError(t, err)
	assert.Empty(t, available)

	active, err := f.svc.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, order.ID, active.ID)

	assert.Equal(t, int64(1), countRows(t, f.db, &models.DeliveryAcceptance{}, "order_id = ?", order.ID))
	assert.Equal(t, int64(1), countRows(t, f.db, &models.StatusHistoryEntry{},
		"order_id = ? AND from_status = ? AND to_status = ?", order.ID,
		models.OrderStatusAwaitingCourier, models.OrderStatusOutForDelivery))
	assert.Equal(t, []notify.EventType{notify.EventStatusChanged, notify.EventCourierAssigned}, f.events.Types())

	// Accepting again is a no-op for the same courier.
	again, err := f.svc.Accept(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, again.ID)
	assert.Equal(t, int64(1), countRows(t, f.db, &models.DeliveryAcceptance{}, "order_id = ?", order.ID))
	assert.Len(t, f.events.Events, 2)

	delivered, err := f.svc.MarkDelivered(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusDelivered, delivered.Status)

	_, err = f.svc.Active(ctx)
	assert.ErrorIs(t, err, ErrNoActiveDelivery)
}

func TestAcceptRaceHasOneWinner(t *testing.T) {
	f := setup(t)
	order := testutil.Order(t, f.db, f.restaurant.ID, models.OrderStatusAwaitingCourier)
	couriers := []models.Courier{testutil.Courier(t, f.db), testutil.Courier(t, f.db)}

	var wg sync.WaitGroup
	errs := make([]error, len(couriers))
	for i, c := range couriers {
		wg.Add(1)
		go func(i int, c models.Courier) {
			defer wg.Done()
			_, errs[i] = f.svc.Accept(testutil.CourierCtx(c), order.ID)
		}(i, c)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, ErrAlreadyAccepted)
	}
	assert.Equal(t, 1, wins)

	assert.Equal(t, int64(1), countRows(t, f.db, &models.DeliveryAcceptance{}, "order_id = ?", order.ID))
	assert.Equal(t, int64(1), countRows(t, f.db, &models.StatusHistoryEntry{}, "order_id = ?", order.ID))
}

func TestAcceptPreconditions(t *testing.T) {
	f := setup(t)
	courier := testutil.Courier(t, f.db)
	ctx := testutil.CourierCtx(courier)

	ready := testutil.Order(t, f.db, f.restaurant.ID, models.OrderStatusReady)
	_, err := f.svc.Accept(ctx, ready.ID)
	assert.ErrorIs(t, err, ErrNotAwaitingCourier)

	_, err = f.svc.Accept(testutil.MerchantCtx(f.restaurant.ID), ready.ID)
	assert.ErrorIs(t, err, ErrNotCourier)

	waiting := testutil.Order(t, f.db, f.restaurant.ID, models.OrderStatusAwaitingCourier)
	_, err = f.svc.SetPaused(ctx, true)
	require.NoError(t, err)
	_, err = f.svc.Accept(ctx, waiting.ID)
	assert.ErrorIs(t, err, ErrCourierUnavailable)

	c, err := f.svc.SetPaused(ctx, false)
	require.NoError(t, err)
	assert.False(t, c.Paused)
	c, err = f.svc.SetAvailability(ctx, false)
	require.NoError(t, err)
	assert.False(t, c.Available)
	_, err = f.svc.Accept(ctx, waiting.ID)
	assert.ErrorIs(t, err, ErrCourierUnavailable)

	_, err = f.svc.SetAvailability(ctx, true)
	require.NoError(t, err)
	_, err = f.svc.Accept(ctx, waiting.ID)
	require.NoError(t, err)

	// One delivery at a time.
	second := testutil.Order(t, f.db, f.restaurant.ID, models.OrderStatusAwaitingCourier)
	_, err = f.svc.Accept(ctx, second.ID)
	assert.ErrorIs(t, err, ErrCourierBusy)

	_, err = f.svc.Accept(testutil.CourierCtx(testutil.Courier(t, f.db)), waiting.ID)
	assert.ErrorIs(t, err, ErrAlreadyAccepted)
}

func TestAssignByMerchant(t *testing.T) {
	f := setup(t)
	courier := testutil.Courier(t, f.db)
	order := testutil.Order(t, f.db, f.restaurant.ID, models.OrderStatusReady)

	other := testutil.Restaurant(t, f.db)
	_, err := f.svc.Assign(testutil.MerchantCtx(other.ID), order.ID, courier.ID)
	assert.ErrorIs(t, err, orders.ErrOrderNotFound)

	_, err = f.svc.Assign(testutil.MerchantCtx(f.restaurant.ID), order.ID, 9999)
	assert.ErrorIs(t, err, ErrCourierNotFound)

	merchant := testutil.MerchantCtx(f.restaurant.ID)
	got, err := f.svc.Assign(merchant, order.ID, courier.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusOutForDelivery, got.Status)

	_, err = f.svc.Assign(merchant, order.ID, courier.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), countRows(t, f.db, &models.DeliveryAcceptance{}, "order_id = ?", order.ID))
	assert.Equal(t, int64(1), countRows(t, f.db, &models.StatusHistoryEntry{}, "order_id = ?", order.ID))

	var acc models.DeliveryAcceptance
	require.NoError(t, f.db.Where("order_id = ?", order.ID).First(&acc).Error)
	assert.Contains(t, acc.AssignedBy, "merchant:")

	_, err = f.svc.Assign(testutil.CustomerCtx("customer-1"), order.ID, courier.ID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestOccurrences(t *testing.T) {
	f := setup(t)
	courier := testutil.Courier(t, f.db)
	ctx := testutil.CourierCtx(courier)
	order := testutil.Order(t, f.db, f.restaurant.ID, models.OrderStatusAwaitingCourier)

	_, err := f.svc.RegisterOccurrence(ctx, order.ID, models.OccurrenceCustomerAbsent, "")
	assert.ErrorIs(t, err, orders.ErrOrderNotFound, "not assigned yet")

	_, err = f.svc.Accept(ctx, order.ID)
	require.NoError(t, err)

	_, err = f.svc.RegisterOccurrence(ctx, order.ID, "flat_tyre", "")
	assert.ErrorIs(t, err, ErrInvalidOccurrenceKind)
	_, err = f.svc.RegisterOccurrence(ctx, order.ID, models.OccurrenceOther, "  ")
	assert.ErrorIs(t, err, ErrDescriptionRequired)

	occ, err := f.svc.RegisterOccurrence(ctx, order.ID, models.OccurrenceCustomerAbsent, "rang twice")
	require.NoError(t, err)
	assert.False(t, occ.Resolved)
	assert.Contains(t, f.events.Types(), notify.EventOccurrence)

	other := testutil.Restaurant(t, f.db)
	_, err = f.svc.ResolveOccurrence(testutil.MerchantCtx(other.ID), occ.ID, "")
	assert.ErrorIs(t, err, ErrOccurrenceNotFound)

	merchant := testutil.MerchantCtx(f.restaurant.ID)
	list, err := f.svc.ListOccurrences(merchant, OccurrenceFilter{UnresolvedOnly: true})
	require.NoError(t, err)
	require.Len(t, list, 1)

	list, err = f.svc.ListOccurrences(testutil.MerchantCtx(other.ID), OccurrenceFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)

	resolved, err := f.svc.ResolveOccurrence(merchant, occ.ID, "called the customer")
	require.NoError(t, err)
	assert.True(t, resolved.Resolved)
	assert.NotNil(t, resolved.ResolvedAt)

	_, err = f.svc.ResolveOccurrence(merchant, occ.ID, "again")
	assert.ErrorIs(t, err, ErrAlreadyResolved)

	list, err = f.svc.ListOccurrences(ctx, OccurrenceFilter{OrderID: order.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Resolved)

	_, err = f.svc.MarkDelivered(ctx, order.ID)
	require.NoError(t, err)
	_, err = f.svc.RegisterOccurrence(ctx, order.ID, models.OccurrenceOther, "late report")
	assert.ErrorIs(t, err, ErrDeliveryNotInProgress)

	list, err = f.svc.ListOccurrences(ctx, OccurrenceFilter{OrderID: order.ID})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCourierAdministration(t *testing.T) {
	f := setup(t)
	admin := testutil.AdminCtx()

	_, err := f.svc.CreateCourier(testutil.MerchantCtx(f.restaurant.ID), CourierInput{Name: "Bia", Email: "bia@example.com"})
	assert.ErrorIs(t, err, ErrAdminOnly)

	c, err := f.svc.CreateCourier(admin, CourierInput{Name: "Bia", Email: " Bia@Example.com "})
	require.NoError(t, err)
	assert.Equal(t, "bia@example.com", c.Email)
	assert.False(t, c.Available)

	_, err = f.svc.CreateCourier(admin, CourierInput{Name: "Bia 2", Email: "bia@example.com"})
	assert.ErrorIs(t, err, ErrCourierExists)

	c, err = f.svc.UpdateCourier(admin, c.ID, CourierInput{Vehicle: "motorcycle"})
	require.NoError(t, err)
	assert.Equal(t, "motorcycle", c.Vehicle)
	assert.Equal(t, "Bia", c.Name)

	bound, err := f.svc.BindCourier(context.Background(), "BIA@example.com", "firebase-uid-9")
	require.NoError(t, err)
	assert.Equal(t, c.ID, bound.ID)
	assert.Equal(t, "firebase-uid-9", bound.UserID)

	_, err = f.svc.BindCourier(context.Background(), "nobody@example.com", "uid")
	assert.ErrorIs(t, err, ErrCourierNotFound)

	list, err := f.svc.ListCouriers(admin, true)
	require.NoError(t, err)
	assert.Empty(t, list)
}
