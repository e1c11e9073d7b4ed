package orders

import (
	"errors"
	"time"

	"github.com/ronwsv/menuly-delivery/actor"
	"github.com/ronwsv/menuly-delivery/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// transitions is the fixed adjacency table of the order lifecycle.
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderStatusPending:         {models.OrderStatusConfirmed, models.OrderStatusCancelled},
	models.OrderStatusConfirmed:       {models.OrderStatusPreparing, models.OrderStatusCancelled},
	models.OrderStatusPreparing:       {models.OrderStatusReady, models.OrderStatusCancelled},
	models.OrderStatusReady:           {models.OrderStatusAwaitingCourier, models.OrderStatusCancelled},
	models.OrderStatusAwaitingCourier: {models.OrderStatusOutForDelivery, models.OrderStatusCancelled},
	models.OrderStatusOutForDelivery:  {models.OrderStatusDelivered},
}

// CanTransition reports whether the lifecycle allows moving from one status to another.
func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses lists the statuses reachable from s in one step.
func NextStatuses(s models.OrderStatus) []models.OrderStatus {
	return append([]models.OrderStatus(nil), transitions[s]...)
}

// LockOrder re-reads an order inside tx, holding a row lock where the database supports it.
func LockOrder(tx *gorm.DB, orderID uint) (models.Order, error) {
	var o models.Order
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&o, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return o, ErrOrderNotFound
	}
	return o, err
}

// AppendHistory inserts one status history row.
func AppendHistory(tx *gorm.DB, orderID uint, from, to models.OrderStatus, a actor.Actor, notes string) error {
	return tx.Create(&models.StatusHistoryEntry{
		OrderID:    orderID,
		FromStatus: from,
		ToStatus:   to,
		ActorID:    a.ID,
		ActorRole:  string(a.Role),
		Notes:      notes,
		CreatedAt:  time.Now(),
	}).Error
}

// applyTransition moves o to target with a conditional update on its current
// status, stamps lifecycle timestamps and writes the history row.
func applyTransition(tx *gorm.DB, o *models.Order, target models.OrderStatus, a actor.Actor, notes string) error {
	now := time.Now()
	updates := map[string]any{"status": target, "updated_at": now}

	switch target {
	case models.OrderStatusConfirmed:
		if o.ConfirmedAt == nil {
			updates["confirmed_at"] = now
			o.ConfirmedAt = &now
		}
	case models.OrderStatusDelivered:
		updates["delivered_at"] = now
		o.DeliveredAt = &now
	case models.OrderStatusCancelled:
		updates["cancelled_at"] = now
		o.CancelledAt = &now
	}

	res := tx.Model(&models.Order{}).
		Where("id = ? AND status = ?", o.ID, o.Status).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConcurrentUpdate
	}

	switch target {
	case models.OrderStatusDelivered:
		if o.CourierID != nil {
			err := tx.Model(&models.Courier{}).Where("id = ?", *o.CourierID).
				UpdateColumn("deliveries_completed", gorm.Expr("deliveries_completed + 1")).Error
			if err != nil {
				return err
			}
		}
	case models.OrderStatusCancelled:
		if err := restoreStock(tx, o.ID); err != nil {
			return err
		}
	}

	from := o.Status
	o.Status = target
	o.UpdatedAt = now
	return AppendHistory(tx, o.ID, from, target, a, notes)
}

// restoreStock gives back the quantities of a cancelled order to products that track stock.
func restoreStock(tx *gorm.DB, orderID uint) error {
	var items []models.OrderItem
	if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return err
	}
	for _, it := range items {
		if it.ProductID == 0 {
			continue
		}
		err := tx.Model(&models.Product{}).
			Where("id = ? AND track_stock = ?", it.ProductID, true).
			UpdateColumn("stock", gorm.Expr("stock + ?", it.Quantity)).Error
		if err != nil {
			return err
		}
	}
	return nil
}
