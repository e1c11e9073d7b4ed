package models

import "time"

// DeliveryAcceptance records that a courier took an order. One row per (order, courier).
type DeliveryAcceptance struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	OrderID    uint      `gorm:"uniqueIndex:idx_acceptance_order_courier;not null" json:"order_id"`
	CourierID  uint      `gorm:"uniqueIndex:idx_acceptance_order_courier;not null" json:"courier_id"`
	AssignedBy string    `json:"assigned_by"` // "courier" or the staff actor id
	CreatedAt  time.Time `json:"created_at"`
}

type OccurrenceKind string

const (
	OccurrenceAddressNotFound OccurrenceKind = "address_not_found"
	OccurrenceCustomerAbsent  OccurrenceKind = "customer_absent"
	OccurrenceDamagedItem     OccurrenceKind = "damaged_item"
	OccurrenceVehicleProblem  OccurrenceKind = "vehicle_problem"
	OccurrenceOther           OccurrenceKind = "other"
)

func (k OccurrenceKind) Valid() bool {
	switch k {
	case OccurrenceAddressNotFound, OccurrenceCustomerAbsent, OccurrenceDamagedItem,
		OccurrenceVehicleProblem, OccurrenceOther:
		return true
	}
	return false
}

// DeliveryOccurrence is an incident a courier reports during a delivery.
type DeliveryOccurrence struct {
	ID              uint           `gorm:"primaryKey" json:"id"`
	OrderID         uint           `gorm:"index;not null" json:"order_id"`
	CourierID       uint           `gorm:"index;not null" json:"courier_id"`
	Kind            OccurrenceKind `gorm:"type:VARCHAR(32)" json:"kind"`
	Description     string         `json:"description"`
	Resolved        bool           `json:"resolved"`
	ResolutionNotes string         `json:"resolution_notes"`
	ResolvedBy      string         `json:"resolved_by"`
	ResolvedAt      *time.Time     `json:"resolved_at"`
	CreatedAt       time.Time      `json:"created_at"`
}
