package models

import "time"

// Staff is a merchant back-office account. New staff wait for superadmin approval.
type Staff struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"unique" json:"email"`
	Name         string    `json:"name"`
	Picture      string    `json:"picture"`
	RestaurantID *uint     `gorm:"index" json:"restaurant_id"`
	Approved     bool      `json:"approved"`
	CreatedAt    time.Time `json:"created_at"`
}
