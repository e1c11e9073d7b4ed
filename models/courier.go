package models

import "time"

// Courier is a delivery person. A courier holds at most one order out for delivery.
type Courier struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	UserID              string    `gorm:"uniqueIndex;size:128" json:"user_id"`
	Email               string    `gorm:"uniqueIndex" json:"email"`
	Name                string    `gorm:"not null" json:"name"`
	Phone               string    `json:"phone"`
	Vehicle             string    `json:"vehicle"`
	Available           bool      `json:"available"`
	Paused              bool      `json:"paused"`
	RatingSum           int       `json:"-"`
	RatingCount         int       `json:"rating_count"`
	DeliveriesCompleted int       `json:"deliveries_completed"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// Rating is the running average of all ratings received, zero when unrated.
func (c Courier) Rating() float64 {
	if c.RatingCount == 0 {
		return 0
	}
	return float64(c.RatingSum) / float64(c.RatingCount)
}
