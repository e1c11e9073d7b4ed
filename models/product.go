package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID           uint                 `gorm:"primaryKey;autoIncrement" json:"id"`
	RestaurantID uint                 `gorm:"index;not null" json:"restaurant_id"`
	CategoryID   uint                 `gorm:"index;not null" json:"category_id"`
	Category     *Category            `json:"category,omitempty"`
	Name         string               `gorm:"not null" json:"name"`
	Description  string               `json:"description"`
	Price        decimal.Decimal      `gorm:"type:numeric(10,2);not null" json:"price"`
	Image        string               `json:"image"`
	Position     int                  `gorm:"default:0" json:"position"`
	Available    bool                 `json:"available"`
	TrackStock   bool                 `json:"track_stock"`
	Stock        int                  `json:"stock"`
	Groups       []CustomizationGroup `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"customization_groups,omitempty"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
	DeletedAt    gorm.DeletedAt       `gorm:"index" json:"-"`
}

// CustomizationGroup is a set of options offered for a product, e.g. "Size" or "Extras".
// MaxSelect of zero means the customer may pick any number of options.
type CustomizationGroup struct {
	ID        uint                  `gorm:"primaryKey" json:"id"`
	ProductID uint                  `gorm:"index;not null" json:"product_id"`
	Name      string                `gorm:"not null" json:"name"`
	MinSelect int                   `json:"min_select"`
	MaxSelect int                   `json:"max_select"`
	Position  int                   `json:"position"`
	Options   []CustomizationOption `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE" json:"options,omitempty"`
}

type CustomizationOption struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	GroupID    uint            `gorm:"index;not null" json:"group_id"`
	Name       string          `gorm:"not null" json:"name"`
	PriceDelta decimal.Decimal `gorm:"type:numeric(10,2);default:0" json:"price_delta"`
	Available  bool            `json:"available"`
	Position   int             `json:"position"`
}
