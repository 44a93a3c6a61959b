package models

import "time"

// OrderItem is one line of an order. ItemName and UnitPriceEUR are
// snapshotted at submission time and never recomputed from the live menu.
type OrderItem struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	OrderID      uint      `gorm:"not null;index" json:"order_id"`
	Order        Order     `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	MenuItemID   uint      `gorm:"not null" json:"item_id"`
	ItemName     string    `gorm:"type:varchar(255);not null" json:"item_name"`
	Quantity     int       `gorm:"not null" json:"quantity"`
	UnitPriceEUR float64   `gorm:"type:decimal(10,2);not null" json:"unit_price_eur"`
	CreatedAt    time.Time `gorm:"not null" json:"-"`
	UpdatedAt    time.Time `gorm:"not null" json:"-"`
}
