package models

import "time"

type MenuItem struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	CategoryID  uint         `gorm:"not null" json:"category_id"`
	Category    MenuCategory `gorm:"foreignKey:CategoryID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	Name        string       `gorm:"type:varchar(255);not null" json:"name"`
	PriceEUR    float64      `gorm:"type:decimal(10,2);not null" json:"price_eur"`
	Description string       `gorm:"type:text" json:"description"`
	Visible     bool         `gorm:"not null;default:true" json:"visible"`
	CreatedAt   time.Time    `gorm:"not null" json:"-"`
	UpdatedAt   time.Time    `gorm:"not null" json:"-"`
}
