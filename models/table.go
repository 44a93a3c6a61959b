package models

import "time"

type Table struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Label     string    `gorm:"type:varchar(50);not null" json:"label"`
	CreatedAt time.Time `gorm:"not null" json:"-"`
	UpdatedAt time.Time `gorm:"not null" json:"-"`
}
