package models

import "time"

// Session is one continuous guest occupancy of a table. The PIN is the
// human-facing secret shown by staff; Token is the bearer credential the
// guest client carries after a successful verify. SessionUID is the
// revocation anchor: tokens embed it, and a close/reset changes it.
type Session struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	TableID    uint       `gorm:"not null;index" json:"table_id"`
	Table      Table      `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	SessionUID string     `gorm:"type:varchar(64);not null" json:"-"`
	PIN        string     `gorm:"type:varchar(8);not null" json:"pin"`
	Token      string     `gorm:"type:text;not null" json:"-"`
	Active     bool       `gorm:"not null;default:true;index" json:"active"`
	OpenedAt   time.Time  `gorm:"not null" json:"opened_at"`
	ClosedAt   *time.Time `json:"closed_at,omitempty"`
	CreatedAt  time.Time  `gorm:"not null" json:"-"`
	UpdatedAt  time.Time  `gorm:"not null" json:"-"`
}
