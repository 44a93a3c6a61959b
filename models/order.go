package models

import "time"

// Order states. An order only ever moves forward along
// requested -> accepted -> in_preparation -> served, or to cancelled
// from any non-terminal state.
const (
	OrderRequested     = "requested"
	OrderAccepted      = "accepted"
	OrderInPreparation = "in_preparation"
	OrderServed        = "served"
	OrderCancelled     = "cancelled"
)

type Order struct {
	ID        uint        `gorm:"primaryKey" json:"id"`
	TableID   uint        `gorm:"not null;index" json:"table_id"`
	Table     Table       `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	SessionID uint        `gorm:"not null;index" json:"session_id"`
	Session   Session     `gorm:"foreignKey:SessionID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	State     string      `gorm:"type:varchar(20);not null;default:'requested';index" json:"state"`
	Total     float64     `gorm:"type:decimal(10,2);not null;default:0.00" json:"total_eur"`
	Items     []OrderItem `gorm:"foreignKey:OrderID" json:"items"`
	CreatedAt time.Time   `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time   `gorm:"not null" json:"updated_at"`
}

var orderTransitions = map[string][]string{
	OrderRequested:     {OrderAccepted, OrderCancelled},
	OrderAccepted:      {OrderInPreparation, OrderCancelled},
	OrderInPreparation: {OrderServed, OrderCancelled},
	OrderServed:        {},
	OrderCancelled:     {},
}

// IsOrderState reports whether s names a known order state.
func IsOrderState(s string) bool {
	_, ok := orderTransitions[s]
	return ok
}

// CanTransitionTo checks the state graph; terminal states allow nothing.
func (o *Order) CanTransitionTo(next string) bool {
	for _, s := range orderTransitions[o.State] {
		if s == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the order can never change state again.
func (o *Order) IsTerminal() bool {
	return o.State == OrderServed || o.State == OrderCancelled
}
