package client

import "time"

// Wire shapes shared by the guest and staff clients.

type Order struct {
	ID        uint        `json:"id"`
	TableID   uint        `json:"table_id"`
	SessionID uint        `json:"session_id"`
	State     string      `json:"state"`
	TotalEUR  float64     `json:"total_eur"`
	Items     []OrderLine `json:"items"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

type OrderLine struct {
	ItemID       uint    `json:"item_id"`
	ItemName     string  `json:"item_name"`
	Quantity     int     `json:"quantity"`
	UnitPriceEUR float64 `json:"unit_price_eur"`
}

// SubmitLine is the POST /orders payload shape, distinct from the
// OrderLine shape the server replies with.
type SubmitLine struct {
	ItemID   uint    `json:"item_id"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	PriceEUR float64 `json:"price_eur"`
}

type MenuItem struct {
	ID          uint    `json:"id"`
	CategoryID  uint    `json:"category_id"`
	Name        string  `json:"name"`
	PriceEUR    float64 `json:"price_eur"`
	Description string  `json:"description"`
	Visible     bool    `json:"visible"`
}

type MenuCategory struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

type Menu struct {
	Categories []MenuCategory `json:"categories"`
	Items      []MenuItem     `json:"items"`
}

type TableView struct {
	ID            uint         `json:"id"`
	Label         string       `json:"label"`
	ActiveSession *SessionView `json:"active_session"`
	HasPending    bool         `json:"has_pending"`
}

type SessionView struct {
	PIN      string `json:"pin"`
	OpenedAt int64  `json:"opened_at"`
}
