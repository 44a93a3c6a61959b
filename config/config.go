package config

import (
	"os"
	"strconv"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// defaultOrderCeiling is the maximum total a single guest submission may
// reach, in currency units. Overridable via ORDER_TOTAL_CEILING.
const defaultOrderCeiling = 200.00

// InitDB opens the database selected by DB_DRIVER (sqlite default, mysql
// for production) using DB_DSN.
func InitDB() (*gorm.DB, error) {
	driver := os.Getenv("DB_DRIVER")
	dsn := os.Getenv("DB_DSN")

	switch driver {
	case "mysql":
		return gorm.Open(mysql.Open(dsn), &gorm.Config{})
	default:
		if dsn == "" {
			dsn = "bar_ordini.db"
		}
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	}
}

// OrderTotalCeiling returns the configured submission ceiling.
func OrderTotalCeiling() float64 {
	if v := os.Getenv("ORDER_TOTAL_CEILING"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			return f
		}
	}
	return defaultOrderCeiling
}

// StaffPassword returns the shared operator secret guarding staff routes.
func StaffPassword() string {
	if v := os.Getenv("STAFF_PASSWORD"); v != "" {
		return v
	}
	return "admin"
}
