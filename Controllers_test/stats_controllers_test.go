package Controllers_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/autjsmo/bar-ordini/controllers"
	"github.com/autjsmo/bar-ordini/models"
	"github.com/autjsmo/bar-ordini/utils"
)

func setupTestDBForStats(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	if err := db.AutoMigrate(&models.Table{}, &models.Session{}, &models.Order{}, &models.OrderItem{}); err != nil {
		t.Fatal(err)
	}
	return db
}

func setupStatsRouter(db *gorm.DB) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	statsCtrl := controllers.NewStatsController(db)
	router.GET("/stats/top-items", statsCtrl.GetTopItems)
	router.GET("/stats/tables-opened", statsCtrl.GetTablesOpened)
	router.GET("/stats/summary", statsCtrl.GetSummary)
	return router
}

func getJSON(t *testing.T, router *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	req, _ := http.NewRequest("GET", path, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, _ := resp["data"].(map[string]interface{})
	return w, data
}

// seedServedOrder creates an order with one line in the given state.
func seedServedOrder(db *gorm.DB, state, itemName string, qty int, price float64, at time.Time) {
	order := models.Order{
		TableID:   1,
		SessionID: 1,
		State:     state,
		Total:     float64(qty) * price,
		CreatedAt: at,
		UpdatedAt: at,
	}
	db.Create(&order)
	db.Create(&models.OrderItem{
		OrderID:      order.ID,
		MenuItemID:   1,
		ItemName:     itemName,
		Quantity:     qty,
		UnitPriceEUR: price,
	})
}

func TestSummaryWithNoServedOrders(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForStats(t)
	router := setupStatsRouter(db)

	// Cancelled orders must never contribute.
	seedServedOrder(db, models.OrderCancelled, "Tè Verde", 2, 3.50, time.Now())

	w, data := getJSON(t, router, "/stats/summary")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, data["revenue_eur"])
	assert.Equal(t, 0.0, data["served_orders"])
	assert.Equal(t, 0.0, data["avg_order_value_eur"])
}

func TestSummaryAveragesServedOrders(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForStats(t)
	router := setupStatsRouter(db)

	now := time.Now()
	seedServedOrder(db, models.OrderServed, "Tè Verde", 2, 3.50, now)
	seedServedOrder(db, models.OrderServed, "Spritz", 1, 5.00, now)
	seedServedOrder(db, models.OrderRequested, "Spritz", 4, 5.00, now)

	w, data := getJSON(t, router, "/stats/summary")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.InDelta(t, 12.00, data["revenue_eur"].(float64), 0.001)
	assert.Equal(t, 2.0, data["served_orders"])
	assert.InDelta(t, 6.00, data["avg_order_value_eur"].(float64), 0.001)
}

func TestTopItemsAggregatesByName(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForStats(t)
	router := setupStatsRouter(db)

	now := time.Now()
	seedServedOrder(db, models.OrderServed, "Tè Verde", 2, 3.50, now)
	seedServedOrder(db, models.OrderServed, "Tè Verde", 3, 3.50, now)
	seedServedOrder(db, models.OrderServed, "Spritz", 4, 5.00, now)

	w, data := getJSON(t, router, "/stats/top-items")
	assert.Equal(t, http.StatusOK, w.Code)

	topItems := data["top_items"].([]interface{})
	assert.Len(t, topItems, 2)

	first := topItems[0].(map[string]interface{})
	assert.Equal(t, "Tè Verde", first["item_name"])
	assert.Equal(t, 5.0, first["total"])
	assert.InDelta(t, 17.50, first["revenue_eur"].(float64), 0.001)

	second := topItems[1].(map[string]interface{})
	assert.Equal(t, "Spritz", second["item_name"])
	assert.Equal(t, 4.0, second["total"])
}

func TestTopItemsPeriodFilter(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForStats(t)
	router := setupStatsRouter(db)

	old := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	seedServedOrder(db, models.OrderServed, "Tè Verde", 2, 3.50, old)
	seedServedOrder(db, models.OrderServed, "Spritz", 1, 5.00, recent)

	w, data := getJSON(t, router, "/stats/top-items?from=2026-03-01&to=2026-03-31")
	assert.Equal(t, http.StatusOK, w.Code)

	topItems := data["top_items"].([]interface{})
	assert.Len(t, topItems, 1)
	assert.Equal(t, "Spritz", topItems[0].(map[string]interface{})["item_name"])
}

func TestTablesOpenedCountsSessionsPerDay(t *testing.T) {
	utils.InitLogger()
	db := setupTestDBForStats(t)
	router := setupStatsRouter(db)

	day1 := time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 6, 10, 0, 0, 0, time.UTC)
	db.Create(&models.Session{TableID: 1, SessionUID: "a", PIN: "1111", Token: "t1", Active: false, OpenedAt: day1})
	db.Create(&models.Session{TableID: 2, SessionUID: "b", PIN: "2222", Token: "t2", Active: false, OpenedAt: day1.Add(time.Hour)})
	db.Create(&models.Session{TableID: 1, SessionUID: "c", PIN: "3333", Token: "t3", Active: true, OpenedAt: day2})

	w, data := getJSON(t, router, "/stats/tables-opened?from=2026-03-01&to=2026-03-31")
	assert.Equal(t, http.StatusOK, w.Code)

	tablesOpened := data["tables_opened"].([]interface{})
	assert.Len(t, tablesOpened, 2)

	first := tablesOpened[0].(map[string]interface{})
	assert.Equal(t, "2026-03-05", first["day"])
	assert.Equal(t, 2.0, first["count"])

	second := tablesOpened[1].(map[string]interface{})
	assert.Equal(t, "2026-03-06", second["day"])
	assert.Equal(t, 1.0, second["count"])
}
