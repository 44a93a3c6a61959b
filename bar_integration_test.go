package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/autjsmo/bar-ordini/models"
	"github.com/autjsmo/bar-ordini/router"
	"github.com/autjsmo/bar-ordini/utils"
)

const testStaffSecret = "segreto-di-prova"

func TestMain(m *testing.M) {
	utils.InitLogger()
	os.Setenv("STAFF_PASSWORD", testStaffSecret)
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	err = db.AutoMigrate(
		&models.Table{},
		&models.Session{},
		&models.MenuCategory{},
		&models.MenuItem{},
		&models.Order{},
		&models.OrderItem{},
	)
	if err != nil {
		t.Fatal(err)
	}

	db.Create(&models.Table{Label: "Tavolo 5"})
	db.Create(&models.Table{Label: "Tavolo 6"})
	db.Create(&models.Table{Label: "Tavolo 7"})
	db.Create(&models.Table{Label: "Tavolo 8"})
	db.Create(&models.Table{Label: "Tavolo 9"})
	db.Create(&models.MenuCategory{Name: "Bevande"})
	db.Create(&models.MenuItem{CategoryID: 1, Name: "Tè Verde", PriceEUR: 3.50, Visible: true})
	db.Create(&models.MenuItem{CategoryID: 1, Name: "Segreto dello Chef", PriceEUR: 12.00, Visible: false})
	return db
}

func request(t *testing.T, r *gin.Engine, method, path string, payload interface{}, staff bool) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		raw, err := json.Marshal(payload)
		assert.NoError(t, err)
		body = bytes.NewBuffer(raw)
	} else {
		body = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, body)
	assert.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if staff {
		req.Header.Set("Authorization", "Bearer "+testStaffSecret)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func dataOf(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var resp map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	data, _ := resp["data"].(map[string]interface{})
	return data
}

// TestGuestOrderLifecycle walks the main flow end to end:
// staff opens table 5, the guest verifies the PIN and submits two green
// teas, staff walks the order through the state machine, and the guest's
// history poll reflects each step.
func TestGuestOrderLifecycle(t *testing.T) {
	db := setupTestDB(t)
	r := router.SetupRouter(db)

	// Staff opens the table.
	w := request(t, r, "POST", "/session/open", gin.H{"table_id": 5}, true)
	assert.Equal(t, http.StatusCreated, w.Code)
	pin := dataOf(t, w)["pin"].(string)
	assert.Len(t, pin, 4)

	// Guest verifies the PIN.
	w = request(t, r, "POST", "/session/verify", gin.H{"table_id": 5, "pin": pin}, false)
	assert.Equal(t, http.StatusOK, w.Code)
	token := dataOf(t, w)["token"].(string)

	// Guest submits 2x Tè Verde at 3.50.
	w = request(t, r, "POST", "/orders", gin.H{
		"token": token,
		"items": []gin.H{{"item_id": 1, "name": "Tè Verde", "quantity": 2, "price_eur": 3.50}},
	}, false)
	assert.Equal(t, http.StatusCreated, w.Code)
	orderID := int(dataOf(t, w)["id"].(float64))

	// The order lands in requested with the snapshotted total.
	var order models.Order
	assert.NoError(t, db.Preload("Items").First(&order, orderID).Error)
	assert.Equal(t, models.OrderRequested, order.State)
	assert.InDelta(t, 7.00, order.Total, 0.001)

	// Jumping straight to served is rejected.
	path := fmt.Sprintf("/orders/%d", orderID)
	w = request(t, r, "PATCH", path, gin.H{"state": models.OrderServed}, true)
	assert.Equal(t, http.StatusConflict, w.Code)

	// Accepting works, and the guest sees it on the next poll.
	w = request(t, r, "PATCH", path, gin.H{"state": models.OrderAccepted}, true)
	assert.Equal(t, http.StatusOK, w.Code)

	w = request(t, r, "GET", "/orders/mine?token="+token, nil, false)
	assert.Equal(t, http.StatusOK, w.Code)
	var mine struct {
		Data struct {
			Orders []models.Order `json:"orders"`
		} `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &mine))
	assert.Len(t, mine.Data.Orders, 1)
	assert.Equal(t, models.OrderAccepted, mine.Data.Orders[0].State)

	// Serve it and make sure the rollup picks it up.
	request(t, r, "PATCH", path, gin.H{"state": models.OrderInPreparation}, true)
	w = request(t, r, "PATCH", path, gin.H{"state": models.OrderServed}, true)
	assert.Equal(t, http.StatusOK, w.Code)

	w = request(t, r, "GET", "/stats/summary", nil, true)
	assert.Equal(t, http.StatusOK, w.Code)
	summary := dataOf(t, w)
	assert.InDelta(t, 7.00, summary["revenue_eur"].(float64), 0.001)
	assert.Equal(t, 1.0, summary["served_orders"])
	assert.InDelta(t, 7.00, summary["avg_order_value_eur"].(float64), 0.001)
}

// TestResetLocksOutStaleGuest covers the staff-reset recovery path.
func TestResetLocksOutStaleGuest(t *testing.T) {
	db := setupTestDB(t)
	r := router.SetupRouter(db)

	w := request(t, r, "POST", "/session/open", gin.H{"table_id": 5}, true)
	pin := dataOf(t, w)["pin"].(string)
	w = request(t, r, "POST", "/session/verify", gin.H{"table_id": 5, "pin": pin}, false)
	token := dataOf(t, w)["token"].(string)

	w = request(t, r, "POST", "/session/reset", gin.H{"table_id": 5}, true)
	assert.Equal(t, http.StatusOK, w.Code)
	newPIN := dataOf(t, w)["pin"].(string)

	// The stale token fails; the new PIN recovers.
	w = request(t, r, "POST", "/orders", gin.H{
		"token": token,
		"items": []gin.H{{"item_id": 1, "name": "Tè Verde", "quantity": 1, "price_eur": 3.50}},
	}, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = request(t, r, "POST", "/session/verify", gin.H{"table_id": 5, "pin": newPIN}, false)
	assert.Equal(t, http.StatusOK, w.Code)
	freshToken := dataOf(t, w)["token"].(string)
	assert.NotEqual(t, token, freshToken)
}

// TestStaffAuthRequired checks the 401 contract on the operator surface.
func TestStaffAuthRequired(t *testing.T) {
	db := setupTestDB(t)
	r := router.SetupRouter(db)

	w := request(t, r, "POST", "/session/open", gin.H{"table_id": 5}, false)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req, _ := http.NewRequest("GET", "/orders", nil)
	req.Header.Set("Authorization", "Bearer password-sbagliata")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// TestMenuVisibility: guests only see visible items, staff see all.
func TestMenuVisibility(t *testing.T) {
	db := setupTestDB(t)
	r := router.SetupRouter(db)

	w := request(t, r, "GET", "/menu", nil, false)
	assert.Equal(t, http.StatusOK, w.Code)
	items := dataOf(t, w)["items"].([]interface{})
	assert.Len(t, items, 1)

	w = request(t, r, "GET", "/menu/admin", nil, true)
	assert.Equal(t, http.StatusOK, w.Code)
	items = dataOf(t, w)["items"].([]interface{})
	assert.Len(t, items, 2)
}

// TestGlobalRateLimitKicksIn: the per-IP window actually sits in front of
// every route, not just the PIN verify.
func TestGlobalRateLimitKicksIn(t *testing.T) {
	db := setupTestDB(t)
	r := router.SetupRouter(db)

	limited := false
	for i := 0; i < 60; i++ {
		req, _ := http.NewRequest("GET", "/ping", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		if w.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	assert.True(t, limited)
}
