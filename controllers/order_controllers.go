package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/autjsmo/bar-ordini/config"
	"github.com/autjsmo/bar-ordini/models"
	"github.com/autjsmo/bar-ordini/utils"
)

const maxItemQuantity = 10

type OrderController struct {
	DB *gorm.DB
}

func NewOrderController(db *gorm.DB) *OrderController {
	return &OrderController{DB: db}
}

// sessionForToken resolves a guest token to its active session. A token
// minted before the last close/reset carries a stale session UID and is
// rejected here, which is what forces the guest client back to PIN entry.
func (oc *OrderController) sessionForToken(token string) (*models.Session, error) {
	claims, err := utils.ParseSessionToken(token)
	if err != nil {
		return nil, ErrStaleToken
	}

	var session models.Session
	if err := oc.DB.Where("table_id = ? AND active = ?", claims.TableID, true).
		First(&session).Error; err != nil {
		return nil, ErrStaleToken
	}

	if session.SessionUID != claims.SessionUID {
		return nil, ErrStaleToken
	}

	return &session, nil
}

// CreateOrder -> guest submission. Prices come from the request snapshot,
// never from the live menu. The order is immutable after this except for
// its state.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var body struct {
		Token string `json:"token" binding:"required"`
		Items []struct {
			ItemID   uint    `json:"item_id"`
			Name     string  `json:"name"`
			Quantity int     `json:"quantity"`
			PriceEUR float64 `json:"price_eur"`
		} `json:"items"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	session, err := oc.sessionForToken(body.Token)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		return
	}

	if len(body.Items) == 0 {
		utils.RespondError(c, http.StatusBadRequest, ErrEmptyOrder)
		return
	}

	var total float64
	for _, item := range body.Items {
		if item.Quantity < 1 || item.Quantity > maxItemQuantity {
			utils.RespondError(c, http.StatusUnprocessableEntity, ErrQuantityLimit)
			return
		}
		total += float64(item.Quantity) * item.PriceEUR
	}
	if total > config.OrderTotalCeiling() {
		utils.RespondError(c, http.StatusUnprocessableEntity, ErrTotalLimit)
		return
	}

	order := models.Order{
		TableID:   session.TableID,
		SessionID: session.ID,
		State:     models.OrderRequested,
		Total:     total,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	// Order and lines land together or not at all; a half-written order
	// must never become visible to the board or the rollup.
	err = oc.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		for _, item := range body.Items {
			orderItem := models.OrderItem{
				OrderID:      order.ID,
				MenuItemID:   item.ItemID,
				ItemName:     item.Name,
				Quantity:     item.Quantity,
				UnitPriceEUR: item.PriceEUR,
			}
			if err := tx.Create(&orderItem).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Order %d created for table %d (total %.2f)", order.ID, order.TableID, total)
	utils.RespondJSON(c, http.StatusCreated, "Order created", gin.H{"id": order.ID})
}

// UpdateOrderState -> staff drives the state machine. Guests never call
// this; the route sits behind staff auth.
func (oc *OrderController) UpdateOrderState(c *gin.Context) {
	orderID := c.Param("order_id")

	var body struct {
		State string `json:"state" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if !models.IsOrderState(body.State) {
		utils.RespondError(c, http.StatusBadRequest, ErrUnknownState)
		return
	}

	var order models.Order
	if err := oc.DB.First(&order, orderID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if !order.CanTransitionTo(body.State) {
		utils.RespondError(c, http.StatusConflict, ErrInvalidTransition)
		return
	}

	order.State = body.State
	order.UpdatedAt = time.Now()
	if err := oc.DB.Save(&order).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Order %d -> %s", order.ID, order.State)
	utils.RespondJSON(c, http.StatusOK, "Order state updated", order)
}

// GetOrders -> staff board query, filterable by table, state and period.
func (oc *OrderController) GetOrders(c *gin.Context) {
	query := oc.DB.Preload("Items").Order("created_at DESC")

	if tableID := c.Query("table_id"); tableID != "" {
		query = query.Where("table_id = ?", tableID)
	}
	if state := c.Query("state"); state != "" {
		query = query.Where("state = ?", state)
	}
	var err error
	if query, err = applyPeriod(query, c.Query("from"), c.Query("to")); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "List of orders", gin.H{"orders": orders})
}

// GetMyOrders -> the guest's own history, scoped by token to one session,
// newest first.
func (oc *OrderController) GetMyOrders(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		utils.RespondError(c, http.StatusUnauthorized, ErrStaleToken)
		return
	}

	session, err := oc.sessionForToken(token)
	if err != nil {
		utils.RespondError(c, http.StatusUnauthorized, err)
		return
	}

	var orders []models.Order
	if err := oc.DB.Preload("Items").
		Where("session_id = ?", session.ID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "My orders", gin.H{"orders": orders})
}

// applyPeriod narrows a query to [from, to] using YYYY-MM-DD bounds; the
// upper bound is inclusive of the whole day.
func applyPeriod(query *gorm.DB, from, to string) (*gorm.DB, error) {
	if from != "" {
		t, err := parseDay(from)
		if err != nil {
			return nil, err
		}
		query = query.Where("created_at >= ?", t)
	}
	if to != "" {
		t, err := parseDay(to)
		if err != nil {
			return nil, err
		}
		query = query.Where("created_at < ?", t.AddDate(0, 0, 1))
	}
	return query, nil
}

func parseDay(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
