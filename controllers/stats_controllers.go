package controllers

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/autjsmo/bar-ordini/models"
	"github.com/autjsmo/bar-ordini/utils"
)

// StatsController is a pure read-side projection over served-order
// history. Every query recomputes from scratch: orders can arrive in any
// order and cancelled orders must never contribute.
type StatsController struct {
	DB *gorm.DB
}

func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{DB: db}
}

func (sc *StatsController) servedOrders(from, to string) ([]models.Order, error) {
	query := sc.DB.Preload("Items").Where("state = ?", models.OrderServed)

	query, err := applyPeriod(query, from, to)
	if err != nil {
		return nil, err
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// GetTopItems -> per-item quantity and revenue across served orders in
// the period, best sellers first.
func (sc *StatsController) GetTopItems(c *gin.Context) {
	orders, err := sc.servedOrders(c.Query("from"), c.Query("to"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	type itemStat struct {
		ItemName   string  `json:"item_name"`
		Total      int     `json:"total"`
		RevenueEUR float64 `json:"revenue_eur"`
	}

	byName := map[string]*itemStat{}
	for _, order := range orders {
		for _, item := range order.Items {
			stat, ok := byName[item.ItemName]
			if !ok {
				stat = &itemStat{ItemName: item.ItemName}
				byName[item.ItemName] = stat
			}
			stat.Total += item.Quantity
			stat.RevenueEUR += float64(item.Quantity) * item.UnitPriceEUR
		}
	}

	topItems := make([]itemStat, 0, len(byName))
	for _, stat := range byName {
		topItems = append(topItems, *stat)
	}
	sort.Slice(topItems, func(i, j int) bool {
		if topItems[i].Total != topItems[j].Total {
			return topItems[i].Total > topItems[j].Total
		}
		return topItems[i].ItemName < topItems[j].ItemName
	})

	utils.RespondJSON(c, http.StatusOK, "Top items", gin.H{"top_items": topItems})
}

// GetTablesOpened -> sessions opened per day in the period.
func (sc *StatsController) GetTablesOpened(c *gin.Context) {
	query := sc.DB.Model(&models.Session{})

	query, err := applySessionPeriod(query, c.Query("from"), c.Query("to"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var sessions []models.Session
	if err := query.Find(&sessions).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	counts := map[string]int{}
	for _, session := range sessions {
		counts[session.OpenedAt.Format("2006-01-02")]++
	}

	type dayStat struct {
		Day   string `json:"day"`
		Count int    `json:"count"`
	}
	tablesOpened := make([]dayStat, 0, len(counts))
	for day, count := range counts {
		tablesOpened = append(tablesOpened, dayStat{Day: day, Count: count})
	}
	sort.Slice(tablesOpened, func(i, j int) bool {
		return tablesOpened[i].Day < tablesOpened[j].Day
	})

	utils.RespondJSON(c, http.StatusOK, "Tables opened", gin.H{"tables_opened": tablesOpened})
}

// GetSummary -> period KPIs. Average order value is defined as 0 when no
// order was served.
func (sc *StatsController) GetSummary(c *gin.Context) {
	orders, err := sc.servedOrders(c.Query("from"), c.Query("to"))
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var revenue float64
	for _, order := range orders {
		for _, item := range order.Items {
			revenue += float64(item.Quantity) * item.UnitPriceEUR
		}
	}

	avg := 0.0
	if len(orders) > 0 {
		avg = revenue / float64(len(orders))
	}

	utils.RespondJSON(c, http.StatusOK, "Stats summary", gin.H{
		"revenue_eur":         revenue,
		"served_orders":       len(orders),
		"avg_order_value_eur": avg,
	})
}

func applySessionPeriod(query *gorm.DB, from, to string) (*gorm.DB, error) {
	// Same bounds as applyPeriod but over opened_at.
	if from != "" {
		t, err := parseDay(from)
		if err != nil {
			return nil, err
		}
		query = query.Where("opened_at >= ?", t)
	}
	if to != "" {
		t, err := parseDay(to)
		if err != nil {
			return nil, err
		}
		query = query.Where("opened_at < ?", t.AddDate(0, 0, 1))
	}
	return query, nil
}
