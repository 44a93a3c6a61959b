package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/autjsmo/bar-ordini/models"
	"github.com/autjsmo/bar-ordini/utils"
)

type TableController struct {
	DB *gorm.DB
}

func NewTableController(db *gorm.DB) *TableController {
	return &TableController{DB: db}
}

// tableView is the staff board shape: each table with its active session
// (if any) and whether unresolved orders are waiting.
type tableView struct {
	ID            uint         `json:"id"`
	Label         string       `json:"label"`
	ActiveSession *sessionView `json:"active_session"`
	HasPending    bool         `json:"has_pending"`
}

type sessionView struct {
	PIN      string `json:"pin"`
	OpenedAt int64  `json:"opened_at"`
}

// GetAllTables -> table cards for the staff console.
func (tc *TableController) GetAllTables(c *gin.Context) {
	var tables []models.Table
	if err := tc.DB.Order("id").Find(&tables).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	views := make([]tableView, 0, len(tables))
	for _, table := range tables {
		view := tableView{ID: table.ID, Label: table.Label}

		var session models.Session
		if err := tc.DB.Where("table_id = ? AND active = ?", table.ID, true).
			First(&session).Error; err == nil {
			view.ActiveSession = &sessionView{
				PIN:      session.PIN,
				OpenedAt: session.OpenedAt.UnixMilli(),
			}

			var pending int64
			tc.DB.Model(&models.Order{}).
				Where("session_id = ? AND state = ?", session.ID, models.OrderRequested).
				Count(&pending)
			view.HasPending = pending > 0
		}

		views = append(views, view)
	}

	utils.RespondJSON(c, http.StatusOK, "List of tables", gin.H{"tables": views})
}

// CreateTable -> staff adds a table.
func (tc *TableController) CreateTable(c *gin.Context) {
	var req struct {
		Label string `json:"label" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table := models.Table{Label: req.Label}
	if err := tc.DB.Create(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("New table created: %s (id=%d)", table.Label, table.ID)
	utils.RespondJSON(c, http.StatusCreated, "Table created", table)
}

// DeleteTable -> staff removes a table; refuses while a session is open.
func (tc *TableController) DeleteTable(c *gin.Context) {
	tableID := c.Param("table_id")

	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	var active int64
	tc.DB.Model(&models.Session{}).
		Where("table_id = ? AND active = ?", table.ID, true).
		Count(&active)
	if active > 0 {
		utils.RespondError(c, http.StatusConflict, ErrSessionAlreadyOpen)
		return
	}

	if err := tc.DB.Delete(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Table deleted", gin.H{"id": table.ID})
}
