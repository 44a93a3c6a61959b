package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/autjsmo/bar-ordini/models"
	"github.com/autjsmo/bar-ordini/utils"
)

type MenuController struct {
	DB *gorm.DB
}

func NewMenuController(db *gorm.DB) *MenuController {
	return &MenuController{DB: db}
}

// GetMenu -> guest menu, visible items only.
func (mc *MenuController) GetMenu(c *gin.Context) {
	var categories []models.MenuCategory
	if err := mc.DB.Order("id").Find(&categories).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var items []models.MenuItem
	if err := mc.DB.Where("visible = ?", true).Order("id").Find(&items).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Menu", gin.H{
		"categories": categories,
		"items":      items,
	})
}

// GetAdminMenu -> staff menu, hidden items included.
func (mc *MenuController) GetAdminMenu(c *gin.Context) {
	var categories []models.MenuCategory
	if err := mc.DB.Order("id").Find(&categories).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var items []models.MenuItem
	if err := mc.DB.Order("id").Find(&items).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Admin menu", gin.H{
		"categories": categories,
		"items":      items,
	})
}

// CreateMenuItem
func (mc *MenuController) CreateMenuItem(c *gin.Context) {
	var body struct {
		CategoryID  uint    `json:"category_id" binding:"required"`
		Name        string  `json:"name" binding:"required"`
		PriceEUR    float64 `json:"price_eur" binding:"required"`
		Description string  `json:"description"`
		Visible     *bool   `json:"visible"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var category models.MenuCategory
	if err := mc.DB.First(&category, body.CategoryID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	item := models.MenuItem{
		CategoryID:  body.CategoryID,
		Name:        body.Name,
		PriceEUR:    body.PriceEUR,
		Description: body.Description,
		Visible:     true,
	}
	if body.Visible != nil {
		item.Visible = *body.Visible
	}

	if err := mc.DB.Create(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Menu item created", item)
}

// UpdateMenuItem
func (mc *MenuController) UpdateMenuItem(c *gin.Context) {
	idStr := c.Param("item_id")
	id, _ := strconv.Atoi(idStr)

	var body struct {
		Name        *string  `json:"name"`
		PriceEUR    *float64 `json:"price_eur"`
		Description *string  `json:"description"`
		Visible     *bool    `json:"visible"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var item models.MenuItem
	if err := mc.DB.First(&item, id).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, err)
		return
	}

	if body.Name != nil {
		item.Name = *body.Name
	}
	if body.PriceEUR != nil {
		item.PriceEUR = *body.PriceEUR
	}
	if body.Description != nil {
		item.Description = *body.Description
	}
	if body.Visible != nil {
		item.Visible = *body.Visible
	}

	if err := mc.DB.Save(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Menu item updated", item)
}

// DeleteMenuItem
func (mc *MenuController) DeleteMenuItem(c *gin.Context) {
	idStr := c.Param("item_id")
	id, _ := strconv.Atoi(idStr)

	if err := mc.DB.Delete(&models.MenuItem{}, id).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Menu item deleted", gin.H{"id": id})
}
