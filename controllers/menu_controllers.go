package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/supra-app/georgian-menu-backend/models"
	"github.com/supra-app/georgian-menu-backend/utils"
)

type MenuController struct {
	DB *gorm.DB
}

func NewMenuController(db *gorm.DB) *MenuController {
	return &MenuController{DB: db}
}

// GetAllMenuItems -> available items with category and pairing links,
// optionally filtered by category name
func (mc *MenuController) GetAllMenuItems(c *gin.Context) {
	query := mc.DB.Preload("Category").Preload("Pairings").
		Where("is_available = ?", true)

	if category := c.Query("category"); category != "" {
		query = query.Joins("JOIN categories ON categories.id = menu_items.category_id").
			Where("categories.name = ?", category)
	}

	var items []models.MenuItem
	if err := query.Order("category_id, name").Find(&items).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "List of menu items", items)
}

// GetMenuItemByID -> detail of one available item
func (mc *MenuController) GetMenuItemByID(c *gin.Context) {
	itemID := c.Param("item_id")

	var item models.MenuItem
	if err := mc.DB.Preload("Category").Preload("Pairings").
		Where("id = ? AND is_available = ?", itemID, true).
		First(&item).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, ErrMenuItemNotFound)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Menu item detail", item)
}

type menuItemReq struct {
	CategoryID  uint    `json:"category_id" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"min=0"`
	ImageURL    *string `json:"image_url"`
	IsAvailable *bool   `json:"is_available"`
	PairingIDs  []uint  `json:"pairing_ids"`
}

// CreateMenuItem -> admin only
func (mc *MenuController) CreateMenuItem(c *gin.Context) {
	var req menuItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	item := models.MenuItem{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		ImageURL:    req.ImageURL,
		IsAvailable: true,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}

	if err := mc.DB.Create(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	if len(req.PairingIDs) > 0 {
		mc.replacePairings(&item, req.PairingIDs)
	}

	utils.InfoLogger.Printf("Menu item created: %s (price=%.2f)", item.Name, item.Price)
	utils.RespondJSON(c, http.StatusCreated, "Menu item created", item)
}

// UpdateMenuItem -> admin only
func (mc *MenuController) UpdateMenuItem(c *gin.Context) {
	itemID := c.Param("item_id")

	var item models.MenuItem
	if err := mc.DB.First(&item, itemID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, ErrMenuItemNotFound)
		return
	}

	var req menuItemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	item.CategoryID = req.CategoryID
	item.Name = req.Name
	item.Description = req.Description
	item.Price = req.Price
	item.ImageURL = req.ImageURL
	if req.IsAvailable != nil {
		item.IsAvailable = *req.IsAvailable
	}
	item.UpdatedAt = time.Now()

	if err := mc.DB.Save(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	if req.PairingIDs != nil {
		mc.replacePairings(&item, req.PairingIDs)
	}

	utils.RespondJSON(c, http.StatusOK, "Menu item updated", item)
}

// DeleteMenuItem -> admin only
func (mc *MenuController) DeleteMenuItem(c *gin.Context) {
	itemID := c.Param("item_id")

	var item models.MenuItem
	if err := mc.DB.First(&item, itemID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, ErrMenuItemNotFound)
		return
	}

	if err := mc.DB.Delete(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Menu item deleted", gin.H{"id": item.ID})
}

// GetAllCategories -> list menu categories
func (mc *MenuController) GetAllCategories(c *gin.Context) {
	var categories []models.Category
	if err := mc.DB.Order("id").Find(&categories).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of categories", categories)
}

func (mc *MenuController) replacePairings(item *models.MenuItem, ids []uint) {
	var paired []models.MenuItem
	if err := mc.DB.Find(&paired, ids).Error; err != nil {
		return
	}
	if err := mc.DB.Model(item).Association("Pairings").Replace(paired); err != nil {
		utils.ErrorLogger.Printf("Error replacing pairings for item %d: %v", item.ID, err)
	}
}

var ErrMenuItemNotFound = &CustomError{"Menu item not found"}
