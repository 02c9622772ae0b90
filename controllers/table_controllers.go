package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/supra-app/georgian-menu-backend/models"
	"github.com/supra-app/georgian-menu-backend/utils"
)

type TableController struct {
	DB *gorm.DB
}

func NewTableController(db *gorm.DB) *TableController {
	return &TableController{DB: db}
}

// GetAllTables -> active tables with their current session (if any)
func (tc *TableController) GetAllTables(c *gin.Context) {
	var tables []models.Table
	if err := tc.DB.Where("is_active = ?", true).
		Order("table_number").Find(&tables).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	type tableInfo struct {
		models.Table
		HasActiveSession bool    `json:"has_active_session"`
		SessionName      *string `json:"session_name,omitempty"`
		HostName         *string `json:"host_name,omitempty"`
	}

	result := make([]tableInfo, 0, len(tables))
	for _, table := range tables {
		info := tableInfo{Table: table}
		var session models.TableSession
		if err := tc.DB.Where("table_id = ? AND is_active = ?", table.ID, true).
			First(&session).Error; err == nil {
			info.HasActiveSession = true
			info.SessionName = &session.SessionName
			info.HostName = &session.HostName
		}
		result = append(result, info)
	}

	utils.RespondJSON(c, http.StatusOK, "List of tables", result)
}

// ScanTable -> QR-code entry point: resolve the token to table info so the
// client can decide between joining the active session and creating one
func (tc *TableController) ScanTable(c *gin.Context) {
	qrCode := c.Param("qr_code")

	var table models.Table
	if err := tc.DB.Where("qr_code = ? AND is_active = ?", qrCode, true).
		First(&table).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, ErrTableNotFound)
		return
	}

	var session models.TableSession
	sessionErr := tc.DB.Where("table_id = ? AND is_active = ?", table.ID, true).
		First(&session).Error

	data := gin.H{"table": table, "has_active_session": sessionErr == nil}
	if sessionErr == nil {
		data["session"] = session
	}

	utils.RespondJSON(c, http.StatusOK, "Table info", data)
}

// CreateTable -> admin only, generates the opaque QR token
func (tc *TableController) CreateTable(c *gin.Context) {
	restaurantID, _ := c.Get("restaurant_id")

	var req struct {
		TableNumber string `json:"table_number" binding:"required"`
		Capacity    int    `json:"capacity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	capacity := req.Capacity
	if capacity <= 0 {
		capacity = 4
	}

	table := models.Table{
		RestaurantID: restaurantID.(uint),
		TableNumber:  req.TableNumber,
		Capacity:     capacity,
		IsActive:     true,
		QRCode:       fmt.Sprintf("QR-%s", uuid.NewString()),
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	if err := tc.DB.Create(&table).Error; err != nil {
		utils.RespondError(c, http.StatusConflict, err)
		return
	}

	utils.InfoLogger.Printf("Table %s created (qr=%s)", table.TableNumber, table.QRCode)
	utils.RespondJSON(c, http.StatusCreated, "Table created", table)
}

// UpdateTable -> admin only
func (tc *TableController) UpdateTable(c *gin.Context) {
	tableID := c.Param("table_id")

	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, ErrTableNotFound)
		return
	}

	var req struct {
		TableNumber *string `json:"table_number"`
		Capacity    *int    `json:"capacity"`
		IsActive    *bool   `json:"is_active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	if req.TableNumber != nil {
		table.TableNumber = *req.TableNumber
	}
	if req.Capacity != nil {
		table.Capacity = *req.Capacity
	}
	if req.IsActive != nil {
		table.IsActive = *req.IsActive
	}
	table.UpdatedAt = time.Now()

	if err := tc.DB.Save(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Table updated", table)
}

// DeleteTable -> admin only
func (tc *TableController) DeleteTable(c *gin.Context) {
	tableID := c.Param("table_id")

	var table models.Table
	if err := tc.DB.First(&table, tableID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, ErrTableNotFound)
		return
	}

	if err := tc.DB.Delete(&table).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Table deleted", gin.H{"id": table.ID})
}
