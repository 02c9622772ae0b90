package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/supra-app/georgian-menu-backend/models"
	"github.com/supra-app/georgian-menu-backend/utils"
)

type AdminController struct {
	DB *gorm.DB
}

func NewAdminController(db *gorm.DB) *AdminController {
	return &AdminController{DB: db}
}

// GetDashboardStats -> counters for the admin dashboard, scoped to the
// caller's restaurant
func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	restaurantID, _ := c.Get("restaurant_id")
	today := time.Now().Format("2006-01-02")

	var stats struct {
		TodayOrders    int64   `json:"today_orders"`
		TodayRevenue   float64 `json:"today_revenue"`
		ActiveSessions int64   `json:"active_sessions"`
		TotalTables    int64   `json:"total_tables"`
	}

	ac.DB.Model(&models.Order{}).
		Joins("JOIN table_sessions ON table_sessions.id = orders.session_id").
		Joins("JOIN tables ON tables.id = table_sessions.table_id").
		Where("tables.restaurant_id = ? AND DATE(orders.created_at) = ?", restaurantID, today).
		Count(&stats.TodayOrders)

	ac.DB.Model(&models.Order{}).
		Joins("JOIN table_sessions ON table_sessions.id = orders.session_id").
		Joins("JOIN tables ON tables.id = table_sessions.table_id").
		Where("tables.restaurant_id = ? AND DATE(orders.created_at) = ?", restaurantID, today).
		Select("COALESCE(SUM(orders.total_amount), 0)").
		Row().Scan(&stats.TodayRevenue)

	ac.DB.Model(&models.TableSession{}).
		Joins("JOIN tables ON tables.id = table_sessions.table_id").
		Where("tables.restaurant_id = ? AND table_sessions.is_active = ?", restaurantID, true).
		Count(&stats.ActiveSessions)

	ac.DB.Model(&models.Table{}).
		Where("restaurant_id = ? AND is_active = ?", restaurantID, true).
		Count(&stats.TotalTables)

	utils.RespondJSON(c, http.StatusOK, "Dashboard stats", stats)
}
