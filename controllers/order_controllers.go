package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/supra-app/georgian-menu-backend/models"
	"github.com/supra-app/georgian-menu-backend/realtime"
	"github.com/supra-app/georgian-menu-backend/utils"
)

type OrderController struct {
	DB  *gorm.DB
	Hub *realtime.Hub
}

func NewOrderController(db *gorm.DB, hub *realtime.Hub) *OrderController {
	return &OrderController{DB: db, Hub: hub}
}

// CreateOrder -> one checkout by one session member. The order and its items
// are written in a single transaction; if any line fails validation no order
// is created at all.
func (oc *OrderController) CreateOrder(c *gin.Context) {
	type itemReq struct {
		MenuItemID      uint    `json:"menuItemId"`
		Quantity        int     `json:"quantity"`
		SpecialRequests *string `json:"specialRequests"`
	}
	var req struct {
		SessionID    string    `json:"sessionId" binding:"required"`
		CustomerName string    `json:"customerName" binding:"required"`
		Items        []itemReq `json:"items" binding:"required,min=1"`
		Notes        *string   `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	// Caller must be a current member of an active session.
	var member models.SessionCustomer
	if err := oc.DB.Joins("JOIN table_sessions ON table_sessions.id = session_customers.session_id").
		Where("session_customers.session_id = ? AND session_customers.customer_name = ? AND table_sessions.is_active = ?",
			req.SessionID, req.CustomerName, true).
		First(&member).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, ErrNotInSession)
		return
	}

	now := time.Now()
	var total float64
	items := make([]models.OrderItem, 0, len(req.Items))

	for _, line := range req.Items {
		var menuItem models.MenuItem
		if err := oc.DB.Where("id = ? AND is_available = ?", line.MenuItemID, true).
			First(&menuItem).Error; err != nil {
			utils.RespondError(c, http.StatusBadRequest,
				fmt.Errorf("menu item %d not found or unavailable", line.MenuItemID))
			return
		}

		quantity := line.Quantity
		if quantity <= 0 {
			quantity = 1
		}
		subtotal := menuItem.Price * float64(quantity)
		total += subtotal

		items = append(items, models.OrderItem{
			MenuItemID:      menuItem.ID,
			MenuItem:        menuItem,
			Quantity:        quantity,
			UnitPrice:       menuItem.Price,
			Subtotal:        subtotal,
			SpecialRequests: line.SpecialRequests,
			Status:          models.StatusPending,
			CreatedAt:       now,
			UpdatedAt:       now,
		})
	}

	order := models.Order{
		SessionID:    req.SessionID,
		CustomerName: req.CustomerName,
		TotalAmount:  total,
		Notes:        req.Notes,
		Status:       models.StatusPending,
		OrderItems:   items,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := oc.DB.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&order).Error
	}); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Order #%d placed in session %s by %s (total=%.2f)",
		order.ID, order.SessionID, order.CustomerName, order.TotalAmount)

	// Fire-and-forget: the REST result never depends on fan-out.
	if oc.Hub != nil {
		oc.Hub.BroadcastToRoom(order.SessionID, realtime.EventOrderPlaced, gin.H{
			"order":     order,
			"timestamp": now.UTC().Format(time.RFC3339),
		})
	}

	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// GetSessionOrders -> all orders for a session, newest first
func (oc *OrderController) GetSessionOrders(c *gin.Context) {
	sessionID := c.Param("session_id")

	var session models.TableSession
	if err := oc.DB.First(&session, "id = ?", sessionID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, ErrSessionNotFound)
		return
	}

	var orders []models.Order
	if err := oc.DB.Preload("OrderItems").Preload("OrderItems.MenuItem").
		Where("session_id = ?", sessionID).
		Order("created_at desc").
		Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Session orders", orders)
}

// GetCustomerOrders -> session orders filtered to one customer
func (oc *OrderController) GetCustomerOrders(c *gin.Context) {
	sessionID := c.Param("session_id")
	customerName := c.Param("customer_name")

	var orders []models.Order
	if err := oc.DB.Preload("OrderItems").Preload("OrderItems.MenuItem").
		Where("session_id = ? AND customer_name = ?", sessionID, customerName).
		Order("created_at desc").
		Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Customer orders", orders)
}

// UpdateOrderStatus -> overwrite order status. Any-to-any transitions are
// accepted on purpose so staff can correct mistakes; the kitchen UI is what
// proposes the forward-only walk. On the admin route the lookup is scoped to
// the caller's restaurant.
func (oc *OrderController) UpdateOrderStatus(c *gin.Context) {
	orderID := c.Param("order_id")

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if !models.ValidStatus(req.Status) {
		utils.RespondError(c, http.StatusBadRequest, ErrInvalidStatus)
		return
	}

	query := oc.DB.Model(&models.Order{})
	if restaurantID, ok := c.Get("restaurant_id"); ok {
		query = query.Joins("JOIN table_sessions ON table_sessions.id = orders.session_id").
			Joins("JOIN tables ON tables.id = table_sessions.table_id").
			Where("tables.restaurant_id = ?", restaurantID)
	}

	var order models.Order
	if err := query.Where("orders.id = ?", orderID).First(&order).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, ErrOrderNotFound)
		return
	}

	order.Status = req.Status
	order.UpdatedAt = time.Now()
	if err := oc.DB.Save(&order).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.InfoLogger.Printf("Order #%d status -> %s", order.ID, order.Status)

	if oc.Hub != nil {
		oc.Hub.BroadcastToRoom(order.SessionID, realtime.EventOrderStatusChanged, gin.H{
			"orderId":   order.ID,
			"status":    order.Status,
			"timestamp": order.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}

	utils.RespondJSON(c, http.StatusOK, "Order status updated", gin.H{"status": order.Status})
}

// UpdateOrderItemStatus -> per-item tracking with the same vocabulary,
// independent of the parent order's status (drinks out while food cooks).
func (oc *OrderController) UpdateOrderItemStatus(c *gin.Context) {
	orderID := c.Param("order_id")
	itemID := c.Param("item_id")

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if !models.ValidStatus(req.Status) {
		utils.RespondError(c, http.StatusBadRequest, ErrInvalidStatus)
		return
	}

	var item models.OrderItem
	if err := oc.DB.Where("id = ? AND order_id = ?", itemID, orderID).
		First(&item).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, ErrOrderNotFound)
		return
	}

	item.Status = req.Status
	item.UpdatedAt = time.Now()
	if err := oc.DB.Save(&item).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "Item status updated", item)
}

// GetSessionSummary -> per-customer order counts and totals for bill splitting
func (oc *OrderController) GetSessionSummary(c *gin.Context) {
	sessionID := c.Param("session_id")

	var session models.TableSession
	if err := oc.DB.Preload("Table").First(&session, "id = ?", sessionID).Error; err != nil {
		utils.RespondError(c, http.StatusNotFound, ErrSessionNotFound)
		return
	}

	type customerTotal struct {
		CustomerName string  `json:"customer_name"`
		OrderCount   int64   `json:"order_count"`
		TotalSpent   float64 `json:"total_spent"`
	}
	var perCustomer []customerTotal
	if err := oc.DB.Model(&models.Order{}).
		Select("customer_name, COUNT(id) as order_count, SUM(total_amount) as total_spent").
		Where("session_id = ?", sessionID).
		Group("customer_name").
		Order("customer_name").
		Scan(&perCustomer).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	var overall struct {
		TotalOrders int64   `json:"total_orders"`
		GrandTotal  float64 `json:"grand_total"`
	}
	oc.DB.Model(&models.Order{}).
		Select("COUNT(id) as total_orders, COALESCE(SUM(total_amount), 0) as grand_total").
		Where("session_id = ?", sessionID).
		Scan(&overall)

	utils.RespondJSON(c, http.StatusOK, "Session summary", gin.H{
		"session": gin.H{
			"session_id":   session.ID,
			"session_name": session.SessionName,
			"table_number": session.Table.TableNumber,
		},
		"customer_summary": perCustomer,
		"overall_total":    overall,
	})
}

// GetAllOrders -> admin/kitchen listing with optional status/date filters,
// scoped to the caller's restaurant
func (oc *OrderController) GetAllOrders(c *gin.Context) {
	restaurantID, _ := c.Get("restaurant_id")

	limit := 50
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 {
		limit = l
	}

	query := oc.DB.Preload("OrderItems").Preload("OrderItems.MenuItem").
		Joins("JOIN table_sessions ON table_sessions.id = orders.session_id").
		Joins("JOIN tables ON tables.id = table_sessions.table_id").
		Where("tables.restaurant_id = ?", restaurantID)

	if status := c.Query("status"); status != "" {
		query = query.Where("orders.status = ?", status)
	}
	if date := c.Query("date"); date != "" {
		query = query.Where("DATE(orders.created_at) = ?", date)
	}

	var orders []models.Order
	if err := query.Order("orders.created_at desc").Limit(limit).
		Find(&orders).Error; err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}

	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

var (
	ErrNotInSession  = &CustomError{"Customer not found in active session"}
	ErrOrderNotFound = &CustomError{"Order not found"}
	ErrInvalidStatus = &CustomError{"Invalid status"}
)
