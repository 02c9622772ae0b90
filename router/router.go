package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/supra-app/georgian-menu-backend/controllers"
	"github.com/supra-app/georgian-menu-backend/middlewares"
	"github.com/supra-app/georgian-menu-backend/realtime"
)

func SetupRouter(db *gorm.DB, hub *realtime.Hub) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	userCtrl := controllers.NewUserController(db)
	tableCtrl := controllers.NewTableController(db)
	sessionCtrl := controllers.NewSessionController(db)
	menuCtrl := controllers.NewMenuController(db)
	orderCtrl := controllers.NewOrderController(db, hub)
	adminCtrl := controllers.NewAdminController(db)
	wsCtrl := controllers.NewWSController(hub)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES (customers)
	// ----------------------------------------------------------------

	// Realtime fan-out (no auth: customers have no accounts)
	r.GET("/ws", wsCtrl.Handle)

	// Table sessions
	r.POST("/sessions", sessionCtrl.CreateSession)
	r.POST("/sessions/:session_id/join", sessionCtrl.JoinSession)
	r.GET("/sessions/:session_id", sessionCtrl.GetSessionDetails)
	r.POST("/sessions/:session_id/end", sessionCtrl.EndSession)

	// QR entry flow
	r.GET("/tables", tableCtrl.GetAllTables)
	r.GET("/tables/qr/:qr_code", tableCtrl.ScanTable)
	r.GET("/tables/:table_id/active-session", sessionCtrl.GetActiveSession)

	// Menu browsing
	r.GET("/menu/items", menuCtrl.GetAllMenuItems)
	r.GET("/menu/items/:item_id", menuCtrl.GetMenuItemByID)
	r.GET("/menu/categories", menuCtrl.GetAllCategories)

	// Ordering
	r.POST("/orders", orderCtrl.CreateOrder)
	r.GET("/orders/session/:session_id", orderCtrl.GetSessionOrders)
	r.GET("/orders/session/:session_id/customer/:customer_name", orderCtrl.GetCustomerOrders)
	r.GET("/orders/session/:session_id/summary", orderCtrl.GetSessionSummary)
	r.PATCH("/orders/:order_id/status", orderCtrl.UpdateOrderStatus)

	// Staff auth
	r.POST("/auth/register", userCtrl.Register)
	r.POST("/auth/login", userCtrl.Login)

	// ----------------------------------------------------------------
	//                      STAFF ROUTES (admin/kitchen)
	// ----------------------------------------------------------------
	admin := r.Group("/admin")
	admin.Use(middlewares.AuthMiddleware())

	admin.GET("/dashboard/stats", adminCtrl.GetDashboardStats)

	// Kitchen status board
	admin.GET("/orders", orderCtrl.GetAllOrders)
	admin.PATCH("/orders/:order_id/status", orderCtrl.UpdateOrderStatus)
	admin.PATCH("/orders/:order_id/items/:item_id/status", orderCtrl.UpdateOrderItemStatus)

	// Menu management
	admin.POST("/menu", middlewares.RequireRole("admin"), menuCtrl.CreateMenuItem)
	admin.PUT("/menu/:item_id", middlewares.RequireRole("admin"), menuCtrl.UpdateMenuItem)
	admin.DELETE("/menu/:item_id", middlewares.RequireRole("admin"), menuCtrl.DeleteMenuItem)

	// Table management
	admin.POST("/tables", middlewares.RequireRole("admin"), tableCtrl.CreateTable)
	admin.PUT("/tables/:table_id", middlewares.RequireRole("admin"), tableCtrl.UpdateTable)
	admin.DELETE("/tables/:table_id", middlewares.RequireRole("admin"), tableCtrl.DeleteTable)

	return r
}
