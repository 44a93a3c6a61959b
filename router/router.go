package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/autjsmo/bar-ordini/config"
	"github.com/autjsmo/bar-ordini/controllers"
	"github.com/autjsmo/bar-ordini/middlewares"
)

func SetupRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.NewRateLimiter(50, 1).RateLimit())

	sessionCtrl := controllers.NewSessionController(db)
	orderCtrl := controllers.NewOrderController(db)
	tableCtrl := controllers.NewTableController(db)
	menuCtrl := controllers.NewMenuController(db)
	categoryCtrl := controllers.NewMenuCategoryController(db)
	statsCtrl := controllers.NewStatsController(db)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// ----------------------------------------------------------------
	//                      GUEST ROUTES
	// ----------------------------------------------------------------
	// PIN verification is brute-forceable, so it gets the strict limiter.
	verify := r.Group("/")
	verify.Use(middlewares.NewStrictRateLimiter())
	{
		verify.POST("/session/verify", sessionCtrl.VerifySession)
	}

	r.GET("/menu", menuCtrl.GetMenu)
	r.POST("/orders", orderCtrl.CreateOrder)
	r.GET("/orders/mine", orderCtrl.GetMyOrders)
	r.GET("/tables/:table_id/session", sessionCtrl.GetSessionStatus)

	// ----------------------------------------------------------------
	//                      STAFF ROUTES
	// ----------------------------------------------------------------
	staff := r.Group("/")
	staff.Use(middlewares.StaffAuth(config.StaffPassword()))
	{
		staff.POST("/session/open", sessionCtrl.OpenSession)
		staff.POST("/session/close", sessionCtrl.CloseSession)
		staff.POST("/session/reset", sessionCtrl.ResetSession)

		staff.GET("/tables", tableCtrl.GetAllTables)
		staff.POST("/tables", tableCtrl.CreateTable)
		staff.DELETE("/tables/:table_id", tableCtrl.DeleteTable)

		staff.GET("/orders", orderCtrl.GetOrders)
		staff.PATCH("/orders/:order_id", orderCtrl.UpdateOrderState)

		staff.GET("/menu/admin", menuCtrl.GetAdminMenu)
		staff.POST("/menu/items", menuCtrl.CreateMenuItem)
		staff.PATCH("/menu/items/:item_id", menuCtrl.UpdateMenuItem)
		staff.DELETE("/menu/items/:item_id", menuCtrl.DeleteMenuItem)
		staff.POST("/menu/categories", categoryCtrl.CreateCategory)
		staff.PATCH("/menu/categories/:cat_id", categoryCtrl.UpdateCategory)
		staff.DELETE("/menu/categories/:cat_id", categoryCtrl.DeleteCategory)

		staff.GET("/stats/top-items", statsCtrl.GetTopItems)
		staff.GET("/stats/tables-opened", statsCtrl.GetTablesOpened)
		staff.GET("/stats/summary", statsCtrl.GetSummary)
	}

	return r
}
