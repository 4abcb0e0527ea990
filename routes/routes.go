package routes

import (
	"dive_center_rental/app"
	"dive_center_rental/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	// 控制器与依赖
	s := controllers.GetSrv(a)
	basketCtl := controllers.NewBasketController(s)
	equipCtl := controllers.NewBookingEquipmentController(s)
	catalogCtl := controllers.NewCatalogController(s)
	dirCtl := controllers.NewDirectoryController(s)

	r.GET("/healthz", func(c *app.Ctx) { c.JSON(200, app.H{"ok": true}) })

	// ------------------------------
	// 器材篮（一次借出）
	// ------------------------------
	baskets := r.Group("/equipment-baskets")
	{
		baskets.GET("", basketCtl.ListBaskets) // ?q=&status=&customerId=&page=&size=
		baskets.POST("", basketCtl.CreateBasket)
		baskets.GET("/:id", basketCtl.GetBasket)
		baskets.PUT("/:id", basketCtl.UpdateBasket)
		baskets.DELETE("/:id", basketCtl.DeleteBasket)
		baskets.PUT("/:id/checkout", basketCtl.CheckoutBasket)
		baskets.POST("/:id/return", basketCtl.ReturnBasket)
	}

	// ------------------------------
	// 单件器材分配：借出 / 归还 / 丢失
	// ------------------------------
	equipment := r.Group("/booking-equipment")
	{
		equipment.GET("", equipCtl.ListAssignments)
		equipment.POST("", equipCtl.AddAssignment)
		equipment.POST("/check-availability", equipCtl.CheckAvailability)
		equipment.POST("/bulk-return", equipCtl.BulkReturn)
		equipment.GET("/:id", equipCtl.GetAssignment)
		equipment.PUT("/:id", equipCtl.UpdateAssignment)
		equipment.DELETE("/:id", equipCtl.DeleteAssignment)
		equipment.PUT("/:id/checkout", equipCtl.CheckoutAssignment)
		equipment.PUT("/:id/return", equipCtl.ReturnAssignment)
		equipment.PUT("/:id/lost", equipCtl.MarkLost)
	}

	// 目录
	r.GET("/equipment", catalogCtl.ListTypes)
	r.POST("/equipment", catalogCtl.CreateType)
	items := r.Group("/equipment-items")
	{
		items.GET("", catalogCtl.ListItems)
		items.POST("", catalogCtl.CreateItem)
		items.GET("/:id", catalogCtl.GetItem)
		items.PUT("/:id", catalogCtl.UpdateItem)
	}

	r.POST("/customers", dirCtl.CreateCustomer)
	r.GET("/customers/:id", dirCtl.GetCustomer)
	r.POST("/bookings", dirCtl.CreateBooking)
	r.GET("/bookings/:id", dirCtl.GetBooking)
}
