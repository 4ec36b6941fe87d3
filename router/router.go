package router

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/annapurna-pos/backend/controllers"
	"github.com/annapurna-pos/backend/middlewares"
	"github.com/annapurna-pos/backend/services"
)

// SetupRouter wires the fulfillment core behind its HTTP surface.
func SetupRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.CORSMiddleware())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.NewRateLimiter(50, 100).RateLimit())

	invoiceSvc := services.NewInvoiceService(db, services.LogRenderer{})
	stockLedger := services.NewStockLedger(db)
	creditLedger := services.NewCreditLedger(db)
	orderSvc := services.NewOrderService(db, invoiceSvc, stockLedger, creditLedger, services.LogTicketPrinter{})

	orderCtrl := controllers.NewOrderController(db, orderSvc)
	invoiceCtrl := controllers.NewInvoiceController(db, invoiceSvc)
	creditCtrl := controllers.NewCreditController(db, creditLedger)
	ingredientCtrl := controllers.NewIngredientController(db, stockLedger)

	orders := r.Group("/orders")
	{
		orders.GET("", orderCtrl.GetAllOrders)
		orders.GET("/:order_id", orderCtrl.GetOrderByID)
		orders.POST("/:order_id/start", orderCtrl.StartOrder)
		orders.POST("/:order_id/cancel", orderCtrl.CancelOrder)
		orders.POST("/:order_id/complete", orderCtrl.CompleteOrder)
		orders.PUT("/:order_id/items", orderCtrl.EditOrderItems)
		orders.POST("/:order_id/invoice", invoiceCtrl.GenerateInvoice)
		orders.POST("/:order_id/invoice/regenerate", invoiceCtrl.RegenerateInvoice)
	}

	invoices := r.Group("/invoices")
	{
		invoices.GET("", invoiceCtrl.GetAllInvoices)
		invoices.GET("/:invoice_id", invoiceCtrl.GetInvoiceByID)
		invoices.POST("/:invoice_id/void", invoiceCtrl.VoidInvoice)
	}

	credit := r.Group("/credit-customers")
	{
		credit.GET("", creditCtrl.GetAllCustomers)
		credit.GET("/:customer_id/transactions", creditCtrl.GetCustomerTransactions)
		credit.POST("/:customer_id/payments", creditCtrl.RecordPayment)
		credit.GET("/:customer_id/reconcile", creditCtrl.ReconcileCustomer)
	}

	r.GET("/ingredients/low-stock", ingredientCtrl.GetLowStock)

	return r
}
