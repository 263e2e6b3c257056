package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/pos-sync/internal/application/catalog"
	"github.com/jhoicas/pos-sync/internal/application/dashboard"
	"github.com/jhoicas/pos-sync/internal/application/ledger"
	"github.com/jhoicas/pos-sync/internal/application/orders"
	"github.com/jhoicas/pos-sync/internal/application/sales"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger      *ledger.Ledger
	History     *ledger.History
	SalesUC     *sales.UseCase
	OrdersUC    *orders.UseCase
	CatalogUC   *catalog.UseCase
	DashboardUC *dashboard.UseCase
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Products
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.CatalogUC)
	products.Post("/", productHandler.Create)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)

	// Inventory
	invGroup := api.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.Ledger, deps.History)
	invGroup.Post("/adjustments", inventoryHandler.Adjust)
	invGroup.Get("/:productID/history", inventoryHandler.History)

	// Sales
	salesGroup := api.Group("/sales")
	saleHandler := NewSaleHandler(deps.SalesUC)
	salesGroup.Post("/", saleHandler.Create)
	salesGroup.Get("/:id", saleHandler.GetByID)
	salesGroup.Post("/:id/return", saleHandler.Reverse)

	// Purchase orders
	ordersGroup := api.Group("/orders")
	orderHandler := NewOrderHandler(deps.OrdersUC)
	ordersGroup.Post("/", orderHandler.Create)
	ordersGroup.Get("/:id", orderHandler.GetByID)
	ordersGroup.Post("/:id/receive", orderHandler.Receive)

	// Dashboard
	dashboardHandler := NewDashboardHandler(deps.DashboardUC)
	api.Get("/dashboard/summary", dashboardHandler.Summary)
}
