package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/retail-ledger-api/internal/application/importer"
	"github.com/jhoicas/retail-ledger-api/internal/application/report"
	"github.com/jhoicas/retail-ledger-api/internal/application/usecase"
	"github.com/jhoicas/retail-ledger-api/pkg/jwt"
	"github.com/jhoicas/retail-ledger-api/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ProductUC   *usecase.ProductUseCase
	InventoryUC *usecase.InventoryUseCase
	SaleUC      *usecase.SaleUseCase
	CustomerUC  *usecase.CustomerUseCase
	ReportUC    *report.UseCase
	ImportUC    *importer.UseCase
	JWTSecret   string
	Logger      *logger.Logger
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	log := deps.Logger
	if log == nil {
		log = logger.Nop()
	}
	api := app.Group("/api", Tracing(), RequestLogger(log))

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Rutas protegidas (requieren Bearer Token)
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret))

	admin := RequireRole(jwt.RoleAdmin)
	stock := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero)
	sales := RequireRole(jwt.RoleAdmin, jwt.RoleVendedor)

	// Products
	products := protected.Group("/products")
	productHandler := NewProductHandler(deps.ProductUC)
	products.Get("/", productHandler.List)
	products.Get("/:id", productHandler.GetByID)
	products.Get("/:id/movements", productHandler.Movements)
	products.Get("/:id/ledger/verify", productHandler.VerifyLedger)
	products.Post("/", stock, productHandler.Create)
	products.Put("/:id", stock, productHandler.Update)
	products.Delete("/:id", admin, productHandler.Delete)

	// Inventory (kardex)
	inv := protected.Group("/inventory")
	inventoryHandler := NewInventoryHandler(deps.InventoryUC)
	inv.Get("/movements", inventoryHandler.Movements)
	inv.Post("/restock", stock, inventoryHandler.Restock)
	inv.Post("/adjust", stock, inventoryHandler.Adjust)

	// Sales
	salesGroup := protected.Group("/sales")
	saleHandler := NewSaleHandler(deps.SaleUC)
	salesGroup.Get("/", saleHandler.List)
	salesGroup.Get("/:id", saleHandler.GetByID)
	salesGroup.Get("/:id/receipt", saleHandler.Receipt)
	salesGroup.Post("/", sales, saleHandler.Create)
	salesGroup.Post("/:id/returns", sales, saleHandler.Return)

	// Customers
	customers := protected.Group("/customers")
	customerHandler := NewCustomerHandler(deps.CustomerUC)
	customers.Get("/", customerHandler.List)
	customers.Get("/:id", customerHandler.GetByID)
	customers.Post("/", sales, customerHandler.Create)
	customers.Put("/:id", sales, customerHandler.Update)

	// Reports
	reports := protected.Group("/reports")
	reportHandler := NewReportHandler(deps.ReportUC)
	reports.Get("/low-stock", reportHandler.LowStock)
	reports.Get("/valuation", reportHandler.Valuation)
	reports.Get("/sales-summary", reportHandler.SalesSummary)

	// Import de facturas de proveedor
	if deps.ImportUC != nil {
		imp := protected.Group("/import", stock)
		importHandler := NewImportHandler(deps.ImportUC)
		imp.Post("/preview", importHandler.Preview)
		imp.Post("/apply", importHandler.Apply)
	}
}
