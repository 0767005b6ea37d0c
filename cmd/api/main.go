package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/retail-ledger-api/internal/application/importer"
	"github.com/jhoicas/retail-ledger-api/internal/application/ports"
	"github.com/jhoicas/retail-ledger-api/internal/application/query"
	"github.com/jhoicas/retail-ledger-api/internal/application/report"
	"github.com/jhoicas/retail-ledger-api/internal/application/transaction"
	"github.com/jhoicas/retail-ledger-api/internal/application/usecase"
	"github.com/jhoicas/retail-ledger-api/internal/domain/repository"
	infraai "github.com/jhoicas/retail-ledger-api/internal/infrastructure/ai"
	infrakafka "github.com/jhoicas/retail-ledger-api/internal/infrastructure/kafka"
	"github.com/jhoicas/retail-ledger-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/retail-ledger-api/internal/infrastructure/pdf"
	"github.com/jhoicas/retail-ledger-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/retail-ledger-api/internal/interfaces/http"
	"github.com/jhoicas/retail-ledger-api/pkg/config"
	"github.com/jhoicas/retail-ledger-api/pkg/logger"
	"github.com/jhoicas/retail-ledger-api/pkg/telemetry"
)

const swaggerFile = "./docs/swagger.json"

// storage agrupa el TxRunner y los repositorios de lectura del almacén elegido.
type storage struct {
	tx        repository.TxRunner
	products  repository.ProductRepository
	movements repository.StockMovementRepository
	sales     repository.SaleRepository
	customers repository.CustomerRepository
	close     func()
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.Storage.Driver != "postgres" {
		store := memory.NewStore()
		log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
		return &storage{
			tx:        store,
			products:  store.Products(),
			movements: store.Movements(),
			sales:     store.Sales(),
			customers: store.Customers(),
			close:     func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := postgres.EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return newPostgresStorage(pool), nil
}

func newPostgresStorage(pool *pgxpool.Pool) *storage {
	return &storage{
		tx:        postgres.NewTxRunner(pool),
		products:  postgres.NewProductRepository(pool),
		movements: postgres.NewMovementRepository(pool),
		sales:     postgres.NewSaleRepository(pool),
		customers: postgres.NewCustomerRepository(pool),
		close:     pool.Close,
	}
}

// newExtractor devuelve el adaptador de IA configurado; nil deshabilita la importación.
func newExtractor(cfg config.AIConfig) ports.DocumentExtractor {
	switch cfg.Provider {
	case "anthropic":
		return infraai.NewAnthropicService(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	case "gemini":
		return infraai.NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiModel)
	default:
		return nil
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	shutdownTracing, err := telemetry.SetupTracing(ctx, cfg.App.Name, cfg.Otel)
	if err != nil {
		log.Fatal().Err(err).Msg("configurar OpenTelemetry")
	}

	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacén")
	}
	defer store.close()

	var events ports.EventPublisher
	if cfg.Kafka.Enabled() {
		publisher := infrakafka.NewMovementPublisher(cfg.Kafka)
		defer publisher.Close()
		events = publisher
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.MovementsTopic).Msg("publicación de kardex en Kafka")
	}

	clock := ports.SystemClock{}
	ids := ports.UUIDGenerator{}
	taxRate := cfg.Sales.TaxRate
	engine := transaction.NewEngine(store.tx, clock, ids, events, log, transaction.Config{TaxRate: &taxRate})
	queries := query.NewUseCase(store.products, store.movements, store.sales)

	extractor := newExtractor(cfg.AI)
	if extractor == nil {
		log.Info().Msg("importación de facturas deshabilitada (AI_PROVIDER vacío)")
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    importer.MaxDocumentSize + 2<<20,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Retail Ledger API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		ProductUC:   usecase.NewProductUseCase(store.tx, store.products, queries, clock, ids),
		InventoryUC: usecase.NewInventoryUseCase(engine, queries),
		SaleUC:      usecase.NewSaleUseCase(engine, store.sales, queries, infrapdf.NewReceiptGenerator(cfg.App.Name)),
		CustomerUC:  usecase.NewCustomerUseCase(store.customers, clock, ids),
		ReportUC:    report.NewUseCase(store.products, store.sales, clock),
		ImportUC:    importer.NewUseCase(extractor, store.products, engine),
		JWTSecret:   cfg.JWT.Secret,
		Logger:      log,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado de OpenTelemetry")
	}

	log.Info().Msg("aplicación detenida")
}
