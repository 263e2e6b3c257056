package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/pos-sync/internal/application/catalog"
	"github.com/jhoicas/pos-sync/internal/application/dashboard"
	"github.com/jhoicas/pos-sync/internal/application/ledger"
	"github.com/jhoicas/pos-sync/internal/application/orders"
	"github.com/jhoicas/pos-sync/internal/application/sales"
	"github.com/jhoicas/pos-sync/internal/infrastructure/postgres"
	"github.com/jhoicas/pos-sync/internal/infrastructure/redisfeed"
	httpRouter "github.com/jhoicas/pos-sync/internal/interfaces/http"
	"github.com/jhoicas/pos-sync/internal/realtime"
	"github.com/jhoicas/pos-sync/pkg/config"
	"github.com/jhoicas/pos-sync/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: "info",
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	productRepo := postgres.NewProductRepository(pool)
	recordRepo := postgres.NewInventoryRecordRepository(pool)
	historyRepo := postgres.NewInventoryHistoryRepository(pool)
	saleRepo := postgres.NewSaleRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	stockLedger := ledger.New(txRunner, log, cfg.Ledger.MaxRetries)
	history := ledger.NewHistory(historyRepo)
	salesUC := sales.New(txRunner, stockLedger, saleRepo, productRepo, log)
	ordersUC := orders.New(txRunner, stockLedger, orderRepo, productRepo, log)
	catalogUC := catalog.New(productRepo, recordRepo, stockLedger)

	realtimeCfg := realtime.Config{
		ConnectTimeout: cfg.Realtime.ConnectTimeout,
		BackoffBase:    cfg.Realtime.BackoffBase,
		BackoffCap:     cfg.Realtime.BackoffCap,
		MaxRetries:     cfg.Realtime.MaxRetries,
	}
	pgFeed := postgres.NewListenFeed(pool)

	// El feed de los consumidores puede ser LISTEN/NOTIFY directo o Redis.
	// Con Redis, un puente sobre el feed de PostgreSQL reexpide los cambios.
	var manager *realtime.Manager
	var bridge *redisfeed.Bridge
	var redisClient *redis.Client
	switch cfg.Realtime.Backend {
	case "redis":
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pgManager := realtime.NewManager(pgFeed, realtimeCfg, log)
		bridge = redisfeed.NewBridge(redisClient, cfg.Redis.ChannelPrefix, pgManager, log)
		bridge.Start(ctx, ledger.TableInventoryRecords, ledger.TableProducts)
		manager = realtime.NewManager(redisfeed.New(redisClient, cfg.Redis.ChannelPrefix), realtimeCfg, log)
		defer pgManager.Close()
	default:
		manager = realtime.NewManager(pgFeed, realtimeCfg, log)
	}

	dashboardUC := dashboard.New(productRepo, manager, log, cfg.Ledger.LowStockLimit, time.Minute)
	dashboardUC.Start(ctx)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:      stockLedger,
		History:     history,
		SalesUC:     salesUC,
		OrdersUC:    ordersUC,
		CatalogUC:   catalogUC,
		DashboardUC: dashboardUC,
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

	dashboardUC.Stop()
	if bridge != nil {
		bridge.Stop()
	}
	manager.Close()
	if redisClient != nil {
		_ = redisClient.Close()
	}

	log.Info().Msg("aplicación detenida")
}
