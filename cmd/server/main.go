package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"japoke-backend/internal/apperr"
	"japoke-backend/internal/auth"
	"japoke-backend/internal/catalog"
	"japoke-backend/internal/composer"
	"japoke-backend/internal/config"
	"japoke-backend/internal/dashboard"
	"japoke-backend/internal/database"
	"japoke-backend/internal/inventory"
	"japoke-backend/internal/lock"
	"japoke-backend/internal/logging"
	"japoke-backend/internal/metrics"
	"japoke-backend/internal/notify"
	"japoke-backend/internal/orders"
	"japoke-backend/internal/purchases"
	"japoke-backend/internal/rates"
	"japoke-backend/internal/settings"
	"japoke-backend/internal/wallet"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

const (
	redisAttempts   = 5
	amqpAttempts    = 3
	shutdownGrace   = 10 * time.Second
	rateHTTPTimeout = 10 * time.Second
)

func main() {
	cfg := config.Load()
	logger := logging.New(cfg.LogLevel)
	log := logging.Module(logger, "server")

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logging.LogWarn(log, "main", "unknown timezone, using UTC", cfg.Timezone, err)
		loc = time.UTC
	}

	db, err := database.Init(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal(err)
	}
	log.Info("database connected and migrated")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var locker lock.Locker = lock.NewLocal()
	if cfg.RedisAddress != "" {
		rdb, err := lock.ConnectRedisWithRetry(ctx, cfg.RedisAddress, cfg.RedisPassword, redisAttempts, logging.Module(logger, "lock"))
		if err != nil {
			log.Fatal(err)
		}
		defer rdb.Close()
		locker = lock.NewRedis(rdb)
		log.WithField("addr", cfg.RedisAddress).Info("using redis locks")
	}

	metrics.InitMetrics()

	// Exchange rates
	rateService := rates.NewService(
		rates.NewDolarAPISource(cfg.RatesBaseURL, rateHTTPTimeout),
		rates.NewGormRepository(db),
		rates.NewCache(cfg.RatesCacheTTL),
		logging.Module(logger, "rates"),
	)
	scheduler := rates.NewScheduler(rateService, cfg.RatesRefresh, loc, logging.Module(logger, "rates"))
	if err := scheduler.Start(); err != nil {
		log.Fatal(err)
	}
	defer scheduler.Stop()

	// Notifications
	whatsapp := notify.NewWhatsApp(cfg.WhatsApp, notify.NewToggle(), notify.NewGormLogStore(db), cfg.NotifyTimeout, loc, logging.Module(logger, "whatsapp"))
	notifiers := notify.Multi{whatsapp}
	if cfg.RabbitMQURL != "" {
		publisher, err := notify.NewPublisher(cfg.RabbitMQURL, amqpAttempts, logging.Module(logger, "publisher"))
		if err != nil {
			logging.LogError(log, "main", "status publisher disabled", nil, err)
		} else {
			defer publisher.Close()
			notifiers = append(notifiers, publisher)
		}
	}
	dispatcher := notify.NewDispatcher(notifiers, cfg.NotifyTimeout, logging.Module(logger, "notify"))

	settingsService := settings.NewService(db)
	catalogStore := catalog.NewStore(db)
	ledger := inventory.NewLedger(inventory.NewGormStore(db), locker, rateService, logging.Module(logger, "inventory"))
	orderService := orders.NewService(orders.Deps{
		Store:      orders.NewGormStore(db),
		Settings:   settingsService,
		Composer:   composer.New(catalogStore),
		Rates:      rateService,
		Stock:      ledger,
		Dispatcher: dispatcher,
		Log:        logging.Module(logger, "orders"),
	})
	walletService := wallet.NewService(wallet.NewGormStore(db), locker, rateService, logging.Module(logger, "wallet"))
	purchaseService := purchases.NewService(purchases.NewGormStore(db), ledger, logging.Module(logger, "purchases"))
	dashboardService := dashboard.NewService(dashboard.NewGormStore(db), ledger, loc)
	authService := auth.NewService(auth.NewGormUserStore(db), cfg.JWTSecret)

	app := fiber.New(fiber.Config{
		ErrorHandler: errorHandler(logging.Module(logger, "http")),
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	}))
	app.Use(metrics.PrometheusMiddleware())

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api")

	// Public
	api.Post("/auth/register", auth.RegisterHandler(authService))
	api.Post("/auth/login", auth.LoginHandler(authService))

	api.Get("/catalog", catalog.GetCatalogHandler(catalogStore))
	api.Get("/catalog/poke-types", catalog.ListPokeTypesHandler(catalogStore))
	api.Get("/catalog/categories", catalog.ListCategoriesHandler(catalogStore))
	api.Get("/rates/latest", rates.LatestHandler(rateService))
	api.Get("/settings/store-status", settings.StoreStatusHandler(settingsService))

	api.Post("/orders", orders.CreateOrderHandler(orderService))
	api.Get("/orders/:id", orders.GetOrderHandler(orderService))

	// Admin
	admin := api.Group("/admin")
	admin.Use(auth.JWTMiddleware(cfg.JWTSecret))

	admin.Get("/me", auth.MeHandler())

	// Catálogo
	admin.Patch("/items/:id/availability", catalog.SetItemAvailabilityHandler(catalogStore))
	admin.Post("/categories", catalog.CreateCategoryHandler(catalogStore))
	admin.Post("/items", catalog.CreateItemHandler(catalogStore))
	admin.Post("/poke-types", catalog.CreatePokeTypeHandler(catalogStore))
	admin.Post("/supplies", catalog.CreateSupplyHandler(catalogStore))
	admin.Get("/supplies", catalog.ListSuppliesHandler(catalogStore))

	// Tasas y tienda
	admin.Get("/rates/history", rates.HistoryHandler(rateService, loc))
	admin.Post("/rates/refresh", rates.RefreshHandler(rateService))
	admin.Put("/settings/store-status", settings.SetStoreStatusHandler(settingsService))

	// Pedidos
	admin.Get("/orders", orders.ListOrdersHandler(orderService, loc))
	admin.Patch("/orders/:id/status", orders.UpdateStatusHandler(orderService))
	admin.Patch("/orders/:id/payment", orders.UpdatePaymentStatusHandler(orderService))
	admin.Post("/orders/:id/split-payment", orders.AddSplitPaymentHandler(orderService))
	admin.Patch("/orders/:id/split-payment", orders.UpdateSplitPaymentStatusHandler(orderService))
	admin.Delete("/orders/:id", orders.DeleteOrderHandler(orderService))

	// Inventario
	admin.Get("/inventory", inventory.StatusHandler(ledger))
	admin.Get("/inventory/alerts", inventory.AlertsHandler(ledger))
	admin.Get("/inventory/movements", inventory.MovementsHandler(ledger))
	admin.Post("/inventory/purchase", inventory.RecordPurchaseHandler(ledger))
	admin.Post("/inventory/adjustment", inventory.AdjustStockHandler(ledger))
	admin.Post("/inventory/stock-count", inventory.ImportStockCountHandler(ledger))

	// Compras a proveedores
	admin.Post("/purchases", purchases.CreateHandler(purchaseService, loc))
	admin.Get("/purchases", purchases.ListHandler(purchaseService, loc))
	admin.Get("/purchases/:id", purchases.GetHandler(purchaseService))
	admin.Delete("/purchases/:id", purchases.DeleteHandler(purchaseService))

	// Protección de bolívares y billeteras
	admin.Get("/protection/summary", wallet.SummaryHandler(walletService))
	admin.Post("/protection", wallet.CreateProtectionHandler(walletService))
	admin.Get("/protection/history", wallet.ProtectionHistoryHandler(walletService))
	admin.Post("/wallet/transactions", wallet.CreateTransactionHandler(walletService, loc))
	admin.Get("/wallet/transactions", wallet.TransactionHistoryHandler(walletService))

	// WhatsApp
	admin.Get("/whatsapp/status", notify.StatusHandler(whatsapp))
	admin.Patch("/whatsapp/toggle", notify.ToggleHandler(whatsapp))

	// Dashboard
	admin.Get("/dashboard/summary", dashboard.SummaryHandler(dashboardService))
	admin.Get("/dashboard/sales", dashboard.SalesHandler(dashboardService))
	admin.Get("/dashboard/popular-items", dashboard.PopularItemsHandler(dashboardService))
	admin.Get("/dashboard/popular-poke-types", dashboard.PopularPokeTypesHandler(dashboardService))

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		if err := app.ShutdownWithTimeout(shutdownGrace); err != nil {
			logging.LogError(log, "main", "http shutdown", nil, err)
		}
	}()

	log.WithField("port", cfg.HTTPPort).Info("server listening")
	if err := app.Listen(":" + cfg.HTTPPort); err != nil {
		log.Fatal(err)
	}

	// in-flight notifications finish before the publisher closes
	dispatcher.Close()
}

func errorHandler(log *logrus.Entry) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{
				"success": false,
				"error":   fiberKind(fe.Code),
				"message": fe.Message,
			})
		}

		var ae *apperr.Error
		if !errors.As(err, &ae) {
			logging.LogError(log, "errorHandler", c.Method()+" "+c.Path(), nil, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"error":   apperr.KindInternal,
				"message": "Error interno del servidor",
			})
		}

		status := apperr.HTTPStatus(ae)
		if status >= fiber.StatusInternalServerError {
			logging.LogError(log, "errorHandler", c.Method()+" "+c.Path(), nil, err)
		}
		body := fiber.Map{
			"success": false,
			"error":   ae.Kind,
			"message": ae.Message,
		}
		if ae.Details != nil {
			body["details"] = ae.Details
		}
		return c.Status(status).JSON(body)
	}
}

func fiberKind(code int) string {
	switch code {
	case fiber.StatusUnauthorized:
		return "unauthorized"
	case fiber.StatusForbidden:
		return "forbidden"
	case fiber.StatusNotFound:
		return string(apperr.KindNotFound)
	case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity:
		return string(apperr.KindValidation)
	default:
		if code >= fiber.StatusInternalServerError {
			return string(apperr.KindInternal)
		}
		return "http_error"
	}
}
