package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	appanalytics "github.com/jhoicas/Cotizador-api/internal/application/analytics"
	"github.com/jhoicas/Cotizador-api/internal/application/auth"
	"github.com/jhoicas/Cotizador-api/internal/application/notification"
	"github.com/jhoicas/Cotizador-api/internal/application/quoting"
	"github.com/jhoicas/Cotizador-api/internal/application/usecase"
	"github.com/jhoicas/Cotizador-api/internal/domain/entity"
	"github.com/jhoicas/Cotizador-api/internal/infrastructure/delivery"
	infrapdf "github.com/jhoicas/Cotizador-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Cotizador-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Cotizador-api/internal/infrastructure/redisstore"
	"github.com/jhoicas/Cotizador-api/internal/infrastructure/ubl"
	httpRouter "github.com/jhoicas/Cotizador-api/internal/interfaces/http"
	"github.com/jhoicas/Cotizador-api/pkg/config"
	"github.com/jhoicas/Cotizador-api/pkg/logger"
	"github.com/jhoicas/Cotizador-api/pkg/money"
)

const swaggerFile = "./docs/swagger.json"

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
		Msg("iniciando aplicación")

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	companyRepo := postgres.NewCompanyRepository(pool)
	userRepo := postgres.NewUserRepository(pool)
	productRepo := postgres.NewProductRepository(pool)
	customerRepo := postgres.NewCustomerRepository(pool)
	quotationRepo := postgres.NewQuotationRepository(pool)
	settingsRepo := postgres.NewSettingsRepository(pool)
	prefsRepo := postgres.NewPreferenceRepository(pool)
	notificationRepo := postgres.NewNotificationRepository(pool)
	outboxRepo := postgres.NewOutboxRepository(pool)
	analyticsRepo := postgres.NewAnalyticsRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Redis es opcional: sin dirección se usa la versión en memoria (una sola instancia).
	var (
		idem   notification.IdempotencyStore
		locker redisstore.Locker
	)
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		idem = redisstore.NewIdempotencyStore(rdb)
		locker = redisstore.NewLocker(rdb)
	} else {
		log.Warn().Msg("REDIS_ADDR vacío: idempotencia y locks en memoria")
		idem = redisstore.NewMemoryStore()
		locker = redisstore.NewMemoryLocker()
	}

	fmtr := money.NewFormatter(cfg.App.Language)
	templates, err := notification.NewTemplates(cfg.App.PublicBaseURL, fmtr, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("plantillas de notificación")
	}

	senders := []notification.Sender{delivery.NewInAppSender(notificationRepo)}
	if cfg.SMTP.Host != "" {
		senders = append(senders, delivery.NewEmailSender(cfg.SMTP))
	} else {
		log.Warn().Msg("SMTP_HOST vacío: canal email deshabilitado")
	}
	if cfg.Push.WebhookURL != "" {
		senders = append(senders, delivery.NewPushSender(cfg.Push))
	} else {
		log.Warn().Msg("PUSH_WEBHOOK_URL vacío: canal push deshabilitado")
	}

	dispatcherCfg := notification.DefaultDispatcherConfig()
	dispatcherCfg.BatchSize = cfg.Outbox.BatchSize
	dispatcherCfg.PollInterval = cfg.Outbox.PollInterval
	dispatcherCfg.LockTimeout = cfg.Outbox.LockTimeout
	dispatcherCfg.MaxAttempts = cfg.Outbox.MaxAttempts
	dispatcherCfg.InitialBackoff = cfg.Outbox.InitialBackoff
	dispatcherCfg.MaxBackoff = cfg.Outbox.MaxBackoff
	dispatcher := notification.NewDispatcher(outboxRepo, idem, templates, dispatcherCfg, log, senders...)

	preferences := notification.NewPreferenceService(prefsRepo, userRepo)
	inbox := notification.NewInbox(notificationRepo)

	quotationUC := quoting.NewQuotationUseCase(
		txRunner, quotationRepo, customerRepo, productRepo, companyRepo, settingsRepo,
		preferences,
		infrapdf.NewQuotationPDF(fmtr, cfg.App.PublicBaseURL),
		ubl.NewQuotationExporter(),
		quoting.Config{
			MaxRetries:          cfg.Quote.MaxRetries,
			DefaultValidityDays: cfg.Quote.DefaultValidityDays,
			DefaultCurrency:     cfg.Quote.DefaultCurrency,
			DefaultNumberPrefix: cfg.Quote.NumberPrefix,
		},
		log,
	)

	companyUC := usecase.NewCompanyUseCase(companyRepo, settingsRepo, txRunner, entity.BundleDefaults{
		Currency:            cfg.Quote.DefaultCurrency,
		DefaultValidityDays: cfg.Quote.DefaultValidityDays,
		NumberPrefix:        cfg.Quote.NumberPrefix,
	})
	customerUC := usecase.NewCustomerUseCase(customerRepo)
	productUC := usecase.NewProductUseCase(productRepo)
	moduleSvc := usecase.NewModuleService(companyRepo)
	dashboardUC := appanalytics.NewDashboardUseCase(analyticsRepo)
	authUC := auth.NewAuthUseCase(userRepo, companyRepo, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	go dispatcher.Run(ctx)
	if cfg.Quote.ExpireInterval > 0 {
		go expireLoop(ctx, log, locker, quotationUC, cfg.Quote)
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		ErrorHandler: httpRouter.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(httpRouter.RequestLogger(log))
	if cfg.HTTP.CORSOrigins != "" {
		app.Use(cors.New(cors.Config{
			AllowOrigins:  cfg.HTTP.CORSOrigins,
			AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Request-ID",
			ExposeHeaders: "X-Request-ID, X-Document-Digest",
		}))
	}

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Cotizador API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:          authUC,
		CompanyUC:       companyUC,
		CustomerUC:      customerUC,
		ProductUC:       productUC,
		ModuleService:   moduleSvc,
		QuotationUC:     quotationUC,
		Preferences:     preferences,
		Inbox:           inbox,
		DashboardUC:     dashboardUC,
		JWTSecret:       cfg.JWT.Secret,
		JWTIssuer:       cfg.JWT.Issuer,
		PublicRateLimit: 30,
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
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// expireLoop barre cotizaciones vencidas cada intervalo. Con varias réplicas solo una
// obtiene el lock por ronda.
func expireLoop(ctx context.Context, log *logger.Logger, locker redisstore.Locker, uc *quoting.QuotationUseCase, cfg config.QuoteConfig) {
	ticker := time.NewTicker(cfg.ExpireInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		ran, err := locker.TryRun(ctx, "expire_quotations", cfg.ExpireInterval, func(ctx context.Context) error {
			res, err := uc.ExpireOverdue(ctx, cfg.ExpireBatch)
			if err != nil {
				return err
			}
			if res.Expired > 0 || len(res.Failed) > 0 {
				log.Info().
					Int("checked", res.Checked).
					Int("expired", res.Expired).
					Int("failed", len(res.Failed)).
					Msg("barrido de vencimiento")
			}
			return nil
		})
		if err != nil {
			log.Error().Err(err).Msg("barrido de vencimiento")
		} else if !ran {
			log.Debug().Msg("barrido de vencimiento en otra instancia")
		}
	}
}
