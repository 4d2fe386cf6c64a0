// expire_quotations vence las cotizaciones enviadas o vistas cuya vigencia ya pasó.
// Pensado para un cron; con REDIS_ADDR solo una ejecución concurrente hace el barrido.
//
// Uso: go run ./cmd/expire_quotations [-limit 500]
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jhoicas/Cotizador-api/internal/application/notification"
	"github.com/jhoicas/Cotizador-api/internal/application/quoting"
	"github.com/jhoicas/Cotizador-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Cotizador-api/internal/infrastructure/redisstore"
	"github.com/jhoicas/Cotizador-api/pkg/config"
	"github.com/jhoicas/Cotizador-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	limit := flag.Int("limit", cfg.Quote.ExpireBatch, "máximo de cotizaciones por barrido")
	flag.Parse()

	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel}).Named("expire_quotations")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	var locker redisstore.Locker = redisstore.NewMemoryLocker()
	if cfg.Redis.Addr != "" {
		rdb, err := redisstore.NewClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		locker = redisstore.NewLocker(rdb)
	}

	uc := quoting.NewQuotationUseCase(
		postgres.NewTxRunner(pool),
		postgres.NewQuotationRepository(pool),
		postgres.NewCustomerRepository(pool),
		postgres.NewProductRepository(pool),
		postgres.NewCompanyRepository(pool),
		postgres.NewSettingsRepository(pool),
		notification.NewPreferenceService(postgres.NewPreferenceRepository(pool), postgres.NewUserRepository(pool)),
		nil, nil, // el barrido no genera documentos
		quoting.Config{
			MaxRetries:          cfg.Quote.MaxRetries,
			DefaultValidityDays: cfg.Quote.DefaultValidityDays,
			DefaultCurrency:     cfg.Quote.DefaultCurrency,
			DefaultNumberPrefix: cfg.Quote.NumberPrefix,
		},
		log,
	)

	start := time.Now()
	ran, err := locker.TryRun(ctx, "expire_quotations", 10*time.Minute, func(ctx context.Context) error {
		res, err := uc.ExpireOverdue(ctx, *limit)
		if err != nil {
			return err
		}
		log.Info().
			Int("checked", res.Checked).
			Int("expired", res.Expired).
			Strs("failed", res.Failed).
			Dur("took", time.Since(start)).
			Msg("barrido de vencimiento terminado")
		return nil
	})
	if err != nil {
		log.Error().Err(err).Msg("barrido de vencimiento")
		os.Exit(1)
	}
	if !ran {
		log.Info().Msg("otro proceso tiene el lock; nada que hacer")
	}
}
