// Package main запускает HTTP-сервер витрины.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/storefront/internal/config"
	"github.com/mmeshcher/storefront/internal/currency"
	"github.com/mmeshcher/storefront/internal/handler"
	"github.com/mmeshcher/storefront/internal/locale"
	"github.com/mmeshcher/storefront/internal/middleware"
	"github.com/mmeshcher/storefront/internal/rates"
	"github.com/mmeshcher/storefront/internal/repository"
	"github.com/mmeshcher/storefront/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	table, err := loadCurrencies(cfg.PricingFile)
	if err != nil {
		sugar.Fatalw("currency table error", "error", err.Error())
	}

	bundle, err := loadLocales(cfg.LocalesDir)
	if err != nil {
		sugar.Fatalw("language data error", "error", err.Error())
	}

	repo, err := openCatalog(cfg, sugar)
	if err != nil {
		sugar.Fatalw("catalog initialization error", "error", err.Error())
	}

	var ratesClient *rates.Client
	if cfg.RatesSourceAddress != "" {
		ratesClient = rates.NewClient(cfg.RatesSourceAddress)
	}

	svc := service.NewService(repo, bundle, table, ratesClient, service.Options{
		DefaultLanguage: cfg.DefaultLanguage,
		DefaultCurrency: cfg.DefaultCurrency,
		Logger:          logger,
	})
	defer svc.Close()

	prefs := middleware.NewPreferencesMiddleware(cfg.CookieSecret)
	h := handler.NewHandler(svc, logger, prefs)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// Фоновое обновление курсов валют
	g.Go(func() error {
		svc.StartRateUpdates(ctx, cfg.RatesRefreshInterval)
		return nil
	})

	g.Go(func() error {
		sugar.Infow("starting storefront server",
			"addr", cfg.RunAddress,
			"languages", bundle.Languages(),
			"base_currency", table.Base(),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}

func loadCurrencies(path string) (*currency.Table, error) {
	if path == "" {
		return currency.Default()
	}
	return currency.Load(path)
}

func loadLocales(dir string) (*locale.Bundle, error) {
	if dir == "" {
		return locale.Default()
	}
	return locale.LoadDir(dir)
}

// openCatalog выбирает источник каталога: PostgreSQL при заданном DATABASE_URI, иначе JSON.
// База данных заполняется товарами из JSON-каталога при первом запуске.
func openCatalog(cfg *config.Config, sugar *zap.SugaredLogger) (service.Repository, error) {
	static, err := repository.NewStaticRepository(cfg.CatalogFile)
	if err != nil {
		return nil, err
	}
	if cfg.DatabaseURI == "" {
		return static, nil
	}

	repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	products, err := static.ListProducts(ctx)
	if err != nil {
		repo.Close()
		return nil, err
	}
	inserted, err := repo.SeedProducts(ctx, products)
	if err != nil {
		repo.Close()
		return nil, fmt.Errorf("seed catalog: %w", err)
	}
	sugar.Infow("catalog seeded", "inserted", inserted, "total", len(products))

	return repo, nil
}
