package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	appcatalog "github.com/Zhima-Mochi/library-lending/internal/application/catalog"
	applending "github.com/Zhima-Mochi/library-lending/internal/application/lending"
	apppayment "github.com/Zhima-Mochi/library-lending/internal/application/payment"
	"github.com/Zhima-Mochi/library-lending/internal/config"
	catalogdom "github.com/Zhima-Mochi/library-lending/internal/domain/catalog"
	lendingdom "github.com/Zhima-Mochi/library-lending/internal/domain/lending"
	"github.com/Zhima-Mochi/library-lending/internal/infrastructure/gateway"
	"github.com/Zhima-Mochi/library-lending/internal/infrastructure/id"
	"github.com/Zhima-Mochi/library-lending/internal/infrastructure/memory"
	"github.com/Zhima-Mochi/library-lending/internal/infrastructure/observability/oteltrace"
	"github.com/Zhima-Mochi/library-lending/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/library-lending/internal/infrastructure/observability/telemetry"
	"github.com/Zhima-Mochi/library-lending/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/library-lending/internal/infrastructure/postgres"
	"github.com/Zhima-Mochi/library-lending/internal/observability"
	httppresentation "github.com/Zhima-Mochi/library-lending/internal/presentation/http"
)

func main() {
	cfg := config.Load()

	logger := zaplogger.New(
		observability.F("service", cfg.ServiceName),
		observability.F("env", cfg.Env),
	)
	tel := telemetry.New(
		oteltrace.New(cfg.ServiceName),
		logger,
		prometrics.New("library", "lending"),
	)

	var (
		books   catalogdom.Repository
		borrows lendingdom.Repository
	)
	if cfg.DBSource != "" {
		store, err := postgres.NewStore(context.Background(), cfg.DBSource)
		if err != nil {
			log.Fatalf("connect to database: %v", err)
		}
		defer store.Close()
		if err := store.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("prepare schema: %v", err)
		}
		books = store.Books()
		borrows = store.Borrows()
		logger.Info("storage_ready", observability.F("backend", "postgres"))
	} else {
		books = memory.NewBookRepository()
		borrows = memory.NewBorrowRepository()
		logger.Info("storage_ready", observability.F("backend", "memory"))
	}

	catalogService := appcatalog.NewService(books, tel)
	lendingService := applending.NewService(books, borrows, id.NewUUIDGenerator(), tel)
	paymentOrchestrator := apppayment.NewOrchestrator(lendingService, books, gateway.New(), tel)

	handler := httppresentation.NewHandler(catalogService, lendingService, paymentOrchestrator, tel)

	root := http.NewServeMux()
	root.Handle("/metrics", promhttp.Handler())
	root.Handle("/", handler.Router())

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: root,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("http_server_start", observability.F("addr", server.Addr))
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http_server_error", observability.F("error", err.Error()))
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_server_shutdown_error", observability.F("error", err.Error()))
	} else {
		logger.Info("http_server_stopped")
	}
}
