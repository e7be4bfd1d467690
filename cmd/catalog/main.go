package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/hannalund/shop-backend/internal/catalog"
	"github.com/hannalund/shop-backend/internal/content"
	"github.com/hannalund/shop-backend/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "catalog", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("catalog", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	db, err := telemetry.OpenDB("postgres", postgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if _, err := db.Exec("SET search_path TO catalog"); err != nil {
		logger.Error("failed to set search_path", "error", err)
		os.Exit(1)
	}

	productHandler := catalog.NewHandler(catalog.NewRepository(db), logger)
	postHandler := content.NewHandler(content.NewRepository(db), logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /products", telemetry.WithHTTPRoute(productHandler.HandleList))
	mux.HandleFunc("POST /products", telemetry.WithHTTPRoute(productHandler.HandleCreate))
	mux.HandleFunc("GET /products/{slug}", telemetry.WithHTTPRoute(productHandler.HandleGet))
	mux.HandleFunc("PUT /products/{slug}", telemetry.WithHTTPRoute(productHandler.HandleUpdate))
	mux.HandleFunc("DELETE /products/{slug}", telemetry.WithHTTPRoute(productHandler.HandleDelete))
	mux.HandleFunc("GET /posts", telemetry.WithHTTPRoute(postHandler.HandleList))
	mux.HandleFunc("POST /posts", telemetry.WithHTTPRoute(postHandler.HandleCreate))
	mux.HandleFunc("GET /posts/{slug}", telemetry.WithHTTPRoute(postHandler.HandleGet))
	mux.HandleFunc("PUT /posts/{slug}", telemetry.WithHTTPRoute(postHandler.HandleUpdate))
	mux.HandleFunc("DELETE /posts/{slug}", telemetry.WithHTTPRoute(postHandler.HandleDelete))
	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8082"
	}

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(mux, "catalog",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting catalog service", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
