package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/hannalund/shop-backend/internal/catalog"
	"github.com/hannalund/shop-backend/internal/checkout"
	"github.com/hannalund/shop-backend/internal/messaging"
	"github.com/hannalund/shop-backend/internal/orders"
	"github.com/hannalund/shop-backend/internal/payments"
	"github.com/hannalund/shop-backend/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "checkout", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("checkout", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	if err := runtime.Start(runtime.WithMinimumReadMemStatsInterval(10 * time.Second)); err != nil {
		logger.Error("failed to start runtime instrumentation", "error", err)
		os.Exit(1)
	}

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	stripeKey := os.Getenv("STRIPE_SECRET_KEY")
	if stripeKey == "" {
		logger.Error("STRIPE_SECRET_KEY environment variable is required")
		os.Exit(1)
	}

	webhookSecret := os.Getenv("STRIPE_WEBHOOK_SECRET")
	if webhookSecret == "" {
		logger.Error("STRIPE_WEBHOOK_SECRET environment variable is required")
		os.Exit(1)
	}

	siteOrigin := os.Getenv("SITE_ORIGIN")
	if siteOrigin == "" {
		logger.Error("SITE_ORIGIN environment variable is required")
		os.Exit(1)
	}

	catalogDB, err := telemetry.OpenDB("postgres", postgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = catalogDB.Close() }()

	if err := catalogDB.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	if _, err := catalogDB.Exec("SET search_path TO catalog"); err != nil {
		logger.Error("failed to set search_path", "error", err)
		os.Exit(1)
	}

	ordersDB, err := telemetry.OpenDB("postgres", postgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = ordersDB.Close() }()

	if _, err := ordersDB.Exec("SET search_path TO orders"); err != nil {
		logger.Error("failed to set search_path", "error", err)
		os.Exit(1)
	}

	var producer *messaging.Producer
	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers != "" {
		brokers := strings.Split(kafkaBrokers, ",")
		producer = messaging.NewProducer(brokers, messaging.TopicCheckoutCompleted)
		defer func() { _ = producer.Close() }()
	}

	cfg := checkout.Config{
		DefaultCurrency:       os.Getenv("DEFAULT_CURRENCY"),
		StaticPrices:          staticPrices(logger),
		FreeShippingThreshold: envInt64(logger, "FREE_SHIPPING_THRESHOLD", 10000),
		ShippingFee:           envInt64(logger, "SHIPPING_FLAT_FEE", 350),
	}

	allowedCountries := strings.Split(envDefault("ALLOWED_COUNTRIES", "GB"), ",")
	gateway := payments.NewStripeGateway(stripeKey, webhookSecret, allowedCountries)

	assembler := checkout.NewAssembler(catalog.NewRepository(catalogDB), cfg)
	handler := checkout.NewHandler(assembler, gateway, orders.NewRepository(ordersDB), producer, siteOrigin, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /checkout/sessions", telemetry.WithHTTPRoute(handler.HandleCreateSession))
	mux.HandleFunc("GET /checkout/sessions/{id}", telemetry.WithHTTPRoute(handler.HandleGetSession))
	mux.HandleFunc("POST /webhooks/stripe", telemetry.WithHTTPRoute(handler.HandleWebhook))
	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	port := envDefault("PORT", "8081")

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(checkout.CORS(mux), "checkout",
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
		logger.Info("starting checkout service", "port", port)
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

// staticPrices reads the slug → minor-unit price table from
// STATIC_PRICE_TABLE, a JSON object like {"hanna-jacket": 7900}.
func staticPrices(logger *slog.Logger) map[string]int64 {
	raw := os.Getenv("STATIC_PRICE_TABLE")
	if raw == "" {
		return nil
	}

	prices := map[string]int64{}
	if err := json.Unmarshal([]byte(raw), &prices); err != nil {
		logger.Error("invalid STATIC_PRICE_TABLE", "error", err)
		os.Exit(1)
	}
	return prices
}

func envInt64(logger *slog.Logger, name string, fallback int64) int64 {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}

	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		logger.Error("invalid "+name, "error", err)
		os.Exit(1)
	}
	return value
}

func envDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}
