package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/hannalund/shop-backend/internal/checkout"
	"github.com/hannalund/shop-backend/internal/gateway"
	"github.com/hannalund/shop-backend/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "gateway", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	checkoutServiceURL := os.Getenv("CHECKOUT_SERVICE_URL")
	if checkoutServiceURL == "" {
		logger.Error("CHECKOUT_SERVICE_URL is required")
		os.Exit(1)
	}

	catalogServiceURL := os.Getenv("CATALOG_SERVICE_URL")
	if catalogServiceURL == "" {
		logger.Error("CATALOG_SERVICE_URL is required")
		os.Exit(1)
	}

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	checkoutProxy := gateway.NewServiceProxy(checkoutServiceURL, httpClient)
	catalogProxy := gateway.NewServiceProxy(catalogServiceURL, httpClient)
	handler := gateway.NewHandler(checkoutProxy, catalogProxy, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /checkout/sessions", telemetry.WithHTTPRoute(handler.HandleCheckout))
	mux.HandleFunc("GET /checkout/sessions/{id}", telemetry.WithHTTPRoute(handler.HandleCheckout))
	mux.HandleFunc("POST /webhooks/stripe", telemetry.WithHTTPRoute(handler.HandleCheckout))
	mux.HandleFunc("GET /products", telemetry.WithHTTPRoute(handler.HandleCatalog))
	mux.HandleFunc("POST /products", telemetry.WithHTTPRoute(handler.HandleCatalog))
	mux.HandleFunc("GET /products/{slug}", telemetry.WithHTTPRoute(handler.HandleCatalog))
	mux.HandleFunc("PUT /products/{slug}", telemetry.WithHTTPRoute(handler.HandleCatalog))
	mux.HandleFunc("DELETE /products/{slug}", telemetry.WithHTTPRoute(handler.HandleCatalog))
	mux.HandleFunc("GET /posts", telemetry.WithHTTPRoute(handler.HandleCatalog))
	mux.HandleFunc("POST /posts", telemetry.WithHTTPRoute(handler.HandleCatalog))
	mux.HandleFunc("GET /posts/{slug}", telemetry.WithHTTPRoute(handler.HandleCatalog))
	mux.HandleFunc("PUT /posts/{slug}", telemetry.WithHTTPRoute(handler.HandleCatalog))
	mux.HandleFunc("DELETE /posts/{slug}", telemetry.WithHTTPRoute(handler.HandleCatalog))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(checkout.CORS(mux), "gateway",
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
		logger.Info("starting gateway service", "port", port)
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
