package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/hannalund/shop-backend/internal/catalog"
	"github.com/hannalund/shop-backend/internal/fulfillment"
	"github.com/hannalund/shop-backend/internal/messaging"
	"github.com/hannalund/shop-backend/internal/notify"
	"github.com/hannalund/shop-backend/internal/telemetry"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "fulfillment-worker", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(context.Background()) }()

	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers == "" {
		logger.Error("KAFKA_BROKERS environment variable is required")
		os.Exit(1)
	}

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

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	var email fulfillment.EmailNotifier
	if endpoint := os.Getenv("MAIL_API_URL"); endpoint != "" {
		email = notify.NewEmailSender(
			endpoint,
			os.Getenv("MAIL_API_KEY"),
			os.Getenv("MAIL_FROM"),
			os.Getenv("MAIL_TO"),
			httpClient,
		)
	}

	var chat fulfillment.ChatNotifier
	if endpoint := os.Getenv("CHAT_API_URL"); endpoint != "" {
		chat = notify.NewChatSender(
			endpoint,
			os.Getenv("CHAT_API_TOKEN"),
			os.Getenv("CHAT_TO"),
			httpClient,
		)
	}

	brokers := strings.Split(kafkaBrokers, ",")
	consumer := messaging.NewConsumer(brokers, messaging.TopicCheckoutCompleted, "fulfillment-worker")
	defer func() { _ = consumer.Close() }()

	handler := fulfillment.NewHandler(catalog.NewRepository(db), email, chat, logger)

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	logger.Info("starting fulfillment worker", "brokers", brokers)

	if err := consumer.Consume(ctx, handler.Handle); err != nil {
		if ctx.Err() == context.Canceled {
			logger.Info("consumer stopped")
			return
		}
		logger.Error("consumer error", "error", err)
		os.Exit(1)
	}
}
