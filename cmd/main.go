package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/finbridge/lps-adaptor/internal/api"
	"github.com/finbridge/lps-adaptor/internal/codec"
	"github.com/finbridge/lps-adaptor/internal/config"
	"github.com/finbridge/lps-adaptor/internal/ilp"
	"github.com/finbridge/lps-adaptor/internal/iso"
	"github.com/finbridge/lps-adaptor/internal/locks"
	"github.com/finbridge/lps-adaptor/internal/queue"
	"github.com/finbridge/lps-adaptor/internal/relay"
	"github.com/finbridge/lps-adaptor/internal/repository"
	"github.com/finbridge/lps-adaptor/internal/scheme"
	"github.com/finbridge/lps-adaptor/internal/service"
	"github.com/finbridge/lps-adaptor/internal/telemetry"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize telemetry
	if err := telemetry.InitTelemetry("lps-adaptor"); err != nil {
		panic(fmt.Sprintf("Failed to initialize telemetry: %v", err))
	}
	defer telemetry.Shutdown(context.Background())

	telemetry.Logger.Info("Starting LPS Adaptor",
		zap.String("lps_id", cfg.Relay.LpsID),
		zap.String("dialect", cfg.Relay.Dialect))

	// Connect to PostgreSQL
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		telemetry.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	store := repository.NewStore(db)
	if err := store.InitDB(); err != nil {
		telemetry.Logger.Fatal("Failed to initialize database", zap.Error(err))
	}

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisURL,
	})

	// Connect to NATS
	nc, err := nats.Connect(cfg.NatsURL)
	if err != nil {
		telemetry.Logger.Fatal("Failed to connect to NATS", zap.Error(err))
	}
	defer nc.Close()

	// Kafka queues
	publisher := queue.NewPublisher(cfg.KafkaBrokers)
	defer publisher.Close()
	consumer := queue.NewConsumer(cfg.KafkaBrokers, "lps-adaptor")

	// Collaborators
	ilpService := ilp.NewService(nc, cfg.IlpSecret)
	schemeClient := scheme.NewClient(cfg.SchemeBaseURL, cfg.FspID)
	reversalLock := locks.NewRedisLock(redisClient, "reversal_lease:")

	workflow := service.NewWorkflow(
		store.Transactions, store.Parties, store.Fees, store.Messages,
		store.Quotes, store.Transfers,
		publisher, schemeClient, ilpService, reversalLock, cfg,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	workflow.RunConsumers(ctx, consumer)

	// Legacy TCP listener; one relay per accepted connection
	mapper, err := iso.NewMapper(cfg.Relay, store.Messages)
	if err != nil {
		telemetry.Logger.Fatal("Failed to build dialect mapper", zap.Error(err))
	}
	listener, err := net.Listen("tcp", cfg.TCPListenAddr)
	if err != nil {
		telemetry.Logger.Fatal("Failed to listen for legacy connections", zap.Error(err))
	}
	defer listener.Close()

	go acceptLoop(ctx, listener, cfg, mapper, store, publisher, consumer)

	// Scheme callback API
	router := api.NewRouter(workflow)
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		telemetry.Logger.Info("LPS Adaptor API starting", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			telemetry.Logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	telemetry.Logger.Info("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		telemetry.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	telemetry.Logger.Info("Server exited")
}

func acceptLoop(
	ctx context.Context,
	listener net.Listener,
	cfg *config.Config,
	mapper iso.Mapper,
	store *repository.Store,
	publisher *queue.Publisher,
	consumer *queue.Consumer,
) {
	wireCodec := codec.JSON{}
	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			telemetry.Logger.Error("Accept failed", zap.Error(err))
			continue
		}

		r, err := relay.New(conn, cfg.Relay, mapper, wireCodec, store.Messages, publisher, consumer)
		if err != nil {
			telemetry.Logger.Error("Failed to build relay", zap.Error(err))
			conn.Close()
			continue
		}

		telemetry.Logger.Info("Legacy connection accepted",
			zap.String("remote", conn.RemoteAddr().String()))
		go func() {
			defer r.Close()
			r.Start(ctx)
		}()
	}
}
