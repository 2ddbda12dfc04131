package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/fajapicasso/SilarioDentalClinic-sub003/config"
	httpDelivery "github.com/fajapicasso/SilarioDentalClinic-sub003/internal/delivery/http"
	kafkaDelivery "github.com/fajapicasso/SilarioDentalClinic-sub003/internal/delivery/kafka"
	wsDelivery "github.com/fajapicasso/SilarioDentalClinic-sub003/internal/delivery/ws"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/events"
	infraPostgres "github.com/fajapicasso/SilarioDentalClinic-sub003/internal/infra/postgres"
	infraRedis "github.com/fajapicasso/SilarioDentalClinic-sub003/internal/infra/redis"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/notification"
	repo "github.com/fajapicasso/SilarioDentalClinic-sub003/internal/repository/postgres"
	"github.com/fajapicasso/SilarioDentalClinic-sub003/internal/service"
	pkgLog "github.com/fajapicasso/SilarioDentalClinic-sub003/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	l := pkgLog.New(cfg.Log.Level, cfg.Log.Format)
	defer l.Sync()

	db, err := infraPostgres.Connect(cfg.Postgres)
	if err != nil {
		l.Fatal("Failed to connect to Postgres", "error", err)
	}
	defer infraPostgres.Disconnect(db)

	if err := infraPostgres.Migrate(db); err != nil {
		l.Fatal("Failed to migrate schema", "error", err)
	}

	redisCli, err := infraRedis.Connect(ctx, cfg.Redis)
	if err != nil {
		l.Fatal("Failed to connect to Redis", "error", err)
	}
	defer infraRedis.Disconnect(redisCli)

	bus := events.NewRedisBus(ctx, redisCli, l)
	defer bus.Close()

	// Kafka is optional: without a broker, queue events stay internal and
	// notifications go to the log sink.
	var prod kafkaDelivery.Producer
	var sink notification.Sink = notification.NewLogSink(l)
	if cfg.Kafka.Enabled {
		prod, err = kafkaDelivery.Connect(kafkaDelivery.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			RetryMax:     cfg.Kafka.ProducerRetryMax,
			RequiredAcks: cfg.Kafka.ProducerRequiredAcks,
		}, l)
		if err != nil {
			l.Fatal("Failed to initialize Kafka producer", "error", err)
		}
		defer prod.Close()
		sink = prod
	}

	loc := cfg.Location()

	queueRepo := repo.NewQueueRepository(db, l)
	apptRepo := repo.NewAppointmentRepository(db, l)
	userRepo := repo.NewUserRepository(db, l)

	// The router hangs off the mutation path, not the bus: relayed peer events
	// would otherwise produce one duplicate notification per process.
	router := notification.NewRouter(userRepo, sink, l)

	reconciler := service.NewReconciler(queueRepo, bus, l)
	admissionSvc := service.NewAdmissionService(
		queueRepo, reconciler, bus, router, prod, loc, cfg.Queue.MaxAdmitAttempts, l)
	queueSvc := service.NewQueueService(
		queueRepo, userRepo, reconciler, bus, router, prod, loc,
		cfg.Queue.AvgServiceMinutes, cfg.Queue.SnapshotMaxEntries, l)

	hub := wsDelivery.NewHub(queueSvc, bus, l)
	go hub.Run(ctx)

	sweeper := service.NewSweeper(apptRepo, queueRepo, admissionSvc, loc, cfg.Queue.SweepSchedule, l)
	if err := sweeper.Start(); err != nil {
		l.Fatal("Failed to start auto-admit sweep", "error", err)
	}
	defer sweeper.Stop()

	if cfg.Queue.SweepOnStart {
		go func() {
			if err := sweeper.Sweep(ctx); err != nil {
				l.Error("Startup sweep failed", "error", err)
			}
		}()
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	handler := httpDelivery.NewHandler(admissionSvc, queueSvc, hub, l)
	handler.Register(r, httpDelivery.AuthMiddleware(cfg.JWT.Secret))

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		l.Info("HTTP server listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		l.Info("Server shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.WriteTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		l.Error("Server exited with error", "error", err)
		return
	}

	l.Info("Server exited")
}
