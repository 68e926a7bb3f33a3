package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"payment-gateway/config"
	"payment-gateway/internal/api"
	"payment-gateway/internal/broker"
	"payment-gateway/internal/psp"
	"payment-gateway/internal/redisclient"
	"payment-gateway/internal/service"
	"payment-gateway/internal/store"
	"payment-gateway/internal/util"
	"payment-gateway/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting payment gateway service")

	tp, err := util.InitTracer("payment-gateway", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicPayment)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)

	creds := psp.Credentials{
		Environment: cfg.PSP.Environment,
		MerchantID:  cfg.PSP.MerchantID,
		PublicKey:   cfg.PSP.PublicKey,
		PrivateKey:  cfg.PSP.PrivateKey,
	}

	var gateway psp.Gateway
	if cfg.PSP.Environment == "sandbox" {
		gateway = psp.NewSandbox(creds)
		log.Println("PSP sandbox gateway initialized")
	} else {
		gateway = psp.NewClient(creds, cfg.PSP.BaseURL)
		log.Printf("PSP gateway initialized: %s", cfg.PSP.BaseURL)
	}

	vaultPolicy, err := psp.ParseVaultPolicy(cfg.Business.VaultPolicy)
	if err != nil {
		log.Fatalf("Invalid vault policy: %v", err)
	}

	purchaseService := service.NewPurchaseService(
		gateway,
		creds,
		db,
		redisClient,
		eventPublisher,
		cfg.Business.ThreeDSecure,
		vaultPolicy,
		time.Duration(cfg.Business.ClientTokenTTLSeconds)*time.Second,
	)
	completionService := service.NewCompletionService(db, eventPublisher)
	reconciler := service.NewReconciler(gateway, db, eventPublisher, cfg.Business.ReconcileConcurrency)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	reconcileWorker := worker.NewReconcileWorker(
		reconciler,
		redisClient,
		time.Duration(cfg.Business.ReconcileIntervalSeconds)*time.Second,
	)
	go func() {
		if err := reconcileWorker.Start(workerCtx); err != nil && err != context.Canceled {
			log.Printf("Reconcile worker error: %v", err)
		}
	}()

	triggerConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicReconcile, cfg.Kafka.ConsumerGroup)
	triggerWorker := worker.NewTriggerWorker(triggerConsumer, reconciler)
	go func() {
		if err := triggerWorker.Start(workerCtx); err != nil && err != context.Canceled {
			log.Printf("Trigger worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()
	handler := api.NewHandler(purchaseService, completionService, reconciler, gateway, db, redisClient)
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	triggerWorker.Stop()

	log.Println("Server exited")
}
