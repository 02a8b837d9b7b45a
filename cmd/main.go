package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"insurance-service/internal/config"
	"insurance-service/internal/database/minio"
	"insurance-service/internal/database/postgres"
	"insurance-service/internal/database/redis"
	"insurance-service/internal/event"
	"insurance-service/internal/handlers"
	"insurance-service/internal/instruction"
	"insurance-service/internal/oracle"
	"insurance-service/internal/repository"
	"insurance-service/internal/services"
	"insurance-service/internal/worker"

	"github.com/gofiber/fiber/v3"
)

func setupLogging(logDir string) (*os.File, error) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Printf("Recovered from panic: %v\n", r)
		}
	}()

	fmt.Println("Log directory:", logDir)
	err := os.MkdirAll(logDir, 0o755)
	if err != nil {
		return nil, fmt.Errorf("failed to create log directory: %v", err)
	}

	currentTime := time.Now()
	logFileName := fmt.Sprintf("log_%s.log", currentTime.Format("2006-01-02"))
	logFile := filepath.Join(logDir, logFileName)

	file, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %v", err)
	}

	log.SetOutput(file)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	return file, nil
}

func main() {
	cfg := config.New()

	logFile, err := setupLogging(cfg.LogDir)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer logFile.Close()
	log.Printf("Connecting to PostgreSQL with: host=%s, port=%s, user=%s, dbname=%s",
		cfg.PostgresCfg.Host, cfg.PostgresCfg.Port, cfg.PostgresCfg.Username, cfg.PostgresCfg.DBname)

	db, err := postgres.ConnectAndCreateDB(cfg.PostgresCfg)
	if err != nil {
		log.Printf("error connect to database: %s", err)
		go postgres.RetryConnectOnFailed(30*time.Second, &db, cfg.PostgresCfg)
	}
	defer func() {
		if db != nil {
			db.Close()
		}
	}()

	redisClient, err := redis.NewRedisClient(cfg.RedisCfg.Host, cfg.RedisCfg.Port, cfg.RedisCfg.Password, cfg.RedisCfg.DB)
	if err != nil {
		log.Fatalf("Error connecting to Redis: %v", err)
	}
	defer redisClient.Close()

	minioClient, err := minio.NewMinioClient(cfg.MinioCfg)
	if err != nil {
		log.Fatalf("Error connecting to MinIO: %v", err)
	}

	rabbitConn, err := event.ConnectRabbitMQ(cfg.RabbitMQCfg)
	if err != nil {
		log.Fatalf("Error connecting to RabbitMQ: %v", err)
	}
	defer rabbitConn.Close()

	// repositories
	store := repository.NewPostgresStore(db)
	climateStore := repository.NewRedisClimateDataStore(redisClient.GetClient())

	// infrastructure
	verifier := oracle.NewEd25519Verifier()
	slothashRing := oracle.NewSlothashRing(redisClient.GetClient(), cfg.OracleCfg.SlothashHistory)
	archiver := services.NewMinioEvidenceArchiver(minioClient)
	publisher := event.NewPolicyEventPublisher(rabbitConn)

	// services
	registryService := services.NewRegistryService(store)
	policyService := services.NewPolicyService(store, publisher)
	oracleService := services.NewOracleService(store, climateStore, verifier, slothashRing, nil, cfg.OracleCfg)
	triggerService := services.NewTriggerService(store, climateStore, verifier, archiver, publisher, cfg.OracleCfg)
	payoutService := services.NewPayoutService(store, publisher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// instruction queue consumer
	dispatcher := instruction.NewDispatcher(registryService, policyService, oracleService, triggerService, payoutService)
	consumer := event.NewInstructionConsumer(rabbitConn, dispatcher)
	if err := consumer.Start(ctx); err != nil {
		log.Fatalf("Error starting instruction consumer: %v", err)
	}

	// background jobs
	bgWorker := worker.New(cfg.WorkerCfg, oracleService, policyService)
	if err := bgWorker.Start(ctx); err != nil {
		log.Fatalf("Error starting background worker: %v", err)
	}

	app := fiber.New()
	app.Get("/checkhealth", func(c fiber.Ctx) error {
		return c.Status(fiber.StatusOK).SendString("Insurance service is healthy")
	})

	// handlers
	handlers.NewRegistryHandler(registryService).Register(app)
	handlers.NewPolicyHandler(policyService).Register(app)
	handlers.NewOracleHandler(oracleService).Register(app)
	handlers.NewTriggerHandler(triggerService).Register(app)
	handlers.NewPayoutHandler(payoutService).Register(app)

	go func() {
		log.Printf("Starting insurance-service on port %s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down insurance-service")
	cancel()
	bgWorker.Stop()
	if err := app.Shutdown(); err != nil {
		log.Printf("Error shutting down server: %v", err)
	}
}
