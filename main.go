package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/anand-babu-0003/ParkWise-sub000/internal/api"
	"github.com/anand-babu-0003/ParkWise-sub000/internal/api/handler"
	"github.com/anand-babu-0003/ParkWise-sub000/internal/api/middleware"
	"github.com/anand-babu-0003/ParkWise-sub000/internal/config"
	"github.com/anand-babu-0003/ParkWise-sub000/internal/events"
	"github.com/anand-babu-0003/ParkWise-sub000/internal/repository/postgresql"
	"github.com/anand-babu-0003/ParkWise-sub000/internal/service"

	awsgo_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	log.Println("Configuration loaded.")

	// 2. Setup Database Connection
	db, err := postgresql.NewDB(cfg)
	if err != nil {
		log.Fatalf("Could not connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connection established.")

	// 3. Initialize Repositories
	userRepo := postgresql.NewPgUserRepository(db)
	lotRepo := postgresql.NewPgParkingLotRepository(db)
	bookingRepo := postgresql.NewPgBookingRepository(db)

	// 4. Start WebSocket availability feed
	webSocketManager := handler.NewWebSocketManager()
	go webSocketManager.Start()
	log.Println("WebSocket manager started.")

	// 5. Initialize Services
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpirationHours)
	lotService := service.NewLotService(lotRepo, bookingRepo)
	paymentAuthorizer := service.NewStubPaymentAuthorizer()
	bookingService := service.NewBookingService(bookingRepo, lotRepo, paymentAuthorizer, webSocketManager)
	qrService := service.NewQRService()

	// 6. Initialize Auth Middleware
	authMiddleware := middleware.NewAuthMiddleware(authService)

	// 7. Start the SQS reconciliation consumer when a queue is configured
	var wg sync.WaitGroup
	consumerCtx, cancelConsumer := context.WithCancel(context.Background())

	if cfg.SQSReconcileQueueURL == "" {
		log.Println("WARNING: SQS_RECONCILE_QUEUE_URL not configured. SQS consumer will not run.")
	} else {
		awsSDKCfg, err := awsgo_config.LoadDefaultConfig(context.TODO(), awsgo_config.WithRegion(cfg.AWSRegion))
		if err != nil {
			log.Fatalf("Could not load AWS SDK config: %v", err)
		}
		sqsClient := sqs.NewFromConfig(awsSDKCfg)
		sqsConsumer := events.NewSQSConsumer(sqsClient, cfg, bookingService)
		wg.Add(1)
		go func() {
			defer wg.Done()
			sqsConsumer.Start(consumerCtx)
			log.Println("SQS consumer stopped.")
		}()
	}

	// background counter reconciliation
	go startReconciliationJob(bookingService, cfg.ReconcileInterval)

	// 8. Setup HTTP Router
	router := api.SetupRouter(authService, lotService, bookingService, qrService, authMiddleware, webSocketManager)

	// 9. Start HTTP Server
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server running on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe() error: %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	cancelConsumer()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shut down: %v", err)
	}

	if cfg.SQSReconcileQueueURL != "" {
		log.Println("Waiting for SQS consumer to stop (max 5 seconds)...")
		c := make(chan struct{})
		go func() {
			defer close(c)
			wg.Wait()
		}()
		select {
		case <-c:
			log.Println("SQS consumer stopped cleanly.")
		case <-time.After(5 * time.Second):
			log.Println("SQS consumer did not stop in time.")
		}
	}

	log.Println("Server stopped.")
}

// startReconciliationJob periodically re-derives every lot's available-slot
// counter from its Confirmed bookings, repairing any divergence left behind
// by a partial write.
func startReconciliationJob(bookingService *service.BookingService, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		repaired, err := bookingService.ReconcileAllLots(ctx)
		if err != nil {
			log.Printf("Error reconciling lot counters: %v", err)
		} else if repaired > 0 {
			log.Printf("Reconciled %d lot counter(s)", repaired)
		}
		cancel()
	}
}
