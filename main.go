package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/api"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/cache"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/config"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/db"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/email"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/mercadopago"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/qr"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/services"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/storage"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/store"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/tasks"
	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/whatsapp"
)

var runMode = flag.String("m", "all", "Run mode: 'api', 'bg' (scheduled reminders), 'all' (default)")

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*runMode)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("Failed to resolve business timezone: %v", err)
	}

	// Initialize Database
	mongoClient, mongoDb, err := db.ConnectDB(cfg.MongoURI, cfg.MongoDbName)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.DisconnectDB(mongoClient); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()

	// Initialize Cache (Redis)
	redisClient, err := cache.ConnectRedis(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer func() {
		if err := cache.DisconnectRedis(redisClient); err != nil {
			log.Printf("Error disconnecting from Redis: %v", err)
		}
	}()

	// Stores
	contractStore := store.NewContractStore(mongoDb)
	rentalStore := store.NewRentalStore(mongoDb)
	customerStore := store.NewCustomerStore(mongoDb)
	paymentStore := store.NewPaymentStore(mongoDb)
	reminderStore := store.NewReminderStore(mongoDb)

	// WhatsApp gateway
	gateway := whatsapp.NewGatewayClient(cfg.WaGatewayURL, cfg.WaGatewaySession, cfg.WaGatewayToken, cfg.WaSendRate, cfg.WaSendBurst)

	// QR image publisher (optional: without an S3 bucket PIX responses fall
	// back to copy-paste codes only)
	var qrPublisher services.QRPublisher
	if cfg.AwsS3Bucket != "" {
		s3StorageService, err := storage.NewS3Storage(cfg)
		if err != nil {
			log.Fatalf("Failed to initialize S3 storage: %v", err)
		}
		qrPublisher = qr.NewPublisher(s3StorageService)
	} else {
		log.Println("AWS_S3_BUCKET not set; PIX QR images disabled.")
	}

	// Email Sender (SMTP, or logging fallback when unconfigured)
	emailSender := email.NewSMTPSender(cfg)

	// Payment processor client
	charger := mercadopago.NewClient(cfg.ProcessorURL, cfg.ProcessorTimeout)

	// Services
	billingService := services.NewBillingService(rentalStore, paymentStore, loc)
	paymentService := services.NewPaymentService(paymentStore, charger, loc)
	customerService := services.NewCustomerService(customerStore)
	reminderService := services.NewReminderService(
		contractStore, customerStore, paymentStore, reminderStore,
		billingService, paymentService, gateway, qrPublisher, loc, cfg.SupportPhone)

	msgRouter := whatsapp.NewRouter(
		customerService, contractStore, billingService, paymentService,
		gateway, qrPublisher, cfg.SupportPhone)

	// WaitGroup for managing goroutines
	var wg sync.WaitGroup

	var apiSrv *http.Server
	var taskSrv *asynq.Server
	var scheduler *asynq.Scheduler

	fmt.Printf("Starting application in '%s' mode...\n", cfg.RunMode)

	apiMode := func() {
		fmt.Println("Starting API server...")
		router := api.SetupRouter(cfg, msgRouter, gateway, gateway, customerStore, reminderService, emailSender)
		apiSrv = &http.Server{
			Addr:    ":" + cfg.ApiPort,
			Handler: router,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			fmt.Printf("API listening on :%s\n", cfg.ApiPort)
			if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("API ListenAndServe error: %v", err)
			}
			fmt.Println("API server stopped.")
		}()
	}

	bgMode := func() {
		fmt.Println("Starting reminder worker...")
		processor := tasks.NewTaskProcessor(cfg, reminderService)
		srv, mux := tasks.SetupServer(redisClient, processor)
		taskSrv = srv
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := taskSrv.Run(mux); err != nil {
				log.Fatalf("Task server error: %v", err)
			}
			fmt.Println("Task server stopped.")
		}()

		sched, err := tasks.SetupScheduler(redisClient, cfg)
		if err != nil {
			log.Fatalf("Failed to set up reminder scheduler: %v", err)
		}
		scheduler = sched
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := scheduler.Run(); err != nil {
				log.Fatalf("Scheduler error: %v", err)
			}
			fmt.Println("Scheduler stopped.")
		}()
	}

	switch cfg.RunMode {
	case "api":
		apiMode()
	case "bg":
		bgMode()
	case "all":
		apiMode()
		bgMode()
	default:
		log.Fatalf("Invalid run mode specified: %s.", cfg.RunMode)
	}

	// Keep-alive self-ping so free-tier hosting does not idle the service
	keepAliveStop := make(chan struct{})
	if cfg.KeepAliveURL != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runKeepAlive(cfg.KeepAliveURL, keepAliveStop)
		}()
	}

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	fmt.Printf("\nReceived signal: %s. Shutting down gracefully...\n", sig)

	close(keepAliveStop)

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if apiSrv != nil {
		fmt.Println("Shutting down API server...")
		if err := apiSrv.Shutdown(ctxShutdown); err != nil {
			log.Printf("API server shutdown error: %v", err)
		}
	}
	if scheduler != nil {
		fmt.Println("Shutting down scheduler...")
		scheduler.Shutdown()
	}
	if taskSrv != nil {
		fmt.Println("Shutting down task server...")
		taskSrv.Shutdown()
	}

	fmt.Println("Waiting for servers to stop...")
	wg.Wait()

	fmt.Println("Server gracefully stopped")
}

// runKeepAlive pings the public URL every 14 minutes until stop closes.
// Render's free tier idles services after 15 minutes without traffic.
func runKeepAlive(url string, stop <-chan struct{}) {
	ticker := time.NewTicker(14 * time.Minute)
	defer ticker.Stop()
	client := &http.Client{Timeout: 30 * time.Second}
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			resp, err := client.Get(url)
			if err != nil {
				log.Printf("Keep-alive ping failed: %v", err)
				continue
			}
			resp.Body.Close()
		}
	}
}
