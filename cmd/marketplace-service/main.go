package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	goredis "github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-marketplace/internal/approval"
	approval_api "ms-marketplace/internal/approval/api"
	approval_db "ms-marketplace/internal/approval/db"
	"ms-marketplace/internal/auth"
	"ms-marketplace/internal/catalog"
	catalog_api "ms-marketplace/internal/catalog/api"
	catalog_db "ms-marketplace/internal/catalog/db"
	"ms-marketplace/internal/config"
	"ms-marketplace/internal/database/migrations"
	"ms-marketplace/internal/inventory"
	inventory_redis "ms-marketplace/internal/inventory/redis"
	"ms-marketplace/internal/kafka"
	"ms-marketplace/internal/logger"
	"ms-marketplace/internal/order"
	order_api "ms-marketplace/internal/order/api"
	order_db "ms-marketplace/internal/order/db"
	order_kafka "ms-marketplace/internal/order/kafka"
	"ms-marketplace/internal/pricing"
	"ms-marketplace/internal/reporting"
	reporting_api "ms-marketplace/internal/reporting/api"
	reporting_db "ms-marketplace/internal/reporting/db"
	"ms-marketplace/internal/tickets"
	tickets_api "ms-marketplace/internal/tickets/api"
	"ms-marketplace/internal/tickets/qr"
	"ms-marketplace/internal/utils"
)

func verifyConnections(ctx context.Context, cfg *config.Config, log *logger.Logger) (*bun.DB, *goredis.Client) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		cfg.Database.Username, cfg.Database.Password,
		cfg.Database.Host, cfg.Database.Port,
		cfg.Database.Database, cfg.Database.SSLMode)

	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", dsn)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.Database.MaxLifetime)
	log.Info("DATABASE", "✅ PostgreSQL connection successful")

	bunDB := bun.NewDB(sqldb, pgdialect.New())

	redisClient := goredis.NewClient(&goredis.Options{
		Addr: cfg.Redis.Addr,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Redis connection error: %v", err))
	}
	log.Info("DATABASE", fmt.Sprintf("✅ Redis connection successful to %s", cfg.Redis.Addr))

	return bunDB, redisClient
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Marketplace Service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()
	ctx := context.Background()

	log.Info("APP", "Verifying database connections")
	bunDB, redisClient := verifyConnections(ctx, cfg, log)
	defer bunDB.Close()
	defer redisClient.Close()

	runner := migrations.NewRunner(bunDB, migrations.DefaultOptions(), log)
	if err := runner.RunMigrations(); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
	}
	log.Info("DATABASE", "✅ Schema migrations applied")

	if cfg.Kafka.Enabled {
		requiredTopics := []string{
			cfg.Kafka.Topics.OrderCreated,
			cfg.Kafka.Topics.OrderConfirmed,
			cfg.Kafka.Topics.OrderCancelled,
			cfg.Kafka.Topics.OrderRefunded,
			cfg.Kafka.Topics.OrganizerApproved,
			cfg.Kafka.Topics.EventApproval,
		}
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, requiredTopics); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		} else {
			log.Info("KAFKA", "Required topics ensured successfully")
		}
	}

	pricingEngine := pricing.NewEngine(cfg.Pricing)

	holds := inventory_redis.NewHolds(redisClient)
	ledger := inventory.NewLedger(bunDB, holds, log, cfg.Reservation)

	orderProducer := order_kafka.NewProducer(cfg.Kafka)
	defer orderProducer.Close()
	organizerProducer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.OrganizerApproved)
	defer organizerProducer.Close()
	eventApprovalProducer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.EventApproval)
	defer eventApprovalProducer.Close()
	log.Info("KAFKA", "Kafka producers initialized successfully")

	catalogService := catalog.NewService(&catalog_db.DB{Bun: bunDB}, log)
	ticketService := tickets.NewService(&tickets.DB{Bun: bunDB}, qr.NewGenerator(cfg.Auth.QRSecret), log)
	orderService := order.NewService(
		&order_db.DB{Bun: bunDB},
		ledger,
		ticketService,
		orderProducer,
		pricingEngine,
		log,
		cfg.Pricing.RefundWindowDays,
		cfg.Reservation.HoldTTL,
	)
	approvalService := approval.NewService(&approval_db.DB{Bun: bunDB}, organizerProducer, eventApprovalProducer, log)
	reportingService := reporting.NewService(&reporting_db.DB{Bun: bunDB}, pricingEngine, log)

	catalogHandler := catalog_api.NewHandler(catalogService, log)
	orderHandler := order_api.NewHandler(orderService, log, cfg.Reservation.HoldTTL)
	ticketHandler := tickets_api.NewHandler(ticketService, log)
	approvalHandler := approval_api.NewHandler(approvalService, log)
	reportingHandler := reporting_api.NewHandler(reportingService, log)

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	// --- Public Routes ---
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("ok", nil))
	})
	r.Post("/api/v1/organizer-requests", approvalHandler.SubmitOrganizerRequest)
	log.Info("ROUTER", "Public organizer onboarding endpoint registered")

	// --- Protected Routes ---
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(cfg.Auth.JWTSecret))
		log.Info("AUTH", "JWT middleware applied to protected API routes")

		r.Route("/api/v1", func(r chi.Router) {
			r.Route("/events", func(r chi.Router) {
				r.Get("/", catalogHandler.ListEvents)
				r.Get("/{eventId}", catalogHandler.GetEvent)

				r.Group(func(r chi.Router) {
					r.Use(auth.RequireRole(auth.RoleOrganizer, auth.RoleAdmin))
					r.Post("/", catalogHandler.CreateEvent)
					r.Post("/{eventId}/ticket-types", catalogHandler.AddTicketType)
					r.Get("/{eventId}/buyers", reportingHandler.ListBuyers)
					r.Get("/{eventId}/stats", reportingHandler.EventStats)
				})

				r.Group(func(r chi.Router) {
					r.Use(auth.RequireRole(auth.RoleStaff, auth.RoleOrganizer, auth.RoleAdmin))
					r.Get("/{eventId}/attendance", ticketHandler.Attendance)
				})

				r.Group(func(r chi.Router) {
					r.Use(auth.RequireRole(auth.RoleAdmin))
					r.Post("/{eventId}/approve", approvalHandler.ApproveEvent)
					r.Post("/{eventId}/reject", approvalHandler.RejectEvent)
				})

				r.Post("/{eventId}/reserve", orderHandler.Reserve)
				r.Post("/{eventId}/ticket-types/{ticketTypeId}/reserve", orderHandler.Reserve)
			})
			log.Info("ROUTER", "Catalog and reservation routes registered under /api/v1/events")

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(auth.RoleOrganizer, auth.RoleAdmin))
				r.Post("/ticket-types/{ticketTypeId}/batches", catalogHandler.AddBatch)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Get("/{orderId}", orderHandler.GetOrder)
				r.Post("/{orderId}/confirm", orderHandler.ConfirmPayment)
				r.Delete("/{orderId}", orderHandler.CancelOrder)
				r.Post("/{orderId}/refund-request", orderHandler.RequestRefund)
				r.Get("/{orderId}/tickets", ticketHandler.TicketsByOrder)

				r.Group(func(r chi.Router) {
					r.Use(auth.RequireRole(auth.RoleAdmin))
					r.Post("/{orderId}/refund-resolve", orderHandler.ResolveRefund)
				})
			})
			log.Info("ROUTER", "Order routes registered under /api/v1/orders")

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(auth.RoleStaff, auth.RoleAdmin))
				r.Post("/tickets/{ticketId}/check-in", ticketHandler.CheckIn)
				r.Post("/check-in/scan", ticketHandler.ScanQR)
			})
			log.Info("ROUTER", "Check-in routes registered")

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(auth.RoleAdmin))
				r.Get("/organizer-requests", approvalHandler.ListOrganizerRequests)
				r.Post("/organizer-requests/{requestId}/approve", approvalHandler.ApproveOrganizerRequest)
				r.Post("/organizer-requests/{requestId}/reject", approvalHandler.RejectOrganizerRequest)
				r.Post("/organizers/{organizerId}/suspend", approvalHandler.SuspendOrganizer)
				r.Post("/organizers/{organizerId}/reactivate", approvalHandler.ReactivateOrganizer)
			})
			log.Info("ROUTER", "Approval workflow routes registered")

			r.Get("/organizers/{organizerId}/stats", reportingHandler.OrganizerStats)
		})
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	sweeperCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	go orderService.StartSweeper(sweeperCtx, cfg.Reservation.SweepInterval)
	log.Info("SWEEPER", "Reservation expiry sweeper started")

	go func() {
		log.Info("HTTP", fmt.Sprintf("🚀 Marketplace Service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	stopSweeper()
	ctxShutdown, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "✅ Marketplace Service shutdown complete")
	}
}
