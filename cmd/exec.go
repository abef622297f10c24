package cmd

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"artistry-hub/config"
	"artistry-hub/internal/handlers"
	"artistry-hub/internal/services"
	"artistry-hub/internal/services/khalti"
	"artistry-hub/internal/store"
	_ "artistry-hub/migrations"
	"artistry-hub/monitoring"
	"artistry-hub/security"
	"artistry-hub/utils"

	"github.com/pocketbase/dbx"
	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	pubnub "github.com/pubnub/go"
	"github.com/redis/go-redis/v9"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	// Initialize PubNub. Without keys we fall back to a no-op notifier
	// so local development does not need an account.
	var notifier services.Notifier = services.NopNotifier{}
	if cfg.PubNubPublishKey != "" && cfg.PubNubSubscribeKey != "" {
		pnConfig := pubnub.NewConfig()
		pnConfig.PublishKey = cfg.PubNubPublishKey
		pnConfig.SubscribeKey = cfg.PubNubSubscribeKey
		pnConfig.SecretKey = cfg.PubNubSecretKey

		notifier = services.NewPubNubNotifier(pubnub.NewPubNub(pnConfig))
	} else {
		slog.Warn("pubnub keys not configured, realtime notifications disabled")
	}

	gateway := khalti.NewClient(&khalti.Config{
		BaseURL:    cfg.KhaltiBaseURL,
		SecretKey:  cfg.KhaltiSecretKey,
		WebsiteURL: cfg.WebsiteURL,
	})

	pb := store.New(app)

	// Initialize services
	paymentService := services.NewPaymentService(redisClient, pb, gateway, notifier, cfg)
	ticketService := services.NewTicketService(pb)
	reviewService := services.NewReviewService(pb)

	// Initialize handlers
	userHandler := handlers.NewUserHandler(app)
	eventHandler := handlers.NewEventHandler(app, cfg)
	ticketHandler := handlers.NewTicketHandler(app, ticketService)
	reviewHandler := handlers.NewReviewHandler(app, reviewService)
	discussionHandler := handlers.NewDiscussionHandler(app, notifier)
	paymentHandler := handlers.NewPaymentHandler(app, paymentService, cfg)
	adminHandler := handlers.NewAdminHandler(app, redisClient)

	rateLimiter := security.NewRateLimiter(redisClient)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: cfg.Environment == "development",
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup graceful shutdown
	go handleShutdown(cancel)

	if cfg.EnableMetrics {
		monitoring.NewMonitor(redisClient)
		go serveMetrics(ctx, cfg.MetricsPort)
	}

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		syncPublishedEventsToRedis(app, redisClient)

		// User endpoints
		e.Router.POST("/api/users/register", userHandler.Register)
		e.Router.POST("/api/users/login", rateLimiter.AntiBot(userHandler.Login))
		e.Router.GET("/api/users/me", userHandler.Me)
		e.Router.PATCH("/api/users/{id}", userHandler.Update)

		// Event endpoints
		e.Router.POST("/api/events", eventHandler.Create)
		e.Router.GET("/api/events", eventHandler.List)
		e.Router.GET("/api/events/{id}", eventHandler.Get)
		e.Router.PATCH("/api/events/{id}", eventHandler.Update)
		e.Router.DELETE("/api/events/{id}", eventHandler.Delete)
		e.Router.POST("/api/events/{id}/banner", eventHandler.UploadBanner)
		e.Router.GET("/api/events/{id}/attendees", eventHandler.Attendees)

		// Ticket endpoints
		e.Router.POST("/api/tickets/rsvp", ticketHandler.RSVP)
		e.Router.GET("/api/tickets/mine", ticketHandler.Mine)
		e.Router.POST("/api/tickets/{id}/approve", ticketHandler.Approve)
		e.Router.POST("/api/tickets/{id}/reject", ticketHandler.Reject)
		e.Router.POST("/api/tickets/{id}/checkin", ticketHandler.CheckIn)

		// Review endpoints
		e.Router.POST("/api/events/{id}/reviews", reviewHandler.Create)
		e.Router.GET("/api/events/{id}/reviews", reviewHandler.List)
		e.Router.DELETE("/api/reviews/{id}", reviewHandler.Delete)

		// Discussion endpoints
		e.Router.POST("/api/events/{id}/discussions", discussionHandler.Post)
		e.Router.GET("/api/events/{id}/discussions", discussionHandler.List)

		// Payment endpoints. The callback is public: the gateway redirects
		// the payer's browser here without our auth token.
		e.Router.POST("/api/payment/initiate", paymentHandler.Initiate)
		e.Router.POST("/api/payment/session", paymentHandler.CreateSession)
		e.Router.GET("/api/payment/callback", rateLimiter.Limit(
			"payment-callback",
			int64(cfg.CallbackRateLimit),
			cfg.CallbackRateWindow,
			paymentHandler.Callback,
		))
		e.Router.GET("/api/payment/{eventId}/status", paymentHandler.Status)

		// Admin endpoints
		e.Router.GET("/api/admin/users", adminHandler.ListUsers)
		e.Router.POST("/api/admin/users/{id}/ban", adminHandler.BanUser)
		e.Router.POST("/api/admin/users/{id}/unban", adminHandler.UnbanUser)
		e.Router.DELETE("/api/admin/users/{id}", adminHandler.DeleteUser)
		e.Router.GET("/api/admin/payment-sessions", adminHandler.PaymentSessions)

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(503, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(200, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		setupEventHooks(app, redisClient)

		return e.Next()
	})

	// Start server
	if err := app.Start(); err != nil {
		log.Fatal(err)
	}
	return nil
}

// syncPublishedEventsToRedis rebuilds the published-events set on boot
// so the metrics sampler and hooks start from the database truth.
func syncPublishedEventsToRedis(app *pocketbase.PocketBase, redisClient *redis.Client) {
	ctx := context.Background()

	var records []dbx.NullStringMap
	if err := app.DB().NewQuery(
		"SELECT id FROM events WHERE date >= datetime('now')",
	).All(&records); err != nil {
		log.Printf("Error fetching published events: %v", err)
		return
	}

	redisClient.Del(ctx, "events:published")

	if len(records) > 0 {
		var eventIDs []interface{}
		for _, record := range records {
			if id := record["id"].String; id != "" {
				eventIDs = append(eventIDs, id)
			}
		}

		if len(eventIDs) > 0 {
			redisClient.SAdd(ctx, "events:published", eventIDs...)
			log.Printf("Synced %d published events to Redis", len(eventIDs))
		}
	}
}

// setupEventHooks keeps the Redis published-events set in step with
// event record writes. Redis failures are logged, never block the write.
func setupEventHooks(app *pocketbase.PocketBase, redisClient *redis.Client) {
	app.OnRecordAfterCreateSuccess("events").BindFunc(func(e *core.RecordEvent) error {
		ctx := context.Background()

		if err := redisClient.SAdd(ctx, "events:published", e.Record.Id).Err(); err != nil {
			slog.Error("failed to add event to published set", "eventID", e.Record.Id, "error", err)
		}
		return e.Next()
	})

	app.OnRecordAfterDeleteSuccess("events").BindFunc(func(e *core.RecordEvent) error {
		ctx := context.Background()

		if err := redisClient.SRem(ctx, "events:published", e.Record.Id).Err(); err != nil {
			slog.Error("failed to remove event from published set", "eventID", e.Record.Id, "error", err)
		}
		return e.Next()
	})
}

// serveMetrics exposes Prometheus metrics on a separate port, kept off
// the public API surface.
func serveMetrics(ctx context.Context, port string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: mux,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	log.Printf("Metrics server listening on :%s", port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("Metrics server error: %v", err)
	}
}

// handleShutdown handles graceful shutdown
func handleShutdown(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received, cleaning up...")
	cancel()
}
