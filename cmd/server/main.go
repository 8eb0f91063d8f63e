package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/garant/backend/docs"
	"github.com/garant/backend/internal/config"
	"github.com/garant/backend/internal/database"
	"github.com/garant/backend/internal/handlers"
	mW "github.com/garant/backend/internal/middleware"
	"github.com/garant/backend/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger"
)

// @title Garant Escrow API
// @version 1.0
// @description Escrow deals, balances and cheque redemption for the garant bot
// @host localhost:8080
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	// Initialize config
	viper.SetConfigFile(".env") // explicitly point to .env file
	viper.AutomaticEnv()        // allow environment variables to override .env

	viper.BindEnv("database.driver", "DATABASE_DRIVER")
	viper.BindEnv("database.dsn", "DATABASE_DSN")
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.name", "DATABASE_NAME")
	viper.BindEnv("database.ssl_mode", "DATABASE_SSL_MODE")

	viper.BindEnv("redis.enabled", "REDIS_ENABLED")
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")
	viper.BindEnv("redis.db", "REDIS_DB")

	viper.BindEnv("jwt.secret_key", "JWT_SECRET_KEY")
	viper.BindEnv("jwt.expiry_hours", "JWT_EXPIRY_HOURS")
	viper.BindEnv("bot.secret", "BOT_SECRET")
	viper.BindEnv("admin.ids", "ADMIN_IDS")
	viper.BindEnv("server.port", "PORT")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Config file not found, using defaults: %v", err)
	}
	if viper.GetString("jwt.secret_key") == "" {
		log.Fatal("JWT_SECRET_KEY must be set")
	}

	port := viper.GetString("server.port")
	if port == "" {
		port = "8080"
	}

	// Initialize Swagger docs
	docs.SwaggerInfo.Host = "localhost:" + port
	docs.SwaggerInfo.BasePath = "/api/v1"
	docs.SwaggerInfo.Schemes = []string{"http", "https"}

	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	db := database.MustOpen(startCtx, database.GetConfig())
	defer db.Close()

	redisClient := database.InitRedis(startCtx)
	if redisClient != nil {
		defer redisClient.Close()
	}
	cancelStart()

	// Initialize services
	voucherConfig := config.LoadVoucherConfig()
	ledger := services.NewLedgerService(db)
	dealService := services.NewDealService(ledger, config.LoadDealConfig())
	inviteService := services.NewInviteService(dealService, redisClient, config.LoadInviteConfig())
	voucherService := services.NewVoucherService(ledger, services.NewGatewaySessionProvider(voucherConfig), redisClient, voucherConfig)
	authService := services.NewAuthService(ledger, redisClient)

	accountHandler := handlers.NewAccountHandler(ledger)
	dealHandler := handlers.NewDealHandler(dealService, inviteService, ledger)
	paymentHandler := handlers.NewPaymentHandler(ledger, voucherService)
	contentHandler := handlers.NewContentHandler(ledger)

	// Auth middleware checks the logout blacklist in redis when it is enabled
	requireAuth := mW.NewAuthMiddleware(redisClient)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(mW.SecurityHeaders)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	// cheque checks wait on the remote bot for up to voucherConfig.Timeout
	r.Use(middleware.Timeout(voucherConfig.Timeout + 30*time.Second))

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Bot-Secret"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		status := map[string]string{"status": "healthy", "database": "up", "redis": "disabled"}
		if err := db.PingContext(r.Context()); err != nil {
			status["status"], status["database"] = "degraded", "down"
		}
		if redisClient != nil {
			status["redis"] = "up"
			if err := redisClient.Ping(r.Context()).Err(); err != nil {
				status["status"], status["redis"] = "degraded", "down"
			}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status)
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public endpoints (bot secret checked by the handler)
		r.Post("/auth/token", authService.IssueToken)

		// Protected endpoints (auth required)
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Post("/auth/logout", authService.Logout)

			r.Get("/account", accountHandler.GetAccount)
			r.Get("/account/stats", accountHandler.GetStats)
			r.Get("/account/payments", accountHandler.GetPayments)
			r.Put("/account/state", accountHandler.UpdateState)
			r.Get("/users/{username}", accountHandler.FindByUsername)

			r.Post("/deals", dealHandler.CreateDeal)
			r.Get("/deals", dealHandler.ListDeals)
			r.Post("/deals/invites/{code}/accept", dealHandler.AcceptInvite)
			r.Get("/deals/{id}", dealHandler.GetDeal)
			r.Post("/deals/{id}/escrow", dealHandler.Escrow)
			r.Post("/deals/{id}/accept", dealHandler.Accept)
			r.Post("/deals/{id}/close", dealHandler.Close)
			r.Post("/deals/{id}/dispute", dealHandler.Dispute)
			r.Post("/deals/{id}/cancel", dealHandler.Cancel)
			r.Post("/deals/{id}/invite", dealHandler.CreateInvite)
			r.Get("/deals/{id}/messages", dealHandler.ListMessages)
			r.Post("/deals/{id}/messages", dealHandler.AddMessage)

			r.Post("/coupons/redeem", paymentHandler.RedeemCoupon)
			r.Post("/cheques/redeem", paymentHandler.RedeemCheque)

			r.Get("/ads", contentHandler.ListAds)

			// Operator endpoints
			r.Route("/admin", func(r chi.Router) {
				r.Use(mW.RequireAdmin)

				r.Get("/users", accountHandler.ListUsers)
				r.Put("/users/{tg}/balance", accountHandler.AdjustBalance)
				r.Get("/stats", accountHandler.GetDealStats)
				r.Get("/stats/{period}", accountHandler.GetPeriodStats)

				r.Get("/deals/active", dealHandler.ListActive)
				r.Get("/deals/arbitrage", dealHandler.ListArbitrage)
				r.Get("/deals/{id}", dealHandler.AdminGetDeal)
				r.Post("/deals/{id}/resolve", dealHandler.Resolve)

				r.Post("/coupons", paymentHandler.CreateCoupon)
				r.Get("/coupons/{code}", paymentHandler.GetCoupon)
				r.Get("/payments/{id}", paymentHandler.GetPayment)
				r.Put("/payments/{id}/status", paymentHandler.SetPaymentStatus)
				r.Post("/cheques/verify", paymentHandler.VerifyCheque)

				r.Post("/ads", contentHandler.CreateAd)
				r.Put("/ads/{id}", contentHandler.UpdateAdText)
				r.Delete("/ads/{id}", contentHandler.DeleteAd)

				r.Post("/mailings", contentHandler.CreateMailing)
				r.Get("/mailings/due", contentHandler.DueMailings)
				r.Get("/mailings/{id}", contentHandler.GetMailing)
				r.Post("/mailings/{id}/confirm", contentHandler.ConfirmMailing)
				r.Put("/mailings/{id}/status", contentHandler.SetMailingStatus)
				r.Delete("/mailings/{id}", contentHandler.DeleteMailing)
			})
		})
	})

	// Start server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: voucherConfig.Timeout + 45*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Printf("Server starting on :%s", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server stopped")
}
