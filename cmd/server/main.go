package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/brokealtyapp/tudestinotours-sub001/internal/handlers"
	"github.com/brokealtyapp/tudestinotours-sub001/internal/ledger"
	appMiddleware "github.com/brokealtyapp/tudestinotours-sub001/internal/middleware"
	"github.com/brokealtyapp/tudestinotours-sub001/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Initialize Firebase
	credPath := os.Getenv("FIREBASE_CREDENTIALS_PATH")
	if credPath == "" {
		credPath = "./firebase-service-account.json"
	}

	authClient, err := services.InitFirebase(credPath)
	if err != nil {
		log.Printf("Warning: Firebase initialization failed: %v", err)
		log.Println("Admin auth will not work until valid credentials are provided")
	}

	// Initialize Database
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}

	db, err := services.InitDB(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Redis is optional; without it the dashboard recomputes on every hit
	var cache *services.RedisCache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cache, err = services.NewRedisCache(redisURL)
		if err != nil {
			log.Printf("Warning: Redis initialization failed: %v", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	} else {
		log.Println("Warning: REDIS_URL not set, caching disabled")
	}

	// RabbitMQ is optional; without it ledger events stay local
	publisher := services.NewEventPublisher(os.Getenv("RABBITMQ_URL"))
	if publisher == nil {
		log.Println("Warning: RABBITMQ_URL not set, event publication disabled")
	}

	ledgerSvc := newLedger(db, publisher, cache)
	midtransSvc := services.NewMidtransService()
	paymentSvc := services.NewPaymentService(db, midtransSvc, ledgerSvc)

	// Create Echo instance
	e := echo.New()
	e.HTTPErrorHandler = appMiddleware.CustomErrorHandler

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authClient)
	tourHandler := handlers.NewTourHandler(db)
	reservationHandler := handlers.NewReservationHandler(db, ledgerSvc)
	installmentHandler := handlers.NewInstallmentHandler(db, ledgerSvc)
	paymentHandler := handlers.NewPaymentHandler(db, ledgerSvc, paymentSvc)
	dashboardHandler := handlers.NewDashboardHandler(db, cache)
	preferenceHandler := handlers.NewPreferenceHandler(db)

	// Auth
	e.POST("/api/auth/login", authHandler.HandleLogin)
	e.POST("/api/auth/logout", authHandler.HandleLogout)

	// Public catalog and reservation intake
	e.GET("/api/tours", tourHandler.ListTours)
	e.GET("/api/tours/:slug", tourHandler.GetTour)
	e.POST("/api/reservations", reservationHandler.CreateReservation)

	// Public payment page, addressed by installment UUID
	e.GET("/api/p/:uuid", paymentHandler.ShowInstallment)
	e.POST("/api/p/:uuid/payment-link", paymentHandler.InitiatePayment)
	e.GET("/api/p/:uuid/status", paymentHandler.CheckStatus)
	e.POST("/api/payments/midtrans/callback", paymentHandler.MidtransCallback)

	// Admin routes
	admin := e.Group("/api/admin")
	admin.Use(appMiddleware.RequireAuth(authClient))

	admin.GET("/tours", tourHandler.AdminListTours)
	admin.POST("/tours", tourHandler.CreateTour)
	admin.PUT("/tours/:id", tourHandler.UpdateTour)
	admin.POST("/tours/:id/departures", tourHandler.CreateDeparture)

	admin.GET("/reservations", reservationHandler.AdminListReservations)
	admin.PUT("/reservations/:id/approve", reservationHandler.ApproveReservation)
	admin.PUT("/reservations/:id/cancel", reservationHandler.CancelReservation)
	admin.GET("/reservations/:id/installments", reservationHandler.GetInstallments)
	admin.GET("/reservations/:id/timeline", reservationHandler.GetTimeline)

	admin.GET("/payments/reconciliation", installmentHandler.Reconciliation)
	admin.GET("/payments/calendar", installmentHandler.Calendar)
	admin.PUT("/installments/:id/pay", installmentHandler.MarkPaid)
	admin.POST("/installments/bulk-pay", installmentHandler.BulkMarkPaid)

	admin.GET("/dashboard", dashboardHandler.Dashboard)
	admin.GET("/users/:id/preference", preferenceHandler.GetPreference)
	admin.PUT("/users/:id/preference", preferenceHandler.UpdatePreference)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	e.Logger.Fatal(e.Start(":" + port))
}

// newLedger wires the optional collaborators without handing the ledger a
// typed-nil interface value.
func newLedger(db *gorm.DB, publisher *services.EventPublisher, cache *services.RedisCache) *ledger.Ledger {
	var events ledger.EventPublisher
	if publisher != nil {
		events = publisher
	}
	var invalidator ledger.CacheInvalidator
	if cache != nil {
		invalidator = cache
	}
	return ledger.New(db, events, invalidator)
}
