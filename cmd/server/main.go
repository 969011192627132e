package main // Entry point package

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/rentease/rentease-server/internal/config"
	"github.com/rentease/rentease-server/internal/database"
	"github.com/rentease/rentease-server/internal/handler"
	"github.com/rentease/rentease-server/internal/queue"
	"github.com/rentease/rentease-server/internal/repository"
	"github.com/rentease/rentease-server/internal/router"
	"github.com/rentease/rentease-server/internal/service"
)

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil disables rate limiting and caching
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and caching disabled")
	}

	// repositories
	store := repository.NewStore(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	wishlist := repository.NewWishlistRepo(db)
	reviews := repository.NewReviewRepo(db)
	notifications := repository.NewNotificationRepo(db)
	analytics := repository.NewAnalyticsRepo(db)

	// event pipeline
	var events service.EventPublisher
	if cfg.RabbitURL != "" {
		events = queue.NewPublisher(cfg.RabbitURL)
		go func() {
			if err := queue.StartConsumer(cfg.RabbitURL, notifications); err != nil {
				log.Printf("event consumer stopped: %v", err)
			}
		}()
	} else {
		log.Println("RABBITMQ_URL not set; domain events disabled")
	}

	// services
	svcStore := service.NewSQLStore(store)
	engine := service.NewEngine(svcStore, events, time.Now)
	payments := service.NewPayments(svcStore, events, time.Now,
		time.Duration(cfg.PaymentTTLMin)*time.Minute,
		service.PlatformAccount{Number: cfg.PlatformAcct, MerchantName: cfg.MerchantName})

	h := router.Handlers{
		Auth:          handler.NewAuthHandler(cfg, users, tokens),
		Properties:    handler.NewPropertyHandler(store.Properties, reviews),
		Bookings:      handler.NewBookingHandler(engine, store.Bookings),
		Payments:      handler.NewPaymentHandler(payments),
		Wishlist:      handler.NewWishlistHandler(wishlist, store.Properties),
		Reviews:       handler.NewReviewHandler(reviews, store.Bookings, store.Properties),
		Notifications: handler.NewNotificationHandler(notifications),
		Admin:         handler.NewAdminHandler(payments, users, store.Properties, analytics),
	}

	e := echo.New()
	e.HideBanner = true
	router.Register(e, h, cfg, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
