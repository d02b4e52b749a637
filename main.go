package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xiao99xiao/bookme-sub003/config"
	"github.com/xiao99xiao/bookme-sub003/database"
	bookingRepo "github.com/xiao99xiao/bookme-sub003/database/repository/booking"
	catalogRepo "github.com/xiao99xiao/bookme-sub003/database/repository/catalog"
	conversationRepo "github.com/xiao99xiao/bookme-sub003/database/repository/conversation"
	rescheduleRepo "github.com/xiao99xiao/bookme-sub003/database/repository/reschedule"
	reviewRepo "github.com/xiao99xiao/bookme-sub003/database/repository/review"
	"github.com/xiao99xiao/bookme-sub003/handlers"
	"github.com/xiao99xiao/bookme-sub003/middleware"
	"github.com/xiao99xiao/bookme-sub003/routes"
	"github.com/xiao99xiao/bookme-sub003/services/booking"
	"github.com/xiao99xiao/bookme-sub003/services/chat"
	"github.com/xiao99xiao/bookme-sub003/services/notification"
	"github.com/xiao99xiao/bookme-sub003/services/settlement"
	"github.com/xiao99xiao/bookme-sub003/utils"
	"github.com/xiao99xiao/bookme-sub003/workers"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitRedis()
	utils.FirebaseInit()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())
	stripe.Key = config.AppConfig.StripeKey

	// repositories.
	bookings := bookingRepo.NewMongoBookingRepo()
	reschedules := rescheduleRepo.NewMongoRescheduleRepo()
	catalog := catalogRepo.NewMongoCatalogRepo()
	reviews := reviewRepo.NewMongoReviewRepo()
	conversations := conversationRepo.NewMongoConversationRepo()

	// services.
	notificationService, err := notification.NewDefaultNotificationService(catalog)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize notification service: %v", err)
	}

	var settlementService settlement.SettlementService
	if config.AppConfig.StripeKey != "" {
		settlementService = settlement.NewStripeSettlement()
	} else {
		settlementService = settlement.NewLogSettlement()
	}

	taskScheduler := workers.NewAsynqScheduler()
	defer taskScheduler.Close()

	lifecycleService := &booking.DefaultLifecycleService{
		Repo:             bookings,
		Reschedules:      reschedules,
		Catalog:          catalog,
		Reviews:          reviews,
		Settlement:       settlementService,
		Notifier:         notificationService,
		Tasks:            taskScheduler,
		Cache:            utils.GetCacheClient(),
		RescheduleWindow: time.Duration(config.AppConfig.RescheduleWindowHours) * time.Hour,
		Logger:           logger,
	}

	chatTransport := chat.NewRedisTransport(utils.PubSubClient)
	chatService := &chat.DefaultChatService{
		Repo:      conversations,
		Transport: chatTransport,
		Notifier:  notificationService,
		Logger:    logger,
	}

	bookingHandler := handlers.NewBookingHandler(lifecycleService, logger)
	chatHandler := handlers.NewChatHandler(chatService, logger)
	chatGateway := handlers.NewChatGateway(chatService, chatTransport, logger)

	handlerBundle := &handlers.HandlerBundle{
		Booking: bookingHandler,
		Chat:    chatHandler,
		Gateway: chatGateway,
	}

	routes.RegisterRoutes(router, handlerBundle)

	// Background worker for reschedule expiries and booking auto-starts.
	workers.InitLifecycleWorker(lifecycleService)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
