package routes

import (
	"net/http"
	"time"

	"github.com/xiao99xiao/bookme-sub003/handlers"
	"github.com/xiao99xiao/bookme-sub003/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// RegisterBookingRoutes registers the booking lifecycle endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/bookings")
	{
		api.Use(middleware.JWTAuthMiddleware())

		api.POST("", hb.Booking.CreateBooking)
		api.GET("", hb.Booking.ListBookings)
		api.GET("/:id", hb.Booking.GetBooking)
		api.PATCH("/:id", hb.Booking.TransitionBooking)
		api.DELETE("/:id", hb.Booking.DeleteBooking)

		api.GET("/:id/cancellation-policies", hb.Booking.GetCancellationPolicies)
		api.GET("/:id/refund-breakdown", hb.Booking.GetRefundBreakdown)
		api.POST("/:id/cancel", hb.Booking.CancelBooking)
		api.POST("/:id/reject", hb.Booking.RejectBooking)

		api.POST("/:id/reschedule", hb.Booking.RequestReschedule)
		api.POST("/:id/reschedule/:reqId/resolve", hb.Booking.ResolveReschedule)
		api.DELETE("/:id/reschedule/:reqId", hb.Booking.WithdrawReschedule)

		api.POST("/:id/review", hb.Booking.SubmitReview)
	}
}

// RegisterChatRoutes registers conversation and message endpoints.
func RegisterChatRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/conversations")
	{
		api.Use(middleware.JWTAuthMiddleware())

		api.POST("", hb.Chat.GetOrCreateConversation)
		api.GET("", hb.Chat.ListConversations)
		api.GET("/:id/messages", hb.Chat.GetMessages)
		api.POST("/:id/messages", hb.Chat.SendMessage)
		api.POST("/:id/read", hb.Chat.MarkAsRead)
		api.GET("/:id/ws", hb.Gateway.Subscribe)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "message": "Hi, I'm BookMe"})
	})
}

// RegisterRoutes wires CORS and all route groups onto the engine.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterBookingRoutes(r, hb)
	RegisterChatRoutes(r, hb)
}
