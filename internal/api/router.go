package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"estatehub/marketplace/internal/api/handlers"
	"estatehub/marketplace/internal/api/middleware"
	"estatehub/marketplace/internal/config"
	"estatehub/marketplace/internal/logger"
	"estatehub/marketplace/internal/services"
	"estatehub/marketplace/internal/utils"
)

// ReconcileEnqueuer schedules reconciliation work on demand.
type ReconcileEnqueuer interface {
	services.TaskEnqueuer
	EnqueueReconcileSweep(ctx context.Context) (string, error)
}

// SetupRouter configures and returns the main Gin engine.
// ctx bounds the lifetime of the rate limiter's background cleanup.
func SetupRouter(ctx context.Context, cfg *config.Config, bookingService services.IBookingService, notificationService services.INotificationService) *gin.Engine {
	handlers.RegisterValidators()

	r := gin.New()

	rateLimiter := middleware.NewRateLimiterMiddleware(ctx, cfg)

	// Apply global middleware first (order matters)
	r.Use(gin.Recovery())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.CORSMiddleware(cfg.CorsAllowedOrigins))
	r.Use(rateLimiter.Limit())

	bookingHandler := handlers.NewBookingHandler(bookingService)
	notificationHandler := handlers.NewNotificationHandler(bookingService, notificationService)

	r.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	authRequired := r.Group("/")
	authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
	{
		property := authRequired.Group("/property")
		property.POST("/buy-now", bookingHandler.BuyNow)
		property.GET("/my/bookings", bookingHandler.MyBookings)
		property.POST("/my/bookings/cancel", bookingHandler.CancelBooking)
		property.GET("/my/property/manage", bookingHandler.ManagedProperties)
		property.POST("/my/property/manage/status", bookingHandler.UpdateStatus)

		notification := authRequired.Group("/notification")
		notification.POST("/chat", notificationHandler.Chat)
		notification.POST("/message", notificationHandler.Message)
		notification.GET("/list", notificationHandler.List)
		notification.POST("/update", notificationHandler.Update)
	}

	return r
}

// SetupServiceRouter configures and returns the service Gin engine.
// It is meant for the private network only: it carries no authentication.
func SetupServiceRouter(reconciler ReconcileEnqueuer, shutdownChan chan<- struct{}) *gin.Engine {
	log := logger.WithModule("service_api")

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			log.Info("received shutdown command via service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
			default:
				log.Warn("shutdown channel already signaled")
			}

		case "reconcile":
			// Arguments: [] sweeps every finalized property, ["<propertyId>"] repairs one.
			var args []string
			if len(req.Arguments) > 0 {
				if err := json.Unmarshal(req.Arguments, &args); err != nil || len(args) > 1 {
					c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid arguments: expected JSON array [propertyId?]"})
					return
				}
			}

			if len(args) == 1 {
				propertyID, err := utils.ParseSixID(args[0])
				if err != nil || propertyID.IsZero() {
					c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid property id"})
					return
				}
				if err := reconciler.EnqueuePropertyReconcile(c.Request.Context(), propertyID); err != nil {
					log.Error("failed to enqueue property reconcile", zap.Error(err))
					c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to enqueue reconcile"})
					return
				}
				c.JSON(http.StatusOK, gin.H{"success": true, "result": "Reconcile enqueued for " + propertyID.String()})
				return
			}

			taskID, err := reconciler.EnqueueReconcileSweep(c.Request.Context())
			if err != nil {
				log.Error("failed to enqueue reconcile sweep", zap.Error(err))
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to enqueue reconcile"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "result": taskID})

		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Unknown service method: %s", req.Method)})
		}
	})
	return r
}
