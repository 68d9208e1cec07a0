// server/internal/api/routes/routes.go
package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"waste-collection-api-server/config"
	"waste-collection-api-server/internal/api/handlers"
	"waste-collection-api-server/internal/api/middleware"
	"waste-collection-api-server/internal/auth"
	"waste-collection-api-server/internal/models"
	"waste-collection-api-server/internal/pickup"
	"waste-collection-api-server/internal/socket"
)

// Dependencies groups what the router wires into handlers.
type Dependencies struct {
	Config        config.Config
	Pickups       *pickup.Service
	Images        handlers.ImageStore
	Facilities    handlers.FacilityRepository
	Notifications handlers.NotificationInbox
	Users         handlers.UserDirectory
	Tokens        *auth.Manager
	Hub           *socket.Hub
	Logger        *slog.Logger
}

// SetupRouter builds the gin engine with every API route.
func SetupRouter(deps Dependencies) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(deps.Logger))
	router.Use(cors.New(corsConfig(deps.Config.CORS)))

	pickupHandler := &handlers.PickupHandler{Service: deps.Pickups, Images: deps.Images, Logger: deps.Logger}
	facilityHandler := &handlers.FacilityHandler{Facilities: deps.Facilities, Logger: deps.Logger}
	notificationHandler := &handlers.NotificationHandler{Inbox: deps.Notifications, Logger: deps.Logger}
	userHandler := &handlers.UserHandler{Users: deps.Users, Tokens: deps.Tokens, Logger: deps.Logger}
	webSocketHandler := &handlers.WebSocketHandler{
		Hub:    deps.Hub,
		Tokens: deps.Tokens,
		Upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(deps.Config.CORS.AllowedOrigins),
		},
		Logger: deps.Logger,
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiV1 := router.Group("/api/v1")
	{
		apiV1.GET("/ws", webSocketHandler.ServeWs)

		authed := apiV1.Group("/")
		authed.Use(middleware.Authenticate(deps.Tokens))

		pickups := authed.Group("/pickups")
		{
			pickups.GET("", pickupHandler.ListPickups)
			pickups.GET("/:id", pickupHandler.GetPickup)

			pickups.POST("", middleware.Authorize(models.RoleResident, models.RoleBusiness), pickupHandler.CreatePickup)

			drivers := pickups.Group("/")
			drivers.Use(middleware.Authorize(models.RoleDriver, models.RoleAdmin))
			{
				drivers.POST("/:id/claim", pickupHandler.ClaimPickup)
				drivers.POST("/:id/picked-up", pickupHandler.MarkPickedUp)
				drivers.POST("/:id/complete", pickupHandler.MarkCompleted)
			}

			supervisors := pickups.Group("/")
			supervisors.Use(middleware.Authorize(models.RoleCouncil, models.RoleAdmin))
			{
				supervisors.POST("/:id/assign", pickupHandler.AssignDriver)
			}

			recyclers := pickups.Group("/")
			recyclers.Use(middleware.Authorize(models.RoleRecycler, models.RoleAdmin))
			{
				recyclers.POST("/:id/receive", pickupHandler.ReceivePickup)
				recyclers.POST("/:id/reject", pickupHandler.RejectPickup)
			}

			// Ownership rules for these live in the service.
			pickups.POST("/:id/facility", pickupHandler.AssignFacility)
			pickups.POST("/:id/cancel", pickupHandler.CancelPickup)
		}

		notifications := authed.Group("/notifications")
		{
			notifications.GET("", notificationHandler.GetMyNotifications)
			notifications.POST("/:id/read", notificationHandler.MarkRead)
		}

		authed.GET("/users/me", userHandler.GetMe)

		facilities := authed.Group("/facilities")
		{
			facilities.GET("", facilityHandler.GetAllFacilities)
			facilities.GET("/:id", facilityHandler.GetFacilityByID)
		}

		admin := authed.Group("/admin")
		admin.Use(middleware.Authorize(models.RoleAdmin))
		{
			adminFacilities := admin.Group("/facilities")
			{
				adminFacilities.POST("", facilityHandler.CreateFacility)
				adminFacilities.PUT("/:id", facilityHandler.UpdateFacility)
				adminFacilities.DELETE("/:id", facilityHandler.DeleteFacility)
			}
			admin.POST("/users", userHandler.CreateUser)
		}
	}

	return router
}

func corsConfig(cfg config.CORSConfig) cors.Config {
	c := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) == 0 {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = cfg.AllowedOrigins
	}
	c.AllowHeaders = append(c.AllowHeaders, "Authorization")
	c.MaxAge = 12 * time.Hour
	return c
}

// originChecker mirrors the CORS allow list for websocket handshakes.
func originChecker(allowed []string) func(*http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"userId", c.GetString(middleware.KeyUserID),
		)
	}
}
