package bootstrap

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	httpHandler "clov-canvas/internal/handler/http"
	wsHandler "clov-canvas/internal/handler/websocket"
	"clov-canvas/internal/middleware"
	"clov-canvas/internal/service"
)

func newRouter(
	cfg *Config,
	log *logrus.Logger,
	redisClient *redis.Client,
	tokens *service.TokenService,
	roomHandler *httpHandler.RoomHandler,
	ws *wsHandler.WebSocketHandler,
) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(log))
	router.Use(CORS(cfg.CORSAllowedOrigin))

	auth := middleware.RoomAuth(tokens)

	api := router.Group("/api/v1")
	api.Use(middleware.RateLimit(redisClient, cfg.KeyPrefix, cfg.RateLimitMax, cfg.RateLimitWindow))
	api.GET("/backgrounds", roomHandler.ListBackgrounds)
	rooms := api.Group("/rooms")
	{
		rooms.POST("", roomHandler.CreateRoom)
		rooms.GET("/:roomCode", roomHandler.GetRoom)
		rooms.POST("/:roomCode/participants", roomHandler.JoinRoom)
		rooms.GET("/:roomCode/participants", roomHandler.ListParticipants)
		rooms.DELETE("/:roomCode/participants/:clientId", auth, roomHandler.LeaveRoom)
		rooms.PATCH("/:roomCode/host", auth, roomHandler.ChangeHost)
	}

	router.GET("/ws", auth, ws.HandleConnection)
	router.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "pong"}) })
	return router
}

// CORS sets the cross-origin headers and answers preflight requests.
func CORS(allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", allowedOrigin)
		h.Set("Access-Control-Allow-Credentials", "true")
		h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// LoggerMiddleware logs one line per request.
func LoggerMiddleware(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()
		latency := time.Since(startTime)
		statusCode := c.Writer.Status()

		// The query may carry a session token.
		entry := log.WithFields(logrus.Fields{
			"status_code": statusCode,
			"latency_ms":  latency.Milliseconds(),
			"client_ip":   c.ClientIP(),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
		})

		if errorMessage := c.Errors.ByType(gin.ErrorTypePrivate).String(); errorMessage != "" {
			entry.Error(errorMessage)
			return
		}
		switch {
		case statusCode >= 500:
			entry.Error("Server error")
		case statusCode >= 400:
			entry.Warn("Client error")
		default:
			entry.Info("Request handled")
		}
	}
}
