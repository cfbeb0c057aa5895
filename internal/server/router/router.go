package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/incubator/internal/server/handlers"
)

// Handlers groups the HTTP adapters mounted on the engine. Webhook is nil when
// the WhatsApp channel is disabled; Metrics is nil when no registry is exposed.
type Handlers struct {
	Sessions *handlers.SessionHandler
	Webhook  *handlers.WebhookHandler
	Metrics  http.Handler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if h.Metrics != nil {
		r.GET("/metrics", gin.WrapH(h.Metrics))
	}

	r.GET("/species", h.Sessions.Species)
	sessions := r.Group("/sessions")
	sessions.GET("", h.Sessions.List)
	sessions.POST("", h.Sessions.Create)
	sessions.GET("/:id", h.Sessions.Get)
	sessions.DELETE("/:id", h.Sessions.Delete)

	if h.Webhook != nil {
		r.GET("/webhook", h.Webhook.Verify)
		r.POST("/webhook", h.Webhook.Receive)
		r.POST("/send-message", h.Webhook.SendMessage)
	}

	logger.Info("router initialized", zap.Bool("whatsapp", h.Webhook != nil))
	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("request completed", fields...)
			return
		}
		logger.Info("request completed", fields...)
	}
}
