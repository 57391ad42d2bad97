package handler

import (
	"embed"
	"html/template"
	"net/http"
	"time"

	"assistant-client/internal/config"
	"assistant-client/internal/notify"
	"assistant-client/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

// NewRouter wires every route of the web surface. metrics may be nil.
func NewRouter(cfg *config.Config, chatHandler *ChatHandler, notifier *notify.Center, metrics http.Handler) *gin.Engine {
	router := gin.New()

	router.Use(requestLogger())
	router.Use(gin.CustomRecovery(recoverToNotification(notifier)))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    cfg.CORS.ExposedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           time.Duration(cfg.CORS.MaxAge) * time.Second,
	}))

	router.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"timestamp": time.Now().Unix(),
		})
	})
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	router.GET("/", chatHandler.Index)
	router.POST("/chat", chatHandler.SubmitForm)

	api := router.Group("/api")
	{
		api.POST("/query", chatHandler.Query)
		api.GET("/messages", chatHandler.GetMessages)
		api.GET("/messages/:id", chatHandler.GetMessage)
		api.DELETE("/messages", chatHandler.ClearMessages)
		api.GET("/stats", chatHandler.GetStats)
		api.GET("/status", chatHandler.GetStatus)
		api.GET("/notifications", chatHandler.GetNotifications)
		api.DELETE("/notifications/:id", chatHandler.DismissNotification)
	}

	return router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.WithFields(logger.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Info("request")
	}
}

// recoverToNotification turns a handler panic into a logged, transient
// notification instead of a dead request.
func recoverToNotification(notifier *notify.Center) gin.RecoveryFunc {
	return func(c *gin.Context, recovered interface{}) {
		logger.Errorf("Unhandled panic serving %s: %v", c.Request.URL.Path, recovered)
		notifier.Push(notify.LevelDanger, notify.MsgUnexpected)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": notify.MsgUnexpected})
	}
}
