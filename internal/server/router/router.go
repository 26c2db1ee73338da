package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/caltrack/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(handler *handlers.Handler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.MaxMultipartMemory = 8 << 20
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.POST("/profile", handler.Onboard)
	api.GET("/profile", handler.GetProfile)
	api.GET("/dashboard", handler.Dashboard)
	api.POST("/reset", handler.Reset)

	api.POST("/foods/evaluate", handler.Evaluate)
	api.POST("/foods/recognize", handler.Recognize)

	api.POST("/entries", handler.AddEntry)
	api.DELETE("/entries/:timestamp", handler.DeleteEntry)
	api.POST("/entries/reset-today", handler.ResetToday)

	api.GET("/summary", handler.Summary)
	api.POST("/summary/export", handler.ExportSummary)

	if logger != nil {
		logger.Info("router initialized")
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
