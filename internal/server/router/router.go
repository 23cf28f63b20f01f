package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bfall/sawshift/internal/server/handlers"
)

// New wires the Gin engine with required routes and middlewares.
func New(authHandler *handlers.AuthHandler, shiftHandler *handlers.ShiftHandler, historyHandler *handlers.HistoryHandler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	api := r.Group("/api")
	{
		api.POST("/login", authHandler.Login)

		api.GET("/catalog", shiftHandler.Catalog)
		api.GET("/batches", shiftHandler.Batches)

		shift := api.Group("/shift")
		{
			shift.GET("", shiftHandler.Snapshot)
			shift.POST("/board", shiftHandler.SelectBoard)
			shift.POST("/review", shiftHandler.Review)
			shift.POST("/cart", shiftHandler.ApplyDelta)
			shift.DELETE("/cart/:productID", shiftHandler.RemoveProduct)
			shift.POST("/cart/clear", shiftHandler.ClearCart)
			shift.POST("/timings", shiftHandler.SetTimings)
			shift.POST("/save", shiftHandler.Save)
			shift.POST("/next", shiftHandler.NextBoard)
		}

		api.GET("/history", historyHandler.List)
		api.PUT("/history/:boardID", historyHandler.Edit)
		api.GET("/reports/summary", historyHandler.Summary)
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

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
