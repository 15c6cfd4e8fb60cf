package handler

import (
	"net/http"
	"runtime/debug"
	"time"

	"skipgram-go/internal/controller"
	"skipgram-go/pkg/mcp"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const RequestIDHeader = "X-Request-ID"

// SetupRouter mounts the REST API under /api/v1 and, when mcpServer is not
// nil, the MCP endpoint
func SetupRouter(ngramController *controller.NGramController, mcpServer *mcp.NGramServer, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(CustomRecoveryMiddleware(logger))
	router.Use(RequestIDMiddleware())
	router.Use(LoggerMiddleware(logger))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/corpora", ngramController.ListCorpora)
		v1.PUT("/corpora/:name", ngramController.CreateCorpus)
		v1.GET("/corpora/:name/stats", ngramController.Stats)
		v1.GET("/corpora/:name/files", ngramController.ListFiles)
		v1.POST("/corpora/:name/files", ngramController.AddFile)
		v1.DELETE("/corpora/:name/files", ngramController.RemoveFile)
		v1.POST("/corpora/:name/process", ngramController.ProcessDirectory)
		v1.GET("/corpora/:name/count", ngramController.Count)
		v1.POST("/corpora/:name/ngrams", ngramController.NGrams)
		v1.GET("/corpora/:name/top", ngramController.Top)
		v1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "healthy",
			})
		})
	}

	if mcpServer != nil {
		mcpServer.SetupHTTPRoutes(router)
	}

	return router
}

// RequestIDMiddleware propagates the caller's X-Request-ID or assigns one
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("HTTP Request",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

func CustomRecoveryMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("Panic recovered",
					zap.Any("error", err),
					zap.String("stack", string(debug.Stack())),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
				)
				c.JSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}
