package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"aegis-ledger/internal/service"
)

// NewRouter configura el router de Gin con middlewares y rutas del ledger.
func NewRouter(
	logger *zap.Logger,
	tokenSvc *service.TokenService,
	ledgerH *LedgerHandler,
	chatH *ChatHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery, rol y JSON content-type.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), RoleMiddleware(tokenSvc), jsonContentTypeMiddleware())

	r.GET("/healthz", ledgerH.Health)

	api := r.Group("/api")
	api.POST("/sessions", ledgerH.CreateSession)
	api.GET("/sessions", ledgerH.ListSessions)
	api.GET("/sessions/:id", ledgerH.GetSession)
	api.PATCH("/sessions/:id", ledgerH.RenameSession)
	api.POST("/sessions/:id/activate", ledgerH.ActivateSession)
	api.DELETE("/sessions/:id", ledgerH.DeleteSession)
	api.POST("/sessions/:id/messages", chatH.SubmitMessage)
	api.GET("/export", ledgerH.Export)
	api.GET("/profile/name", ledgerH.GetUserName)
	api.PUT("/profile/name", ledgerH.SetUserName)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}
