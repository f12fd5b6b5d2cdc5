package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/pbystrov/directchat-server/internal/auth"
	"github.com/pbystrov/directchat-server/internal/config"
	"github.com/pbystrov/directchat-server/internal/core"
	"github.com/pbystrov/directchat-server/internal/store"
)

// NewServer builds the HTTP server: REST API plus the WebSocket bridge.
func NewServer(hub *core.Hub, authService *auth.Service, st store.Store, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	api := NewAPIHandlers(authService, st, logger)
	ws := NewWSHandler(hub, authService, st, logger)

	router.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	credentials := router.Group("/api", RateLimitMiddleware(cfg.AuthRateLimit))
	credentials.POST("/register", api.Register)
	credentials.POST("/login", api.Login)

	authorized := router.Group("/api", AuthMiddleware(authService, logger))
	authorized.GET("/me", api.Me)
	authorized.GET("/users", api.ListUsers)

	// The WebSocket endpoint authenticates in-handler: browsers cannot
	// attach headers to WS dials, so the token arrives as a query param.
	router.GET("/ws", gin.WrapH(ws))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
