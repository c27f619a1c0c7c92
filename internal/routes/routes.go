package routes

import (
	"github.com/gin-gonic/gin"

	"devscope/internal/handlers"
	"devscope/internal/middleware"
)

// SetupRouter builds the gin engine with CORS, the control API and the
// websocket endpoint.
func SetupRouter(h *handlers.Handler, allowedOrigins []string, limiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.Any("/health", func(c *gin.Context) {
		c.String(200, "ok")
	})

	r.Use(cors(allowedOrigins))

	r.GET("/ws", h.ServeWS)

	api := r.Group("/api")
	SetupBotRoutes(api, h)
	SetupListRoutes(api, h)
	SetupTokenRoutes(api, h, limiter)
	SetupDemoRoutes(api, h, limiter)
	SetupBrowserRoutes(api, h, limiter)

	return r
}

func cors(allowedOrigins []string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowed[origin] {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, Origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "Content-Length")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// limited returns the rate limit middleware, or a no-op without a limiter.
func limited(limiter *middleware.RateLimiter) gin.HandlerFunc {
	if limiter == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return limiter.Middleware()
}
