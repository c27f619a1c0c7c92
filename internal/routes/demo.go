package routes

import (
	"github.com/gin-gonic/gin"

	"devscope/internal/handlers"
	"devscope/internal/middleware"
)

// SetupDemoRoutes sets up synthetic token injection routes.
func SetupDemoRoutes(api *gin.RouterGroup, h *handlers.Handler, limiter *middleware.RateLimiter) {
	demo := api.Group("/demo")
	{
		demo.GET("/templates", h.DemoTemplates)
		demo.POST("/inject-token", limited(limiter), h.InjectDemoToken)
		demo.POST("/inject-batch", limited(limiter), h.InjectDemoBatch)
		demo.POST("/inject-from-list", limited(limiter), h.InjectDemoFromList)
	}
}
