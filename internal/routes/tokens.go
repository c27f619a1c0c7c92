package routes

import (
	"github.com/gin-gonic/gin"

	"devscope/internal/handlers"
	"devscope/internal/middleware"
)

// SetupTokenRoutes sets up detected token, manual snipe and pair routes.
func SetupTokenRoutes(api *gin.RouterGroup, h *handlers.Handler, limiter *middleware.RateLimiter) {
	detected := api.Group("/detected-tokens")
	{
		detected.GET("", h.ListDetected)
		detected.DELETE("", h.ClearDetected)
		detected.POST("/:tokenAddress/snipe", limited(limiter), h.SnipeDetected)
	}
	api.POST("/snipe-with-global-settings/:tokenAddress", limited(limiter), h.SnipeWithGlobalSettings)
	api.GET("/pair-address/:tokenAddress", h.PairAddress)
}
