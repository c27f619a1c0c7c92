package routes

import (
	"github.com/gin-gonic/gin"

	"devscope/internal/handlers"
)

// SetupBotRoutes sets up lifecycle and settings routes.
func SetupBotRoutes(api *gin.RouterGroup, h *handlers.Handler) {
	api.GET("/status", h.Status)
	api.POST("/start", h.Start)
	api.POST("/stop", h.Stop)
	api.POST("/settings", h.UpdateSettings)
	api.POST("/filter-settings", h.UpdateFilterSettings)
	api.POST("/global-snipe-settings", h.UpdateGlobalSnipe)
	api.GET("/rpc-health", h.RPCHealth)
}
