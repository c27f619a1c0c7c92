package routes

import (
	"github.com/gin-gonic/gin"

	"devscope/internal/handlers"
)

// SetupListRoutes sets up allowlist and ledger routes.
func SetupListRoutes(api *gin.RouterGroup, h *handlers.Handler) {
	lists := api.Group("/lists")
	{
		lists.GET("/:listType", h.GetList)
		lists.POST("/:listType", h.AddToList)
		lists.DELETE("/:listType/:id", h.RemoveFromList)
	}
	api.POST("/clean-admin-lists", h.CleanLists)

	stored := api.Group("/firebase")
	{
		stored.GET("/admin-lists", h.GetStoredLists)
		stored.POST("/sync-admin-lists", h.SyncLists)
		stored.DELETE("/admin-lists/:listType", h.ClearStoredList)
		stored.GET("/used-communities", h.ListUsedCommunities)
		stored.DELETE("/used-communities", h.ClearUsedCommunities)
		stored.DELETE("/used-communities/:communityId", h.RemoveUsedCommunity)
	}
	api.GET("/test-firebase", h.TestStore)
}
