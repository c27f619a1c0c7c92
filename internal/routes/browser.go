package routes

import (
	"github.com/gin-gonic/gin"

	"devscope/internal/handlers"
	"devscope/internal/middleware"
)

// SetupBrowserRoutes sets up browser session routes.
func SetupBrowserRoutes(api *gin.RouterGroup, h *handlers.Handler, limiter *middleware.RateLimiter) {
	api.GET("/twitter-scraper-status", h.ScraperStatus)
	api.GET("/twitter-session-status", h.SessionStatus)
	api.POST("/twitter-open-login", h.OpenLogin)
	api.POST("/twitter-logout", h.Logout)
	api.POST("/scrape-community/:communityId", limited(limiter), h.ScrapeCommunity)
}
