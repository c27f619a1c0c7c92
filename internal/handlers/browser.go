package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"devscope/internal/resolver"
	"devscope/pkg/browser"
)

// ScraperStatus reports whether the browser is up and logged in.
func (h *Handler) ScraperStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"initialized":   h.Session.Initialized(),
		"sessionActive": h.Session.IsSessionActive(c.Request.Context()),
		"state":         h.Session.State(),
	})
}

// SessionStatus checks the login state against the live site.
func (h *Handler) SessionStatus(c *gin.Context) {
	if !h.Session.Initialized() {
		c.JSON(http.StatusOK, gin.H{
			"initialized": false,
			"loggedIn":    false,
			"message":     "Browser not initialized",
		})
		return
	}

	st := h.Session.CheckSession(c.Request.Context())
	msg := "Please login manually"
	if st.LoggedIn {
		msg = "Session active"
	}
	c.JSON(http.StatusOK, gin.H{
		"initialized": st.Initialized,
		"loggedIn":    st.LoggedIn,
		"state":       st.State,
		"mode":        st.Mode,
		"url":         st.URL,
		"error":       st.Error,
		"message":     msg,
	})
}

// OpenLogin shows the login page in a visible browser.
func (h *Handler) OpenLogin(c *gin.Context) {
	if err := h.Session.OpenLogin(h.ctx); err != nil {
		log.WithError(err).Error("Failed to open login page")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open login page"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login page opened. Please login manually in the browser window.",
	})
}

// Logout signs the browser out.
func (h *Handler) Logout(c *gin.Context) {
	ok, err := h.Session.Logout(c.Request.Context())
	switch {
	case errors.Is(err, browser.ErrNotInitialized):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Browser not initialized"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
	case ok:
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Successfully logged out"})
	default:
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": "Logout encountered issues but session marked as inactive",
		})
	}
}

// ScrapeCommunity reads the moderator roster of a community.
func (h *Handler) ScrapeCommunity(c *gin.Context) {
	id := c.Param("communityId")
	ctx := c.Request.Context()

	if !h.Session.Initialized() {
		if err := h.Session.Init(h.ctx); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to initialize browser"})
			return
		}
	}
	if !h.Session.IsSessionActive(ctx) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": browser.ErrSessionInactive.Error()})
		return
	}

	page, err := h.Session.FetchModeratorRoster(ctx, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	roster, err := resolver.ParseRoster(page)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"communityId": id,
		"admins":      roster,
		"totalAdmins": len(roster),
		"scrapedAt":   h.timestamp(),
	})
}
