package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"devscope/internal/bot"
	"devscope/pkg/solana"
)

// Status returns the running flag, masked settings and counters.
func (h *Handler) Status(c *gin.Context) {
	resp := gin.H{
		"isRunning": h.State.Running(),
		"settings":  h.State.PublicSettings(),
		"stats":     h.stats(),
	}
	if h.Feeds != nil {
		resp["platforms"] = h.Feeds.Statuses()
	}
	c.JSON(http.StatusOK, resp)
}

// Start starts the bot and connects the token feeds.
func (h *Handler) Start(c *gin.Context) {
	if err := h.State.Start(); err != nil {
		switch {
		case errors.Is(err, bot.ErrAlreadyRunning):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Bot is already running"})
		case errors.Is(err, bot.ErrNoPrivateKey):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Private key not set"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	if h.Feeds != nil {
		h.Feeds.Start(h.ctx)
	}
	h.publish("bot_status", map[string]interface{}{"isRunning": true})
	log.Info("Bot started")

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Bot started"})
}

// Stop stops the bot, closing feeds and pending reconnects.
func (h *Handler) Stop(c *gin.Context) {
	h.State.Stop()
	if h.Feeds != nil {
		h.Feeds.Stop()
	}
	h.publish("bot_status", map[string]interface{}{"isRunning": false})
	log.Info("Bot stopped")

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Bot stopped"})
}

type settingsRequest struct {
	PrivateKey           string `json:"privateKey"`
	TokenPageDestination string `json:"tokenPageDestination"`
}

// UpdateSettings sets the trading key and the token page destination.
func (h *Handler) UpdateSettings(c *gin.Context) {
	var req settingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.PrivateKey != "" {
		if _, err := solana.ParsePrivateKey(req.PrivateKey); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid private key"})
			return
		}
	}
	if req.TokenPageDestination != "" &&
		req.TokenPageDestination != bot.DestinationNeoBullx && req.TokenPageDestination != bot.DestinationAxiom {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid token page destination"})
		return
	}

	if req.PrivateKey != "" {
		h.State.SetPrivateKey(req.PrivateKey)
	}
	if req.TokenPageDestination != "" {
		h.State.SetTokenPageDestination(req.TokenPageDestination)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "settings": h.State.PublicSettings()})
}

// UpdateFilterSettings applies a partial filter update and explains the
// resulting behaviour.
func (h *Handler) UpdateFilterSettings(c *gin.Context) {
	var req bot.FilterUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filters := h.State.UpdateFilters(req)
	explanation := filters.Explain()
	warnings := filters.Warnings()

	log.WithFields(log.Fields{
		"enable_admin_filter":    filters.EnableAdminFilter,
		"enable_community_reuse": filters.EnableCommunityReuse,
		"snipe_all_tokens":       filters.SnipeAllTokens,
		"detection_only_mode":    filters.DetectionOnlyMode,
	}).Info("Filter settings updated")
	if filters.SnipeAllTokens && !filters.DetectionOnlyMode {
		log.Warn("Detection only mode is off and snipe all tokens is on")
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"settings":    filters,
		"message":     "Filter settings updated successfully",
		"explanation": explanation,
		"warnings":    warnings,
	})

	h.publish("settings_updated", map[string]interface{}{
		"filterSettings": filters,
		"explanation":    explanation,
	})
}

// UpdateGlobalSnipe changes the parameters used for snipe-all trades.
func (h *Handler) UpdateGlobalSnipe(c *gin.Context) {
	var req bot.SnipeUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg := h.State.UpdateGlobalSnipe(req)
	c.JSON(http.StatusOK, gin.H{"success": true, "globalSnipeSettings": cfg})
}

// RPCHealth probes the configured Solana RPC endpoints.
func (h *Handler) RPCHealth(c *gin.Context) {
	if len(h.RPCEndpoints) == 0 {
		c.JSON(http.StatusOK, gin.H{"endpoints": []solana.EndpointHealth{}})
		return
	}
	results := solana.CheckEndpoints(c.Request.Context(), h.RPCEndpoints, 3*time.Second)
	c.JSON(http.StatusOK, gin.H{"endpoints": results})
}
