package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"devscope/internal/bot"
	"devscope/pkg/trade"
)

// ListDetected returns the detected tokens, newest first.
func (h *Handler) ListDetected(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tokens": h.Dispatcher.Cache.List()})
}

func (h *Handler) ClearDetected(c *gin.Context) {
	h.Dispatcher.Cache.Clear()
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Detected tokens cleared"})
}

// SnipeDetected buys a detected token with the entry that matched it.
func (h *Handler) SnipeDetected(c *gin.Context) {
	res, err := h.Dispatcher.SnipeDetected(c.Request.Context(), c.Param("tokenAddress"))
	switch {
	case errors.Is(err, bot.ErrTokenNotDetected):
		c.JSON(http.StatusNotFound, gin.H{"error": "Token not found in detected list"})
		return
	case errors.Is(err, bot.ErrNoSnipeConfig):
		c.JSON(http.StatusBadRequest, gin.H{"error": "No snipe configuration available for this token"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	snipeResponse(c, res)
}

// SnipeWithGlobalSettings buys any token with the global snipe settings.
func (h *Handler) SnipeWithGlobalSettings(c *gin.Context) {
	res := h.Dispatcher.Snipe(c.Request.Context(), c.Param("tokenAddress"), h.State.GlobalSnipe())
	snipeResponse(c, res)
}

func snipeResponse(c *gin.Context, res bot.SnipeResult) {
	if !res.Success {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "result": res})
}

// PairAddress looks up the DexScreener pair of a token and its Axiom page.
func (h *Handler) PairAddress(c *gin.Context) {
	mint := c.Param("tokenAddress")
	if mint == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token address is required"})
		return
	}

	pair, err := h.Pairs.PairFor(c.Request.Context(), mint)
	if err != nil {
		log.WithFields(log.Fields{
			"token_address": mint,
			"error":         err.Error(),
		}).Error("Pair lookup failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":          false,
			"error":            err.Error(),
			"fallbackAxiomUrl": trade.AxiomURL(mint),
		})
		return
	}
	if pair == nil {
		c.JSON(http.StatusOK, gin.H{
			"success":          false,
			"tokenAddress":     mint,
			"message":          "No pair found for this token",
			"fallbackAxiomUrl": trade.AxiomURL(mint),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"tokenAddress":   mint,
		"pairData":       pair,
		"axiomUrl":       trade.AxiomURL(pair.PairAddress),
		"dexScreenerUrl": pair.URL,
	})
}
