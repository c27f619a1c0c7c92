package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"devscope/internal/models"
	"devscope/internal/store"
)

// ListUsedCommunities returns every community recorded in the ledger.
func (h *Handler) ListUsedCommunities(c *gin.Context) {
	records, err := h.Dispatcher.Ledger.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"communities": records})
}

// RemoveUsedCommunity lets a community trigger again.
func (h *Handler) RemoveUsedCommunity(c *gin.Context) {
	id := c.Param("communityId")
	if err := h.Dispatcher.Ledger.Remove(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Community " + id + " removed"})
}

// ClearUsedCommunities empties the ledger.
func (h *Handler) ClearUsedCommunities(c *gin.Context) {
	n, err := h.Dispatcher.Ledger.Clear(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "All used communities cleared",
		"clearedCount": n,
	})
}

// TestStore writes a document to the test collection.
func (h *Handler) TestStore(c *gin.Context) {
	now := h.now().UTC()
	key := now.Format("20060102T150405.000000000")
	err := h.Store.Put(c.Request.Context(), store.CollectionTest, key, models.JSONMap{
		"message":   "Store connected successfully!",
		"timestamp": now.Format("2006-01-02T15:04:05Z07:00"),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Store connected!", "docId": key})
}
