package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"devscope/internal/admins"
)

func listParam(c *gin.Context) (admins.ListType, bool) {
	list, err := admins.ParseListType(c.Param("listType"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid list type"})
		return 0, false
	}
	return list, true
}

// GetList returns the entries of one allowlist, loading the store on first
// use.
func (h *Handler) GetList(c *gin.Context) {
	list, ok := listParam(c)
	if !ok {
		return
	}

	dir := h.Dispatcher.Directory
	if !dir.Loaded() {
		if err := dir.Load(c.Request.Context()); err != nil {
			log.WithError(err).Warn("Failed to load admin lists")
		}
	}

	entries := dir.All(list)
	c.JSON(http.StatusOK, gin.H{
		"list":           entries,
		"firebaseLoaded": dir.Loaded(),
		"count":          len(entries),
	})
}

// AddToList validates and stores a new allowlist entry.
func (h *Handler) AddToList(c *gin.Context) {
	list, ok := listParam(c)
	if !ok {
		return
	}

	var req admins.NewEntry
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.Address) == "" && strings.TrimSpace(req.Username) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Address or username required"})
		return
	}
	if req.Amount <= 0 || req.Fees <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Amount and fees required"})
		return
	}

	entry := h.Dispatcher.Directory.Add(c.Request.Context(), list, req)
	stats := h.Dispatcher.Directory.Stats()

	h.publish("admin_list_updated", map[string]interface{}{
		"listType": list.String(),
		"action":   "added",
		"entry":    entry,
		"stats":    stats,
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"config":  entry,
		"message": "Entry added to " + list.String(),
		"stats":   stats,
	})
}

// RemoveFromList deletes an allowlist entry by id.
func (h *Handler) RemoveFromList(c *gin.Context) {
	list, ok := listParam(c)
	if !ok {
		return
	}
	id := c.Param("id")

	if !h.Dispatcher.Directory.Remove(c.Request.Context(), list, id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Entry not found"})
		return
	}
	stats := h.Dispatcher.Directory.Stats()

	h.publish("admin_list_updated", map[string]interface{}{
		"listType": list.String(),
		"action":   "removed",
		"entryId":  id,
		"stats":    stats,
	})

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Entry removed from " + list.String(),
		"stats":   stats,
	})
}

// CleanLists trims whitespace from stored entry addresses.
func (h *Handler) CleanLists(c *gin.Context) {
	n := h.Dispatcher.Directory.Clean(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Admin lists cleaned successfully",
		"cleaned": n,
	})
}

// GetStoredLists reloads both allowlists from the store and returns them.
func (h *Handler) GetStoredLists(c *gin.Context) {
	dir := h.Dispatcher.Directory
	if err := dir.Load(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	primary, secondary := dir.All(admins.Primary), dir.All(admins.Secondary)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			admins.Primary.String():   primary,
			admins.Secondary.String(): secondary,
		},
		"stats": gin.H{
			"primaryCount":   len(primary),
			"secondaryCount": len(secondary),
		},
	})
}

// SyncLists replaces the in-memory allowlists with the stored ones.
func (h *Handler) SyncLists(c *gin.Context) {
	if err := h.Dispatcher.Directory.Load(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Failed to sync admin lists",
		})
		return
	}

	stats := h.stats()
	h.publish("admin_lists_synced", map[string]interface{}{"stats": stats})
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Admin lists synchronized",
		"stats":   stats,
	})
}

// ClearStoredList deletes every entry of one allowlist.
func (h *Handler) ClearStoredList(c *gin.Context) {
	list, ok := listParam(c)
	if !ok {
		return
	}

	n, err := h.Dispatcher.Directory.Clear(c.Request.Context(), list)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	stats := h.stats()
	h.publish("admin_list_cleared", map[string]interface{}{
		"listType": list.String(),
		"stats":    stats,
	})
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"message":      "All " + list.String() + " cleared",
		"clearedCount": n,
		"stats":        stats,
	})
}
