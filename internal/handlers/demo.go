package handlers

import (
	"math/rand"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"devscope/internal/admins"
	"devscope/internal/bot"
)

func (h *Handler) requireRunning(c *gin.Context) bool {
	if !h.State.Running() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Bot must be running to inject demo tokens"})
		return false
	}
	return true
}

// DemoTemplates lists the demo token templates and wallets.
func (h *Handler) DemoTemplates(c *gin.Context) {
	templates := make([]gin.H, 0, len(bot.DemoTemplates))
	for i, t := range bot.DemoTemplates {
		templates = append(templates, gin.H{
			"index":         i,
			"name":          t.Name,
			"symbol":        t.Symbol,
			"platform":      t.Platform,
			"twitterHandle": t.TwitterHandle,
		})
	}
	c.JSON(http.StatusOK, gin.H{"templates": templates, "wallets": bot.DemoWallets})
}

// InjectDemoToken feeds one synthetic token through the pipeline.
func (h *Handler) InjectDemoToken(c *gin.Context) {
	if !h.requireRunning(c) {
		return
	}

	var opts bot.DemoOptions
	if err := c.ShouldBindJSON(&opts); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ev, tmpl, err := bot.BuildDemoToken(opts)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	log.WithFields(log.Fields{
		"token_address": ev.Mint,
		"platform":      tmpl.Platform,
	}).Info("Injecting demo token")
	h.Dispatcher.HandleToken(ev, tmpl.Platform)

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Demo token injected",
		"tokenData": ev.Raw,
	})
}

type batchRequest struct {
	Count *int `json:"count"`
	Delay *int `json:"delay"`
}

// InjectDemoBatch feeds several random synthetic tokens with a delay
// between them.
func (h *Handler) InjectDemoBatch(c *gin.Context) {
	if !h.requireRunning(c) {
		return
	}

	var req batchRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	count, delay := 5, 2000
	if req.Count != nil {
		count = *req.Count
	}
	if req.Delay != nil {
		delay = *req.Delay
	}
	if count < 1 || count > 100 || delay < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "count must be 1-100 and delay non-negative"})
		return
	}

	h.Dispatcher.InjectBatch(count, time.Duration(delay)*time.Millisecond)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Injecting demo tokens",
		"count":   count,
		"delayMs": delay,
	})
}

type fromListRequest struct {
	ListType      string `json:"listType"`
	TemplateIndex int    `json:"templateIndex"`
}

// InjectDemoFromList feeds a token that matches a random allowlist entry.
func (h *Handler) InjectDemoFromList(c *gin.Context) {
	if !h.requireRunning(c) {
		return
	}

	var req fromListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	list, err := admins.ParseListType(req.ListType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid list type"})
		return
	}

	entries := h.Dispatcher.Directory.All(list)
	if len(entries) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No entries in " + list.String() + " list"})
		return
	}
	entry := entries[rand.Intn(len(entries))]

	ev, tmpl, err := bot.DemoFromEntry(entry, req.TemplateIndex)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	h.Dispatcher.HandleToken(ev, tmpl.Platform)

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "Demo token injected using " + list.String() + " entry",
		"usedEntry": entry,
		"tokenData": ev.Raw,
	})
}
