package handlers

import (
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"devscope/pkg/broadcast"
)

// ServeWS upgrades the request and subscribes it to every broadcast. The
// first message is the bot status.
func (h *Handler) ServeWS(c *gin.Context) {
	greeting := broadcast.Event{
		Type: "bot_status",
		Data: map[string]interface{}{"isRunning": h.State.Running()},
	}
	if err := h.Hub.Serve(c.Writer, c.Request, &greeting); err != nil {
		log.WithError(err).Warn("Websocket upgrade failed")
	}
}
