package webhook

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AliMahmood99/real-estate-chatbot/platform/config"
	"github.com/AliMahmood99/real-estate-chatbot/platform/logger"
)

type Handler struct {
	service     *Service
	verifyToken string
	log         *logger.Logger
}

func NewHandler(service *Service, cfg config.MetaConfig, log *logger.Logger) *Handler {
	return &Handler{service: service, verifyToken: cfg.GetMetaVerifyToken(), log: log}
}

// Verify answers Meta's subscription handshake. The challenge echoes back as
// plain text, not JSON; Meta compares it byte for byte.
func (h *Handler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode != "subscribe" || token != h.verifyToken {
		h.log.Warn("webhook verification rejected", "mode", mode)
		c.String(http.StatusForbidden, "verification failed")
		return
	}
	c.String(http.StatusOK, challenge)
}

// Receive accepts webhook deliveries. It always acks with 200 once the body
// is read: a non-200 makes Meta redeliver, and every payload-level problem is
// already handled by dropping.
func (h *Handler) Receive(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		h.log.Warn("failed to read webhook body", "error", err)
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	accepted, dropped := h.service.Receive(c.Request.Context(), raw)
	c.JSON(http.StatusOK, gin.H{"status": "ok", "accepted": accepted, "dropped": dropped})
}
