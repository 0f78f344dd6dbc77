package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pedcastr/papa-tango-whatsapp-bot/internal/whatsapp"
)

// MessageRouter dispatches one inbound chat message to the billing flows.
type MessageRouter interface {
	Handle(ctx context.Context, msg *whatsapp.InboundMessage) error
}

// WebhookHandler receives inbound message events from the WhatsApp gateway.
type WebhookHandler struct {
	router MessageRouter
}

func NewWebhookHandler(router MessageRouter) *WebhookHandler {
	return &WebhookHandler{router: router}
}

// HandleEvent handles POST /webhook. The gateway posts every session event
// here; only message events are routed, everything else is acknowledged
// and dropped.
func (h *WebhookHandler) HandleEvent(c *gin.Context) {
	var msg whatsapp.InboundMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid event payload"})
		return
	}

	if msg.Event != "" && msg.Event != "onmessage" {
		c.JSON(http.StatusOK, gin.H{"success": true, "ignored": true})
		return
	}

	if err := h.router.Handle(c.Request.Context(), &msg); err != nil {
		// The router already answered the customer where it could; a
		// webhook retry would re-process the same message.
		log.Printf("Webhook message handling failed (from=%s): %v", msg.From, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to process message"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}
