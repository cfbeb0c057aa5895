package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/incubator/internal/domain/models"
	service "github.com/mamadbah2/incubator/internal/service/whatsapp"
)

// WebhookHandler exposes the WhatsApp command channel over HTTP.
type WebhookHandler struct {
	svc    service.MessagingService
	logger *zap.Logger
}

// NewWebhookHandler constructs the WhatsApp HTTP adapter.
func NewWebhookHandler(svc service.MessagingService, logger *zap.Logger) *WebhookHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WebhookHandler{svc: svc, logger: logger}
}

type verifyQuery struct {
	Mode      string `form:"hub.mode"`
	Token     string `form:"hub.verify_token"`
	Challenge string `form:"hub.challenge"`
}

// Verify answers Meta's subscription handshake by echoing hub.challenge.
func (h *WebhookHandler) Verify(c *gin.Context) {
	var q verifyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.String(http.StatusBadRequest, "invalid query")
		return
	}

	challenge, err := h.svc.VerifyWebhookToken(q.Mode, q.Token, q.Challenge)
	if err != nil {
		h.logger.Warn("webhook verification refused", zap.String("mode", q.Mode), zap.Error(err))
		c.String(http.StatusForbidden, "verification failed")
		return
	}

	h.logger.Info("webhook subscription verified")
	c.String(http.StatusOK, challenge)
}

// Receive runs the caretaker commands carried by a Meta callback. Command
// failures are logged and still acknowledged with 200; Meta redelivers on any
// other status.
func (h *WebhookHandler) Receive(c *gin.Context) {
	var payload models.WebhookPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.Warn("invalid webhook payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if err := h.svc.HandleWebhook(c.Request.Context(), payload); err != nil {
		h.logger.Error("webhook processed with errors", zap.String("object", payload.Object), zap.Error(err))
	}
	c.Status(http.StatusOK)
}

// SendMessage pushes an operator message to a WhatsApp number.
func (h *WebhookHandler) SendMessage(c *gin.Context) {
	var req models.OutboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to and message are required"})
		return
	}

	if err := h.svc.SendOutbound(c.Request.Context(), req); err != nil {
		h.logger.Error("outbound message failed", zap.String("to", req.To), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to send message"})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "sent"})
}
