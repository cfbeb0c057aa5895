package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/incubator/internal/config"
	"github.com/mamadbah2/incubator/internal/domain/models"
	"github.com/mamadbah2/incubator/internal/service/commands"
	client "github.com/mamadbah2/incubator/pkg/clients/whatsapp"
)

const sendTimeout = 10 * time.Second

// MessagingService describes the operations the HTTP layer and the scheduler perform.
type MessagingService interface {
	VerifyWebhookToken(mode, verifyToken, challenge string) (string, error)
	HandleWebhook(ctx context.Context, payload models.WebhookPayload) error
	SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error
}

// MetaWhatsAppService is the production implementation backed by WhatsApp Cloud API.
type MetaWhatsAppService struct {
	cfg        config.WhatsAppConfig
	client     client.Client
	dispatcher commands.Dispatcher
	logger     *zap.Logger
}

// NewMetaWhatsAppService wires a new service instance.
func NewMetaWhatsAppService(cfg config.WhatsAppConfig, client client.Client, dispatcher commands.Dispatcher, logger *zap.Logger) *MetaWhatsAppService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetaWhatsAppService{
		cfg:        cfg,
		client:     client,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// VerifyWebhookToken validates the callback verification token.
func (s *MetaWhatsAppService) VerifyWebhookToken(mode, verifyToken, challenge string) (string, error) {
	if mode == "" || verifyToken == "" {
		return "", errors.New("missing mode or verify token")
	}

	if !strings.EqualFold(mode, "subscribe") {
		return "", fmt.Errorf("unsupported hub.mode %s", mode)
	}

	if verifyToken != s.cfg.VerifyToken {
		return "", errors.New("invalid verify token")
	}

	return challenge, nil
}

// HandleWebhook runs every inbound caretaker message through the command
// dispatcher and replies to its sender. All messages are attempted; the first
// failure is returned.
func (s *MetaWhatsAppService) HandleWebhook(ctx context.Context, payload models.WebhookPayload) error {
	var firstErr error

	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if err := s.handleInboundMessage(ctx, msg); err != nil {
					s.logger.Error("failed to handle inbound message", zap.Error(err), zap.String("message_id", msg.ID))
					if firstErr == nil {
						firstErr = err
					}
				}
			}
		}
	}

	return firstErr
}

func (s *MetaWhatsAppService) handleInboundMessage(ctx context.Context, msg models.InboundMessage) error {
	text := msg.CommandText()
	if strings.TrimSpace(text) == "" {
		s.logger.Debug("ignoring message without text", zap.String("type", msg.Type), zap.String("message_id", msg.ID))
		return nil
	}

	cmd := models.ParseCommand(text)
	s.logger.Info("parsed inbound command",
		zap.String("from", msg.From),
		zap.String("command", string(cmd.Type)),
		zap.Strings("args", cmd.Args))

	reply, err := s.dispatcher.HandleCommand(ctx, cmd, msg.From)
	if err != nil {
		s.logger.Error("command failed", zap.Error(err), zap.String("command", string(cmd.Type)))
		reply = "Sorry, the incubator could not process that command right now. Please try again later."
	}

	if sendErr := s.send(ctx, msg.From, reply, false); sendErr != nil {
		return errors.Join(err, sendErr)
	}
	return err
}

// SendOutbound lets internal operators and the scheduler push notifications.
func (s *MetaWhatsAppService) SendOutbound(ctx context.Context, req models.OutboundMessageRequest) error {
	return s.send(ctx, req.To, req.Message, req.PreviewURL)
}

func (s *MetaWhatsAppService) send(ctx context.Context, to, body string, previewURL bool) error {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	_, err := s.client.SendTextMessage(ctxWithTimeout, client.SendTextMessageRequest{
		To:         to,
		Body:       body,
		PreviewURL: previewURL,
	})
	return err
}
