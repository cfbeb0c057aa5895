package whatsapp

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/mamadbah2/incubator/internal/config"
	"github.com/mamadbah2/incubator/internal/domain/models"
	client "github.com/mamadbah2/incubator/pkg/clients/whatsapp"
)

type recordingClient struct {
	mu   sync.Mutex
	sent []client.SendTextMessageRequest
	err  error
}

func (c *recordingClient) SendTextMessage(_ context.Context, req client.SendTextMessageRequest) (*client.SendTextMessageResponse, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, req)
	if c.err != nil {
		return nil, c.err
	}
	return &client.SendTextMessageResponse{}, nil
}

type echoDispatcher struct {
	commands []models.Command
	err      error
}

func (d *echoDispatcher) HandleCommand(_ context.Context, cmd models.Command, sender string) (string, error) {
	d.commands = append(d.commands, cmd)
	if d.err != nil {
		return "", d.err
	}
	return "ok " + string(cmd.Type) + " for " + sender, nil
}

func payload(messages ...models.InboundMessage) models.WebhookPayload {
	return models.WebhookPayload{
		Object: "whatsapp_business_account",
		Entry: []models.WebhookEntry{{
			Changes: []models.WebhookChange{{Field: "messages", Value: models.WebhookValue{Messages: messages}}},
		}},
	}
}

func textMessage(from, body string) models.InboundMessage {
	return models.InboundMessage{From: from, ID: "wamid." + from, Type: "text", Text: &models.TextContent{Body: body}}
}

func TestVerifyWebhookToken(t *testing.T) {
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{VerifyToken: "secret"}, &recordingClient{}, &echoDispatcher{}, nil)

	got, err := svc.VerifyWebhookToken("subscribe", "secret", "12345")
	if err != nil || got != "12345" {
		t.Fatalf("expected challenge echoed, got %q %v", got, err)
	}

	cases := []struct{ mode, token string }{
		{"", "secret"},
		{"subscribe", ""},
		{"unsubscribe", "secret"},
		{"subscribe", "wrong"},
	}
	for _, tc := range cases {
		if _, err := svc.VerifyWebhookToken(tc.mode, tc.token, "1"); err == nil {
			t.Fatalf("expected failure for mode=%q token=%q", tc.mode, tc.token)
		}
	}
}

func TestHandleWebhookRepliesToEachSender(t *testing.T) {
	c := &recordingClient{}
	d := &echoDispatcher{}
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{}, c, d, nil)

	button := models.InboundMessage{From: "222", Type: "interactive", Interactive: &models.InteractiveContent{
		Type: "button_reply", ButtonReply: &models.ButtonReply{ID: "/sessions", Title: "Sessions"},
	}}
	image := models.InboundMessage{From: "333", Type: "image"}

	if err := svc.HandleWebhook(context.Background(), payload(textMessage("111", "/status"), button, image)); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(c.sent) != 2 {
		t.Fatalf("expected 2 replies, got %d", len(c.sent))
	}
	if c.sent[0].To != "111" || c.sent[0].Body != "ok status for 111" {
		t.Fatalf("unexpected first reply %+v", c.sent[0])
	}
	if c.sent[1].To != "222" || c.sent[1].Body != "ok sessions for 222" {
		t.Fatalf("unexpected second reply %+v", c.sent[1])
	}
}

func TestHandleWebhookDispatcherFailureStillReplies(t *testing.T) {
	c := &recordingClient{}
	boom := models.ErrStorageRead
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{}, c, &echoDispatcher{err: boom}, nil)

	err := svc.HandleWebhook(context.Background(), payload(textMessage("111", "/status"), textMessage("222", "/sessions")))
	if !errors.Is(err, boom) {
		t.Fatalf("expected dispatcher error, got %v", err)
	}
	if len(c.sent) != 2 {
		t.Fatalf("expected an apology to each sender, got %d", len(c.sent))
	}
}

func TestSendOutbound(t *testing.T) {
	sendErr := errors.New("graph api down")
	c := &recordingClient{}
	svc := NewMetaWhatsAppService(config.WhatsAppConfig{}, c, &echoDispatcher{}, nil)

	if err := svc.SendOutbound(context.Background(), models.OutboundMessageRequest{To: "1", Message: "hi", PreviewURL: true}); err != nil {
		t.Fatalf("send: %v", err)
	}
	if !c.sent[0].PreviewURL || c.sent[0].Body != "hi" {
		t.Fatalf("unexpected request %+v", c.sent[0])
	}

	c.err = sendErr
	if err := svc.SendOutbound(context.Background(), models.OutboundMessageRequest{To: "1", Message: "hi"}); !errors.Is(err, sendErr) {
		t.Fatalf("expected send error, got %v", err)
	}
}
