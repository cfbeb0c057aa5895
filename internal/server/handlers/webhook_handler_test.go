package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/incubator/internal/domain/models"
)

type fakeMessaging struct {
	payloads []models.WebhookPayload
	outbound []models.OutboundMessageRequest
	err      error
}

func (f *fakeMessaging) VerifyWebhookToken(mode, token, challenge string) (string, error) {
	if mode != "subscribe" || token != "secret" {
		return "", errors.New("invalid verify token")
	}
	return challenge, nil
}

func (f *fakeMessaging) HandleWebhook(_ context.Context, payload models.WebhookPayload) error {
	f.payloads = append(f.payloads, payload)
	return f.err
}

func (f *fakeMessaging) SendOutbound(_ context.Context, req models.OutboundMessageRequest) error {
	f.outbound = append(f.outbound, req)
	return f.err
}

func newWebhookEngine(svc *fakeMessaging) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewWebhookHandler(svc, nil)
	r := gin.New()
	r.GET("/webhook", h.Verify)
	r.POST("/webhook", h.Receive)
	r.POST("/send-message", h.SendMessage)
	return r
}

func TestWebhookVerify(t *testing.T) {
	r := newWebhookEngine(&fakeMessaging{})

	rec := do(r, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=secret&hub.challenge=abc", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "abc" {
		t.Fatalf("unexpected verify response %d %q", rec.Code, rec.Body.String())
	}

	rec = do(r, http.MethodGet, "/webhook?hub.mode=subscribe&hub.verify_token=nope&hub.challenge=abc", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestWebhookReceive(t *testing.T) {
	svc := &fakeMessaging{}
	r := newWebhookEngine(svc)
	body := `{"object":"whatsapp_business_account","entry":[{"id":"1","changes":[{"field":"messages","value":{"messaging_product":"whatsapp","messages":[{"from":"39333","id":"wamid.1","type":"text","text":{"body":"/status"}}]}}]}]}`

	if rec := do(r, http.MethodPost, "/webhook", body); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	msg := svc.payloads[0].Entry[0].Changes[0].Value.Messages[0]
	if msg.From != "39333" || msg.CommandText() != "/status" {
		t.Fatalf("unexpected message %+v", msg)
	}

	svc.err = errors.New("dispatch failed")
	if rec := do(r, http.MethodPost, "/webhook", body); rec.Code != http.StatusOK {
		t.Fatalf("failures should still be acknowledged, got %d", rec.Code)
	}

	if rec := do(r, http.MethodPost, "/webhook", "{"); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestSendMessage(t *testing.T) {
	svc := &fakeMessaging{}
	r := newWebhookEngine(svc)

	if rec := do(r, http.MethodPost, "/send-message", `{"to":"39333","message":"hello"}`); rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if rec := do(r, http.MethodPost, "/send-message", `{"to":"39333"}`); rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	svc.err = errors.New("graph down")
	if rec := do(r, http.MethodPost, "/send-message", `{"to":"39333","message":"hello"}`); rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if len(svc.outbound) != 2 {
		t.Fatalf("expected 2 sends, got %d", len(svc.outbound))
	}
}
