package models

// WebhookPayload mirrors the subset of Meta's WhatsApp Cloud API callback body
// the incubator reacts to.
type WebhookPayload struct {
	Object string         `json:"object"`
	Entry  []WebhookEntry `json:"entry"`
}

// WebhookEntry represents one entry payload within the webhook body.
type WebhookEntry struct {
	ID      string          `json:"id"`
	Changes []WebhookChange `json:"changes"`
}

// WebhookChange captures the actual notification contents.
type WebhookChange struct {
	Value WebhookValue `json:"value"`
	Field string       `json:"field"`
}

// WebhookValue holds the inbound caretaker messages. Delivery statuses are
// ignored.
type WebhookValue struct {
	MessagingProduct string           `json:"messaging_product"`
	Messages         []InboundMessage `json:"messages"`
}

// InboundMessage is a caretaker message; only text and button replies carry commands.
type InboundMessage struct {
	From        string              `json:"from"`
	ID          string              `json:"id"`
	Timestamp   string              `json:"timestamp"`
	Type        string              `json:"type"`
	Text        *TextContent        `json:"text,omitempty"`
	Interactive *InteractiveContent `json:"interactive,omitempty"`
}

// TextContent contains text messages body.
type TextContent struct {
	Body string `json:"body"`
}

// InteractiveContent represents button/list replies.
type InteractiveContent struct {
	Type        string       `json:"type"`
	ButtonReply *ButtonReply `json:"button_reply,omitempty"`
	ListReply   *ListReply   `json:"list_reply,omitempty"`
}

// ButtonReply models a pressed button payload.
type ButtonReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// ListReply models a selected list item payload.
type ListReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// CommandText returns the command text carried by the message, or "" when the
// message type has none.
func (m InboundMessage) CommandText() string {
	if m.Text != nil {
		return m.Text.Body
	}
	if m.Interactive != nil {
		if m.Interactive.ButtonReply != nil {
			return m.Interactive.ButtonReply.ID
		}
		if m.Interactive.ListReply != nil {
			return m.Interactive.ListReply.ID
		}
	}
	return ""
}

// OutboundMessageRequest is an operator or scheduler message for one WhatsApp
// number.
type OutboundMessageRequest struct {
	To         string `json:"to" binding:"required"`
	Message    string `json:"message" binding:"required"`
	PreviewURL bool   `json:"preview_url"`
}
