package types

// Wire shapes for the chat platform's webhook and reply APIs.

// WebhookRequest mirrors the inbound webhook JSON body.
type WebhookRequest struct {
	Events []WebhookEvent `json:"events"`
}

// WebhookEvent is one event inside a webhook delivery.
type WebhookEvent struct {
	Type       string         `json:"type"`
	ReplyToken string         `json:"replyToken"`
	Source     WebhookSource  `json:"source"`
	Message    WebhookMessage `json:"message"`
}

// WebhookSource identifies the sender.
type WebhookSource struct {
	UserID string `json:"userId"`
}

// WebhookMessage carries the message body of an event.
type WebhookMessage struct {
	Type      string  `json:"type"`
	Text      string  `json:"text,omitempty"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// ToInboundEvent flattens the wire event into the domain event.
func (e *WebhookEvent) ToInboundEvent() *InboundEvent {
	return &InboundEvent{
		Type:        e.Type,
		ReplyToken:  e.ReplyToken,
		UserID:      e.Source.UserID,
		MessageType: e.Message.Type,
		Text:        e.Message.Text,
		Latitude:    e.Message.Latitude,
		Longitude:   e.Message.Longitude,
	}
}

// ReplyRequest is the outbound reply-channel body.
type ReplyRequest struct {
	ReplyToken string         `json:"replyToken"`
	Messages   []ReplyMessage `json:"messages"`
}

// ReplyMessage is a single message inside a reply.
type ReplyMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}
