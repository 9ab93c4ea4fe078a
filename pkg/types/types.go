package types

// InboundEvent is a single chat event extracted from a webhook delivery.
// It is ephemeral: built per delivery, consumed by the pipeline, discarded.
type InboundEvent struct {
	Type        string
	ReplyToken  string
	UserID      string
	MessageType string
	Text        string
	Latitude    float64
	Longitude   float64
}

// Event type tags used by the chat platform.
const (
	EventTypeMessage = "message"

	MessageTypeText     = "text"
	MessageTypeLocation = "location"
)
