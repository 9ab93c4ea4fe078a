package note

import "time"

// MaxUserIDLen bounds the user identifier recorded in a payload.
const MaxUserIDLen = 64

// Payload is the note a user wants recorded on the ledger: free text plus
// sender metadata. Built once per qualifying message and discarded after the
// reply.
type Payload struct {
	UserID    string  `json:"u"`
	Text      string  `json:"t"`
	Latitude  float64 `json:"lat,omitempty"`
	Longitude float64 `json:"lng,omitempty"`
	Timestamp int64   `json:"ts"`
}

// NewPayload builds a payload, truncating over-long user identifiers.
func NewPayload(userID, text string, ts time.Time) *Payload {
	if len(userID) > MaxUserIDLen {
		userID = userID[:MaxUserIDLen]
	}
	return &Payload{
		UserID:    userID,
		Text:      text,
		Timestamp: ts.Unix(),
	}
}

// WithLocation returns a copy carrying the sender's coordinates.
func (p *Payload) WithLocation(lat, lng float64) *Payload {
	out := *p
	out.Latitude = lat
	out.Longitude = lng
	return &out
}
