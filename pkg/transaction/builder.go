package transaction

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/chainnote/chainnote-go/pkg/config"
	"github.com/chainnote/chainnote-go/pkg/note"
)

// Attachment is one quantity of the chain's native value-carrier unit. The
// transfer built here always carries exactly one attachment at amount zero:
// it exists to make the transaction structurally valid, not to move value.
type Attachment struct {
	UnitID string `json:"unitId"`
	Amount uint64 `json:"amount"`
}

// Descriptor is a fully specified, unsigned, message-carrying transfer.
type Descriptor struct {
	Recipient     string       `json:"recipient"`
	Attachments   []Attachment `json:"attachments"`
	Message       string       `json:"message"` // hex of the encoded note
	Deadline      int64        `json:"deadline"` // unix seconds, strictly future
	FeeMultiplier uint64       `json:"feeMultiplier"`
}

// Builder assembles zero-value transfer descriptors. It performs no I/O; a
// descriptor is a pure function of the builder's configuration, the encoded
// message, and the supplied clock reading.
type Builder struct {
	params        *config.NetworkParams
	recipient     string
	horizon       time.Duration
	feeMultiplier uint64
}

// NewBuilder creates a builder. recipient is either a configured fixed
// address or the signer's own derived address; the caller decides which.
func NewBuilder(params *config.NetworkParams, recipient string, horizon time.Duration, feeMultiplier uint64) *Builder {
	return &Builder{
		params:        params,
		recipient:     recipient,
		horizon:       horizon,
		feeMultiplier: feeMultiplier,
	}
}

// Build produces the descriptor for one encoded message. The deadline is
// now + horizon, clipped to the network's maximum accepted horizon.
func (b *Builder) Build(msg note.Encoded, now time.Time) (*Descriptor, error) {
	if b.recipient == "" {
		return nil, fmt.Errorf("recipient address is empty")
	}
	horizon := b.horizon
	if horizon <= 0 {
		return nil, fmt.Errorf("deadline horizon must be positive, got %s", b.horizon)
	}
	if horizon > b.params.MaxDeadline {
		horizon = b.params.MaxDeadline
	}

	return &Descriptor{
		Recipient:     b.recipient,
		Attachments:   []Attachment{{UnitID: b.params.UnitID, Amount: 0}},
		Message:       hex.EncodeToString(msg),
		Deadline:      now.Add(horizon).Unix(),
		FeeMultiplier: b.feeMultiplier,
	}, nil
}
