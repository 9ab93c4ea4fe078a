package note

import (
	"encoding/json"
	"fmt"

	"github.com/chainnote/chainnote-go/pkg/types"
)

// MarkerPlain is the single marker byte prefixing an encoded message that
// carries unencrypted content.
const MarkerPlain = 0x01

// Encoded is the wire form of a payload: the marker byte followed by the JSON
// serialization of the payload. An Encoded value always decodes against the
// same structural schema as the payload it came from.
type Encoded []byte

func serialize(p *Payload) (Encoded, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	out := make(Encoded, 0, len(data)+1)
	out = append(out, MarkerPlain)
	return append(out, data...), nil
}

// Encode fits p into budget bytes. A payload already within budget is
// returned unmodified, which makes encoding idempotent. Otherwise the text
// field is cut to the longest rune-aligned prefix whose serialization still
// fits, found by binary search: a longer prefix never serializes shorter, and
// cutting on rune boundaries keeps that monotonic even for multi-byte and
// JSON-escaped characters. If even an empty text field exceeds the budget the
// result is an EncodingError, never an over-budget or malformed message.
func Encode(p *Payload, budget int) (Encoded, error) {
	full, err := serialize(p)
	if err != nil {
		return nil, &types.EncodingError{Reason: err.Error()}
	}
	if len(full) <= budget {
		return full, nil
	}

	trimmed := *p
	trimmed.Text = ""
	floor, err := serialize(&trimmed)
	if err != nil {
		return nil, &types.EncodingError{Reason: err.Error()}
	}
	if len(floor) > budget {
		return nil, &types.EncodingError{
			Reason: fmt.Sprintf("payload is %d bytes with empty text, budget is %d", len(floor), budget),
		}
	}

	// Invariant: prefix of length lo fits, prefix of length hi does not.
	runes := []rune(p.Text)
	lo, hi := 0, len(runes)
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		trimmed.Text = string(runes[:mid])
		enc, err := serialize(&trimmed)
		if err != nil {
			return nil, &types.EncodingError{Reason: err.Error()}
		}
		if len(enc) <= budget {
			lo = mid
		} else {
			hi = mid
		}
	}

	trimmed.Text = string(runes[:lo])
	enc, err := serialize(&trimmed)
	if err != nil {
		return nil, &types.EncodingError{Reason: err.Error()}
	}
	return enc, nil
}

// Decode parses an encoded message back into a payload. Used to check the
// structural-schema invariant; the pipeline itself never decodes.
func Decode(enc Encoded) (*Payload, error) {
	if len(enc) == 0 || enc[0] != MarkerPlain {
		return nil, fmt.Errorf("missing plain-content marker byte")
	}
	var p Payload
	if err := json.Unmarshal(enc[1:], &p); err != nil {
		return nil, fmt.Errorf("malformed encoded payload: %w", err)
	}
	return &p, nil
}
