package transaction

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/chainnote/chainnote-go/pkg/types"
)

// NormalizePayload reduces a signing primitive's output to clean lowercase
// hex. Earlier revisions of the upstream signer have returned bare hex,
// 0x-prefixed hex, and a JSON object string wrapping a payload field; every
// such shape is adapted here, once, so nothing downstream ever sniffs it.
// Anything that does not reduce to hex is a SigningError.
func NormalizePayload(raw string) (string, error) {
	raw = strings.TrimSpace(raw)

	if strings.HasPrefix(raw, "{") {
		var wrapped struct {
			Payload string `json:"payload"`
		}
		if err := json.Unmarshal([]byte(raw), &wrapped); err != nil || wrapped.Payload == "" {
			return "", &types.SigningError{Reason: "unrecognized signing result shape"}
		}
		raw = wrapped.Payload
	}

	raw = strings.ToLower(strings.TrimPrefix(raw, "0x"))
	if len(raw) == 0 || len(raw)%2 != 0 {
		return "", &types.SigningError{Reason: fmt.Sprintf("signing result has invalid hex length %d", len(raw))}
	}
	if _, err := hex.DecodeString(raw); err != nil {
		return "", &types.SigningError{Reason: "signing result is not a hex payload"}
	}
	return raw, nil
}
