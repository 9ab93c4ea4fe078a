package transaction

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/sha3"

	"github.com/chainnote/chainnote-go/pkg/types"
)

// ISigner binds descriptors to a keypair, producing the normalized wire form.
type ISigner interface {
	// Sign produces a deterministic signature over the descriptor: the same
	// descriptor and key always yield a byte-identical payload and hash.
	Sign(desc *Descriptor) (*SignedTransaction, error)

	// Address returns the signer's own derived ledger address.
	Address() string
}

// SignedTransaction is the single normalized signing result: a clean
// lowercase hex payload and the deterministic transaction hash. No caller
// ever has to sniff the shape of the signing output; all legacy-shape
// adaptation happens inside this package (see NormalizePayload).
type SignedTransaction struct {
	Payload string `json:"payload"`
	Hash    string `json:"hash"`
}

// signedEnvelope is the wire structure that gets hex-encoded into the payload.
type signedEnvelope struct {
	Transaction     json.RawMessage `json:"transaction"`
	Signature       string          `json:"signature"`
	SignerPublicKey string          `json:"signerPublicKey"`
}

// PrivateKeySigner signs descriptors with a local ed25519 key.
type PrivateKeySigner struct {
	key    ed25519.PrivateKey
	logger *zap.Logger
}

// NewPrivateKeySigner creates a signer from a 32-byte hex seed.
func NewPrivateKeySigner(privateKeyHex string, logger *zap.Logger) (*PrivateKeySigner, error) {
	seed, err := hex.DecodeString(strings.TrimPrefix(strings.ToLower(privateKeyHex), "0x"))
	if err != nil {
		return nil, errors.Wrap(err, "decode private key")
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("private key must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return &PrivateKeySigner{
		key:    ed25519.NewKeyFromSeed(seed),
		logger: logger,
	}, nil
}

// Address derives the ledger address from the public key: the first 20 bytes
// of the Keccak-256 digest, uppercase hex.
func (s *PrivateKeySigner) Address() string {
	sum := keccak256([]byte(s.key.Public().(ed25519.PublicKey)))
	return strings.ToUpper(hex.EncodeToString(sum[:20]))
}

// Sign serializes the descriptor canonically (fixed field order, no maps),
// signs the bytes, and returns the normalized payload and hash. A signed
// transaction is valid only for the exact descriptor it was produced from.
func (s *PrivateKeySigner) Sign(desc *Descriptor) (*SignedTransaction, error) {
	if desc == nil {
		return nil, &types.SigningError{Reason: "nil descriptor"}
	}

	signingBytes, err := json.Marshal(desc)
	if err != nil {
		return nil, &types.SigningError{Reason: fmt.Sprintf("serialize descriptor: %v", err)}
	}

	sig := ed25519.Sign(s.key, signingBytes)
	pub := s.key.Public().(ed25519.PublicKey)

	wire, err := json.Marshal(signedEnvelope{
		Transaction:     signingBytes,
		Signature:       hex.EncodeToString(sig),
		SignerPublicKey: hex.EncodeToString(pub),
	})
	if err != nil {
		return nil, &types.SigningError{Reason: fmt.Sprintf("serialize envelope: %v", err)}
	}

	payload, err := NormalizePayload(hex.EncodeToString(wire))
	if err != nil {
		return nil, err
	}

	hash := hex.EncodeToString(keccak256(signingBytes, sig))
	s.logger.Debug("signed transaction",
		zap.String("hash", hash),
		zap.Int("payload_bytes", len(payload)/2),
	)

	return &SignedTransaction{Payload: payload, Hash: hash}, nil
}

func keccak256(chunks ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, c := range chunks {
		h.Write(c)
	}
	return h.Sum(nil)
}
