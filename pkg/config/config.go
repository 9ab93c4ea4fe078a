package config

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for chainnote server configuration
const (
	EnvNetwork         = "CHAINNOTE_NETWORK"
	EnvNodeURL         = "CHAINNOTE_NODE_URL"
	EnvChannelSecret   = "CHAINNOTE_CHANNEL_SECRET"
	EnvChannelToken    = "CHAINNOTE_CHANNEL_TOKEN"
	EnvReplyURL        = "CHAINNOTE_REPLY_URL"
	EnvPrivateKey      = "CHAINNOTE_PRIVATE_KEY"
	EnvRecipient       = "CHAINNOTE_RECIPIENT"
	EnvFeeMultiplier   = "CHAINNOTE_FEE_MULTIPLIER"
	EnvDeadlineHours   = "CHAINNOTE_DEADLINE_HOURS"
	EnvAnnounceTimeout = "CHAINNOTE_ANNOUNCE_TIMEOUT"
	EnvMessageBudget   = "CHAINNOTE_MESSAGE_BUDGET"
	EnvRedisURL        = "CHAINNOTE_REDIS_URL"
	EnvPort            = "CHAINNOTE_PORT"
	EnvVerbose         = "CHAINNOTE_VERBOSE"
)

type NetworkName string

const (
	NetworkMainnet NetworkName = "mainnet"
	NetworkTestnet NetworkName = "testnet"
)

func (n NetworkName) String() string {
	return string(n)
}

// MaxOpaqueMessageBytes is the ledger's hard cap on an embedded message.
// The configured byte budget must stay strictly under it.
const MaxOpaqueMessageBytes = 1024

// NetworkParams are the constants derived from the network selector. They are
// resolved once at startup and passed explicitly to every component; nothing
// re-derives them from the selector inline.
type NetworkParams struct {
	Name          NetworkName
	UnitID        string // native value-carrier unit, attached at amount zero
	ViewerBaseURL string // transaction hash is appended to build a viewer link
	DefaultNode   string
	MaxDeadline   time.Duration // network's maximum accepted deadline horizon
}

var networkParams = map[NetworkName]*NetworkParams{
	NetworkMainnet: {
		Name:          NetworkMainnet,
		UnitID:        "nem:xem",
		ViewerBaseURL: "http://chain.nem.ninja/#/transfer/",
		DefaultNode:   "http://alice6.nem.ninja:7890",
		MaxDeadline:   24 * time.Hour,
	},
	NetworkTestnet: {
		Name:          NetworkTestnet,
		UnitID:        "nem:xem",
		ViewerBaseURL: "http://bob.nem.ninja:8765/#/transfer/",
		DefaultNode:   "http://bigalice2.nem.ninja:7890",
		MaxDeadline:   24 * time.Hour,
	},
}

// GetNetworkParams resolves the symbolic network selector.
func GetNetworkParams(name NetworkName) (*NetworkParams, error) {
	params, ok := networkParams[name]
	if !ok {
		return nil, fmt.Errorf("unsupported network %q, supported: %s, %s", name, NetworkMainnet, NetworkTestnet)
	}
	return params, nil
}

// GetSupportedNetworksString returns supported networks for CLI help.
func GetSupportedNetworksString() string {
	return fmt.Sprintf("%s, %s", NetworkMainnet, NetworkTestnet)
}

// Config is the complete configuration for a chainnote server.
type Config struct {
	// Network selection
	Network NetworkName    `json:"network"`
	Params  *NetworkParams `json:"params,omitempty"` // populated by Validate

	// Ledger side
	NodeURL       string        `json:"node_url"`
	PrivateKey    string        `json:"private_key"` // ed25519 seed, 64 hex chars
	Recipient     string        `json:"recipient"`   // empty: signer's own derived address
	FeeMultiplier uint64        `json:"fee_multiplier"`
	Deadline      time.Duration `json:"deadline"` // horizon; clipped to network maximum

	// Announce behavior
	AnnounceTimeout time.Duration `json:"announce_timeout"`
	MessageBudget   int           `json:"message_budget"`

	// Chat side
	ChannelSecret string `json:"channel_secret"`
	ChannelToken  string `json:"channel_token"`
	ReplyURL      string `json:"reply_url"`

	// Optional shared presence store
	RedisURL string `json:"redis_url,omitempty"`

	// Operational settings
	Port    int  `json:"port"`
	Verbose bool `json:"verbose"`
}

// Validate checks the configuration, resolves the network selector into
// Params, and fills defaults derived from it.
func (c *Config) Validate() error {
	params, err := GetNetworkParams(c.Network)
	if err != nil {
		return err
	}
	c.Params = params

	if c.NodeURL == "" {
		c.NodeURL = params.DefaultNode
	}
	if !strings.HasPrefix(c.NodeURL, "http://") && !strings.HasPrefix(c.NodeURL, "https://") {
		return fmt.Errorf("node URL must be an http(s) URL, got %q", c.NodeURL)
	}

	key := strings.TrimPrefix(strings.ToLower(c.PrivateKey), "0x")
	if key == "" {
		return fmt.Errorf("private key cannot be empty")
	}
	if len(key) != 64 {
		return fmt.Errorf("private key must be 32 bytes (64 hex chars), got %d chars", len(key))
	}
	if _, err := hex.DecodeString(key); err != nil {
		return fmt.Errorf("private key is not valid hex: %w", err)
	}
	c.PrivateKey = key

	if c.FeeMultiplier == 0 {
		return fmt.Errorf("fee multiplier must be positive")
	}
	if c.Deadline <= 0 {
		return fmt.Errorf("deadline horizon must be positive, got %s", c.Deadline)
	}
	if c.AnnounceTimeout <= 0 {
		return fmt.Errorf("announce timeout must be positive, got %s", c.AnnounceTimeout)
	}
	if c.MessageBudget <= 0 || c.MessageBudget >= MaxOpaqueMessageBytes {
		return fmt.Errorf("message budget must be in (0, %d), got %d", MaxOpaqueMessageBytes, c.MessageBudget)
	}
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1-65535, got %d", c.Port)
	}

	return c.validateChannel()
}

// validateChannel validates the reply-channel credential block as a group so
// a misconfigured deployment reports every missing field at once.
func (c *Config) validateChannel() error {
	var allErrors field.ErrorList
	if c.ChannelSecret == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("channelSecret"), "webhook shared secret is required"))
	}
	if c.ChannelToken == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("channelToken"), "reply-channel access token is required"))
	}
	if c.ReplyURL == "" {
		allErrors = append(allErrors, field.Required(field.NewPath("replyURL"), "reply endpoint base URL is required"))
	}
	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}
	return nil
}
