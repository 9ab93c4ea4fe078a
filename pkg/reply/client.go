package reply

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/chainnote/chainnote-go/pkg/types"
)

const replyTimeout = 10 * time.Second

// Client delivers reply messages through the chat platform's reply endpoint,
// authenticated with a bearer token. Delivery is best-effort: callers log
// failures instead of retrying.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a reply client.
func NewClient(baseURL, token string, logger *zap.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: replyTimeout},
		logger:     logger,
	}
}

// Reply sends one text message bound to the original event's reply token.
func (c *Client) Reply(ctx context.Context, replyToken, text string) error {
	body, err := json.Marshal(types.ReplyRequest{
		ReplyToken: replyToken,
		Messages:   []types.ReplyMessage{{Type: "text", Text: text}},
	})
	if err != nil {
		return errors.Wrap(err, "marshal reply")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/message/reply", bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build reply request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "send reply")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.Errorf("reply endpoint returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	c.logger.Debug("reply delivered", zap.Int("text_len", len(text)))
	return nil
}
