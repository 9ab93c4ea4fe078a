package announce

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
)

// DefaultTimeout is the recommended hard budget for one announce attempt.
const DefaultTimeout = 8 * time.Second

// maxResponseBytes caps how much of the node's response is read.
const maxResponseBytes = 64 * 1024

// Status classifies the outcome of an announce attempt.
type Status int

const (
	StatusAccepted Status = iota
	StatusRejected
	StatusTransportFailure
	StatusTimeout
)

func (s Status) String() string {
	switch s {
	case StatusAccepted:
		return "accepted"
	case StatusRejected:
		return "rejected"
	case StatusTransportFailure:
		return "transport-failure"
	case StatusTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Result is the classified outcome of one announce attempt. A Timeout is not
// a Rejected: the transaction's fate is unknown, not negatively confirmed.
type Result struct {
	Status Status
	Reason string // node's stated reason, for rejections
}

type announceRequest struct {
	Payload string `json:"payload"`
}

type announceResponse struct {
	Message string `json:"message"`
}

// Client submits signed payloads to a ledger node's transaction endpoint.
// There is no automatic retry: a failed announce has unknown fate, and
// re-announcing risks double submission.
type Client struct {
	nodeURL    string
	timeout    time.Duration
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an announce client for one node.
func NewClient(nodeURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		nodeURL:    strings.TrimRight(nodeURL, "/"),
		timeout:    timeout,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Announce PUTs the payload to the node and classifies the response. The
// timeout is hard: on expiry the in-flight request is aborted through its
// context and no dangling operation survives past the bound.
func (c *Client) Announce(ctx context.Context, payload string) *Result {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	body, err := json.Marshal(announceRequest{Payload: payload})
	if err != nil {
		return &Result{Status: StatusTransportFailure, Reason: err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.nodeURL+"/transactions", bytes.NewReader(body))
	if err != nil {
		return &Result{Status: StatusTransportFailure, Reason: errors.Wrap(err, "build announce request").Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			c.logger.Warn("announce timed out",
				zap.Duration("timeout", c.timeout),
				zap.Duration("elapsed", time.Since(start)),
			)
			return &Result{Status: StatusTimeout}
		}
		return &Result{Status: StatusTransportFailure, Reason: err.Error()}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return &Result{Status: StatusTimeout}
		}
		return &Result{Status: StatusTransportFailure, Reason: err.Error()}
	}

	result := classify(resp.StatusCode, respBody)
	c.logger.Info("announce attempt finished",
		zap.String("status", result.Status.String()),
		zap.Int("http_status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result
}

// classify maps the node's HTTP status and body to an outcome. A 2xx whose
// message matches "pushed" (case-insensitive) is an acceptance; anything else
// the node answered with is a rejection carrying the node's stated reason.
func classify(status int, body []byte) *Result {
	var parsed announceResponse
	_ = json.Unmarshal(body, &parsed)

	message := parsed.Message
	if message == "" {
		message = strings.TrimSpace(string(body))
	}

	if status >= 200 && status < 300 && strings.Contains(strings.ToLower(message), "pushed") {
		return &Result{Status: StatusAccepted}
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &Result{Status: StatusRejected, Reason: message}
}
