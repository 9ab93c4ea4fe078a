package webhook

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chainnote/chainnote-go/pkg/types"
)

// maxBodyBytes caps the inbound request body.
const maxBodyBytes = 1 << 20

// Default per-sender throttle: sustained rate and burst.
const (
	defaultEventsPerMinute = 30
	defaultBurst           = 10
)

// Dispatcher receives verified events for processing. Dispatch must not
// block: the webhook must acknowledge the delivery within the platform's
// short window regardless of downstream outcome.
type Dispatcher interface {
	Dispatch(events []*types.InboundEvent, deliveryID string)
}

// Server receives webhook deliveries, gates them on the raw-byte signature,
// and hands qualifying events to the pipeline as detached work.
type Server struct {
	secret     string
	dispatcher Dispatcher
	limiter    *SenderLimiter
	logger     *zap.Logger
	httpServer *http.Server
}

// NewServer creates a webhook server listening on the given port.
func NewServer(port int, secret string, dispatcher Dispatcher, logger *zap.Logger) *Server {
	s := &Server{
		secret:     secret,
		dispatcher: dispatcher,
		limiter:    NewSenderLimiter(defaultEventsPerMinute, defaultBurst),
		logger:     logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", s.handleWebhook)

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
	}

	return s
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	go func() {
		s.logger.Sugar().Infow("Starting webhook server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			s.logger.Sugar().Errorw("Webhook server error", "error", err)
		}
	}()
	return nil
}

// Stop stops the HTTP server.
func (s *Server) Stop() error {
	return s.httpServer.Close()
}

// Handler returns the HTTP handler (for testing).
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// handleWebhook is the inbound boundary. Responses: 200 acknowledged
// (independent of downstream outcome), 403 signature mismatch, 500 missing
// required configuration. Non-POST requests are liveness probes.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusOK)
		return
	}

	if s.secret == "" {
		http.Error(w, "channel secret not configured", http.StatusInternalServerError)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer func() { _ = r.Body.Close() }()

	// Verify before parsing: the signature proves the exact raw bytes.
	if !VerifySignature(body, r.Header.Get(SignatureHeader), s.secret) {
		http.Error(w, "signature mismatch", http.StatusForbidden)
		return
	}

	var req types.WebhookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "failed to parse events", http.StatusBadRequest)
		return
	}

	deliveryID := uuid.New().String()
	events := make([]*types.InboundEvent, 0, len(req.Events))
	for i := range req.Events {
		ev := &req.Events[i]
		if !s.limiter.Allow(ev.Source.UserID) {
			s.logger.Warn("sender rate limited, dropping event",
				zap.String("delivery_id", deliveryID),
				zap.String("user_id", ev.Source.UserID),
			)
			continue
		}
		events = append(events, ev.ToInboundEvent())
	}

	// Acknowledge first; processing is detached from the delivery window.
	w.WriteHeader(http.StatusOK)

	if len(events) > 0 {
		s.logger.Info("webhook delivery accepted",
			zap.String("delivery_id", deliveryID),
			zap.Int("events", len(events)),
		)
		s.dispatcher.Dispatch(events, deliveryID)
	}
}
