package pipeline

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chainnote/chainnote-go/pkg/announce"
	"github.com/chainnote/chainnote-go/pkg/note"
	"github.com/chainnote/chainnote-go/pkg/presence"
	"github.com/chainnote/chainnote-go/pkg/reply"
	"github.com/chainnote/chainnote-go/pkg/transaction"
	"github.com/chainnote/chainnote-go/pkg/types"
)

// notePrefix marks a chat message as a note to record. Matched
// case-insensitively after trimming; the marker is stripped from the
// recorded text. Messages without it are ignored silently.
const notePrefix = "note:"

// Pipeline runs the message-to-transaction stages for inbound events:
// encode, build, sign, announce, respond. Each message runs independently;
// a failing message never blocks its siblings, and every message that enters
// the pipeline ends in exactly one reply attempt, either an acknowledgement
// with a viewer link or a bounded diagnostic.
type Pipeline struct {
	budget    int
	builder   *transaction.Builder
	signer    transaction.ISigner
	announcer *announce.Client
	router    *reply.Router
	replies   *reply.Client
	presence  presence.Store
	logger    *zap.Logger
}

// New wires the pipeline from its already-constructed stages.
func New(
	budget int,
	builder *transaction.Builder,
	signer transaction.ISigner,
	announcer *announce.Client,
	router *reply.Router,
	replies *reply.Client,
	store presence.Store,
	logger *zap.Logger,
) *Pipeline {
	return &Pipeline{
		budget:    budget,
		builder:   builder,
		signer:    signer,
		announcer: announcer,
		router:    router,
		replies:   replies,
		presence:  store,
		logger:    logger,
	}
}

// Dispatch hands each event to its own goroutine and returns immediately,
// keeping the webhook acknowledgement independent of processing.
func (p *Pipeline) Dispatch(events []*types.InboundEvent, deliveryID string) {
	for _, ev := range events {
		go p.process(ev, deliveryID)
	}
}

// process walks one event through the stage machine:
// Received → Encoded → Built → Signed → Announced → {Acknowledged | Diagnosed}.
// Any stage failure transitions directly to a diagnostic reply.
func (p *Pipeline) process(ev *types.InboundEvent, deliveryID string) {
	log := p.logger.With(
		zap.String("delivery_id", deliveryID),
		zap.String("user_id", ev.UserID),
	)
	ctx := context.Background()

	if ev.Type != types.EventTypeMessage {
		return
	}

	if ev.MessageType == types.MessageTypeLocation {
		if err := p.presence.Put(ctx, ev.UserID, presence.Location{
			Latitude:  ev.Latitude,
			Longitude: ev.Longitude,
		}); err != nil {
			log.Warn("failed to record location", zap.Error(err))
		}
		return
	}
	if ev.MessageType != types.MessageTypeText {
		return
	}

	text, ok := noteText(ev.Text)
	if !ok {
		return
	}

	payload := note.NewPayload(ev.UserID, text, time.Now())
	if loc, err := p.presence.Get(ctx, ev.UserID); err != nil {
		log.Warn("presence lookup failed", zap.Error(err))
	} else if loc != nil {
		payload = payload.WithLocation(loc.Latitude, loc.Longitude)
	}

	encoded, err := note.Encode(payload, p.budget)
	if err != nil {
		p.diagnose(ctx, log, ev.ReplyToken, "encode", err)
		return
	}

	desc, err := p.builder.Build(encoded, time.Now())
	if err != nil {
		p.diagnose(ctx, log, ev.ReplyToken, "build", err)
		return
	}

	signed, err := p.signer.Sign(desc)
	if err != nil {
		p.diagnose(ctx, log, ev.ReplyToken, "sign", err)
		return
	}

	res := p.announcer.Announce(ctx, signed.Payload)
	if res.Status == announce.StatusAccepted {
		log.Info("transaction announced", zap.String("hash", signed.Hash))
		p.send(ctx, log, ev.ReplyToken, p.router.Acknowledge(signed.Hash))
		return
	}

	log.Warn("announce failed",
		zap.String("status", res.Status.String()),
		zap.String("reason", res.Reason),
	)
	p.send(ctx, log, ev.ReplyToken, p.router.DiagnoseAnnounce(res))
}

func (p *Pipeline) diagnose(ctx context.Context, log *zap.Logger, replyToken, stage string, err error) {
	log.Warn("pipeline stage failed", zap.String("stage", stage), zap.Error(err))
	p.send(ctx, log, replyToken, p.router.Diagnose(stage, err))
}

// send delivers the outcome through the reply channel. Best effort: a failed
// notification is logged, not retried or escalated.
func (p *Pipeline) send(ctx context.Context, log *zap.Logger, replyToken, text string) {
	if err := p.replies.Reply(ctx, replyToken, text); err != nil {
		log.Warn("reply delivery failed", zap.Error(err))
	}
}

// noteText reports whether text carries the qualifying marker and returns
// the note body with the marker stripped.
func noteText(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < len(notePrefix) || !strings.EqualFold(trimmed[:len(notePrefix)], notePrefix) {
		return "", false
	}
	return strings.TrimSpace(trimmed[len(notePrefix):]), true
}
