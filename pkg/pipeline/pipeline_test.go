package pipeline

import (
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chainnote/chainnote-go/pkg/announce"
	"github.com/chainnote/chainnote-go/pkg/config"
	"github.com/chainnote/chainnote-go/pkg/note"
	"github.com/chainnote/chainnote-go/pkg/presence/memory"
	"github.com/chainnote/chainnote-go/pkg/reply"
	"github.com/chainnote/chainnote-go/pkg/transaction"
	"github.com/chainnote/chainnote-go/pkg/types"
)

const testSeed = "575dbb3062267eff57c970a336ebbc8fbcfe12c5bd3ed7bc11eb0481d7704ced"

// harness stands up a full pipeline against fake node and reply endpoints and
// records everything they receive.
type harness struct {
	pipeline *Pipeline
	params   *config.NetworkParams

	mu        sync.Mutex
	announced []string
	replies   []types.ReplyRequest
}

func newHarness(t *testing.T, budget int, nodeMessage string) *harness {
	t.Helper()
	h := &harness{}

	node := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Payload string `json:"payload"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		h.mu.Lock()
		h.announced = append(h.announced, req.Payload)
		h.mu.Unlock()
		_, _ = w.Write([]byte(`{"message":"` + nodeMessage + `"}`))
	}))
	t.Cleanup(node.Close)

	replyEndpoint := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req types.ReplyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		h.mu.Lock()
		h.replies = append(h.replies, req)
		h.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(replyEndpoint.Close)

	params, err := config.GetNetworkParams(config.NetworkTestnet)
	require.NoError(t, err)
	h.params = params

	signer, err := transaction.NewPrivateKeySigner(testSeed, zap.NewNop())
	require.NoError(t, err)

	store := memory.NewMemoryStore(time.Minute)
	t.Cleanup(func() { _ = store.Close() })

	h.pipeline = New(
		budget,
		transaction.NewBuilder(params, "RECIPIENT", time.Hour, 100),
		signer,
		announce.NewClient(node.URL, time.Second, zap.NewNop()),
		reply.NewRouter(params),
		reply.NewClient(replyEndpoint.URL, "token", zap.NewNop()),
		store,
		zap.NewNop(),
	)
	return h
}

func (h *harness) announcedPayloads() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.announced...)
}

func (h *harness) replyTexts() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	var texts []string
	for _, r := range h.replies {
		for _, m := range r.Messages {
			texts = append(texts, m.Text)
		}
	}
	return texts
}

func textEvent(text string) *types.InboundEvent {
	return &types.InboundEvent{
		Type:        types.EventTypeMessage,
		ReplyToken:  "rt1",
		UserID:      "u1",
		MessageType: types.MessageTypeText,
		Text:        text,
	}
}

// decodeNote walks a wire payload back to the note it carries.
func decodeNote(t *testing.T, payloadHex string) *note.Payload {
	t.Helper()
	wire, err := hex.DecodeString(payloadHex)
	require.NoError(t, err)

	var env struct {
		Transaction json.RawMessage `json:"transaction"`
	}
	require.NoError(t, json.Unmarshal(wire, &env))

	var desc transaction.Descriptor
	require.NoError(t, json.Unmarshal(env.Transaction, &desc))

	msg, err := hex.DecodeString(desc.Message)
	require.NoError(t, err)

	p, err := note.Decode(note.Encoded(msg))
	require.NoError(t, err)
	return p
}

func TestProcess_MarkedTextIsRecordedAndAcknowledged(t *testing.T) {
	h := newHarness(t, 1023, "SUCCESS: Transaction pushed")

	h.pipeline.process(textEvent("note: hello ledger"), "d1")

	payloads := h.announcedPayloads()
	require.Len(t, payloads, 1)

	p := decodeNote(t, payloads[0])
	require.Equal(t, "hello ledger", p.Text)
	require.Equal(t, "u1", p.UserID)

	texts := h.replyTexts()
	require.Len(t, texts, 1)
	require.Contains(t, texts[0], h.params.ViewerBaseURL)
}

func TestProcess_UnmarkedTextIsIgnored(t *testing.T) {
	h := newHarness(t, 1023, "SUCCESS: Transaction pushed")

	h.pipeline.process(textEvent("hello ledger"), "d1")

	require.Empty(t, h.announcedPayloads())
	require.Empty(t, h.replyTexts())
}

func TestProcess_MarkerIsCaseInsensitiveAndStripped(t *testing.T) {
	h := newHarness(t, 1023, "SUCCESS: Transaction pushed")

	h.pipeline.process(textEvent("  NOTE:   spaced out  "), "d1")

	payloads := h.announcedPayloads()
	require.Len(t, payloads, 1)
	require.Equal(t, "spaced out", decodeNote(t, payloads[0]).Text)
}

func TestProcess_OverlongTextIsTruncatedNotDropped(t *testing.T) {
	h := newHarness(t, 256, "SUCCESS: Transaction pushed")

	long := "note: "
	for i := 0; i < 2000; i++ {
		long += "a"
	}
	h.pipeline.process(textEvent(long), "d1")

	payloads := h.announcedPayloads()
	require.Len(t, payloads, 1)

	p := decodeNote(t, payloads[0])
	require.NotEmpty(t, p.Text)
	require.Less(t, len(p.Text), 2000)
	for _, r := range p.Text {
		require.Equal(t, 'a', r)
	}

	texts := h.replyTexts()
	require.Len(t, texts, 1)
	require.Contains(t, texts[0], h.params.ViewerBaseURL)
}

func TestProcess_RejectionYieldsDiagnostic(t *testing.T) {
	h := newHarness(t, 1023, "FAILURE_INSUFFICIENT_BALANCE")

	h.pipeline.process(textEvent("note: hello"), "d1")

	texts := h.replyTexts()
	require.Len(t, texts, 1)
	require.Contains(t, texts[0], "FAILURE_INSUFFICIENT_BALANCE")
	require.NotContains(t, texts[0], h.params.ViewerBaseURL)
	require.LessOrEqual(t, len([]rune(texts[0])), 160)
}

func TestProcess_LocationThenNoteCarriesCoordinates(t *testing.T) {
	h := newHarness(t, 1023, "SUCCESS: Transaction pushed")

	h.pipeline.process(&types.InboundEvent{
		Type:        types.EventTypeMessage,
		ReplyToken:  "rt0",
		UserID:      "u1",
		MessageType: types.MessageTypeLocation,
		Latitude:    35.68,
		Longitude:   139.76,
	}, "d1")
	require.Empty(t, h.replyTexts())

	h.pipeline.process(textEvent("note: from here"), "d2")

	payloads := h.announcedPayloads()
	require.Len(t, payloads, 1)
	p := decodeNote(t, payloads[0])
	require.Equal(t, 35.68, p.Latitude)
	require.Equal(t, 139.76, p.Longitude)
}

func TestProcess_LocationFromOtherSenderNotAttached(t *testing.T) {
	h := newHarness(t, 1023, "SUCCESS: Transaction pushed")

	h.pipeline.process(&types.InboundEvent{
		Type:        types.EventTypeMessage,
		UserID:      "u2",
		MessageType: types.MessageTypeLocation,
		Latitude:    1,
		Longitude:   2,
	}, "d1")

	h.pipeline.process(textEvent("note: hello"), "d2")

	payloads := h.announcedPayloads()
	require.Len(t, payloads, 1)
	p := decodeNote(t, payloads[0])
	require.Zero(t, p.Latitude)
	require.Zero(t, p.Longitude)
}

func TestProcess_NonMessageEventIgnored(t *testing.T) {
	h := newHarness(t, 1023, "SUCCESS: Transaction pushed")

	h.pipeline.process(&types.InboundEvent{Type: "follow", UserID: "u1"}, "d1")

	require.Empty(t, h.announcedPayloads())
	require.Empty(t, h.replyTexts())
}

func TestNoteText(t *testing.T) {
	for name, tc := range map[string]struct {
		in   string
		want string
		ok   bool
	}{
		"plain":       {"note: hello", "hello", true},
		"uppercase":   {"NOTE: hello", "hello", true},
		"no-space":    {"note:hello", "hello", true},
		"leading-ws":  {"  note: hello", "hello", true},
		"marker-only": {"note:", "", true},
		"unmarked":    {"hello", "", false},
		"mid-text":    {"a note: hello", "", false},
		"empty":       {"", "", false},
	} {
		t.Run(name, func(t *testing.T) {
			got, ok := noteText(tc.in)
			require.Equal(t, tc.ok, ok)
			require.Equal(t, tc.want, got)
		})
	}
}
