package reply

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chainnote/chainnote-go/pkg/types"
)

func TestReply_SendsTokenAndText(t *testing.T) {
	var gotAuth string
	var gotBody types.ReplyRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/message/reply", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	c := NewClient(server.URL, "channel-token", zap.NewNop())
	require.NoError(t, c.Reply(context.Background(), "rt1", "hello there"))

	require.Equal(t, "Bearer channel-token", gotAuth)
	require.Equal(t, "rt1", gotBody.ReplyToken)
	require.Len(t, gotBody.Messages, 1)
	require.Equal(t, "text", gotBody.Messages[0].Type)
	require.Equal(t, "hello there", gotBody.Messages[0].Text)
}

func TestReply_Non2xxIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid reply token", http.StatusBadRequest)
	}))
	defer server.Close()

	c := NewClient(server.URL, "channel-token", zap.NewNop())
	err := c.Reply(context.Background(), "rt1", "hello")
	require.Error(t, err)
	require.Contains(t, err.Error(), "400")
}

func TestReply_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := NewClient(url, "channel-token", zap.NewNop())
	require.Error(t, c.Reply(context.Background(), "rt1", "hello"))
}
