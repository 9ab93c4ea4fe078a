package transaction

import (
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chainnote/chainnote-go/pkg/config"
	"github.com/chainnote/chainnote-go/pkg/note"
)

func testParams(t *testing.T) *config.NetworkParams {
	t.Helper()
	params, err := config.GetNetworkParams(config.NetworkTestnet)
	require.NoError(t, err)
	return params
}

func testEncoded(t *testing.T) note.Encoded {
	t.Helper()
	enc, err := note.Encode(note.NewPayload("u1", "hello", time.Unix(1700000000, 0)), 1023)
	require.NoError(t, err)
	return enc
}

func TestBuild_ZeroValueTransfer(t *testing.T) {
	b := NewBuilder(testParams(t), "RECIPIENT", time.Hour, 100)
	now := time.Unix(1700000000, 0)

	desc, err := b.Build(testEncoded(t), now)
	require.NoError(t, err)

	require.Equal(t, "RECIPIENT", desc.Recipient)
	require.Len(t, desc.Attachments, 1)
	require.Equal(t, "nem:xem", desc.Attachments[0].UnitID)
	require.Zero(t, desc.Attachments[0].Amount)
	require.Equal(t, uint64(100), desc.FeeMultiplier)
}

func TestBuild_DeadlineWithinHorizon(t *testing.T) {
	b := NewBuilder(testParams(t), "RECIPIENT", time.Hour, 100)
	now := time.Unix(1700000000, 0)

	desc, err := b.Build(testEncoded(t), now)
	require.NoError(t, err)
	require.Equal(t, now.Add(time.Hour).Unix(), desc.Deadline)
	require.Greater(t, desc.Deadline, now.Unix())
}

func TestBuild_DeadlineClippedToNetworkMaximum(t *testing.T) {
	params := testParams(t)
	b := NewBuilder(params, "RECIPIENT", 100*time.Hour, 100)
	now := time.Unix(1700000000, 0)

	desc, err := b.Build(testEncoded(t), now)
	require.NoError(t, err)
	require.Equal(t, now.Add(params.MaxDeadline).Unix(), desc.Deadline)
}

func TestBuild_MessageIsHexOfEncodedNote(t *testing.T) {
	b := NewBuilder(testParams(t), "RECIPIENT", time.Hour, 100)
	enc := testEncoded(t)

	desc, err := b.Build(enc, time.Unix(1700000000, 0))
	require.NoError(t, err)

	raw, err := hex.DecodeString(desc.Message)
	require.NoError(t, err)
	require.Equal(t, []byte(enc), raw)
}

func TestBuild_IsPureFunctionOfInputs(t *testing.T) {
	b := NewBuilder(testParams(t), "RECIPIENT", time.Hour, 100)
	now := time.Unix(1700000000, 0)
	enc := testEncoded(t)

	first, err := b.Build(enc, now)
	require.NoError(t, err)
	second, err := b.Build(enc, now)
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestBuild_EmptyRecipientFails(t *testing.T) {
	b := NewBuilder(testParams(t), "", time.Hour, 100)
	_, err := b.Build(testEncoded(t), time.Now())
	require.Error(t, err)
}

func TestBuild_NonPositiveHorizonFails(t *testing.T) {
	b := NewBuilder(testParams(t), "RECIPIENT", 0, 100)
	_, err := b.Build(testEncoded(t), time.Now())
	require.Error(t, err)
}
