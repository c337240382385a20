package ws

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConversationRefAcceptsNumber(t *testing.T) {
	var ref conversationRef
	require.NoError(t, json.Unmarshal([]byte(`12`), &ref))
	assert.Equal(t, 12, ref.ID)
	assert.False(t, ref.Auto)
}

func TestConversationRefAcceptsNumericString(t *testing.T) {
	var ref conversationRef
	require.NoError(t, json.Unmarshal([]byte(`"12"`), &ref))
	assert.Equal(t, 12, ref.ID)
	assert.False(t, ref.Auto)
}

func TestConversationRefAcceptsAuto(t *testing.T) {
	var ref conversationRef
	require.NoError(t, json.Unmarshal([]byte(`"auto"`), &ref))
	assert.True(t, ref.Auto)
	assert.Zero(t, ref.ID)
}

func TestConversationRefRejectsOtherStrings(t *testing.T) {
	var ref conversationRef
	assert.Error(t, json.Unmarshal([]byte(`"soon"`), &ref))
}

func TestClientFrameDecodesSendPayload(t *testing.T) {
	payload := []byte(`{"event":"message:send","conversationId":"auto","recipientId":2,"content":"hi","quotedMessageId":4}`)

	var frame clientFrame
	require.NoError(t, json.Unmarshal(payload, &frame))
	assert.Equal(t, "message:send", frame.Event)
	assert.True(t, frame.ConversationID.Auto)
	assert.Equal(t, 2, frame.RecipientID)
	assert.Equal(t, "hi", frame.Content)
	require.NotNil(t, frame.QuotedMessageID)
	assert.Equal(t, 4, *frame.QuotedMessageID)
}
