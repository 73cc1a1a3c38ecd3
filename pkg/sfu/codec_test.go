package sfu_test

import (
	"testing"

	"github.com/rivulet-video/rivulet/pkg/sfu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJoinResponse(t *testing.T) {
	data := []byte(`{
		"type": "join_response",
		"call_cid": "default:calls-42",
		"call_state": {
			"participants": [
				{"user_id": "alice", "session_id": "s1"},
				{"user_id": "bob", "session_id": "s2"}
			]
		}
	}`)

	event, err := sfu.ParseEvent(data)
	require.NoError(t, err)

	response, ok := event.(sfu.JoinCallResponse)
	require.True(t, ok)
	assert.Equal(t, "default:calls-42", response.CallCID)
	require.Len(t, response.State.Participants, 2)
	assert.Equal(t, "bob", response.State.Participants[1].UserID)
}

func TestParseParticipantEvents(t *testing.T) {
	event, err := sfu.ParseEvent([]byte(`{
		"type": "participant_joined",
		"call_cid": "default:calls-42",
		"participant": {"user_id": "carol", "session_id": "s3"}
	}`))
	require.NoError(t, err)
	joined, ok := event.(sfu.ParticipantJoined)
	require.True(t, ok)
	assert.Equal(t, "carol", joined.Participant.UserID)

	event, err = sfu.ParseEvent([]byte(`{
		"type": "participant_left",
		"call_cid": "default:calls-42",
		"participant": {"user_id": "carol", "session_id": "s3"}
	}`))
	require.NoError(t, err)
	left, ok := event.(sfu.ParticipantLeft)
	require.True(t, ok)
	assert.Equal(t, "s3", left.Participant.SessionID)
}

func TestParseMediaPlaneEvents(t *testing.T) {
	event, err := sfu.ParseEvent([]byte(`{
		"type": "audio_level_changed",
		"call_cid": "default:calls-42",
		"levels": {"alice": 0.8}
	}`))
	require.NoError(t, err)
	levels, ok := event.(sfu.AudioLevelChanged)
	require.True(t, ok)
	assert.Equal(t, 0.8, levels.Levels["alice"])

	event, err = sfu.ParseEvent([]byte(`{
		"type": "subscriber_offer",
		"call_cid": "default:calls-42",
		"sdp": "v=0..."
	}`))
	require.NoError(t, err)
	offer, ok := event.(sfu.SubscriberOffer)
	require.True(t, ok)
	assert.Equal(t, "v=0...", offer.SDP)

	event, err = sfu.ParseEvent([]byte(`{
		"type": "error",
		"call_cid": "default:calls-42",
		"message": "over capacity"
	}`))
	require.NoError(t, err)
	failure, ok := event.(sfu.Error)
	require.True(t, ok)
	assert.Equal(t, "over capacity", failure.Message)
}

func TestParseUnknownEventType(t *testing.T) {
	data := []byte(`{"type": "hologram_started"}`)

	event, err := sfu.ParseEvent(data)
	require.NoError(t, err)

	unknown, ok := event.(sfu.Unknown)
	require.True(t, ok)
	assert.Equal(t, "hologram_started", unknown.Type)
}

func TestParseMalformedEvent(t *testing.T) {
	_, err := sfu.ParseEvent([]byte(`not json`))
	assert.Error(t, err)
}

func TestNewJoinRequest(t *testing.T) {
	first := sfu.NewJoinRequest("token")
	second := sfu.NewJoinRequest("token")

	assert.Equal(t, "token", first.Token)
	assert.NotEmpty(t, first.SessionID)
	// Every join attempt gets its own session identity.
	assert.NotEqual(t, first.SessionID, second.SessionID)
}
