package state_test

import (
	"testing"

	"github.com/rivulet-video/rivulet/pkg/model"
	"github.com/rivulet-video/rivulet/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCall() state.Call {
	return state.Call{
		Guid: model.NewCallGuid("default", "calls-42"),
		Kind: model.KindRinging,
		Users: map[string]model.CallUser{
			"alice": {ID: "alice"},
		},
	}
}

func TestJoinableStates(t *testing.T) {
	joinable := []state.CallState{
		state.Idle{},
		state.Outgoing{Call: testCall()},
		state.Incoming{Call: testCall()},
	}
	for _, current := range joinable {
		_, ok := current.(state.Joinable)
		assert.True(t, ok, "%s must be joinable", current)
	}

	notJoinable := []state.CallState{
		state.Joining{Call: testCall()},
		state.Joined{Call: testCall()},
		state.Drop{},
	}
	for _, current := range notJoinable {
		_, ok := current.(state.Joinable)
		assert.False(t, ok, "%s must not be joinable", current)
	}
}

func TestActiveStates(t *testing.T) {
	active := []state.CallState{
		state.Outgoing{Call: testCall()},
		state.Incoming{Call: testCall()},
		state.Joining{Call: testCall()},
		state.Joined{Call: testCall()},
		state.Connecting{Joined: state.Joined{Call: testCall()}},
		state.Connected{Joined: state.Joined{Call: testCall()}},
		state.Drop{Guid: testCall().Guid},
	}
	for _, current := range active {
		_, ok := current.(state.Active)
		assert.True(t, ok, "%s must be active", current)
	}

	_, ok := state.CallState(state.Idle{}).(state.Active)
	assert.False(t, ok)
}

func TestStartedStatesCarryCallInfo(t *testing.T) {
	started := []state.CallState{
		state.Outgoing{Call: testCall()},
		state.Incoming{Call: testCall()},
		state.Joining{Call: testCall()},
		state.Joined{Call: testCall()},
		state.Connecting{Joined: state.Joined{Call: testCall()}},
		state.Connected{Joined: state.Joined{Call: testCall()}},
	}

	for _, current := range started {
		withInfo, ok := current.(state.Started)
		require.True(t, ok, "%s must carry call info", current)

		info := withInfo.CallInfo()
		info.RecordingEnabled = true
		updated := withInfo.WithCallInfo(info)

		// The variant survives the info replacement.
		assert.IsType(t, current, updated)
		assert.True(t, updated.(state.Started).CallInfo().RecordingEnabled)
	}

	// Drop carries a guid but no mutable call info.
	_, ok := state.CallState(state.Drop{}).(state.Started)
	assert.False(t, ok)
}

func TestConnectionTransitions(t *testing.T) {
	joined := state.Joined{
		Call:     testCall(),
		CallURL:  "wss://sfu.example.com/ws",
		SfuToken: "token",
	}

	connecting := joined.ToConnecting("session-1")
	assert.Equal(t, "session-1", connecting.SfuSessionID)
	assert.Equal(t, joined.SfuToken, connecting.SfuToken)

	connected := connecting.ToConnected()
	assert.Equal(t, "session-1", connected.SfuSessionID)
	assert.Equal(t, joined.CallURL, connected.CallURL)
}
