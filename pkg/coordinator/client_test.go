package coordinator_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rivulet-video/rivulet/pkg/coordinator"
	"github.com/rivulet-video/rivulet/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClient(t *testing.T, handler http.Handler) *coordinator.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := coordinator.NewClient(coordinator.Config{
		BaseURL:      server.URL,
		WebsocketURL: "ws://unused",
		APIKey:       "key",
		Token:        "token",
		UserID:       "alice",
	})
	require.NoError(t, err)
	return client
}

func TestNewClientValidatesConfig(t *testing.T) {
	_, err := coordinator.NewClient(coordinator.Config{BaseURL: "http://localhost"})
	assert.Error(t, err)
}

func TestCreateCall(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/calls", r.URL.Path)
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		assert.Equal(t, "key", r.Header.Get("X-Api-Key"))

		var request map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		assert.Equal(t, "default", request["type"])
		assert.Equal(t, true, request["ringing"])

		_, _ = w.Write([]byte(`{
			"call": {
				"type": "default",
				"id": "calls-42",
				"cid": "default:calls-42",
				"kind": "ringing",
				"created_by_user_id": "alice",
				"member_user_ids": ["alice", "bob"]
			}
		}`))
	}))

	call, err := client.CreateCall(context.Background(), "default", "calls-42", []string{"alice", "bob"}, true)
	require.NoError(t, err)
	assert.Equal(t, "default:calls-42", call.CID)
	assert.Equal(t, model.KindRinging, call.Kind)
	assert.Equal(t, []string{"alice", "bob"}, call.Details.MemberUserIDs)
}

func TestJoinCall(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/calls/default/calls-42/join", r.URL.Path)

		_, _ = w.Write([]byte(`{
			"call": {"type": "default", "id": "calls-42", "cid": "default:calls-42"},
			"call_url": "wss://sfu.example.com/ws",
			"sfu_token": "sfu-token",
			"ice_servers": [{"urls": ["turn:turn.example.com"], "username": "u", "password": "p"}]
		}`))
	}))

	joined, err := client.JoinCall(context.Background(), "default", "calls-42")
	require.NoError(t, err)
	assert.Equal(t, "wss://sfu.example.com/ws", joined.CallURL)
	assert.Equal(t, "sfu-token", joined.SfuToken)
	require.Len(t, joined.IceServers, 1)
	assert.Equal(t, "u", joined.IceServers[0].Username)
}

func TestSendEvent(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/calls/default:calls-42/events", r.URL.Path)

		var request map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&request))
		assert.Equal(t, "accepted", request["event_type"])
	}))

	err := client.SendEvent(context.Background(), "default:calls-42", model.EventTypeAccepted)
	assert.NoError(t, err)
}

func TestQueryMembers(t *testing.T) {
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/members/query", r.URL.Path)

		_, _ = w.Write([]byte(`{
			"members": [
				{"id": "bob", "name": "Bob", "role": "member"}
			]
		}`))
	}))

	members, err := client.QueryMembers(context.Background(), "default", "calls-42", []string{"bob"})
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, "Bob", members[0].Name)
	assert.Equal(t, "member", members[0].Role)
}

func TestServerErrorsAreRetried(t *testing.T) {
	var requests atomic.Int32
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"call": {"type": "default", "id": "calls-42"}}`))
	}))

	_, err := client.CreateCall(context.Background(), "default", "calls-42", nil, false)
	require.NoError(t, err)
	assert.Equal(t, int32(3), requests.Load())
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var requests atomic.Int32
	client := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, "no such call", http.StatusNotFound)
	}))

	_, err := client.JoinCall(context.Background(), "default", "calls-42")
	require.Error(t, err)
	assert.Equal(t, int32(1), requests.Load())

	var response *coordinator.ErrorResponse
	require.ErrorAs(t, err, &response)
	assert.Equal(t, http.StatusNotFound, response.StatusCode)
}
