package client_test

import (
	"context"
	"testing"

	"github.com/rivulet-video/rivulet/pkg/client"
	"github.com/rivulet-video/rivulet/pkg/config"
	"github.com/rivulet-video/rivulet/pkg/coordinator"
	"github.com/rivulet-video/rivulet/pkg/devices"
	"github.com/rivulet-video/rivulet/pkg/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Coordinator: coordinator.Config{
			BaseURL:      "https://video.example.com",
			WebsocketURL: "wss://video.example.com/ws",
			APIKey:       "key",
			Token:        "user-token",
			UserID:       "alice",
		},
		Call: config.CallConfig{DropTimeout: 30},
	}
}

func testManager() devices.Manager {
	return devices.NewManager([]devices.Device{
		{ID: "earpiece", Name: "Earpiece", Kind: devices.Earpiece},
	})
}

func TestNewRejectsIncompleteConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Coordinator.Token = ""

	_, err := client.New(cfg, testManager())
	assert.Error(t, err)
}

func TestNewStartsIdle(t *testing.T) {
	c, err := client.New(testConfig(), testManager())
	require.NoError(t, err)
	t.Cleanup(c.Close)

	assert.IsType(t, state.Idle{}, c.Engine().State())
}

func TestCallActionsRequireMatchingState(t *testing.T) {
	c, err := client.New(testConfig(), testManager())
	require.NoError(t, err)
	t.Cleanup(c.Close)

	// There is no call yet, so none of the in-call actions apply.
	assert.Error(t, c.Accept(context.Background()))
	assert.Error(t, c.Reject())
	assert.Error(t, c.Cancel())
}
