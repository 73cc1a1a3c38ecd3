package common_test

import (
	"testing"

	"github.com/rivulet-video/rivulet/pkg/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelSendReceive(t *testing.T) {
	sender, receiver := common.NewChannel[string]()
	t.Cleanup(receiver.Close)

	assert.Nil(t, sender.Send("hello"))
	assert.Equal(t, "hello", <-receiver.Channel)
}

func TestChannelSendAfterClose(t *testing.T) {
	sender, receiver := common.NewChannel[string]()
	receiver.Close()

	// The rejected message comes back to the caller instead of panicking.
	rejected := sender.Send("lost")
	require.NotNil(t, rejected)
	assert.Equal(t, "lost", *rejected)
}

func TestChannelBufferedMessagesSurviveClose(t *testing.T) {
	sender, receiver := common.NewChannel[int]()

	require.Nil(t, sender.Send(1))
	receiver.Close()

	assert.Equal(t, 1, <-receiver.Channel)
}
