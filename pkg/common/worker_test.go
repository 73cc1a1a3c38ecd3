package common_test

import (
	"testing"
	"time"

	"github.com/rivulet-video/rivulet/pkg/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerProcessesTasks(t *testing.T) {
	processed := make(chan int, 4)
	w := common.StartWorker(common.WorkerConfig[int]{
		ChannelSize: 4,
		Timeout:     time.Hour,
		OnTimeout:   func() {},
		OnTask:      func(task int) { processed <- task },
	})
	t.Cleanup(w.Stop)

	require.NoError(t, w.Send(1))
	require.NoError(t, w.Send(2))

	assert.Equal(t, 1, <-processed)
	assert.Equal(t, 2, <-processed)
}

func TestWorkerSendAfterStop(t *testing.T) {
	w := common.StartWorker(common.WorkerConfig[int]{
		ChannelSize: 1,
		Timeout:     time.Hour,
		OnTimeout:   func() {},
		OnTask:      func(int) {},
	})

	w.Stop()
	assert.ErrorIs(t, w.Send(1), common.ErrWorkerClosed)

	// Stop is idempotent.
	w.Stop()
}

func TestWorkerRejectsWhenOverloaded(t *testing.T) {
	release := make(chan struct{})
	w := common.StartWorker(common.WorkerConfig[int]{
		ChannelSize: 1,
		Timeout:     time.Hour,
		OnTimeout:   func() {},
		OnTask:      func(int) { <-release },
	})
	t.Cleanup(func() {
		close(release)
		w.Stop()
	})

	// The first task occupies the worker, the second fills the channel;
	// anything beyond must be rejected rather than block the sender.
	require.NoError(t, w.Send(1))
	assert.Eventually(t, func() bool {
		return w.Send(2) == nil
	}, 2*time.Second, 10*time.Millisecond)
	assert.ErrorIs(t, w.Send(3), common.ErrWorkerTooBusy)
}

func TestWorkerTimeout(t *testing.T) {
	timedOut := make(chan struct{}, 1)
	w := common.StartWorker(common.WorkerConfig[int]{
		ChannelSize: 1,
		Timeout:     50 * time.Millisecond,
		OnTimeout: func() {
			select {
			case timedOut <- struct{}{}:
			default:
			}
		},
		OnTask: func(int) {},
	})
	t.Cleanup(w.Stop)

	select {
	case <-timedOut:
	case <-time.After(2 * time.Second):
		t.Fatal("OnTimeout was not called")
	}
}
