package common

import (
	"time"
)

type Pong struct{}

// Heartbeat keeps a socket connection alive: it sends pings at a fixed
// interval and expects a pong within the timeout.
type Heartbeat struct {
	// How often to send pings.
	Interval time.Duration
	// After which time to consider the communication stalled.
	Timeout time.Duration
	// Called when a ping is due. Returns false if the send failed.
	SendPing func() bool
	// Called once Timeout is reached without a pong.
	OnTimeout func()
}

// Start spawns the heartbeat goroutine. The returned channel is what the
// caller should use to report received pongs; closing it stops the
// heartbeat. The goroutine also stops after handling OnTimeout.
func (h *Heartbeat) Start() chan<- Pong {
	pong := make(chan Pong, UnboundedChannelSize)

	go func() {
		ticker := time.NewTicker(h.Interval)
		defer ticker.Stop()

		for range ticker.C {
			if !h.sendWithRetry() {
				return
			}

			select {
			case <-time.After(h.Timeout):
				h.OnTimeout()
				return
			case _, ok := <-pong:
				if !ok {
					return
				}
			}
		}
	}()

	return pong
}

// Tries to send a ping, retrying a couple of times within the timeout window.
func (h *Heartbeat) sendWithRetry() bool {
	const retries = 3
	retryInterval := h.Timeout / retries

	for i := 0; i < retries; i++ {
		if h.SendPing() {
			return true
		}
		time.Sleep(retryInterval)
	}

	return false
}
