/*
Copyright 2023 The Rivulet Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package client

import (
	"context"
	"errors"

	"github.com/rivulet-video/rivulet/pkg/sfu"
	"github.com/rivulet-video/rivulet/pkg/state"
	"github.com/rivulet-video/rivulet/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// Run owns the client's event loop: it keeps the coordinator socket alive
// and routes every incoming event into the engine, in arrival order. It
// blocks until the context is cancelled or the socket gives up.
func (c *Client) Run(ctx context.Context) error {
	socketDone := make(chan error, 1)
	go func() {
		socketDone <- c.socket.Run(ctx)
	}()

	states := c.engine.Subscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-socketDone:
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		case ev := <-c.coordinatorEvents.Channel:
			c.engine.OnCoordinatorEvent(ev)
		case ev := <-c.sfuEvents.Channel:
			c.engine.OnSfuEvent(ev)
		case current := <-states:
			c.onStateChanged(current)
		}
	}
}

// Reacts to the published call states. The engine already enforced the
// transition guards, so this only handles the side effects: connecting to
// the SFU, audio routing and tracing.
func (c *Client) onStateChanged(current state.CallState) {
	c.recordStateChange(current)

	switch current := current.(type) {
	case state.Joined:
		go c.connectSfu(current)
	case state.Connected:
		if err := c.devices.Activate(); err != nil {
			c.logger.WithError(err).Warn("failed to activate audio routing")
		}
	case state.Idle:
		c.devices.Deactivate()
		c.closeSession()
	}
}

// Dials the SFU and transmits the join request. Runs off the event loop
// since it performs network I/O; the engine ignores stale outcomes on its
// own (the state may have moved on while we were dialing).
func (c *Client) connectSfu(joined state.Joined) {
	session := sfu.NewSession(joined.CallURL, joined.SfuToken, c.sfuSender)
	if err := session.Connect(); err != nil {
		c.logger.WithError(err).Error("failed to connect to the SFU")
		c.engine.OnCallFailed(err)
		return
	}

	request := sfu.NewJoinRequest(joined.SfuToken)
	if err := session.Join(request); err != nil {
		c.logger.WithError(err).Error("failed to send the SFU join request")
		session.Close()
		c.engine.OnCallFailed(err)
		return
	}

	c.mutex.Lock()
	if c.session != nil {
		c.session.Close()
	}
	c.session = session
	c.mutex.Unlock()

	c.engine.OnSfuJoinSent(request)

	// The media transport is negotiated over the session that was just
	// established; a failure here is survivable (audio-only fallback is
	// handled by the SFU).
	if _, err := c.pcFactory.CreatePeerConnection(joined.IceServers); err != nil {
		c.logger.WithError(err).Warn("failed to create a peer connection")
	}
}

// Maintains the per-call trace: a span is opened when the call leaves Idle
// and closed when it returns there, with every transition recorded as a
// span event and drops recorded with their reason.
func (c *Client) recordStateChange(current state.CallState) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	switch current := current.(type) {
	case state.Idle:
		if c.callSpan != nil {
			c.callSpan.End()
			c.callSpan = nil
		}
	case state.Drop:
		if c.callSpan != nil {
			if failure, ok := current.Reason.(state.ReasonFailure); ok {
				c.callSpan.Fail(failure.Err)
			}
			c.callSpan.AddEvent(current.String())
		}
	default:
		if c.callSpan == nil {
			if active, ok := current.(state.Active); ok {
				c.callSpan = telemetry.NewTelemetry(
					context.Background(),
					"call",
					attribute.String("cid", active.CallGuid().CID),
				)
			}
		}
		if c.callSpan != nil {
			c.callSpan.AddEvent(current.String())
		}
	}
}
