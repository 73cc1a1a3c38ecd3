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
	"fmt"
	"sync"
	"time"

	"github.com/rivulet-video/rivulet/pkg/common"
	"github.com/rivulet-video/rivulet/pkg/config"
	"github.com/rivulet-video/rivulet/pkg/coordinator"
	"github.com/rivulet-video/rivulet/pkg/devices"
	"github.com/rivulet-video/rivulet/pkg/engine"
	"github.com/rivulet-video/rivulet/pkg/model"
	"github.com/rivulet-video/rivulet/pkg/sfu"
	"github.com/rivulet-video/rivulet/pkg/state"
	"github.com/rivulet-video/rivulet/pkg/telemetry"
	"github.com/rivulet-video/rivulet/pkg/webrtc_ext"
	"github.com/sirupsen/logrus"
)

// A call event queued for delivery to the coordinator.
type outboundCallEvent struct {
	callCID   string
	eventType model.CallEventType
}

// Client is the top-level SDK object: it owns the engine, the coordinator
// connection, the SFU session of the current call and the audio routing.
// All collaborators are injected explicitly; there is no ambient global
// state.
type Client struct {
	config *config.Config
	logger *logrus.Entry

	engine    engine.Engine
	rest      *coordinator.Client
	socket    *coordinator.Socket
	devices   devices.Manager
	pcFactory *webrtc_ext.PeerConnectionFactory

	coordinatorEvents common.Receiver[coordinator.Event]
	sfuEvents         common.Receiver[sfu.Event]
	sfuSender         common.Sender[sfu.Event]

	eventWorker *common.Worker[outboundCallEvent]

	mutex    sync.Mutex
	session  *sfu.Session
	callSpan *telemetry.Telemetry
}

// New wires up a client from the given configuration. The audio device
// manager is injected so that platform integrations can provide their own.
func New(cfg *config.Config, audioDevices devices.Manager) (*Client, error) {
	rest, err := coordinator.NewClient(cfg.Coordinator)
	if err != nil {
		return nil, fmt.Errorf("failed to create coordinator client: %w", err)
	}

	pcFactory, err := webrtc_ext.NewPeerConnectionFactory()
	if err != nil {
		return nil, fmt.Errorf("failed to create peer connection factory: %w", err)
	}

	coordinatorSender, coordinatorReceiver := common.NewChannel[coordinator.Event]()
	sfuSender, sfuReceiver := common.NewChannel[sfu.Event]()

	userID := cfg.Coordinator.UserID
	callEngine := engine.New(
		rest,
		engine.Config{DropTimeout: time.Duration(cfg.Call.DropTimeout) * time.Second},
		func() string { return userID },
	)

	c := &Client{
		config:            cfg,
		logger:            logrus.WithField("component", "client"),
		engine:            callEngine,
		rest:              rest,
		socket:            coordinator.NewSocket(cfg.Coordinator, coordinatorSender),
		devices:           audioDevices,
		pcFactory:         pcFactory,
		coordinatorEvents: coordinatorReceiver,
		sfuEvents:         sfuReceiver,
		sfuSender:         sfuSender,
	}

	// Outbound call events are sent off the caller's path: a slow
	// coordinator must not block the engine or the UI.
	c.eventWorker = common.StartWorker(common.WorkerConfig[outboundCallEvent]{
		ChannelSize: 16,
		Timeout:     time.Hour,
		OnTimeout:   func() {},
		OnTask:      c.deliverCallEvent,
	})

	return c, nil
}

// Engine exposes the call state machine, mainly for observing call state.
func (c *Client) Engine() engine.Engine {
	return c.engine
}

// Dial starts a ringing call toward the given members.
func (c *Client) Dial(ctx context.Context, callType, callID string, memberUserIDs []string) error {
	call, err := c.rest.CreateCall(ctx, callType, callID, memberUserIDs, true)
	if err != nil {
		return err
	}

	c.engine.OnCallStarted(call)
	return nil
}

// Join joins a call directly, without the ringing flow.
func (c *Client) Join(ctx context.Context, callType, callID string) error {
	call, err := c.rest.CreateCall(ctx, callType, callID, nil, false)
	if err != nil {
		return err
	}

	c.engine.OnCallJoining(call)
	return c.joinCoordinator(ctx, callType, callID)
}

// Accept accepts the incoming call: it notifies the coordinator and joins.
func (c *Client) Accept(ctx context.Context) error {
	incoming, ok := c.engine.State().(state.Incoming)
	if !ok {
		return fmt.Errorf("no incoming call to accept: %s", c.engine.State())
	}

	guid := incoming.Guid
	c.engine.OnCallStarting(guid.Type, guid.ID, incoming.Details.MemberUserIDs, true, false)
	c.engine.OnCallEventSending(guid.CID, model.EventTypeAccepted)
	c.queueCallEvent(guid.CID, model.EventTypeAccepted)

	c.engine.OnCallJoining(metadataFromState(incoming.Call))
	return c.joinCoordinator(ctx, guid.Type, guid.ID)
}

// Reject rejects the incoming call.
func (c *Client) Reject() error {
	incoming, ok := c.engine.State().(state.Incoming)
	if !ok {
		return fmt.Errorf("no incoming call to reject: %s", c.engine.State())
	}

	c.engine.OnCallEventSending(incoming.Guid.CID, model.EventTypeRejected)
	c.queueCallEvent(incoming.Guid.CID, model.EventTypeRejected)
	return nil
}

// Cancel hangs up the current call and notifies the coordinator.
func (c *Client) Cancel() error {
	active, ok := c.engine.State().(state.Active)
	if !ok {
		return fmt.Errorf("no active call to cancel: %s", c.engine.State())
	}

	cid := active.CallGuid().CID
	c.engine.OnCallEventSending(cid, model.EventTypeCancelled)
	c.queueCallEvent(cid, model.EventTypeCancelled)
	return nil
}

// Hangup leaves the current call. The coordinator is notified the same way
// as for a cancellation; the engine drops the call immediately either way.
func (c *Client) Hangup() error {
	return c.Cancel()
}

// Close releases the client's resources. The run loop stops once its
// context is cancelled; Close only tears down what outlives it.
func (c *Client) Close() {
	c.eventWorker.Stop()
	c.coordinatorEvents.Close()
	c.sfuEvents.Close()
	c.closeSession()
}

// Asks the coordinator to join and reports the confirmation to the engine.
func (c *Client) joinCoordinator(ctx context.Context, callType, callID string) error {
	joined, err := c.rest.JoinCall(ctx, callType, callID)
	if err != nil {
		c.engine.OnCallFailed(err)
		return err
	}

	c.engine.OnCallJoined(joined)
	return nil
}

func (c *Client) queueCallEvent(callCID string, eventType model.CallEventType) {
	task := outboundCallEvent{callCID: callCID, eventType: eventType}
	if err := c.eventWorker.Send(task); err != nil {
		c.logger.WithError(err).Errorf("dropping outbound %s event, coordinator queue full?", eventType)
	}
}

func (c *Client) deliverCallEvent(task outboundCallEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := c.rest.SendEvent(ctx, task.callCID, task.eventType); err != nil {
		c.logger.WithError(err).Warnf("failed to deliver %s event", task.eventType)
		return
	}

	c.engine.OnCallEventSent(task.callCID, task.eventType)
}

func (c *Client) closeSession() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.session != nil {
		c.session.Close()
		c.session = nil
	}
}

// Rebuilds coordinator call metadata from the state's call info, for the
// transitions that are driven by the state we already hold.
func metadataFromState(info state.Call) model.CallMetadata {
	return model.CallMetadata{
		Type:                info.Guid.Type,
		ID:                  info.Guid.ID,
		CID:                 info.Guid.CID,
		Kind:                info.Kind,
		CreatedByUserID:     info.CreatedByUserID,
		BroadcastingEnabled: info.BroadcastingEnabled,
		RecordingEnabled:    info.RecordingEnabled,
		CreatedAt:           info.CreatedAt,
		UpdatedAt:           info.UpdatedAt,
		Users:               info.Users,
		Details:             info.Details,
		Custom:              info.Custom,
	}
}
