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

package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rivulet-video/rivulet/pkg/coordinator"
	"github.com/rivulet-video/rivulet/pkg/model"
	"github.com/rivulet-video/rivulet/pkg/sfu"
	"github.com/rivulet-video/rivulet/pkg/state"
	"github.com/sirupsen/logrus"
)

// Keys of the timeout jobs. A handler that logically supersedes a pending
// timeout cancels it by key.
const (
	jobTimeoutAccept = iota + 1
	jobTimeoutSfuJoined
)

// How long to wait for the SFU join confirmation after the join request has
// been transmitted.
const sfuJoinedTimeout = 10 * time.Second

// How long a member query against the coordinator may take. The engine lock
// is held across the query, so this also bounds how long the engine can
// stall on a slow coordinator.
const memberQueryTimeout = 5 * time.Second

// MemberQuerier is the slice of the coordinator client the engine needs:
// resolving SFU-reported participant IDs into full member records.
type MemberQuerier interface {
	QueryMembers(ctx context.Context, callType, callID string, userIDs []string) ([]model.CallUser, error)
}

// Config carries the tunables of the engine.
type Config struct {
	// How long an outgoing ringing call waits for acceptance before it is
	// dropped with a timeout.
	DropTimeout time.Duration
}

// Engine reconciles the events arriving from the coordinator and the SFU
// into a single observable call state. Out-of-order, duplicate and stale
// events are expected noise from two independently racing sources: they are
// rejected by per-transition guards (logged, state unchanged), never
// surfaced as errors.
type Engine interface {
	// State returns the current call state.
	State() state.CallState

	// Subscribe returns a channel that receives the current state followed
	// by every published state in order, including transient Drop values.
	Subscribe() <-chan state.CallState

	// OnCoordinatorEvent ingests an event from the coordinator socket.
	OnCoordinatorEvent(ev coordinator.Event)

	// OnSfuEvent ingests an event from the SFU session channel.
	OnSfuEvent(ev sfu.Event)

	// OnSfuJoinSent records that a join request was transmitted to the SFU.
	OnSfuJoinSent(req sfu.JoinRequest)

	// OnCallJoined records that the coordinator confirmed the join.
	OnCallJoined(joined model.JoinedCall)

	// OnCallStarting records that this user is about to accept the
	// incoming call identified by type and ID.
	OnCallStarting(callType, callID string, participantIDs []string, ringing bool, forcedNewCall bool)

	// OnCallStarted records that this user initiated a ringing call.
	OnCallStarted(call model.CallMetadata)

	// OnCallJoining records that a join request is in flight toward the
	// coordinator.
	OnCallJoining(call model.CallMetadata)

	// OnCallFailed drops the active call with a failure reason.
	OnCallFailed(err error)

	// OnCallEventSending records that a call event (accept/reject/cancel)
	// is about to be sent to the coordinator.
	OnCallEventSending(callCID string, eventType model.CallEventType)

	// OnCallEventSent records that a call event was sent.
	OnCallEventSent(callCID string, eventType model.CallEventType)
}

type callEngine struct {
	// Serializes all state transitions. Held across the member queries on
	// purpose: no other event is processed concurrently with an in-flight
	// query, trading some latency for transition correctness.
	mutex sync.Mutex

	coordinatorClient MemberQuerier
	config            Config
	currentUserID     func() string

	jobs  *jobs
	clock Clock
	flow  *stateFlow

	logger *logrus.Entry
}

// Option configures optional engine knobs.
type Option func(*callEngine)

// WithClock replaces the timer source, which lets tests drive the timeout
// jobs deterministically.
func WithClock(clock Clock) Option {
	return func(e *callEngine) {
		e.clock = clock
	}
}

// New creates an engine in the Idle state.
func New(coordinatorClient MemberQuerier, config Config, currentUserID func() string, options ...Option) Engine {
	logger := logrus.WithField("component", "call-engine")
	e := &callEngine{
		coordinatorClient: coordinatorClient,
		config:            config,
		currentUserID:     currentUserID,
		jobs:              newJobs(),
		clock:             systemClock{},
		flow:              newStateFlow(logger),
		logger:            logger,
	}

	for _, option := range options {
		option(e)
	}

	return e
}

func (e *callEngine) State() state.CallState {
	return e.flow.Value()
}

func (e *callEngine) Subscribe() <-chan state.CallState {
	return e.flow.Subscribe()
}

// Publishes the dropped call and then immediately resets to Idle. The
// two-step publication is deliberate: subscribers must observe the terminal
// reason before the state resets, which enables one-shot reactions without
// racing the reset. All outstanding timers are cancelled first, so no timer
// can fire against a stale call after the reset.
func (e *callEngine) dropCall(drop state.Drop) {
	e.jobs.CancelAll()
	e.flow.Post(drop)
	e.flow.Post(state.Idle{})
}
