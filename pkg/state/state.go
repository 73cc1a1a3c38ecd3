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

package state

import (
	"fmt"
	"time"

	"github.com/rivulet-video/rivulet/pkg/model"
)

// CallState is the closed set of lifecycle states a call can be in. Exactly
// one variant is active at a time and states are immutable values: every
// transition constructs a fresh value instead of mutating the previous one.
//
// Since Go does not support ADTs, the set is closed by an unexported marker
// method and consumers switch on the concrete type.
type CallState interface {
	fmt.Stringer
	callState()
}

// Joinable marks the states from which a call can be joined directly.
type Joinable interface {
	CallState
	joinable()
}

// Active marks every state in which a user-facing call session is live,
// i.e. everything between Idle and the reset back to Idle.
type Active interface {
	CallState
	CallGuid() model.CallGuid
	CallKind() model.CallKind
}

// Started is implemented by every active state that carries the full call
// data (everything but the transient Drop marker).
type Started interface {
	Active
	CallInfo() Call
	WithCallInfo(Call) CallState
}

// Idle means no call is in progress. It is both the initial and the resting
// terminal state.
type Idle struct{}

func (Idle) callState()     {}
func (Idle) joinable()      {}
func (Idle) String() string { return "Idle" }

// Call holds the fields shared by all started states.
type Call struct {
	Guid                model.CallGuid
	Kind                model.CallKind
	CreatedByUserID     string
	BroadcastingEnabled bool
	RecordingEnabled    bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Users               map[string]model.CallUser
	Details             model.CallDetails
	Custom              map[string]interface{}
}

func (c Call) CallGuid() model.CallGuid { return c.Guid }
func (c Call) CallKind() model.CallKind { return c.Kind }
func (c Call) CallInfo() Call           { return c }

// Outgoing is a ringing call this user initiated, awaiting remote acceptance.
type Outgoing struct {
	Call
	AcceptedByCallee bool
}

func (Outgoing) callState() {}
func (Outgoing) joinable()  {}
func (s Outgoing) WithCallInfo(c Call) CallState {
	s.Call = c
	return s
}

func (s Outgoing) String() string {
	return fmt.Sprintf("Outgoing{cid: %s, acceptedByCallee: %t}", s.Guid.CID, s.AcceptedByCallee)
}

// Incoming is a ringing call offered to this user.
type Incoming struct {
	Call
	AcceptedByMe bool
}

func (Incoming) callState() {}
func (Incoming) joinable()  {}
func (s Incoming) WithCallInfo(c Call) CallState {
	s.Call = c
	return s
}

func (s Incoming) String() string {
	return fmt.Sprintf("Incoming{cid: %s, acceptedByMe: %t}", s.Guid.CID, s.AcceptedByMe)
}

// Joining means the join request is in flight toward the coordinator.
type Joining struct {
	Call
}

func (Joining) callState() {}
func (s Joining) WithCallInfo(c Call) CallState {
	s.Call = c
	return s
}

func (s Joining) String() string {
	return fmt.Sprintf("Joining{cid: %s}", s.Guid.CID)
}

// Joined means the coordinator confirmed the join. The SFU join request has
// not been sent yet.
type Joined struct {
	Call
	CallURL    string
	SfuToken   string
	IceServers []model.IceServer
}

func (Joined) callState() {}
func (s Joined) WithCallInfo(c Call) CallState {
	s.Call = c
	return s
}

func (s Joined) String() string {
	return fmt.Sprintf("Joined{cid: %s, callUrl: %s}", s.Guid.CID, s.CallURL)
}

// Connecting means the SFU join request has been transmitted and the SFU
// confirmation is pending.
type Connecting struct {
	Joined
	SfuSessionID string
}

func (Connecting) callState() {}
func (s Connecting) WithCallInfo(c Call) CallState {
	s.Call = c
	return s
}

func (s Connecting) String() string {
	return fmt.Sprintf("Connecting{cid: %s, sfuSessionId: %s}", s.Guid.CID, s.SfuSessionID)
}

// Connected means the SFU confirmed the join; the call is fully live and
// participants may come and go.
type Connected struct {
	Joined
	SfuSessionID string
}

func (Connected) callState() {}
func (s Connected) WithCallInfo(c Call) CallState {
	s.Call = c
	return s
}

func (s Connected) String() string {
	return fmt.Sprintf("Connected{cid: %s, sfuSessionId: %s}", s.Guid.CID, s.SfuSessionID)
}

// Drop is a one-shot terminal marker carrying the reason a call ended. It is
// never the resting state: the engine always follows a Drop publication with
// an immediate reset to Idle.
type Drop struct {
	Guid   model.CallGuid
	Kind   model.CallKind
	Reason DropReason
}

func (Drop) callState()                 {}
func (s Drop) CallGuid() model.CallGuid { return s.Guid }
func (s Drop) CallKind() model.CallKind { return s.Kind }

func (s Drop) String() string {
	return fmt.Sprintf("Drop{cid: %s, reason: %s}", s.Guid.CID, s.Reason)
}

// ToConnecting marks that the SFU join request with the given session ID has
// been transmitted.
func (s Joined) ToConnecting(sfuSessionID string) Connecting {
	return Connecting{Joined: s, SfuSessionID: sfuSessionID}
}

// ToConnected marks that the SFU confirmed the join.
func (s Connecting) ToConnected() Connected {
	return Connected{Joined: s.Joined, SfuSessionID: s.SfuSessionID}
}
