package engine

import (
	"github.com/rivulet-video/rivulet/pkg/coordinator"
	"github.com/rivulet-video/rivulet/pkg/model"
	"github.com/rivulet-video/rivulet/pkg/state"
)

// OnCoordinatorEvent dispatches a coordinator event to its handler. Events
// that are not relevant to the call lifecycle are accepted and ignored.
func (e *callEngine) OnCoordinatorEvent(ev coordinator.Event) {
	if _, ok := ev.(coordinator.HealthCheck); !ok {
		e.logger.Tracef("onCoordinatorEvent: %T", ev)
	}

	switch ev := ev.(type) {
	case coordinator.CallCreated:
		e.onCallCreated(ev)
	case coordinator.CallAccepted:
		e.onCallAccepted(ev)
	case coordinator.CallRejected:
		e.onCallRejected(ev)
	case coordinator.CallEnded:
		e.onCallFinished(ev)
	case coordinator.CallCancelled:
		e.onCallCancelled(ev)
	case coordinator.CallUpdated, coordinator.CallMembersUpdated, coordinator.CallMembersDeleted,
		coordinator.Connected, coordinator.HealthCheck, coordinator.Unknown:
		// Not relevant to the lifecycle.
	default:
		e.logger.Tracef("onCoordinatorEvent: unhandled event type: %T", ev)
	}
}

// Valid only from Idle and only for ringing calls: transitions to Incoming.
func (e *callEngine) onCallCreated(ev coordinator.CallCreated) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	current := e.flow.Value()
	if _, ok := current.(state.Idle); !ok {
		e.logger.Warnf("onCallCreated: rejected (state is not Idle): %s", current)
		return
	}
	if !ev.Ringing {
		e.logger.Warnf("onCallCreated: rejected (ringing is false): %s", ev.CallCID)
		return
	}

	e.flow.Post(state.Incoming{
		Call:         callInfoFromMetadata(ev.Call, ev.Users),
		AcceptedByMe: false,
	})
}

// Valid only from Outgoing; the sender must be a known member. Cancels the
// accept timeout and marks the call as accepted by the callee.
func (e *callEngine) onCallAccepted(ev coordinator.CallAccepted) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	current, ok := e.flow.Value().(state.Outgoing)
	if !ok {
		e.logger.Warnf("onCallAccepted: rejected (state is not Outgoing): %s", e.flow.Value())
		return
	}
	if current.Guid.CID != ev.CallCID {
		e.logger.Warnf("onCallAccepted: rejected (callCid is not valid); expected: %s, actual: %s",
			current.Guid.CID, ev.CallCID)
		return
	}
	if _, member := current.Users[ev.SentByUserID]; !member {
		e.logger.Warnf("onCallAccepted: rejected (accepted by non-member): %s", ev.SentByUserID)
		return
	}

	e.jobs.Cancel(jobTimeoutAccept)
	current.AcceptedByCallee = true
	e.flow.Post(current)
}

// Valid from any started state; the sender must be a known member. Overlays
// the member set carried by the event and drops the call once no member
// other than the current user remains, i.e. once everyone rejected.
func (e *callEngine) onCallRejected(ev coordinator.CallRejected) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	current, ok := e.flow.Value().(state.Started)
	if !ok {
		e.logger.Warnf("onCallRejected: rejected (state is not Started): %s", e.flow.Value())
		return
	}

	info := current.CallInfo()
	if info.Guid.CID != ev.CallCID {
		e.logger.Warnf("onCallRejected: rejected (callCid is not valid); expected: %s, actual: %s",
			info.Guid.CID, ev.CallCID)
		return
	}
	if _, member := info.Users[ev.SentByUserID]; !member {
		e.logger.Warnf("onCallRejected: rejected (rejected by non-member): %s", ev.SentByUserID)
		return
	}

	info.BroadcastingEnabled = ev.Call.BroadcastingEnabled
	info.RecordingEnabled = ev.Call.RecordingEnabled
	info.CreatedAt = ev.Call.CreatedAt
	info.UpdatedAt = ev.Call.UpdatedAt
	info.Users = ev.Users
	e.flow.Post(current.WithCallInfo(info))

	// The event is trusted to carry the fully-updated member set: whoever is
	// left after removing the current user has not rejected yet.
	remaining := 0
	for id := range ev.Users {
		if id != e.currentUserID() {
			remaining++
		}
	}
	if remaining > 0 {
		e.logger.Warnf("onCallRejected: rejected (not rejected by all members): %s", ev.CallCID)
		return
	}

	e.dropCall(state.Drop{
		Guid:   info.Guid,
		Kind:   info.Kind,
		Reason: state.ReasonRejected{ByUserID: ev.SentByUserID},
	})
}

// Valid only when a call session is live. Drops the call as ended.
func (e *callEngine) onCallFinished(ev coordinator.CallEnded) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	current, ok := e.flow.Value().(state.Active)
	if !ok {
		e.logger.Warnf("onCallFinished: rejected (state is not Active): %s", e.flow.Value())
		return
	}
	if current.CallGuid().CID != ev.CallCID {
		e.logger.Warnf("onCallFinished: rejected (callCid is not valid); expected: %s, actual: %s",
			current.CallGuid().CID, ev.CallCID)
		return
	}

	e.dropCall(state.Drop{
		Guid:   current.CallGuid(),
		Kind:   current.CallKind(),
		Reason: state.ReasonEnded{},
	})
}

// Valid only when a call session is live; meetings are never cancellable.
func (e *callEngine) onCallCancelled(ev coordinator.CallCancelled) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	current, ok := e.flow.Value().(state.Active)
	if !ok {
		e.logger.Warnf("onCallCancelled: rejected (state is not Active): %s", e.flow.Value())
		return
	}
	if current.CallGuid().CID != ev.CallCID {
		e.logger.Warnf("onCallCancelled: rejected (callCid is not valid); expected: %s, actual: %s",
			current.CallGuid().CID, ev.CallCID)
		return
	}
	if current.CallKind() == model.KindMeeting {
		e.logger.Warnf("onCallCancelled: rejected (callKind is meeting): %s", current)
		return
	}

	e.dropCall(state.Drop{
		Guid:   current.CallGuid(),
		Kind:   current.CallKind(),
		Reason: state.ReasonCancelled{ByUserID: ev.SentByUserID},
	})
}
