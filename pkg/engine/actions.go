package engine

import (
	"context"

	"github.com/rivulet-video/rivulet/pkg/model"
	"github.com/rivulet-video/rivulet/pkg/state"
)

// OnCallStarted is valid only from Idle and only for ringing calls. It moves
// the state to Outgoing and starts the accept timeout.
func (e *callEngine) OnCallStarted(call model.CallMetadata) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.logger.Debugf("onCallStarted: call: %s", call.CID)

	current := e.flow.Value()
	if _, ok := current.(state.Idle); !ok {
		e.logger.Warnf("onCallStarted: rejected (state is not Idle): %s", current)
		return
	}
	if call.Kind != model.KindRinging {
		e.logger.Warnf("onCallStarted: rejected (call kind is not ringing): %s", call.Kind)
		return
	}

	e.flow.Post(state.Outgoing{
		Call:             callInfoFromMetadata(call, call.Users),
		AcceptedByCallee: false,
	})
	e.waitForCallToBeAccepted()
}

// Starts the accept timeout. If the call is still Outgoing and not yet
// accepted when the timeout fires, the call is dropped with a timeout.
func (e *callEngine) waitForCallToBeAccepted() {
	e.jobs.Add(jobTimeoutAccept, func(ctx context.Context) {
		e.logger.Debugf("waitForCallToBeAccepted: dropTimeout: %s", e.config.DropTimeout)
		select {
		case <-ctx.Done():
			return
		case <-e.clock.After(e.config.DropTimeout):
		}

		e.mutex.Lock()
		defer e.mutex.Unlock()

		current, ok := e.flow.Value().(state.Outgoing)
		if !ok || current.AcceptedByCallee {
			e.logger.Tracef("waitForCallToBeAccepted: call was accepted")
			return
		}

		e.logger.Warnf("waitForCallToBeAccepted: timed out (call is not accepted)")
		e.dropCall(state.Drop{
			Guid:   current.Guid,
			Kind:   current.Kind,
			Reason: state.ReasonTimeout{Wait: e.config.DropTimeout},
		})
	})
}

// OnCallStarting is valid only from Incoming and marks the incoming call as
// accepted by this user. The variant does not change yet: the actual join
// happens when the coordinator confirms.
func (e *callEngine) OnCallStarting(
	callType, callID string,
	participantIDs []string,
	ringing bool,
	forcedNewCall bool,
) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.logger.Debugf("onCallStarting: type: %s, id: %s, ringing: %t, forcedNewCall: %t, participants: %v",
		callType, callID, ringing, forcedNewCall, participantIDs)

	current, ok := e.flow.Value().(state.Incoming)
	if !ok {
		e.logger.Warnf("onCallStarting: rejected (state is not Incoming): %s", e.flow.Value())
		return
	}

	callCID := model.FormatCID(callType, callID)
	if current.Guid.CID != callCID {
		e.logger.Warnf("onCallStarting: rejected (callCid is not valid); expected: %s, actual: %s",
			current.Guid.CID, callCID)
		return
	}

	current.AcceptedByMe = true
	e.flow.Post(current)
}

// OnCallJoining is valid only from a joinable state and moves to Joining.
func (e *callEngine) OnCallJoining(call model.CallMetadata) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.logger.Debugf("onCallJoining: call: %s", call.CID)

	current := e.flow.Value()
	if _, ok := current.(state.Joinable); !ok {
		e.logger.Warnf("onCallJoining: rejected (state is not Joinable): %s", current)
		return
	}

	e.flow.Post(state.Joining{
		Call: callInfoFromMetadata(call, call.Users),
	})
}

// OnCallJoined is valid only from Joining and records the coordinator's join
// confirmation, which carries everything needed to reach the SFU.
func (e *callEngine) OnCallJoined(joined model.JoinedCall) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.logger.Debugf("onCallJoined: call: %s", joined.Call.CID)

	current, ok := e.flow.Value().(state.Joining)
	if !ok {
		e.logger.Warnf("onCallJoined: rejected (state is not Joining): %s", e.flow.Value())
		return
	}
	if current.Guid.CID != joined.Call.CID {
		e.logger.Warnf("onCallJoined: rejected (callCid is not valid); expected: %s, actual: %s",
			current.Guid.CID, joined.Call.CID)
		return
	}

	info := callInfoFromMetadata(joined.Call, joined.Call.Users)
	info.Guid = current.Guid
	info.Kind = current.Kind

	e.flow.Post(state.Joined{
		Call:       info,
		CallURL:    joined.CallURL,
		SfuToken:   joined.SfuToken,
		IceServers: joined.IceServers,
	})
}

// OnCallFailed is valid only when a call session is live and drops the call
// with a failure reason. Outside of a live call there is nothing to fail.
func (e *callEngine) OnCallFailed(err error) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.logger.WithError(err).Error("onCallFailed")

	current, ok := e.flow.Value().(state.Active)
	if !ok {
		e.logger.Warnf("onCallFailed: rejected (state is not Active): %s", e.flow.Value())
		return
	}

	e.dropCall(state.Drop{
		Guid:   current.CallGuid(),
		Kind:   current.CallKind(),
		Reason: state.ReasonFailure{Err: err},
	})
}

// OnCallEventSending records the intent to send a call event to the
// coordinator: rejecting or cancelling drops the call immediately, accepting
// is only legal on an incoming call and marks it as accepted by this user.
func (e *callEngine) OnCallEventSending(callCID string, eventType model.CallEventType) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.logger.Debugf("onCallEventSending: callCid: %s, eventType: %s", callCID, eventType)

	current, ok := e.flow.Value().(state.Active)
	if !ok {
		e.logger.Warnf("onCallEventSending: %s rejected (state is not Active): %s", eventType, e.flow.Value())
		return
	}
	if current.CallGuid().CID != callCID {
		e.logger.Warnf("onCallEventSending: %s rejected (callCid is not valid); expected: %s, actual: %s",
			eventType, current.CallGuid().CID, callCID)
		return
	}

	incoming, isIncoming := current.(state.Incoming)
	if eventType == model.EventTypeAccepted && !isIncoming {
		e.logger.Warnf("onCallEventSending: %s rejected (state is not Incoming): %s", eventType, current)
		return
	}

	switch eventType {
	case model.EventTypeRejected:
		e.dropCall(state.Drop{
			Guid:   current.CallGuid(),
			Kind:   current.CallKind(),
			Reason: state.ReasonRejected{ByUserID: e.currentUserID()},
		})
	case model.EventTypeCancelled:
		e.dropCall(state.Drop{
			Guid:   current.CallGuid(),
			Kind:   current.CallKind(),
			Reason: state.ReasonCancelled{ByUserID: e.currentUserID()},
		})
	case model.EventTypeAccepted:
		incoming.AcceptedByMe = true
		e.flow.Post(incoming)
	case model.EventTypeUndefined:
	}
}

// OnCallEventSent records that a call event reached the coordinator. The
// transition already happened on the sending side, so this is bookkeeping
// only.
func (e *callEngine) OnCallEventSent(callCID string, eventType model.CallEventType) {
	e.logger.Debugf("onCallEventSent: callCid: %s, eventType: %s", callCID, eventType)
}
