package engine

import (
	"context"
	"errors"

	"github.com/rivulet-video/rivulet/pkg/model"
	"github.com/rivulet-video/rivulet/pkg/sfu"
	"github.com/rivulet-video/rivulet/pkg/state"
)

// OnSfuEvent dispatches an SFU event to its handler. Media-plane events that
// do not affect the call lifecycle are accepted and ignored.
func (e *callEngine) OnSfuEvent(ev sfu.Event) {
	if _, ok := ev.(sfu.HealthCheckResponse); !ok {
		e.logger.Tracef("onSfuEvent: %T", ev)
	}

	switch ev := ev.(type) {
	case sfu.JoinCallResponse:
		e.onSfuJoined(ev)
	case sfu.ParticipantJoined:
		e.onSfuParticipantJoined(ev)
	case sfu.ParticipantLeft:
		e.onSfuParticipantLeft(ev)
	case sfu.AudioLevelChanged, sfu.ConnectionQualityChanged, sfu.DominantSpeakerChanged,
		sfu.ICETrickle, sfu.SubscriberOffer, sfu.TrackPublished, sfu.TrackUnpublished,
		sfu.ChangePublishQuality, sfu.Error, sfu.HealthCheckResponse, sfu.Unknown:
		// Not relevant to the lifecycle.
	default:
		e.logger.Tracef("onSfuEvent: unhandled event type: %T", ev)
	}
}

// OnSfuJoinSent is valid only from Joined, and only if the request carries
// the exact SFU token stored in the state. On success the state moves to
// Connecting and the SFU-join timeout starts ticking.
func (e *callEngine) OnSfuJoinSent(req sfu.JoinRequest) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	e.logger.Debugf("onSfuJoinSent: sessionId: %s", req.SessionID)

	current, ok := e.flow.Value().(state.Joined)
	if !ok {
		e.logger.Warnf("onSfuJoinSent: rejected (state is not Joined): %s", e.flow.Value())
		return
	}
	if current.SfuToken != req.Token {
		e.logger.Warnf("onSfuJoinSent: rejected (token is not valid)")
		return
	}

	e.flow.Post(current.ToConnecting(req.SessionID))
	e.waitForSfuJoined()
}

// Starts the SFU-join timeout. If the SFU confirmation has not arrived while
// the state is still Connecting, the call is dropped as failed.
func (e *callEngine) waitForSfuJoined() {
	e.jobs.Add(jobTimeoutSfuJoined, func(ctx context.Context) {
		e.logger.Debugf("waitForSfuJoined: dropTimeout: %s", sfuJoinedTimeout)
		select {
		case <-ctx.Done():
			return
		case <-e.clock.After(sfuJoinedTimeout):
		}

		e.mutex.Lock()
		defer e.mutex.Unlock()

		current, ok := e.flow.Value().(state.Connecting)
		if !ok {
			e.logger.Tracef("waitForSfuJoined: SfuJoined event was accepted")
			return
		}

		e.logger.Warnf("waitForSfuJoined: timed out (no SfuJoined event received)")
		e.dropCall(state.Drop{
			Guid:   current.Guid,
			Kind:   current.Kind,
			Reason: state.ReasonFailure{Err: errors.New("no SfuJoined event received")},
		})
	})
}

// Valid only from Connecting. Cancels the SFU-join timeout, resolves the
// SFU-reported participants into full member records and moves to Connected.
// A failed member query is not fatal: the call is live at this point, the
// merge is simply skipped.
func (e *callEngine) onSfuJoined(ev sfu.JoinCallResponse) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	current, ok := e.flow.Value().(state.Connecting)
	if !ok {
		e.logger.Warnf("onSfuJoined: rejected (state is not Connecting): %s", e.flow.Value())
		return
	}

	e.jobs.Cancel(jobTimeoutSfuJoined)

	userIDs := make([]string, 0, len(ev.State.Participants))
	for _, participant := range ev.State.Participants {
		userIDs = append(userIDs, participant.UserID)
	}

	connected := current.ToConnected()
	if users, err := e.queryMembers(current.Guid.Type, current.Guid.ID, userIDs); err != nil {
		e.logger.WithError(err).Warnf("onSfuJoined: member query failed, keeping known users")
	} else {
		connected.Users = mergeQueriedUsers(connected.Users, users)
	}

	e.flow.Post(connected)
}

// Valid only from Connected; resolves the joining user's member record and
// merges it into the user map. A failed query leaves the state unchanged.
func (e *callEngine) onSfuParticipantJoined(ev sfu.ParticipantJoined) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	current, ok := e.flow.Value().(state.Connected)
	if !ok {
		e.logger.Warnf("onSfuParticipantJoined: rejected (state is not Connected): %s", e.flow.Value())
		return
	}
	if current.Guid.CID != ev.CallCID {
		e.logger.Warnf("onSfuParticipantJoined: rejected (callCid is not valid); expected: %s, actual: %s",
			current.Guid.CID, ev.CallCID)
		return
	}

	users, err := e.queryMembers(current.Guid.Type, current.Guid.ID, []string{ev.Participant.UserID})
	if err != nil {
		e.logger.WithError(err).Warnf("onSfuParticipantJoined: member query failed")
		return
	}

	current.Users = mergeQueriedUsers(current.Users, users)
	e.flow.Post(current)
}

// Valid only from Connected; removes the user from the user map.
func (e *callEngine) onSfuParticipantLeft(ev sfu.ParticipantLeft) {
	e.mutex.Lock()
	defer e.mutex.Unlock()

	current, ok := e.flow.Value().(state.Connected)
	if !ok {
		e.logger.Warnf("onSfuParticipantLeft: rejected (state is not Connected): %s", e.flow.Value())
		return
	}
	if current.Guid.CID != ev.CallCID {
		e.logger.Warnf("onSfuParticipantLeft: rejected (callCid is not valid); expected: %s, actual: %s",
			current.Guid.CID, ev.CallCID)
		return
	}

	users := make(map[string]model.CallUser, len(current.Users))
	for id, user := range current.Users {
		if id != ev.Participant.UserID {
			users[id] = user
		}
	}

	current.Users = users
	e.flow.Post(current)
}

func (e *callEngine) queryMembers(callType, callID string, userIDs []string) ([]model.CallUser, error) {
	ctx, cancel := context.WithTimeout(context.Background(), memberQueryTimeout)
	defer cancel()
	return e.coordinatorClient.QueryMembers(ctx, callType, callID, userIDs)
}
