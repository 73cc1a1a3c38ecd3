package sfu

import (
	"encoding/json"
	"fmt"
)

// Wire representation of the SFU event envelope.
type wireEvent struct {
	Type        string           `json:"type"`
	CallCID     string           `json:"call_cid,omitempty"`
	UserID      string           `json:"user_id,omitempty"`
	TrackID     string           `json:"track_id,omitempty"`
	SDP         string           `json:"sdp,omitempty"`
	Candidate   string           `json:"candidate,omitempty"`
	Quality     int              `json:"quality,omitempty"`
	Message     string           `json:"message,omitempty"`
	Levels      map[string]float64 `json:"levels,omitempty"`
	Participant *wireParticipant `json:"participant,omitempty"`
	CallState   *wireSessionState `json:"call_state,omitempty"`
}

type wireParticipant struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id"`
}

type wireSessionState struct {
	Participants []wireParticipant `json:"participants"`
}

// ParseEvent decodes a raw SFU socket message into an Event. Unrecognized
// event types decode into Unknown; only malformed JSON is an error.
func ParseEvent(data []byte) (Event, error) {
	var wire wireEvent
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode sfu event: %w", err)
	}

	switch wire.Type {
	case "join_response":
		return JoinCallResponse{
			CallCID: wire.CallCID,
			State:   wire.CallState.toSessionState(),
		}, nil
	case "participant_joined":
		return ParticipantJoined{
			CallCID:     wire.CallCID,
			Participant: wire.Participant.toParticipant(),
		}, nil
	case "participant_left":
		return ParticipantLeft{
			CallCID:     wire.CallCID,
			Participant: wire.Participant.toParticipant(),
		}, nil
	case "audio_level_changed":
		return AudioLevelChanged{CallCID: wire.CallCID, Levels: wire.Levels}, nil
	case "connection_quality_changed":
		return ConnectionQualityChanged{CallCID: wire.CallCID, UserID: wire.UserID, Quality: wire.Quality}, nil
	case "dominant_speaker_changed":
		return DominantSpeakerChanged{CallCID: wire.CallCID, UserID: wire.UserID}, nil
	case "ice_trickle":
		return ICETrickle{CallCID: wire.CallCID, Candidate: wire.Candidate}, nil
	case "subscriber_offer":
		return SubscriberOffer{CallCID: wire.CallCID, SDP: wire.SDP}, nil
	case "track_published":
		return TrackPublished{CallCID: wire.CallCID, UserID: wire.UserID, TrackID: wire.TrackID}, nil
	case "track_unpublished":
		return TrackUnpublished{CallCID: wire.CallCID, UserID: wire.UserID, TrackID: wire.TrackID}, nil
	case "change_publish_quality":
		return ChangePublishQuality{CallCID: wire.CallCID}, nil
	case "error":
		return Error{CallCID: wire.CallCID, Message: wire.Message}, nil
	case "health_check_response":
		return HealthCheckResponse{}, nil
	default:
		return Unknown{Type: wire.Type, Raw: data}, nil
	}
}

func (w *wireParticipant) toParticipant() Participant {
	if w == nil {
		return Participant{}
	}
	return Participant{UserID: w.UserID, SessionID: w.SessionID}
}

func (w *wireSessionState) toSessionState() SessionState {
	if w == nil {
		return SessionState{}
	}

	participants := make([]Participant, 0, len(w.Participants))
	for _, participant := range w.Participants {
		participants = append(participants, Participant{
			UserID:    participant.UserID,
			SessionID: participant.SessionID,
		})
	}
	return SessionState{Participants: participants}
}
