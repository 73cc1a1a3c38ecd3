package sfu

// Event is the closed set of events delivered on the SFU session channel.
// Unrecognized variants decode to Unknown and are ignored by consumers.
type Event interface {
	sfuEvent()
}

// Participant is the SFU's view of a call participant.
type Participant struct {
	UserID    string
	SessionID string
}

// SessionState is the authoritative participant list reported by the SFU.
type SessionState struct {
	Participants []Participant
}

// JoinCallResponse confirms the SFU join and carries the authoritative
// participant list at the time of joining.
type JoinCallResponse struct {
	CallCID string
	State   SessionState
}

// ParticipantJoined signals that a participant joined the media session.
type ParticipantJoined struct {
	CallCID     string
	Participant Participant
}

// ParticipantLeft signals that a participant left the media session.
type ParticipantLeft struct {
	CallCID     string
	Participant Participant
}

// AudioLevelChanged carries the per-participant audio levels.
type AudioLevelChanged struct {
	CallCID string
	Levels  map[string]float64
}

// ConnectionQualityChanged carries a participant's connection quality score.
type ConnectionQualityChanged struct {
	CallCID string
	UserID  string
	Quality int
}

// DominantSpeakerChanged signals a new dominant speaker.
type DominantSpeakerChanged struct {
	CallCID string
	UserID  string
}

// ICETrickle carries a trickled ICE candidate from the SFU.
type ICETrickle struct {
	CallCID   string
	Candidate string
}

// SubscriberOffer carries the SDP offer for the subscriber peer connection.
type SubscriberOffer struct {
	CallCID string
	SDP     string
}

// TrackPublished signals that a participant published a new track.
type TrackPublished struct {
	CallCID string
	UserID  string
	TrackID string
}

// TrackUnpublished signals that a participant unpublished a track.
type TrackUnpublished struct {
	CallCID string
	UserID  string
	TrackID string
}

// ChangePublishQuality asks the publisher to switch simulcast layers.
type ChangePublishQuality struct {
	CallCID string
}

// Error is an error reported by the SFU on the session channel.
type Error struct {
	CallCID string
	Message string
}

// HealthCheckResponse is the reply to the session keepalive.
type HealthCheckResponse struct{}

// Unknown is any event type this client does not recognize.
type Unknown struct {
	Type string
	Raw  []byte
}

func (JoinCallResponse) sfuEvent()         {}
func (ParticipantJoined) sfuEvent()        {}
func (ParticipantLeft) sfuEvent()          {}
func (AudioLevelChanged) sfuEvent()        {}
func (ConnectionQualityChanged) sfuEvent() {}
func (DominantSpeakerChanged) sfuEvent()   {}
func (ICETrickle) sfuEvent()               {}
func (SubscriberOffer) sfuEvent()          {}
func (TrackPublished) sfuEvent()           {}
func (TrackUnpublished) sfuEvent()         {}
func (ChangePublishQuality) sfuEvent()     {}
func (Error) sfuEvent()                    {}
func (HealthCheckResponse) sfuEvent()      {}
func (Unknown) sfuEvent()                  {}
