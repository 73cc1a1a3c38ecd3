package model

import (
	"fmt"
	"time"
)

// CallGuid uniquely identifies a call across the coordinator and the SFU
// event streams. The CID is a deterministic composite of type and ID, so
// two guids are equal iff both the type and the ID match.
type CallGuid struct {
	Type string
	ID   string
	CID  string
}

// NewCallGuid derives the composite CID from the call type and ID.
func NewCallGuid(callType, callID string) CallGuid {
	return CallGuid{
		Type: callType,
		ID:   callID,
		CID:  FormatCID(callType, callID),
	}
}

// FormatCID builds the composite call identifier used on the wire.
func FormatCID(callType, callID string) string {
	return fmt.Sprintf("%s:%s", callType, callID)
}

// CallKind determines which lifecycle transitions are legal for a call.
// Cancellation, for instance, is not meaningful for meetings.
type CallKind int

const (
	KindRinging CallKind = iota
	KindMeeting
)

func (k CallKind) String() string {
	switch k {
	case KindRinging:
		return "ringing"
	case KindMeeting:
		return "meeting"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// CallDetails carries the member list the coordinator attached to the call.
type CallDetails struct {
	MemberUserIDs []string
}

// CallMetadata is the coordinator's description of a call, as returned by
// the call creation and join endpoints and carried by ringing events.
type CallMetadata struct {
	Type                string
	ID                  string
	CID                 string
	Kind                CallKind
	CreatedByUserID     string
	BroadcastingEnabled bool
	RecordingEnabled    bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
	Users               map[string]CallUser
	Details             CallDetails
	Custom              map[string]interface{}
}

// IceServer is a single STUN/TURN server handed out by the coordinator on join.
type IceServer struct {
	URLs     []string
	Username string
	Password string
}

// JoinedCall is the coordinator's response to a join request. It contains
// everything needed to establish the media session with the SFU.
type JoinedCall struct {
	Call       CallMetadata
	CallURL    string
	SfuToken   string
	IceServers []IceServer
}

// CallEventType is the kind of call event the client sends to the coordinator.
type CallEventType int

const (
	EventTypeUndefined CallEventType = iota
	EventTypeAccepted
	EventTypeRejected
	EventTypeCancelled
)

func (t CallEventType) String() string {
	switch t {
	case EventTypeAccepted:
		return "accepted"
	case EventTypeRejected:
		return "rejected"
	case EventTypeCancelled:
		return "cancelled"
	default:
		return "undefined"
	}
}
