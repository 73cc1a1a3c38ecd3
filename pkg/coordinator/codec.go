package coordinator

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/rivulet-video/rivulet/pkg/model"
)

// Wire representation of the coordinator event envelope. Every event carries
// a type tag; the payload fields depend on the type.
type wireEvent struct {
	Type         string              `json:"type"`
	CallCID      string              `json:"call_cid,omitempty"`
	UserID       string              `json:"user_id,omitempty"`
	UserIDs      []string            `json:"user_ids,omitempty"`
	Ringing      bool                `json:"ringing,omitempty"`
	ConnectionID string              `json:"connection_id,omitempty"`
	Call         *wireCall           `json:"call,omitempty"`
	Members      map[string]wireUser `json:"members,omitempty"`
}

type wireCall struct {
	Type                string                 `json:"type"`
	ID                  string                 `json:"id"`
	CID                 string                 `json:"cid"`
	Kind                string                 `json:"kind"`
	CreatedByUserID     string                 `json:"created_by_user_id"`
	BroadcastingEnabled bool                   `json:"broadcasting_enabled"`
	RecordingEnabled    bool                   `json:"recording_enabled"`
	CreatedAt           time.Time              `json:"created_at"`
	UpdatedAt           time.Time              `json:"updated_at"`
	MemberUserIDs       []string               `json:"member_user_ids"`
	Members             map[string]wireUser    `json:"members,omitempty"`
	Custom              map[string]interface{} `json:"custom,omitempty"`
}

type wireUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	Role      string    `json:"role,omitempty"`
	ImageURL  string    `json:"image_url,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// ParseEvent decodes a raw coordinator socket message into an Event.
// Unrecognized event types decode into Unknown; only malformed JSON is an
// error.
func ParseEvent(data []byte) (Event, error) {
	var wire wireEvent
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, fmt.Errorf("failed to decode coordinator event: %w", err)
	}

	switch wire.Type {
	case "call.created":
		return CallCreated{
			CallCID: wire.CallCID,
			Ringing: wire.Ringing,
			Call:    wire.Call.toMetadata(),
			Users:   usersFromWire(wire.Members),
		}, nil
	case "call.accepted":
		return CallAccepted{CallCID: wire.CallCID, SentByUserID: wire.UserID}, nil
	case "call.rejected":
		return CallRejected{
			CallCID:      wire.CallCID,
			SentByUserID: wire.UserID,
			Call:         wire.Call.toMetadata(),
			Users:        usersFromWire(wire.Members),
		}, nil
	case "call.ended":
		return CallEnded{CallCID: wire.CallCID, SentByUserID: wire.UserID}, nil
	case "call.cancelled":
		return CallCancelled{CallCID: wire.CallCID, SentByUserID: wire.UserID}, nil
	case "call.updated":
		return CallUpdated{CallCID: wire.CallCID, Call: wire.Call.toMetadata()}, nil
	case "call.members_updated":
		return CallMembersUpdated{CallCID: wire.CallCID, Users: usersFromWire(wire.Members)}, nil
	case "call.members_deleted":
		return CallMembersDeleted{CallCID: wire.CallCID, UserIDs: wire.UserIDs}, nil
	case "connection.ok":
		return Connected{ConnectionID: wire.ConnectionID}, nil
	case "health.check":
		return HealthCheck{ConnectionID: wire.ConnectionID}, nil
	default:
		return Unknown{Type: wire.Type, Raw: data}, nil
	}
}

func (w *wireCall) toMetadata() model.CallMetadata {
	if w == nil {
		return model.CallMetadata{}
	}

	cid := w.CID
	if cid == "" {
		cid = model.FormatCID(w.Type, w.ID)
	}

	return model.CallMetadata{
		Type:                w.Type,
		ID:                  w.ID,
		CID:                 cid,
		Kind:                kindFromWire(w.Kind),
		CreatedByUserID:     w.CreatedByUserID,
		BroadcastingEnabled: w.BroadcastingEnabled,
		RecordingEnabled:    w.RecordingEnabled,
		CreatedAt:           w.CreatedAt,
		UpdatedAt:           w.UpdatedAt,
		Users:               usersFromWire(w.Members),
		Details:             model.CallDetails{MemberUserIDs: w.MemberUserIDs},
		Custom:              w.Custom,
	}
}

func kindFromWire(kind string) model.CallKind {
	if kind == "meeting" {
		return model.KindMeeting
	}
	return model.KindRinging
}

func usersFromWire(wire map[string]wireUser) map[string]model.CallUser {
	if wire == nil {
		return nil
	}

	users := make(map[string]model.CallUser, len(wire))
	for id, user := range wire {
		if user.ID == "" {
			user.ID = id
		}
		users[id] = model.CallUser{
			ID:        user.ID,
			Name:      user.Name,
			Role:      user.Role,
			ImageURL:  user.ImageURL,
			CreatedAt: user.CreatedAt,
			UpdatedAt: user.UpdatedAt,
		}
	}
	return users
}
