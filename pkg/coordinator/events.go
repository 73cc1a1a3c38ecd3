package coordinator

import (
	"github.com/rivulet-video/rivulet/pkg/model"
)

// Event is the closed set of events delivered by the coordinator socket.
// Consumers switch on the concrete type; unrecognized variants decode to
// Unknown and must be ignored, not treated as errors, so that the server can
// add event types without breaking older clients.
type Event interface {
	coordinatorEvent()
}

// CallCreated signals a new call. Only ringing calls are offered to the
// engine as incoming calls.
type CallCreated struct {
	CallCID string
	Ringing bool
	Call    model.CallMetadata
	Users   map[string]model.CallUser
}

// CallAccepted signals that a member accepted the call.
type CallAccepted struct {
	CallCID      string
	SentByUserID string
}

// CallRejected signals that a member rejected the call. It carries the
// updated call metadata and the remaining (non-accepting) member set.
type CallRejected struct {
	CallCID      string
	SentByUserID string
	Call         model.CallMetadata
	Users        map[string]model.CallUser
}

// CallEnded signals that the call finished.
type CallEnded struct {
	CallCID      string
	SentByUserID string
}

// CallCancelled signals that the caller cancelled the call.
type CallCancelled struct {
	CallCID      string
	SentByUserID string
}

// CallUpdated signals a metadata change on the call.
type CallUpdated struct {
	CallCID string
	Call    model.CallMetadata
}

// CallMembersUpdated signals a change in the call member set.
type CallMembersUpdated struct {
	CallCID string
	Users   map[string]model.CallUser
}

// CallMembersDeleted signals removal of members from the call.
type CallMembersDeleted struct {
	CallCID string
	UserIDs []string
}

// Connected confirms the socket connection with the coordinator.
type Connected struct {
	ConnectionID string
}

// HealthCheck is the periodic coordinator keepalive.
type HealthCheck struct {
	ConnectionID string
}

// Unknown is any event type this client does not recognize.
type Unknown struct {
	Type string
	Raw  []byte
}

func (CallCreated) coordinatorEvent()        {}
func (CallAccepted) coordinatorEvent()       {}
func (CallRejected) coordinatorEvent()       {}
func (CallEnded) coordinatorEvent()          {}
func (CallCancelled) coordinatorEvent()      {}
func (CallUpdated) coordinatorEvent()        {}
func (CallMembersUpdated) coordinatorEvent() {}
func (CallMembersDeleted) coordinatorEvent() {}
func (Connected) coordinatorEvent()          {}
func (HealthCheck) coordinatorEvent()        {}
func (Unknown) coordinatorEvent()            {}
