package sfu

import "github.com/google/uuid"

// JoinRequest is the message the client transmits to the SFU to join a call.
// The token must be the SFU token the coordinator handed out on join.
type JoinRequest struct {
	SessionID string
	Token     string
}

// NewJoinRequest builds a join request with a fresh session ID.
func NewJoinRequest(token string) JoinRequest {
	return JoinRequest{
		SessionID: uuid.NewString(),
		Token:     token,
	}
}
