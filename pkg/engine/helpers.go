package engine

import (
	"github.com/rivulet-video/rivulet/pkg/model"
	"github.com/rivulet-video/rivulet/pkg/state"
)

// Builds the shared started-state fields from coordinator call metadata.
// The user map passed in overlays the one carried by the metadata.
func callInfoFromMetadata(call model.CallMetadata, users map[string]model.CallUser) state.Call {
	return state.Call{
		Guid:                model.NewCallGuid(call.Type, call.ID),
		Kind:                call.Kind,
		CreatedByUserID:     call.CreatedByUserID,
		BroadcastingEnabled: call.BroadcastingEnabled,
		RecordingEnabled:    call.RecordingEnabled,
		CreatedAt:           call.CreatedAt,
		UpdatedAt:           call.UpdatedAt,
		Users:               model.MergeUsers(call.Users, users),
		Details:             call.Details,
		Custom:              call.Custom,
	}
}

// Merges a queried member list into the known user map.
func mergeQueriedUsers(users map[string]model.CallUser, queried []model.CallUser) map[string]model.CallUser {
	update := make(map[string]model.CallUser, len(queried))
	for _, user := range queried {
		update[user.ID] = user
	}
	return model.MergeUsers(users, update)
}
