package model_test

import (
	"testing"
	"time"

	"github.com/rivulet-video/rivulet/pkg/model"
	"github.com/stretchr/testify/assert"
)

func TestMergeOverlaysNonZeroFields(t *testing.T) {
	now := time.Now()
	existing := model.CallUser{ID: "bob", Name: "Bob", Role: "member"}
	update := model.CallUser{ID: "bob", Name: "Bobby", UpdatedAt: now}

	merged := existing.Merge(update)

	assert.Equal(t, "Bobby", merged.Name)
	assert.Equal(t, "member", merged.Role)
	assert.Equal(t, now, merged.UpdatedAt)
}

func TestMergeNeverReplacesID(t *testing.T) {
	existing := model.CallUser{ID: "bob", Name: "Bob"}
	merged := existing.Merge(model.CallUser{ID: "carol", Name: "Carol"})
	assert.Equal(t, "bob", merged.ID)
}

func TestMergeUsersOverlaysPerUser(t *testing.T) {
	users := map[string]model.CallUser{
		"alice": {ID: "alice", Name: "Alice", Role: "admin"},
		"bob":   {ID: "bob", Name: "Bob"},
	}
	update := map[string]model.CallUser{
		"bob":   {ID: "bob", Role: "member"},
		"carol": {ID: "carol", Name: "Carol"},
	}

	merged := model.MergeUsers(users, update)

	// Existing entries survive, updates overlay field by field.
	assert.Equal(t, "Alice", merged["alice"].Name)
	assert.Equal(t, "Bob", merged["bob"].Name)
	assert.Equal(t, "member", merged["bob"].Role)
	assert.Equal(t, "Carol", merged["carol"].Name)
}

func TestMergeUsersDoesNotMutateInputs(t *testing.T) {
	users := map[string]model.CallUser{"bob": {ID: "bob", Name: "Bob"}}
	update := map[string]model.CallUser{"bob": {ID: "bob", Name: "Bobby"}}

	model.MergeUsers(users, update)

	assert.Equal(t, "Bob", users["bob"].Name)
}

func TestMergeUsersNilBase(t *testing.T) {
	merged := model.MergeUsers(nil, map[string]model.CallUser{"bob": {ID: "bob"}})
	assert.Contains(t, merged, "bob")
}

func TestFormatCID(t *testing.T) {
	assert.Equal(t, "default:calls-42", model.FormatCID("default", "calls-42"))

	guid := model.NewCallGuid("default", "calls-42")
	assert.Equal(t, "default", guid.Type)
	assert.Equal(t, "calls-42", guid.ID)
	assert.Equal(t, "default:calls-42", guid.CID)
}
