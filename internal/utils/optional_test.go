package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptional_DistinguishesOmittedFromNull(t *testing.T) {
	var body struct {
		AssigneeID Optional[string] `json:"assignee_id"`
		DueDate    Optional[string] `json:"due_date"`
		Priority   Optional[int]    `json:"priority"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"assignee_id": null, "priority": 3}`), &body))

	assert.True(t, body.AssigneeID.Set)
	assert.Nil(t, body.AssigneeID.Value)
	assert.Nil(t, body.AssigneeID.Column())

	assert.False(t, body.DueDate.Set)

	require.True(t, body.Priority.Set)
	assert.Equal(t, 3, *body.Priority.Value)
	assert.Equal(t, 3, body.Priority.Column())
}

func TestOptional_InvalidValue(t *testing.T) {
	var body struct {
		Priority Optional[int] `json:"priority"`
	}
	assert.Error(t, json.Unmarshal([]byte(`{"priority": "high"}`), &body))
}

func TestOptional_Marshal(t *testing.T) {
	out, err := json.Marshal(map[string]Optional[string]{"a": Some("x"), "b": Null[string]()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"x","b":null}`, string(out))
}
