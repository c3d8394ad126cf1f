package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/agencyboard-api/internal/models"
	"github.com/yukikurage/agencyboard-api/internal/testutil"
)

func TestFieldValues_SetReplaces(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := testutil.CreateTask(t, f.db, "Launch", f.owner.ID)
	channel := testutil.CreateCustomField(t, f.db, "Channel", false)
	budget := testutil.CreateCustomField(t, f.db, "Budget", true)

	values, err := f.values.Set(ctx, f.owner, task.ID, []FieldValueInput{
		{CustomFieldID: channel.ID, Value: json.RawMessage(`"email"`)},
		{CustomFieldID: budget.ID, Value: json.RawMessage(`1200`)},
	})
	require.NoError(t, err)
	require.Len(t, values, 2)

	values, err = f.values.Set(ctx, f.owner, task.ID, []FieldValueInput{
		{CustomFieldID: channel.ID, Value: json.RawMessage(`"social"`)},
	})
	require.NoError(t, err)
	require.Len(t, values, 2, "a second write replaces instead of adding")
	byField := map[string]string{}
	for _, v := range values {
		byField[v.CustomFieldID] = string(v.Value)
	}
	assert.JSONEq(t, `"social"`, byField[channel.ID])
	assert.JSONEq(t, `1200`, byField[budget.ID])
}

func TestFieldValues_InternalOnlyHiddenFromAgency(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := testutil.CreateTask(t, f.db, "Launch", f.owner.ID)
	channel := testutil.CreateCustomField(t, f.db, "Channel", false)
	budget := testutil.CreateCustomField(t, f.db, "Budget", true)

	_, err := f.values.Set(ctx, f.owner, task.ID, []FieldValueInput{
		{CustomFieldID: channel.ID, Value: json.RawMessage(`"email"`)},
		{CustomFieldID: budget.ID, Value: json.RawMessage(`1200`)},
	})
	require.NoError(t, err)

	values, err := f.values.List(ctx, f.external, task.ID)
	require.NoError(t, err)
	require.Len(t, values, 1)
	assert.Equal(t, channel.ID, values[0].CustomFieldID)

	_, err = f.values.Set(ctx, f.external, task.ID, []FieldValueInput{
		{CustomFieldID: budget.ID, Value: json.RawMessage(`0`)},
	})
	assert.ErrorIs(t, err, ErrCustomFieldNotFound)

	var stored models.TaskCustomFieldValue
	require.NoError(t, f.db.First(&stored, "task_id = ? AND custom_field_id = ?", task.ID, budget.ID).Error)
	assert.JSONEq(t, `1200`, string(stored.Value))
}

func TestFieldValues_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := testutil.CreateTask(t, f.db, "Launch", f.owner.ID)
	channel := testutil.CreateCustomField(t, f.db, "Channel", false)

	_, err := f.values.Set(ctx, f.owner, task.ID, []FieldValueInput{{Value: json.RawMessage(`"x"`)}})
	assert.True(t, IsValidation(err))

	_, err = f.values.Set(ctx, f.owner, task.ID, []FieldValueInput{
		{CustomFieldID: channel.ID, Value: json.RawMessage(`"email"`)},
		{CustomFieldID: "missing", Value: json.RawMessage(`"x"`)},
	})
	assert.ErrorIs(t, err, ErrCustomFieldNotFound)

	values, err := f.values.List(ctx, f.owner, task.ID)
	require.NoError(t, err)
	assert.Empty(t, values, "nothing is written when a field is unknown")

	_, err = f.values.List(ctx, f.owner, "missing")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}
