package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/renardhq/renard/internal/model"
	appErr "github.com/renardhq/renard/internal/pkg/errors"
)

func TestCreateMessageIsBuffered(t *testing.T) {
	store := newFakeStore()
	svc := NewIngestService(store)

	act, err := svc.CreateMessage(context.Background(), "user-1", validInput())
	require.NoError(t, err)
	require.False(t, act.Processed)
	require.Nil(t, act.VectorID)
	require.Equal(t, "user-1", act.UserID)
	require.NotEmpty(t, act.ID)
}

func TestCreateMessageValidation(t *testing.T) {
	svc := NewIngestService(newFakeStore())

	cases := map[string]ActivityInput{
		"empty type":    {ActivityType: "", Content: "x", TeamID: "t"},
		"empty content": {ActivityType: "chat", Content: " ", TeamID: "t"},
		"empty team":    {ActivityType: "chat", Content: "x", TeamID: ""},
		"bad metadata":  {ActivityType: "chat", Content: "x", TeamID: "t", Metadata: model.Metadata{"nested": map[string]interface{}{"a": 1}}},
	}
	for name, input := range cases {
		_, err := svc.CreateMessage(context.Background(), "user-1", input)
		require.ErrorIs(t, err, appErr.ErrInvalid, name)
	}
}

func TestCreateMessagesRejectsEmptyBatch(t *testing.T) {
	svc := NewIngestService(newFakeStore())
	_, err := svc.CreateMessages(context.Background(), "user-1", nil)
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestCreateMessagesRejectsBatchWithoutSideEffect(t *testing.T) {
	store := newFakeStore()
	svc := NewIngestService(store)

	inputs := []ActivityInput{validInput(), {ActivityType: "chat", Content: "", TeamID: "t"}}
	_, err := svc.CreateMessages(context.Background(), "user-1", inputs)
	require.ErrorIs(t, err, appErr.ErrInvalid)
	require.Empty(t, store.records)
}

func TestCreateMessagesBatch(t *testing.T) {
	store := newFakeStore()
	svc := NewIngestService(store)

	inputs := make([]ActivityInput, 25)
	for i := range inputs {
		inputs[i] = validInput()
	}
	acts, err := svc.CreateMessages(context.Background(), "user-1", inputs)
	require.NoError(t, err)
	require.Len(t, acts, 25)
	require.Len(t, store.records, 25)

	stats, err := svc.Stats(context.Background(), "user-1", "team-1")
	require.NoError(t, err)
	require.EqualValues(t, 25, stats.Total)
	require.EqualValues(t, 25, stats.Unprocessed)
	require.EqualValues(t, 0, stats.Processed)
}
