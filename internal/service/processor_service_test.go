package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/renardhq/renard/internal/model"
)

func newTestProcessor(store *fakeStore, embedder *fakeEmbedder, index *fakeIndex) *ProcessorService {
	return NewProcessorService(store, embedder, index, "activities", time.Millisecond)
}

func TestProcessPendingDrainsBacklogInChunks(t *testing.T) {
	store := newFakeStore()
	embedder := newFakeEmbedder()
	index := newFakeIndex()
	seedBacklog(store, 250, "team-1")

	proc := newTestProcessor(store, embedder, index)
	result, err := proc.ProcessPending(context.Background(), ProcessOptions{BatchSize: 100})
	require.NoError(t, err)
	require.Equal(t, 250, result.Total)
	require.Equal(t, 250, result.Processed)
	require.Equal(t, 0, result.Failed)
	require.Empty(t, result.Errors)

	// One provider call per chunk, never per record.
	require.Equal(t, 3, embedder.batchCalls)
	require.Equal(t, 3, index.upsertCalls)

	for _, act := range store.records {
		require.True(t, act.Processed)
		require.NotNil(t, act.VectorID)
		require.Equal(t, act.ID, *act.VectorID)
	}
	require.Len(t, index.points, 250)

	count, err := store.CountUnprocessed(context.Background(), "")
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestProcessPendingEmptyBacklogIsSuccess(t *testing.T) {
	proc := newTestProcessor(newFakeStore(), newFakeEmbedder(), newFakeIndex())
	result, err := proc.ProcessPending(context.Background(), ProcessOptions{})
	require.NoError(t, err)
	require.Equal(t, &ProcessResult{}, result)
}

func TestProcessPendingIsolatesFailedChunk(t *testing.T) {
	store := newFakeStore()
	embedder := newFakeEmbedder()
	embedder.failOnCall[2] = errors.New("rate limited")
	index := newFakeIndex()
	seedBacklog(store, 250, "team-1")

	proc := newTestProcessor(store, embedder, index)
	result, err := proc.ProcessPending(context.Background(), ProcessOptions{BatchSize: 100})
	require.NoError(t, err)
	require.Equal(t, 250, result.Total)
	require.Equal(t, 150, result.Processed)
	require.Equal(t, 100, result.Failed)
	require.Len(t, result.Errors, 1)
	require.Contains(t, result.Errors[0], "rate limited")

	count, err := store.CountUnprocessed(context.Background(), "")
	require.NoError(t, err)
	require.EqualValues(t, 100, count)

	// Failed records carry the error for operators, but stay pending.
	var failureMarks int
	for _, act := range store.records {
		if act.LastError != nil {
			failureMarks++
			require.False(t, act.Processed)
			require.Equal(t, 1, act.AttemptCount)
		}
	}
	require.Equal(t, 100, failureMarks)

	// The backlog itself is the retry mechanism: a healthy second run
	// converges the remainder.
	result, err = proc.ProcessPending(context.Background(), ProcessOptions{BatchSize: 100})
	require.NoError(t, err)
	require.Equal(t, 100, result.Total)
	require.Equal(t, 100, result.Processed)
	require.Equal(t, 0, result.Failed)

	count, err = store.CountUnprocessed(context.Background(), "")
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestProcessPendingOldestFirst(t *testing.T) {
	store := newFakeStore()
	embedder := newFakeEmbedder()
	index := newFakeIndex()
	ids := seedBacklog(store, 5, "team-1")

	proc := newTestProcessor(store, embedder, index)
	result, err := proc.ProcessPending(context.Background(), ProcessOptions{BatchSize: 2, Limit: 3})
	require.NoError(t, err)
	require.Equal(t, 3, result.Total)
	require.Equal(t, 3, result.Processed)

	// The oldest three were drained, the two newest stay pending.
	for i, id := range ids {
		if i < 3 {
			require.True(t, store.records[id].Processed, "record %d should be processed", i)
		} else {
			require.False(t, store.records[id].Processed, "record %d should be pending", i)
		}
	}
}

func TestProcessPendingTeamScope(t *testing.T) {
	store := newFakeStore()
	embedder := newFakeEmbedder()
	index := newFakeIndex()
	seedBacklog(store, 3, "team-a")
	store.add(&model.Activity{ID: "11111111-0000-0000-0000-000000000001", UserID: "user-2", TeamID: "team-b", ActivityType: "code", Content: "other team"})
	store.add(&model.Activity{ID: "11111111-0000-0000-0000-000000000002", UserID: "user-2", TeamID: "team-b", ActivityType: "code", Content: "other team again"})

	proc := newTestProcessor(store, embedder, index)
	result, err := proc.ProcessPending(context.Background(), ProcessOptions{TeamID: "team-a"})
	require.NoError(t, err)
	require.Equal(t, 3, result.Total)
	require.Equal(t, 3, result.Processed)

	count, err := store.CountUnprocessed(context.Background(), "team-b")
	require.NoError(t, err)
	require.EqualValues(t, 2, count)
}

func TestProcessPendingStopsOnCanceledContext(t *testing.T) {
	store := newFakeStore()
	embedder := newFakeEmbedder()
	index := newFakeIndex()
	seedBacklog(store, 10, "team-1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	proc := newTestProcessor(store, embedder, index)
	result, err := proc.ProcessPending(ctx, ProcessOptions{BatchSize: 5})
	require.NoError(t, err)
	require.Equal(t, 10, result.Total)
	require.Equal(t, 0, result.Processed)
	require.NotEmpty(t, result.Errors)
	require.Zero(t, embedder.batchCalls)
}

func TestQueueStatus(t *testing.T) {
	store := newFakeStore()
	proc := newTestProcessor(store, newFakeEmbedder(), newFakeIndex())

	queue, err := proc.Queue(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, "idle", queue.Status)
	require.Zero(t, queue.UnprocessedCount)

	seedBacklog(store, 4, "team-1")
	queue, err = proc.Queue(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, "pending", queue.Status)
	require.EqualValues(t, 4, queue.UnprocessedCount)
}
