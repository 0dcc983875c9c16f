package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/renardhq/renard/internal/ai"
	"github.com/renardhq/renard/internal/model"
	"github.com/renardhq/renard/internal/pkg/logutil"
	"github.com/renardhq/renard/internal/pkg/timeutil"
	"github.com/renardhq/renard/internal/vecstore"
)

const (
	DefaultBatchSize = 100
	DefaultRunLimit  = 10000
	maxBatchSize     = 1000
)

type ProcessOptions struct {
	// BatchSize is the chunk size per embedding call.
	BatchSize int
	// Limit caps how many backlog records one run considers.
	Limit int
	// TeamID optionally scopes the run to one team.
	TeamID string
}

type ProcessResult struct {
	Total     int      `json:"total"`
	Processed int      `json:"processed"`
	Failed    int      `json:"failed"`
	Errors    []string `json:"errors"`
}

type QueueStatus struct {
	UnprocessedCount int64  `json:"unprocessedCount"`
	Status           string `json:"status"`
}

// ProcessorService drains the backlog of unprocessed records: fetch oldest
// first, embed in fixed-size chunks, upsert vectors, flip the processed
// flag. A failing chunk is recorded and skipped; it never aborts the run.
type ProcessorService struct {
	activities activityStore
	embedder   ai.IEmbedder
	index      vectorIndex
	collection string
	chunkDelay time.Duration
}

func NewProcessorService(activities activityStore, embedder ai.IEmbedder, index vectorIndex, collection string, chunkDelay time.Duration) *ProcessorService {
	if chunkDelay <= 0 {
		chunkDelay = time.Second
	}
	return &ProcessorService{
		activities: activities,
		embedder:   embedder,
		index:      index,
		collection: collection,
		chunkDelay: chunkDelay,
	}
}

func (s *ProcessorService) ProcessPending(ctx context.Context, opts ProcessOptions) (*ProcessResult, error) {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if batchSize > maxBatchSize {
		batchSize = maxBatchSize
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultRunLimit
	}
	logger := logutil.GetLogger(ctx).With(
		zap.Int("batch_size", batchSize),
		zap.Int("limit", limit),
		zap.String("team_id", opts.TeamID),
	)

	records, err := s.activities.ListUnprocessed(ctx, opts.TeamID, limit)
	if err != nil {
		return nil, fmt.Errorf("list unprocessed: %w", err)
	}
	result := &ProcessResult{Total: len(records)}
	if len(records) == 0 {
		logger.Info("backlog empty, nothing to process")
		return result, nil
	}

	chunks := chunkRecords(records, batchSize)
	logger.Info("processing backlog", zap.Int("total", len(records)), zap.Int("chunks", len(chunks)))

	for i, chunk := range chunks {
		// Shutdown lets the in-flight chunk finish but starts no new one.
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("run canceled before chunk %d/%d", i+1, len(chunks)))
			break
		}
		if err := s.processChunk(ctx, chunk); err != nil {
			result.Failed += len(chunk)
			result.Errors = append(result.Errors, fmt.Sprintf("chunk %d/%d: %v", i+1, len(chunks), err))
			logger.Error("chunk failed, records stay unprocessed",
				zap.Int("chunk", i+1), zap.Int("size", len(chunk)), zap.Error(err))
			s.recordChunkFailure(ctx, chunk, err)
		} else {
			result.Processed += len(chunk)
		}
		if i < len(chunks)-1 {
			// Smooth load on the embedding provider between chunks.
			select {
			case <-ctx.Done():
			case <-time.After(s.chunkDelay):
			}
		}
	}

	logger.Info("run finished",
		zap.Int("total", result.Total),
		zap.Int("processed", result.Processed),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (s *ProcessorService) processChunk(ctx context.Context, chunk []model.Activity) error {
	texts := make([]string, 0, len(chunk))
	for i := range chunk {
		texts = append(texts, chunk[i].Content)
	}
	vectors, err := s.embedder.EmbedBatch(ctx, texts, ai.TaskDocument)
	if err != nil {
		return fmt.Errorf("embed batch: %w", err)
	}
	points := make([]vecstore.Point, 0, len(chunk))
	for i := range chunk {
		points = append(points, buildPoint(&chunk[i], vectors[i]))
	}
	if err := s.index.Upsert(ctx, s.collection, points); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	now := timeutil.NowUnix()
	for i := range chunk {
		if err := s.activities.MarkProcessed(ctx, chunk[i].ID, chunk[i].ID, now); err != nil {
			return fmt.Errorf("mark processed %s: %w", chunk[i].ID, err)
		}
	}
	return nil
}

func (s *ProcessorService) recordChunkFailure(ctx context.Context, chunk []model.Activity, cause error) {
	ids := make([]string, 0, len(chunk))
	for i := range chunk {
		ids = append(ids, chunk[i].ID)
	}
	if err := s.activities.RecordFailure(ctx, ids, cause.Error(), timeutil.NowUnix()); err != nil {
		logutil.GetLogger(ctx).Error("record chunk failure", zap.Error(err))
	}
}

func (s *ProcessorService) Queue(ctx context.Context, teamID string) (*QueueStatus, error) {
	count, err := s.activities.CountUnprocessed(ctx, teamID)
	if err != nil {
		return nil, err
	}
	statusName := "idle"
	if count > 0 {
		statusName = "pending"
	}
	return &QueueStatus{UnprocessedCount: count, Status: statusName}, nil
}

func chunkRecords(records []model.Activity, size int) [][]model.Activity {
	chunks := make([][]model.Activity, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		chunks = append(chunks, records[start:end])
	}
	return chunks
}
