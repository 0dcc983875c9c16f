package job

import (
	"context"

	"go.uber.org/zap"

	"github.com/renardhq/renard/internal/pkg/logutil"
	"github.com/renardhq/renard/internal/service"
)

// EmbeddingBatchJob is the scheduled drain of the ingest backlog.
type EmbeddingBatchJob struct {
	processor *service.ProcessorService
	batchSize int
	limit     int
}

func NewEmbeddingBatchJob(processor *service.ProcessorService, batchSize, limit int) *EmbeddingBatchJob {
	return &EmbeddingBatchJob{processor: processor, batchSize: batchSize, limit: limit}
}

func (j *EmbeddingBatchJob) Name() string {
	return "embedding_batch"
}

func (j *EmbeddingBatchJob) Run(ctx context.Context) error {
	if j.processor == nil {
		return nil
	}
	result, err := j.processor.ProcessPending(ctx, service.ProcessOptions{
		BatchSize: j.batchSize,
		Limit:     j.limit,
	})
	if err != nil {
		return err
	}
	if result.Failed > 0 {
		logutil.GetLogger(ctx).Warn("batch run had failed chunks",
			zap.Int("failed", result.Failed),
			zap.Strings("errors", result.Errors),
		)
	}
	return nil
}
