package service

import (
	"context"

	"github.com/renardhq/renard/internal/model"
	"github.com/renardhq/renard/internal/vecstore"
)

// activityStore is the slice of the activity repo the services depend on.
type activityStore interface {
	Create(ctx context.Context, act *model.Activity) error
	CreateBatch(ctx context.Context, acts []*model.Activity) error
	GetByID(ctx context.Context, userID, id string) (*model.Activity, error)
	ListByIDs(ctx context.Context, userID string, ids []string) ([]model.Activity, error)
	List(ctx context.Context, userID, teamID string, limit, offset uint) ([]model.Activity, error)
	ListUnprocessed(ctx context.Context, teamID string, limit int) ([]model.Activity, error)
	MarkProcessed(ctx context.Context, id, vectorID string, mtime int64) error
	RecordFailure(ctx context.Context, ids []string, message string, mtime int64) error
	CountUnprocessed(ctx context.Context, teamID string) (int64, error)
	Stats(ctx context.Context, userID, teamID string) (*model.ActivityStats, error)
	Delete(ctx context.Context, userID, id string) error
}

// vectorIndex is the slice of the qdrant store the services depend on.
type vectorIndex interface {
	Upsert(ctx context.Context, collection string, points []vecstore.Point) error
	Search(ctx context.Context, collection string, vector []float32, limit int, filter map[string]string) ([]vecstore.ScoredID, error)
	Scroll(ctx context.Context, collection string, filter map[string]string, pageLimit int, offset string) ([]vecstore.ScrolledPoint, string, error)
	Delete(ctx context.Context, collection string, ids []string) error
}

type embeddingCache interface {
	Get(ctx context.Context, modelName, taskType, contentHash string) ([]float32, bool, error)
	Save(ctx context.Context, item *model.EmbeddingCache) error
}
